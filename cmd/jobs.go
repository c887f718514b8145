package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/khrees2412/devapply/pkg/models"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the jobs the scheduler found for you",
	Example: `  devapply jobs
  devapply jobs --limit 10
  devapply jobs --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, sess, err := requireSession(cmd)
		if err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")
		output, _ := cmd.Flags().GetString("output")
		if limit <= 0 {
			limit = application.Config.JobsLimit
		}

		list, err := application.API.Jobs(cmd.Context(), sess.Credential, limit)
		if err != nil {
			return err
		}
		return writeJobs(cmd.OutOrStdout(), output, list)
	},
}

func writeJobs(w io.Writer, output string, list *models.JobList) error {
	switch output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list.Jobs)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(list.Jobs)
	case "table", "":
	default:
		return fmt.Errorf("unknown output format %q, must be one of: table, json, yaml", output)
	}

	if len(list.Jobs) == 0 {
		fmt.Fprintln(w, "No jobs found yet. The scheduler will automatically find jobs for you!")
		return nil
	}

	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Your Saved Jobs (%d)", len(list.Jobs))))
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "Title", "Company", "Platform", "Status", "Applied").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return labelStyle.Padding(0, 1)
			}
			return valueStyle.Padding(0, 1)
		})
	for _, job := range list.Jobs {
		applied := "-"
		if job.AppliedOn != nil && *job.AppliedOn != "" {
			applied = *job.AppliedOn
		}
		t.Row(strconv.Itoa(job.ID), job.Title, job.Company, titleCase(job.Platform), titleCase(job.Status), applied)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

// titleCase converts a string to title case using proper locale-aware capitalization
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	jobsCmd.Flags().IntP("limit", "n", 0, "Maximum number of jobs (defaults to jobs_limit from config)")
	jobsCmd.Flags().StringP("output", "o", "table", "Output format: table, json or yaml")
}
