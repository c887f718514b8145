package cmd

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "View your job search statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, sess, err := requireSession(cmd)
		if err != nil {
			return err
		}
		stats, err := application.API.Stats(cmd.Context(), sess.Credential)
		if err != nil {
			return err
		}

		cmd.Println(titleStyle.Render("Your Statistics"))
		cmd.Printf("  %s %d\n", labelStyle.Render("Total Jobs:"), stats.TotalJobs)
		cmd.Printf("  %s %d\n", labelStyle.Render("Saved Jobs:"), stats.SavedJobs)
		cmd.Printf("  %s %s\n", labelStyle.Render("Keywords:"), valueStyle.Render(stats.Keywords))
		cmd.Printf("  %s %s\n", labelStyle.Render("Location:"), valueStyle.Render(stats.Location))
		if stats.DailyLimit > 0 {
			cmd.Printf("  %s %d\n", labelStyle.Render("Daily Limit:"), stats.DailyLimit)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
