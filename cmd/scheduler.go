package cmd

import (
	"context"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/internal/dashboard"
	"github.com/khrees2412/devapply/pkg/models"
	"github.com/spf13/cobra"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Inspect and control the backend job scheduler",
}

var schedulerStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the scheduler is running and when it runs next",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		status, err := application.API.SchedulerStatus(cmd.Context())
		if err != nil {
			return err
		}

		state := errorStyle.Render("Stopped")
		if status.Running {
			state = successStyle.Render("Running")
		}
		cmd.Printf("%s %s\n", labelStyle.Render("Scheduler:"), state)
		cmd.Println("Scheduled to run daily at 8:00 AM")
		if next, ok := status.NextRun(); ok {
			if t, err := models.ParseNextRun(next); err == nil {
				next = t.Local().Format("Mon Jan 2, 2006 3:04 PM")
			}
			cmd.Printf("%s %s\n", labelStyle.Render("Next run:"), next)
		}
		return nil
	},
}

var schedulerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return schedulerCommand(cmd, (*api.Client).StartScheduler)
	},
}

var schedulerStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		return schedulerCommand(cmd, (*api.Client).StopScheduler)
	},
}

var schedulerRunNowCmd = &cobra.Command{
	Use:   "run-now",
	Short: "Scrape and apply right away instead of waiting for the daily run",
	RunE: func(cmd *cobra.Command, args []string) error {
		err := schedulerCommand(cmd, (*api.Client).RunSchedulerNow)
		if err == nil {
			cmd.Println(dashboard.RunNowAcknowledgement)
		}
		return err
	},
}

func schedulerCommand(cmd *cobra.Command, call func(*api.Client, context.Context) (*models.Ack, error)) error {
	application, err := appFrom(cmd)
	if err != nil {
		return err
	}
	ack, err := call(application.API, cmd.Context())
	if err != nil {
		return err
	}
	if ack.Message != "" {
		cmd.Println(successStyle.Render("✓ " + ack.Message))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerStopCmd)
	schedulerCmd.AddCommand(schedulerRunNowCmd)
}
