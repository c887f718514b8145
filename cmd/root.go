package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/khrees2412/devapply/internal/app"
	"github.com/khrees2412/devapply/pkg/models"
	"github.com/spf13/cobra"
)

// current is closed once the command finishes
var current *app.App

var rootCmd = &cobra.Command{
	Use:   "devapply",
	Short: "Terminal client for the DevApply job application assistant",
	Long: `DevApply lets you register, upload your resume and watch the backend scheduler
find and apply to jobs for you, all from the terminal.

Run 'devapply tui' for the interactive flow, or use the single-shot commands.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.NewApp(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to initialize app: %w", err)
		}
		current = application

		cmd.SetContext(app.SetAppInContext(cmd.Context(), application))
		return nil
	},
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetOut(os.Stdout)
	err := rootCmd.ExecuteContext(ctx)

	if current != nil {
		if cerr := current.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", cerr)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// appFrom returns the App stored by PersistentPreRunE
func appFrom(cmd *cobra.Command) (*app.App, error) {
	application := app.GetAppFromContext(cmd.Context())
	if application == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return application, nil
}

// requireSession loads the stored session for commands that need a login
func requireSession(cmd *cobra.Command) (*app.App, *models.Session, error) {
	application, err := appFrom(cmd)
	if err != nil {
		return nil, nil, err
	}
	sess, err := application.RequireSession(cmd.Context())
	if err != nil {
		if errors.Is(err, app.ErrNotAuthenticated) {
			return nil, nil, fmt.Errorf("not logged in, run 'devapply login' first")
		}
		return nil, nil, err
	}
	return application, sess, nil
}
