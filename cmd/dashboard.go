package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/khrees2412/devapply/internal/dashboard"
	"github.com/spf13/cobra"
)

const clearScreen = "\033[H\033[2J"

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show your jobs, stats and scheduler state",
	Long: `Show your jobs, stats and scheduler state.

With --watch the dashboard refreshes on the configured poll interval
until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, sess, err := requireSession(cmd)
		if err != nil {
			return err
		}
		watch, _ := cmd.Flags().GetBool("watch")

		d := dashboard.New(application.API, sess.Credential, sess.DisplayName, application.Config.JobsLimit, application.Log)
		d.PollInterval = application.Config.PollInterval
		out := cmd.OutOrStdout()

		if !watch {
			err := d.Refresh(cmd.Context())
			if rerr := d.Render(out); rerr != nil {
				return rerr
			}
			return err
		}

		var mu sync.Mutex
		d.OnChange = func(s dashboard.State) {
			mu.Lock()
			defer mu.Unlock()
			redraw(out, s)
			fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("Refreshing every %s. Press Ctrl+C to exit.", d.PollInterval)))
		}
		return d.Run(cmd.Context())
	},
}

func redraw(w io.Writer, s dashboard.State) {
	fmt.Fprint(w, clearScreen)
	fmt.Fprint(w, dashboard.RenderState(s))
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().BoolP("watch", "w", false, "Keep refreshing until interrupted")
}
