package cmd

import (
	"github.com/khrees2412/devapply/internal/userslist"
	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		list := userslist.New(application.API)
		loadErr := list.Load(cmd.Context())
		if err := list.Render(cmd.OutOrStdout()); err != nil {
			return err
		}
		return loadErr
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
}
