package cmd

import (
	"fmt"

	"github.com/khrees2412/devapply/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  "View and update configuration settings",
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Display current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.AppConfig
		cmd.Println(titleStyle.Render("Configuration"))
		cmd.Printf("%s %s\n", labelStyle.Render("Config File:"), config.GetConfigPath())

		apiURL := cfg.APIURL
		if apiURL == "" {
			apiURL = "(derived from origin)"
		}
		cmd.Printf("%s %s\n", labelStyle.Render("API URL:"), apiURL)
		cmd.Printf("%s %s\n", labelStyle.Render("Origin:"), cfg.Origin)
		cmd.Printf("%s %s\n", labelStyle.Render("Backend:"), cfg.BaseURL())
		cmd.Printf("%s %s\n", labelStyle.Render("Poll Interval:"), cfg.PollInterval)
		cmd.Printf("%s %d\n", labelStyle.Render("Jobs Limit:"), cfg.JobsLimit)
		if cfg.RequestTimeout > 0 {
			cmd.Printf("%s %s\n", labelStyle.Render("Request Timeout:"), cfg.RequestTimeout)
		} else {
			cmd.Printf("%s %s\n", labelStyle.Render("Request Timeout:"), "none")
		}
		cmd.Printf("%s %s\n", labelStyle.Render("Log Level:"), cfg.LogLevel)
		cmd.Printf("%s %s\n", labelStyle.Render("Log File:"), cfg.LogFile)
	},
}

var setConfigCmd = &cobra.Command{
	Use:   "set",
	Short: "Update a configuration value",
	Example: `  devapply config set --key api_url --value https://devapply-backend.onrender.com
  devapply config set --key poll_interval --value 1m
  devapply config set --key log_level --value debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("key")
		value, _ := cmd.Flags().GetString("value")

		if key == "" {
			return fmt.Errorf("--key is required")
		}

		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("error updating config: %w", err)
		}

		cmd.Printf("✓ Configuration updated: %s\n", key)

		if err := config.Initialize(); err != nil {
			cmd.PrintErrf("Warning: Could not reload config: %v\n", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(showConfigCmd)
	configCmd.AddCommand(setConfigCmd)

	setConfigCmd.Flags().String("key", "", "Configuration key")
	setConfigCmd.Flags().String("value", "", "Configuration value")
}
