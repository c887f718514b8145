package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/internal/forms"
	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	Example: `  devapply login
  devapply login --email ann@example.com`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")

		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		form := forms.NewLoginForm(application.API, application.Navigation)
		if err := fillLogin(p, form, email, password); err != nil {
			return err
		}
		if err := form.Submit(cmd.Context()); err != nil {
			return errors.New(form.Error)
		}

		sess := application.Navigation.Session()
		cmd.Println(successStyle.Render(fmt.Sprintf("✓ Logged in as %s", sess.DisplayName)))
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
		form := forms.NewRegisterForm(application.API, application.Navigation)

		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		if err := fillRegister(p, form, name, email); err != nil {
			return err
		}
		if err := form.Submit(cmd.Context()); err != nil {
			return errors.New(form.Error)
		}

		cmd.Println(successStyle.Render("✓ Account created"))
		cmd.Println("Next, upload your resume with 'devapply upload <file>'")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		if err := application.Navigation.Logout(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("✓ Logged out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		sess, err := application.Sessions.Load(cmd.Context())
		if err != nil {
			return err
		}
		if sess == nil {
			cmd.Println("Not logged in. Run 'devapply login' or 'devapply register'.")
			return nil
		}
		cmd.Printf("%s %s\n", labelStyle.Render("Name:"), valueStyle.Render(sess.DisplayName))
		cmd.Printf("%s %d\n", labelStyle.Render("User ID:"), sess.UserID)
		cmd.Printf("%s %s\n", labelStyle.Render("Backend:"), application.API.BaseURL())
		return nil
	},
}

// fillLogin prompts for whatever the flags did not supply
func fillLogin(p *prompter, form *forms.LoginForm, email, password string) error {
	var err error
	if email == "" {
		if email, err = p.Line("Email:"); err != nil {
			return err
		}
	}
	if password == "" {
		if password, err = p.Password("Password:"); err != nil {
			return err
		}
	}
	form.SetEmail(email)
	form.SetPassword(password)
	return nil
}

func fillRegister(p *prompter, form *forms.RegisterForm, name, email string) error {
	var err error
	if name == "" {
		if name, err = p.Line("Full Name:"); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = p.Line("Email:"); err != nil {
			return err
		}
	}
	password, err := p.Password("Password:")
	if err != nil {
		return err
	}
	confirm, err := p.Password("Confirm Password:")
	if err != nil {
		return err
	}
	form.Set(forms.FieldName, name)
	form.Set(forms.FieldEmail, email)
	form.Set(forms.FieldPassword, password)
	form.Set(forms.FieldConfirmPassword, confirm)
	return nil
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the backend is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		return printHealth(cmd.Context(), cmd.OutOrStdout(), application.API)
	},
}

func printHealth(ctx context.Context, w io.Writer, client *api.Client) error {
	health, err := client.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s (%s)\n", labelStyle.Render("Backend:"), successStyle.Render(health.Status), client.BaseURL())
	return nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(healthCmd)

	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().String("password", "", "Account password (prompted when omitted)")
	registerCmd.Flags().String("name", "", "Full name")
	registerCmd.Flags().String("email", "", "Account email")
}
