package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/internal/app"
	"github.com/khrees2412/devapply/internal/config"
	"github.com/khrees2412/devapply/internal/dashboard"
	"github.com/khrees2412/devapply/internal/forms"
	"github.com/khrees2412/devapply/internal/logging"
	"github.com/khrees2412/devapply/internal/upload"
	"github.com/khrees2412/devapply/pkg/models"
	"github.com/spf13/cobra"
)

// errQuit ends the interactive loop without an error
var errQuit = errors.New("quit")

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive client",
	Long: `Launch the interactive client: log in or register, upload your resume and
watch the dashboard. A stored session opens straight on the dashboard.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := appFrom(cmd)
		if err != nil {
			return err
		}
		t := &terminalUI{
			nav:    application.Navigation,
			client: application.API,
			cfg:    application.Config,
			log:    application.Log,
			p:      newPrompter(cmd.InOrStdin(), cmd.OutOrStdout()),
			out:    cmd.OutOrStdout(),
		}
		return t.run(cmd.Context())
	},
}

type terminalUI struct {
	nav    *app.Controller
	client *api.Client
	cfg    *config.Config
	log    logging.Logger
	p      *prompter
	out    io.Writer

	// uploadDelay overrides the pause between upload and dashboard when set
	uploadDelay time.Duration

	drawMu sync.Mutex
}

func (t *terminalUI) run(ctx context.Context) error {
	if err := t.nav.Start(ctx); err != nil {
		return err
	}

	for {
		var err error
		switch screen := t.nav.Screen(); screen {
		case app.ScreenLogin:
			err = t.loginScreen(ctx)
		case app.ScreenRegister:
			err = t.registerScreen(ctx)
		case app.ScreenUpload:
			err = t.uploadScreen(ctx, t.nav.Session())
		case app.ScreenDashboard:
			err = t.dashboardScreen(ctx, t.nav.Session())
		default:
			return fmt.Errorf("%w: %s", app.ErrInvalidScreen, screen)
		}

		switch {
		case err == nil:
		case errors.Is(err, errQuit), errors.Is(err, io.EOF), errors.Is(err, context.Canceled):
			fmt.Fprintln(t.out, "Bye!")
			return nil
		default:
			return err
		}
	}
}

func (t *terminalUI) loginScreen(ctx context.Context) error {
	form := forms.NewLoginForm(t.client, t.nav)
	fmt.Fprintln(t.out, titleStyle.Render("Login"))
	fmt.Fprintln(t.out, hintStyle.Render(`Type "register" to create an account or "q" to quit.`))

	for {
		email, err := t.p.LineContext(ctx, withDefault("Email:", form.Email))
		if err != nil {
			return err
		}
		switch strings.ToLower(email) {
		case "q":
			return errQuit
		case "register":
			return t.nav.ShowRegister()
		case "":
		default:
			form.SetEmail(email)
		}

		password, err := t.p.Password(withDefault("Password:", mask(form.Password)))
		if err != nil {
			return err
		}
		if password != "" {
			form.SetPassword(password)
		}

		if err := form.Submit(ctx); err != nil {
			fmt.Fprintln(t.out, errorStyle.Render(form.Error))
			continue
		}
		return nil
	}
}

func (t *terminalUI) registerScreen(ctx context.Context) error {
	form := forms.NewRegisterForm(t.client, t.nav)
	fmt.Fprintln(t.out, titleStyle.Render("Create Account"))
	fmt.Fprintln(t.out, hintStyle.Render(`Type "login" to go back or "q" to quit.`))

	for {
		name, err := t.p.LineContext(ctx, withDefault("Full Name:", form.Name))
		if err != nil {
			return err
		}
		switch strings.ToLower(name) {
		case "q":
			return errQuit
		case "login":
			return t.nav.ShowLogin()
		case "":
		default:
			form.Set(forms.FieldName, name)
		}

		email, err := t.p.LineContext(ctx, withDefault("Email:", form.Email))
		if err != nil {
			return err
		}
		if email != "" {
			form.Set(forms.FieldEmail, email)
		}

		password, err := t.p.Password(withDefault("Password:", mask(form.Password)))
		if err != nil {
			return err
		}
		if password != "" {
			form.Set(forms.FieldPassword, password)
		}
		confirm, err := t.p.Password(withDefault("Confirm Password:", mask(form.ConfirmPassword)))
		if err != nil {
			return err
		}
		if confirm != "" {
			form.Set(forms.FieldConfirmPassword, confirm)
		}

		if err := form.Submit(ctx); err != nil {
			fmt.Fprintln(t.out, errorStyle.Render(form.Error))
			continue
		}
		return nil
	}
}

func (t *terminalUI) uploadScreen(ctx context.Context, sess *models.Session) error {
	token := ""
	name := ""
	if sess != nil {
		token, name = sess.Credential, sess.DisplayName
	}

	u := upload.NewUploader(t.client, t.log)
	u.OnSuccess = func(msg string) {
		fmt.Fprintln(t.out, successStyle.Render("✓ "+msg))
		fmt.Fprintln(t.out, hintStyle.Render("Opening your dashboard..."))
	}
	u.OnComplete = t.nav.UploadCompleted
	if t.uploadDelay > 0 {
		u.CompletionDelay = t.uploadDelay
	}

	fmt.Fprintln(t.out, titleStyle.Render("Upload Your Resume"))
	if name != "" {
		fmt.Fprintf(t.out, "Welcome, %s! Upload a PDF or Word document (max 5MB).\n", name)
	}

	for {
		state := u.State()
		if state.File != nil {
			fmt.Fprintf(t.out, "%s %s (%s)\n", labelStyle.Render("Selected:"), state.File.Name, humanSize(state.File.Size))
		}
		if state.Error != "" {
			fmt.Fprintln(t.out, errorStyle.Render(state.Error))
		}
		fmt.Fprintln(t.out, hintStyle.Render(`Enter a file path to select it, press Enter to upload, "x" to remove, "q" to log out.`))

		input, err := t.p.LineContext(ctx, "Resume:")
		if err != nil {
			return err
		}
		switch strings.ToLower(input) {
		case "q":
			return t.nav.Logout(ctx)
		case "x":
			u.Remove()
		case "":
			if err := u.Submit(ctx, token); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				continue
			}
			return nil
		default:
			_ = u.Select(expandPath(input))
		}
	}
}

func (t *terminalUI) dashboardScreen(ctx context.Context, sess *models.Session) error {
	if sess == nil {
		return t.nav.Logout(ctx)
	}
	ctx, cancel := context.WithCancel(ctx)

	d := dashboard.New(t.client, sess.Credential, sess.DisplayName, t.cfg.JobsLimit, t.log)
	d.PollInterval = t.cfg.PollInterval
	d.Notifier = t.p
	d.OnChange = t.drawDashboard

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = d.Run(ctx)
	}()
	defer func() {
		cancel()
		wg.Wait()
		d.Wait()
	}()

	for {
		key, err := t.p.LineContext(ctx, "")
		if err != nil {
			return err
		}

		switch strings.ToLower(key) {
		case "s":
			// no status yet means no stop/start control to offer
			if actions := d.Actions(); len(actions) == 0 {
				err = dashboard.ErrActionUnavailable
			} else {
				err = d.Perform(ctx, actions[0])
			}
		case "r":
			err = d.RunNow(ctx)
		case "f":
			err = d.Refresh(ctx)
		case "l":
			return t.nav.Logout(ctx)
		case "q":
			return errQuit
		default:
			t.drawDashboard(d.State())
			continue
		}

		if errors.Is(err, dashboard.ErrActionInProgress) || errors.Is(err, dashboard.ErrActionUnavailable) {
			fmt.Fprintln(t.out, hintStyle.Render(err.Error()))
		}
	}
}

func (t *terminalUI) drawDashboard(s dashboard.State) {
	t.drawMu.Lock()
	defer t.drawMu.Unlock()

	redraw(t.out, s)
	fmt.Fprintln(t.out, hintStyle.Render(`[s] stop/start  [r] run now  [f] refresh  [l] logout  [q] quit`))
	fmt.Fprint(t.out, "> ")
}

func withDefault(prompt, current string) string {
	if current == "" {
		return prompt
	}
	return fmt.Sprintf("%s [%s]", strings.TrimSuffix(prompt, ":"), current) + ":"
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return strings.Repeat("*", 6)
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
