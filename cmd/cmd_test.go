package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/khrees2412/devapply/internal/api/apitest"
	"github.com/khrees2412/devapply/internal/app"
	"github.com/khrees2412/devapply/internal/config"
	"github.com/khrees2412/devapply/internal/dashboard"
	"github.com/khrees2412/devapply/internal/database"
	"github.com/khrees2412/devapply/internal/session"
	"github.com/khrees2412/devapply/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// syncBuffer lets the dashboard poller and the prompt loop share output
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func setupTUI(t *testing.T, input string) (*terminalUI, *app.App, *apitest.Server, *syncBuffer) {
	t.Helper()
	isTerminal = func() bool { return false }

	srv := apitest.New()
	t.Cleanup(srv.Close)

	db, err := database.Open(filepath.Join(t.TempDir(), "devapply.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{APIURL: srv.URL, PollInterval: time.Hour, JobsLimit: 50}
	application := app.Assemble(cfg, db, nil, nil)

	out := &syncBuffer{}
	ui := &terminalUI{
		nav:         application.Navigation,
		client:      application.API,
		cfg:         cfg,
		log:         application.Log,
		p:           newPrompter(strings.NewReader(input), out),
		out:         out,
		uploadDelay: time.Millisecond,
	}
	return ui, application, srv, out
}

func writeResume(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4\n%resume\n"), 0600))
	return path
}

func TestTUIRegisterUploadDashboard(t *testing.T) {
	resume := writeResume(t)
	input := strings.Join([]string{
		"register",
		"Ann", "ann@example.com", "secret1", "secret1",
		resume,
		"",
		"q",
	}, "\n") + "\n"
	ui, application, srv, out := setupTUI(t, input)

	require.NoError(t, ui.run(context.Background()))

	assert.Equal(t, app.ScreenDashboard, application.Navigation.Screen())
	require.Len(t, srv.Uploads(), 1)
	assert.Equal(t, "resume.pdf", srv.Uploads()[0].Filename)

	text := out.String()
	assert.Contains(t, text, "Create Account")
	assert.Contains(t, text, "Resume uploaded successfully!")
	assert.Contains(t, text, "Bye!")

	sess, err := application.Sessions.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "Ann", sess.DisplayName)
}

func TestTUIValidationKeepsInputs(t *testing.T) {
	input := strings.Join([]string{
		"a@b.com", "short",
		"", "longer-password",
		"q",
	}, "\n") + "\n"
	ui, _, srv, out := setupTUI(t, input)

	require.NoError(t, ui.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "Password must be at least 6 characters")
	assert.Contains(t, text, "Email [a@b.com]:", "email is kept after a failure")
	assert.Contains(t, text, "Invalid email or password")
	assert.Equal(t, 1, srv.Hits("POST /login"), "only the valid attempt reaches the backend")
}

func TestTUIStoredSessionOpensDashboardAndLogsOut(t *testing.T) {
	ui, application, srv, out := setupTUI(t, "l\nq\n")
	token, userID := srv.AddUser("Ann", "ann@example.com", "secret1")
	require.NoError(t, application.Sessions.Save(context.Background(), &models.Session{Credential: token, UserID: userID, DisplayName: "Ann"}))

	require.NoError(t, ui.run(context.Background()))

	assert.Equal(t, app.ScreenLogin, application.Navigation.Screen())
	keys, err := database.NewStorage(application.DB).Keys(context.Background())
	require.NoError(t, err)
	for _, key := range session.Keys {
		assert.NotContains(t, keys, key)
	}
	assert.Zero(t, srv.Hits("POST /login"), "no login needed with a stored session")
	assert.Contains(t, out.String(), "Login")
}

func TestTUIToggleWithoutSchedulerStatusShowsHint(t *testing.T) {
	ui, application, srv, out := setupTUI(t, "s\nq\n")
	token, userID := srv.AddUser("Ann", "ann@example.com", "secret1")
	require.NoError(t, application.Sessions.Save(context.Background(), &models.Session{Credential: token, UserID: userID, DisplayName: "Ann"}))
	srv.Fail("GET /scheduler/status", apitest.Failure{Status: 500})

	require.NoError(t, ui.run(context.Background()))

	assert.Contains(t, out.String(), dashboard.ErrActionUnavailable.Error())
	assert.Zero(t, srv.Hits("POST /scheduler/stop"))
	assert.Zero(t, srv.Hits("POST /scheduler/start"))
}

func TestTUIEndOfInputQuits(t *testing.T) {
	ui, _, _, out := setupTUI(t, "")
	require.NoError(t, ui.run(context.Background()))
	assert.Contains(t, out.String(), "Bye!")
}

func TestWriteJobs(t *testing.T) {
	applied := "2026-10-18"
	list := &models.JobList{Jobs: []models.JobRecord{
		{ID: 7, Title: "SRE", Company: "Acme", Platform: "naukri", Status: "applied", Link: "https://x", AppliedOn: &applied},
	}}

	var b bytes.Buffer
	require.NoError(t, writeJobs(&b, "yaml", list))
	var decoded []models.JobRecord
	require.NoError(t, yaml.Unmarshal(b.Bytes(), &decoded))
	assert.Equal(t, list.Jobs, decoded)

	b.Reset()
	require.NoError(t, writeJobs(&b, "json", list))
	assert.Contains(t, b.String(), `"applied_on": "2026-10-18"`)

	b.Reset()
	require.NoError(t, writeJobs(&b, "table", list))
	assert.Contains(t, b.String(), "Naukri")
	assert.Contains(t, b.String(), "Applied")

	b.Reset()
	require.NoError(t, writeJobs(&b, "", &models.JobList{}))
	assert.Contains(t, b.String(), "No jobs found yet.")

	assert.Error(t, writeJobs(&b, "xml", list))
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		in       int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, humanSize(tt.in))
	}
}

func TestPrompterPasswordKeepsSpaces(t *testing.T) {
	isTerminal = func() bool { return false }
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("  two words \nlast"), &out)

	pw, err := p.Password("Password:")
	require.NoError(t, err)
	assert.Equal(t, "  two words ", pw)

	line, err := p.Line("Next:")
	require.NoError(t, err)
	assert.Equal(t, "last", line, "final line without newline")
}

func TestPrompterTerminalPassword(t *testing.T) {
	origRead := readPassword
	isTerminal = func() bool { return true }
	readPassword = func(int) ([]byte, error) { return []byte("secret1"), nil }
	t.Cleanup(func() {
		isTerminal = func() bool { return false }
		readPassword = origRead
	})

	var out bytes.Buffer
	pw, err := newPrompter(strings.NewReader(""), &out).Password("Password:")
	require.NoError(t, err)
	assert.Equal(t, "secret1", pw)
}

func TestLineContextCancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newPrompter(r, &bytes.Buffer{}).LineContext(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithDefault(t *testing.T) {
	assert.Equal(t, "Email:", withDefault("Email:", ""))
	assert.Equal(t, "Email [a@b.com]:", withDefault("Email:", "a@b.com"))
	assert.Equal(t, "", mask(""))
	assert.Equal(t, "******", mask("x"))
}
