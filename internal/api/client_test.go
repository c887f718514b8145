package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/khrees2412/devapply/internal/api/apitest"
	"github.com/khrees2412/devapply/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticTokens is a TokenSource returning a fixed credential
type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

type failingTokens struct{}

func (failingTokens) Token(context.Context) (string, error) { return "", errors.New("disk on fire") }

func newTestClient(t *testing.T, tokens TokenSource) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New()
	t.Cleanup(srv.Close)
	return New(srv.URL, srv.Client(), tokens, nil), srv
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)

	reg, err := c.Register(ctx, "Ann", "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, 1, reg.UserID)
	assert.Equal(t, "Ann", reg.Name)
	assert.NotEmpty(t, reg.AccessToken)

	login, err := c.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.UserID, login.UserID)
	assert.Equal(t, &models.Session{Credential: login.AccessToken, UserID: 1, DisplayName: "Ann"}, login.Session())
}

func TestServerDetailIsSurfaced(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestClient(t, nil)

	_, err := c.Login(ctx, "nobody@example.com", "whatever")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestFallbackMessages(t *testing.T) {
	tests := []struct {
		name     string
		route    string
		failure  apitest.Failure
		call     func(c *Client) error
		expected string
	}{
		{
			name:    "non-json body",
			route:   "GET /stats",
			failure: apitest.Failure{Status: 502, Raw: "<html>Bad Gateway</html>"},
			call: func(c *Client) error {
				_, err := c.Stats(context.Background(), "t")
				return err
			},
			expected: MsgStatsFailed,
		},
		{
			name:    "list-valued detail",
			route:   "POST /register",
			failure: apitest.Failure{Status: 422, Raw: `{"detail":[{"loc":["body","email"],"msg":"field required"}]}`},
			call: func(c *Client) error {
				_, err := c.Register(context.Background(), "a", "a@b.c", "123456")
				return err
			},
			expected: MsgRegisterFailed,
		},
		{
			name:    "blank detail",
			route:   "POST /scheduler/stop",
			failure: apitest.Failure{Status: 500, Raw: `{"detail":"  "}`},
			call: func(c *Client) error {
				_, err := c.StopScheduler(context.Background())
				return err
			},
			expected: MsgStopFailed,
		},
		{
			name:    "detail wins over fallback",
			route:   "POST /scheduler/run-now",
			failure: apitest.Failure{Status: 500, Detail: "Error running scheduler: boom"},
			call: func(c *Client) error {
				_, err := c.RunSchedulerNow(context.Background())
				return err
			},
			expected: "Error running scheduler: boom",
		},
		{
			name:    "health",
			route:   "GET /health",
			failure: apitest.Failure{Status: 503},
			call: func(c *Client) error {
				_, err := c.Health(context.Background())
				return err
			},
			expected: MsgHealthFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(t, nil)
			srv.Fail(tt.route, tt.failure)

			err := tt.call(c)
			require.Error(t, err)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestTransportFailureUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, nil, nil, nil)
	_, err := c.Users(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, MsgUsersFailed, apiErr.Message)
	assert.Zero(t, apiErr.StatusCode)
	assert.NotNil(t, errors.Unwrap(err), "cause is kept for logging")
	assert.NotContains(t, apiErr.Message, "connection refused")
}

func TestStoredCredentialIsAttached(t *testing.T) {
	c, srv := newTestClient(t, staticTokens("stored-token"))

	_, err := c.SchedulerStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer stored-token", srv.Authorization("GET /scheduler/status"))
}

func TestExplicitCredentialWins(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t, staticTokens("stale-token"))
	token, userID := srv.AddUser("Ann", "ann@example.com", "secret1")
	srv.SetJobs(userID, []models.JobRecord{{ID: 1, Title: "SRE"}})

	jobs, err := c.Jobs(ctx, token, 0)
	require.NoError(t, err)
	assert.Len(t, jobs.Jobs, 1)
	assert.Equal(t, "Bearer "+token, srv.Authorization("GET /jobs"))
}

func TestNoCredentialSendsNoHeader(t *testing.T) {
	c, srv := newTestClient(t, staticTokens(""))

	_, err := c.Users(context.Background())
	require.NoError(t, err)
	assert.Empty(t, srv.Authorization("GET /users"))
}

func TestTokenSourceErrorStillSendsRequest(t *testing.T) {
	c, srv := newTestClient(t, failingTokens{})

	_, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, srv.Hits("GET /health"))
	assert.Empty(t, srv.Authorization("GET /health"))
}

func TestJobsLimitAndEmptyList(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t, nil)
	token, userID := srv.AddUser("Ann", "ann@example.com", "secret1")

	jobs, err := c.Jobs(ctx, token, 0)
	require.NoError(t, err)
	assert.NotNil(t, jobs.Jobs)
	assert.Empty(t, jobs.Jobs)

	records := make([]models.JobRecord, 60)
	for i := range records {
		records[i] = models.JobRecord{ID: i + 1, Title: "Job"}
	}
	srv.SetJobs(userID, records)

	jobs, err = c.Jobs(ctx, token, 0)
	require.NoError(t, err)
	assert.Len(t, jobs.Jobs, DefaultJobsLimit)

	jobs, err = c.Jobs(ctx, token, 5)
	require.NoError(t, err)
	assert.Len(t, jobs.Jobs, 5)
}

func TestUploadResumeMultipart(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t, staticTokens("ignored"))
	token, userID := srv.AddUser("Ann", "ann@example.com", "secret1")

	content := "%PDF-1.4 fake resume"
	ack, err := c.UploadResume(ctx, token, ResumeFile{
		Name:        "resume.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Content:     strings.NewReader(content),
	})
	require.NoError(t, err)
	assert.True(t, ack.OK)
	assert.Equal(t, "Bearer "+token, srv.Authorization("POST /upload_resume"))

	uploads := srv.Uploads()
	require.Len(t, uploads, 1)
	assert.Equal(t, apitest.Upload{UserID: userID, Filename: "resume.pdf", ContentType: "application/pdf", Size: len(content)}, uploads[0])
}

func TestUploadResumeRejectedByServer(t *testing.T) {
	c, srv := newTestClient(t, nil)
	token, _ := srv.AddUser("Ann", "ann@example.com", "secret1")

	_, err := c.UploadResume(context.Background(), token, ResumeFile{
		Name:        "resume.txt",
		ContentType: "text/plain",
		Content:     strings.NewReader("hello"),
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid file type. Only PDF and Word documents are allowed.", err.Error())
}

func TestSchedulerCommands(t *testing.T) {
	ctx := context.Background()
	c, srv := newTestClient(t, nil)

	_, err := c.StopScheduler(ctx)
	require.NoError(t, err)
	assert.False(t, srv.Running())

	status, err := c.SchedulerStatus(ctx)
	require.NoError(t, err)
	assert.False(t, status.Running)

	_, err = c.StartScheduler(ctx)
	require.NoError(t, err)
	assert.True(t, srv.Running())

	_, err = c.RunSchedulerNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, srv.RunNowCount())
}

func TestMessageHelper(t *testing.T) {
	assert.Equal(t, "boom", Message(&Error{Message: "boom"}, "fallback"))
	assert.Equal(t, "fallback", Message(&Error{}, "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
	assert.Equal(t, "raw", Message(errors.New("raw"), ""))
}

func TestRequestID(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client(), nil, nil).Health(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 36)
}
