package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"

	"github.com/khrees2412/devapply/pkg/models"
)

// Messages used when the backend gives no detail
const (
	MsgRegisterFailed = "Registration failed"
	MsgLoginFailed    = "Login failed"
	MsgUsersFailed    = "Failed to fetch users"
	MsgUploadFailed   = "Upload failed"
	MsgHealthFailed   = "Backend is not available"
	MsgJobsFailed     = "Failed to fetch jobs"
	MsgStatsFailed    = "Failed to fetch stats"
	MsgStatusFailed   = "Failed to get scheduler status"
	MsgStopFailed     = "Failed to stop scheduler"
	MsgStartFailed    = "Failed to start scheduler"
	MsgRunNowFailed   = "Failed to run scheduler"
)

const (
	DefaultJobsLimit  = 50
	resumeFormField   = "file"
	multipartOverhead = 1024
)

func (c *Client) Register(ctx context.Context, name, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"name": name, "email": email, "password": password}
	var out models.AuthResult
	if err := c.Do(ctx, http.MethodPost, "/register", MsgRegisterFailed, &out, WithJSON(body)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out models.AuthResult
	if err := c.Do(ctx, http.MethodPost, "/login", MsgLoginFailed, &out, WithJSON(body)); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users fetches the full roster. The endpoint is unauthenticated.
func (c *Client) Users(ctx context.Context) (*models.UserList, error) {
	var out models.UserList
	if err := c.Do(ctx, http.MethodGet, "/users", MsgUsersFailed, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResumeFile is what UploadResume sends as the multipart "file" part
type ResumeFile struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadResume posts the resume with an explicit bearer token. The stored
// credential is deliberately not used: the caller's token is the one that
// was just issued, and storage may not have caught up yet.
func (c *Client) UploadResume(ctx context.Context, token string, file ResumeFile) (*models.Ack, error) {
	var buf bytes.Buffer
	buf.Grow(int(file.Size) + multipartOverhead)
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, resumeFormField, file.Name))
	if file.ContentType != "" {
		header.Set("Content-Type", file.ContentType)
	}
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, &Error{Message: MsgUploadFailed, Err: err}
	}
	if _, err := io.Copy(part, file.Content); err != nil {
		return nil, &Error{Message: MsgUploadFailed, Err: fmt.Errorf("read resume: %w", err)}
	}
	if err := w.Close(); err != nil {
		return nil, &Error{Message: MsgUploadFailed, Err: err}
	}

	var out models.Ack
	err = c.Do(ctx, http.MethodPost, "/upload_resume", MsgUploadFailed, &out,
		WithBody(&buf, w.FormDataContentType()),
		WithBearer(token),
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Health(ctx context.Context) (*models.Health, error) {
	var out models.Health
	if err := c.Do(ctx, http.MethodGet, "/health", MsgHealthFailed, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Jobs lists the user's jobs, newest first. An empty token falls back to the
// stored credential; limit <= 0 uses DefaultJobsLimit.
func (c *Client) Jobs(ctx context.Context, token string, limit int) (*models.JobList, error) {
	if limit <= 0 {
		limit = DefaultJobsLimit
	}
	var out models.JobList
	err := c.Do(ctx, http.MethodGet, "/jobs", MsgJobsFailed, &out,
		WithQuery(url.Values{"limit": {strconv.Itoa(limit)}}),
		WithBearer(token),
	)
	if err != nil {
		return nil, err
	}
	if out.Jobs == nil {
		out.Jobs = []models.JobRecord{}
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context, token string) (*models.StatsSnapshot, error) {
	var out models.StatsSnapshot
	if err := c.Do(ctx, http.MethodGet, "/stats", MsgStatsFailed, &out, WithBearer(token)); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SchedulerStatus(ctx context.Context) (*models.SchedulerStatus, error) {
	var out models.SchedulerStatus
	if err := c.Do(ctx, http.MethodGet, "/scheduler/status", MsgStatusFailed, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) StopScheduler(ctx context.Context) (*models.Ack, error) {
	return c.command(ctx, "/scheduler/stop", MsgStopFailed)
}

func (c *Client) StartScheduler(ctx context.Context) (*models.Ack, error) {
	return c.command(ctx, "/scheduler/start", MsgStartFailed)
}

func (c *Client) RunSchedulerNow(ctx context.Context) (*models.Ack, error) {
	return c.command(ctx, "/scheduler/run-now", MsgRunNowFailed)
}

func (c *Client) command(ctx context.Context, path, fallback string) (*models.Ack, error) {
	var out models.Ack
	if err := c.Do(ctx, http.MethodPost, path, fallback, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
