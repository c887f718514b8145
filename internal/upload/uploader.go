// Package upload validates a resume file locally and posts it to the backend.
package upload

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/internal/logging"
	"github.com/khrees2412/devapply/pkg/models"
)

// DefaultCompletionDelay is how long the success banner stays up before
// OnComplete fires
const DefaultCompletionDelay = 2 * time.Second

const (
	msgNoFile       = "Please select a file"
	msgMissingToken = "Authentication token is missing. Please login again."
	msgUploadFailed = "Upload failed. Please try again."

	// SuccessMessage is shown once the backend accepted the resume
	SuccessMessage = "Resume uploaded successfully! Your job applications will be automated."
)

// ResumeAPI is the slice of the API client the uploader needs
type ResumeAPI interface {
	UploadResume(ctx context.Context, token string, file api.ResumeFile) (*models.Ack, error)
}

// State is a snapshot of the uploader for rendering
type State struct {
	File    *SelectedFile
	Loading bool
	Success string
	Error   string
}

type Uploader struct {
	mu      sync.Mutex
	api     ResumeAPI
	log     logging.Logger
	file    *SelectedFile
	loading bool
	success string
	errMsg  string

	// CompletionDelay separates a successful upload from OnComplete
	CompletionDelay time.Duration
	// OnSuccess, if set, is called as soon as the upload is accepted
	OnSuccess func(message string)
	// OnComplete advances the flow once the delay has passed
	OnComplete func(ctx context.Context) error
}

func NewUploader(client ResumeAPI, log logging.Logger) *Uploader {
	if log == nil {
		log = logging.Discard()
	}
	return &Uploader{
		api:             client,
		log:             log.With("component", "upload"),
		CompletionDelay: DefaultCompletionDelay,
	}
}

// Select inspects the file at path and selects it when it passes the checks
func (u *Uploader) Select(path string) error {
	f, err := Inspect(path)
	if err != nil {
		u.setError(err.Error())
		return err
	}
	return u.SelectFile(f)
}

// SelectFile is the single validation path for every way of picking a file.
// A rejected file leaves any earlier selection in place.
func (u *Uploader) SelectFile(f SelectedFile) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if err := f.Check(); err != nil {
		u.errMsg = err.Error()
		return err
	}
	u.file = &f
	u.errMsg = ""
	u.success = ""
	return nil
}

// Remove drops the current selection
func (u *Uploader) Remove() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.file = nil
}

// CanSubmit reports whether a file is selected and nothing is in flight
func (u *Uploader) CanSubmit() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.file != nil && !u.loading
}

func (u *Uploader) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()

	s := State{Loading: u.loading, Success: u.success, Error: u.errMsg}
	if u.file != nil {
		f := *u.file
		s.File = &f
	}
	return s
}

// Submit uploads the selected file with the given token. On success the
// selection is cleared and, after CompletionDelay, OnComplete is called.
// On failure the selection is kept so the user can retry.
func (u *Uploader) Submit(ctx context.Context, token string) error {
	u.mu.Lock()
	if u.file == nil {
		u.errMsg = msgNoFile
		u.mu.Unlock()
		return &ValidationError{Message: msgNoFile}
	}
	if strings.TrimSpace(token) == "" {
		u.errMsg = msgMissingToken
		u.mu.Unlock()
		return &ValidationError{Message: msgMissingToken}
	}
	if u.loading {
		u.mu.Unlock()
		return fmt.Errorf("upload already in progress")
	}
	file := *u.file
	u.errMsg = ""
	u.success = ""
	u.loading = true
	u.mu.Unlock()

	err := u.send(ctx, token, file)

	u.mu.Lock()
	u.loading = false
	if err != nil {
		u.errMsg = api.Message(err, msgUploadFailed)
		u.mu.Unlock()
		u.log.Warn(ctx, "resume upload failed", "file", file.Name, "error", err)
		return err
	}
	u.success = SuccessMessage
	u.file = nil
	onSuccess, onComplete, delay := u.OnSuccess, u.OnComplete, u.CompletionDelay
	u.mu.Unlock()

	u.log.Info(ctx, "resume uploaded", "file", file.Name, "size", file.Size)
	if onSuccess != nil {
		onSuccess(SuccessMessage)
	}
	if onComplete == nil {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}
	return onComplete(ctx)
}

func (u *Uploader) send(ctx context.Context, token string, file SelectedFile) error {
	fh, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open resume: %w", err)
	}
	defer fh.Close()

	_, err = u.api.UploadResume(ctx, token, api.ResumeFile{
		Name:        file.Name,
		ContentType: file.MIME,
		Size:        file.Size,
		Content:     fh,
	})
	return err
}

func (u *Uploader) setError(msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.errMsg = msg
}
