package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/khrees2412/devapply/internal/logging"
	"github.com/khrees2412/devapply/pkg/models"
)

// SessionStore persists the session between runs
type SessionStore interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

// Navigator is the closed set of transitions screens may request
type Navigator interface {
	LoginSucceeded(ctx context.Context, result models.AuthResult) error
	RegisterSucceeded(ctx context.Context, result models.AuthResult) error
	UploadCompleted(ctx context.Context) error
	Logout(ctx context.Context) error
	ShowRegister() error
	ShowLogin() error
}

// Controller owns the current session and screen. Screens change them only
// through the Navigator methods.
type Controller struct {
	store SessionStore
	log   logging.Logger

	mu      sync.Mutex
	session *models.Session
	screen  Screen
}

var _ Navigator = (*Controller)(nil)

func NewController(store SessionStore, log logging.Logger) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{
		store:  store,
		log:    log.With("component", "navigation"),
		screen: ScreenLogin,
	}
}

// Start restores a stored session, if any, and opens the dashboard for it.
// The stored credential is not checked against the backend.
func (c *Controller) Start(ctx context.Context) error {
	sess, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	if sess != nil {
		c.screen = ScreenDashboard
		c.log.Debug(ctx, "session restored", "user_id", sess.UserID)
	} else {
		c.screen = ScreenLogin
	}
	return nil
}

func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// Session returns a copy of the current session, or nil
func (c *Controller) Session() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// LoginSucceeded stores the session and goes to the dashboard. Returning
// users are assumed to have a resume already.
func (c *Controller) LoginSucceeded(ctx context.Context, result models.AuthResult) error {
	return c.authenticate(ctx, result, ScreenDashboard)
}

// RegisterSucceeded stores the session and goes to the resume upload
func (c *Controller) RegisterSucceeded(ctx context.Context, result models.AuthResult) error {
	return c.authenticate(ctx, result, ScreenUpload)
}

func (c *Controller) authenticate(ctx context.Context, result models.AuthResult, next Screen) error {
	sess := result.Session()
	if err := c.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = sess
	c.screen = next
	c.log.Info(ctx, "signed in", "user_id", sess.UserID, "screen", next.String())
	return nil
}

func (c *Controller) UploadCompleted(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ErrNotAuthenticated
	}
	if c.screen != ScreenUpload {
		return fmt.Errorf("%w: upload completed on %s", ErrInvalidScreen, c.screen)
	}
	c.screen = ScreenDashboard
	return nil
}

// Logout clears storage and memory and returns to the login screen. It is
// safe to call when nobody is signed in. Memory is cleared even when the
// storage write fails.
func (c *Controller) Logout(ctx context.Context) error {
	err := c.store.Clear(ctx)

	c.mu.Lock()
	c.session = nil
	c.screen = ScreenLogin
	c.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	c.log.Info(ctx, "signed out")
	return nil
}

func (c *Controller) ShowRegister() error {
	return c.switchForm(ScreenLogin, ScreenRegister)
}

func (c *Controller) ShowLogin() error {
	return c.switchForm(ScreenRegister, ScreenLogin)
}

func (c *Controller) switchForm(from, to Screen) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen != from {
		return fmt.Errorf("%w: cannot open %s from %s", ErrInvalidScreen, to, c.screen)
	}
	c.screen = to
	return nil
}
