package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/internal/config"
	"github.com/khrees2412/devapply/internal/database"
	"github.com/khrees2412/devapply/internal/logging"
	"github.com/khrees2412/devapply/internal/session"
	"github.com/khrees2412/devapply/pkg/models"
)

// App is the dependency container for the CLI application
type App struct {
	DB         *sql.DB
	Config     *config.Config
	HTTPClient *http.Client
	Sessions   *session.Store
	API        *api.Client
	Log        logging.Logger
	Navigation *Controller

	logCloser io.Closer
}

// NewApp initializes and returns a new App instance
func NewApp(ctx context.Context) (*App, error) {
	if err := config.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg := config.AppConfig

	log, logCloser, err := logging.NewFileLogger(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	dir, err := config.Dir()
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	db, err := database.Open(filepath.Join(dir, "devapply.db"))
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return Assemble(cfg, db, log, logCloser), nil
}

// Assemble wires the components around an already opened database. NewApp
// uses it after loading config; tests use it with a temp database.
func Assemble(cfg *config.Config, db *sql.DB, log logging.Logger, logCloser io.Closer) *App {
	if log == nil {
		log = logging.Discard()
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	sessions := session.NewStore(db)

	return &App{
		DB:         db,
		Config:     cfg,
		HTTPClient: httpClient,
		Sessions:   sessions,
		API:        api.New(cfg.BaseURL(), httpClient, sessions, log),
		Log:        log,
		Navigation: NewController(sessions, log),
		logCloser:  logCloser,
	}
}

// RequireSession returns the stored session or ErrNotAuthenticated
func (a *App) RequireSession(ctx context.Context) (*models.Session, error) {
	sess, err := a.Sessions.Load(ctx)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotAuthenticated
	}
	return sess, nil
}

// Close closes all resources
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.logCloser != nil {
		errs = append(errs, a.logCloser.Close())
	}
	return errors.Join(errs...)
}
