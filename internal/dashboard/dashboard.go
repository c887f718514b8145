// Package dashboard polls the backend for the user's jobs, stats and
// scheduler state and drives the scheduler controls.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/internal/logging"
	"github.com/khrees2412/devapply/pkg/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPollInterval      = 30 * time.Second
	DefaultRunNowReloadDelay = 5 * time.Second

	// RunNowAcknowledgement is shown once a manual run was queued
	RunNowAcknowledgement = "Job scraping started! Check back in a few moments."
)

var (
	ErrActionInProgress  = errors.New("another scheduler action is in progress")
	ErrActionUnavailable = errors.New("action not available in the current scheduler state")
)

// API is the slice of the backend client the dashboard uses
type API interface {
	Jobs(ctx context.Context, token string, limit int) (*models.JobList, error)
	Stats(ctx context.Context, token string) (*models.StatsSnapshot, error)
	SchedulerStatus(ctx context.Context) (*models.SchedulerStatus, error)
	StopScheduler(ctx context.Context) (*models.Ack, error)
	StartScheduler(ctx context.Context) (*models.Ack, error)
	RunSchedulerNow(ctx context.Context) (*models.Ack, error)
}

// Notifier shows a message the user has to see before carrying on
type Notifier interface {
	Acknowledge(ctx context.Context, message string)
}

// State is a copy of the dashboard's view data
type State struct {
	UserName      string
	Jobs          []models.JobRecord
	Stats         *models.StatsSnapshot
	Scheduler     *models.SchedulerStatus
	Loading       bool
	Error         string
	ActionLoading bool
}

type Dashboard struct {
	api      API
	token    string
	userName string
	limit    int
	log      logging.Logger

	mu            sync.Mutex
	jobs          []models.JobRecord
	stats         *models.StatsSnapshot
	scheduler     *models.SchedulerStatus
	loading       bool
	errMsg        string
	actionLoading bool
	closed        bool
	pending       sync.WaitGroup
	// refreshSeq numbers refreshes as they start; appliedSeq is the newest
	// one whose result has been applied.
	refreshSeq uint64
	appliedSeq uint64

	PollInterval      time.Duration
	RunNowReloadDelay time.Duration
	Notifier          Notifier
	// OnChange, if set, receives the new state after every update
	OnChange func(State)
}

// New builds a dashboard for the given credential. limit <= 0 uses the
// backend default.
func New(client API, token, userName string, limit int, log logging.Logger) *Dashboard {
	if log == nil {
		log = logging.Discard()
	}
	if limit <= 0 {
		limit = api.DefaultJobsLimit
	}
	return &Dashboard{
		api:               client,
		token:             token,
		userName:          userName,
		limit:             limit,
		log:               log.With("component", "dashboard"),
		jobs:              []models.JobRecord{},
		loading:           true,
		PollInterval:      DefaultPollInterval,
		RunNowReloadDelay: DefaultRunNowReloadDelay,
	}
}

func (d *Dashboard) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *Dashboard) stateLocked() State {
	s := State{
		UserName:      d.userName,
		Jobs:          append([]models.JobRecord(nil), d.jobs...),
		Loading:       d.loading,
		Error:         d.errMsg,
		ActionLoading: d.actionLoading,
	}
	if d.stats != nil {
		stats := *d.stats
		s.Stats = &stats
	}
	if d.scheduler != nil {
		sched := *d.scheduler
		sched.Jobs = append([]models.ScheduledJob(nil), d.scheduler.Jobs...)
		s.Scheduler = &sched
	}
	return s
}

// update applies fn under the lock and publishes the result. It reports
// false when the dashboard has been torn down and fn was skipped.
func (d *Dashboard) update(fn func()) bool {
	return d.updateIf(func() bool {
		fn()
		return true
	})
}

// updateIf is update for changes that may turn out to be stale: when fn
// reports false nothing is published.
func (d *Dashboard) updateIf(fn func() bool) bool {
	d.mu.Lock()
	if d.closed || !fn() {
		d.mu.Unlock()
		return false
	}
	state := d.stateLocked()
	onChange := d.OnChange
	d.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
	return true
}

// Refresh reads jobs, stats and scheduler status concurrently and applies
// them together. If any read fails nothing is applied, the first failure's
// message becomes the error and the previous data stays on screen. A result
// that arrives after a newer refresh was applied is dropped.
func (d *Dashboard) Refresh(ctx context.Context) error {
	var seq uint64
	d.update(func() {
		d.refreshSeq++
		seq = d.refreshSeq
		d.errMsg = ""
	})

	var (
		jobs   *models.JobList
		stats  *models.StatsSnapshot
		status *models.SchedulerStatus
		g      errgroup.Group
	)
	g.Go(func() (err error) {
		jobs, err = d.api.Jobs(ctx, d.token, d.limit)
		return err
	})
	g.Go(func() (err error) {
		stats, err = d.api.Stats(ctx, d.token)
		return err
	})
	g.Go(func() (err error) {
		status, err = d.api.SchedulerStatus(ctx)
		return err
	})
	err := g.Wait()

	if ctx.Err() != nil {
		// torn down mid-flight; nobody is looking at the result
		return ctx.Err()
	}

	applied := d.updateIf(func() bool {
		if seq < d.appliedSeq {
			return false
		}
		d.appliedSeq = seq
		d.loading = false
		if err != nil {
			d.errMsg = api.Message(err, "")
			return true
		}
		d.jobs = jobs.Jobs
		if d.jobs == nil {
			d.jobs = []models.JobRecord{}
		}
		d.stats = stats
		d.scheduler = status
		return true
	})
	if !applied {
		d.log.Debug(ctx, "stale dashboard refresh dropped", "seq", seq)
	}
	if err != nil {
		d.log.Warn(ctx, "dashboard refresh failed", "error", err)
	}
	return err
}

// Run refreshes immediately and then every PollInterval until ctx is
// cancelled. Pending delayed reloads are abandoned on return.
func (d *Dashboard) Run(ctx context.Context) error {
	defer d.Close()

	_ = d.Refresh(ctx)

	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_ = d.Refresh(ctx)
		}
	}
}

// Close stops the dashboard from applying any further results
func (d *Dashboard) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// Wait blocks until delayed reloads scheduled by RunNow have finished
func (d *Dashboard) Wait() {
	d.pending.Wait()
}
