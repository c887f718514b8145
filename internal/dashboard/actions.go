package dashboard

import (
	"context"
	"slices"
	"time"

	"github.com/khrees2412/devapply/internal/api"
	"github.com/khrees2412/devapply/pkg/models"
)

type Action int

const (
	ActionStop Action = iota
	ActionStart
	ActionRunNow
)

// Label is the button text, with the in-flight variant while busy
func (a Action) Label(busy bool) string {
	switch a {
	case ActionStop:
		if busy {
			return "Stopping..."
		}
		return "Stop Scheduler"
	case ActionStart:
		if busy {
			return "Starting..."
		}
		return "Start Scheduler"
	case ActionRunNow:
		if busy {
			return "Running..."
		}
		return "Run Now"
	}
	return "Unknown"
}

// Actions lists the controls to offer: Stop or Start depending on whether
// the scheduler is running, then Run Now. Nothing is offered before the
// scheduler status is known.
func (d *Dashboard) Actions() []Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	return actionsFor(d.scheduler)
}

func actionsFor(status *models.SchedulerStatus) []Action {
	if status == nil {
		return nil
	}
	if status.Running {
		return []Action{ActionStop, ActionRunNow}
	}
	return []Action{ActionStart, ActionRunNow}
}

// Perform runs one of the visible actions
func (d *Dashboard) Perform(ctx context.Context, a Action) error {
	switch a {
	case ActionStop:
		return d.Stop(ctx)
	case ActionStart:
		return d.Start(ctx)
	case ActionRunNow:
		return d.RunNow(ctx)
	}
	return ErrActionUnavailable
}

func (d *Dashboard) Stop(ctx context.Context) error {
	return d.toggle(ctx, ActionStop, d.api.StopScheduler)
}

func (d *Dashboard) Start(ctx context.Context) error {
	return d.toggle(ctx, ActionStart, d.api.StartScheduler)
}

func (d *Dashboard) toggle(ctx context.Context, a Action, call func(context.Context) (*models.Ack, error)) error {
	if err := d.begin(a); err != nil {
		return err
	}
	defer d.end()

	if _, err := call(ctx); err != nil {
		d.fail(ctx, a, err)
		return err
	}
	return d.Refresh(ctx)
}

// RunNow queues a scrape, acknowledges it to the user and reloads after
// RunNowReloadDelay so the backend has time to start.
func (d *Dashboard) RunNow(ctx context.Context) error {
	if err := d.begin(ActionRunNow); err != nil {
		return err
	}
	defer d.end()

	if _, err := d.api.RunSchedulerNow(ctx); err != nil {
		d.fail(ctx, ActionRunNow, err)
		return err
	}
	d.log.Info(ctx, "manual scheduler run queued")
	if d.Notifier != nil {
		d.Notifier.Acknowledge(ctx, RunNowAcknowledgement)
	}

	d.pending.Add(1)
	go func() {
		defer d.pending.Done()
		timer := time.NewTimer(d.RunNowReloadDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
		case <-timer.C:
			_ = d.Refresh(ctx)
		}
	}()
	return nil
}

func (d *Dashboard) begin(a Action) error {
	d.mu.Lock()
	if d.actionLoading {
		d.mu.Unlock()
		return ErrActionInProgress
	}
	if !slices.Contains(actionsFor(d.scheduler), a) && a != ActionRunNow {
		d.mu.Unlock()
		return ErrActionUnavailable
	}
	d.actionLoading = true
	state, onChange := d.stateLocked(), d.OnChange
	d.mu.Unlock()

	if onChange != nil {
		onChange(state)
	}
	return nil
}

func (d *Dashboard) end() {
	d.update(func() { d.actionLoading = false })
}

func (d *Dashboard) fail(ctx context.Context, a Action, err error) {
	d.update(func() { d.errMsg = api.Message(err, "") })
	d.log.Warn(ctx, "scheduler action failed", "action", a.Label(false), "error", err)
}
