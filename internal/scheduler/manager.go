package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/robfig/cron/v3"
)

// Job is one scheduled run. Its error is logged and never stops the schedule.
type Job func(ctx context.Context) error

// Manager runs the full refresh on a cron schedule.
type Manager struct {
	cron *cron.Cron
	job  Job
	skip error
	log  hclog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// NewManager parses schedule as a standard five-field cron expression (or a
// descriptor such as "@daily"). An empty schedule returns nil: the caller
// then runs refreshes only on demand. Errors matching skip are logged as
// informational rather than as failures.
func NewManager(schedule string, job Job, skip error, log hclog.Logger) (*Manager, error) {
	if schedule == "" {
		return nil, nil
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cron:   cron.New(),
		job:    job,
		skip:   skip,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := m.cron.AddFunc(schedule, m.run); err != nil {
		cancel()
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return m, nil
}

func (m *Manager) Start() {
	m.log.Info("scheduler started", "entries", len(m.cron.Entries()))
	m.cron.Start()
}

// Stop halts the schedule, cancels a running job and waits for it to return.
func (m *Manager) Stop() {
	stopped := m.cron.Stop()
	m.cancel()
	<-stopped.Done()
	m.log.Info("scheduler stopped")
}

func (m *Manager) run() {
	if m.ctx.Err() != nil {
		return
	}
	m.log.Info("scheduled refresh starting")
	err := m.job(m.ctx)
	switch {
	case err == nil:
		m.log.Info("scheduled refresh finished")
	case m.skip != nil && errors.Is(err, m.skip):
		m.log.Info("scheduled refresh skipped", "reason", err)
	default:
		m.log.Error("scheduled refresh failed", "error", err)
	}
}
