package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBusy = errors.New("busy")

func TestNewManager_EmptyScheduleDisabled(t *testing.T) {
	m, err := NewManager("", func(context.Context) error { return nil }, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestNewManager_InvalidSchedule(t *testing.T) {
	_, err := NewManager("every tuesday", func(context.Context) error { return nil }, nil, nil)
	assert.Error(t, err)
}

func TestManager_RunsJob(t *testing.T) {
	var calls atomic.Int32
	m, err := NewManager("@every 1s", func(ctx context.Context) error {
		calls.Add(1)
		return errBusy
	}, errBusy, nil)
	require.NoError(t, err)

	m.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	m.Stop()
}

func TestManager_StopCancelsRunningJob(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	m, err := NewManager("@daily", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	}, nil, nil)
	require.NoError(t, err)

	go m.run()
	<-started
	m.Stop()
	require.Eventually(t, cancelled.Load, time.Second, 5*time.Millisecond)

	// a stopped manager no longer starts jobs
	m.run()
}
