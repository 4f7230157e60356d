package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "assetgate/pkg/platform/audit"
	"assetgate/pkg/platform/audit/store/memory"
)

type recordingSink struct {
	mu        sync.Mutex
	published []audit.Event
	err       error
}

func (s *recordingSink) Publish(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, event)
	return nil
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.published)
}

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("disk full")
}

func (failingStore) ListBySubmission(context.Context, string) ([]audit.Event, error) {
	return nil, nil
}

func (failingStore) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func event(submissionID, action string) audit.Event {
	return audit.Event{
		Category:     audit.CategoryPipeline,
		Timestamp:    time.Now().UTC(),
		SubmissionID: submissionID,
		Action:       action,
	}
}

func TestWorkerPersistsAndForwards(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{}
	inbox := make(chan audit.Event, 4)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(store, sink, inbox, testLogger()).Run(ctx) }()

	inbox <- event("SUB-1", "stage_started")
	inbox <- event("SUB-1", "stage_completed")
	inbox <- event("SUB-2", "submission_received")

	require.Eventually(t, func() bool { return sink.count() == 3 },
		time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	events, err := store.ListBySubmission(context.Background(), "SUB-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "stage_started", events[0].Action)
	assert.Equal(t, "stage_completed", events[1].Action)
}

func TestWorkerToleratesSinkFailure(t *testing.T) {
	store := memory.NewInMemoryStore()
	sink := &recordingSink{err: errors.New("broker unreachable")}
	inbox := make(chan audit.Event, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(store, sink, inbox, testLogger()).Run(ctx) }()

	inbox <- event("SUB-1", "submission_received")

	require.Eventually(t, func() bool {
		events, _ := store.ListBySubmission(context.Background(), "SUB-1")
		return len(events) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerRunsWithoutSink(t *testing.T) {
	store := memory.NewInMemoryStore()
	inbox := make(chan audit.Event, 1)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewWorker(store, nil, inbox, testLogger()).Run(ctx) }()

	inbox <- event("SUB-1", "submission_received")

	require.Eventually(t, func() bool {
		events, _ := store.ListBySubmission(context.Background(), "SUB-1")
		return len(events) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorkerStopsOnStoreFailure(t *testing.T) {
	inbox := make(chan audit.Event, 1)
	inbox <- event("SUB-1", "submission_received")

	err := NewWorker(failingStore{}, nil, inbox, testLogger()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
