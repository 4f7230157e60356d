// Package legal is the outbound port to the legal-entity formation workflow.
// Only eligible, non-mock submissions ever reach it.
package legal

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Workflow starts entity-formation paperwork for an eligible asset.
type Workflow interface {
	Start(ctx context.Context, submissionID string) (workflowID string, err error)
}

// Simulated is the development stand-in for the external legal service.
type Simulated struct {
	mu      sync.Mutex
	started map[string]string
	logger  *slog.Logger
}

// NewSimulated constructs the simulated workflow.
func NewSimulated(logger *slog.Logger) *Simulated {
	return &Simulated{
		started: make(map[string]string),
		logger:  logger,
	}
}

// Start is idempotent per submission: a repeated call returns the workflow
// already opened for it.
func (s *Simulated) Start(ctx context.Context, submissionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.started[submissionID]; ok {
		return id, nil
	}
	id := "WF-" + strings.ToUpper(uuid.NewString()[:8])
	s.started[submissionID] = id

	s.logger.InfoContext(ctx, "legal workflow started",
		"submission_id", submissionID,
		"workflow_id", id,
	)
	return id, nil
}

// Started reports whether a workflow exists for the submission.
func (s *Simulated) Started(submissionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.started[submissionID]
	return ok
}
