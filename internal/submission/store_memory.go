package submission

import (
	"context"
	"sort"
	"sync"

	"assetgate/internal/domain"
	dErrors "assetgate/pkg/domain-errors"
)

// stageOrder fixes the display order of stage progress entries.
var stageOrder = map[domain.Stage]int{
	domain.StageIntake:    0,
	domain.StageOracle:    1,
	domain.StageABM:       2,
	domain.StageFraud:     3,
	domain.StageConsensus: 4,
	domain.StageRegistry:  5,
}

type record struct {
	sub       domain.Submission
	oracle    *domain.OracleResult
	abm       *domain.ABMResult
	fraud     *domain.FraudResult
	consensus *domain.ConsensusScore
	failure   string
	stages    map[domain.Stage]domain.StageProgress
	logs      []domain.LogEntry
}

// InMemoryStore is the prototype store backend. Production deployments use
// the redis or postgres backend for durability across restarts.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]*record
	order   []string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]*record)}
}

func (s *InMemoryStore) get(id string) (*record, error) {
	r, ok := s.records[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	return r, nil
}

func (s *InMemoryStore) Create(_ context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[sub.ID]; exists {
		return dErrors.New(dErrors.CodeConflict, "submission already exists")
	}
	s.records[sub.ID] = &record{
		sub:    sub,
		stages: make(map[domain.Stage]domain.StageProgress),
	}
	s.order = append(s.order, sub.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(id)
	if err != nil {
		return domain.Submission{}, err
	}
	return r.sub, nil
}

// List returns submissions newest first.
func (s *InMemoryStore) List(_ context.Context) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Submission, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.records[s.order[i]].sub)
	}
	return out, nil
}

func (s *InMemoryStore) SetStatus(_ context.Context, id string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	if r.sub.Status.Terminal() {
		return dErrors.New(dErrors.CodeConflict, "submission already terminal")
	}
	r.sub.Status = status
	r.sub.UpdatedAt = nowUTC()
	return nil
}

func (s *InMemoryStore) SetFailure(_ context.Context, id string, stage domain.Stage, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	r.failure = string(stage) + ": " + reason
	return nil
}

func (s *InMemoryStore) PutOracle(_ context.Context, id string, result domain.OracleResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	r.oracle = &result
	return nil
}

func (s *InMemoryStore) PutABM(_ context.Context, id string, result domain.ABMResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	r.abm = &result
	return nil
}

func (s *InMemoryStore) PutFraud(_ context.Context, id string, result domain.FraudResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	r.fraud = &result
	return nil
}

func (s *InMemoryStore) PutConsensus(_ context.Context, id string, score domain.ConsensusScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	r.consensus = &score
	return nil
}

func (s *InMemoryStore) PutStage(_ context.Context, id string, stage domain.StageProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	r.stages[stage.Stage] = stage
	return nil
}

func (s *InMemoryStore) Stages(_ context.Context, id string) ([]domain.StageProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(id)
	if err != nil {
		return nil, err
	}
	out := make([]domain.StageProgress, 0, len(r.stages))
	for _, sp := range r.stages {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return stageOrder[out[i].Stage] < stageOrder[out[j].Stage] })
	return out, nil
}

func (s *InMemoryStore) AppendLog(_ context.Context, id string, entry domain.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, err := s.get(id)
	if err != nil {
		return err
	}
	r.logs = append(r.logs, entry)
	return nil
}

func (s *InMemoryStore) Logs(_ context.Context, id string) ([]domain.LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return append([]domain.LogEntry{}, r.logs...), nil
}

func (s *InMemoryStore) Full(_ context.Context, id string) (domain.FullResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, err := s.get(id)
	if err != nil {
		return domain.FullResult{}, err
	}
	return domain.FullResult{
		Submission: r.sub,
		Oracle:     r.oracle,
		ABM:        r.abm,
		Fraud:      r.fraud,
		Consensus:  r.consensus,
		Failure:    r.failure,
	}, nil
}
