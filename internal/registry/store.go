package registry

import (
	"context"
	"sync"

	"assetgate/internal/domain"
	dErrors "assetgate/pkg/domain-errors"
)

// Store persists eligible assets. Records are append-only except for the
// legal workflow status update after registration.
type Store interface {
	Put(ctx context.Context, asset domain.EligibleAsset) error
	Get(ctx context.Context, id string) (domain.EligibleAsset, error)
	GetBySubmission(ctx context.Context, submissionID string) (domain.EligibleAsset, error)
	List(ctx context.Context) ([]domain.EligibleAsset, error)
}

// InMemoryStore is the prototype store backend.
type InMemoryStore struct {
	mu           sync.RWMutex
	assets       map[string]domain.EligibleAsset
	bySubmission map[string]string
	order        []string
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		assets:       make(map[string]domain.EligibleAsset),
		bySubmission: make(map[string]string),
	}
}

func (s *InMemoryStore) Put(_ context.Context, asset domain.EligibleAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assets[asset.ID]; !exists {
		s.order = append(s.order, asset.ID)
	}
	s.assets[asset.ID] = asset
	s.bySubmission[asset.SubmissionID] = asset.ID
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id string) (domain.EligibleAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	asset, ok := s.assets[id]
	if !ok {
		return domain.EligibleAsset{}, dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	return asset, nil
}

func (s *InMemoryStore) GetBySubmission(_ context.Context, submissionID string) (domain.EligibleAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.bySubmission[submissionID]
	if !ok {
		return domain.EligibleAsset{}, dErrors.New(dErrors.CodeNotFound, "no asset registered for submission")
	}
	return s.assets[id], nil
}

func (s *InMemoryStore) List(_ context.Context) ([]domain.EligibleAsset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.EligibleAsset, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.assets[id])
	}
	return out, nil
}
