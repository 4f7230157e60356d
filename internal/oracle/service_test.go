package oracle

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetgate/internal/domain"
	"assetgate/internal/oracle/signal"
	"assetgate/internal/platform/config"
)

type stubProvider struct {
	name  string
	group signal.Group
	score float64
	conf  float64
	err   error
}

func (p stubProvider) Name() string        { return p.name }
func (p stubProvider) Group() signal.Group { return p.group }
func (p stubProvider) Evaluate(_ context.Context, _ domain.Submission) (domain.Signal, error) {
	if p.err != nil {
		return domain.Signal{}, p.err
	}
	return domain.Signal{
		Provider: p.name,
		Score:    p.score,
		Evidence: domain.Evidence{Source: p.name, Confidence: p.conf},
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(reg *signal.Registry, weights config.OracleWeights) *Service {
	return NewService(reg, weights, time.Second, testLogger(), nil)
}

func TestVerifyIsDeterministic(t *testing.T) {
	svc := newTestService(signal.Default(), config.DefaultOracleWeights())
	sub := domain.Submission{
		ID:           "sub-1",
		AssetName:    "Test Tower",
		ClaimedValue: 1000000,
		Specifications: domain.Specifications{
			Size: 5000, Type: "commercial", Condition: domain.ConditionGood,
		},
		Financials:   domain.Financials{OccupancyRate: 90, CurrentRent: 10000},
		ImageURLs:    []string{"/images/a.jpg"},
		DocumentURLs: []string{"/docs/a.pdf"},
	}

	first, err := svc.Verify(context.Background(), sub)
	require.NoError(t, err)
	second, err := svc.Verify(context.Background(), sub)
	require.NoError(t, err)

	assert.Equal(t, first.Existence.Score, second.Existence.Score)
	assert.Equal(t, first.Ownership.Score, second.Ownership.Score)
	assert.Equal(t, first.ActivityScore, second.ActivityScore)
	assert.Equal(t, first.OverallScore, second.OverallScore)
}

func TestVerifyMockFlagDoesNotChangeScores(t *testing.T) {
	svc := newTestService(signal.Default(), config.DefaultOracleWeights())

	real := domain.Submission{
		ID:        "sub-real",
		AssetName: "Riverside Warehouse",
		SPV:       domain.SPV{Name: "Riverside SPV", RegistrationID: "REG-2024-001"},
		Specifications: domain.Specifications{
			Size: 8000, Type: "industrial", Condition: domain.ConditionFair,
		},
		Financials: domain.Financials{OccupancyRate: 70},
	}
	mock := real
	mock.ID = "sub-mock"
	mock.SPV.RegistrationID = "MOCK-2024-001"
	mock.Mock = true

	realResult, err := svc.Verify(context.Background(), real)
	require.NoError(t, err)
	mockResult, err := svc.Verify(context.Background(), mock)
	require.NoError(t, err)

	assert.Equal(t, realResult.Existence.Score, mockResult.Existence.Score)
	assert.Equal(t, realResult.Ownership.Score, mockResult.Ownership.Score)
	assert.Equal(t, realResult.OverallScore, mockResult.OverallScore)
}

func TestVerifyRenormalizesOnProviderFailure(t *testing.T) {
	reg := signal.NewRegistry()
	require.NoError(t, reg.Register(stubProvider{name: "a", group: signal.GroupExistence, score: 0.8, conf: 0.9}))
	require.NoError(t, reg.Register(stubProvider{name: "b", group: signal.GroupExistence, score: 0.4, conf: 0.5}))
	require.NoError(t, reg.Register(stubProvider{name: "c", group: signal.GroupExistence, err: errors.New("upstream down")}))
	require.NoError(t, reg.Register(stubProvider{name: "d", group: signal.GroupOwnership, score: 0.9, conf: 0.9}))

	weights := config.OracleWeights{
		Existence: map[string]float64{"a": 0.25, "b": 0.25, "c": 0.50},
		Ownership: map[string]float64{"d": 1.0},
	}

	result, err := newTestService(reg, weights).Verify(context.Background(), domain.Submission{ID: "sub-1"})
	require.NoError(t, err)

	// Surviving weights renormalize to 0.5 each.
	assert.InDelta(t, 0.6, result.Existence.Score, 1e-9)
	require.Len(t, result.Existence.Signals, 3)
	for _, sig := range result.Existence.Signals {
		switch sig.Provider {
		case "c":
			assert.True(t, sig.Failed)
			assert.Zero(t, sig.Weight)
		default:
			assert.InDelta(t, 0.5, sig.Weight, 1e-9)
		}
	}
}

func TestVerifyFailsWhenWholeGroupFails(t *testing.T) {
	reg := signal.NewRegistry()
	require.NoError(t, reg.Register(stubProvider{name: "a", group: signal.GroupExistence, err: errors.New("down")}))
	require.NoError(t, reg.Register(stubProvider{name: "d", group: signal.GroupOwnership, score: 0.9, conf: 0.9}))

	weights := config.OracleWeights{
		Existence: map[string]float64{"a": 1.0},
		Ownership: map[string]float64{"d": 1.0},
	}

	_, err := newTestService(reg, weights).Verify(context.Background(), domain.Submission{ID: "sub-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "existence")
}

func TestVerifyComputesOverallScore(t *testing.T) {
	reg := signal.NewRegistry()
	require.NoError(t, reg.Register(stubProvider{name: "e", group: signal.GroupExistence, score: 0.8, conf: 0.8}))
	require.NoError(t, reg.Register(stubProvider{name: "o", group: signal.GroupOwnership, score: 0.6, conf: 0.7}))

	weights := config.OracleWeights{
		Existence: map[string]float64{"e": 1.0},
		Ownership: map[string]float64{"o": 1.0},
	}

	result, err := newTestService(reg, weights).Verify(context.Background(), domain.Submission{ID: "sub-1"})
	require.NoError(t, err)

	// No activity provider registered, so the existence composite stands in.
	assert.InDelta(t, 0.8, result.ActivityScore, 1e-9)
	assert.InDelta(t, 0.8*0.5+0.6*0.35+0.8*0.15, result.OverallScore, 1e-9)
}
