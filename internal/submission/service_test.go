package submission

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetgate/internal/domain"
	"assetgate/internal/legal"
	"assetgate/internal/registry"
	dErrors "assetgate/pkg/domain-errors"
	audit "assetgate/pkg/platform/audit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubOracle struct {
	result domain.OracleResult
	err    error
}

func (s stubOracle) Verify(_ context.Context, _ domain.Submission) (*domain.OracleResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := s.result
	return &r, nil
}

type stubABM struct {
	result domain.ABMResult
	err    error
}

func (s stubABM) Analyze(_ context.Context, _ domain.Submission, _ *domain.OracleResult) (*domain.ABMResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := s.result
	return &r, nil
}

type stubFraud struct {
	result domain.FraudResult
	err    error
}

func (s stubFraud) Detect(_ context.Context, _ domain.Submission, _ *domain.OracleResult, _ *domain.ABMResult) (*domain.FraudResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	r := s.result
	return &r, nil
}

type stubConsensus struct {
	score domain.ConsensusScore
}

func (s stubConsensus) Score(submissionID string, _ *domain.OracleResult, _ *domain.ABMResult, _ *domain.FraudResult) domain.ConsensusScore {
	score := s.score
	score.SubmissionID = submissionID
	return score
}

// pipeline bundles everything a test needs to drive and inspect one run.
type pipeline struct {
	svc    *Service
	store  *InMemoryStore
	legal  *legal.Simulated
	events chan audit.Event
}

type pipelineOverrides struct {
	oracle    OracleVerifier
	abm       MarketModeler
	fraud     FraudDetector
	consensus ConsensusScorer
}

func passingOracle() domain.OracleResult {
	return domain.OracleResult{
		Existence:    domain.CompositeScore{Score: 0.95, Confidence: 0.9},
		Ownership:    domain.CompositeScore{Score: 0.92, Confidence: 0.9},
		OverallScore: 0.93,
		CompletedAt:  time.Now().UTC(),
	}
}

func passingABM() domain.ABMResult {
	return domain.ABMResult{
		NAV:         domain.NAV{Mean: 50_000_000, Downside: 42_000_000, Upside: 58_000_000, Confidence: 0.8},
		Yield:       domain.YieldAnalysis{Expected: 7.2},
		Confidence:  0.8,
		CompletedAt: time.Now().UTC(),
	}
}

func newPipeline(t *testing.T, o pipelineOverrides) *pipeline {
	t.Helper()

	store := NewInMemoryStore()
	logger := testLogger()
	regSvc := registry.NewService(registry.NewInMemoryStore(), logger)
	legalSim := legal.NewSimulated(logger)
	events := make(chan audit.Event, 128)

	if o.oracle == nil {
		o.oracle = stubOracle{result: passingOracle()}
	}
	if o.abm == nil {
		o.abm = stubABM{result: passingABM()}
	}
	if o.fraud == nil {
		o.fraud = stubFraud{result: domain.FraudResult{Likelihood: 1.2, RiskLevel: domain.RiskLow}}
	}
	if o.consensus == nil {
		o.consensus = stubConsensus{score: domain.ConsensusScore{Eligible: true, Confidence: 0.9}}
	}

	svc := NewService(store, o.oracle, o.abm, o.fraud, o.consensus,
		regSvc, legalSim, events, 5*time.Second, logger, nil)
	return &pipeline{svc: svc, store: store, legal: legalSim, events: events}
}

func (p *pipeline) run(t *testing.T, sub domain.Submission) domain.Submission {
	t.Helper()
	created, err := p.svc.Create(context.Background(), sub)
	require.NoError(t, err)
	p.svc.Wait()
	return created
}

func (p *pipeline) drainActions() []string {
	var actions []string
	for {
		select {
		case e := <-p.events:
			actions = append(actions, e.Action)
		default:
			return actions
		}
	}
}

func newSubmission() domain.Submission {
	return domain.Submission{
		SubmitterID:   "user-7",
		WalletAddress: "0xabc",
		Category:      domain.CategoryRealEstate,
		AssetName:     "Koramangala Office Park",
		Location:      domain.Location{City: "Bengaluru", Country: "IN"},
		Specifications: domain.Specifications{
			Size: 10000, Type: "commercial", Condition: domain.ConditionGood,
		},
		SPV:          domain.SPV{Name: "KOP SPV", RegistrationID: "REG-2025-014"},
		Financials:   domain.Financials{CurrentRent: 500000, ExpectedYield: 7, OccupancyRate: 90},
		ClaimedValue: 85_000_000,
	}
}

func TestCreateAssignsIdentityAndMockFlag(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})

	sub := newSubmission()
	sub.SPV.RegistrationID = "MOCK-2025-001"
	created := p.run(t, sub)

	assert.True(t, strings.HasPrefix(created.ID, "SUB-"))
	assert.True(t, created.Mock)
	assert.Equal(t, domain.StatusReceived, created.Status)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestEligibleSubmissionReachesRegistry(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})
	created := p.run(t, newSubmission())

	got, err := p.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEligible, got.Status)

	full, err := p.svc.FullResult(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, full.Oracle)
	require.NotNil(t, full.ABM)
	require.NotNil(t, full.Fraud)
	require.NotNil(t, full.Consensus)
	require.NotNil(t, full.Asset)
	assert.Empty(t, full.Failure)

	// Non-mock submissions get a legal workflow attached.
	assert.True(t, p.legal.Started(created.ID))
	assert.Equal(t, domain.LegalInReview, full.Asset.LegalStatus)
	assert.NotEmpty(t, full.Asset.LegalWorkflowID)

	actions := p.drainActions()
	assert.Contains(t, actions, string(audit.EventSubmissionReceived))
	assert.Contains(t, actions, string(audit.EventStageStarted))
	assert.Contains(t, actions, string(audit.EventStageCompleted))
	assert.Contains(t, actions, string(audit.EventSubmissionEligible))
	assert.Contains(t, actions, string(audit.EventAssetRegistered))
	assert.Contains(t, actions, string(audit.EventLegalWorkflowOpen))
}

func TestMockSubmissionSkipsLegalWorkflow(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})

	sub := newSubmission()
	sub.SPV.RegistrationID = "DEMO-2025-002"
	created := p.run(t, sub)

	full, err := p.svc.FullResult(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, full.Asset)
	assert.Equal(t, domain.LegalSkipped, full.Asset.LegalStatus)
	assert.Empty(t, full.Asset.LegalWorkflowID)
	assert.False(t, p.legal.Started(created.ID))

	actions := p.drainActions()
	assert.NotContains(t, actions, string(audit.EventLegalWorkflowOpen))
}

func TestRejectedSubmissionNeverReachesRegistry(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{
		consensus: stubConsensus{score: domain.ConsensusScore{
			Eligible:        false,
			RejectionReason: "existence",
			RejectionDetail: "existence score 0.50 below required 0.70",
			Confidence:      0.8,
		}},
	})
	created := p.run(t, newSubmission())

	got, err := p.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)

	full, err := p.svc.FullResult(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, full.Consensus)
	assert.Equal(t, "existence", full.Consensus.RejectionReason)
	assert.Nil(t, full.Asset)
	assert.False(t, p.legal.Started(created.ID))

	actions := p.drainActions()
	assert.Contains(t, actions, string(audit.EventSubmissionRejected))
	assert.NotContains(t, actions, string(audit.EventAssetRegistered))
}

func TestStageFailureTerminatesInFailed(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{
		oracle: stubOracle{err: errors.New("satellite feed unavailable")},
	})
	created := p.run(t, newSubmission())

	got, err := p.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)

	full, err := p.svc.FullResult(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Contains(t, full.Failure, "oracle")
	assert.Contains(t, full.Failure, "satellite feed unavailable")
	assert.Nil(t, full.Oracle)
	assert.Nil(t, full.ABM)
	assert.Nil(t, full.Asset)

	progress, err := p.svc.Progress(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, progress.Status)
	assert.Equal(t, 100, progress.Percent)

	var oracleStage *domain.StageProgress
	for i := range progress.Stages {
		if progress.Stages[i].Stage == domain.StageOracle {
			oracleStage = &progress.Stages[i]
		}
	}
	require.NotNil(t, oracleStage)
	assert.True(t, oracleStage.Failed)
	assert.False(t, oracleStage.Completed)

	actions := p.drainActions()
	assert.Contains(t, actions, string(audit.EventStageFailed))
	assert.Contains(t, actions, string(audit.EventSubmissionFailed))
}

func TestMidstreamFailureKeepsCompletedResults(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{
		fraud: stubFraud{err: errors.New("feature extraction failed")},
	})
	created := p.run(t, newSubmission())

	full, err := p.svc.FullResult(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, full.Submission.Status)
	require.NotNil(t, full.Oracle)
	require.NotNil(t, full.ABM)
	assert.Nil(t, full.Fraud)
	assert.Nil(t, full.Consensus)
}

func TestStageTimestampsAreOrdered(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})
	created := p.run(t, newSubmission())

	progress, err := p.svc.Progress(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, progress.Stages)

	var prevCompleted *time.Time
	for _, st := range progress.Stages {
		assert.True(t, st.Completed, "stage %s should be completed", st.Stage)
		require.NotNil(t, st.StartedAt, "stage %s", st.Stage)
		require.NotNil(t, st.CompletedAt, "stage %s", st.Stage)
		assert.False(t, st.CompletedAt.Before(*st.StartedAt), "stage %s completed before it started", st.Stage)
		if prevCompleted != nil {
			assert.False(t, st.StartedAt.Before(*prevCompleted),
				"stage %s started before previous stage completed", st.Stage)
		}
		prevCompleted = st.CompletedAt
	}
}

func TestProcessingLogIsAppendOnlyAndOrdered(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})
	created := p.run(t, newSubmission())

	progress, err := p.svc.Progress(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotEmpty(t, progress.Logs)
	assert.Equal(t, "submission received", progress.Logs[0].Message)

	for i := 1; i < len(progress.Logs); i++ {
		assert.False(t, progress.Logs[i].Timestamp.Before(progress.Logs[i-1].Timestamp))
	}
}

func TestFullResultIsStableAfterCompletion(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})
	created := p.run(t, newSubmission())

	first, err := p.svc.FullResult(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := p.svc.FullResult(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestListReturnsNewestFirst(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})

	first := p.run(t, newSubmission())
	second := p.run(t, newSubmission())

	subs, err := p.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, second.ID, subs[0].ID)
	assert.Equal(t, first.ID, subs[1].ID)
}

func TestProgressUnknownSubmission(t *testing.T) {
	p := newPipeline(t, pipelineOverrides{})
	_, err := p.svc.Progress(context.Background(), "SUB-UNKNOWN")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestStoreRejectsStatusChangeAfterTerminal(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	sub := newSubmission()
	sub.ID = "SUB-TERMINAL"
	sub.Status = domain.StatusReceived
	require.NoError(t, store.Create(ctx, sub))
	require.NoError(t, store.SetStatus(ctx, sub.ID, domain.StatusRejected))

	err := store.SetStatus(ctx, sub.ID, domain.StatusEligible)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}
