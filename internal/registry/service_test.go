package registry

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetgate/internal/domain"
	dErrors "assetgate/pkg/domain-errors"
)

func testService() *Service {
	return NewService(NewInMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func eligibleInputs() (domain.Submission, *domain.OracleResult, *domain.ABMResult, *domain.FraudResult, domain.ConsensusScore) {
	sub := domain.Submission{
		ID:        "sub-1",
		AssetName: "Whitefield Tech Park",
		SPV:       domain.SPV{Name: "Whitefield SPV", RegistrationID: "REG-9"},
		Location:  domain.Location{City: "Bengaluru"},
	}
	oracle := &domain.OracleResult{Existence: domain.CompositeScore{Score: 0.9}}
	abm := &domain.ABMResult{
		NAV:   domain.NAV{Mean: 50000000, Downside: 42000000, Upside: 58000000},
		Yield: domain.YieldAnalysis{Expected: 7.2},
	}
	fraud := &domain.FraudResult{Likelihood: 1.2}
	consensus := domain.ConsensusScore{SubmissionID: "sub-1", Eligible: true, Confidence: 0.88}
	return sub, oracle, abm, fraud, consensus
}

func TestRegisterDerivesTokenEconomics(t *testing.T) {
	svc := testService()
	sub, oracle, abm, fraud, consensus := eligibleInputs()

	asset, err := svc.Register(context.Background(), sub, oracle, abm, fraud, consensus)
	require.NoError(t, err)

	assert.Equal(t, int64(50000), asset.TokenEconomics.TokenSupply)
	assert.Equal(t, float64(1000), asset.TokenEconomics.TokenPrice)
	assert.Equal(t, asset.TokenEconomics.TokenSupply, asset.TokenEconomics.AvailableTokens)
	assert.Equal(t, 7.2, asset.TokenEconomics.AnnualYieldPct)
	assert.Equal(t, domain.LegalPending, asset.LegalStatus)
	assert.NotEmpty(t, asset.Fingerprint)
	assert.NotEmpty(t, asset.OracleHash)
	assert.Len(t, asset.OracleHash, 16)
}

func TestRegisterRejectsIneligible(t *testing.T) {
	svc := testService()
	sub, oracle, abm, fraud, consensus := eligibleInputs()
	consensus.Eligible = false

	_, err := svc.Register(context.Background(), sub, oracle, abm, fraud, consensus)
	require.Error(t, err)
}

func TestRegisterMockSkipsLegal(t *testing.T) {
	svc := testService()
	sub, oracle, abm, fraud, consensus := eligibleInputs()
	sub.Mock = true
	sub.SPV.RegistrationID = "MOCK-9"

	asset, err := svc.Register(context.Background(), sub, oracle, abm, fraud, consensus)
	require.NoError(t, err)
	assert.Equal(t, domain.LegalSkipped, asset.LegalStatus)
}

func TestFingerprintStableAcrossSubmissionIdentity(t *testing.T) {
	sub, _, _, _, _ := eligibleInputs()

	other := sub
	other.ID = "sub-2"
	other.SubmitterID = "someone-else"
	assert.Equal(t, Fingerprint(sub), Fingerprint(other))

	moved := sub
	moved.Location.City = "Pune"
	assert.NotEqual(t, Fingerprint(sub), Fingerprint(moved))
}

func TestAttachWorkflow(t *testing.T) {
	svc := testService()
	sub, oracle, abm, fraud, consensus := eligibleInputs()

	asset, err := svc.Register(context.Background(), sub, oracle, abm, fraud, consensus)
	require.NoError(t, err)

	require.NoError(t, svc.AttachWorkflow(context.Background(), asset.ID, "WF-123"))

	updated, err := svc.Get(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "WF-123", updated.LegalWorkflowID)
	assert.Equal(t, domain.LegalInReview, updated.LegalStatus)
}

func TestLookupBySubmission(t *testing.T) {
	svc := testService()
	sub, oracle, abm, fraud, consensus := eligibleInputs()

	asset, err := svc.Register(context.Background(), sub, oracle, abm, fraud, consensus)
	require.NoError(t, err)

	found, err := svc.GetBySubmission(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, asset.ID, found.ID)

	_, err = svc.GetBySubmission(context.Background(), "unknown")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))

	assets, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, assets, 1)
}
