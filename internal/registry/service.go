// Package registry records assets that passed consensus. Each record carries
// a content fingerprint and attestation hashes over the stage results so the
// hand-off is tamper-evident.
package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"assetgate/internal/domain"
)

// tokenPrice is the fixed issue price per token.
const tokenPrice = 1000

// Service derives and stores EligibleAsset records.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService constructs the registry.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Fingerprint hashes the identity of the asset: where it is, the SPV that
// wraps it, its physical shape and its registry ids. Used for duplicate
// detection across submissions.
func Fingerprint(sub domain.Submission) string {
	payload := struct {
		Location       domain.Location       `json:"location"`
		SPV            domain.SPV            `json:"spv"`
		Specifications domain.Specifications `json:"specifications"`
		RegistryIDs    []string              `json:"registryIds"`
	}{sub.Location, sub.SPV, sub.Specifications, sub.RegistryIDs}

	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// attest returns a short hash committing to a stage result.
func attest(v any) string {
	b, _ := json.Marshal(v)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])[:16]
}

// Register creates the eligible-asset record for a submission that passed
// consensus. Mock submissions are registered with legal status SKIPPED.
func (s *Service) Register(
	ctx context.Context,
	sub domain.Submission,
	oracle *domain.OracleResult,
	abm *domain.ABMResult,
	fraud *domain.FraudResult,
	consensus domain.ConsensusScore,
) (*domain.EligibleAsset, error) {
	if !consensus.Eligible {
		return nil, fmt.Errorf("submission %s is not eligible", sub.ID)
	}

	supply := int64(abm.NAV.Mean / tokenPrice)

	legalStatus := domain.LegalPending
	if sub.Mock {
		legalStatus = domain.LegalSkipped
	}

	asset := domain.EligibleAsset{
		ID:           "ASSET-" + strings.ToUpper(uuid.NewString()[:12]),
		SubmissionID: sub.ID,
		AssetName:    sub.AssetName,
		Fingerprint:  Fingerprint(sub),
		NAV: domain.NAVBand{
			Mean:     abm.NAV.Mean,
			Downside: abm.NAV.Downside,
			Upside:   abm.NAV.Upside,
		},
		ConsensusScore: consensus.Confidence,
		TokenEconomics: domain.TokenEconomics{
			TokenSupply:     supply,
			TokenPrice:      tokenPrice,
			AvailableTokens: supply,
			AnnualYieldPct:  abm.Yield.Expected,
		},
		OracleHash:    attest(oracle),
		ABMHash:       attest(abm),
		FraudHash:     attest(fraud),
		ConsensusHash: attest(consensus),
		LegalStatus:   legalStatus,
		RegisteredAt:  time.Now().UTC(),
	}

	if err := s.store.Put(ctx, asset); err != nil {
		return nil, fmt.Errorf("store eligible asset: %w", err)
	}

	s.logger.InfoContext(ctx, "asset registered",
		"asset_id", asset.ID,
		"submission_id", sub.ID,
		"token_supply", supply,
		"legal_status", legalStatus,
	)
	return &asset, nil
}

// AttachWorkflow records the legal workflow started for an asset.
func (s *Service) AttachWorkflow(ctx context.Context, assetID, workflowID string) error {
	asset, err := s.store.Get(ctx, assetID)
	if err != nil {
		return err
	}
	asset.LegalWorkflowID = workflowID
	asset.LegalStatus = domain.LegalInReview
	return s.store.Put(ctx, asset)
}

// Get returns one registered asset.
func (s *Service) Get(ctx context.Context, id string) (domain.EligibleAsset, error) {
	return s.store.Get(ctx, id)
}

// GetBySubmission returns the asset registered for a submission, if any.
func (s *Service) GetBySubmission(ctx context.Context, submissionID string) (domain.EligibleAsset, error) {
	return s.store.GetBySubmission(ctx, submissionID)
}

// List returns all registered assets in registration order.
func (s *Service) List(ctx context.Context) ([]domain.EligibleAsset, error) {
	return s.store.List(ctx)
}
