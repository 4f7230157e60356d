package test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetgate/internal/abm"
	"assetgate/internal/consensus"
	"assetgate/internal/domain"
	"assetgate/internal/fraud"
	"assetgate/internal/legal"
	"assetgate/internal/oracle"
	"assetgate/internal/oracle/signal"
	"assetgate/internal/platform/config"
	"assetgate/internal/registry"
	"assetgate/internal/submission"
	httptransport "assetgate/internal/transport/http"
	audit "assetgate/pkg/platform/audit"
	auditmem "assetgate/pkg/platform/audit/store/memory"
	auditworker "assetgate/pkg/platform/audit/worker"
	"assetgate/pkg/testutil"
)

// newStack wires the full service against an in-memory store, mirroring the
// production wiring in cmd/server. Thresholds are injectable so tests can
// force either terminal outcome without depending on simulated signal values.
func newStack(t *testing.T, thresholds config.ConsensusThresholds) (http.Handler, *auditmem.InMemoryStore) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	auditStore := auditmem.NewInMemoryStore()
	events := make(chan audit.Event, 256)
	workerCtx, cancel := context.WithCancel(context.Background())
	go func() { _ = auditworker.NewWorker(auditStore, nil, events, logger).Run(workerCtx) }()
	t.Cleanup(cancel)

	oracleSvc := oracle.NewService(signal.Default(), config.DefaultOracleWeights(), 5*time.Second, logger, nil)
	abmSvc := abm.NewService(42, logger)
	fraudSvc := fraud.NewService(config.FraudConfig{CriticalScore: 0.20, HighScore: 0.10}, logger)
	registrySvc := registry.NewService(registry.NewInMemoryStore(), logger)

	submissionSvc := submission.NewService(
		submission.NewInMemoryStore(),
		oracleSvc,
		abmSvc,
		fraudSvc,
		consensus.New(thresholds),
		registrySvc,
		legal.NewSimulated(logger),
		events,
		30*time.Second,
		logger,
		nil,
	)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Submissions:  httptransport.NewSubmissionHandler(submissionSvc, logger),
		Assets:       httptransport.NewAssetHandler(registrySvc, auditStore, logger),
		AuthDisabled: true,
		Logger:       logger,
	})
	return router, auditStore
}

func submissionBody() string {
	return `{
		"submitterId": "user-7",
		"walletAddress": "0xabc",
		"walletSignature": "0xsig",
		"category": "real-estate",
		"assetName": "Koramangala Office Park",
		"location": {"address": "80 Feet Rd", "city": "Bengaluru", "country": "IN"},
		"specifications": {"size": 10000, "type": "commercial", "condition": "good"},
		"spv": {"name": "KOP SPV", "registrationId": "REG-2025-014", "jurisdiction": "IN"},
		"registryIds": ["KA-REG-1"],
		"documentUrls": ["/docs/deed.pdf"],
		"imageUrls": ["/images/front.jpg"],
		"financials": {"currentRent": 500000, "expectedYield": 7, "occupancyRate": 90, "tenantCount": 8},
		"claimedValue": 85000000
	}`
}

func awaitTerminal(t *testing.T, router http.Handler, id string) domain.Submission {
	t.Helper()
	var sub domain.Submission
	require.Eventually(t, func() bool {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/submissions/"+id))
		if rr.Code != http.StatusOK {
			return false
		}
		sub = *testutil.UnmarshalResponse[domain.Submission](t, rr)
		return sub.Status.Terminal()
	}, 30*time.Second, 50*time.Millisecond, "submission never reached a terminal status")
	return sub
}

func TestPipelineEndToEndEligible(t *testing.T) {
	// Permissive thresholds make the simulated scores irrelevant to the
	// outcome under test, which is the full eligible path.
	router, auditStore := newStack(t, config.ConsensusThresholds{
		MinExistence: 0, MinOwnership: 0, MaxFraud: 100,
	})

	var submissionID string
	testutil.Given(t, "an accepted submission", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/v1/submissions", submissionBody()))
		testutil.AssertStatus(t, rr, http.StatusAccepted)
		resp := testutil.UnmarshalResponse[struct {
			ID string `json:"id"`
		}](t, rr)
		submissionID = resp.ID
		require.NotEmpty(t, submissionID)
	})

	testutil.When(t, "the pipeline finishes", func(t *testing.T) {
		sub := awaitTerminal(t, router, submissionID)
		assert.Equal(t, domain.StatusEligible, sub.Status)
	})

	testutil.Then(t, "the full result carries every stage and a registered asset", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/submissions/"+submissionID+"/result"))
		testutil.AssertStatusOK(t, rr)
		full := testutil.UnmarshalResponse[domain.FullResult](t, rr)
		require.NotNil(t, full.Oracle)
		require.NotNil(t, full.ABM)
		require.NotNil(t, full.Fraud)
		require.NotNil(t, full.Consensus)
		require.NotNil(t, full.Asset)
		assert.True(t, full.Consensus.Eligible)
		assert.NotEmpty(t, full.Asset.Fingerprint)
		assert.Greater(t, full.Asset.TokenEconomics.TokenSupply, int64(0))

		rr = testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/assets"))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), full.Asset.ID)
	})

	testutil.Then(t, "the audit trail recorded the lifecycle", func(t *testing.T) {
		require.Eventually(t, func() bool {
			events, err := auditStore.ListBySubmission(context.Background(), submissionID)
			return err == nil && containsAction(events, string(audit.EventSubmissionEligible))
		}, 5*time.Second, 20*time.Millisecond)
	})
}

func TestPipelineEndToEndRejected(t *testing.T) {
	// An unattainable existence threshold forces rejection by the first rule.
	router, _ := newStack(t, config.ConsensusThresholds{
		MinExistence: 1.01, MinOwnership: 0, MaxFraud: 100,
	})

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/v1/submissions", submissionBody()))
	testutil.AssertStatus(t, rr, http.StatusAccepted)
	resp := testutil.UnmarshalResponse[struct {
		ID string `json:"id"`
	}](t, rr)

	sub := awaitTerminal(t, router, resp.ID)
	assert.Equal(t, domain.StatusRejected, sub.Status)

	result := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/submissions/"+resp.ID+"/result"))
	testutil.AssertStatusOK(t, result)
	full := testutil.UnmarshalResponse[domain.FullResult](t, result)
	require.NotNil(t, full.Consensus)
	assert.Equal(t, "existence", full.Consensus.RejectionReason)
	assert.Nil(t, full.Asset)

	assets := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/v1/assets"))
	testutil.AssertStatusOK(t, assets)
	assert.NotContains(t, assets.Body.String(), resp.ID)
}

func TestPipelineValidationFailsSynchronously(t *testing.T) {
	router, _ := newStack(t, config.DefaultThresholds())

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/v1/submissions", `{"assetName":"x"}`))
	testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "bad_request")
}

func containsAction(events []audit.Event, action string) bool {
	for _, e := range events {
		if e.Action == action {
			return true
		}
	}
	return false
}
