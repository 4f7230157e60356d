// Package submission orchestrates the verification pipeline. Each submission
// is processed by a single goroutine walking the stage state machine; stage
// results are persisted before the status that makes them visible.
package submission

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"assetgate/internal/domain"
	"assetgate/internal/submission/metrics"
	dErrors "assetgate/pkg/domain-errors"
	audit "assetgate/pkg/platform/audit"
	"assetgate/pkg/requestcontext"
)

// OracleVerifier aggregates signal providers into the oracle result.
type OracleVerifier interface {
	Verify(ctx context.Context, sub domain.Submission) (*domain.OracleResult, error)
}

// MarketModeler produces the market model for a submission.
type MarketModeler interface {
	Analyze(ctx context.Context, sub domain.Submission, oracle *domain.OracleResult) (*domain.ABMResult, error)
}

// FraudDetector scores a submission for fraud likelihood.
type FraudDetector interface {
	Detect(ctx context.Context, sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult) (*domain.FraudResult, error)
}

// ConsensusScorer makes the terminal eligibility decision.
type ConsensusScorer interface {
	Score(submissionID string, oracle *domain.OracleResult, abm *domain.ABMResult, fraud *domain.FraudResult) domain.ConsensusScore
}

// AssetRegistrar records eligible assets and their legal workflow hand-off.
type AssetRegistrar interface {
	Register(ctx context.Context, sub domain.Submission, oracle *domain.OracleResult, abm *domain.ABMResult, fraud *domain.FraudResult, consensus domain.ConsensusScore) (*domain.EligibleAsset, error)
	AttachWorkflow(ctx context.Context, assetID, workflowID string) error
	GetBySubmission(ctx context.Context, submissionID string) (domain.EligibleAsset, error)
}

// LegalWorkflow starts entity-formation paperwork for an eligible asset.
type LegalWorkflow interface {
	Start(ctx context.Context, submissionID string) (workflowID string, err error)
}

// Service owns the submission lifecycle. Create spawns one processing
// goroutine per submission; every status transition and stage result write
// happens on that goroutine.
type Service struct {
	store        Store
	oracle       OracleVerifier
	abm          MarketModeler
	fraud        FraudDetector
	consensus    ConsensusScorer
	registry     AssetRegistrar
	legal        LegalWorkflow
	events       chan<- audit.Event
	stageTimeout time.Duration
	logger       *slog.Logger
	metrics      *metrics.Metrics

	wg sync.WaitGroup
}

// NewService wires the orchestrator. events and metrics may be nil.
func NewService(
	store Store,
	oracle OracleVerifier,
	abm MarketModeler,
	fraud FraudDetector,
	consensus ConsensusScorer,
	registry AssetRegistrar,
	legal LegalWorkflow,
	events chan<- audit.Event,
	stageTimeout time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		store:        store,
		oracle:       oracle,
		abm:          abm,
		fraud:        fraud,
		consensus:    consensus,
		registry:     registry,
		legal:        legal,
		events:       events,
		stageTimeout: stageTimeout,
		logger:       logger,
		metrics:      m,
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// Create accepts a validated submission, persists it in RECEIVED and starts
// its processing goroutine. The returned submission carries the assigned id.
func (s *Service) Create(ctx context.Context, sub domain.Submission) (domain.Submission, error) {
	now := nowUTC()
	sub.ID = "SUB-" + strings.ToUpper(uuid.NewString()[:12])
	sub.Mock = domain.IsMockRegistrationID(sub.SPV.RegistrationID)
	sub.Status = domain.StatusReceived
	sub.CreatedAt = now
	sub.UpdatedAt = now

	if err := s.store.Create(ctx, sub); err != nil {
		return domain.Submission{}, fmt.Errorf("create submission: %w", err)
	}

	startedAt := now
	_ = s.store.PutStage(ctx, sub.ID, domain.StageProgress{
		Stage:       domain.StageIntake,
		Started:     true,
		Completed:   true,
		StartedAt:   &startedAt,
		CompletedAt: &startedAt,
	})
	s.log(ctx, sub.ID, domain.StageIntake, domain.LogInfo, "submission received")
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryPipeline,
		SubmissionID: sub.ID,
		Stage:        string(domain.StageIntake),
		Action:       string(audit.EventSubmissionReceived),
		Status:       string(domain.StatusReceived),
	})

	s.logger.InfoContext(ctx, "submission accepted",
		"submission_id", sub.ID,
		"submitter_id", sub.SubmitterID,
		"category", sub.Category,
		"mock", sub.Mock,
	)

	s.metrics.PipelineStarted()
	s.wg.Add(1)
	// Processing outlives the HTTP request; keep its values for correlation
	// but drop its cancellation.
	go s.process(context.WithoutCancel(ctx), sub)

	return sub, nil
}

// Wait blocks until all in-flight processing goroutines finish. Used during
// shutdown and by tests.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Get returns one submission.
func (s *Service) Get(ctx context.Context, id string) (domain.Submission, error) {
	return s.store.Get(ctx, id)
}

// List returns all submissions, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Submission, error) {
	return s.store.List(ctx)
}

// statusPercent maps a lifecycle status to a coarse completion estimate.
var statusPercent = map[domain.Status]int{
	domain.StatusReceived:             5,
	domain.StatusOracleInProgress:     15,
	domain.StatusOracleDone:           30,
	domain.StatusABMInProgress:        40,
	domain.StatusABMDone:              55,
	domain.StatusFraudInProgress:      65,
	domain.StatusFraudDone:            75,
	domain.StatusConsensusCalculating: 85,
	domain.StatusEligible:             100,
	domain.StatusRejected:             100,
	domain.StatusFailed:               100,
}

// Progress returns the live pipeline view for one submission.
func (s *Service) Progress(ctx context.Context, id string) (domain.Progress, error) {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return domain.Progress{}, err
	}
	stages, err := s.store.Stages(ctx, id)
	if err != nil {
		return domain.Progress{}, err
	}
	logs, err := s.store.Logs(ctx, id)
	if err != nil {
		return domain.Progress{}, err
	}
	return domain.Progress{
		SubmissionID: sub.ID,
		Status:       sub.Status,
		Percent:      statusPercent[sub.Status],
		Stages:       stages,
		Logs:         logs,
	}, nil
}

// FullResult assembles the complete verification record, including the
// registered asset when one exists.
func (s *Service) FullResult(ctx context.Context, id string) (domain.FullResult, error) {
	full, err := s.store.Full(ctx, id)
	if err != nil {
		return domain.FullResult{}, err
	}
	asset, err := s.registry.GetBySubmission(ctx, id)
	switch {
	case err == nil:
		full.Asset = &asset
	case dErrors.CodeOf(err) != dErrors.CodeNotFound:
		return domain.FullResult{}, err
	}
	return full, nil
}

// process walks one submission through the stage state machine. It never
// panics the server; any stage error terminates the submission in FAILED.
func (s *Service) process(ctx context.Context, sub domain.Submission) {
	defer s.wg.Done()
	defer s.metrics.PipelineFinished()

	var (
		oracleResult *domain.OracleResult
		abmResult    *domain.ABMResult
		fraudResult  *domain.FraudResult
	)

	err := s.runStage(ctx, sub, domain.StageOracle, domain.StatusOracleInProgress, domain.StatusOracleDone,
		func(ctx context.Context) ([]domain.SubStage, error) {
			result, err := s.oracle.Verify(ctx, sub)
			if err != nil {
				return nil, err
			}
			if err := s.store.PutOracle(ctx, sub.ID, *result); err != nil {
				return nil, fmt.Errorf("persist oracle result: %w", err)
			}
			oracleResult = result
			return signalSubStages(result), nil
		})
	if err != nil {
		s.fail(ctx, sub, domain.StageOracle, err)
		return
	}

	err = s.runStage(ctx, sub, domain.StageABM, domain.StatusABMInProgress, domain.StatusABMDone,
		func(ctx context.Context) ([]domain.SubStage, error) {
			result, err := s.abm.Analyze(ctx, sub, oracleResult)
			if err != nil {
				return nil, err
			}
			if err := s.store.PutABM(ctx, sub.ID, *result); err != nil {
				return nil, fmt.Errorf("persist abm result: %w", err)
			}
			abmResult = result
			return nil, nil
		})
	if err != nil {
		s.fail(ctx, sub, domain.StageABM, err)
		return
	}

	err = s.runStage(ctx, sub, domain.StageFraud, domain.StatusFraudInProgress, domain.StatusFraudDone,
		func(ctx context.Context) ([]domain.SubStage, error) {
			result, err := s.fraud.Detect(ctx, sub, oracleResult, abmResult)
			if err != nil {
				return nil, err
			}
			if err := s.store.PutFraud(ctx, sub.ID, *result); err != nil {
				return nil, fmt.Errorf("persist fraud result: %w", err)
			}
			fraudResult = result
			return nil, nil
		})
	if err != nil {
		s.fail(ctx, sub, domain.StageFraud, err)
		return
	}

	var score domain.ConsensusScore
	err = s.runStage(ctx, sub, domain.StageConsensus, domain.StatusConsensusCalculating, "",
		func(ctx context.Context) ([]domain.SubStage, error) {
			score = s.consensus.Score(sub.ID, oracleResult, abmResult, fraudResult)
			if err := s.store.PutConsensus(ctx, sub.ID, score); err != nil {
				return nil, fmt.Errorf("persist consensus score: %w", err)
			}
			return nil, nil
		})
	if err != nil {
		s.fail(ctx, sub, domain.StageConsensus, err)
		return
	}

	if !score.Eligible {
		s.log(ctx, sub.ID, domain.StageConsensus, domain.LogWarn,
			"submission rejected: "+score.RejectionReason)
		_ = s.store.SetStatus(ctx, sub.ID, domain.StatusRejected)
		s.emit(ctx, audit.Event{
			Category:     audit.CategoryPipeline,
			SubmissionID: sub.ID,
			Stage:        string(domain.StageConsensus),
			Action:       string(audit.EventSubmissionRejected),
			Status:       string(domain.StatusRejected),
			Reason:       score.RejectionReason,
		})
		s.metrics.IncrementOutcome(string(domain.StatusRejected))
		s.logger.InfoContext(ctx, "submission rejected",
			"submission_id", sub.ID,
			"reason", score.RejectionReason,
		)
		return
	}

	err = s.runStage(ctx, sub, domain.StageRegistry, "", "",
		func(ctx context.Context) ([]domain.SubStage, error) {
			return nil, s.register(ctx, sub, oracleResult, abmResult, fraudResult, score)
		})
	if err != nil {
		s.fail(ctx, sub, domain.StageRegistry, err)
		return
	}

	_ = s.store.SetStatus(ctx, sub.ID, domain.StatusEligible)
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryPipeline,
		SubmissionID: sub.ID,
		Stage:        string(domain.StageConsensus),
		Action:       string(audit.EventSubmissionEligible),
		Status:       string(domain.StatusEligible),
	})
	s.metrics.IncrementOutcome(string(domain.StatusEligible))
	s.logger.InfoContext(ctx, "submission eligible",
		"submission_id", sub.ID,
		"confidence", score.Confidence,
	)
}

// register hands an eligible submission off to the registry and, for non-mock
// submissions, starts the legal workflow.
func (s *Service) register(
	ctx context.Context,
	sub domain.Submission,
	oracleResult *domain.OracleResult,
	abmResult *domain.ABMResult,
	fraudResult *domain.FraudResult,
	score domain.ConsensusScore,
) error {
	asset, err := s.registry.Register(ctx, sub, oracleResult, abmResult, fraudResult, score)
	if err != nil {
		return err
	}
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryRegistry,
		SubmissionID: sub.ID,
		Stage:        string(domain.StageRegistry),
		Action:       string(audit.EventAssetRegistered),
		Reason:       asset.ID,
	})
	s.log(ctx, sub.ID, domain.StageRegistry, domain.LogInfo, "asset registered as "+asset.ID)

	if sub.Mock {
		s.log(ctx, sub.ID, domain.StageRegistry, domain.LogInfo, "mock submission, legal workflow skipped")
		return nil
	}

	workflowID, err := s.legal.Start(ctx, sub.ID)
	if err != nil {
		return fmt.Errorf("start legal workflow: %w", err)
	}
	if err := s.registry.AttachWorkflow(ctx, asset.ID, workflowID); err != nil {
		return fmt.Errorf("attach legal workflow: %w", err)
	}
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryRegistry,
		SubmissionID: sub.ID,
		Stage:        string(domain.StageRegistry),
		Action:       string(audit.EventLegalWorkflowOpen),
		Reason:       workflowID,
	})
	s.log(ctx, sub.ID, domain.StageRegistry, domain.LogInfo, "legal workflow "+workflowID+" started")
	return nil
}

// runStage executes one pipeline stage under the stage timeout, maintaining
// the status, progress and audit records around it. Empty statuses skip the
// corresponding transition.
func (s *Service) runStage(
	ctx context.Context,
	sub domain.Submission,
	stage domain.Stage,
	inProgress, done domain.Status,
	fn func(ctx context.Context) ([]domain.SubStage, error),
) error {
	if inProgress != "" {
		if err := s.store.SetStatus(ctx, sub.ID, inProgress); err != nil {
			return fmt.Errorf("enter %s: %w", stage, err)
		}
	}

	startedAt := nowUTC()
	_ = s.store.PutStage(ctx, sub.ID, domain.StageProgress{
		Stage:     stage,
		Started:   true,
		StartedAt: &startedAt,
	})
	s.log(ctx, sub.ID, stage, domain.LogInfo, string(stage)+" stage started")
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryPipeline,
		SubmissionID: sub.ID,
		Stage:        string(stage),
		Action:       string(audit.EventStageStarted),
		Status:       string(inProgress),
	})

	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	subStages, err := fn(stageCtx)
	cancel()
	s.metrics.ObserveStageLatency(string(stage), time.Since(startedAt))

	if err != nil {
		_ = s.store.PutStage(ctx, sub.ID, domain.StageProgress{
			Stage:     stage,
			Started:   true,
			Failed:    true,
			StartedAt: &startedAt,
			SubStages: subStages,
		})
		s.emit(ctx, audit.Event{
			Category:     audit.CategoryPipeline,
			SubmissionID: sub.ID,
			Stage:        string(stage),
			Action:       string(audit.EventStageFailed),
			Reason:       err.Error(),
		})
		return err
	}

	completedAt := nowUTC()
	_ = s.store.PutStage(ctx, sub.ID, domain.StageProgress{
		Stage:       stage,
		Started:     true,
		Completed:   true,
		StartedAt:   &startedAt,
		CompletedAt: &completedAt,
		SubStages:   subStages,
	})
	s.log(ctx, sub.ID, stage, domain.LogInfo, string(stage)+" stage completed")
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryPipeline,
		SubmissionID: sub.ID,
		Stage:        string(stage),
		Action:       string(audit.EventStageCompleted),
		Status:       string(done),
	})

	if done != "" {
		if err := s.store.SetStatus(ctx, sub.ID, done); err != nil {
			return fmt.Errorf("leave %s: %w", stage, err)
		}
	}
	return nil
}

// fail terminates a submission in FAILED, recording the failing stage and
// reason.
func (s *Service) fail(ctx context.Context, sub domain.Submission, stage domain.Stage, cause error) {
	s.logger.ErrorContext(ctx, "pipeline stage failed",
		"submission_id", sub.ID,
		"stage", stage,
		"error", cause,
	)
	s.log(ctx, sub.ID, stage, domain.LogError, cause.Error())
	_ = s.store.SetFailure(ctx, sub.ID, stage, cause.Error())
	_ = s.store.SetStatus(ctx, sub.ID, domain.StatusFailed)
	s.emit(ctx, audit.Event{
		Category:     audit.CategoryPipeline,
		SubmissionID: sub.ID,
		Stage:        string(stage),
		Action:       string(audit.EventSubmissionFailed),
		Status:       string(domain.StatusFailed),
		Reason:       cause.Error(),
	})
	s.metrics.IncrementOutcome(string(domain.StatusFailed))
}

// log appends one line to the submission's processing log.
func (s *Service) log(ctx context.Context, id string, stage domain.Stage, level domain.LogLevel, msg string) {
	_ = s.store.AppendLog(ctx, id, domain.LogEntry{
		Timestamp: nowUTC(),
		Stage:     stage,
		Level:     level,
		Message:   msg,
	})
}

// emit sends an audit event without blocking the pipeline. A full or absent
// channel drops the event with a warning.
func (s *Service) emit(ctx context.Context, e audit.Event) {
	e.Timestamp = nowUTC()
	e.RequestID = requestcontext.RequestID(ctx)
	select {
	case s.events <- e:
	default:
		if s.events != nil {
			s.logger.WarnContext(ctx, "audit channel full, event dropped",
				"submission_id", e.SubmissionID,
				"action", e.Action,
			)
		}
	}
}

// signalSubStages converts oracle signals into per-provider progress entries.
func signalSubStages(result *domain.OracleResult) []domain.SubStage {
	var out []domain.SubStage
	for _, group := range [][]domain.Signal{result.Existence.Signals, result.Ownership.Signals} {
		for _, sig := range group {
			out = append(out, domain.SubStage{
				Name:      sig.Provider,
				Completed: !sig.Failed,
				Failed:    sig.Failed,
			})
		}
	}
	return out
}
