package submission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"assetgate/internal/domain"
	dErrors "assetgate/pkg/domain-errors"
)

// Redis key layout. Everything for one submission hangs off its id so a
// deployment can add eviction per submission later.
const (
	keyIndex     = "sub:index"
	keySubPrefix = "sub:"
)

// RedisStore persists submissions as JSON blobs in Redis. Writes to a given
// submission are serialized by its processing goroutine, so plain
// read-modify-write is safe here.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore constructs the store on an established client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func subKey(id string) string    { return keySubPrefix + id }
func stagesKey(id string) string { return keySubPrefix + id + ":stages" }
func logsKey(id string) string   { return keySubPrefix + id + ":logs" }

func resultKey(id, part string) string {
	return keySubPrefix + id + ":" + part
}

func (s *RedisStore) Create(ctx context.Context, sub domain.Submission) error {
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	ok, err := s.client.SetNX(ctx, subKey(sub.ID), b, 0).Result()
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	if !ok {
		return dErrors.New(dErrors.CodeConflict, "submission already exists")
	}
	if err := s.client.LPush(ctx, keyIndex, sub.ID).Err(); err != nil {
		return fmt.Errorf("index submission: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (domain.Submission, error) {
	b, err := s.client.Get(ctx, subKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Submission{}, dErrors.New(dErrors.CodeNotFound, "submission not found")
	}
	if err != nil {
		return domain.Submission{}, fmt.Errorf("get submission: %w", err)
	}
	var sub domain.Submission
	if err := json.Unmarshal(b, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("unmarshal submission: %w", err)
	}
	return sub, nil
}

// List returns submissions newest first; the index list is LPUSHed on create.
func (s *RedisStore) List(ctx context.Context) ([]domain.Submission, error) {
	ids, err := s.client.LRange(ctx, keyIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	out := make([]domain.Submission, 0, len(ids))
	for _, id := range ids {
		sub, err := s.Get(ctx, id)
		if err != nil {
			if dErrors.CodeOf(err) == dErrors.CodeNotFound {
				continue
			}
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *RedisStore) SetStatus(ctx context.Context, id string, status domain.Status) error {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.Status.Terminal() {
		return dErrors.New(dErrors.CodeConflict, "submission already terminal")
	}
	sub.Status = status
	sub.UpdatedAt = nowUTC()
	b, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal submission: %w", err)
	}
	return s.client.Set(ctx, subKey(id), b, 0).Err()
}

func (s *RedisStore) SetFailure(ctx context.Context, id string, stage domain.Stage, reason string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.client.Set(ctx, resultKey(id, "failure"), string(stage)+": "+reason, 0).Err()
}

func (s *RedisStore) putResult(ctx context.Context, id, part string, v any) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s result: %w", part, err)
	}
	return s.client.Set(ctx, resultKey(id, part), b, 0).Err()
}

func (s *RedisStore) getResult(ctx context.Context, id, part string, v any) (bool, error) {
	b, err := s.client.Get(ctx, resultKey(id, part)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get %s result: %w", part, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, fmt.Errorf("unmarshal %s result: %w", part, err)
	}
	return true, nil
}

func (s *RedisStore) PutOracle(ctx context.Context, id string, result domain.OracleResult) error {
	return s.putResult(ctx, id, "oracle", result)
}

func (s *RedisStore) PutABM(ctx context.Context, id string, result domain.ABMResult) error {
	return s.putResult(ctx, id, "abm", result)
}

func (s *RedisStore) PutFraud(ctx context.Context, id string, result domain.FraudResult) error {
	return s.putResult(ctx, id, "fraud", result)
}

func (s *RedisStore) PutConsensus(ctx context.Context, id string, score domain.ConsensusScore) error {
	return s.putResult(ctx, id, "consensus", score)
}

func (s *RedisStore) PutStage(ctx context.Context, id string, stage domain.StageProgress) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	b, err := json.Marshal(stage)
	if err != nil {
		return fmt.Errorf("marshal stage progress: %w", err)
	}
	return s.client.HSet(ctx, stagesKey(id), string(stage.Stage), b).Err()
}

func (s *RedisStore) Stages(ctx context.Context, id string) ([]domain.StageProgress, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	fields, err := s.client.HGetAll(ctx, stagesKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("get stage progress: %w", err)
	}
	out := make([]domain.StageProgress, 0, len(fields))
	for _, raw := range fields {
		var sp domain.StageProgress
		if err := json.Unmarshal([]byte(raw), &sp); err != nil {
			return nil, fmt.Errorf("unmarshal stage progress: %w", err)
		}
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return stageOrder[out[i].Stage] < stageOrder[out[j].Stage] })
	return out, nil
}

func (s *RedisStore) AppendLog(ctx context.Context, id string, entry domain.LogEntry) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal log entry: %w", err)
	}
	return s.client.RPush(ctx, logsKey(id), b).Err()
}

func (s *RedisStore) Logs(ctx context.Context, id string) ([]domain.LogEntry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	raws, err := s.client.LRange(ctx, logsKey(id), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get logs: %w", err)
	}
	out := make([]domain.LogEntry, 0, len(raws))
	for _, raw := range raws {
		var e domain.LogEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("unmarshal log entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (s *RedisStore) Full(ctx context.Context, id string) (domain.FullResult, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return domain.FullResult{}, err
	}
	full := domain.FullResult{Submission: sub}

	var oracle domain.OracleResult
	if ok, err := s.getResult(ctx, id, "oracle", &oracle); err != nil {
		return domain.FullResult{}, err
	} else if ok {
		full.Oracle = &oracle
	}
	var abm domain.ABMResult
	if ok, err := s.getResult(ctx, id, "abm", &abm); err != nil {
		return domain.FullResult{}, err
	} else if ok {
		full.ABM = &abm
	}
	var fraud domain.FraudResult
	if ok, err := s.getResult(ctx, id, "fraud", &fraud); err != nil {
		return domain.FullResult{}, err
	} else if ok {
		full.Fraud = &fraud
	}
	var consensus domain.ConsensusScore
	if ok, err := s.getResult(ctx, id, "consensus", &consensus); err != nil {
		return domain.FullResult{}, err
	} else if ok {
		full.Consensus = &consensus
	}

	failure, err := s.client.Get(ctx, resultKey(id, "failure")).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.FullResult{}, fmt.Errorf("get failure: %w", err)
	}
	full.Failure = failure
	return full, nil
}
