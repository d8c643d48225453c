package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aic-platform/orchestrator/pkg/models"
)

// Run and step mirrors age out after an hour; approval markers wait up to a
// day for a human decision.
const (
	runKeyTTL      = time.Hour
	stepKeyTTL     = time.Hour
	approvalKeyTTL = 24 * time.Hour
)

// ShadowStore mirrors run state into Redis. The status endpoint reads from
// it, and it is the only home of approval markers.
type ShadowStore struct {
	client *redis.Client
}

// NewShadowStore connects to Redis at url (redis://host:port form). The
// connection itself is established lazily on first use.
func NewShadowStore(url string) (*ShadowStore, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &ShadowStore{client: redis.NewClient(opt)}, nil
}

// NewShadowStoreWithClient wraps an existing Redis client.
func NewShadowStoreWithClient(client *redis.Client) *ShadowStore {
	return &ShadowStore{client: client}
}

// Ping verifies the Redis connection.
func (s *ShadowStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the underlying Redis connection.
func (s *ShadowStore) Close() error {
	return s.client.Close()
}

func runKey(runID string) string {
	return "run:update:" + runID
}

func stepKey(runID, stepID string) string {
	return "step_run:" + models.StepRunID(runID, stepID)
}

func approvalKey(runID, stepID string) string {
	return "approval:" + runID + ":" + stepID
}

// WriteRunUpdate stores the latest run transition, replacing the previous one.
func (s *ShadowStore) WriteRunUpdate(ctx context.Context, runID string, update models.RunUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode run update: %w", err)
	}
	if err := s.client.Set(ctx, runKey(runID), payload, runKeyTTL).Err(); err != nil {
		return fmt.Errorf("store run update: %w", err)
	}
	return nil
}

// RunUpdate returns the latest stored run transition as raw JSON. The bool
// reports whether a mirror exists for the run.
func (s *ShadowStore) RunUpdate(ctx context.Context, runID string) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, runKey(runID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup run update: %w", err)
	}
	return raw, true, nil
}

// WriteStepRecord mirrors a freshly planned step record.
func (s *ShadowStore) WriteStepRecord(ctx context.Context, runID string, record models.StepRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode step record: %w", err)
	}
	if err := s.client.Set(ctx, stepKey(runID, record.StepID), payload, stepKeyTTL).Err(); err != nil {
		return fmt.Errorf("store step record: %w", err)
	}
	return nil
}

// WriteStepUpdate stores the latest step transition, replacing the previous
// value under the step's key.
func (s *ShadowStore) WriteStepUpdate(ctx context.Context, runID, stepID string, update models.StepUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode step update: %w", err)
	}
	if err := s.client.Set(ctx, stepKey(runID, stepID), payload, stepKeyTTL).Err(); err != nil {
		return fmt.Errorf("store step update: %w", err)
	}
	return nil
}

// Approval fetches the approval marker for a gate. Absence is not an error.
func (s *ShadowStore) Approval(ctx context.Context, runID, stepID string) (models.ApprovalMarker, bool, error) {
	raw, err := s.client.Get(ctx, approvalKey(runID, stepID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.ApprovalMarker{}, false, nil
	}
	if err != nil {
		return models.ApprovalMarker{}, false, fmt.Errorf("lookup approval marker: %w", err)
	}
	var marker models.ApprovalMarker
	if err := json.Unmarshal(raw, &marker); err != nil {
		return models.ApprovalMarker{}, false, fmt.Errorf("decode approval marker: %w", err)
	}
	return marker, true, nil
}

// PutApproval stores the approval marker for a gate.
func (s *ShadowStore) PutApproval(ctx context.Context, runID, stepID string, marker models.ApprovalMarker) error {
	payload, err := json.Marshal(marker)
	if err != nil {
		return fmt.Errorf("encode approval marker: %w", err)
	}
	if err := s.client.Set(ctx, approvalKey(runID, stepID), payload, approvalKeyTTL).Err(); err != nil {
		return fmt.Errorf("store approval marker: %w", err)
	}
	return nil
}
