// Package progress stores the live state of bulk case operations in Redis so
// clients can poll them while the operation runs.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jordanlanch/recoverydesk/pkg/cache"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// DefaultTTL is how long an operation stays readable after its last update.
const DefaultTTL = time.Hour

// ErrNotFound is returned for unknown or expired operations.
var ErrNotFound = errors.New("bulk operation not found")

const (
	fieldMeta       = "meta"
	fieldSuccess    = "success_count"
	fieldErrors     = "error_count"
	fieldComplete   = "is_complete"
	fieldFinishedAt = "finished_at"
	itemPrefix      = "item:"
)

type meta struct {
	OperationID string               `json:"operation_id"`
	Operation   models.BulkOperation `json:"operation"`
	Total       int                  `json:"total"`
	StartedAt   time.Time            `json:"started_at"`
}

// Tracker keeps one Redis hash per operation.
type Tracker struct {
	client *cache.Client
	ttl    time.Duration
}

// NewTracker creates a tracker. A non-positive ttl means DefaultTTL.
func NewTracker(client *cache.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Tracker{client: client, ttl: ttl}
}

func key(tenantID, operationID string) string {
	return "bulkop:" + tenantID + ":" + operationID
}

// Start records a new operation with all of its items pending.
func (t *Tracker) Start(ctx context.Context, tenantID string, report models.OperationReport) error {
	m, err := json.Marshal(meta{
		OperationID: report.OperationID,
		Operation:   report.Operation,
		Total:       report.Total,
		StartedAt:   report.StartedAt,
	})
	if err != nil {
		return err
	}
	values := map[string]any{
		fieldMeta:     string(m),
		fieldSuccess:  0,
		fieldErrors:   0,
		fieldComplete: "0",
	}
	for i, item := range report.Items {
		raw, err := json.Marshal(item)
		if err != nil {
			return err
		}
		values[itemPrefix+strconv.Itoa(i)] = string(raw)
	}

	k := key(tenantID, report.OperationID)
	_, err = t.client.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, values)
		pipe.Expire(ctx, k, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed starting progress for %s: %w", report.OperationID, err)
	}
	return nil
}

// Update records a state transition of the item at index.
func (t *Tracker) Update(ctx context.Context, tenantID, operationID string, index int, item models.BulkItem) error {
	raw, err := json.Marshal(item)
	if err != nil {
		return err
	}
	k := key(tenantID, operationID)
	_, err = t.client.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, itemPrefix+strconv.Itoa(index), string(raw))
		switch item.State {
		case models.ItemSucceeded:
			pipe.HIncrBy(ctx, k, fieldSuccess, 1)
		case models.ItemFailed:
			pipe.HIncrBy(ctx, k, fieldErrors, 1)
		}
		pipe.Expire(ctx, k, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed updating progress for %s: %w", operationID, err)
	}
	return nil
}

// Finish marks the operation complete.
func (t *Tracker) Finish(ctx context.Context, tenantID string, report models.OperationReport) error {
	k := key(tenantID, report.OperationID)
	_, err := t.client.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, k, fieldComplete, "1", fieldFinishedAt, report.FinishedAt.UTC().Format(time.RFC3339Nano))
		pipe.Expire(ctx, k, t.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed finishing progress for %s: %w", report.OperationID, err)
	}
	return nil
}

// Get rebuilds the report of an operation from its hash.
func (t *Tracker) Get(ctx context.Context, tenantID, operationID string) (models.OperationReport, error) {
	fields, err := t.client.Redis.HGetAll(ctx, key(tenantID, operationID)).Result()
	if err != nil {
		return models.OperationReport{}, fmt.Errorf("failed reading progress for %s: %w", operationID, err)
	}
	if len(fields) == 0 {
		return models.OperationReport{}, ErrNotFound
	}
	return decode(fields)
}

// List returns the reports of every live operation of the tenant, newest first.
func (t *Tracker) List(ctx context.Context, tenantID string) ([]models.OperationReport, error) {
	keys, err := t.client.Keys(ctx, key(tenantID, "*"))
	if err != nil {
		return nil, err
	}
	out := make([]models.OperationReport, 0, len(keys))
	for _, k := range keys {
		fields, err := t.client.Redis.HGetAll(ctx, k).Result()
		if err != nil {
			return out, fmt.Errorf("failed reading progress %s: %w", k, err)
		}
		if len(fields) == 0 {
			continue
		}
		r, err := decode(fields)
		if err != nil {
			return out, err
		}
		r.Items = nil
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

func decode(fields map[string]string) (models.OperationReport, error) {
	var m meta
	if err := json.Unmarshal([]byte(fields[fieldMeta]), &m); err != nil {
		return models.OperationReport{}, fmt.Errorf("corrupt progress record: %w", err)
	}
	r := models.OperationReport{
		OperationID: m.OperationID,
		Operation:   m.Operation,
		Total:       m.Total,
		StartedAt:   m.StartedAt,
		IsComplete:  fields[fieldComplete] == "1",
		Items:       make([]models.BulkItem, m.Total),
		Errors:      []models.OperationError{},
	}
	r.SuccessCount, _ = strconv.Atoi(fields[fieldSuccess])
	r.ErrorCount, _ = strconv.Atoi(fields[fieldErrors])
	if v, ok := fields[fieldFinishedAt]; ok {
		r.FinishedAt, _ = time.Parse(time.RFC3339Nano, v)
	}

	for f, v := range fields {
		if !strings.HasPrefix(f, itemPrefix) {
			continue
		}
		idx, err := strconv.Atoi(strings.TrimPrefix(f, itemPrefix))
		if err != nil || idx < 0 || idx >= len(r.Items) {
			continue
		}
		if err := json.Unmarshal([]byte(v), &r.Items[idx]); err != nil {
			return r, fmt.Errorf("corrupt progress item %d: %w", idx, err)
		}
	}
	for _, item := range r.Items {
		if item.State == models.ItemFailed {
			r.Errors = append(r.Errors, models.OperationError{ID: item.CaseID, Name: item.Name, Error: item.Error})
		}
	}
	return r, nil
}
