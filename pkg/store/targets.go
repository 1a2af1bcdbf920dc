package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/recoverydesk/pkg/database"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

var targetColumns = []string{
	"id", "tenant_id", "telecaller_id", "daily_calls_target", "weekly_calls_target",
	"monthly_calls_target", "monthly_collections_target", "created_at",
}

func scanTarget(rows *entsql.Rows) (models.Target, error) {
	var (
		t           models.Target
		collections entsql.NullFloat64
	)
	err := rows.Scan(&t.ID, &t.TenantID, &t.TelecallerID, &t.DailyCallsTarget, &t.WeeklyCallsTarget,
		&t.MonthlyCallsTarget, &collections, &t.CreatedAt)
	if err != nil {
		return t, fmt.Errorf("failed scanning target: %w", err)
	}
	t.MonthlyCollectionsTarget = nullFloat(collections)
	return t, nil
}

// FetchTargets returns all target rows of the given telecallers, oldest first.
func (s *Store) FetchTargets(ctx context.Context, tenantID string, telecallerIDs []string) ([]models.Target, error) {
	targets, err := fetchChunked(ctx, s, database.TableTargets, telecallerIDs, func(args []any) *entsql.Selector {
		b := s.builder()
		return b.Select(targetColumns...).From(b.Table(database.TableTargets)).
			Where(entsql.And(entsql.EQ("tenant_id", tenantID), entsql.In("telecaller_id", args...)))
	}, scanTarget)
	if err != nil {
		return targets, fmt.Errorf("failed fetching targets: %w", err)
	}
	return targets, nil
}

// LatestTargets keeps the most recent target row per telecaller.
func LatestTargets(targets []models.Target) map[string]models.Target {
	out := make(map[string]models.Target, len(targets))
	for _, t := range targets {
		cur, ok := out[t.TelecallerID]
		if !ok || t.CreatedAt.After(cur.CreatedAt) || (t.CreatedAt.Equal(cur.CreatedAt) && t.ID > cur.ID) {
			out[t.TelecallerID] = t
		}
	}
	return out
}

// InsertTarget stores a new target row.
func (s *Store) InsertTarget(ctx context.Context, t *models.Target) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.timestamp()
	}
	q, args := s.builder().Insert(database.TableTargets).
		Columns(targetColumns...).
		Values(t.ID, t.TenantID, t.TelecallerID, t.DailyCallsTarget, t.WeeklyCallsTarget,
			t.MonthlyCallsTarget, optFloat(t.MonthlyCollectionsTarget), t.CreatedAt.UTC()).
		Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		return fmt.Errorf("failed inserting target: %w", err)
	}
	return nil
}
