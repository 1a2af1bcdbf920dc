package store

import (
	"context"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/recoverydesk/pkg/database"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

var teamColumns = []string{
	"id", "tenant_id", "name", "product_name", "team_incharge_id", "status", "created_at", "updated_at",
}

func scanTeam(rows *entsql.Rows) (models.Team, error) {
	var (
		t        models.Team
		incharge entsql.NullString
	)
	if err := rows.Scan(&t.ID, &t.TenantID, &t.Name, &t.ProductName, &incharge, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return t, fmt.Errorf("failed scanning team: %w", err)
	}
	t.TeamInchargeID = nullString(incharge)
	return t, nil
}

func (s *Store) selectTeams(preds ...*entsql.Predicate) *entsql.Selector {
	b := s.builder()
	return b.Select(teamColumns...).From(b.Table(database.TableTeams)).Where(entsql.And(preds...))
}

// GetTeam returns one team of the tenant.
func (s *Store) GetTeam(ctx context.Context, tenantID, teamID string) (models.Team, error) {
	t, err := getOne(ctx, s, s.selectTeams(entsql.EQ("tenant_id", tenantID), entsql.EQ("id", teamID)), scanTeam)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return t, fmt.Errorf("failed getting team %s: %w", teamID, err)
	}
	return t, err
}

// ListTeams returns every team of the tenant.
func (s *Store) ListTeams(ctx context.Context, tenantID string) ([]models.Team, error) {
	teams, err := fetchAll(ctx, s, database.TableTeams, func() *entsql.Selector {
		return s.selectTeams(entsql.EQ("tenant_id", tenantID))
	}, scanTeam)
	if err != nil {
		return teams, fmt.Errorf("failed listing teams: %w", err)
	}
	return teams, nil
}

// ListTenants returns the distinct tenant ids that own at least one team.
func (s *Store) ListTenants(ctx context.Context) ([]string, error) {
	page := func(ctx context.Context, limit, offset int) ([]string, error) {
		b := s.builder()
		sel := b.Select("tenant_id").Distinct().From(b.Table(database.TableTeams)).
			OrderBy("tenant_id").Limit(limit).Offset(offset)
		var out []string
		err := s.query(ctx, sel, func(rows *entsql.Rows) error {
			var id string
			if err := rows.Scan(&id); err != nil {
				return err
			}
			out = append(out, id)
			return nil
		})
		return out, err
	}
	tenants, err := FetchAll(ctx, s.pageSize, observe(s, database.TableTeams, page))
	if err != nil {
		return tenants, fmt.Errorf("failed listing tenants: %w", err)
	}
	return tenants, nil
}

// InsertTeam stores a new team.
func (s *Store) InsertTeam(ctx context.Context, t *models.Team) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = models.StatusActive
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = s.timestamp()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	q, args := s.builder().Insert(database.TableTeams).
		Columns(teamColumns...).
		Values(t.ID, t.TenantID, t.Name, t.ProductName, optString(t.TeamInchargeID), t.Status, t.CreatedAt.UTC(), t.UpdatedAt.UTC()).
		Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		return fmt.Errorf("failed inserting team: %w", err)
	}
	return nil
}
