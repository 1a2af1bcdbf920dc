// Package store reads and writes recovery cases, call logs, teams, employees
// and targets. All list reads go through FetchAll so no result is capped at a
// single page.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/jordanlanch/recoverydesk/pkg/logger"
)

var (
	// ErrNotFound is returned when a single-row lookup matches nothing.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned when a compare-and-swap update matched no row.
	ErrVersionConflict = errors.New("case was modified concurrently")
)

// Store is the persistence adapter. The zero value is not usable; use New.
type Store struct {
	drv      *entsql.Driver
	conn     dialect.ExecQuerier
	dialect  string
	pageSize int
	observer PageObserver
	log      logger.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize overrides DefaultPageSize.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithPageObserver registers an observer called after every page request.
func WithPageObserver(o PageObserver) Option {
	return func(s *Store) { s.observer = o }
}

// WithLogger sets the logger used for non-fatal lookup failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock sets the time source used for created_at / updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a Store on top of drv.
func New(drv *entsql.Driver, opts ...Option) *Store {
	s := &Store{
		drv:      drv,
		conn:     drv,
		dialect:  drv.Dialect(),
		pageSize: DefaultPageSize,
		log:      logger.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PageSize returns the configured page size.
func (s *Store) PageSize() int {
	return s.pageSize
}

// WithTx runs fn with a Store bound to a single transaction. The transaction
// is committed when fn returns nil and rolled back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	if s.drv == nil {
		return errors.New("store: nested transactions are not supported")
	}
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}
	txStore := *s
	txStore.drv = nil
	txStore.conn = tx

	if err := fn(&txStore); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			return fmt.Errorf("%w: rolling back transaction: %v", err, rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}
	return nil
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.dialect)
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

// query runs sel and calls scan once per row.
func (s *Store) query(ctx context.Context, sel *entsql.Selector, scan func(rows *entsql.Rows) error) error {
	q, args := sel.Query()
	rows := &entsql.Rows{}
	if err := s.conn.Query(ctx, q, args, rows); err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// exec runs a statement and returns the number of affected rows.
func (s *Store) exec(ctx context.Context, q string, args []any) (int64, error) {
	var res entsql.Result
	if err := s.conn.Exec(ctx, q, args, &res); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// observe wraps a page function so every request is reported to the observer.
func observe[T any](s *Store, source string, fetch PageFunc[T]) PageFunc[T] {
	if s.observer == nil {
		return fetch
	}
	return func(ctx context.Context, limit, offset int) ([]T, error) {
		rows, err := fetch(ctx, limit, offset)
		s.observer.ObservePage(source, len(rows), err)
		return rows, err
	}
}

// fetchAll pages through sel ordered by (created_at, id).
func fetchAll[T any](ctx context.Context, s *Store, source string, sel func() *entsql.Selector, scan func(rows *entsql.Rows) (T, error)) ([]T, error) {
	page := func(ctx context.Context, limit, offset int) ([]T, error) {
		q := sel().OrderBy("created_at", "id").Limit(limit).Offset(offset)
		out := make([]T, 0, limit)
		err := s.query(ctx, q, func(rows *entsql.Rows) error {
			v, err := scan(rows)
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return FetchAll(ctx, s.pageSize, observe(s, source, page))
}

// fetchChunked runs fetchAll once per chunk of ids and concatenates the results.
// On failure it returns what was gathered so far together with the error.
func fetchChunked[T any](ctx context.Context, s *Store, source string, ids []string, sel func(chunk []any) *entsql.Selector, scan func(rows *entsql.Rows) (T, error)) ([]T, error) {
	var all []T
	for _, c := range chunk(dedupe(ids), maxInArgs) {
		args := anys(c)
		rows, err := fetchAll(ctx, s, source, func() *entsql.Selector { return sel(args) }, scan)
		all = append(all, rows...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func nullString(ns entsql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullFloat(nf entsql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}

func nullTime(nt entsql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

func utcPtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func optString(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func optFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

// getOne runs sel limited to one row. It returns ErrNotFound when nothing matches.
func getOne[T any](ctx context.Context, s *Store, sel *entsql.Selector, scan func(rows *entsql.Rows) (T, error)) (T, error) {
	var (
		out   T
		found bool
	)
	err := s.query(ctx, sel.Limit(1), func(rows *entsql.Rows) error {
		v, err := scan(rows)
		if err != nil {
			return err
		}
		out, found = v, true
		return nil
	})
	if err != nil {
		return out, err
	}
	if !found {
		return out, ErrNotFound
	}
	return out, nil
}
