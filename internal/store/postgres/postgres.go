// Package postgres provides a PostgreSQL-backed RecordStore over the pgx
// stdlib driver, with schema managed by embedded goose migrations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/avoronov/harvest/internal/common"
	"github.com/avoronov/harvest/internal/dbx"
	"github.com/avoronov/harvest/internal/models"
	"github.com/avoronov/harvest/internal/store"
	"github.com/avoronov/harvest/internal/store/postgres/migrations"
)

const defaultPageSize = 50

const itemColumns = `id, kind, display_name, locator, size_bytes, media_type, status, anonymize, blob_key, error_detail, created_at, updated_at`

// RecordStore implements store.RecordStore over *sql.DB. Every statement is
// scoped to one collection, so separate collections sharing a database never
// see each other's items.
type RecordStore struct {
	db         *sql.DB
	collection string

	// now is a test seam.
	now func() time.Time
}

// New constructs a RecordStore bound to the given database handle and
// collection.
func New(db *sql.DB, collection string) *RecordStore {
	return &RecordStore{db: db, collection: collection, now: time.Now}
}

// Open connects to the database by DSN, runs pending migrations, and returns
// a ready RecordStore scoped to the given collection.
func Open(ctx context.Context, dsn, collection string) (*RecordStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	s := New(db, collection)
	if err := s.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return s, nil
}

// RunMigrations applies the embedded goose migrations.
func (s *RecordStore) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, s.db, "."); err != nil {
		return err
	}

	return nil
}

// Close closes the underlying database handle.
func (s *RecordStore) Close() error {
	return s.db.Close()
}

func (s *RecordStore) Create(ctx context.Context, item *models.ContentItem) (*models.ContentItem, error) {
	stored := *item
	stored.ID = uuid.NewString()
	stored.ProcessingState = models.StatePending
	now := s.now()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	query := `
		INSERT INTO content_items (collection, ` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := s.db.ExecContext(ctx, query,
		s.collection,
		stored.ID, stored.Kind, stored.DisplayName, stored.Locator, stored.SizeBytes,
		stored.MediaType, stored.ProcessingState, stored.Anonymize, stored.BlobKey,
		stored.ErrorDetail, stored.CreatedAt, stored.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &stored, nil
}

// Update applies the patch in a read-modify-write transaction so the patch
// semantics (error detail lifecycle, timestamp refresh) stay identical to
// the in-memory application.
func (s *RecordStore) Update(ctx context.Context, id string, patch models.ItemPatch) (*models.ContentItem, error) {
	var updated *models.ContentItem

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+itemColumns+` FROM content_items WHERE id=$1 AND collection=$2 FOR UPDATE`, id, s.collection)
		item, err := scanItem(row)
		if err != nil {
			return err
		}

		patch.Apply(item, s.now())

		query := `
			UPDATE content_items
			SET display_name=$2, locator=$3, status=$4, anonymize=$5, error_detail=$6, updated_at=$7
			WHERE id=$1;
		`
		if _, err := tx.ExecContext(ctx, query,
			item.ID, item.DisplayName, item.Locator, item.ProcessingState,
			item.Anonymize, item.ErrorDetail, item.UpdatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM content_items WHERE id=$1 AND collection=$2`, id, s.collection)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (s *RecordStore) Get(ctx context.Context, id string) (*models.ContentItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM content_items WHERE id=$1 AND collection=$2`, id, s.collection)
	return scanItem(row)
}

// Query returns one page of items, newest first unless q.Ascending is set,
// using (created_at, id) keyset pagination anchored at q.AfterID.
func (s *RecordStore) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	where = append(where, "collection="+arg(s.collection))
	if q.Kind != nil {
		where = append(where, "kind="+arg(*q.Kind))
	}
	if q.State != nil {
		where = append(where, "status="+arg(*q.State))
	}
	cmp, order := "<", "DESC"
	if q.Ascending {
		cmp, order = ">", "ASC"
	}
	if q.AfterID != "" {
		cursor := arg(q.AfterID)
		where = append(where, fmt.Sprintf(`(created_at, id) %s (SELECT created_at, id FROM content_items WHERE id=%s)`, cmp, cursor))
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}

	query := `SELECT ` + itemColumns + ` FROM content_items`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at %s, id %s LIMIT %s", order, order, arg(limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select items: %w", err)
	}
	defer rows.Close()

	page := &store.Page{}
	for rows.Next() {
		var item models.ContentItem
		if err := scanInto(rows, &item); err != nil {
			return nil, err
		}
		page.Items = append(page.Items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if n := len(page.Items); n > 0 {
		page.LastID = page.Items[n-1].ID
		page.HasMore = n == limit
	}
	return page, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanItem(row *sql.Row) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := scanInto(row, &item); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, err
	}
	return &item, nil
}

func scanInto(row scannable, item *models.ContentItem) error {
	return row.Scan(
		&item.ID, &item.Kind, &item.DisplayName, &item.Locator, &item.SizeBytes,
		&item.MediaType, &item.ProcessingState, &item.Anonymize, &item.BlobKey,
		&item.ErrorDetail, &item.CreatedAt, &item.UpdatedAt,
	)
}
