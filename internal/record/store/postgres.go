package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"provena/internal/record"
	"provena/pkg/domain"
	"provena/pkg/platform/sentinel"
)

// Postgres persists version chains in the record_versions table. A partial
// unique index on (entity_id) WHERE tag = 'CURRENT' backs the single-current
// invariant at the storage layer.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const versionColumns = `entity_id, entity_type, version, tag, attributes,
	changed_fields, change_reason, previous_version, updated_at, updated_by`

func (s *Postgres) GetCurrent(ctx context.Context, entityID domain.EntityID) (*record.Version, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+versionColumns+`
		FROM record_versions
		WHERE entity_id = $1 AND tag = $2`,
		entityID.String(), string(record.TagCurrent))
	if err != nil {
		return nil, fmt.Errorf("query current version: %w", err)
	}
	defer rows.Close()

	var current *record.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		if current != nil {
			return nil, sentinel.ErrIntegrity
		}
		current = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read current version: %w", err)
	}
	if current == nil {
		return nil, sentinel.ErrNotFound
	}
	return current, nil
}

func (s *Postgres) GetVersion(ctx context.Context, entityID domain.EntityID, version int64) (*record.Version, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+versionColumns+`
		FROM record_versions
		WHERE entity_id = $1 AND version = $2`,
		entityID.String(), version)

	v, err := scanVersion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (s *Postgres) ListVersions(ctx context.Context, entityID domain.EntityID) ([]*record.Version, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+versionColumns+`
		FROM record_versions
		WHERE entity_id = $1
		ORDER BY version ASC`,
		entityID.String())
	if err != nil {
		return nil, fmt.Errorf("query version history: %w", err)
	}
	defer rows.Close()

	var chain []*record.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		chain = append(chain, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read version history: %w", err)
	}
	if len(chain) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return chain, nil
}

func (s *Postgres) InsertFirst(ctx context.Context, version *record.Version) error {
	err := s.insert(ctx, s.pool, version)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	return err
}

func (s *Postgres) CommitSuccessor(ctx context.Context, current, next *record.Version) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin commit: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// The retire is conditional on the tag still being CURRENT. Zero rows
	// means another writer superseded this version first.
	tag, err := tx.Exec(ctx, `
		UPDATE record_versions
		SET tag = $1
		WHERE entity_id = $2 AND version = $3 AND tag = $4`,
		string(record.TagHistorical), current.EntityID.String(),
		current.Version, string(record.TagCurrent))
	if err != nil {
		return fmt.Errorf("retire current version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrStaleVersion
	}

	if err := s.insert(ctx, tx, next); err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrStaleVersion
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit successor: %w", err)
	}
	return nil
}

// execer covers both the pool and an open transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Postgres) insert(ctx context.Context, q execer, v *record.Version) error {
	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	_, err = q.Exec(ctx, `
		INSERT INTO record_versions (`+versionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		v.EntityID.String(), string(v.EntityType), v.Version, string(v.Tag),
		attrs, v.ChangedFields, v.ChangeReason, v.PreviousVersion,
		v.UpdatedAt, v.UpdatedBy.String())
	if err != nil {
		return fmt.Errorf("insert version: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*record.Version, error) {
	var (
		v          record.Version
		entityID   string
		entityType string
		tag        string
		attrs      []byte
		updatedBy  string
	)
	err := row.Scan(&entityID, &entityType, &v.Version, &tag, &attrs,
		&v.ChangedFields, &v.ChangeReason, &v.PreviousVersion,
		&v.UpdatedAt, &updatedBy)
	if err != nil {
		return nil, err
	}

	v.EntityID, err = domain.ParseEntityID(entityID)
	if err != nil {
		return nil, fmt.Errorf("scan entity id: %w", err)
	}
	v.UpdatedBy, err = domain.ParseActorID(updatedBy)
	if err != nil {
		return nil, fmt.Errorf("scan updated_by: %w", err)
	}
	v.EntityType = record.EntityType(entityType)
	v.Tag = record.Tag(tag)

	if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return &v, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
