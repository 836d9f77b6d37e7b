package store

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/buyer-dedupe/internal/db"
	"github.com/sells-group/buyer-dedupe/internal/model"
)

// SQLSTATE unique_violation.
const uniqueViolation = "23505"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

var (
	pgSelect = `SELECT ` + strings.Join(buyerColumns, ", ") + ` FROM buyers`
	pgInsert = `INSERT INTO buyers (` + strings.Join(buyerColumns, ", ") + `) VALUES (` + placeholders(len(buyerColumns)) + `)`
	pgUpdate = `UPDATE buyers SET name = $1, email = $2, phone = $3, company_name = $4, city = $5, state = $6,
		markets = $7, property_types = $8, strategies = $9, min_budget = $10, max_budget = $11,
		notes = $12, source = $13, tags = $14, priority = $15, updated_at = $16
		WHERE owner_id = $17 AND id = $18`
	pgDelete = `DELETE FROM buyers WHERE owner_id = $1 AND id = $2`
)

// preparedStatements lists queries to prepare on each new connection.
var preparedStatements = map[string]string{
	"insert_buyer": pgInsert,
	"update_buyer": pgUpdate,
	"get_buyer":    pgSelect + ` WHERE owner_id = $1 AND id = $2`,
	"delete_buyer": pgDelete,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS buyers (
	owner_id       TEXT NOT NULL,
	id             TEXT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	company_name   TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	markets        TEXT[],
	property_types TEXT[],
	strategies     TEXT[],
	min_budget     BIGINT,
	max_budget     BIGINT,
	notes          TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	tags           TEXT[],
	priority       TEXT NOT NULL DEFAULT '',
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS idx_buyers_owner_created ON buyers(owner_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_buyers_owner_email ON buyers(owner_id, lower(email));
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateBuyer(ctx context.Context, b model.Buyer) error {
	if err := requireKey(b); err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, pgInsert, pgArgs(b)...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return conflict(b.OwnerID, b.ID)
		}
		return eris.Wrapf(err, "postgres: insert buyer %s", b.ID)
	}
	return nil
}

func (s *PostgresStore) UpdateBuyer(ctx context.Context, b model.Buyer) error {
	return updatePostgres(ctx, s.pool, b)
}

func updatePostgres(ctx context.Context, pool db.Pool, b model.Buyer) error {
	args := pgArgs(b)
	update := make([]any, 0, len(args)-1)
	update = append(update, args[2:17]...)
	update = append(update, args[18], b.OwnerID, b.ID)

	tag, err := pool.Exec(ctx, pgUpdate, update...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update buyer %s", b.ID)
	}
	if tag.RowsAffected() == 0 {
		return notFound(b.OwnerID, b.ID)
	}
	return nil
}

func (s *PostgresStore) GetBuyer(ctx context.Context, ownerID, id string) (*model.Buyer, error) {
	row := s.pool.QueryRow(ctx, pgSelect+` WHERE owner_id = $1 AND id = $2`, ownerID, id)
	b, err := scanPostgresBuyer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound(ownerID, id)
		}
		return nil, eris.Wrapf(err, "postgres: get buyer %s", id)
	}
	return b, nil
}

func (s *PostgresStore) ListBuyers(ctx context.Context, filter BuyerFilter) ([]model.Buyer, error) {
	query := pgSelect + ` WHERE owner_id = $1 ORDER BY created_at, id`
	args := []any{filter.OwnerID}

	if filter.Limit > 0 {
		query += ` LIMIT $2 OFFSET $3`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list buyers")
	}
	defer rows.Close()

	var buyers []model.Buyer
	for rows.Next() {
		b, err := scanPostgresBuyer(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan buyer")
		}
		buyers = append(buyers, *b)
	}
	return buyers, eris.Wrap(rows.Err(), "postgres: list buyers iterate")
}

func (s *PostgresStore) DeleteBuyer(ctx context.Context, ownerID, id string) error {
	return deletePostgres(ctx, s.pool, ownerID, id)
}

func deletePostgres(ctx context.Context, pool db.Pool, ownerID, id string) error {
	tag, err := pool.Exec(ctx, pgDelete, ownerID, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete buyer %s", id)
	}
	if tag.RowsAffected() == 0 {
		return notFound(ownerID, id)
	}
	return nil
}

func (s *PostgresStore) ApplyMerge(ctx context.Context, merged model.Buyer, secondaryID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin merge")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := updatePostgres(ctx, tx, merged); err != nil {
		return err
	}
	if err := deletePostgres(ctx, tx, merged.OwnerID, secondaryID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit merge")
}

// ImportBuyers bulk loads buyers through a temp table and upserts on (owner_id, id).
func (s *PostgresStore) ImportBuyers(ctx context.Context, buyers []model.Buyer) (int64, error) {
	rows := make([][]any, 0, len(buyers))
	for _, b := range buyers {
		if err := requireKey(b); err != nil {
			return 0, err
		}
		rows = append(rows, pgArgs(b))
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "buyers",
		Columns:      buyerColumns,
		ConflictKeys: []string{"owner_id", "id"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: import buyers")
	}
	return n, nil
}

// pgArgs returns values in buyerColumns order. pgx encodes []string as TEXT[]
// and nil pointers as NULL.
func pgArgs(b model.Buyer) []any {
	return []any{
		b.OwnerID, b.ID, b.Name, b.Email, b.Phone, b.CompanyName, b.City, b.State,
		nilIfEmpty(b.Markets), nilIfEmpty(b.PropertyTypes), nilIfEmpty(b.Strategies),
		b.MinBudget, b.MaxBudget, b.Notes, b.Source, nilIfEmpty(b.Tags), b.Priority,
		b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	}
}

func scanPostgresBuyer(row scannable) (*model.Buyer, error) {
	var b model.Buyer
	err := row.Scan(
		&b.OwnerID, &b.ID, &b.Name, &b.Email, &b.Phone, &b.CompanyName, &b.City, &b.State,
		&b.Markets, &b.PropertyTypes, &b.Strategies, &b.MinBudget, &b.MaxBudget,
		&b.Notes, &b.Source, &b.Tags, &b.Priority, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func nilIfEmpty(l []string) []string {
	if len(l) == 0 {
		return nil
	}
	return l
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(parts, ", ")
}
