package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sells-group/buyer-dedupe/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. List fields are
// stored as JSON text.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS buyers (
	owner_id       TEXT NOT NULL,
	id             TEXT NOT NULL,
	name           TEXT NOT NULL DEFAULT '',
	email          TEXT NOT NULL DEFAULT '',
	phone          TEXT NOT NULL DEFAULT '',
	company_name   TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	state          TEXT NOT NULL DEFAULT '',
	markets        TEXT,
	property_types TEXT,
	strategies     TEXT,
	min_budget     INTEGER,
	max_budget     INTEGER,
	notes          TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	tags           TEXT,
	priority       TEXT NOT NULL DEFAULT '',
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (owner_id, id)
);

CREATE INDEX IF NOT EXISTS idx_buyers_owner_created ON buyers(owner_id, created_at, id);
CREATE INDEX IF NOT EXISTS idx_buyers_owner_email ON buyers(owner_id, email);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var (
	sqliteSelect = `SELECT ` + strings.Join(buyerColumns, ", ") + ` FROM buyers`
	sqliteInsert = `INSERT INTO buyers (` + strings.Join(buyerColumns, ", ") + `) VALUES (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(buyerColumns)), ", ") + `)`
	sqliteUpdate = `UPDATE buyers SET name = ?, email = ?, phone = ?, company_name = ?, city = ?, state = ?,
		markets = ?, property_types = ?, strategies = ?, min_budget = ?, max_budget = ?,
		notes = ?, source = ?, tags = ?, priority = ?, updated_at = ?
		WHERE owner_id = ? AND id = ?`
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) CreateBuyer(ctx context.Context, b model.Buyer) error {
	if err := requireKey(b); err != nil {
		return err
	}
	args, err := sqliteArgs(b)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqliteInsert, args...); err != nil {
		if isSQLiteKeyViolation(err) {
			return conflict(b.OwnerID, b.ID)
		}
		return eris.Wrapf(err, "sqlite: insert buyer %s", b.ID)
	}
	return nil
}

func isSQLiteKeyViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

func (s *SQLiteStore) UpdateBuyer(ctx context.Context, b model.Buyer) error {
	return updateSQLite(ctx, s.db, b)
}

func updateSQLite(ctx context.Context, ex execer, b model.Buyer) error {
	args, err := sqliteArgs(b)
	if err != nil {
		return err
	}
	// name..priority, then updated_at, then the key.
	update := make([]any, 0, len(args)-1)
	update = append(update, args[2:17]...)
	update = append(update, args[18], b.OwnerID, b.ID)

	res, err := ex.ExecContext(ctx, sqliteUpdate, update...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update buyer %s", b.ID)
	}
	return checkRowsAffected(res, b.OwnerID, b.ID)
}

func (s *SQLiteStore) GetBuyer(ctx context.Context, ownerID, id string) (*model.Buyer, error) {
	row := s.db.QueryRowContext(ctx, sqliteSelect+` WHERE owner_id = ? AND id = ?`, ownerID, id)
	b, err := scanSQLiteBuyer(row)
	if err == sql.ErrNoRows {
		return nil, notFound(ownerID, id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get buyer %s", id)
	}
	return b, nil
}

func (s *SQLiteStore) ListBuyers(ctx context.Context, filter BuyerFilter) ([]model.Buyer, error) {
	query := sqliteSelect + ` WHERE owner_id = ? ORDER BY created_at, id`
	args := []any{filter.OwnerID}

	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list buyers")
	}
	defer rows.Close() //nolint:errcheck

	var buyers []model.Buyer
	for rows.Next() {
		b, err := scanSQLiteBuyer(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan buyer")
		}
		buyers = append(buyers, *b)
	}
	return buyers, eris.Wrap(rows.Err(), "sqlite: list buyers iterate")
}

func (s *SQLiteStore) DeleteBuyer(ctx context.Context, ownerID, id string) error {
	return deleteSQLite(ctx, s.db, ownerID, id)
}

func deleteSQLite(ctx context.Context, ex execer, ownerID, id string) error {
	res, err := ex.ExecContext(ctx, `DELETE FROM buyers WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete buyer %s", id)
	}
	return checkRowsAffected(res, ownerID, id)
}

func (s *SQLiteStore) ApplyMerge(ctx context.Context, merged model.Buyer, secondaryID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin merge")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := updateSQLite(ctx, tx, merged); err != nil {
		return err
	}
	if err := deleteSQLite(ctx, tx, merged.OwnerID, secondaryID); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit merge")
}

func (s *SQLiteStore) ImportBuyers(ctx context.Context, buyers []model.Buyer) (int64, error) {
	if len(buyers) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin import")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, strings.Replace(sqliteInsert, "INSERT INTO", "INSERT OR REPLACE INTO", 1))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare import")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, b := range buyers {
		if err := requireKey(b); err != nil {
			return 0, err
		}
		args, err := sqliteArgs(b)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: import buyer %s", b.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit import")
	}
	return n, nil
}

// helpers

func checkRowsAffected(res sql.Result, ownerID, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return notFound(ownerID, id)
	}
	return nil
}

// sqliteArgs returns values in buyerColumns order.
func sqliteArgs(b model.Buyer) ([]any, error) {
	lists := make([]sql.NullString, 4)
	for i, l := range [][]string{b.Markets, b.PropertyTypes, b.Strategies, b.Tags} {
		v, err := encodeList(l)
		if err != nil {
			return nil, err
		}
		lists[i] = v
	}
	return []any{
		b.OwnerID, b.ID, b.Name, b.Email, b.Phone, b.CompanyName, b.City, b.State,
		lists[0], lists[1], lists[2], nullInt(b.MinBudget), nullInt(b.MaxBudget),
		b.Notes, b.Source, lists[3], b.Priority, b.CreatedAt.UTC(), b.UpdatedAt.UTC(),
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLiteBuyer(row scannable) (*model.Buyer, error) {
	var b model.Buyer
	var markets, propertyTypes, strategies, tags sql.NullString
	var minBudget, maxBudget sql.NullInt64

	err := row.Scan(
		&b.OwnerID, &b.ID, &b.Name, &b.Email, &b.Phone, &b.CompanyName, &b.City, &b.State,
		&markets, &propertyTypes, &strategies, &minBudget, &maxBudget,
		&b.Notes, &b.Source, &tags, &b.Priority, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, l := range []struct {
		raw sql.NullString
		dst *[]string
	}{
		{markets, &b.Markets},
		{propertyTypes, &b.PropertyTypes},
		{strategies, &b.Strategies},
		{tags, &b.Tags},
	} {
		if err := decodeList(l.raw, l.dst); err != nil {
			return nil, err
		}
	}
	if minBudget.Valid {
		b.MinBudget = &minBudget.Int64
	}
	if maxBudget.Valid {
		b.MaxBudget = &maxBudget.Int64
	}
	return &b, nil
}

func encodeList(l []string) (sql.NullString, error) {
	if len(l) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return sql.NullString{}, eris.Wrap(err, "sqlite: marshal list")
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeList(raw sql.NullString, dst *[]string) error {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	return eris.Wrap(json.Unmarshal([]byte(raw.String), dst), "sqlite: unmarshal list")
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
