// Package sqlstore is the relational datastore backend (MySQL or Postgres,
// including Supabase-hosted Postgres) over database/sql.
package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

const (
	defaultMaxOpenConns    = 10
	defaultConnMaxLifetime = 30 * time.Minute
)

// Store executes datastore queries with database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

var _ datastore.Client = (*Store)(nil)

// Option customises a Store.
type Option func(*Store)

// WithLogger attaches a logger for statement-level debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wraps an existing connection pool.
func New(db *sql.DB, dialect Dialect, opts ...Option) *Store {
	s := &Store{db: db, dialect: dialect, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Open connects to dsn and verifies the connection.
func Open(ctx context.Context, dialect Dialect, dsn string, opts ...Option) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, errors.New("sqlstore: dsn is required")
	}
	if dialect == MySQL {
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("sqlstore: parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		dsn = cfg.FormatDSN()
	}

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", dialect, err)
	}
	db.SetMaxOpenConns(defaultMaxOpenConns)
	db.SetConnMaxLifetime(defaultConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, wrapError("ping", err)
	}
	return New(db, dialect, opts...), nil
}

// Select implements datastore.Client.
func (s *Store) Select(ctx context.Context, q datastore.Query) (datastore.Result, error) {
	stmt, countStmt, err := Build(s.dialect, q)
	if err != nil {
		return datastore.Result{}, err
	}
	s.logger.Debug("sqlstore select", zap.String("table", q.Table), zap.String("sql", stmt.SQL))

	rows, err := s.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return datastore.Result{}, wrapError("select "+q.Table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return datastore.Result{}, wrapError("scan "+q.Table, err)
	}

	result := datastore.Result{Rows: out}
	if countStmt != nil {
		if err := s.db.QueryRowContext(ctx, countStmt.SQL, countStmt.Args...).Scan(&result.Total); err != nil {
			return datastore.Result{}, wrapError("count "+q.Table, err)
		}
	}
	return result, nil
}

// Close releases the pool.
func (s *Store) Close(context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanRows(rows *sql.Rows) ([]datastore.Row, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []datastore.Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(datastore.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func wrapError(op string, err error) error {
	return datastore.WrapError(op, err, classify(err))
}

func classify(err error) datastore.Category {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return datastore.CategoryNotFound
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, mysql.ErrInvalidConn), errors.Is(err, sql.ErrConnDone):
		return datastore.CategoryUnavailable
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1040, 1053, 1205, 1213, 2002, 2003, 2006, 2013:
			return datastore.CategoryUnavailable
		case 1062:
			return datastore.CategoryConflict
		}
		return datastore.CategoryInternal
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"),
			pgErr.Code == "57P01", pgErr.Code == "57P03", pgErr.Code == "40001", pgErr.Code == "40P01":
			return datastore.CategoryUnavailable
		case pgErr.Code == "23505":
			return datastore.CategoryConflict
		}
		return datastore.CategoryInternal
	}
	if pgconn.Timeout(err) {
		return datastore.CategoryUnavailable
	}
	return datastore.CategoryInternal
}
