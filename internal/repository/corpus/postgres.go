package corpus

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kailas-cloud/soclens/internal/domain"
	"github.com/kailas-cloud/soclens/internal/domain/incident"
)

// querier is the subset of pgxpool.Pool the loader needs.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var _ querier = (*pgxpool.Pool)(nil)

// PostgresLoader reads the corpus from a table. Column names follow the CSV headers.
type PostgresLoader struct {
	pool   querier
	table  string
	logger *zap.Logger
}

// NewPostgresLoader creates a loader over table.
func NewPostgresLoader(pool querier, table string, logger *zap.Logger) *PostgresLoader {
	return &PostgresLoader{pool: pool, table: table, logger: logger}
}

// Load selects every row of the table.
func (l *PostgresLoader) Load(ctx context.Context) (incident.Corpus, error) {
	sql := "SELECT * FROM " + pgx.Identifier{l.table}.Sanitize()
	rows, err := l.pool.Query(ctx, sql)
	if err != nil {
		return incident.Corpus{}, fmt.Errorf("%w: query %s: %w", domain.ErrCorpusUnavailable, l.table, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Name
	}

	var out []row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return incident.Corpus{}, fmt.Errorf("%w: scan row: %w", domain.ErrCorpusUnavailable, err)
		}
		rw := make(row, len(headers))
		for i, h := range headers {
			rw[h] = nativeValue(values[i])
		}
		out = append(out, rw)
	}
	if err := rows.Err(); err != nil {
		return incident.Corpus{}, fmt.Errorf("%w: iterate rows: %w", domain.ErrCorpusUnavailable, err)
	}

	return build("postgres:"+l.table, headers, out, l.logger), nil
}

// OpenPool creates a pgx pool and verifies connectivity.
func OpenPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// nativeValue unwraps NUMERIC columns, which pgx decodes as pgtype.Numeric.
func nativeValue(v any) any {
	n, ok := v.(pgtype.Numeric)
	if !ok {
		return v
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return nil
	}
	return f.Float64
}
