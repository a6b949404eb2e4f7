package adaptor

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// RDBClient is the minimal relational store surface the loader needs:
// statement execution for DDL and a bulk row insert.
type RDBClient interface {
	Exec(ctx context.Context, sql string) error
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]interface{}) (int64, error)
	Close()
}

// RDBClientFactory is interface of RDBClient constructor
type RDBClientFactory func(ctx context.Context, dsn string) (RDBClient, error)

// NewPostgresClient creates an RDBClient backed by a pgx connection pool.
func NewPostgresClient(ctx context.Context, dsn string) (RDBClient, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to create postgres pool")
	}
	return &postgresClient{pool: pool}, nil
}

type postgresClient struct {
	pool *pgxpool.Pool
}

func (x *postgresClient) Exec(ctx context.Context, sql string) error {
	if _, err := x.pool.Exec(ctx, sql); err != nil {
		return errors.Wrapf(err, "Fail to exec statement: %s", sql)
	}
	return nil
}

func (x *postgresClient) CopyFrom(ctx context.Context, table string, columns []string, rows [][]interface{}) (int64, error) {
	n, err := x.pool.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, errors.Wrapf(err, "Fail to copy rows into %s", table)
	}
	return n, nil
}

func (x *postgresClient) Close() {
	x.pool.Close()
}
