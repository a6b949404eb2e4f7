package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"aqueduct/internal/adaptor"
	"aqueduct/pkg/models"
)

// RDBService writes whole batches into relational tables under a load
// policy. One client is created per call and released on all paths.
type RDBService struct {
	newClient adaptor.RDBClientFactory
	dsn       string
}

// NewRDBService is constructor of RDBService
func NewRDBService(newClient adaptor.RDBClientFactory, dsn string) *RDBService {
	return &RDBService{
		newClient: newClient,
		dsn:       dsn,
	}
}

// WriteTable bulk-writes all records of a table in one operation.
// PolicyReplace drops and recreates the target from the batch's schema;
// PolicyAppend creates the target only when missing and adds rows.
func (x *RDBService) WriteTable(ctx context.Context, name string, table *models.Table, policy models.LoadPolicy) error {
	client, err := x.newClient(ctx, x.dsn)
	if err != nil {
		return errors.Wrap(err, "Fail to connect relational store")
	}
	defer client.Close()

	switch policy {
	case models.PolicyReplace:
		if err := client.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name))); err != nil {
			return errors.Wrapf(err, "Fail to drop table: %s", name)
		}
		if err := client.Exec(ctx, createTableSQL(name, table.Schema, false)); err != nil {
			return errors.Wrapf(err, "Fail to create table: %s", name)
		}

	case models.PolicyAppend:
		if err := client.Exec(ctx, createTableSQL(name, table.Schema, true)); err != nil {
			return errors.Wrapf(err, "Fail to ensure table: %s", name)
		}

	default:
		return errors.Errorf("Unsupported load policy: %s", policy)
	}

	n, err := client.CopyFrom(ctx, name, table.Schema.Names(), table.Rows())
	if err != nil {
		return errors.Wrapf(err, "Fail to bulk-write table: %s", name)
	}

	logger.WithFields(logrus.Fields{
		"table":  name,
		"policy": policy,
		"rows":   n,
	}).Info("Loaded table")

	return nil
}

func createTableSQL(name string, schema models.Schema, ifNotExists bool) string {
	defs := make([]string, len(schema))
	for i, col := range schema {
		defs[i] = quoteIdent(col.Name) + " " + sqlType(col.Type)
	}

	stmt := "CREATE TABLE "
	if ifNotExists {
		stmt = "CREATE TABLE IF NOT EXISTS "
	}
	return stmt + quoteIdent(name) + " (" + strings.Join(defs, ", ") + ")"
}

func sqlType(t models.ColumnType) string {
	switch t {
	case models.ColumnTypeInt64:
		return "BIGINT"
	case models.ColumnTypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
