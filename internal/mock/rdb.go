package mock

import (
	"context"
	"fmt"
	"strings"

	"aqueduct/internal/adaptor"
)

// RDBTable is the in-memory image of one relational table.
type RDBTable struct {
	Columns []string
	Rows    [][]interface{}
}

// RDBClient is an in-memory adaptor.RDBClient. It understands only the DDL
// shapes the loader emits (DROP TABLE IF EXISTS, CREATE TABLE [IF NOT EXISTS]).
type RDBClient struct {
	Tables     map[string]*RDBTable
	Statements []string
	ExecErr    error
	CopyErr    error
}

// NewRDB creates an in-memory relational store and a factory bound to it.
func NewRDB() (*RDBClient, adaptor.RDBClientFactory) {
	client := &RDBClient{Tables: map[string]*RDBTable{}}
	factory := func(ctx context.Context, dsn string) (adaptor.RDBClient, error) {
		return client, nil
	}
	return client, factory
}

// Exec of RDBClient applies recognized DDL to the in-memory tables
func (x *RDBClient) Exec(ctx context.Context, sql string) error {
	x.Statements = append(x.Statements, sql)
	if x.ExecErr != nil {
		return x.ExecErr
	}

	name := quotedIdent(sql)

	switch {
	case strings.HasPrefix(sql, "DROP TABLE IF EXISTS"):
		delete(x.Tables, name)
	case strings.HasPrefix(sql, "CREATE TABLE IF NOT EXISTS"):
		if _, ok := x.Tables[name]; !ok {
			x.Tables[name] = &RDBTable{}
		}
	case strings.HasPrefix(sql, "CREATE TABLE"):
		if _, ok := x.Tables[name]; ok {
			return fmt.Errorf("table already exists: %s", name)
		}
		x.Tables[name] = &RDBTable{}
	default:
		return fmt.Errorf("unsupported statement: %s", sql)
	}

	return nil
}

// CopyFrom of RDBClient appends rows to an existing table
func (x *RDBClient) CopyFrom(ctx context.Context, table string, columns []string, rows [][]interface{}) (int64, error) {
	if x.CopyErr != nil {
		return 0, x.CopyErr
	}

	tbl, ok := x.Tables[table]
	if !ok {
		return 0, fmt.Errorf("table does not exist: %s", table)
	}

	if len(tbl.Columns) == 0 {
		tbl.Columns = columns
	}
	tbl.Rows = append(tbl.Rows, rows...)

	return int64(len(rows)), nil
}

// Close of RDBClient does nothing
func (x *RDBClient) Close() {}

func quotedIdent(sql string) string {
	start := strings.Index(sql, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(sql[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return sql[start+1 : start+1+end]
}
