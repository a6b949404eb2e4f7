package adaptor

import (
	"context"

	"cloud.google.com/go/bigquery"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"aqueduct/pkg/models"
)

// WarehouseClient issues one parametrized query and returns the fully
// materialized tabular result.
type WarehouseClient interface {
	Query(ctx context.Context, sql string) (*models.Table, error)
	Close() error
}

// WarehouseClientFactory is interface of WarehouseClient constructor
type WarehouseClientFactory func(ctx context.Context, projectID string) (WarehouseClient, error)

// NewBigQueryClient creates a WarehouseClient backed by BigQuery.
func NewBigQueryClient(ctx context.Context, projectID string) (WarehouseClient, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, errors.Wrapf(err, "Fail to create BigQuery client: %s", projectID)
	}
	return &bigQueryClient{client: client}, nil
}

type bigQueryClient struct {
	client *bigquery.Client
}

func (x *bigQueryClient) Query(ctx context.Context, sql string) (*models.Table, error) {
	it, err := x.client.Query(sql).Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to run warehouse query")
	}

	var table *models.Table
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "Fail to read warehouse result row")
		}

		if table == nil {
			table = models.NewTable(toSchema(it.Schema))
		}

		rec := make(models.Record, len(table.Schema))
		for i := range table.Schema {
			if i < len(row) {
				rec[i] = models.CoerceValue(table.Schema[i].Type, row[i])
			}
		}
		if err := table.Append(rec); err != nil {
			return nil, errors.Wrap(err, "Fail to append warehouse result row")
		}
	}

	if table == nil {
		table = models.NewTable(toSchema(it.Schema))
	}
	return table, nil
}

func (x *bigQueryClient) Close() error {
	return x.client.Close()
}

func toSchema(schema bigquery.Schema) models.Schema {
	out := make(models.Schema, 0, len(schema))
	for _, field := range schema {
		col := models.Column{Name: field.Name}
		switch field.Type {
		case bigquery.IntegerFieldType:
			col.Type = models.ColumnTypeInt64
		case bigquery.TimestampFieldType:
			col.Type = models.ColumnTypeTimestamp
		default:
			col.Type = models.ColumnTypeUTF8
		}
		out = append(out, col)
	}
	return out
}
