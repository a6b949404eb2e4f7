package mock

import (
	"context"
	"errors"

	"aqueduct/internal/adaptor"
	"aqueduct/pkg/models"
)

// WarehouseClient replays a fixed result table for any query.
type WarehouseClient struct {
	Result  *models.Table
	Queries []string
	Err     error
}

// NewWarehouse creates a mock warehouse returning the given table and a
// factory bound to it.
func NewWarehouse(result *models.Table) (*WarehouseClient, adaptor.WarehouseClientFactory) {
	client := &WarehouseClient{Result: result}
	factory := func(ctx context.Context, projectID string) (adaptor.WarehouseClient, error) {
		return client, nil
	}
	return client, factory
}

// Query of WarehouseClient records the SQL and returns the fixed result
func (x *WarehouseClient) Query(ctx context.Context, sql string) (*models.Table, error) {
	x.Queries = append(x.Queries, sql)
	if x.Err != nil {
		return nil, x.Err
	}
	if x.Result == nil {
		return nil, errors.New("no result configured")
	}
	return x.Result, nil
}

// Close of WarehouseClient does nothing
func (x *WarehouseClient) Close() error { return nil }
