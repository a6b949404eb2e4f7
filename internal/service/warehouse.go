package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"aqueduct/internal/adaptor"
	"aqueduct/pkg/models"
)

// WarehouseService materializes warehouse extracts as tables.
type WarehouseService struct {
	newClient adaptor.WarehouseClientFactory
	projectID string
}

// NewWarehouseService is constructor of WarehouseService
func NewWarehouseService(newClient adaptor.WarehouseClientFactory, projectID string) *WarehouseService {
	return &WarehouseService{
		newClient: newClient,
		projectID: projectID,
	}
}

// customersQuery reformats birthday in-warehouse and stamps load_date with
// the warehouse clock, so the append stage receives a ready-to-load result.
const customersQuery = `SELECT
    id,
    first_name,
    last_name,
    email,
    gender,
    phone,
    country,
    city,
    FORMAT_DATE('%%Y-%%m-%%d', PARSE_DATE('%%m/%%d/%%Y', birthday)) as birthday,
    company,
    department_comp,
    job,
    CURRENT_TIMESTAMP() as load_date
FROM ` + "`%s`"

// ExtractCustomers runs the customers query and returns the materialized
// result. The connection lives only for the duration of the call.
func (x *WarehouseService) ExtractCustomers(ctx context.Context, datasetTable string) (*models.Table, error) {
	client, err := x.newClient(ctx, x.projectID)
	if err != nil {
		return nil, errors.Wrap(err, "Fail to connect warehouse")
	}
	defer client.Close()

	table, err := client.Query(ctx, fmt.Sprintf(customersQuery, datasetTable))
	if err != nil {
		return nil, errors.Wrap(err, "Fail to extract customers")
	}

	logger.WithField("rows", len(table.Records)).Info("Extracted customers from warehouse")
	return table, nil
}
