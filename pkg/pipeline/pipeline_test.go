package pipeline_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqueduct/internal/mock"
	"aqueduct/pkg/models"
	"aqueduct/pkg/pipeline"
)

const productsCSV = `product_id,product_name,price
1,"Dining Table, Oak",299.99
2,Desk Lamp,24.50
`

const ordersJSON = `[
  {
    "id": 1,
    "customer_id": 10,
    "credit_card": null,
    "order_date": "3/5/2025",
    "delivery_date": null,
    "product": {
      "product_id": 2,
      "quantity": 3
    }
  },
  {
    "id": 2,
    "customer_id": 11,
    "credit_card": "4111-1111-1111-1111",
    "order_date": "12/31/2024",
    "delivery_date": "1/2/2025",
    "product": {
      "product_id": 1,
      "quantity": 1
    }
  }
]`

type testRun struct {
	s3        *mock.S3Client
	warehouse *mock.WarehouseClient
	rdb       *mock.RDBClient
	args      *pipeline.Arguments
}

func customersExtract() *models.Table {
	table := models.NewTable(models.Schema{
		{Name: "id", Type: models.ColumnTypeInt64},
		{Name: "email", Type: models.ColumnTypeUTF8},
		{Name: "load_date", Type: models.ColumnTypeTimestamp},
	})
	table.Records = []models.Record{
		{int64(10), "a@example.com", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{int64(11), "b@example.com", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
	}
	return table
}

func newTestRun(t *testing.T) *testRun {
	t.Helper()

	s3Client, newS3 := mock.NewS3Store()
	whClient, newWarehouse := mock.NewWarehouse(customersExtract())
	rdbClient, newRDB := mock.NewRDB()

	args := &pipeline.Arguments{
		Config: pipeline.Config{
			S3Region:             "test-region",
			S3Bucket:             "pipeline",
			PostgresDSN:          "postgres://test",
			BigQueryProjectID:    "test-project",
			BigQueryDatasetTable: "test-project.shop.customers",
		},
		NewS3:        newS3,
		NewWarehouse: newWarehouse,
		NewRDB:       newRDB,
	}

	return &testRun{s3: s3Client, warehouse: whClient, rdb: rdbClient, args: args}
}

func (x *testRun) seedRawData() {
	x.s3.Seed("pipeline", models.DatasetProducts.RawKey(), []byte(productsCSV))
	x.s3.Seed("pipeline", models.DatasetOrders.RawKey(), []byte(ordersJSON))
}

func TestPipelineRun(t *testing.T) {
	run := newTestRun(t)
	run.seedRawData()

	var succeeded, failed bool
	p := pipeline.New(run.args)
	p.OnSuccess = func(pipeline.Result) { succeeded = true }
	p.OnFailure = func(pipeline.Result) { failed = true }

	result := p.Run(context.Background())
	require.True(t, result.Ok(), result.Status())
	assert.Equal(t, "SUCCESS", result.Status())
	assert.True(t, succeeded)
	assert.False(t, failed)

	// extract queried the configured warehouse table and appended customers
	require.Len(t, run.warehouse.Queries, 1)
	assert.Contains(t, run.warehouse.Queries[0], "`test-project.shop.customers`")

	customers := run.rdb.Tables["customers"]
	require.NotNil(t, customers)
	assert.Equal(t, []string{"id", "email", "load_date"}, customers.Columns)
	assert.Len(t, customers.Rows, 2)

	// products pass through with the batch load timestamp appended
	products := run.rdb.Tables["products"]
	require.NotNil(t, products)
	assert.Equal(t, []string{"product_id", "product_name", "price", "load_timestamp"}, products.Columns)
	require.Len(t, products.Rows, 2)
	assert.Equal(t, "Dining Table, Oak", products.Rows[0][1])
	assert.Equal(t, "24.50", products.Rows[1][2])
	assert.IsType(t, time.Time{}, products.Rows[0][3])

	// orders are flattened and derived per rule set
	orders := run.rdb.Tables["orders"]
	require.NotNil(t, orders)
	assert.Equal(t, []string{
		"id", "customer_id", "credit_card", "order_date", "delivery_date",
		"cash_or_card", "is_delivered", "product_id", "quantity_product",
		"load_timestamp",
	}, orders.Columns)
	require.Len(t, orders.Rows, 2)

	first := orders.Rows[0]
	assert.Equal(t, int64(1), first[0])
	assert.Equal(t, int64(10), first[1])
	assert.Nil(t, first[2])
	assert.Equal(t, "2025-03-05", first[3])
	assert.Nil(t, first[4])
	assert.Equal(t, "cash", first[5])
	assert.Equal(t, int64(0), first[6])
	assert.Equal(t, int64(2), first[7])
	assert.Equal(t, int64(3), first[8])

	second := orders.Rows[1]
	assert.Equal(t, "2024-12-31", second[3])
	assert.Equal(t, "2025-01-02", second[4])
	assert.Equal(t, "card", second[5])
	assert.Equal(t, int64(1), second[6])

	// both rows carry the same batch timestamp
	assert.Equal(t, first[9], second[9])
}

func TestPipelineRunIsRepeatable(t *testing.T) {
	run := newTestRun(t)
	run.seedRawData()

	p := pipeline.New(run.args)
	require.True(t, p.Run(context.Background()).Ok())
	require.True(t, p.Run(context.Background()).Ok())

	// replace policy keeps one batch and exactly one artifact per dataset
	assert.Len(t, run.rdb.Tables["products"].Rows, 2)
	assert.Len(t, run.rdb.Tables["orders"].Rows, 2)

	var artifacts []string
	for _, key := range run.s3.Keys("pipeline") {
		if strings.HasSuffix(key, models.ParquetSuffix) {
			artifacts = append(artifacts, key)
		}
	}
	assert.Len(t, artifacts, 2)

	// append policy accumulates across runs
	assert.Len(t, run.rdb.Tables["customers"].Rows, 4)
}

func TestPipelineStopsAtFirstFailure(t *testing.T) {
	run := newTestRun(t)
	// orders.json is missing on purpose
	run.s3.Seed("pipeline", models.DatasetProducts.RawKey(), []byte(productsCSV))

	var failure pipeline.Result
	p := pipeline.New(run.args)
	p.OnFailure = func(r pipeline.Result) { failure = r }

	result := p.Run(context.Background())
	require.False(t, result.Ok())
	assert.Equal(t, "transform-orders", result.Stage)
	assert.Equal(t, models.ReadFailure, result.Kind)
	assert.True(t, strings.HasPrefix(result.Status(), "FAILED: transform-orders:"), result.Status())
	assert.Equal(t, result, failure)

	// downstream load stages never ran
	assert.Nil(t, run.rdb.Tables["products"])
	assert.Nil(t, run.rdb.Tables["orders"])

	// the extract stage before the failure did run
	assert.NotNil(t, run.rdb.Tables["customers"])
}

func TestPipelineExtractFailure(t *testing.T) {
	run := newTestRun(t)
	run.seedRawData()
	run.warehouse.Err = assert.AnError

	result := pipeline.New(run.args).Run(context.Background())
	require.False(t, result.Ok())
	assert.Equal(t, "extract-customers", result.Stage)
	assert.Equal(t, models.ReadFailure, result.Kind)
}

func TestBuildStageOrder(t *testing.T) {
	stages := pipeline.BuildStages(newTestRun(t).args)

	var names []string
	for _, s := range stages {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{
		"extract-customers",
		"transform-products",
		"transform-orders",
		"load-products",
		"load-orders",
	}, names)
}
