package etl_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqueduct/internal/mock"
	"aqueduct/internal/service"
	"aqueduct/pkg/etl"
	"aqueduct/pkg/models"
)

func newTestLoader(t *testing.T) (*mock.RDBClient, *etl.Loader) {
	t.Helper()
	_, newS3 := mock.NewS3Store()
	rdbClient, newRDB := mock.NewRDB()
	loader := etl.NewLoader(
		service.NewS3Service(newS3),
		service.NewRDBService(newRDB, "postgres://test"),
	)
	return rdbClient, loader
}

func customersBatch(ids ...int64) *models.Table {
	table := models.NewTable(models.Schema{
		{Name: "customer_id", Type: models.ColumnTypeInt64},
		{Name: "name", Type: models.ColumnTypeUTF8},
	})
	for _, id := range ids {
		table.Records = append(table.Records, models.Record{id, "customer"})
	}
	return table
}

func TestLoadTableReplace(t *testing.T) {
	rdb, loader := newTestLoader(t)
	ctx := context.Background()

	first := customersBatch(1, 2, 3)
	require.NoError(t, loader.LoadTable(ctx, first, "orders", models.PolicyReplace))

	second := customersBatch(7)
	require.NoError(t, loader.LoadTable(ctx, second, "orders", models.PolicyReplace))

	// only the second batch survives a replace
	tbl := rdb.Tables["orders"]
	require.NotNil(t, tbl)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, int64(7), tbl.Rows[0][0])
	assert.Equal(t, []string{"customer_id", "name"}, tbl.Columns)
}

func TestLoadTableAppend(t *testing.T) {
	rdb, loader := newTestLoader(t)
	ctx := context.Background()

	require.NoError(t, loader.LoadTable(ctx, customersBatch(1, 2), "customers", models.PolicyAppend))
	require.NoError(t, loader.LoadTable(ctx, customersBatch(3), "customers", models.PolicyAppend))

	tbl := rdb.Tables["customers"]
	require.NotNil(t, tbl)
	assert.Len(t, tbl.Rows, 3)
}

func TestLoadTableExecError(t *testing.T) {
	rdb, loader := newTestLoader(t)
	rdb.ExecErr = assert.AnError

	err := loader.LoadTable(context.Background(), customersBatch(1), "orders", models.PolicyReplace)
	require.Error(t, err)
	assert.Equal(t, models.LoadFailure, models.KindOf(err))
}

func TestLoadArtifact(t *testing.T) {
	s3Client, newS3 := mock.NewS3Store()
	rdbClient, newRDB := mock.NewRDB()
	s3 := service.NewS3Service(newS3)
	loader := etl.NewLoader(s3, service.NewRDBService(newRDB, "postgres://test"))

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	table := ordersFixtureTable(ts)
	dst := models.NewS3Object("t", "pipeline", models.DatasetOrders.ArtifactPrefix())
	require.NoError(t, etl.NewWriter(s3).Write(table, dst))

	keys := s3Client.Keys("pipeline")
	require.Len(t, keys, 1)
	artifact := models.NewS3Object("t", "pipeline", keys[0])

	err := loader.LoadArtifact(context.Background(), artifact, "orders", models.PolicyReplace)
	require.NoError(t, err)

	tbl := rdbClient.Tables["orders"]
	require.NotNil(t, tbl)
	assert.Equal(t, []string{"id", "credit_card", "order_date", "is_delivered", "load_timestamp"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, int64(1), tbl.Rows[0][0])
	assert.Nil(t, tbl.Rows[0][1])
	assert.Equal(t, ts, tbl.Rows[0][4])
}

func TestLoadArtifactMissingObject(t *testing.T) {
	_, loader := newTestLoader(t)

	artifact := models.NewS3Object("t", "pipeline", "transformed_data/orders/part-gone.parquet")
	err := loader.LoadArtifact(context.Background(), artifact, "orders", models.PolicyReplace)
	require.Error(t, err)
	assert.Equal(t, models.LoadFailure, models.KindOf(err))
}
