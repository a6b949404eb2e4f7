package etl_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqueduct/pkg/etl"
	"aqueduct/pkg/models"
)

func ordersFixtureTable(ts time.Time) *models.Table {
	table := models.NewTable(models.Schema{
		{Name: "id", Type: models.ColumnTypeInt64},
		{Name: "credit_card", Type: models.ColumnTypeUTF8},
		{Name: "order_date", Type: models.ColumnTypeUTF8},
		{Name: "is_delivered", Type: models.ColumnTypeInt64},
		{Name: "load_timestamp", Type: models.ColumnTypeTimestamp},
	})
	table.Records = []models.Record{
		{int64(1), nil, "2025-03-05", int64(0), ts},
		{int64(2), "4111-1111", nil, int64(1), ts},
	}
	return table
}

func TestArtifactRoundTrip(t *testing.T) {
	_, s3 := newTestS3(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	table := ordersFixtureTable(ts)

	dst := models.NewS3Object("t", "pipeline", models.DatasetOrders.ArtifactPrefix())
	require.NoError(t, etl.NewWriter(s3).Write(table, dst))

	artifact, err := etl.NewLocator(s3).Locate(
		models.NewS3Object("t", "pipeline", ""), models.DatasetOrders.ArtifactPrefix())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(artifact.Key, "transformed_data/orders/part-"))
	assert.True(t, strings.HasSuffix(artifact.Key, ".parquet"))

	got, err := etl.ReadArtifact(s3, *artifact)
	require.NoError(t, err)

	// field-for-field equality, order preserved
	assert.Equal(t, table.Schema, got.Schema)
	assert.Equal(t, table.Records, got.Records)
}

func TestWriterReplaceSemantics(t *testing.T) {
	client, s3 := newTestS3(t)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	dst := models.NewS3Object("t", "pipeline", models.DatasetOrders.ArtifactPrefix())

	first := ordersFixtureTable(ts)
	require.NoError(t, etl.NewWriter(s3).Write(first, dst))

	second := models.NewTable(first.Schema)
	second.Records = []models.Record{{int64(9), nil, nil, int64(0), ts}}
	require.NoError(t, etl.NewWriter(s3).Write(second, dst))

	// exactly one qualifying artifact remains discoverable
	var parquetKeys []string
	for _, key := range client.Keys("pipeline") {
		if strings.HasSuffix(key, ".parquet") {
			parquetKeys = append(parquetKeys, key)
		}
	}
	require.Len(t, parquetKeys, 1)

	artifact, err := etl.NewLocator(s3).Locate(
		models.NewS3Object("t", "pipeline", ""), models.DatasetOrders.ArtifactPrefix())
	require.NoError(t, err)

	got, err := etl.ReadArtifact(s3, *artifact)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, int64(9), got.Records[0][0])
}

func TestWriterRejectsEmptySchema(t *testing.T) {
	_, s3 := newTestS3(t)

	dst := models.NewS3Object("t", "pipeline", models.DatasetOrders.ArtifactPrefix())
	err := etl.NewWriter(s3).Write(models.NewTable(nil), dst)
	require.Error(t, err)
	assert.Equal(t, models.WriteFailure, models.KindOf(err))
}
