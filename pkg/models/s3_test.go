package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aqueduct/pkg/models"
)

func TestStorageLayout(t *testing.T) {
	assert.Equal(t, "raw_data/products/", models.RawPrefix("products"))
	assert.Equal(t, "transformed_data/orders/", models.TransformedPrefix("orders"))

	assert.Equal(t, "raw_data/products/products.csv", models.DatasetProducts.RawKey())
	assert.Equal(t, "raw_data/orders/orders.json", models.DatasetOrders.RawKey())
	assert.Equal(t, "transformed_data/products/", models.DatasetProducts.ArtifactPrefix())
}

func TestS3ObjectAppendKey(t *testing.T) {
	obj := models.NewS3Object("ap-northeast-1", "pipeline", "transformed_data/orders/")
	obj.AppendKey("part-1.parquet")
	assert.Equal(t, "transformed_data/orders/part-1.parquet", obj.Key)

	obj2 := models.NewS3Object("ap-northeast-1", "pipeline", "transformed_data/orders")
	obj2.AppendKey("part-1.parquet")
	assert.Equal(t, "transformed_data/orders/part-1.parquet", obj2.Key)

	assert.Equal(t, "s3://pipeline/transformed_data/orders/part-1.parquet", obj2.Path())
}

func TestSchemaHelpers(t *testing.T) {
	schema := models.Schema{
		{Name: "id", Type: models.ColumnTypeInt64},
		{Name: "name", Type: models.ColumnTypeUTF8},
	}

	assert.Equal(t, []string{"id", "name"}, schema.Names())
	assert.Equal(t, 1, schema.Index("name"))
	assert.Equal(t, -1, schema.Index("missing"))

	table := models.NewTable(schema)
	assert.NoError(t, table.Append(models.Record{int64(1), "a"}))
	assert.Error(t, table.Append(models.Record{int64(2)}))
	assert.Len(t, table.Rows(), 1)
}

func TestCoerceValue(t *testing.T) {
	assert.Nil(t, models.CoerceValue(models.ColumnTypeInt64, nil))
	assert.Equal(t, int64(7), models.CoerceValue(models.ColumnTypeInt64, float64(7)))
	assert.Equal(t, int64(7), models.CoerceValue(models.ColumnTypeInt64, 7))
	assert.Nil(t, models.CoerceValue(models.ColumnTypeInt64, "7 up"))
	assert.Equal(t, "cash", models.CoerceValue(models.ColumnTypeUTF8, "cash"))
	assert.Nil(t, models.CoerceValue(models.ColumnTypeTimestamp, "2025-01-01"))
}
