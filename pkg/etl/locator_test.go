package etl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aqueduct/pkg/etl"
	"aqueduct/pkg/models"
)

func TestLocateMissingArtifact(t *testing.T) {
	_, s3 := newTestS3(t)

	bucket := models.NewS3Object("t", "pipeline", "")
	_, err := etl.NewLocator(s3).Locate(bucket, models.DatasetOrders.ArtifactPrefix())
	require.Error(t, err)
	assert.Equal(t, models.NotFoundFailure, models.KindOf(err))
}

func TestLocatePicksLatestArtifact(t *testing.T) {
	client, s3 := newTestS3(t)

	// Seed assigns monotonically increasing timestamps, so the last
	// seeded object is the freshest.
	client.Seed("pipeline", "transformed_data/orders/part-old.parquet", []byte("old"))
	client.Seed("pipeline", "transformed_data/orders/part-new.parquet", []byte("new"))
	client.Seed("pipeline", "transformed_data/orders/manifest.txt", []byte("skip"))
	client.Seed("pipeline", "transformed_data/products/part-other.parquet", []byte("other"))

	bucket := models.NewS3Object("t", "pipeline", "")
	artifact, err := etl.NewLocator(s3).Locate(bucket, models.DatasetOrders.ArtifactPrefix())
	require.NoError(t, err)
	assert.Equal(t, "transformed_data/orders/part-new.parquet", artifact.Key)
	assert.Equal(t, "pipeline", artifact.Bucket)
}

func TestLocateIgnoresNonParquetObjects(t *testing.T) {
	client, s3 := newTestS3(t)

	client.Seed("pipeline", "transformed_data/orders/_SUCCESS", []byte(""))

	bucket := models.NewS3Object("t", "pipeline", "")
	_, err := etl.NewLocator(s3).Locate(bucket, models.DatasetOrders.ArtifactPrefix())
	require.Error(t, err)
	assert.Equal(t, models.NotFoundFailure, models.KindOf(err))
}
