package etl

import (
	"context"

	"aqueduct/internal/service"
	"aqueduct/pkg/models"
)

// Loader reconciles columnar artifacts and materialized extracts into
// mutable relational tables.
type Loader struct {
	s3  *service.S3Service
	rdb *service.RDBService
}

// NewLoader is constructor of Loader
func NewLoader(s3 *service.S3Service, rdb *service.RDBService) *Loader {
	return &Loader{s3: s3, rdb: rdb}
}

// LoadArtifact reads one columnar artifact fully into memory and writes it
// into the target table under the dataset's load policy.
func (x *Loader) LoadArtifact(ctx context.Context, artifact models.S3Object, table string, policy models.LoadPolicy) error {
	data, err := ReadArtifact(x.s3, artifact)
	if err != nil {
		return models.WrapFailure(err, models.LoadFailure, "cannot read artifact: %s", artifact.Path())
	}

	return x.LoadTable(ctx, data, table, policy)
}

// LoadTable writes an already materialized table (e.g. a warehouse extract)
// into the relational store in one bulk operation.
func (x *Loader) LoadTable(ctx context.Context, data *models.Table, table string, policy models.LoadPolicy) error {
	if err := x.rdb.WriteTable(ctx, table, data, policy); err != nil {
		return models.WrapFailure(err, models.LoadFailure, "cannot load table: %s", table)
	}
	return nil
}
