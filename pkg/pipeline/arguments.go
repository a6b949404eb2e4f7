package pipeline

import (
	"aqueduct/internal/adaptor"
	"aqueduct/internal/service"
	"aqueduct/pkg/models"
)

// Config has all external endpoints and credentials of one pipeline run.
// It is passed explicitly; there is no process-wide mutable configuration.
type Config struct {
	S3Region   string
	S3Bucket   string
	S3Endpoint string

	PostgresDSN string

	BigQueryProjectID    string
	BigQueryDatasetTable string

	LogLevel string
}

// Arguments bundles configuration and adaptor factories. Factory fields are
// nil in production and injected with mocks in tests.
type Arguments struct {
	Config

	NewS3        adaptor.S3ClientFactory
	NewWarehouse adaptor.WarehouseClientFactory
	NewRDB       adaptor.RDBClientFactory
}

// Bucket returns the object-store bucket handle of this run.
func (x *Arguments) Bucket() models.S3Object {
	return models.NewS3Object(x.S3Region, x.S3Bucket, "")
}

// S3Service provides service.S3Service with the configured S3 adaptor
func (x *Arguments) S3Service() *service.S3Service {
	return service.NewS3Service(x.newS3())
}

// WarehouseService provides the warehouse extract accessor
func (x *Arguments) WarehouseService() *service.WarehouseService {
	return service.NewWarehouseService(x.newWarehouse(), x.BigQueryProjectID)
}

// RDBService provides the relational bulk-write accessor
func (x *Arguments) RDBService() *service.RDBService {
	return service.NewRDBService(x.newRDB(), x.PostgresDSN)
}

func (x *Arguments) newS3() adaptor.S3ClientFactory {
	if x.NewS3 != nil {
		return x.NewS3
	}
	if x.S3Endpoint != "" {
		return adaptor.NewS3EndpointClient(x.S3Endpoint)
	}
	return adaptor.NewS3Client
}

func (x *Arguments) newWarehouse() adaptor.WarehouseClientFactory {
	if x.NewWarehouse != nil {
		return x.NewWarehouse
	}
	return adaptor.NewBigQueryClient
}

func (x *Arguments) newRDB() adaptor.RDBClientFactory {
	if x.NewRDB != nil {
		return x.NewRDB
	}
	return adaptor.NewPostgresClient
}
