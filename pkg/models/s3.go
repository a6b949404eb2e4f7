package models

import "strings"

// S3Object points to one object in the object store.
type S3Object struct {
	Region string `json:"region"`
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// NewS3Object is constructor of S3Object
func NewS3Object(region, bucket, key string) S3Object {
	return S3Object{
		Region: region,
		Bucket: bucket,
		Key:    key,
	}
}

// AppendKey adds a path element to the object key.
func (x *S3Object) AppendKey(suffix string) {
	if strings.HasSuffix(x.Key, "/") {
		x.Key += suffix
	} else {
		x.Key += "/" + suffix
	}
}

// Path returns s3://bucket/key style representation for logging.
func (x S3Object) Path() string {
	return "s3://" + x.Bucket + "/" + x.Key
}

const (
	rawDataPrefix         = "raw_data/"
	transformedDataPrefix = "transformed_data/"

	// ParquetSuffix qualifies columnar artifact objects during discovery.
	ParquetSuffix = ".parquet"
)

// RawPrefix returns the storage prefix of a dataset's raw inputs.
func RawPrefix(dataset string) string {
	return rawDataPrefix + dataset + "/"
}

// TransformedPrefix returns the storage prefix holding a dataset's columnar
// artifact. At most one logically-current artifact lives under it.
func TransformedPrefix(dataset string) string {
	return transformedDataPrefix + dataset + "/"
}
