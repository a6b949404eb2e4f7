package etl

import (
	"strings"

	"aqueduct/internal/service"
	"aqueduct/pkg/models"
)

// Locator discovers the current columnar artifact of a dataset.
type Locator struct {
	s3 *service.S3Service
}

// NewLocator is constructor of Locator
func NewLocator(s3 *service.S3Service) *Locator {
	return &Locator{s3: s3}
}

// Locate lists the prefix and returns the qualifying artifact object. The
// writer leaves at most one artifact per prefix; if a crash left several,
// the most recently modified wins, with key order as final tie-break.
func (x *Locator) Locate(bucket models.S3Object, prefix string) (*models.S3Object, error) {
	objects, err := x.s3.ListObjects(bucket, prefix)
	if err != nil {
		return nil, models.WrapFailure(err, models.NotFoundFailure, "cannot list prefix: %s", prefix)
	}

	var found *service.ObjectInfo
	for i := range objects {
		obj := &objects[i]
		if !strings.HasSuffix(obj.Object.Key, models.ParquetSuffix) {
			continue
		}
		if found == nil || obj.LastModified > found.LastModified ||
			(obj.LastModified == found.LastModified && obj.Object.Key > found.Object.Key) {
			found = obj
		}
	}

	if found == nil {
		return nil, models.NewFailure(models.NotFoundFailure, "no columnar artifact under prefix: %s", prefix)
	}

	logger.WithField("artifact", found.Object.Path()).Debug("Located artifact")
	return &found.Object, nil
}
