package models_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"aqueduct/pkg/models"
)

func TestKindOfWrappedFailure(t *testing.T) {
	err := models.NewFailure(models.NotFoundFailure, "no artifact under %s", "transformed_data/orders/")
	wrapped := errors.Wrap(errors.Wrap(err, "locate"), "load stage")

	assert.Equal(t, models.NotFoundFailure, models.KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "transformed_data/orders/")
}

func TestKindOfKeepsInnermostKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := models.WrapFailure(cause, models.LoadFailure, "bulk-write failed")

	assert.Equal(t, models.LoadFailure, models.KindOf(err))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, err.Error(), "LoadFailure")
}

func TestKindOfUntypedError(t *testing.T) {
	assert.Equal(t, models.NoFailure, models.KindOf(nil))
	assert.Equal(t, models.NoFailure, models.KindOf(errors.New("plain")))
}
