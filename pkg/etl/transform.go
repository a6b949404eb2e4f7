package etl

import (
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"aqueduct/pkg/models"
)

// Transform applies a profile to every raw record and stamps the whole batch
// with one load timestamp. Derivation is record-local and non-fatal per
// field; the rules never reject a record.
func Transform(raw *models.RawTable, profile *Profile, loadedAt time.Time) (*models.Table, error) {
	table := models.NewTable(profile.Schema())

	for _, rec := range raw.Records {
		out := make(models.Record, len(profile.Rules))
		for i, rule := range profile.Rules {
			out[i] = rule.Apply(rec, loadedAt)
		}
		if err := table.Append(out); err != nil {
			return nil, errors.Wrap(err, "Fail to append transformed record")
		}
	}

	logger.WithFields(logrus.Fields{
		"profile": profile.Name,
		"records": len(table.Records),
	}).Info("Transformed batch")

	return table, nil
}
