package pipeline

import (
	"context"
	"time"

	"aqueduct/pkg/etl"
	"aqueduct/pkg/models"
)

// BuildStages returns the run's stage sequence: extract, then transform per
// dataset, then load per dataset. Transform and load of the same dataset
// never run concurrently; the writer must finish before the locator looks.
func BuildStages(args *Arguments) []Stage {
	stages := []Stage{ExtractStage(args)}
	for _, dataset := range models.TransformedDatasets() {
		stages = append(stages, TransformStage(args, dataset))
	}
	for _, dataset := range models.TransformedDatasets() {
		stages = append(stages, LoadStage(args, dataset))
	}
	return stages
}

// ExtractStage pulls the customers extract from the warehouse and appends it
// into the relational store. The warehouse stamps load_date itself.
func ExtractStage(args *Arguments) Stage {
	return Stage{
		Name: "extract-customers",
		Run: func(ctx context.Context) error {
			table, err := args.WarehouseService().ExtractCustomers(ctx, args.BigQueryDatasetTable)
			if err != nil {
				return models.WrapFailure(err, models.ReadFailure, "cannot extract customers from warehouse")
			}

			loader := etl.NewLoader(args.S3Service(), args.RDBService())
			return loader.LoadTable(ctx, table, models.CustomersTable, models.PolicyAppend)
		},
	}
}

// TransformStage reads a dataset's raw input, applies its transformation
// profile with one batch-wide load timestamp and replaces the columnar
// artifact under the dataset's transformed prefix.
func TransformStage(args *Arguments, dataset models.Dataset) Stage {
	return Stage{
		Name: "transform-" + dataset.Name,
		Run: func(ctx context.Context) error {
			s3 := args.S3Service()

			src := args.Bucket()
			src.Key = dataset.RawKey()

			raw, err := etl.NewReader(s3).Read(src, dataset.Shape)
			if err != nil {
				return err
			}

			profile, err := etl.NewProfile(dataset, raw.Fields)
			if err != nil {
				return err
			}

			table, err := etl.Transform(raw, profile, time.Now().UTC())
			if err != nil {
				return models.WrapFailure(err, models.TransformFailure, "cannot transform dataset: %s", dataset.Name)
			}

			dst := args.Bucket()
			dst.Key = dataset.ArtifactPrefix()
			return etl.NewWriter(s3).Write(table, dst)
		},
	}
}

// LoadStage discovers the dataset's current artifact and loads it into the
// relational target under the dataset's policy.
func LoadStage(args *Arguments, dataset models.Dataset) Stage {
	return Stage{
		Name: "load-" + dataset.Name,
		Run: func(ctx context.Context) error {
			s3 := args.S3Service()

			artifact, err := etl.NewLocator(s3).Locate(args.Bucket(), dataset.ArtifactPrefix())
			if err != nil {
				return err
			}

			loader := etl.NewLoader(s3, args.RDBService())
			return loader.LoadArtifact(ctx, *artifact, dataset.Table, dataset.Policy)
		},
	}
}
