package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"aqueduct/internal"
	"aqueduct/pkg/models"
	"aqueduct/pkg/pipeline"
)

var logger = internal.Logger

func main() {
	// optional .env for local runs against MinIO
	_ = godotenv.Load()

	var args pipeline.Arguments

	app := &cli.App{
		Name:  "aqueduct",
		Usage: "Batch pipeline: warehouse extract, raw file transform, relational load",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bucket",
				Aliases:     []string{"b"},
				Usage:       "Object store bucket holding raw_data/ and transformed_data/",
				Required:    true,
				EnvVars:     []string{"S3_BUCKET"},
				Destination: &args.S3Bucket,
			},
			&cli.StringFlag{
				Name:        "region",
				Aliases:     []string{"r"},
				Usage:       "Object store region",
				Value:       "us-east-1",
				EnvVars:     []string{"S3_REGION", "AWS_REGION"},
				Destination: &args.S3Region,
			},
			&cli.StringFlag{
				Name:        "endpoint",
				Usage:       "Object store endpoint override (MinIO)",
				EnvVars:     []string{"S3_ENDPOINT"},
				Destination: &args.S3Endpoint,
			},
			&cli.StringFlag{
				Name:        "postgres-dsn",
				Usage:       "Relational store connection string",
				EnvVars:     []string{"POSTGRES_DSN"},
				Destination: &args.PostgresDSN,
			},
			&cli.StringFlag{
				Name:        "bq-project",
				Usage:       "Warehouse project ID",
				EnvVars:     []string{"BQ_PROJECT_ID"},
				Destination: &args.BigQueryProjectID,
			},
			&cli.StringFlag{
				Name:        "bq-table",
				Usage:       "Warehouse dataset.table holding customer records",
				EnvVars:     []string{"BQ_DATASET_TABLE"},
				Destination: &args.BigQueryDatasetTable,
			},
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "TRACE, DEBUG, INFO, WARN or ERROR",
				Value:       "INFO",
				EnvVars:     []string{"LOG_LEVEL"},
				Destination: &args.LogLevel,
			},
		},
		Before: func(c *cli.Context) error {
			pipeline.SetLogLevel(args.LogLevel)
			internal.InitErrorHandler()
			return nil
		},
		Commands: []*cli.Command{
			runCommand(&args),
			extractCommand(&args),
			transformCommand(&args),
			loadCommand(&args),
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.WithError(err).Fatal("Abort")
	}
}

// runStages executes a stage list and maps the typed result to the process:
// the status line goes to stdout, a failed run exits non-zero.
func runStages(stages []pipeline.Stage) error {
	result := pipeline.NewWithStages(stages).Run(context.Background())
	fmt.Println(result.Status())
	if !result.Ok() {
		return cli.Exit("", 1)
	}
	return nil
}

func runCommand(args *pipeline.Arguments) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the full pipeline: extract, transform, load",
		Action: func(c *cli.Context) error {
			return runStages(pipeline.BuildStages(args))
		},
	}
}

func extractCommand(args *pipeline.Arguments) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Run only the warehouse extract stage",
		Action: func(c *cli.Context) error {
			return runStages([]pipeline.Stage{pipeline.ExtractStage(args)})
		},
	}
}

func transformCommand(args *pipeline.Arguments) *cli.Command {
	return &cli.Command{
		Name:  "transform",
		Usage: "Run only the transform stages",
		Action: func(c *cli.Context) error {
			var stages []pipeline.Stage
			for _, dataset := range datasetSelection(c.Args().First()) {
				stages = append(stages, pipeline.TransformStage(args, dataset))
			}
			if len(stages) == 0 {
				return cli.Exit("unknown dataset: "+c.Args().First(), 2)
			}
			return runStages(stages)
		},
	}
}

func loadCommand(args *pipeline.Arguments) *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "Run only the load stages",
		Action: func(c *cli.Context) error {
			var stages []pipeline.Stage
			for _, dataset := range datasetSelection(c.Args().First()) {
				stages = append(stages, pipeline.LoadStage(args, dataset))
			}
			if len(stages) == 0 {
				return cli.Exit("unknown dataset: "+c.Args().First(), 2)
			}
			return runStages(stages)
		},
	}
}

// datasetSelection resolves an optional dataset name argument; empty selects
// every transformed dataset.
func datasetSelection(name string) []models.Dataset {
	if name == "" {
		return models.TransformedDatasets()
	}
	for _, dataset := range models.TransformedDatasets() {
		if dataset.Name == name {
			return []models.Dataset{dataset}
		}
	}
	return nil
}

func init() {
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
