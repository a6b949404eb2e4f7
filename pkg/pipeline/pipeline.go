// Package pipeline owns the stage sequence of one batch run: warehouse
// extract, per-dataset transform, per-dataset load. Stage dependency is the
// explicit order of the stage list, not inferred from side effects.
package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"aqueduct/internal"
	"aqueduct/pkg/models"
)

// Stage is one all-or-nothing step of a run.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Result is the typed outcome of a run. A failed stage carries its failure
// kind and message; downstream stages were not executed.
type Result struct {
	Stage   string
	Kind    models.FailureKind
	Message string
}

// Ok reports whether every stage succeeded.
func (x Result) Ok() bool {
	return x.Stage == ""
}

// Status renders the stage invocation contract string: SUCCESS, or
// FAILED: <reason> naming the first failing stage.
func (x Result) Status() string {
	if x.Ok() {
		return "SUCCESS"
	}
	return "FAILED: " + x.Stage + ": " + x.Message
}

// Pipeline executes stages strictly in sequence.
type Pipeline struct {
	stages []Stage

	// OnSuccess and OnFailure dispatch the terminal run signal.
	OnSuccess func(Result)
	OnFailure func(Result)
}

// New builds the full pipeline for one run.
func New(args *Arguments) *Pipeline {
	return &Pipeline{stages: BuildStages(args)}
}

// NewWithStages builds a pipeline over an explicit stage list.
func NewWithStages(stages []Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes the stage sequence. The first failure is terminal for the
// run: remaining stages are skipped, the failure signal is dispatched and
// the result identifies the failing stage and reason.
func (x *Pipeline) Run(ctx context.Context) Result {
	for _, stage := range x.stages {
		Logger.WithField("stage", stage.Name).Info("Start stage")

		if err := stage.Run(ctx); err != nil {
			result := Result{
				Stage:   stage.Name,
				Kind:    models.KindOf(err),
				Message: err.Error(),
			}

			internal.HandleError(err)
			internal.FlushError()
			Logger.WithFields(logrus.Fields{
				"stage": stage.Name,
				"kind":  result.Kind,
			}).Error("Pipeline failed")

			if x.OnFailure != nil {
				x.OnFailure(result)
			}
			return result
		}

		Logger.WithField("stage", stage.Name).Info("Finished stage")
	}

	result := Result{}
	Logger.Info("Pipeline completed")
	if x.OnSuccess != nil {
		x.OnSuccess(result)
	}
	return result
}
