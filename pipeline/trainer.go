// Package pipeline runs the cross-validated training of the forest and the
// scoring of test data with every trained model.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/higgsml/dataset"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
	"github.com/YuminosukeSato/higgsml/rgf"
	"github.com/YuminosukeSato/higgsml/sklearn/model_selection"
)

// WeightModelPrefix starts the output directory name of every weight model.
const WeightModelPrefix = "w_"

// Launcher starts learner runs. *rgf.Runner implements it.
type Launcher interface {
	Train(ctx context.Context, job rgf.Job) (*rgf.Process, error)
	TrainPredict(ctx context.Context, job rgf.Job) (*rgf.Process, error)
	Predict(ctx context.Context, job rgf.PredictJob) (*rgf.Process, error)
	Workdirs() rgf.Workdirs
}

// TrainRequest describes one training session.
type TrainRequest struct {
	// Name prefixes every run: <Name>_full and <Name>_cv<k>.
	Name string
	Data *dataset.Dataset
	// Params are passed to the learner unchanged.
	Params rgf.Params
	// PredictWeights trains on the augmented dataset instead, so that the
	// forest learns to tell the original rows from their copies.
	PredictWeights bool
}

// Run is the outcome of one learner run.
type Run struct {
	Name string
	Mode string
	// Fold is the held-out fold, or -1 for the full-data run.
	Fold   int
	Status rgf.ExitStatus
	Err    error
}

// TrainResult collects the runs of a training session in launch order.
type TrainResult struct {
	RunID string
	Runs  []Run
	// Output holds the console lines of each run, keyed by run name.
	Output map[string][]string
}

// Failed returns the runs that did not exit successfully.
func (r *TrainResult) Failed() []Run {
	var out []Run
	for _, run := range r.Runs {
		if run.Err != nil {
			out = append(out, run)
		}
	}
	return out
}

// Trainer launches the full-data run and one train+predict run per fold,
// then drains them in launch order.
type Trainer struct {
	launcher Launcher
	folds    int
	logger   log.Logger
	metrics  *Metrics
}

// Option configures a Trainer or Predictor.
type Option func(*settings)

type settings struct {
	folds   int
	logger  log.Logger
	metrics *Metrics
}

// WithFolds sets the number of cross-validation folds.
func WithFolds(n int) Option {
	return func(s *settings) {
		s.folds = n
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// WithMetrics records run metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

func newSettings(opts []Option) *settings {
	s := &settings{folds: model_selection.DefaultNSplits}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.GetLoggerWithName("pipeline")
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// NewTrainer creates a Trainer that launches runs through l.
func NewTrainer(l Launcher, opts ...Option) *Trainer {
	s := newSettings(opts)
	return &Trainer{
		launcher: l,
		folds:    s.folds,
		logger:   s.logger.With(log.ComponentKey, "trainer"),
		metrics:  s.metrics,
	}
}

type launched struct {
	run  Run
	proc *rgf.Process
}

// Start launches every run of the session and waits for all of them.
//
// The full-data run is launched first, then fold runs in fold order. No run
// is awaited until all are launched, so they execute concurrently. A run
// that fails does not stop the others; the returned error joins the
// failures of all runs and the result is returned alongside it.
func (t *Trainer) Start(ctx context.Context, req TrainRequest) (*TrainResult, error) {
	if err := t.validate(req); err != nil {
		return nil, err
	}

	kfold, err := model_selection.NewKFold(t.folds)
	if err != nil {
		return nil, err
	}

	data := req.Data
	assign := kfold.Assign(data.Len())
	if req.PredictWeights {
		aug, err := dataset.Augment(data)
		if err != nil {
			return nil, err
		}
		data = aug
		assign = model_selection.Tile(assign, 2)
	}
	folds, err := model_selection.FoldsFromAssignment(assign, kfold.GetNSplits())
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := t.logger.With(log.RunIDKey, runID, log.ModelNameKey, req.Name)
	logger.Info("training started",
		log.SamplesKey, data.Len(),
		"folds", len(folds),
		"predict_weights", req.PredictWeights,
	)

	var (
		runs      []launched
		launchErr error
	)
	full := rgf.Job{
		Name:     req.Name + "_full",
		Features: data.Features,
		Labels:   data.Target,
		Weights:  data.Weight,
		Params:   req.Params,
	}
	if p, err := t.launcher.Train(ctx, full); err != nil {
		launchErr = err
	} else {
		runs = append(runs, t.started(Run{Name: full.Name, Mode: rgf.ModeTrain, Fold: -1}, p, data.Len()))
	}

	for k, fold := range folds {
		if launchErr != nil {
			break
		}
		job, err := foldJob(req, data, k, fold)
		if err != nil {
			launchErr = err
			break
		}
		p, err := t.launcher.TrainPredict(ctx, job)
		if err != nil {
			launchErr = err
			break
		}
		runs = append(runs, t.started(Run{Name: job.Name, Mode: rgf.ModeTrainPredict, Fold: k}, p, len(fold.TrainIndices)))
	}
	if launchErr != nil {
		logger.Error("learner launch failed; waiting for launched runs", launchErr,
			"launched", len(runs),
		)
	}

	result := &TrainResult{
		RunID:  runID,
		Output: make(map[string][]string, len(runs)),
	}
	errs := []error{launchErr}
	for _, l := range runs {
		run := awaitRun(logger, t.metrics, l, result.Output)
		result.Runs = append(result.Runs, run)
		errs = append(errs, run.Err)
	}

	err = errors.Join(errs...)
	if err != nil {
		logger.Error("training finished with failures", err,
			"failed", len(result.Failed()),
			"runs", len(result.Runs),
		)
		return result, err
	}
	logger.Info("training finished", "runs", len(result.Runs))
	return result, nil
}

func (t *Trainer) validate(req TrainRequest) error {
	if req.Name == "" {
		return errors.NewValidationError("training.model_name", "must not be empty", req.Name)
	}
	if req.Data == nil || req.Data.Features == nil {
		return errors.NewValueError("Trainer.Start", "training data is required")
	}
	if req.Data.Len() == 0 {
		return errors.Wrap(errors.ErrEmptyData, "Trainer.Start")
	}
	if !req.Data.Training() {
		return errors.NewValueError("Trainer.Start", "training data has no target")
	}
	// The aggregator tells weight models apart by directory name alone.
	prefix := strings.TrimSuffix(WeightModelPrefix, "_")
	weightName := strings.HasPrefix(req.Name+"_", WeightModelPrefix)
	if req.PredictWeights && !weightName {
		return errors.NewValidationError("training.model_name",
			fmt.Sprintf("weight model names must start with %q", prefix), req.Name)
	}
	if !req.PredictWeights && weightName {
		return errors.NewValidationError("training.model_name",
			fmt.Sprintf("only weight model names may start with %q", prefix), req.Name)
	}
	return nil
}

func (t *Trainer) started(run Run, p *rgf.Process, rows int) launched {
	t.metrics.RunsStarted.WithLabelValues(run.Mode).Inc()
	t.metrics.ActiveRuns.Inc()
	t.metrics.Preprocessed.Add(float64(rows))
	return launched{run: run, proc: p}
}

// awaitRun drains one run and records its outcome.
func awaitRun(logger log.Logger, m *Metrics, l launched, output map[string][]string) Run {
	run := l.run
	runLogger := logger.With(log.RunNameKey, run.Name, log.OperationKey, run.Mode)
	if run.Fold >= 0 {
		runLogger = runLogger.With(log.FoldKey, run.Fold)
	}

	var lines []string
	status, err := l.proc.Drain(func(line string) {
		lines = append(lines, line)
		runLogger.Debug(line, log.LineKey, len(lines))
	})
	m.ActiveRuns.Dec()
	m.OutputLines.WithLabelValues(run.Mode).Add(float64(len(lines)))
	m.RunDuration.WithLabelValues(run.Mode).Observe(status.Duration.Seconds())
	output[run.Name] = lines

	run.Status = status
	run.Err = err
	if err != nil {
		m.RunFailures.WithLabelValues(run.Mode).Inc()
		runLogger.Error("learner run failed", err, log.ExitCodeKey, status.Code)
	} else {
		runLogger.Info("learner run finished",
			log.ExitCodeKey, status.Code,
			log.DurationMsKey, status.Duration.Round(time.Millisecond).Milliseconds(),
		)
	}
	return run
}

func foldJob(req TrainRequest, data *dataset.Dataset, k int, fold model_selection.CVFold) (rgf.Job, error) {
	train, err := data.Features.Rows(fold.TrainIndices)
	if err != nil {
		return rgf.Job{}, err
	}
	test, err := data.Features.Rows(fold.TestIndices)
	if err != nil {
		return rgf.Job{}, err
	}
	job := rgf.Job{
		Name:     fmt.Sprintf("%s_cv%d", req.Name, k),
		Features: train,
		Labels:   pick(data.Target, fold.TrainIndices),
		Test:     test,
		Params:   req.Params,
	}
	if data.Weight != nil {
		job.Weights = pick(data.Weight, fold.TrainIndices)
	}
	return job, nil
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = v[i]
	}
	return out
}

var _ Launcher = (*rgf.Runner)(nil)
