// Package rgf drives the external Regularized Greedy Forest learner.
//
// A run serializes its inputs as plain-text matrices under
// <temp>/<name>_data, writes a settings file next to them and starts the
// learner without waiting for it. Models are written to
// <save>/<name>_output/m-NN by the learner itself.
package rgf

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
)

// Matrix file names inside a run's data directory.
const (
	TrainXFile = "trainx.txt"
	TrainYFile = "trainy.txt"
	TrainWFile = "trainw.txt"
	TestXFile  = "testx.txt"
)

// Job is a training run.
type Job struct {
	// Name identifies the run and names its data and output directories.
	Name     string
	Features *table.EventTable
	// Labels are class targets; positive values are the positive class.
	Labels []float64
	// Weights are optional per-row weights.
	Weights []float64
	// Test is scored after training. Used by TrainPredict only.
	Test   *table.EventTable
	Params Params
}

// PredictJob scores an existing matrix file with a trained model.
type PredictJob struct {
	Name           string
	TestFile       string
	ModelFile      string
	PredictionFile string
	// SettingsFile is where the settings are written. Defaults to
	// <temp>/temp_pred.inp.
	SettingsFile string
}

// Runner launches learner runs.
type Runner struct {
	cfg    LearnerConfig
	dirs   Workdirs
	logger log.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(l log.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// NewRunner creates a Runner for the given learner and directories.
func NewRunner(cfg LearnerConfig, dirs Workdirs, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if dirs.Temp == "" {
		return nil, errors.NewValidationError("paths.temp", "must not be empty", dirs.Temp)
	}
	if dirs.Save == "" {
		return nil, errors.NewValidationError("paths.save", "must not be empty", dirs.Save)
	}
	r := &Runner{cfg: cfg, dirs: dirs}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("rgf")
	}
	return r, nil
}

// Workdirs returns the runner's directories.
func (r *Runner) Workdirs() Workdirs {
	return r.dirs
}

// Train fits a forest on the job's features and returns once the learner
// has started.
func (r *Runner) Train(ctx context.Context, job Job) (*Process, error) {
	job.Test = nil
	return r.run(ctx, ModeTrain, job)
}

// TrainPredict fits a forest and scores job.Test with it, returning once
// the learner has started.
func (r *Runner) TrainPredict(ctx context.Context, job Job) (*Process, error) {
	if job.Test == nil {
		return nil, errors.NewValueError("rgf.TrainPredict", "test features are required")
	}
	return r.run(ctx, ModeTrainPredict, job)
}

// Predict scores job.TestFile with job.ModelFile, returning once the
// learner has started.
func (r *Runner) Predict(ctx context.Context, job PredictJob) (*Process, error) {
	if _, err := os.Stat(job.ModelFile); err != nil {
		return nil, errors.NewModelError("rgf.predict", "model file unavailable", err)
	}
	settingsPath := job.SettingsFile
	if settingsPath == "" {
		settingsPath = filepath.Join(r.dirs.Temp, "temp_pred.inp")
	}
	if err := os.MkdirAll(filepath.Dir(settingsPath), 0o755); err != nil {
		return nil, errors.Wrapf(err, "rgf: create %s", filepath.Dir(settingsPath))
	}
	settings := Settings{
		TestX:          job.TestFile,
		ModelFile:      job.ModelFile,
		PredictionFile: job.PredictionFile,
	}
	if err := settings.WriteFile(settingsPath); err != nil {
		return nil, err
	}
	return r.launch(ctx, job.Name, ModePredict, settingsPath, settings)
}

func (r *Runner) run(ctx context.Context, mode string, job Job) (*Process, error) {
	op := "rgf." + mode
	if job.Name == "" {
		return nil, errors.NewValueError(op, "run name is required")
	}
	if job.Features == nil {
		return nil, errors.NewValueError(op, "features are required")
	}
	rows, cols := job.Features.Dims()
	if len(job.Labels) != rows {
		return nil, errors.NewDimensionError(op, rows, len(job.Labels), 0)
	}
	if job.Weights != nil && len(job.Weights) != rows {
		return nil, errors.NewDimensionError(op, rows, len(job.Weights), 0)
	}
	if job.Test != nil {
		if _, tc := job.Test.Dims(); tc != cols {
			return nil, errors.NewDimensionError(op, cols, tc, 1)
		}
	}

	dataDir := r.dirs.DataDir(job.Name)
	outDir := r.dirs.OutputDir(job.Name)
	for _, dir := range []string{dataDir, outDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "rgf: create %s", dir)
		}
	}

	settings := Settings{
		TrainX:      filepath.Join(dataDir, TrainXFile),
		TrainY:      filepath.Join(dataDir, TrainYFile),
		ModelPrefix: filepath.Join(outDir, "m"),
		Params:      job.Params,
		Verbose:     true,
	}
	if job.Weights != nil {
		settings.TrainW = filepath.Join(dataDir, TrainWFile)
	}
	if mode == ModeTrainPredict {
		settings.TestX = filepath.Join(dataDir, TestXFile)
		settings.SaveLastModelOnly = true
	}

	var g errgroup.Group
	g.Go(func() error { return WriteMatrixFile(settings.TrainX, job.Features) })
	g.Go(func() error { return WriteVectorFile(settings.TrainY, EncodeLabels(job.Labels)) })
	if settings.TrainW != "" {
		g.Go(func() error { return WriteVectorFile(settings.TrainW, job.Weights) })
	}
	if settings.TestX != "" {
		g.Go(func() error { return WriteMatrixFile(settings.TestX, job.Test) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	settingsPath := filepath.Join(dataDir, job.Name+".inp")
	if err := settings.WriteFile(settingsPath); err != nil {
		return nil, err
	}

	r.logger.Debug("learner inputs written",
		log.RunNameKey, job.Name,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.PathKey, dataDir,
	)
	return r.launch(ctx, job.Name, mode, settingsPath, settings)
}

func (r *Runner) launch(ctx context.Context, name, mode, settingsPath string, settings Settings) (*Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	args := r.cfg.argv(mode, settingsPath, settings.Lines())
	cmd := exec.CommandContext(ctx, r.cfg.Executable, args...)
	cmd.Dir = r.cfg.Dir
	if len(r.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), r.cfg.Env...)
	}

	p, err := start(cmd, name, mode)
	if err != nil {
		r.logger.Error("learner failed to start", err,
			log.RunNameKey, name,
			log.OperationKey, mode,
		)
		return nil, err
	}
	r.logger.Info("learner started",
		log.RunNameKey, name,
		log.OperationKey, mode,
		log.SettingsKey, settingsPath,
		"pid", p.Pid(),
		"command", r.cfg.Executable+" "+strings.Join(args, " "),
	)
	return p, nil
}
