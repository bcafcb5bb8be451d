package pipeline

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/dataset"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
	"github.com/YuminosukeSato/higgsml/rgf"
)

// Test matrix file names under <temp>/test_data.
const (
	TestDataDir     = "test_data"
	PlainTestFile   = "testx.txt"
	DoubledTestFile = "testx_for_w.txt"
	PredictionExt   = ".pred"
)

// Artifact is a trained model file found under the save directory.
type Artifact struct {
	Path string
	// Weight marks models trained on the augmented dataset.
	Weight bool
}

// IsArtifactName reports whether name follows the learner's model file
// naming, m-NN.
func IsArtifactName(name string) bool {
	return len(name) == 4 && strings.HasPrefix(name, "m-")
}

// FindArtifacts walks root and returns every model file in walk order. A
// root that does not exist holds no artifacts.
func FindArtifacts(root string) ([]Artifact, error) {
	var out []Artifact
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if d.IsDir() || !IsArtifactName(d.Name()) {
			return nil
		}
		out = append(out, Artifact{
			Path:   path,
			Weight: strings.HasPrefix(filepath.Base(filepath.Dir(path)), WeightModelPrefix),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "pipeline: walk %s", root)
	}
	return out, nil
}

// PredictRequest describes one scoring session.
type PredictRequest struct {
	// Test is the transformed test feature table.
	Test *table.EventTable
}

// Prediction is the outcome of scoring with one artifact.
type Prediction struct {
	Artifact       Artifact
	PredictionFile string
	Status         rgf.ExitStatus
	Err            error
}

// PredictResult collects the predictions in artifact walk order.
type PredictResult struct {
	Predictions []Prediction
	// Output holds the console lines of each run, keyed by artifact path
	// relative to the save directory.
	Output map[string][]string
}

// Predictor scores a test table with every model artifact, one at a time.
type Predictor struct {
	launcher Launcher
	logger   log.Logger
	metrics  *Metrics
}

// NewPredictor creates a Predictor that launches runs through l.
func NewPredictor(l Launcher, opts ...Option) *Predictor {
	s := newSettings(opts)
	return &Predictor{
		launcher: l,
		logger:   s.logger.With(log.ComponentKey, "predictor"),
		metrics:  s.metrics,
	}
}

// Run writes the plain and doubled test matrices, then scores them with
// every artifact under the save directory. Each run is drained before the
// next is launched. Predictions are written next to the artifact with a
// .pred suffix.
func (p *Predictor) Run(ctx context.Context, req PredictRequest) (*PredictResult, error) {
	if req.Test == nil {
		return nil, errors.NewValueError("Predictor.Run", "test features are required")
	}
	dirs := p.launcher.Workdirs()

	testDir := filepath.Join(dirs.Temp, TestDataDir)
	if err := os.MkdirAll(testDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "pipeline: create %s", testDir)
	}
	plain := filepath.Join(testDir, PlainTestFile)
	doubled := filepath.Join(testDir, DoubledTestFile)

	var g errgroup.Group
	g.Go(func() error { return rgf.WriteMatrixFile(plain, req.Test) })
	g.Go(func() error {
		d, err := dataset.Doubled(req.Test)
		if err != nil {
			return err
		}
		return rgf.WriteMatrixFile(doubled, d)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	artifacts, err := FindArtifacts(dirs.Save)
	if err != nil {
		return nil, err
	}
	p.logger.Info("prediction started",
		log.SamplesKey, req.Test.Len(),
		"artifacts", len(artifacts),
	)
	if len(artifacts) == 0 {
		p.logger.Warn("no model artifacts found", log.PathKey, dirs.Save)
	}

	result := &PredictResult{Output: make(map[string][]string, len(artifacts))}
	var errs []error
	for _, a := range artifacts {
		name, err := filepath.Rel(dirs.Save, a.Path)
		if err != nil {
			name = a.Path
		}
		testFile, rows := plain, req.Test.Len()
		if a.Weight {
			testFile, rows = doubled, 2*req.Test.Len()
		}
		job := rgf.PredictJob{
			Name:           name,
			TestFile:       testFile,
			ModelFile:      a.Path,
			PredictionFile: a.Path + PredictionExt,
		}

		proc, err := p.launcher.Predict(ctx, job)
		if err != nil {
			errs = append(errs, err)
			p.logger.Error("learner launch failed", err, log.ArtifactKey, a.Path)
			break
		}
		p.metrics.RunsStarted.WithLabelValues(rgf.ModePredict).Inc()
		p.metrics.ActiveRuns.Inc()
		p.metrics.Preprocessed.Add(float64(rows))

		run := awaitRun(p.logger.With(log.ArtifactKey, a.Path, "weight_model", a.Weight), p.metrics,
			launched{run: Run{Name: name, Mode: rgf.ModePredict, Fold: -1}, proc: proc},
			result.Output)
		result.Predictions = append(result.Predictions, Prediction{
			Artifact:       a,
			PredictionFile: job.PredictionFile,
			Status:         run.Status,
			Err:            run.Err,
		})
		errs = append(errs, run.Err)
	}

	if err := errors.Join(errs...); err != nil {
		return result, err
	}
	p.logger.Info("prediction finished", "runs", len(result.Predictions))
	return result, nil
}
