// Package dataset loads Higgs event files into feature tables ready for the
// external learner.
package dataset

import (
	"context"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/higgsml/core/model"
	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/physics"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
	"github.com/YuminosukeSato/higgsml/preprocessing"
)

// Dataset is a transformed event file.
//
// In training mode Target and Weight have one entry per row of Features;
// in inference mode both are nil.
type Dataset struct {
	Features *table.EventTable
	Target   []float64
	Weight   []float64
	// EventIDs are the identifiers of the surviving rows, in row order.
	// Nil when the file has no identifier column.
	EventIDs []float64
}

// Len returns the number of events.
func (d *Dataset) Len() int {
	return d.Features.Len()
}

// Training reports whether the dataset carries targets and weights.
func (d *Dataset) Training() bool {
	return d.Target != nil
}

type options struct {
	sentinel  float64
	threshold int
	logger    log.Logger
	extra     []model.Transformer
}

// Option configures Load and Read.
type Option func(*options)

// WithSentinel sets the value that marks a missing measurement, both in the
// file and in the returned feature table.
func WithSentinel(v float64) Option {
	return func(o *options) {
		o.sentinel = v
	}
}

// WithParallelThreshold is passed through to the feature transform.
func WithParallelThreshold(n int) Option {
	return func(o *options) {
		o.threshold = n
	}
}

// WithTransformers appends transformers that run after the kinematic
// feature transform, in order.
func WithTransformers(ts ...model.Transformer) Option {
	return func(o *options) {
		o.extra = append(o.extra, ts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		sentinel:  errors.MissingSentinel,
		threshold: 4096,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("dataset")
	}
	return o
}

// Load reads the event file at path. See Read.
func Load(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "dataset: open %s", path)
	}
	defer f.Close()

	o := newOptions(opts)
	o.logger = o.logger.With(log.PathKey, path)
	return read(f, o)
}

// Read parses a comma-separated event file with a header row and returns
// the transformed dataset:
//
//   - rows whose reconstructed mass is missing or non-positive are dropped
//   - the kinematic feature transform is applied
//   - the identifier column is moved to EventIDs
//   - when a Weight column is present, Label is encoded as the target
//     (1 for signal, 0 for background) and weights are divided by the mean
//     weight of their class
func Read(r io.Reader, opts ...Option) (*Dataset, error) {
	return read(r, newOptions(opts))
}

func read(r io.Reader, o *options) (*Dataset, error) {
	const op = "dataset.Read"

	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.Float),
		dataframe.WithTypes(map[string]series.Type{physics.LabelCol: series.String}),
		dataframe.NaNValues(sentinelSpellings(o.sentinel)),
	)
	if df.Err != nil {
		return nil, errors.Wrap(df.Err, "dataset: parse csv")
	}
	total := df.Nrow()

	names := df.Names()
	has := make(map[string]bool, len(names))
	for _, n := range names {
		has[n] = true
	}
	if !has[physics.MassMMC] {
		return nil, errors.NewMissingColumnError(op, physics.MassMMC)
	}
	training := has[physics.WeightCol]
	if training && !has[physics.LabelCol] {
		return nil, errors.NewMissingColumnError(op, physics.LabelCol)
	}

	raw := table.New(total)
	missing := 0
	for _, n := range names {
		if physics.IsTextColumn(n) {
			continue
		}
		col := df.Col(n).Float()
		for i, v := range col {
			col[i] = errors.FromSentinel(v, o.sentinel)
		}
		if m := errors.CountMissing(col); m > 0 {
			missing += m
			o.logger.Debug("missing values", "column", n, log.MissingKey, m)
		}
		if err := raw.Set(n, col); err != nil {
			return nil, errors.Wrapf(err, "dataset: column %s", n)
		}
	}

	mass := raw.MustCol(physics.MassMMC)
	keep := make([]int, 0, total)
	for i, m := range mass {
		// NaN fails the comparison and is dropped with the non-positive rows.
		if m > 0 {
			keep = append(keep, i)
		}
	}
	if dropped := total - len(keep); dropped > 0 {
		errors.Warn(errors.NewRowsDroppedWarning(physics.MassMMC, dropped, total))
	}
	valid, err := raw.Rows(keep)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{}
	if training {
		labels := df.Col(physics.LabelCol).Records()
		ds.Target = make([]float64, len(keep))
		for k, i := range keep {
			switch strings.TrimSpace(labels[i]) {
			case physics.SignalLabel:
				ds.Target[k] = 1
			case physics.BackgroundLabel:
				ds.Target[k] = 0
			default:
				return nil, errors.NewLabelError(physics.LabelCol, i, labels[i],
					physics.SignalLabel, physics.BackgroundLabel)
			}
		}
		ds.Weight = append([]float64(nil), valid.MustCol(physics.WeightCol)...)
		if err := NormalizeWeights(ds.Weight, ds.Target); err != nil {
			return nil, err
		}
	}

	chain := model.Chain{preprocessing.NewKinematicTransformer(
		preprocessing.WithSentinel(o.sentinel),
		preprocessing.WithParallelThreshold(o.threshold),
		preprocessing.WithLogger(o.logger),
	)}
	features, err := append(chain, o.extra...).Transform(valid)
	if err != nil {
		return nil, err
	}

	if ids, err := features.Col(physics.EventID); err == nil {
		ds.EventIDs = append([]float64(nil), ids...)
	}
	features.Drop(physics.EventID, physics.WeightCol, physics.LabelCol)
	ds.Features = features

	rows, cols := features.Dims()
	o.logger.Info("dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SamplesKey, rows,
		log.FeaturesKey, cols,
		log.DroppedKey, total-len(keep),
		log.MissingKey, missing,
		"training", training,
	)
	return ds, nil
}

// NormalizeWeights divides each weight by the mean weight of its class so
// that both classes have mean weight 1. A class with no events is left
// alone.
func NormalizeWeights(weight, target []float64) error {
	if len(weight) != len(target) {
		return errors.NewDimensionError("dataset.NormalizeWeights", len(target), len(weight), 0)
	}
	for _, class := range []float64{0, 1} {
		var idx []int
		var ws []float64
		for i, t := range target {
			if t == class {
				idx = append(idx, i)
				ws = append(ws, weight[i])
			}
		}
		if len(ws) == 0 {
			continue
		}
		mean := stat.Mean(ws, nil)
		if mean == 0 || math.IsNaN(mean) {
			return errors.NewValueError("dataset.NormalizeWeights", "class weights have zero or undefined mean")
		}
		for _, i := range idx {
			weight[i] /= mean
		}
	}
	return nil
}

// sentinelSpellings lists the textual forms of the sentinel treated as
// missing by the CSV reader, in addition to the reader's own defaults.
func sentinelSpellings(sentinel float64) []string {
	s := strconv.FormatFloat(sentinel, 'g', -1, 64)
	out := []string{"NA", "NaN", "<nil>", s}
	if sentinel == math.Trunc(sentinel) {
		out = append(out, s+".0", s+".000")
	}
	return out
}
