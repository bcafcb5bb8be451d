package dataset

import (
	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// ClassColumn is the feature that carries the original class into the
// weight model.
const ClassColumn = "target"

// Augment builds the training set of the weight model. The result has 2n
// rows: the n original events followed by a copy of them. Both halves carry
// the original class as the ClassColumn feature. The learner target is 1 on
// the first half and 0 on the copy. Weights are the original weights on the
// first half and 1 on the copy.
//
// d is not modified.
func Augment(d *Dataset) (*Dataset, error) {
	if !d.Training() {
		return nil, errors.NewValueError("dataset.Augment", "dataset has no target")
	}
	n := d.Len()
	if len(d.Target) != n {
		return nil, errors.NewDimensionError("dataset.Augment", n, len(d.Target), 0)
	}

	tagged, err := WithClass(d.Features, d.Target)
	if err != nil {
		return nil, err
	}
	features, err := table.Concat(tagged, tagged)
	if err != nil {
		return nil, err
	}

	out := &Dataset{
		Features: features,
		Target:   make([]float64, 2*n),
		Weight:   make([]float64, 2*n),
	}
	for i := 0; i < n; i++ {
		out.Target[i] = 1
		out.Weight[i] = 1
		out.Weight[n+i] = 1
	}
	if d.Weight != nil {
		if len(d.Weight) != n {
			return nil, errors.NewDimensionError("dataset.Augment", n, len(d.Weight), 0)
		}
		copy(out.Weight, d.Weight)
	}
	if d.EventIDs != nil {
		out.EventIDs = append(append(make([]float64, 0, 2*n), d.EventIDs...), d.EventIDs...)
	}
	return out, nil
}

// WithClass returns a copy of features with ClassColumn appended.
func WithClass(features *table.EventTable, class []float64) (*table.EventTable, error) {
	out := features.Clone()
	if err := out.Set(ClassColumn, append([]float64(nil), class...)); err != nil {
		return nil, err
	}
	return out, nil
}

// Doubled returns the test matrix of the weight model: every row tagged
// with class 1, followed by every row tagged with class 0.
func Doubled(features *table.EventTable) (*table.EventTable, error) {
	n := features.Len()
	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	pos, err := WithClass(features, ones)
	if err != nil {
		return nil, err
	}
	neg, err := WithClass(features, make([]float64, n))
	if err != nil {
		return nil, err
	}
	return table.Concat(pos, neg)
}
