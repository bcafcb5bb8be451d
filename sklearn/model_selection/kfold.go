// Package model_selection provides the deterministic cross-validation
// partition used by the training orchestrator.
package model_selection

import (
	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// DefaultNSplits is the number of folds used when none is configured.
const DefaultNSplits = 7

// CVFold represents a single fold in cross-validation
type CVFold struct {
	TrainIndices []int
	TestIndices  []int
}

// KFold assigns row i to fold i mod NSplits. The partition depends only on
// row order; there is no shuffling.
type KFold struct {
	NSplits int
}

// NewKFold creates a new modulo k-fold splitter. At least two splits are
// required.
func NewKFold(nSplits int) (*KFold, error) {
	if nSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", nSplits)
	}
	return &KFold{NSplits: nSplits}, nil
}

// GetNSplits returns the number of splits
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Assign returns the fold index of each of n rows.
func (kf *KFold) Assign(n int) []int {
	assign := make([]int, n)
	for i := range assign {
		assign[i] = i % kf.NSplits
	}
	return assign
}

// Split generates train/test indices for each fold of n rows.
func (kf *KFold) Split(n int) []CVFold {
	folds, _ := FoldsFromAssignment(kf.Assign(n), kf.NSplits)
	return folds
}

// Tile repeats a fold assignment times times, matching a dataset whose rows
// were concatenated with copies of themselves.
func Tile(assign []int, times int) []int {
	out := make([]int, 0, len(assign)*times)
	for t := 0; t < times; t++ {
		out = append(out, assign...)
	}
	return out
}

// FoldsFromAssignment builds the train/test split of each fold from per-row
// fold indices. Indices are in ascending row order.
func FoldsFromAssignment(assign []int, nSplits int) ([]CVFold, error) {
	folds := make([]CVFold, nSplits)
	for i, f := range assign {
		if f < 0 || f >= nSplits {
			return nil, errors.NewValidationError("fold", "fold index out of range", f)
		}
		for k := range folds {
			if k == f {
				folds[k].TestIndices = append(folds[k].TestIndices, i)
			} else {
				folds[k].TrainIndices = append(folds[k].TrainIndices, i)
			}
		}
	}
	return folds, nil
}
