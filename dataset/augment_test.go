package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

func smallDataset(t *testing.T) *Dataset {
	t.Helper()
	features, err := table.FromColumns(
		[]string{"a", "b"},
		[][]float64{{1, 2, 3}, {10, 20, 30}},
	)
	require.NoError(t, err)
	return &Dataset{
		Features: features,
		Target:   []float64{1, 0, 0},
		Weight:   []float64{0.5, 1.5, 1.0},
		EventIDs: []float64{7, 8, 9},
	}
}

func TestAugment(t *testing.T) {
	d := smallDataset(t)
	aug, err := Augment(d)
	require.NoError(t, err)

	assert.Equal(t, 6, aug.Len())
	assert.Equal(t, []string{"a", "b", ClassColumn}, aug.Features.Names())
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, aug.Features.MustCol("a"))
	assert.Equal(t, []float64{1, 0, 0, 1, 0, 0}, aug.Features.MustCol(ClassColumn))
	assert.Equal(t, []float64{1, 1, 1, 0, 0, 0}, aug.Target)
	assert.Equal(t, []float64{0.5, 1.5, 1.0, 1, 1, 1}, aug.Weight)
	assert.Equal(t, []float64{7, 8, 9, 7, 8, 9}, aug.EventIDs)

	// The source dataset is untouched.
	assert.Equal(t, []string{"a", "b"}, d.Features.Names())
	assert.Equal(t, []float64{1, 0, 0}, d.Target)
}

func TestAugmentWithoutWeights(t *testing.T) {
	d := smallDataset(t)
	d.Weight = nil
	aug, err := Augment(d)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, aug.Weight)
}

func TestAugmentErrors(t *testing.T) {
	d := smallDataset(t)
	d.Target = nil
	_, err := Augment(d)
	var valErr *errors.ValueError
	assert.True(t, errors.As(err, &valErr))

	d = smallDataset(t)
	d.Weight = []float64{1}
	_, err = Augment(d)
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestDoubled(t *testing.T) {
	d := smallDataset(t)
	doubled, err := Doubled(d.Features)
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 20, 30, 10, 20, 30}, doubled.MustCol("b"))
	assert.Equal(t, []float64{1, 1, 1, 0, 0, 0}, doubled.MustCol(ClassColumn))
	assert.False(t, d.Features.Has(ClassColumn))
}
