package physics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedundantDerived(t *testing.T) {
	der := RedundantDerived()
	assert.Len(t, der, 12)
	assert.NotContains(t, der, MassMMC)
	for _, n := range der {
		assert.True(t, strings.HasPrefix(n, "DER_"), n)
	}
}

func TestRawAngles(t *testing.T) {
	angles := RawAngles()
	assert.ElementsMatch(t, []string{
		TauPhi, LepPhi, MetPhi, Jet1Phi, Jet2Phi,
		TauEta, LepEta, Jet1Eta, Jet2Eta,
	}, angles)
	for _, n := range angles {
		assert.True(t, strings.HasSuffix(n, "phi") || strings.HasSuffix(n, "eta"), n)
	}
}

func TestLookup(t *testing.T) {
	c, ok := Lookup(MassMMC)
	assert.True(t, ok)
	assert.Equal(t, Derived, c.Kind)
	assert.True(t, c.Keep)

	_, ok = Lookup("TIM_sum_pt")
	assert.False(t, ok)

	assert.True(t, IsTextColumn(LabelCol))
	assert.False(t, IsTextColumn(WeightCol))
	assert.Equal(t, "azimuth", Azimuth.String())
}

func TestRequiredColumnsAreInSchema(t *testing.T) {
	for _, n := range Required() {
		_, ok := Lookup(n)
		assert.True(t, ok, n)
	}
}
