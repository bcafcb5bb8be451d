// Package preprocessing derives physics features from raw Higgs event
// measurements.
package preprocessing

import (
	"math"
	"sync"
	"time"

	"github.com/YuminosukeSato/higgsml/core/parallel"
	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/physics"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
	"github.com/YuminosukeSato/higgsml/pkg/log"
)

// Object indices into event.objects.
const (
	met = iota
	tau
	lep
	jet1
	jet2
	numObjects
)

var objectTags = [numObjects]string{"met", "tau", "lep", "jet1", "jet2"}

type objectPair struct{ a, b int }

func (p objectPair) tag() string {
	if p.a == jet1 && p.b == jet2 {
		return "jet_jet"
	}
	return objectTags[p.a] + "_" + objectTags[p.b]
}

// visiblePairs are the unordered pairs of the visible objects.
var visiblePairs = []objectPair{
	{tau, lep}, {tau, jet1}, {tau, jet2},
	{lep, jet1}, {lep, jet2}, {jet1, jet2},
}

// transversePairs adds the MET pairings to visiblePairs.
var transversePairs = append([]objectPair{
	{met, tau}, {met, lep}, {met, jet1}, {met, jet2},
}, visiblePairs...)

// event holds the raw inputs of one row.
type event struct {
	objects  [numObjects]Particle
	jetAllPt float64
}

type feature struct {
	name string
	eval func(e *event, c *tally) float64
}

// featureSet is the ordered list of engineered columns.
var featureSet = buildFeatureSet()

func buildFeatureSet() []feature {
	var fs []feature
	add := func(name string, eval func(e *event, c *tally) float64) {
		fs = append(fs, feature{name: name, eval: eval})
	}

	for _, o := range []int{tau, lep, jet1, jet2} {
		add("TIM_abs_eta_"+objectTags[o], func(e *event, _ *tally) float64 {
			return math.Abs(e.objects[o].Eta)
		})
	}
	for _, p := range visiblePairs {
		add("TIM_deltaeta_"+p.tag(), func(e *event, _ *tally) float64 {
			return DeltaEta(e.objects[p.a].Eta, e.objects[p.b].Eta)
		})
	}
	for _, p := range visiblePairs {
		add("TIM_prodeta_"+p.tag(), func(e *event, _ *tally) float64 {
			return e.objects[p.a].Eta * e.objects[p.b].Eta
		})
	}
	for _, p := range visiblePairs {
		add("TIM_deltar_"+p.tag(), func(e *event, _ *tally) float64 {
			return DeltaR(e.objects[p.a], e.objects[p.b])
		})
	}

	add("TIM_met_phi_centrality", func(e *event, c *tally) float64 {
		return metPhiCentrality(e.objects[tau], e.objects[lep], e.objects[met], c)
	})
	for _, o := range []int{lep, tau} {
		add("TIM_"+objectTags[o]+"_eta_centrality", func(e *event, c *tally) float64 {
			return etaCentrality(e.objects[o].Eta, e.objects[jet1].Eta, e.objects[jet2].Eta, c)
		})
	}

	for _, p := range transversePairs {
		add("TIM_pt2_"+p.tag(), func(e *event, _ *tally) float64 {
			return PtSum2(e.objects[p.a], e.objects[p.b])
		})
	}
	for _, p := range transversePairs {
		add("TIM_trans_mass_"+p.tag(), func(e *event, c *tally) float64 {
			return transverseMass(e.objects[p.a], e.objects[p.b], c)
		})
	}
	for _, p := range visiblePairs {
		add("TIM_p2_"+p.tag(), func(e *event, _ *tally) float64 {
			return P2(e.objects[p.a], e.objects[p.b])
		})
	}
	for _, o := range []int{tau, lep, jet1, jet2} {
		add("E_"+objectTags[o], func(e *event, _ *tally) float64 {
			return e.objects[o].Energy()
		})
	}
	for _, p := range visiblePairs {
		add("TIM_mass_"+p.tag(), func(e *event, c *tally) float64 {
			return invariantMass(e.objects[p.a], e.objects[p.b], c)
		})
	}

	// Cumulative vector sums; a missing jet contributes nothing.
	add("TIM_pt_met_tau_lep", func(e *event, _ *tally) float64 {
		return e.vectorPt(false, false)
	})
	add("TIM_pt_met_tau_lep_jet1", func(e *event, _ *tally) float64 {
		return e.vectorPt(true, false)
	})
	add("TIM_pt_met_tau_lep_jet1_jet2", func(e *event, _ *tally) float64 {
		return e.vectorPt(true, true)
	})

	add("TIM_sum_pt_met_tau_lep", func(e *event, _ *tally) float64 {
		return e.scalarPt()
	})
	add("TIM_sum_pt_met_tau_lep_jet1", func(e *event, _ *tally) float64 {
		return e.scalarPt() + errors.ZeroIfMissing(e.objects[jet1].Pt)
	})
	add("TIM_sum_pt_met_tau_lep_jet1_jet2", func(e *event, _ *tally) float64 {
		return e.scalarPt() + errors.ZeroIfMissing(e.objects[jet1].Pt) + errors.ZeroIfMissing(e.objects[jet2].Pt)
	})
	add("TIM_sum_pt_met_tau_lep_jet_all", func(e *event, _ *tally) float64 {
		return e.scalarPt() + errors.ZeroIfMissing(e.objects[jet1].Pt) + e.jetAllPt
	})

	add("TIM_sum_pt", func(e *event, _ *tally) float64 {
		return e.objects[tau].Pt + e.objects[lep].Pt + e.jetAllPt
	})
	add("TIM_pt_ratio_lep_tau", func(e *event, c *tally) float64 {
		return c.div(e.objects[lep].Pt, e.objects[tau].Pt)
	})

	return fs
}

func (e *event) vectorPt(withJet1, withJet2 bool) float64 {
	var px, py float64
	for _, o := range []int{met, tau, lep} {
		px += e.objects[o].Px()
		py += e.objects[o].Py()
	}
	if withJet1 {
		px += errors.ZeroIfMissing(e.objects[jet1].Px())
		py += errors.ZeroIfMissing(e.objects[jet1].Py())
	}
	if withJet2 {
		px += errors.ZeroIfMissing(e.objects[jet2].Px())
		py += errors.ZeroIfMissing(e.objects[jet2].Py())
	}
	return math.Sqrt(px*px + py*py)
}

func (e *event) scalarPt() float64 {
	return e.objects[met].Pt + e.objects[tau].Pt + e.objects[lep].Pt
}

// FeatureNames returns the engineered column names in output order.
func FeatureNames() []string {
	names := make([]string, len(featureSet))
	for i, f := range featureSet {
		names[i] = f.name
	}
	return names
}

// KinematicTransformer turns a raw event table into the feature table handed
// to the learner:
//
//  1. drop every derived column except the reconstructed mass
//  2. append the engineered features (FeatureNames)
//  3. drop the raw azimuth and pseudorapidity columns
//  4. replace every missing value with the sentinel
//
// The transform is one-shot: its output lacks the raw angular columns, so
// applying it again fails with a MissingColumnError.
type KinematicTransformer struct {
	sentinel  float64
	threshold int
	logger    log.Logger
}

// Option configures a KinematicTransformer.
type Option func(*KinematicTransformer)

// WithSentinel sets the value that replaces missing values in the output.
func WithSentinel(v float64) Option {
	return func(k *KinematicTransformer) {
		k.sentinel = v
	}
}

// WithParallelThreshold sets the row count above which rows are processed
// in parallel.
func WithParallelThreshold(n int) Option {
	return func(k *KinematicTransformer) {
		k.threshold = n
	}
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(k *KinematicTransformer) {
		k.logger = l
	}
}

// NewKinematicTransformer creates a transformer with the given options.
func NewKinematicTransformer(opts ...Option) *KinematicTransformer {
	k := &KinematicTransformer{
		sentinel:  errors.MissingSentinel,
		threshold: 4096,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.logger == nil {
		k.logger = log.GetLoggerWithName("preprocessing")
	}
	return k
}

// Transform implements model.Transformer. The input table is not modified.
func (k *KinematicTransformer) Transform(in *table.EventTable) (*table.EventTable, error) {
	const op = "KinematicTransformer.Transform"
	start := time.Now()

	raw := make(map[string][]float64, len(physics.Required()))
	for _, name := range physics.Required() {
		col, err := in.Col(name)
		if err != nil {
			return nil, errors.NewMissingColumnError(op, name)
		}
		raw[name] = col
	}

	out := in.Clone()
	out.Drop(physics.RedundantDerived()...)

	n := in.Len()
	cols := make([][]float64, len(featureSet))
	for j := range cols {
		cols[j] = make([]float64, n)
	}
	undefined := make([]int, len(featureSet))
	var mu sync.Mutex

	parallel.ParallelizeWithThreshold(n, k.threshold, func(startRow, endRow int) {
		local := make([]int, len(featureSet))
		var e event
		var c tally
		for i := startRow; i < endRow; i++ {
			e = event{
				objects: [numObjects]Particle{
					met:  {Pt: raw[physics.Met][i], Eta: math.NaN(), Phi: raw[physics.MetPhi][i]},
					tau:  {Pt: raw[physics.TauPt][i], Eta: raw[physics.TauEta][i], Phi: raw[physics.TauPhi][i]},
					lep:  {Pt: raw[physics.LepPt][i], Eta: raw[physics.LepEta][i], Phi: raw[physics.LepPhi][i]},
					jet1: {Pt: raw[physics.Jet1Pt][i], Eta: raw[physics.Jet1Eta][i], Phi: raw[physics.Jet1Phi][i]},
					jet2: {Pt: raw[physics.Jet2Pt][i], Eta: raw[physics.Jet2Eta][i], Phi: raw[physics.Jet2Phi][i]},
				},
				jetAllPt: raw[physics.JetAllPt][i],
			}
			for j, f := range featureSet {
				c.undefined = false
				cols[j][i] = errors.MissingIfNonFinite(f.eval(&e, &c))
				if c.undefined {
					local[j]++
				}
			}
		}
		mu.Lock()
		for j, v := range local {
			undefined[j] += v
		}
		mu.Unlock()
	})

	for j, f := range featureSet {
		if err := out.Set(f.name, cols[j]); err != nil {
			return nil, errors.Wrapf(err, "%s: %s", op, f.name)
		}
		if undefined[j] > 0 {
			errors.Warn(errors.NewUndefinedFeatureWarning(f.name, undefined[j], n))
		}
	}

	out.Drop(physics.RawAngles()...)
	out.Fill(k.sentinel)

	rows, features := out.Dims()
	k.logger.Debug("features engineered",
		log.OperationKey, log.OperationTransform,
		log.SamplesKey, rows,
		log.FeaturesKey, features,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return out, nil
}
