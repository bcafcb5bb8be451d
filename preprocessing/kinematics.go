package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// Particle is a reconstructed object in collider coordinates. MET has no
// pseudorapidity; its Eta is NaN.
type Particle struct {
	Pt  float64
	Eta float64
	Phi float64
}

// Px is the x component of the transverse momentum.
func (p Particle) Px() float64 { return p.Pt * math.Cos(p.Phi) }

// Py is the y component of the transverse momentum.
func (p Particle) Py() float64 { return p.Pt * math.Sin(p.Phi) }

// Pz is the longitudinal momentum.
func (p Particle) Pz() float64 { return p.Pt * math.Sinh(p.Eta) }

// Energy is the lab-frame energy of a massless particle, pt·cosh(η).
func (p Particle) Energy() float64 { return p.Pt * math.Cosh(p.Eta) }

// DeltaPhi returns |φa − φb| wrapped into [0, π].
func DeltaPhi(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// DeltaEta returns |ηa − ηb|.
func DeltaEta(a, b float64) float64 {
	return math.Abs(a - b)
}

// DeltaR is the angular separation sqrt(Δη² + Δφ²) with Δφ wrapped.
func DeltaR(a, b Particle) float64 {
	de := DeltaEta(a.Eta, b.Eta)
	dp := DeltaPhi(a.Phi, b.Phi)
	return math.Sqrt(de*de + dp*dp)
}

// tally records whether the feature being evaluated hit undefined arithmetic
// on otherwise defined inputs.
type tally struct {
	undefined bool
}

func (c *tally) sqrt(x float64) float64 {
	if !errors.IsMissing(x) && x < 0 {
		c.undefined = true
	}
	return errors.SafeSqrt(x)
}

func (c *tally) div(n, d float64) float64 {
	if !errors.IsMissing(n) && !errors.IsMissing(d) && d == 0 {
		c.undefined = true
	}
	return errors.SafeDivide(n, d)
}

// MetPhiCentrality measures whether the MET direction lies between the tau
// and lepton in the transverse plane. The result lies in [−√2, √2]; it is
// missing when both sine terms vanish.
func MetPhiCentrality(tau, lep, met Particle) float64 {
	return metPhiCentrality(tau, lep, met, &tally{})
}

func metPhiCentrality(tau, lep, met Particle, c *tally) float64 {
	d := tau.Phi - lep.Phi
	sign := 1.0
	if d > math.Pi || (d < 0 && d > -math.Pi) {
		sign = -1.0
	}
	a := math.Sin(met.Phi - lep.Phi)
	b := math.Sin(tau.Phi - met.Phi)
	return sign * c.div(a+b, math.Sqrt(a*a+b*b))
}

// EtaCentrality is a Gaussian-shaped score, 1 when eta is midway between
// the two jets and falling off with a width set by the jet gap. It is
// missing when the jets have equal pseudorapidity.
func EtaCentrality(eta, jet1Eta, jet2Eta float64) float64 {
	return etaCentrality(eta, jet1Eta, jet2Eta, &tally{})
}

func etaCentrality(eta, jet1Eta, jet2Eta float64, c *tally) float64 {
	mid := eta - (jet1Eta+jet2Eta)/2
	gap := jet1Eta - jet2Eta
	return math.Exp(-4.0 * c.div(mid*mid, gap*gap))
}

// PtSum2 is the squared magnitude of the vector sum of the transverse
// momenta of a and b.
func PtSum2(a, b Particle) float64 {
	px := a.Px() + b.Px()
	py := a.Py() + b.Py()
	return px*px + py*py
}

// TransverseMass is sqrt((pt_a + pt_b)² − |pt_a + pt_b|²), using scalar pt
// in place of transverse energy. A negative radicand yields a missing value.
func TransverseMass(a, b Particle) float64 {
	return transverseMass(a, b, &tally{})
}

func transverseMass(a, b Particle, c *tally) float64 {
	s := a.Pt + b.Pt
	return c.sqrt(s*s - PtSum2(a, b))
}

// P2 is the squared magnitude of the summed 3-momentum of a and b.
func P2(a, b Particle) float64 {
	pz := a.Pz() + b.Pz()
	return PtSum2(a, b) + pz*pz
}

// InvariantMass is sqrt((E_a + E_b)² − |p_a + p_b|²) for massless a and b.
// A negative radicand yields a missing value.
func InvariantMass(a, b Particle) float64 {
	return invariantMass(a, b, &tally{})
}

func invariantMass(a, b Particle, c *tally) float64 {
	e := a.Energy() + b.Energy()
	return c.sqrt(e*e - P2(a, b))
}
