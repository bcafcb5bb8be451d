// Package physics describes the columns of the Higgs boson event files and
// the role each plays in the pipeline.
//
// Column selection is driven by this schema rather than by matching name
// prefixes or suffixes: every step that drops or requires columns asks the
// schema for the columns of a given Kind.
package physics

// Kind classifies a column.
type Kind int

const (
	// Identifier is the row id (EventId).
	Identifier Kind = iota
	// Momentum is a raw transverse momentum or energy-like measurement.
	Momentum
	// Azimuth is a raw azimuthal angle φ.
	Azimuth
	// Pseudorapidity is a raw pseudorapidity η.
	Pseudorapidity
	// Count is a raw integer-valued measurement (jet multiplicity).
	Count
	// Derived is a DER_* quantity computed by the data producer.
	Derived
	// Label is the categorical signal/background class.
	Label
	// Weight is the per-event importance weight.
	Weight
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case Momentum:
		return "momentum"
	case Azimuth:
		return "azimuth"
	case Pseudorapidity:
		return "pseudorapidity"
	case Count:
		return "count"
	case Derived:
		return "derived"
	case Label:
		return "label"
	case Weight:
		return "weight"
	default:
		return "unknown"
	}
}

// Column describes one input column.
type Column struct {
	Name string
	Kind Kind
	// Keep marks derived columns that survive the derived-column drop.
	Keep bool
}

// Raw column names referenced by the feature transform.
const (
	EventID   = "EventId"
	LabelCol  = "Label"
	WeightCol = "Weight"

	MassMMC = "DER_mass_MMC"

	TauPt  = "PRI_tau_pt"
	TauEta = "PRI_tau_eta"
	TauPhi = "PRI_tau_phi"

	LepPt  = "PRI_lep_pt"
	LepEta = "PRI_lep_eta"
	LepPhi = "PRI_lep_phi"

	Met      = "PRI_met"
	MetPhi   = "PRI_met_phi"
	MetSumEt = "PRI_met_sumet"

	JetNum = "PRI_jet_num"

	Jet1Pt  = "PRI_jet_leading_pt"
	Jet1Eta = "PRI_jet_leading_eta"
	Jet1Phi = "PRI_jet_leading_phi"

	Jet2Pt  = "PRI_jet_subleading_pt"
	Jet2Eta = "PRI_jet_subleading_eta"
	Jet2Phi = "PRI_jet_subleading_phi"

	JetAllPt = "PRI_jet_all_pt"
)

// Label values.
const (
	SignalLabel     = "s"
	BackgroundLabel = "b"
)

// Schema is the ordered column set of the event files.
var Schema = []Column{
	{Name: EventID, Kind: Identifier},

	{Name: MassMMC, Kind: Derived, Keep: true},
	{Name: "DER_mass_transverse_met_lep", Kind: Derived},
	{Name: "DER_mass_vis", Kind: Derived},
	{Name: "DER_pt_h", Kind: Derived},
	{Name: "DER_deltaeta_jet_jet", Kind: Derived},
	{Name: "DER_mass_jet_jet", Kind: Derived},
	{Name: "DER_prodeta_jet_jet", Kind: Derived},
	{Name: "DER_deltar_tau_lep", Kind: Derived},
	{Name: "DER_pt_tot", Kind: Derived},
	{Name: "DER_sum_pt", Kind: Derived},
	{Name: "DER_pt_ratio_lep_tau", Kind: Derived},
	{Name: "DER_met_phi_centrality", Kind: Derived},
	{Name: "DER_lep_eta_centrality", Kind: Derived},

	{Name: TauPt, Kind: Momentum},
	{Name: TauEta, Kind: Pseudorapidity},
	{Name: TauPhi, Kind: Azimuth},
	{Name: LepPt, Kind: Momentum},
	{Name: LepEta, Kind: Pseudorapidity},
	{Name: LepPhi, Kind: Azimuth},
	{Name: Met, Kind: Momentum},
	{Name: MetPhi, Kind: Azimuth},
	{Name: MetSumEt, Kind: Momentum},
	{Name: JetNum, Kind: Count},
	{Name: Jet1Pt, Kind: Momentum},
	{Name: Jet1Eta, Kind: Pseudorapidity},
	{Name: Jet1Phi, Kind: Azimuth},
	{Name: Jet2Pt, Kind: Momentum},
	{Name: Jet2Eta, Kind: Pseudorapidity},
	{Name: Jet2Phi, Kind: Azimuth},
	{Name: JetAllPt, Kind: Momentum},

	{Name: WeightCol, Kind: Weight},
	{Name: LabelCol, Kind: Label},
}

var byName = func() map[string]Column {
	m := make(map[string]Column, len(Schema))
	for _, c := range Schema {
		m[c.Name] = c
	}
	return m
}()

// Lookup returns the schema entry for name.
func Lookup(name string) (Column, bool) {
	c, ok := byName[name]
	return c, ok
}

// Names returns the names of all schema columns of the given kinds, in
// schema order.
func Names(kinds ...Kind) []string {
	want := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	var out []string
	for _, c := range Schema {
		if want[c.Kind] {
			out = append(out, c.Name)
		}
	}
	return out
}

// RedundantDerived returns the derived columns removed before feature
// engineering: every DER_* column except the reconstructed mass.
func RedundantDerived() []string {
	var out []string
	for _, c := range Schema {
		if c.Kind == Derived && !c.Keep {
			out = append(out, c.Name)
		}
	}
	return out
}

// RawAngles returns the azimuth and pseudorapidity columns, which are not
// rotationally invariant and are dropped after feature engineering.
func RawAngles() []string {
	return Names(Azimuth, Pseudorapidity)
}

// Required returns the raw columns the feature transform reads.
func Required() []string {
	return []string{
		TauPt, TauEta, TauPhi,
		LepPt, LepEta, LepPhi,
		Met, MetPhi,
		Jet1Pt, Jet1Eta, Jet1Phi,
		Jet2Pt, Jet2Eta, Jet2Phi,
		JetAllPt,
	}
}

// IsTextColumn reports whether the column holds non-numeric values.
func IsTextColumn(name string) bool {
	c, ok := Lookup(name)
	return ok && c.Kind == Label
}
