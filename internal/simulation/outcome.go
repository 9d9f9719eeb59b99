package simulation

import "crosscore/pkg/genetics"

// PhenotypeShare is one phenotype bucket of a simulated offspring
// distribution.
type PhenotypeShare struct {
	TraitID  string  `json:"trait_id"`
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

// SexShare is one sex bucket of a simulated offspring distribution.
type SexShare struct {
	Sex      genetics.Sex `json:"sex"`
	Count    int          `json:"count"`
	Fraction float64      `json:"fraction"`
}

// Outcome is the decoded response of the external cross-simulation engine.
// crosscore treats it as opaque transport data; no distribution math happens
// on this side of the boundary.
type Outcome struct {
	Simulations int              `json:"simulations"`
	Phenotypes  []PhenotypeShare `json:"phenotypes"`
	Sexes       []SexShare       `json:"sexes"`
}
