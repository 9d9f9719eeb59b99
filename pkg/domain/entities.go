// Package domain defines the persistent entities, value types, and rule
// evaluation primitives shared across crosscore.
package domain

import (
	"time"

	"crosscore/pkg/genetics"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityConfiguration identifies a cross configuration record.
	EntityConfiguration EntityType = "cross_configuration"
	// EntityTrait identifies a trait catalog record.
	EntityTrait EntityType = "trait_record"
)

// ParentRole distinguishes the two genotype owners of a configuration.
type ParentRole string

// Parent roles of a cross.
const (
	RoleMother ParentRole = "mother"
	RoleFather ParentRole = "father"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Parent holds one side of a cross: the parent's sex and its genotype, one
// slot list per gene. The genotype is derived state, recomputed from the
// gene collection after every relevant mutation.
type Parent struct {
	Sex      genetics.Sex            `json:"sex"`
	Genotype genetics.ParentGenotype `json:"genotype"`
}

// Clone returns a deep copy of the parent.
func (p Parent) Clone() Parent {
	return Parent{Sex: p.Sex, Genotype: p.Genotype.Clone()}
}

// CrossConfiguration aggregates a gene collection, both parent genotypes,
// and the simulation count submitted to the external cross engine.
type CrossConfiguration struct {
	Base
	Name        string          `json:"name"`
	Genes       []genetics.Gene `json:"genes"`
	Mother      Parent          `json:"mother"`
	Father      Parent          `json:"father"`
	Simulations int             `json:"simulations"`
}

// FindGene returns the gene with the given identifier.
func (c CrossConfiguration) FindGene(id string) (genetics.Gene, bool) {
	for _, g := range c.Genes {
		if g.ID == id {
			return g, true
		}
	}
	return genetics.Gene{}, false
}

// GeneIndex returns the position of the gene with the given identifier, or -1.
func (c CrossConfiguration) GeneIndex(id string) int {
	for i, g := range c.Genes {
		if g.ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the configuration.
func (c CrossConfiguration) Clone() CrossConfiguration {
	out := c
	out.Genes = genetics.CloneGenes(c.Genes)
	out.Mother = c.Mother.Clone()
	out.Father = c.Father.Clone()
	return out
}

// TraitRecord is one entry of the trait catalog genes are inferred from. The
// embedded RawTrait carries the loosely typed source fields; Species scopes
// the record to the pack that registered it. Records are keyed by Key.
type TraitRecord struct {
	Base
	genetics.RawTrait
	Species string `json:"species,omitempty"`
}

// Clone returns a deep copy of the record.
func (t TraitRecord) Clone() TraitRecord {
	out := t
	if t.Alleles != nil {
		out.Alleles = append([]string(nil), t.Alleles...)
	}
	if t.Chromosomes != nil {
		out.Chromosomes = append([]string(nil), t.Chromosomes...)
	}
	if t.PhenotypeMap != nil {
		out.PhenotypeMap = make(map[string]string, len(t.PhenotypeMap))
		for k, v := range t.PhenotypeMap {
			out.PhenotypeMap[k] = v
		}
	}
	return out
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
