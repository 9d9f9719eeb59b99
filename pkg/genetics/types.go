// Package genetics implements the genotype configuration engine behind the
// cross dashboard: inference of structured gene definitions from raw trait
// records, sex-aware genotype normalization, completeness validation, and
// serialization of the payload consumed by the external cross-simulation
// engine. Every function in this package is pure and synchronous; callers
// own all state and re-run the sync helpers after each mutation.
package genetics

// ChromosomeType identifies the inheritance carrier of a gene.
type ChromosomeType string

// Chromosome types recognized by the engine. Values double as wire identifiers.
const (
	// ChromosomeAutosomal genes carry two copies in both sexes.
	ChromosomeAutosomal ChromosomeType = "autosomal"
	// ChromosomeX genes are hemizygous in males.
	ChromosomeX ChromosomeType = "x"
	// ChromosomeY genes are present only in males.
	ChromosomeY ChromosomeType = "y"
)

// DominancePattern identifies how the alleles of a gene interact.
type DominancePattern string

// Dominance patterns recognized by the engine. Values double as wire identifiers.
const (
	DominanceComplete   DominancePattern = "complete"
	DominanceCodominant DominancePattern = "codominant"
	DominanceIncomplete DominancePattern = "incomplete"
)

// Sex of a parent, used by the slot-count rule.
type Sex string

// Parent sexes.
const (
	SexFemale Sex = "female"
	SexMale   Sex = "male"
)

// Effect describes the contribution of one allele toward a trait. The
// intermediate descriptor labels the blended heterozygous phenotype and is
// only populated on incomplete-dominance genes.
type Effect struct {
	ID                     string  `json:"id"`
	TraitID                string  `json:"trait_id"`
	Magnitude              float64 `json:"magnitude"`
	Description            string  `json:"description,omitempty"`
	IntermediateDescriptor string  `json:"intermediate_descriptor,omitempty"`
}

// Allele is one variant of a gene. Higher dominance ranks mask lower ones.
type Allele struct {
	ID            string   `json:"id"`
	DominanceRank int      `json:"dominance_rank"`
	Effects       []Effect `json:"effects"`
}

// Gene is the canonical definition produced by BuildGene and edited by the
// configuration service. UID is assigned once and survives identifier
// renames; PriorIDs records every previous identifier, newest first, so
// genotype entries keyed by an old identifier can be carried forward.
type Gene struct {
	UID                      string           `json:"uid"`
	ID                       string           `json:"id"`
	Name                     string           `json:"name"`
	SourceTraitKey           string           `json:"source_trait_key,omitempty"`
	PriorIDs                 []string         `json:"prior_ids,omitempty"`
	Chromosome               ChromosomeType   `json:"chromosome"`
	Dominance                DominancePattern `json:"dominance"`
	DefaultAlleleID          string           `json:"default_allele_id"`
	Alleles                  []Allele         `json:"alleles"`
	LinkageGroup             *float64         `json:"linkage_group,omitempty"`
	RecombinationProbability *float64         `json:"recombination_probability,omitempty"`
	IncompleteBlendWeight    *float64         `json:"incomplete_blend_weight,omitempty"`
}

// HasAllele reports whether id names an allele of the gene.
func (g Gene) HasAllele(id string) bool {
	for _, allele := range g.Alleles {
		if allele.ID == id {
			return true
		}
	}
	return false
}

// FindAllele returns the allele with the given identifier.
func (g Gene) FindAllele(id string) (Allele, bool) {
	for _, allele := range g.Alleles {
		if allele.ID == id {
			return allele, true
		}
	}
	return Allele{}, false
}

// Clone returns a deep copy of the gene including alleles and effects.
func (g Gene) Clone() Gene {
	out := g
	if g.PriorIDs != nil {
		out.PriorIDs = append([]string(nil), g.PriorIDs...)
	}
	out.LinkageGroup = copyFloat(g.LinkageGroup)
	out.RecombinationProbability = copyFloat(g.RecombinationProbability)
	out.IncompleteBlendWeight = copyFloat(g.IncompleteBlendWeight)
	if g.Alleles != nil {
		out.Alleles = make([]Allele, len(g.Alleles))
		for i, allele := range g.Alleles {
			copied := allele
			if allele.Effects != nil {
				copied.Effects = append([]Effect(nil), allele.Effects...)
			}
			out.Alleles[i] = copied
		}
	}
	return out
}

// CloneGenes deep-copies a gene collection.
func CloneGenes(genes []Gene) []Gene {
	if genes == nil {
		return nil
	}
	out := make([]Gene, len(genes))
	for i, g := range genes {
		out[i] = g.Clone()
	}
	return out
}

// ParentGenotype maps gene identifiers to ordered allele slots. Slot counts
// are derived from chromosome type and parent sex, never stored.
type ParentGenotype map[string][]string

// Clone returns a deep copy of the genotype map. A nil receiver clones to an
// empty map.
func (p ParentGenotype) Clone() ParentGenotype {
	out := make(ParentGenotype, len(p))
	for geneID, slots := range p {
		copied := make([]string, len(slots))
		copy(copied, slots)
		out[geneID] = copied
	}
	return out
}

// RawTrait is the loosely typed catalog record inference starts from. The
// phenotype map keys allele pairs in whatever format the catalog source
// chose; see ResolvePhenotypeLabel.
type RawTrait struct {
	Key                string            `json:"key"`
	Name               string            `json:"name"`
	InheritancePattern string            `json:"inheritance_pattern"`
	Alleles            []string          `json:"alleles"`
	PhenotypeMap       map[string]string `json:"phenotype_map"`
	Chromosomes        []string          `json:"chromosomes,omitempty"`
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := *v
	return &value
}
