package genetics

import (
	"encoding/json"
	"math"
	"strings"
)

// Wire types mirroring the JSON contract of the external cross-simulation
// engine. Field names are part of that contract.

// PayloadEffect is one effect entry on the wire. Empty descriptions are
// omitted rather than serialized blank.
type PayloadEffect struct {
	TraitID                string  `json:"trait_id"`
	Magnitude              float64 `json:"magnitude"`
	Description            string  `json:"description,omitempty"`
	IntermediateDescriptor string  `json:"intermediate_descriptor,omitempty"`
}

// PayloadAllele is one allele entry on the wire.
type PayloadAllele struct {
	ID            string          `json:"id"`
	DominanceRank int             `json:"dominance_rank"`
	Effects       []PayloadEffect `json:"effects"`
}

// PayloadGene is one gene entry on the wire. Optional numeric parameters are
// omitted when absent, never coerced to zero.
type PayloadGene struct {
	ID                       string           `json:"id"`
	Chromosome               ChromosomeType   `json:"chromosome"`
	Dominance                DominancePattern `json:"dominance"`
	DefaultAlleleID          string           `json:"default_allele_id"`
	Alleles                  []PayloadAllele  `json:"alleles"`
	LinkageGroup             *float64         `json:"linkage_group,omitempty"`
	RecombinationProbability *float64         `json:"recombination_probability,omitempty"`
	IncompleteBlendWeight    *float64         `json:"incomplete_blend_weight,omitempty"`
}

// PayloadParent carries one parent's sex and genotype on the wire.
type PayloadParent struct {
	Sex      Sex            `json:"sex"`
	Genotype ParentGenotype `json:"genotype"`
}

// CrossPayload is the request body sent to the external cross-simulation
// engine. Epistasis is reserved by the engine contract and always
// serializes as an empty list.
type CrossPayload struct {
	Genes       []PayloadGene     `json:"genes"`
	Mother      PayloadParent     `json:"mother"`
	Father      PayloadParent     `json:"father"`
	Epistasis   []json.RawMessage `json:"epistasis"`
	Simulations int               `json:"simulations"`
}

// BuildInput carries everything BuildPayload serializes. Genotype maps are
// copied, never retained.
type BuildInput struct {
	Genes          []Gene
	MotherSex      Sex
	MotherGenotype ParentGenotype
	FatherSex      Sex
	FatherGenotype ParentGenotype
	Simulations    int
}

// BuildPayload serializes a gene collection plus both parents into the wire
// format of the external cross-simulation engine. Gene identifiers fall
// back to the internal uid when trimmed empty; non-finite numeric
// parameters are treated as absent. No validation happens here; run
// ValidateGenes first.
func BuildPayload(in BuildInput) CrossPayload {
	genes := make([]PayloadGene, 0, len(in.Genes))
	for _, g := range in.Genes {
		id := strings.TrimSpace(g.ID)
		if id == "" {
			id = g.UID
		}
		alleles := make([]PayloadAllele, 0, len(g.Alleles))
		for _, allele := range g.Alleles {
			effects := make([]PayloadEffect, 0, len(allele.Effects))
			for _, effect := range allele.Effects {
				effects = append(effects, PayloadEffect{
					TraitID:                strings.TrimSpace(effect.TraitID),
					Magnitude:              effect.Magnitude,
					Description:            strings.TrimSpace(effect.Description),
					IntermediateDescriptor: strings.TrimSpace(effect.IntermediateDescriptor),
				})
			}
			alleles = append(alleles, PayloadAllele{
				ID:            allele.ID,
				DominanceRank: allele.DominanceRank,
				Effects:       effects,
			})
		}
		genes = append(genes, PayloadGene{
			ID:                       id,
			Chromosome:               g.Chromosome,
			Dominance:                g.Dominance,
			DefaultAlleleID:          ResolveDefaultAlleleID(g),
			Alleles:                  alleles,
			LinkageGroup:             finiteOrNil(g.LinkageGroup),
			RecombinationProbability: finiteOrNil(g.RecombinationProbability),
			IncompleteBlendWeight:    finiteOrNil(g.IncompleteBlendWeight),
		})
	}
	return CrossPayload{
		Genes:       genes,
		Mother:      PayloadParent{Sex: in.MotherSex, Genotype: in.MotherGenotype.Clone()},
		Father:      PayloadParent{Sex: in.FatherSex, Genotype: in.FatherGenotype.Clone()},
		Epistasis:   []json.RawMessage{},
		Simulations: in.Simulations,
	}
}

// finiteOrNil copies an optional numeric parameter, treating NaN and
// infinities as absent.
func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	value := *v
	return &value
}
