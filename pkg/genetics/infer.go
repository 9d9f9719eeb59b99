package genetics

import "strings"

// Keyword lists driving free-text inheritance classification. Matching is
// case-insensitive substring search; unmatched text falls back to the most
// conservative classification (complete dominance, autosomal carrier).
var (
	codominantKeywords = []string{"codominant"}
	incompleteKeywords = []string{"incomplete"}
	xLinkedKeywords    = []string{"x-linked"}
	yLinkedKeywords    = []string{"y-linked"}
)

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// InferDominance classifies free inheritance text into a dominance pattern.
// Ambiguous or empty text is treated as complete dominance.
func InferDominance(inheritance string) DominancePattern {
	text := strings.ToLower(inheritance)
	switch {
	case matchesAny(text, codominantKeywords):
		return DominanceCodominant
	case matchesAny(text, incompleteKeywords):
		return DominanceIncomplete
	default:
		return DominanceComplete
	}
}

// InferChromosome classifies the carrier chromosome. Free text wins over the
// structured chromosome list; anything unrecognized is autosomal.
func InferChromosome(inheritance string, chromosomes []string) ChromosomeType {
	text := strings.ToLower(inheritance)
	switch {
	case matchesAny(text, xLinkedKeywords):
		return ChromosomeX
	case matchesAny(text, yLinkedKeywords):
		return ChromosomeY
	}
	for _, c := range chromosomes {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case "x":
			return ChromosomeX
		case "y":
			return ChromosomeY
		}
	}
	return ChromosomeAutosomal
}

// dominanceRank assigns the positional rank for the allele at index within a
// gene of count alleles. Codominant genes with more than two alleles keep
// rank 2 on the first two positions only; every later allele is recessive to
// them.
func dominanceRank(pattern DominancePattern, index, count int) int {
	if pattern == DominanceCodominant {
		if count > 2 && index >= 2 {
			return 1
		}
		return 2
	}
	if index == 0 {
		return 2
	}
	return 1
}

// BuildGene converts one raw catalog trait into a canonical gene definition.
// The result is deterministic except for fallback identifiers, which are
// generated only when both key and name slugify to nothing. Callers own
// identifier de-duplication across a collection; see UniqueGeneID and
// Gene.Rename.
func BuildGene(trait RawTrait) Gene {
	id := Slugify(trait.Key)
	if id == "" {
		id = Slugify(trait.Name)
	}
	if id == "" {
		id = FallbackGeneID()
	}
	name := strings.TrimSpace(trait.Name)
	if name == "" {
		name = strings.TrimSpace(trait.Key)
	}
	dominance := InferDominance(trait.InheritancePattern)
	chromosome := InferChromosome(trait.InheritancePattern, trait.Chromosomes)

	intermediate := ""
	if dominance == DominanceIncomplete && len(trait.Alleles) >= 2 {
		if label, ok := ResolvePhenotypeLabel(trait.PhenotypeMap, trait.Alleles[0], trait.Alleles[1]); ok {
			intermediate = label
		}
	}

	alleles := make([]Allele, 0, len(trait.Alleles))
	for i, alleleID := range trait.Alleles {
		rank := dominanceRank(dominance, i, len(trait.Alleles))
		magnitude := 0.0
		if rank > 1 {
			magnitude = 1.0
		}
		description := alleleID
		if label, ok := ResolvePhenotypeLabel(trait.PhenotypeMap, alleleID, alleleID); ok {
			description = label
		}
		alleles = append(alleles, Allele{
			ID:            alleleID,
			DominanceRank: rank,
			Effects: []Effect{{
				ID:                     EffectID(id, alleleID),
				TraitID:                id,
				Magnitude:              magnitude,
				Description:            description,
				IntermediateDescriptor: intermediate,
			}},
		})
	}

	gene := Gene{
		UID:            NewGeneUID(),
		ID:             id,
		Name:           name,
		SourceTraitKey: trait.Key,
		Chromosome:     chromosome,
		Dominance:      dominance,
		Alleles:        alleles,
	}
	if len(alleles) > 0 {
		gene.DefaultAlleleID = alleles[0].ID
	}
	return gene
}
