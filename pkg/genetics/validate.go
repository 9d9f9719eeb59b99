package genetics

import (
	"fmt"
	"strings"
)

// ValidationError reports the first completeness problem found in a gene
// collection. GeneID and AlleleID name the offender when known.
type ValidationError struct {
	GeneID   string
	AlleleID string
	Message  string
}

// Error implements error.
func (e *ValidationError) Error() string { return e.Message }

// ValidateGenes checks a gene collection for completeness before a cross
// can be computed. Checks run as ordered phases over the whole collection
// and stop at the first failure: a gene exists, every gene has an
// identifier, every gene has alleles, every allele has an identifier, every
// allele has effects, every effect names a target trait. This is advisory
// validation for caller feedback, not a security boundary.
func ValidateGenes(genes []Gene) error {
	if len(genes) == 0 {
		return &ValidationError{Message: "no genes configured"}
	}
	for _, g := range genes {
		if strings.TrimSpace(g.ID) == "" {
			return &ValidationError{GeneID: g.UID, Message: fmt.Sprintf("gene %q has an empty identifier", geneLabel(g))}
		}
	}
	for _, g := range genes {
		if len(g.Alleles) == 0 {
			return &ValidationError{GeneID: g.ID, Message: fmt.Sprintf("gene %q has no alleles", geneLabel(g))}
		}
	}
	for _, g := range genes {
		for _, allele := range g.Alleles {
			if strings.TrimSpace(allele.ID) == "" {
				return &ValidationError{GeneID: g.ID, Message: fmt.Sprintf("gene %q has an allele with an empty identifier", geneLabel(g))}
			}
		}
	}
	for _, g := range genes {
		for _, allele := range g.Alleles {
			if len(allele.Effects) == 0 {
				return &ValidationError{GeneID: g.ID, AlleleID: allele.ID, Message: fmt.Sprintf("allele %q of gene %q has no effects", allele.ID, geneLabel(g))}
			}
		}
	}
	for _, g := range genes {
		for _, allele := range g.Alleles {
			for _, effect := range allele.Effects {
				if strings.TrimSpace(effect.TraitID) == "" {
					return &ValidationError{GeneID: g.ID, AlleleID: allele.ID, Message: fmt.Sprintf("allele %q of gene %q has an effect without a target trait", allele.ID, geneLabel(g))}
				}
			}
		}
	}
	return nil
}

func geneLabel(g Gene) string {
	if name := strings.TrimSpace(g.Name); name != "" {
		return name
	}
	if id := strings.TrimSpace(g.ID); id != "" {
		return id
	}
	return g.UID
}
