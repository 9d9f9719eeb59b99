package core

import (
	"context"
	"fmt"

	"crosscore/pkg/domain"
)

// NewTraitReferenceRule returns the advisory rule surfacing dangling trait
// references: a gene whose source trait left the catalog, or an effect whose
// trait reference matches neither a configured gene nor a catalog key.
func NewTraitReferenceRule() domain.Rule {
	return traitReferenceRule{}
}

type traitReferenceRule struct{}

func (traitReferenceRule) Name() string { return "trait_reference" }

func (traitReferenceRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	catalog := make(map[string]struct{})
	for _, trait := range view.ListTraits() {
		catalog[trait.Key] = struct{}{}
	}

	res := domain.Result{}
	for _, cfg := range view.ListConfigurations() {
		geneIDs := make(map[string]struct{}, len(cfg.Genes))
		for _, gene := range cfg.Genes {
			geneIDs[gene.ID] = struct{}{}
		}
		warn := func(format string, args ...any) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "trait_reference",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf(format, args...),
				Entity:   domain.EntityConfiguration,
				EntityID: cfg.ID,
			})
		}
		for _, gene := range cfg.Genes {
			if gene.SourceTraitKey != "" {
				if _, ok := catalog[gene.SourceTraitKey]; !ok {
					warn("configuration %s: gene %s references missing trait %s", cfg.ID, gene.ID, gene.SourceTraitKey)
				}
			}
			for _, allele := range gene.Alleles {
				for _, effect := range allele.Effects {
					if effect.TraitID == "" {
						continue
					}
					if _, ok := geneIDs[effect.TraitID]; ok {
						continue
					}
					if _, ok := catalog[effect.TraitID]; ok {
						continue
					}
					warn("configuration %s: effect %s of gene %s references unknown trait %s", cfg.ID, effect.ID, gene.ID, effect.TraitID)
				}
			}
		}
	}
	return res, nil
}
