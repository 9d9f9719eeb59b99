package core

import (
	"context"
	"fmt"

	"crosscore/pkg/domain"
	"crosscore/pkg/genetics"
)

// NewCodominantRankProfileRule returns the advisory rule flagging codominant
// genes with more than two alleles. Dominance ranks on such genes follow the
// asymmetric first-allele-low profile, which only distinguishes pairs; wider
// allele sets should carry explicit phenotype labels for every pair.
func NewCodominantRankProfileRule() domain.Rule {
	return codominantRankProfileRule{}
}

type codominantRankProfileRule struct{}

func (codominantRankProfileRule) Name() string { return "codominant_rank_profile" }

func (codominantRankProfileRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, cfg := range view.ListConfigurations() {
		for _, gene := range cfg.Genes {
			if gene.Dominance != genetics.DominanceCodominant || len(gene.Alleles) <= 2 {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "codominant_rank_profile",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("configuration %s: codominant gene %s has %d alleles; rank profile only distinguishes pairs", cfg.ID, gene.ID, len(gene.Alleles)),
				Entity:   domain.EntityConfiguration,
				EntityID: cfg.ID,
			})
		}
	}
	return res, nil
}
