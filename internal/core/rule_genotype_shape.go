package core

import (
	"context"
	"fmt"

	"crosscore/pkg/domain"
	"crosscore/pkg/genetics"
)

// NewGenotypeShapeRule returns the blocking rule that keeps parent genotypes
// aligned with the gene collection: exactly one entry per gene, the
// sex-dependent slot count, and only allele identifiers the gene defines.
func NewGenotypeShapeRule() domain.Rule {
	return genotypeShapeRule{}
}

type genotypeShapeRule struct{}

func (genotypeShapeRule) Name() string { return "genotype_shape" }

func (genotypeShapeRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, cfg := range view.ListConfigurations() {
		res.Merge(checkParentGenotype(cfg, "mother", cfg.Mother))
		res.Merge(checkParentGenotype(cfg, "father", cfg.Father))
	}
	return res, nil
}

func checkParentGenotype(cfg domain.CrossConfiguration, label string, parent domain.Parent) domain.Result {
	res := domain.Result{}
	violation := func(format string, args ...any) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "genotype_shape",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf(format, args...),
			Entity:   domain.EntityConfiguration,
			EntityID: cfg.ID,
		})
	}
	known := make(map[string]struct{}, len(cfg.Genes))
	for _, gene := range cfg.Genes {
		known[gene.ID] = struct{}{}
		want := genetics.SlotCount(gene.Chromosome, parent.Sex)
		slots, ok := parent.Genotype[gene.ID]
		if !ok {
			violation("configuration %s: %s genotype missing entry for gene %s", cfg.ID, label, gene.ID)
			continue
		}
		if len(slots) != want {
			violation("configuration %s: %s genotype for gene %s has %d/%d slots", cfg.ID, label, gene.ID, len(slots), want)
			continue
		}
		for i, allele := range slots {
			if !gene.HasAllele(allele) {
				violation("configuration %s: %s genotype slot %d of gene %s names unknown allele %q", cfg.ID, label, i, gene.ID, allele)
			}
		}
	}
	for geneID := range parent.Genotype {
		if _, ok := known[geneID]; !ok {
			violation("configuration %s: %s genotype has entry for unknown gene %s", cfg.ID, label, geneID)
		}
	}
	return res
}
