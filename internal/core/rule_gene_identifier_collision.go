package core

import (
	"context"
	"fmt"

	"crosscore/pkg/domain"
)

// NewGeneIdentifierCollisionRule returns the blocking rule rejecting
// duplicate gene identifiers within a configuration. Duplicate identifiers
// make genotype entries ambiguous.
func NewGeneIdentifierCollisionRule() domain.Rule {
	return geneIdentifierCollisionRule{}
}

type geneIdentifierCollisionRule struct{}

func (geneIdentifierCollisionRule) Name() string { return "gene_identifier_collision" }

func (geneIdentifierCollisionRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, cfg := range view.ListConfigurations() {
		seen := make(map[string]int, len(cfg.Genes))
		for _, gene := range cfg.Genes {
			seen[gene.ID]++
		}
		for id, count := range seen {
			if count > 1 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "gene_identifier_collision",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("configuration %s: gene identifier %s used by %d genes", cfg.ID, id, count),
					Entity:   domain.EntityConfiguration,
					EntityID: cfg.ID,
				})
			}
		}
	}
	return res, nil
}
