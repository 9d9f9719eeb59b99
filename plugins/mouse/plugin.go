// Package mouse ships the mouse species trait pack: five classic laboratory
// traits covering every chromosome type and dominance pattern the engine
// distinguishes, plus an advisory rule that flags configurations drifting
// away from the pack's canonical allele sets.
package mouse

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"crosscore/internal/core"
	"crosscore/pkg/genetics"
)

//go:embed traits.yaml
var traitsYAML []byte

type traitPack struct {
	Species string      `yaml:"species"`
	Traits  []packTrait `yaml:"traits"`
}

type packTrait struct {
	Key                string            `yaml:"key"`
	Name               string            `yaml:"name"`
	InheritancePattern string            `yaml:"inheritance_pattern"`
	Alleles            []string          `yaml:"alleles"`
	Phenotypes         map[string]string `yaml:"phenotypes"`
	Chromosomes        []string          `yaml:"chromosomes"`
}

// Plugin implements the mouse trait pack.
type Plugin struct{}

// New constructs a mouse plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "mouse" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register stages the pack's trait records and the allele drift rule.
func (Plugin) Register(registry *core.PluginRegistry) error {
	pack, err := loadPack()
	if err != nil {
		return err
	}
	canonical := make(map[string]map[string]struct{}, len(pack.Traits))
	for _, trait := range pack.Traits {
		if err := registry.RegisterTrait(core.TraitRecord{
			RawTrait: genetics.RawTrait{
				Key:                trait.Key,
				Name:               trait.Name,
				InheritancePattern: trait.InheritancePattern,
				Alleles:            trait.Alleles,
				PhenotypeMap:       trait.Phenotypes,
				Chromosomes:        trait.Chromosomes,
			},
			Species: pack.Species,
		}); err != nil {
			return err
		}
		alleles := make(map[string]struct{}, len(trait.Alleles))
		for _, allele := range trait.Alleles {
			alleles[allele] = struct{}{}
		}
		canonical[trait.Key] = alleles
	}
	registry.RegisterRule(alleleDriftRule{canonical: canonical})
	return nil
}

func loadPack() (traitPack, error) {
	var pack traitPack
	if err := yaml.Unmarshal(traitsYAML, &pack); err != nil {
		return traitPack{}, fmt.Errorf("decode mouse trait pack: %w", err)
	}
	if len(pack.Traits) == 0 {
		return traitPack{}, fmt.Errorf("mouse trait pack is empty")
	}
	return pack, nil
}

// alleleDriftRule warns when a configuration gene sourced from a mouse trait
// uses allele identifiers outside the pack's canonical set. Drifted alleles
// still simulate; the warning keeps edited configurations traceable to the
// published catalog.
type alleleDriftRule struct {
	canonical map[string]map[string]struct{}
}

func (alleleDriftRule) Name() string { return "mouse_trait_allele_drift" }

func (r alleleDriftRule) Evaluate(_ context.Context, view core.TransactionView, _ []core.Change) (core.Result, error) {
	var result core.Result
	for _, cfg := range view.ListConfigurations() {
		for _, gene := range cfg.Genes {
			alleles, ok := r.canonical[gene.SourceTraitKey]
			if !ok {
				continue
			}
			for _, allele := range gene.Alleles {
				if _, known := alleles[allele.ID]; known {
					continue
				}
				result.Violations = append(result.Violations, core.Violation{
					Rule:     "mouse_trait_allele_drift",
					Severity: core.SeverityWarn,
					Message:  fmt.Sprintf("gene %s uses allele %s outside the mouse %s allele set", gene.ID, allele.ID, gene.SourceTraitKey),
					Entity:   core.EntityConfiguration,
					EntityID: cfg.ID,
				})
			}
		}
	}
	return result, nil
}
