package core_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"crosscore/internal/core"
	"crosscore/pkg/domain"
	"crosscore/pkg/genetics"
)

func furColorTrait() domain.TraitRecord {
	return domain.TraitRecord{
		RawTrait: genetics.RawTrait{
			Key:                "fur_color",
			Name:               "Fur color",
			InheritancePattern: "autosomal complete dominance",
			Alleles:            []string{"B", "b"},
			PhenotypeMap: map[string]string{
				"BB": "black",
				"Bb": "black",
				"bb": "brown",
			},
		},
		Species: "mouse",
	}
}

func eyeSheenTrait() domain.TraitRecord {
	return domain.TraitRecord{
		RawTrait: genetics.RawTrait{
			Key:                "eye_sheen",
			Name:               "Eye sheen",
			InheritancePattern: "x-linked recessive",
			Alleles:            []string{"S", "s"},
			PhenotypeMap: map[string]string{
				"SS": "bright",
				"Ss": "bright",
				"ss": "dull",
			},
		},
		Species: "mouse",
	}
}

func equalSlots(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func newServiceWithTrait(t *testing.T, traits ...domain.TraitRecord) (*core.Service, context.Context) {
	t.Helper()
	svc := core.NewInMemoryService(core.NewDefaultRulesEngine())
	ctx := context.Background()
	for _, trait := range traits {
		if _, _, err := svc.RegisterTrait(ctx, trait); err != nil {
			t.Fatalf("register trait %s: %v", trait.Key, err)
		}
	}
	return svc, ctx
}

func TestGenotypeShapeRuleBlocksDirectDamage(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait())

	cfg, _, err := svc.CreateConfiguration(ctx, "Agouti demo")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color"); err != nil {
		t.Fatalf("add gene: %v", err)
	}

	_, err = svc.Store().RunInTransaction(ctx, func(tx core.Transaction) error {
		_, txErr := tx.UpdateConfiguration(cfg.ID, func(c *domain.CrossConfiguration) error {
			c.Mother.Genotype["fur_color"] = []string{"B"}
			return nil
		})
		return txErr
	})
	if err == nil {
		t.Fatalf("expected blocked transaction for malformed genotype")
	}
	var violationErr domain.RuleViolationError
	if !errors.As(err, &violationErr) {
		t.Fatalf("expected rule violation error, got %T", err)
	}
	if !violationErr.Result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	if violationErr.Result.Violations[0].Rule != "genotype_shape" {
		t.Fatalf("unexpected violations: %+v", violationErr.Result.Violations)
	}

	stored, ok := svc.GetConfiguration(cfg.ID)
	if !ok {
		t.Fatalf("configuration missing after blocked transaction")
	}
	if !equalSlots(stored.Mother.Genotype["fur_color"], []string{"B", "B"}) {
		t.Fatalf("expected genotype rollback, got %v", stored.Mother.Genotype["fur_color"])
	}
}

func TestTraitCatalogLifecycle(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait(), eyeSheenTrait())

	trait, ok := svc.GetTrait("fur_color")
	if !ok {
		t.Fatalf("expected fur_color in catalog")
	}
	if trait.Name != "Fur color" || trait.Species != "mouse" {
		t.Fatalf("unexpected trait record: %+v", trait)
	}

	traits := svc.ListTraits()
	if len(traits) != 2 || traits[0].Key != "eye_sheen" || traits[1].Key != "fur_color" {
		t.Fatalf("expected sorted catalog, got %+v", traits)
	}

	update := furColorTrait()
	update.Name = "Coat color"
	stored, _, err := svc.RegisterTrait(ctx, update)
	if err != nil {
		t.Fatalf("re-register trait: %v", err)
	}
	if stored.Name != "Coat color" || stored.ID != trait.ID {
		t.Fatalf("expected upsert to keep identity, got %+v", stored)
	}

	if _, err := svc.RemoveTrait(ctx, "eye_sheen"); err != nil {
		t.Fatalf("remove trait: %v", err)
	}
	if _, ok := svc.GetTrait("eye_sheen"); ok {
		t.Fatalf("expected eye_sheen removed")
	}
	_, err = svc.RemoveTrait(ctx, "eye_sheen")
	var notFound core.ErrNotFound
	if !errors.As(err, &notFound) || notFound.Entity != core.EntityTrait {
		t.Fatalf("expected trait not-found error, got %v", err)
	}
}

func TestCreateConfigurationDefaults(t *testing.T) {
	svc, ctx := newServiceWithTrait(t)

	cfg, res, err := svc.CreateConfiguration(ctx, "  Agouti demo  ")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if cfg.ID == "" || cfg.CreatedAt.IsZero() {
		t.Fatalf("expected identity fields, got %+v", cfg.Base)
	}
	if cfg.Name != "Agouti demo" {
		t.Fatalf("expected trimmed name, got %q", cfg.Name)
	}
	if cfg.Mother.Sex != genetics.SexFemale || cfg.Father.Sex != genetics.SexMale {
		t.Fatalf("unexpected parent defaults: %+v / %+v", cfg.Mother, cfg.Father)
	}
	if len(cfg.Genes) != 0 || cfg.Simulations != 1000 {
		t.Fatalf("unexpected configuration defaults: %+v", cfg)
	}

	if _, ok := svc.GetConfiguration(cfg.ID); !ok {
		t.Fatalf("expected configuration retrievable")
	}
}

func TestListConfigurationsOrdered(t *testing.T) {
	svc, ctx := newServiceWithTrait(t)
	for _, name := range []string{"first", "second", "third"} {
		if _, _, err := svc.CreateConfiguration(ctx, name); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}
	list := svc.ListConfigurations()
	if len(list) != 3 {
		t.Fatalf("expected 3 configurations, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.Before(list[i-1].CreatedAt) {
			t.Fatalf("expected creation-time order, got %+v", list)
		}
	}
}

func TestAddGeneFromTraitBuildsAndSyncs(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}

	updated, res, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color")
	if err != nil {
		t.Fatalf("add gene: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
	if len(updated.Genes) != 1 {
		t.Fatalf("expected one gene, got %d", len(updated.Genes))
	}
	gene := updated.Genes[0]
	if gene.ID != "fur_color" || gene.UID == "" || gene.SourceTraitKey != "fur_color" {
		t.Fatalf("unexpected gene identity: %+v", gene)
	}
	if gene.Chromosome != genetics.ChromosomeAutosomal || gene.Dominance != genetics.DominanceComplete {
		t.Fatalf("unexpected inference: %+v", gene)
	}
	if gene.DefaultAlleleID != "B" || len(gene.Alleles) != 2 {
		t.Fatalf("unexpected alleles: %+v", gene)
	}
	if gene.Alleles[0].Effects[0].ID != "fur_color_B_effect" || gene.Alleles[0].Effects[0].Description != "black" {
		t.Fatalf("unexpected dominant effect: %+v", gene.Alleles[0].Effects[0])
	}
	if gene.Alleles[1].Effects[0].Description != "brown" || gene.Alleles[1].Effects[0].Magnitude != 0 {
		t.Fatalf("unexpected recessive effect: %+v", gene.Alleles[1].Effects[0])
	}
	if !equalSlots(updated.Mother.Genotype["fur_color"], []string{"B", "B"}) {
		t.Fatalf("unexpected mother genotype: %v", updated.Mother.Genotype)
	}
	if !equalSlots(updated.Father.Genotype["fur_color"], []string{"B", "B"}) {
		t.Fatalf("unexpected father genotype: %v", updated.Father.Genotype)
	}

	var notFound core.ErrNotFound
	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "nope"); !errors.As(err, &notFound) || notFound.Entity != core.EntityTrait {
		t.Fatalf("expected trait not-found error, got %v", err)
	}
	if _, _, err := svc.AddGeneFromTrait(ctx, "nope", "fur_color"); !errors.As(err, &notFound) || notFound.Entity != core.EntityConfiguration {
		t.Fatalf("expected configuration not-found error, got %v", err)
	}
}

func TestAddGeneFromTraitDeduplicatesIdentifier(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color"); err != nil {
		t.Fatalf("add first gene: %v", err)
	}
	updated, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color")
	if err != nil {
		t.Fatalf("add second gene: %v", err)
	}
	if len(updated.Genes) != 2 {
		t.Fatalf("expected two genes, got %d", len(updated.Genes))
	}
	second := updated.Genes[1]
	if second.ID != "fur_color_2" {
		t.Fatalf("expected de-duplicated identifier, got %q", second.ID)
	}
	if len(second.PriorIDs) != 0 {
		t.Fatalf("fresh gene should carry no prior identifiers, got %v", second.PriorIDs)
	}
	if second.Alleles[0].Effects[0].ID != "fur_color_2_B_effect" || second.Alleles[0].Effects[0].TraitID != "fur_color_2" {
		t.Fatalf("expected cascaded effect identifiers, got %+v", second.Alleles[0].Effects[0])
	}
	if !equalSlots(updated.Mother.Genotype["fur_color_2"], []string{"B", "B"}) {
		t.Fatalf("expected default slots for second gene, got %v", updated.Mother.Genotype)
	}
}

func TestAddGeneCustomDefinition(t *testing.T) {
	svc, ctx := newServiceWithTrait(t)
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}

	gene := genetics.Gene{
		ID:   "Coat Pattern",
		Name: "Coat Pattern",
		Alleles: []genetics.Allele{
			{ID: "P", DominanceRank: 2, Effects: []genetics.Effect{{TraitID: "Coat Pattern", Magnitude: 1}}},
			{ID: "p", DominanceRank: 1, Effects: []genetics.Effect{{TraitID: "Coat Pattern"}}},
		},
	}
	updated, _, err := svc.AddGene(ctx, cfg.ID, gene)
	if err != nil {
		t.Fatalf("add gene: %v", err)
	}
	got := updated.Genes[0]
	if got.ID != "coat_pattern" || got.UID == "" {
		t.Fatalf("expected normalized identity, got %+v", got)
	}
	if got.DefaultAlleleID != "P" {
		t.Fatalf("expected first allele as default, got %q", got.DefaultAlleleID)
	}
	if got.Alleles[0].Effects[0].ID != "coat_pattern_P_effect" || got.Alleles[0].Effects[0].TraitID != "coat_pattern" {
		t.Fatalf("expected canonical effect identifiers, got %+v", got.Alleles[0].Effects[0])
	}
	if !equalSlots(updated.Mother.Genotype["coat_pattern"], []string{"P", "P"}) {
		t.Fatalf("unexpected mother genotype: %v", updated.Mother.Genotype)
	}

	if _, _, err := svc.AddGene(ctx, cfg.ID, genetics.Gene{Name: "empty"}); err == nil || !strings.Contains(err.Error(), "at least one allele") {
		t.Fatalf("expected allele requirement error, got %v", err)
	}
}

func TestUpdateGeneReassignsDefaultAndSyncs(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	withGene, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color")
	if err != nil {
		t.Fatalf("add gene: %v", err)
	}
	uid := withGene.Genes[0].UID

	updated, _, err := svc.UpdateGene(ctx, cfg.ID, "fur_color", func(g *genetics.Gene) error {
		g.ID = "hijack"
		g.UID = "hijack"
		g.Alleles = g.Alleles[1:]
		return nil
	})
	if err != nil {
		t.Fatalf("update gene: %v", err)
	}
	gene := updated.Genes[0]
	if gene.ID != "fur_color" || gene.UID != uid {
		t.Fatalf("expected identity preserved, got %+v", gene)
	}
	if gene.DefaultAlleleID != "b" {
		t.Fatalf("expected default re-pointed to %q, got %q", "b", gene.DefaultAlleleID)
	}
	if !equalSlots(updated.Mother.Genotype["fur_color"], []string{"b", "b"}) {
		t.Fatalf("expected genotype repaired to new default, got %v", updated.Mother.Genotype)
	}

	if _, _, err := svc.UpdateGene(ctx, cfg.ID, "fur_color", func(*genetics.Gene) error {
		return errors.New("boom")
	}); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("expected mutator error, got %v", err)
	}
	if _, _, err := svc.UpdateGene(ctx, cfg.ID, "missing", func(*genetics.Gene) error { return nil }); err == nil || !strings.Contains(err.Error(), "not found in configuration") {
		t.Fatalf("expected gene lookup error, got %v", err)
	}
}

func TestRenameGeneCascades(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait(), eyeSheenTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color"); err != nil {
		t.Fatalf("add gene: %v", err)
	}
	if _, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, core.RoleMother, "fur_color", 1, "b"); err != nil {
		t.Fatalf("set allele: %v", err)
	}

	updated, _, err := svc.RenameGene(ctx, cfg.ID, "fur_color", "Coat Color!")
	if err != nil {
		t.Fatalf("rename gene: %v", err)
	}
	gene := updated.Genes[0]
	if gene.ID != "coat_color" {
		t.Fatalf("expected slugified identifier, got %q", gene.ID)
	}
	if len(gene.PriorIDs) != 1 || gene.PriorIDs[0] != "fur_color" {
		t.Fatalf("expected prior identifier recorded, got %v", gene.PriorIDs)
	}
	if gene.Alleles[0].Effects[0].ID != "coat_color_B_effect" {
		t.Fatalf("expected cascaded effect identifier, got %+v", gene.Alleles[0].Effects[0])
	}
	if !equalSlots(updated.Mother.Genotype["coat_color"], []string{"B", "b"}) {
		t.Fatalf("expected slots carried forward, got %v", updated.Mother.Genotype)
	}
	if _, ok := updated.Mother.Genotype["fur_color"]; ok {
		t.Fatalf("expected old genotype key dropped")
	}

	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "eye_sheen"); err != nil {
		t.Fatalf("add second gene: %v", err)
	}
	collided, _, err := svc.RenameGene(ctx, cfg.ID, "eye_sheen", "coat color")
	if err != nil {
		t.Fatalf("rename collision: %v", err)
	}
	if collided.Genes[1].ID != "coat_color_2" {
		t.Fatalf("expected suffixed identifier, got %q", collided.Genes[1].ID)
	}

	if _, _, err := svc.RenameGene(ctx, cfg.ID, "coat_color", "!!!"); err == nil || !strings.Contains(err.Error(), "empty after normalization") {
		t.Fatalf("expected slug error, got %v", err)
	}
	same, _, err := svc.RenameGene(ctx, cfg.ID, "coat_color", "Coat Color")
	if err != nil {
		t.Fatalf("rename no-op: %v", err)
	}
	if same.Genes[0].ID != "coat_color" || len(same.Genes[0].PriorIDs) != 1 {
		t.Fatalf("expected no-op rename, got %+v", same.Genes[0])
	}
}

func TestRemoveGeneDropsGenotypes(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color"); err != nil {
		t.Fatalf("add gene: %v", err)
	}
	updated, _, err := svc.RemoveGene(ctx, cfg.ID, "fur_color")
	if err != nil {
		t.Fatalf("remove gene: %v", err)
	}
	if len(updated.Genes) != 0 {
		t.Fatalf("expected empty gene collection, got %+v", updated.Genes)
	}
	if len(updated.Mother.Genotype) != 0 || len(updated.Father.Genotype) != 0 {
		t.Fatalf("expected genotypes cleared, got %+v / %+v", updated.Mother.Genotype, updated.Father.Genotype)
	}
	if _, _, err := svc.RemoveGene(ctx, cfg.ID, "fur_color"); err == nil {
		t.Fatalf("expected error removing missing gene")
	}
}

func TestSetParentSexResizesSlots(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, eyeSheenTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	withGene, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "eye_sheen")
	if err != nil {
		t.Fatalf("add gene: %v", err)
	}
	if !equalSlots(withGene.Father.Genotype["eye_sheen"], []string{"S"}) {
		t.Fatalf("expected hemizygous father, got %v", withGene.Father.Genotype)
	}
	if _, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, core.RoleFather, "eye_sheen", 0, "s"); err != nil {
		t.Fatalf("set father allele: %v", err)
	}

	updated, _, err := svc.SetParentSex(ctx, cfg.ID, core.RoleFather, genetics.SexFemale)
	if err != nil {
		t.Fatalf("set parent sex: %v", err)
	}
	if updated.Father.Sex != genetics.SexFemale {
		t.Fatalf("expected father sex updated, got %s", updated.Father.Sex)
	}
	if !equalSlots(updated.Father.Genotype["eye_sheen"], []string{"s", "s"}) {
		t.Fatalf("expected carried selection padded to two slots, got %v", updated.Father.Genotype)
	}
	if !equalSlots(updated.Mother.Genotype["eye_sheen"], []string{"S", "S"}) {
		t.Fatalf("expected mother untouched, got %v", updated.Mother.Genotype)
	}

	if _, _, err := svc.SetParentSex(ctx, cfg.ID, core.RoleMother, "hermaphrodite"); err == nil || !strings.Contains(err.Error(), "unknown parent sex") {
		t.Fatalf("expected sex validation error, got %v", err)
	}
	if _, _, err := svc.SetParentSex(ctx, cfg.ID, "uncle", genetics.SexMale); err == nil || !strings.Contains(err.Error(), "unknown parent role") {
		t.Fatalf("expected role validation error, got %v", err)
	}
}

func TestSetGenotypeAlleleValidation(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color"); err != nil {
		t.Fatalf("add gene: %v", err)
	}

	updated, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, core.RoleMother, "fur_color", 1, "b")
	if err != nil {
		t.Fatalf("set allele: %v", err)
	}
	if !equalSlots(updated.Mother.Genotype["fur_color"], []string{"B", "b"}) {
		t.Fatalf("unexpected mother genotype: %v", updated.Mother.Genotype)
	}

	if _, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, core.RoleMother, "fur_color", 2, "b"); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected slot bounds error, got %v", err)
	}
	if _, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, core.RoleMother, "fur_color", 0, "Z"); err == nil || !strings.Contains(err.Error(), "has no allele") {
		t.Fatalf("expected allele validation error, got %v", err)
	}
	if _, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, core.RoleMother, "missing", 0, "b"); err == nil || !strings.Contains(err.Error(), "not found in configuration") {
		t.Fatalf("expected gene lookup error, got %v", err)
	}
	if _, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, "uncle", "fur_color", 0, "b"); err == nil || !strings.Contains(err.Error(), "unknown parent role") {
		t.Fatalf("expected role validation error, got %v", err)
	}
}

func TestSetSimulationsValidates(t *testing.T) {
	svc, ctx := newServiceWithTrait(t)
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	updated, _, err := svc.SetSimulations(ctx, cfg.ID, 250)
	if err != nil {
		t.Fatalf("set simulations: %v", err)
	}
	if updated.Simulations != 250 {
		t.Fatalf("expected 250 simulations, got %d", updated.Simulations)
	}
	if _, _, err := svc.SetSimulations(ctx, cfg.ID, 0); err == nil || !strings.Contains(err.Error(), "must be positive") {
		t.Fatalf("expected positivity error, got %v", err)
	}
}

func TestValidateAndBuildPayload(t *testing.T) {
	svc, ctx := newServiceWithTrait(t, furColorTrait())
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}

	var validationErr *genetics.ValidationError
	if err := svc.ValidateConfiguration(ctx, cfg.ID); !errors.As(err, &validationErr) || validationErr.Message != "no genes configured" {
		t.Fatalf("expected empty-collection validation error, got %v", err)
	}

	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color"); err != nil {
		t.Fatalf("add gene: %v", err)
	}
	if err := svc.ValidateConfiguration(ctx, cfg.ID); err != nil {
		t.Fatalf("validate: %v", err)
	}

	payload, err := svc.BuildPayload(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if len(payload.Genes) != 1 || payload.Genes[0].ID != "fur_color" || payload.Genes[0].DefaultAlleleID != "B" {
		t.Fatalf("unexpected payload genes: %+v", payload.Genes)
	}
	if payload.Epistasis == nil || len(payload.Epistasis) != 0 {
		t.Fatalf("expected empty epistasis list, got %v", payload.Epistasis)
	}
	if payload.Simulations != 1000 || payload.Mother.Sex != genetics.SexFemale {
		t.Fatalf("unexpected payload envelope: %+v", payload)
	}
	payload.Mother.Genotype["fur_color"][0] = "mutated"
	fresh, _ := svc.GetConfiguration(cfg.ID)
	if !equalSlots(fresh.Mother.Genotype["fur_color"], []string{"B", "B"}) {
		t.Fatalf("payload must not share genotype state with the store")
	}

	if _, _, err := svc.UpdateGene(ctx, cfg.ID, "fur_color", func(g *genetics.Gene) error {
		g.Alleles[1].Effects = nil
		return nil
	}); err != nil {
		t.Fatalf("strip effects: %v", err)
	}
	if _, err := svc.BuildPayload(ctx, cfg.ID); err == nil || !strings.Contains(err.Error(), "has no effects") {
		t.Fatalf("expected validation failure, got %v", err)
	}

	var notFound core.ErrNotFound
	if _, err := svc.BuildPayload(ctx, "missing"); !errors.As(err, &notFound) || notFound.Entity != core.EntityConfiguration {
		t.Fatalf("expected configuration not-found error, got %v", err)
	}
	if err := svc.ValidateConfiguration(ctx, "missing"); !errors.As(err, &notFound) {
		t.Fatalf("expected configuration not-found error, got %v", err)
	}
}

func TestDeleteConfiguration(t *testing.T) {
	svc, ctx := newServiceWithTrait(t)
	cfg, _, err := svc.CreateConfiguration(ctx, "cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if _, err := svc.DeleteConfiguration(ctx, cfg.ID); err != nil {
		t.Fatalf("delete configuration: %v", err)
	}
	if _, ok := svc.GetConfiguration(cfg.ID); ok {
		t.Fatalf("expected configuration removed")
	}
	var notFound core.ErrNotFound
	if _, err := svc.DeleteConfiguration(ctx, cfg.ID); !errors.As(err, &notFound) || notFound.Entity != core.EntityConfiguration {
		t.Fatalf("expected not-found error, got %v", err)
	}
}
