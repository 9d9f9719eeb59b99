// Package core implements the genotype configuration service: trait catalog
// management, cross configuration editing with sex-aware genotype
// synchronization, rule-checked persistence, and payload construction for
// the external cross-simulation engine.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"crosscore/pkg/genetics"
)

const defaultSimulations = 1000

// ErrNotFound describes a missing entity lookup.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Service exposes transactional operations for cross configurations and the
// trait catalog over any persistent store implementation.
type Service struct {
	store   PersistentStore
	engine  *RulesEngine
	plugins map[string]PluginMetadata
	clock   Clock
	nowFn   func() time.Time
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
}

// NewService constructs a service over the provided store. Options attach
// observability sinks; all of them default to no-ops.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	options := defaultServiceOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}
	return &Service{
		store:   store,
		engine:  extractRulesEngine(store),
		plugins: make(map[string]PluginMetadata),
		clock:   options.clock,
		nowFn:   selectNowFunc(store, options.clock),
		logger:  options.logger,
		metrics: options.metrics,
		tracer:  options.tracer,
		audit:   options.audit,
	}
}

// NewInMemoryService constructs a service over a fresh in-memory store.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(NewMemoryStore(engine), opts...)
}

// Store exposes the backing persistent store.
func (s *Service) Store() PersistentStore {
	return s.store
}

// auditOperations maps operation names to the audit metadata recorded for
// them. Operations absent from the table produce no audit entries.
var auditOperations = map[string]struct {
	Entity EntityType
	Action Action
}{
	"create_configuration": {Entity: EntityConfiguration, Action: ActionCreate},
	"delete_configuration": {Entity: EntityConfiguration, Action: ActionDelete},
	"add_gene_from_trait":  {Entity: EntityConfiguration, Action: ActionUpdate},
	"add_gene":             {Entity: EntityConfiguration, Action: ActionUpdate},
	"update_gene":          {Entity: EntityConfiguration, Action: ActionUpdate},
	"rename_gene":          {Entity: EntityConfiguration, Action: ActionUpdate},
	"remove_gene":          {Entity: EntityConfiguration, Action: ActionUpdate},
	"set_parent_sex":       {Entity: EntityConfiguration, Action: ActionUpdate},
	"set_genotype_allele":  {Entity: EntityConfiguration, Action: ActionUpdate},
	"set_simulations":      {Entity: EntityConfiguration, Action: ActionUpdate},
	"register_trait":       {Entity: EntityTrait, Action: ActionCreate},
	"remove_trait":         {Entity: EntityTrait, Action: ActionDelete},
}

func (s *Service) recordAuditSuccess(ctx context.Context, operation, entityID string, duration time.Duration) {
	s.recordAudit(ctx, operation, entityID, AuditStatusSuccess, duration)
}

func (s *Service) recordAuditError(ctx context.Context, operation, entityID string, duration time.Duration) {
	s.recordAudit(ctx, operation, entityID, AuditStatusError, duration)
}

func (s *Service) recordAudit(ctx context.Context, operation, entityID string, status AuditStatus, duration time.Duration) {
	meta, ok := auditOperations[operation]
	if !ok {
		return
	}
	s.audit.Record(ctx, AuditEntry{
		Operation: operation,
		Entity:    meta.Entity,
		Action:    meta.Action,
		EntityID:  entityID,
		Status:    status,
		Duration:  duration,
		Timestamp: s.nowFn(),
	})
}

// run wraps an operation with tracing, metrics, logging, and audit capture.
// fn returns the identifier of the affected entity for the audit trail.
func (s *Service) run(ctx context.Context, operation string, fn func(ctx context.Context) (string, error)) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := s.nowFn()
	entityID, err := fn(ctx)
	duration := s.nowFn().Sub(started)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, duration)
	if err != nil {
		s.logger.Error("operation failed", "operation", operation, "entity_id", entityID, "error", err)
		s.recordAuditError(ctx, operation, entityID, duration)
		return err
	}
	s.logger.Info("operation completed", "operation", operation, "entity_id", entityID, "duration_ms", float64(duration)/float64(time.Millisecond))
	s.recordAuditSuccess(ctx, operation, entityID, duration)
	return nil
}

// mutateConfiguration runs one configuration mutation inside a transaction.
// The mutator receives the transaction so it can consult the trait catalog.
func (s *Service) mutateConfiguration(ctx context.Context, operation, id string, mutate func(tx Transaction, cfg *CrossConfiguration) error) (CrossConfiguration, Result, error) {
	var (
		updated CrossConfiguration
		result  Result
	)
	err := s.run(ctx, operation, func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindConfiguration(id); !ok {
				return ErrNotFound{Entity: EntityConfiguration, ID: id}
			}
			var txErr error
			updated, txErr = tx.UpdateConfiguration(id, func(cfg *CrossConfiguration) error {
				return mutate(tx, cfg)
			})
			return txErr
		})
		result = res
		return id, err
	})
	return updated, result, err
}

func syncGenotypes(cfg *CrossConfiguration) {
	cfg.Mother.Genotype = genetics.SyncGenotype(cfg.Genes, cfg.Mother.Sex, cfg.Mother.Genotype)
	cfg.Father.Genotype = genetics.SyncGenotype(cfg.Genes, cfg.Father.Sex, cfg.Father.Genotype)
}

func parentFor(cfg *CrossConfiguration, role ParentRole) (*Parent, error) {
	switch role {
	case RoleMother:
		return &cfg.Mother, nil
	case RoleFather:
		return &cfg.Father, nil
	default:
		return nil, fmt.Errorf("unknown parent role %q", role)
	}
}

func geneNotFound(configID, geneID string) error {
	return fmt.Errorf("gene %q not found in configuration %q", geneID, configID)
}

// assignUniqueGeneID de-duplicates the gene identifier against the genes
// already in the configuration and cascades the change into derived effect
// identifiers.
func assignUniqueGeneID(cfg *CrossConfiguration, gene *genetics.Gene) {
	taken := make(map[string]struct{}, len(cfg.Genes))
	for _, g := range cfg.Genes {
		taken[g.ID] = struct{}{}
	}
	unique := genetics.UniqueGeneID(taken, gene.ID)
	if unique != gene.ID {
		gene.Rename(unique)
		// A gene that was never part of the configuration has no genotype
		// entries to carry forward.
		gene.PriorIDs = nil
	}
}

// CreateConfiguration creates a cross configuration with a female mother, a
// male father, empty genotypes, and the default simulation count.
func (s *Service) CreateConfiguration(ctx context.Context, name string) (CrossConfiguration, Result, error) {
	var (
		created CrossConfiguration
		result  Result
	)
	err := s.run(ctx, "create_configuration", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			cfg := CrossConfiguration{
				Name:        strings.TrimSpace(name),
				Genes:       []genetics.Gene{},
				Mother:      Parent{Sex: genetics.SexFemale, Genotype: genetics.ParentGenotype{}},
				Father:      Parent{Sex: genetics.SexMale, Genotype: genetics.ParentGenotype{}},
				Simulations: defaultSimulations,
			}
			var txErr error
			created, txErr = tx.CreateConfiguration(cfg)
			return txErr
		})
		result = res
		return created.ID, err
	})
	return created, result, err
}

// GetConfiguration returns a configuration by identifier.
func (s *Service) GetConfiguration(id string) (CrossConfiguration, bool) {
	return s.store.GetConfiguration(id)
}

// ListConfigurations returns all configurations ordered by creation time.
func (s *Service) ListConfigurations() []CrossConfiguration {
	out := s.store.ListConfigurations()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// DeleteConfiguration removes a configuration.
func (s *Service) DeleteConfiguration(ctx context.Context, id string) (Result, error) {
	var result Result
	err := s.run(ctx, "delete_configuration", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindConfiguration(id); !ok {
				return ErrNotFound{Entity: EntityConfiguration, ID: id}
			}
			return tx.DeleteConfiguration(id)
		})
		result = res
		return id, err
	})
	return result, err
}

// AddGeneFromTrait infers a gene definition from a catalog trait and appends
// it to the configuration. The gene identifier is de-duplicated against the
// existing genes and both parent genotypes are re-synchronized.
func (s *Service) AddGeneFromTrait(ctx context.Context, configID, traitKey string) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "add_gene_from_trait", configID, func(tx Transaction, cfg *CrossConfiguration) error {
		trait, ok := tx.FindTrait(traitKey)
		if !ok {
			return ErrNotFound{Entity: EntityTrait, ID: traitKey}
		}
		gene := genetics.BuildGene(trait.RawTrait)
		assignUniqueGeneID(cfg, &gene)
		cfg.Genes = append(cfg.Genes, gene)
		syncGenotypes(cfg)
		return nil
	})
}

// AddGene appends a caller-supplied gene definition to the configuration.
// Missing identifiers are derived from the name, the default allele is
// re-pointed when it does not name an allele, and the identifier is
// de-duplicated like AddGeneFromTrait does.
func (s *Service) AddGene(ctx context.Context, configID string, gene genetics.Gene) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "add_gene", configID, func(_ Transaction, cfg *CrossConfiguration) error {
		if len(gene.Alleles) == 0 {
			return fmt.Errorf("gene %q requires at least one allele", gene.Name)
		}
		if gene.UID == "" {
			gene.UID = genetics.NewGeneUID()
		}
		id := genetics.Slugify(gene.ID)
		if id == "" {
			id = genetics.Slugify(gene.Name)
		}
		if id == "" {
			id = genetics.FallbackGeneID()
		}
		if id != gene.ID {
			gene.Rename(id)
			gene.PriorIDs = nil
		}
		if !gene.HasAllele(gene.DefaultAlleleID) {
			gene.DefaultAlleleID = genetics.ResolveDefaultAlleleID(gene)
		}
		assignUniqueGeneID(cfg, &gene)
		cfg.Genes = append(cfg.Genes, gene)
		syncGenotypes(cfg)
		return nil
	})
}

// UpdateGene applies a mutator to one gene. Identifier and uid are
// preserved; use RenameGene for identifier changes. A default allele
// invalidated by the mutation is re-pointed, and both parent genotypes are
// re-synchronized afterwards.
func (s *Service) UpdateGene(ctx context.Context, configID, geneID string, mutator func(*genetics.Gene) error) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "update_gene", configID, func(_ Transaction, cfg *CrossConfiguration) error {
		idx := cfg.GeneIndex(geneID)
		if idx < 0 {
			return geneNotFound(cfg.ID, geneID)
		}
		gene := &cfg.Genes[idx]
		id, uid := gene.ID, gene.UID
		if err := mutator(gene); err != nil {
			return err
		}
		gene.ID, gene.UID = id, uid
		if !gene.HasAllele(gene.DefaultAlleleID) {
			gene.DefaultAlleleID = genetics.ResolveDefaultAlleleID(*gene)
		}
		syncGenotypes(cfg)
		return nil
	})
}

// RenameGene changes a gene's identifier. The requested identifier is
// slugified and de-duplicated; derived effect identifiers follow the rename
// and genotype entries keyed by the old identifier are carried forward.
func (s *Service) RenameGene(ctx context.Context, configID, geneID, newID string) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "rename_gene", configID, func(_ Transaction, cfg *CrossConfiguration) error {
		idx := cfg.GeneIndex(geneID)
		if idx < 0 {
			return geneNotFound(cfg.ID, geneID)
		}
		slug := genetics.Slugify(newID)
		if slug == "" {
			return fmt.Errorf("gene identifier %q is empty after normalization", newID)
		}
		if slug == geneID {
			return nil
		}
		taken := make(map[string]struct{}, len(cfg.Genes))
		for i, g := range cfg.Genes {
			if i == idx {
				continue
			}
			taken[g.ID] = struct{}{}
		}
		cfg.Genes[idx].Rename(genetics.UniqueGeneID(taken, slug))
		syncGenotypes(cfg)
		return nil
	})
}

// RemoveGene removes a gene and drops its genotype entries.
func (s *Service) RemoveGene(ctx context.Context, configID, geneID string) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "remove_gene", configID, func(_ Transaction, cfg *CrossConfiguration) error {
		idx := cfg.GeneIndex(geneID)
		if idx < 0 {
			return geneNotFound(cfg.ID, geneID)
		}
		cfg.Genes = append(cfg.Genes[:idx], cfg.Genes[idx+1:]...)
		syncGenotypes(cfg)
		return nil
	})
}

// SetParentSex changes one parent's sex and re-synchronizes that parent's
// genotype against the new slot counts. The other parent is untouched.
func (s *Service) SetParentSex(ctx context.Context, configID string, role ParentRole, sex genetics.Sex) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "set_parent_sex", configID, func(_ Transaction, cfg *CrossConfiguration) error {
		if sex != genetics.SexFemale && sex != genetics.SexMale {
			return fmt.Errorf("unknown parent sex %q", sex)
		}
		parent, err := parentFor(cfg, role)
		if err != nil {
			return err
		}
		parent.Sex = sex
		parent.Genotype = genetics.SyncGenotype(cfg.Genes, sex, parent.Genotype)
		return nil
	})
}

// SetGenotypeAllele assigns one allele slot of one parent. The slot index is
// checked against the sex-dependent slot count and the allele must belong to
// the gene; remaining slots are normalized in place.
func (s *Service) SetGenotypeAllele(ctx context.Context, configID string, role ParentRole, geneID string, slot int, alleleID string) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "set_genotype_allele", configID, func(_ Transaction, cfg *CrossConfiguration) error {
		parent, err := parentFor(cfg, role)
		if err != nil {
			return err
		}
		gene, ok := cfg.FindGene(geneID)
		if !ok {
			return geneNotFound(cfg.ID, geneID)
		}
		count := genetics.SlotCount(gene.Chromosome, parent.Sex)
		if slot < 0 || slot >= count {
			return fmt.Errorf("slot %d out of range for gene %q (%d slots)", slot, geneID, count)
		}
		if !gene.HasAllele(alleleID) {
			return fmt.Errorf("gene %q has no allele %q", geneID, alleleID)
		}
		slots := genetics.NormalizeAlleles(gene, parent.Genotype[gene.ID], parent.Sex)
		slots[slot] = alleleID
		if parent.Genotype == nil {
			parent.Genotype = genetics.ParentGenotype{}
		}
		parent.Genotype[gene.ID] = slots
		return nil
	})
}

// SetSimulations changes the simulation count submitted to the cross engine.
func (s *Service) SetSimulations(ctx context.Context, configID string, simulations int) (CrossConfiguration, Result, error) {
	return s.mutateConfiguration(ctx, "set_simulations", configID, func(_ Transaction, cfg *CrossConfiguration) error {
		if simulations < 1 {
			return fmt.Errorf("simulations must be positive, got %d", simulations)
		}
		cfg.Simulations = simulations
		return nil
	})
}

// RegisterTrait upserts a trait catalog record keyed by its trait key.
func (s *Service) RegisterTrait(ctx context.Context, trait TraitRecord) (TraitRecord, Result, error) {
	var (
		stored TraitRecord
		result Result
	)
	err := s.run(ctx, "register_trait", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			var txErr error
			stored, txErr = tx.PutTrait(trait)
			return txErr
		})
		result = res
		return stored.Key, err
	})
	return stored, result, err
}

// RemoveTrait removes a trait catalog record. Genes already inferred from
// the trait stay in their configurations.
func (s *Service) RemoveTrait(ctx context.Context, key string) (Result, error) {
	var result Result
	err := s.run(ctx, "remove_trait", func(ctx context.Context) (string, error) {
		res, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			if _, ok := tx.FindTrait(key); !ok {
				return ErrNotFound{Entity: EntityTrait, ID: key}
			}
			return tx.DeleteTrait(key)
		})
		result = res
		return key, err
	})
	return result, err
}

// GetTrait returns a trait catalog record by key.
func (s *Service) GetTrait(key string) (TraitRecord, bool) {
	return s.store.GetTrait(key)
}

// ListTraits returns the trait catalog ordered by key.
func (s *Service) ListTraits() []TraitRecord {
	out := s.store.ListTraits()
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ValidateConfiguration re-checks completeness of the configuration's gene
// collection without mutating state.
func (s *Service) ValidateConfiguration(ctx context.Context, id string) error {
	return s.run(ctx, "validate_configuration", func(context.Context) (string, error) {
		cfg, ok := s.store.GetConfiguration(id)
		if !ok {
			return id, ErrNotFound{Entity: EntityConfiguration, ID: id}
		}
		return id, genetics.ValidateGenes(cfg.Genes)
	})
}

// BuildPayload validates the configuration and serializes it into the wire
// format of the external cross-simulation engine.
func (s *Service) BuildPayload(ctx context.Context, id string) (genetics.CrossPayload, error) {
	var payload genetics.CrossPayload
	err := s.run(ctx, "build_payload", func(context.Context) (string, error) {
		cfg, ok := s.store.GetConfiguration(id)
		if !ok {
			return id, ErrNotFound{Entity: EntityConfiguration, ID: id}
		}
		if err := genetics.ValidateGenes(cfg.Genes); err != nil {
			return id, err
		}
		payload = genetics.BuildPayload(genetics.BuildInput{
			Genes:          cfg.Genes,
			MotherSex:      cfg.Mother.Sex,
			MotherGenotype: cfg.Mother.Genotype,
			FatherSex:      cfg.Father.Sex,
			FatherGenotype: cfg.Father.Genotype,
			Simulations:    cfg.Simulations,
		})
		return id, nil
	})
	if err != nil {
		return genetics.CrossPayload{}, err
	}
	return payload, nil
}
