// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"crosscore/pkg/domain"
	"crosscore/pkg/genetics"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// CrossConfiguration aliases domain.CrossConfiguration for in-memory persistence operations.
	CrossConfiguration = domain.CrossConfiguration
	// TraitRecord aliases domain.TraitRecord.
	TraitRecord = domain.TraitRecord
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	configurations map[string]CrossConfiguration
	traits         map[string]TraitRecord
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Configurations map[string]CrossConfiguration `json:"configurations"`
	Traits         map[string]TraitRecord        `json:"traits"`
}

func newMemoryState() memoryState {
	return memoryState{
		configurations: make(map[string]CrossConfiguration),
		traits:         make(map[string]TraitRecord),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Configurations: make(map[string]CrossConfiguration, len(state.configurations)),
		Traits:         make(map[string]TraitRecord, len(state.traits)),
	}
	for k, v := range state.configurations {
		s.Configurations[k] = v.Clone()
	}
	for k, v := range state.traits {
		s.Traits[k] = v.Clone()
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Configurations {
		state.configurations[k] = v.Clone()
	}
	for k, v := range s.Traits {
		state.traits[k] = v.Clone()
	}
	return state
}

// migrateSnapshot repairs snapshots written by earlier builds: nil buckets
// become empty, trait records regain their key-derived identifiers, and
// configuration genotypes are re-synchronized so slot counts match the
// current chromosome/sex rules.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Configurations == nil {
		snapshot.Configurations = map[string]CrossConfiguration{}
	}
	if snapshot.Traits == nil {
		snapshot.Traits = map[string]TraitRecord{}
	}
	for key, trait := range snapshot.Traits {
		if trait.ID == "" {
			trait.ID = trait.Key
		}
		if trait.Key == "" {
			trait.Key = key
		}
		snapshot.Traits[key] = trait
	}
	for id, cfg := range snapshot.Configurations {
		if cfg.ID == "" {
			cfg.ID = id
		}
		if cfg.Mother.Sex == "" {
			cfg.Mother.Sex = genetics.SexFemale
		}
		if cfg.Father.Sex == "" {
			cfg.Father.Sex = genetics.SexMale
		}
		if cfg.Simulations <= 0 {
			cfg.Simulations = 1000
		}
		cfg.Mother.Genotype = genetics.SyncGenotype(cfg.Genes, cfg.Mother.Sex, cfg.Mother.Genotype)
		cfg.Father.Genotype = genetics.SyncGenotype(cfg.Genes, cfg.Father.Sex, cfg.Father.Genotype)
		snapshot.Configurations[id] = cfg
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	out := newMemoryState()
	for k, v := range s.configurations {
		out.configurations[k] = v.Clone()
	}
	for k, v := range s.traits {
		out.traits[k] = v.Clone()
	}
	return out
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine for integration points like plugins.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state to rules.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListConfigurations returns all configurations within the snapshot.
func (v transactionView) ListConfigurations() []CrossConfiguration {
	out := make([]CrossConfiguration, 0, len(v.state.configurations))
	for _, cfg := range v.state.configurations {
		out = append(out, cfg.Clone())
	}
	return out
}

// ListTraits returns all trait records within the snapshot.
func (v transactionView) ListTraits() []TraitRecord {
	out := make([]TraitRecord, 0, len(v.state.traits))
	for _, trait := range v.state.traits {
		out = append(out, trait.Clone())
	}
	return out
}

// FindConfiguration retrieves a configuration by ID from the snapshot.
func (v transactionView) FindConfiguration(id string) (CrossConfiguration, bool) {
	cfg, ok := v.state.configurations[id]
	if !ok {
		return CrossConfiguration{}, false
	}
	return cfg.Clone(), true
}

// FindTrait retrieves a trait record by key from the snapshot.
func (v transactionView) FindTrait(key string) (TraitRecord, bool) {
	trait, ok := v.state.traits[key]
	if !ok {
		return TraitRecord{}, false
	}
	return trait.Clone(), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindConfiguration exposes configuration lookup within the transaction scope.
func (tx *transaction) FindConfiguration(id string) (CrossConfiguration, bool) {
	cfg, ok := tx.state.configurations[id]
	if !ok {
		return CrossConfiguration{}, false
	}
	return cfg.Clone(), true
}

// FindTrait exposes trait lookup within the transaction scope.
func (tx *transaction) FindTrait(key string) (TraitRecord, bool) {
	trait, ok := tx.state.traits[key]
	if !ok {
		return TraitRecord{}, false
	}
	return trait.Clone(), true
}

// CreateConfiguration stores a new configuration within the transaction.
func (tx *transaction) CreateConfiguration(cfg CrossConfiguration) (CrossConfiguration, error) {
	if cfg.ID == "" {
		cfg.ID = tx.store.newID()
	}
	if _, exists := tx.state.configurations[cfg.ID]; exists {
		return CrossConfiguration{}, fmt.Errorf("configuration %q already exists", cfg.ID)
	}
	cfg.CreatedAt = tx.now
	cfg.UpdatedAt = tx.now
	tx.state.configurations[cfg.ID] = cfg.Clone()
	tx.recordChange(Change{Entity: domain.EntityConfiguration, Action: domain.ActionCreate, After: cfg.Clone()})
	return cfg.Clone(), nil
}

// UpdateConfiguration mutates a configuration using the provided mutator function.
func (tx *transaction) UpdateConfiguration(id string, mutator func(*CrossConfiguration) error) (CrossConfiguration, error) {
	current, ok := tx.state.configurations[id]
	if !ok {
		return CrossConfiguration{}, fmt.Errorf("configuration %q not found", id)
	}
	before := current.Clone()
	if err := mutator(&current); err != nil {
		return CrossConfiguration{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.configurations[id] = current.Clone()
	tx.recordChange(Change{Entity: domain.EntityConfiguration, Action: domain.ActionUpdate, Before: before, After: current.Clone()})
	return current.Clone(), nil
}

// DeleteConfiguration removes a configuration from the transaction state.
func (tx *transaction) DeleteConfiguration(id string) error {
	current, ok := tx.state.configurations[id]
	if !ok {
		return fmt.Errorf("configuration %q not found", id)
	}
	delete(tx.state.configurations, id)
	tx.recordChange(Change{Entity: domain.EntityConfiguration, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// PutTrait upserts a trait record keyed by its trait key.
func (tx *transaction) PutTrait(trait TraitRecord) (TraitRecord, error) {
	key := strings.TrimSpace(trait.Key)
	if key == "" {
		return TraitRecord{}, fmt.Errorf("trait record requires a key")
	}
	trait.Key = key
	if trait.ID == "" {
		trait.ID = key
	}
	existing, exists := tx.state.traits[key]
	if exists {
		trait.CreatedAt = existing.CreatedAt
		trait.UpdatedAt = tx.now
	} else {
		trait.CreatedAt = tx.now
		trait.UpdatedAt = tx.now
	}
	tx.state.traits[key] = trait.Clone()
	if exists {
		tx.recordChange(Change{Entity: domain.EntityTrait, Action: domain.ActionUpdate, Before: existing.Clone(), After: trait.Clone()})
	} else {
		tx.recordChange(Change{Entity: domain.EntityTrait, Action: domain.ActionCreate, After: trait.Clone()})
	}
	return trait.Clone(), nil
}

// DeleteTrait removes a trait record from the transaction state.
func (tx *transaction) DeleteTrait(key string) error {
	current, ok := tx.state.traits[key]
	if !ok {
		return fmt.Errorf("trait %q not found", key)
	}
	delete(tx.state.traits, key)
	tx.recordChange(Change{Entity: domain.EntityTrait, Action: domain.ActionDelete, Before: current.Clone()})
	return nil
}

// GetConfiguration retrieves a configuration by ID.
func (s *Store) GetConfiguration(id string) (CrossConfiguration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.state.configurations[id]
	if !ok {
		return CrossConfiguration{}, false
	}
	return cfg.Clone(), true
}

// ListConfigurations returns all configurations.
func (s *Store) ListConfigurations() []CrossConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]CrossConfiguration, 0, len(s.state.configurations))
	for _, cfg := range s.state.configurations {
		out = append(out, cfg.Clone())
	}
	return out
}

// GetTrait retrieves a trait record by key.
func (s *Store) GetTrait(key string) (TraitRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	trait, ok := s.state.traits[key]
	if !ok {
		return TraitRecord{}, false
	}
	return trait.Clone(), true
}

// ListTraits returns all trait records.
func (s *Store) ListTraits() []TraitRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]TraitRecord, 0, len(s.state.traits))
	for _, trait := range s.state.traits {
		out = append(out, trait.Clone())
	}
	return out
}
