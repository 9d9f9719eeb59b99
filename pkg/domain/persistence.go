package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Trait records are upserted by key.
type Transaction interface {
	Snapshot() TransactionView
	CreateConfiguration(CrossConfiguration) (CrossConfiguration, error)
	UpdateConfiguration(id string, mutator func(*CrossConfiguration) error) (CrossConfiguration, error)
	DeleteConfiguration(id string) error
	PutTrait(TraitRecord) (TraitRecord, error)
	DeleteTrait(key string) error
	FindConfiguration(id string) (CrossConfiguration, bool)
	FindTrait(key string) (TraitRecord, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView = RuleView

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetConfiguration(id string) (CrossConfiguration, bool)
	ListConfigurations() []CrossConfiguration
	GetTrait(key string) (TraitRecord, bool)
	ListTraits() []TraitRecord
}
