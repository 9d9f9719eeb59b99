package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Plugin describes a species pack that contributes trait records and rules.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	rules  []Rule
	traits map[string]TraitRecord
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		traits: make(map[string]TraitRecord),
	}
}

// RegisterRule adds an in-transaction rule contributed by the plugin.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterTrait stages a trait catalog record contributed by the plugin.
func (r *PluginRegistry) RegisterTrait(trait TraitRecord) error {
	key := strings.TrimSpace(trait.Key)
	if key == "" {
		return fmt.Errorf("trait record requires a key")
	}
	if _, exists := r.traits[key]; exists {
		return fmt.Errorf("trait %s already registered", key)
	}
	trait.Key = key
	r.traits[key] = trait.Clone()
	return nil
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Traits returns registered trait records sorted by key.
func (r *PluginRegistry) Traits() []TraitRecord {
	out := make([]TraitRecord, 0, len(r.traits))
	for _, trait := range r.traits {
		out = append(out, trait.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// PluginMetadata stores metadata describing an installed plugin.
type PluginMetadata struct {
	Name    string
	Version string
	Traits  []string
}

// InstallPlugin collects a plugin's contributions, upserts its trait records
// into the catalog, and registers its rules on the store's engine. Plugin
// names must be unique per service.
func (s *Service) InstallPlugin(ctx context.Context, plugin Plugin) (PluginMetadata, error) {
	if plugin == nil {
		return PluginMetadata{}, fmt.Errorf("plugin must not be nil")
	}
	name := plugin.Name()
	if _, exists := s.plugins[name]; exists {
		return PluginMetadata{}, fmt.Errorf("plugin %s already registered", name)
	}
	registry := NewPluginRegistry()
	if err := plugin.Register(registry); err != nil {
		return PluginMetadata{}, fmt.Errorf("register plugin %s: %w", name, err)
	}
	rules := registry.Rules()
	if len(rules) > 0 && s.engine == nil {
		return PluginMetadata{}, fmt.Errorf("store exposes no rules engine for plugin %s", name)
	}
	traits := registry.Traits()
	if len(traits) > 0 {
		if _, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
			for _, trait := range traits {
				if _, err := tx.PutTrait(trait); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return PluginMetadata{}, fmt.Errorf("install traits for plugin %s: %w", name, err)
		}
	}
	for _, rule := range rules {
		s.engine.Register(rule)
	}
	meta := PluginMetadata{Name: name, Version: plugin.Version()}
	for _, trait := range traits {
		meta.Traits = append(meta.Traits, trait.Key)
	}
	s.plugins[name] = meta
	return meta, nil
}

// RegisteredPlugins lists installed plugin metadata sorted by name.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
