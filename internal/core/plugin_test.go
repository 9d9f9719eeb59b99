package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"crosscore/pkg/genetics"
)

type stubPlugin struct {
	name     string
	version  string
	register func(*PluginRegistry) error
}

func (p stubPlugin) Name() string    { return p.name }
func (p stubPlugin) Version() string { return p.version }

func (p stubPlugin) Register(reg *PluginRegistry) error {
	if p.register == nil {
		return nil
	}
	return p.register(reg)
}

type namedBlockingRule struct{ name string }

func (r namedBlockingRule) Name() string { return r.name }

func (r namedBlockingRule) Evaluate(_ context.Context, view RuleView, _ []Change) (Result, error) {
	res := Result{}
	for _, cfg := range view.ListConfigurations() {
		if cfg.Name == "forbidden" {
			res.Violations = append(res.Violations, Violation{
				Rule:     r.name,
				Severity: SeverityBlock,
				Message:  "configuration name is forbidden",
				Entity:   EntityConfiguration,
				EntityID: cfg.ID,
			})
		}
	}
	return res, nil
}

func pluginTrait(key string) TraitRecord {
	return TraitRecord{RawTrait: genetics.RawTrait{
		Key:                key,
		Name:               key,
		InheritancePattern: "autosomal complete dominance",
		Alleles:            []string{"T", "t"},
	}}
}

func TestPluginRegistryRegisterTrait(t *testing.T) {
	reg := NewPluginRegistry()
	if err := reg.RegisterTrait(TraitRecord{}); err == nil || !strings.Contains(err.Error(), "requires a key") {
		t.Fatalf("expected key requirement error, got %v", err)
	}
	if err := reg.RegisterTrait(pluginTrait("  tail_length  ")); err != nil {
		t.Fatalf("register trait: %v", err)
	}
	if err := reg.RegisterTrait(pluginTrait("tail_length")); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := reg.RegisterTrait(pluginTrait("ear_shape")); err != nil {
		t.Fatalf("register second trait: %v", err)
	}
	traits := reg.Traits()
	if len(traits) != 2 || traits[0].Key != "ear_shape" || traits[1].Key != "tail_length" {
		t.Fatalf("expected sorted trimmed traits, got %+v", traits)
	}
}

func TestPluginRegistryIgnoresNilRule(t *testing.T) {
	reg := NewPluginRegistry()
	reg.RegisterRule(nil)
	reg.RegisterRule(namedBlockingRule{name: "real"})
	if rules := reg.Rules(); len(rules) != 1 || rules[0].Name() != "real" {
		t.Fatalf("expected single rule, got %+v", reg.Rules())
	}
}

func TestInstallPluginRegistersTraitsAndRules(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewRulesEngine())
	plugin := stubPlugin{
		name:    "mousepack",
		version: "v1",
		register: func(reg *PluginRegistry) error {
			if err := reg.RegisterTrait(pluginTrait("tail_length")); err != nil {
				return err
			}
			reg.RegisterRule(namedBlockingRule{name: "no_forbidden"})
			return nil
		},
	}

	meta, err := svc.InstallPlugin(ctx, plugin)
	if err != nil {
		t.Fatalf("install plugin: %v", err)
	}
	if meta.Name != "mousepack" || meta.Version != "v1" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
	if len(meta.Traits) != 1 || meta.Traits[0] != "tail_length" {
		t.Fatalf("unexpected trait list: %+v", meta.Traits)
	}
	if _, ok := svc.GetTrait("tail_length"); !ok {
		t.Fatalf("expected plugin trait in catalog")
	}
	plugins := svc.RegisteredPlugins()
	if len(plugins) != 1 || plugins[0].Name != "mousepack" {
		t.Fatalf("unexpected registered plugins: %+v", plugins)
	}

	_, _, err = svc.CreateConfiguration(ctx, "forbidden")
	if err == nil {
		t.Fatalf("expected plugin rule to block configuration")
	}
	var violationErr RuleViolationError
	if !errors.As(err, &violationErr) || violationErr.Result.Violations[0].Rule != "no_forbidden" {
		t.Fatalf("expected plugin rule violation, got %v", err)
	}
}

func TestInstallPluginRejectsDuplicateName(t *testing.T) {
	ctx := context.Background()
	svc := NewInMemoryService(NewRulesEngine())
	if _, err := svc.InstallPlugin(ctx, stubPlugin{name: "mousepack", version: "v1"}); err != nil {
		t.Fatalf("install plugin: %v", err)
	}
	if _, err := svc.InstallPlugin(ctx, stubPlugin{name: "mousepack", version: "v2"}); err == nil || !strings.Contains(err.Error(), "already registered") {
		t.Fatalf("expected duplicate plugin error, got %v", err)
	}
}

func TestInstallPluginNilGuard(t *testing.T) {
	svc := NewInMemoryService(NewRulesEngine())
	if _, err := svc.InstallPlugin(context.Background(), nil); err == nil || !strings.Contains(err.Error(), "must not be nil") {
		t.Fatalf("expected nil plugin error, got %v", err)
	}
}

func TestInstallPluginPropagatesRegisterError(t *testing.T) {
	svc := NewInMemoryService(NewRulesEngine())
	plugin := stubPlugin{
		name:    "bad",
		version: "v1",
		register: func(*PluginRegistry) error {
			return errors.New("boom")
		},
	}
	if _, err := svc.InstallPlugin(context.Background(), plugin); err == nil || !strings.Contains(err.Error(), "register plugin bad: boom") {
		t.Fatalf("expected wrapped register error, got %v", err)
	}
}

func TestInstallPluginRequiresEngineForRules(t *testing.T) {
	svc := NewService(&fakePersistentStore{})
	plugin := stubPlugin{
		name:    "ruleful",
		version: "v1",
		register: func(reg *PluginRegistry) error {
			reg.RegisterRule(namedBlockingRule{name: "any"})
			return nil
		},
	}
	if _, err := svc.InstallPlugin(context.Background(), plugin); err == nil || !strings.Contains(err.Error(), "no rules engine") {
		t.Fatalf("expected missing engine error, got %v", err)
	}
}
