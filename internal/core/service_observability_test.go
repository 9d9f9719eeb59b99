package core

import (
	"bytes"
	"context"
	"expvar"
	"strings"
	"testing"
	"time"

	"crosscore/pkg/domain"
	"crosscore/pkg/genetics"
)

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

func (c *captureAuditRecorder) has(op string, status AuditStatus, predicate func(AuditEntry) bool) bool {
	for _, entry := range c.entries {
		if entry.Operation == op && entry.Status == status {
			if predicate == nil || predicate(entry) {
				return true
			}
		}
	}
	return false
}

type metricsCall struct {
	op       string
	success  bool
	duration time.Duration
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, duration time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success, duration: duration})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	started []string
	ended   []spanRecord
}

type spanRecord struct {
	op  string
	err error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	c.started = append(c.started, op)
	return ctx, &captureSpan{tracer: c, op: op}
}

func (c *captureTracer) has(op string, success bool) bool {
	for _, record := range c.ended {
		if record.op == op {
			if success && record.err == nil {
				return true
			}
			if !success && record.err != nil {
				return true
			}
		}
	}
	return false
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.ended = append(s.tracer.ended, spanRecord{op: s.op, err: err})
}

func TestServiceObservabilityComplianceOperations(t *testing.T) {
	ctx := context.Background()
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	tracer := &captureTracer{}

	svc := NewInMemoryService(NewRulesEngine(),
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
	)

	trait := domain.TraitRecord{
		RawTrait: genetics.RawTrait{
			Key:                "fur_color",
			Name:               "Fur color",
			InheritancePattern: "autosomal complete dominance",
			Alleles:            []string{"B", "b"},
			PhenotypeMap:       map[string]string{"BB": "black", "Bb": "black", "bb": "brown"},
		},
		Species: "mouse",
	}
	if _, _, err := svc.RegisterTrait(ctx, trait); err != nil {
		t.Fatalf("register trait: %v", err)
	}
	if !audit.has("register_trait", AuditStatusSuccess, func(entry AuditEntry) bool { return entry.EntityID == "fur_color" }) {
		t.Fatalf("expected audit entry for register_trait success")
	}

	cfg, _, err := svc.CreateConfiguration(ctx, "Observability cross")
	if err != nil {
		t.Fatalf("create configuration: %v", err)
	}
	if !audit.has("create_configuration", AuditStatusSuccess, func(entry AuditEntry) bool { return entry.EntityID == cfg.ID }) {
		t.Fatalf("expected audit entry for create_configuration success")
	}

	if _, _, err := svc.AddGeneFromTrait(ctx, cfg.ID, "fur_color"); err != nil {
		t.Fatalf("add gene from trait: %v", err)
	}
	if _, _, err := svc.AddGene(ctx, cfg.ID, genetics.Gene{
		Name: "Spot density",
		Alleles: []genetics.Allele{
			{ID: "D", DominanceRank: 2, Effects: []genetics.Effect{{TraitID: "spot_density", Magnitude: 1}}},
		},
	}); err != nil {
		t.Fatalf("add gene: %v", err)
	}
	if _, _, err := svc.UpdateGene(ctx, cfg.ID, "fur_color", func(g *genetics.Gene) error {
		g.Name = "Coat color gene"
		return nil
	}); err != nil {
		t.Fatalf("update gene: %v", err)
	}
	if _, _, err := svc.RenameGene(ctx, cfg.ID, "fur_color", "coat_color"); err != nil {
		t.Fatalf("rename gene: %v", err)
	}
	if _, _, err := svc.SetParentSex(ctx, cfg.ID, RoleMother, genetics.SexFemale); err != nil {
		t.Fatalf("set parent sex: %v", err)
	}
	if _, _, err := svc.SetGenotypeAllele(ctx, cfg.ID, RoleMother, "coat_color", 0, "b"); err != nil {
		t.Fatalf("set genotype allele: %v", err)
	}
	if _, _, err := svc.SetSimulations(ctx, cfg.ID, 500); err != nil {
		t.Fatalf("set simulations: %v", err)
	}
	if _, _, err := svc.RemoveGene(ctx, cfg.ID, "spot_density"); err != nil {
		t.Fatalf("remove gene: %v", err)
	}
	if _, _, err := svc.RemoveTrait(ctx, "fur_color"); err != nil {
		t.Fatalf("remove trait: %v", err)
	}

	if _, err := svc.BuildPayload(ctx, cfg.ID); err != nil {
		t.Fatalf("build payload: %v", err)
	}
	if !metrics.has("build_payload", true) || !tracer.has("build_payload", true) {
		t.Fatalf("expected observability entries for build_payload")
	}
	for _, entry := range audit.entries {
		if entry.Operation == "build_payload" {
			t.Fatalf("build_payload is not an audited operation: %+v", entry)
		}
	}

	if _, err := svc.DeleteConfiguration(ctx, "missing-configuration"); err == nil {
		t.Fatalf("expected delete_configuration error for missing id")
	}
	if !audit.has("delete_configuration", AuditStatusError, nil) {
		t.Fatalf("expected audit error entry for delete_configuration")
	}
	if !metrics.has("delete_configuration", false) {
		t.Fatalf("expected metrics entry for failed delete_configuration")
	}
	if !tracer.has("delete_configuration", false) {
		t.Fatalf("expected trace span for failed delete_configuration")
	}

	if _, err := svc.DeleteConfiguration(ctx, cfg.ID); err != nil {
		t.Fatalf("delete configuration success: %v", err)
	}

	successOps := []string{
		"create_configuration",
		"delete_configuration",
		"add_gene_from_trait",
		"add_gene",
		"update_gene",
		"rename_gene",
		"remove_gene",
		"set_parent_sex",
		"set_genotype_allele",
		"set_simulations",
		"register_trait",
		"remove_trait",
	}

	for _, op := range successOps {
		if !metrics.has(op, true) {
			t.Fatalf("expected metrics success entry for %s", op)
		}
		if !tracer.has(op, true) {
			t.Fatalf("expected finished span for %s", op)
		}
		if !audit.has(op, AuditStatusSuccess, nil) {
			t.Fatalf("expected audit success entry for %s", op)
		}
	}
}

const entryStatusSuccess = "success"
const entryStatusError = "error"

func TestExpvarMetricsRecorderExports(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	if recorder.Name() == "" {
		t.Fatalf("expected recorder to have export name")
	}
	recorder.Observe(context.Background(), "test_op", true, 10*time.Millisecond)
	recorder.Observe(context.Background(), "test_op", false, 5*time.Millisecond)

	snapshot := recorder.Snapshot()
	if snapshot.DurationsMS["test_op"] <= 0 {
		t.Fatalf("expected positive duration, snapshot=%+v", snapshot)
	}
	if snapshot.Results["test_op"][entryStatusSuccess] != 1 || snapshot.Results["test_op"][entryStatusError] != 1 {
		t.Fatalf("unexpected results snapshot=%+v", snapshot)
	}

	if v := expvar.Get(recorder.Name()); v == nil {
		t.Fatalf("expected expvar export to be registered")
	} else if !strings.Contains(v.String(), "test_op") {
		t.Fatalf("expected expvar output to contain operation: %s", v.String())
	}
}

func TestJSONTraceTracerExports(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)
	_, span := tracer.Start(context.Background(), "trace_op")
	span.End(nil)

	entries := tracer.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected single span entry, got %d", len(entries))
	}
	if entries[0].Operation != "trace_op" || entries[0].Status != entryStatusSuccess {
		t.Fatalf("unexpected span entry: %+v", entries[0])
	}
	if !strings.Contains(buf.String(), "\"operation\":\"trace_op\"") {
		t.Fatalf("expected JSON output to contain operation: %q", buf.String())
	}
}
