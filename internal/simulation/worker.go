package simulation

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"crosscore/internal/blob"
	"crosscore/internal/core"
	"crosscore/pkg/genetics"
)

// RunStatus describes the lifecycle stage of a simulation run.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunFormat selects an outcome artifact encoding.
type RunFormat string

const (
	FormatJSON RunFormat = "json"
	FormatCSV  RunFormat = "csv"
)

// auditAction labels every run audit entry.
const auditAction = "simulation_run"

// RunArtifact captures one stored run artifact.
type RunArtifact struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RunRecord tracks one simulation run request and its artifacts. Records
// live in worker memory only; the durable output is the artifact archive
// under runs/<id>/ in the blob store.
type RunRecord struct {
	ID              string        `json:"id"`
	ConfigurationID string        `json:"configuration_id"`
	Simulations     int           `json:"simulations"`
	Formats         []RunFormat   `json:"formats"`
	Status          RunStatus     `json:"status"`
	Error           string        `json:"error,omitempty"`
	Artifacts       []RunArtifact `json:"artifacts,omitempty"`
	RequestedBy     string        `json:"requested_by,omitempty"`
	Reason          string        `json:"reason,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

// RunInput represents an enqueue request for the worker.
type RunInput struct {
	ConfigurationID string
	Formats         []RunFormat
	RequestedBy     string
	Reason          string
}

// ConfigurationSource supplies the configurations runs are built from.
// *core.Service satisfies it.
type ConfigurationSource interface {
	GetConfiguration(id string) (core.CrossConfiguration, bool)
}

// AuditLog records run lifecycle transitions.
type AuditLog interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditEntry captures one run transition for the audit trail.
type AuditEntry struct {
	ID              string    `json:"id"`
	Action          string    `json:"action"`
	Actor           string    `json:"actor,omitempty"`
	RunID           string    `json:"run_id"`
	ConfigurationID string    `json:"configuration_id"`
	Status          RunStatus `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	Note            string    `json:"note,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// Worker executes simulation runs asynchronously. Each run loads its
// configuration, re-checks completeness, builds the engine payload, submits
// it, and archives payload and outcome artifacts.
type Worker struct {
	source ConfigurationSource
	engine Engine
	store  blob.Store
	audit  AuditLog

	queue chan runTask
	mu    sync.RWMutex
	jobs  map[string]*RunRecord

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type runTask struct {
	id string
}

type renderedArtifact struct {
	Name        string
	ContentType string
	Payload     []byte
}

// NewWorker constructs a run worker. The blob store and audit log are
// optional; without a store the run record still carries artifact metadata
// for the rendered files.
func NewWorker(source ConfigurationSource, engine Engine, store blob.Store, audit AuditLog) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		source: source,
		engine: engine,
		store:  store,
		audit:  audit,
		queue:  make(chan runTask, 32),
		jobs:   make(map[string]*RunRecord),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing queued runs.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for in-flight work to finish.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case task := <-w.queue:
			w.process(task)
		}
	}
}

// EnqueueRun schedules a simulation run and returns the queued record. The
// configuration must exist and every requested format must be supported;
// without explicit formats both JSON and CSV outcomes are produced.
func (w *Worker) EnqueueRun(ctx context.Context, input RunInput) (RunRecord, error) {
	if w.source == nil {
		return RunRecord{}, fmt.Errorf("configuration source not configured")
	}
	if w.engine == nil {
		return RunRecord{}, fmt.Errorf("simulation engine not configured")
	}
	cfg, ok := w.source.GetConfiguration(input.ConfigurationID)
	if !ok {
		return RunRecord{}, fmt.Errorf("configuration %s not found", input.ConfigurationID)
	}

	formats := input.Formats
	if len(formats) == 0 {
		formats = []RunFormat{FormatJSON, FormatCSV}
	}
	uniqFormats := make([]RunFormat, 0, len(formats))
	seen := make(map[RunFormat]struct{})
	for _, format := range formats {
		if _, duplicate := seen[format]; duplicate {
			continue
		}
		switch format {
		case FormatJSON, FormatCSV:
		default:
			return RunRecord{}, fmt.Errorf("format %s not supported", format)
		}
		uniqFormats = append(uniqFormats, format)
		seen[format] = struct{}{}
	}

	id := newRunID()
	now := time.Now().UTC()
	record := RunRecord{
		ID:              id,
		ConfigurationID: cfg.ID,
		Simulations:     cfg.Simulations,
		Formats:         uniqFormats,
		Status:          RunStatusQueued,
		RequestedBy:     input.RequestedBy,
		Reason:          input.Reason,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queuedSnapshot := record.copy()
	w.mu.Unlock()

	if w.audit != nil {
		w.audit.Record(ctx, AuditEntry{
			ID:              newRunID(),
			Action:          auditAction,
			Actor:           input.RequestedBy,
			RunID:           id,
			ConfigurationID: cfg.ID,
			Status:          RunStatusQueued,
			Reason:          input.Reason,
			OccurredAt:      now,
		})
	}

	select {
	case w.queue <- runTask{id: id}:
	default:
		return RunRecord{}, fmt.Errorf("run queue full")
	}

	return queuedSnapshot, nil
}

// GetRun returns a snapshot of the run record.
func (w *Worker) GetRun(id string) (RunRecord, bool) {
	w.mu.RLock()
	record, ok := w.jobs[id]
	if !ok {
		w.mu.RUnlock()
		return RunRecord{}, false
	}
	snapshot := record.copy()
	w.mu.RUnlock()
	return snapshot, true
}

// ListRuns returns snapshots of every known run ordered by creation time.
func (w *Worker) ListRuns() []RunRecord {
	w.mu.RLock()
	out := make([]RunRecord, 0, len(w.jobs))
	for _, record := range w.jobs {
		out = append(out, record.copy())
	}
	w.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (w *Worker) process(task runTask) {
	record := w.snapshot(task.id)
	if record == nil {
		return
	}

	cfg, ok := w.source.GetConfiguration(record.ConfigurationID)
	if !ok {
		w.fail(task.id, fmt.Sprintf("configuration %s missing", record.ConfigurationID))
		return
	}

	w.updateStatus(task.id, RunStatusRunning, "")

	if err := genetics.ValidateGenes(cfg.Genes); err != nil {
		w.fail(task.id, fmt.Sprintf("configuration incomplete: %v", err))
		return
	}
	payload := genetics.BuildPayload(genetics.BuildInput{
		Genes:          cfg.Genes,
		MotherSex:      cfg.Mother.Sex,
		MotherGenotype: cfg.Mother.Genotype,
		FatherSex:      cfg.Father.Sex,
		FatherGenotype: cfg.Father.Genotype,
		Simulations:    cfg.Simulations,
	})
	outcome, err := w.engine.Simulate(w.ctx, payload)
	if err != nil {
		w.fail(task.id, fmt.Sprintf("cross simulation failed: %v", err))
		return
	}

	rendered, err := materialize(payload, outcome, record.Formats)
	if err != nil {
		w.fail(task.id, err.Error())
		return
	}

	artifacts := make([]RunArtifact, 0, len(rendered))
	for _, artifact := range rendered {
		key := fmt.Sprintf("runs/%s/%s", task.id, artifact.Name)
		if w.store != nil {
			info, err := w.store.Put(w.ctx, key, bytes.NewReader(artifact.Payload), blob.PutOptions{
				ContentType: artifact.ContentType,
				Metadata: map[string]string{
					"run_id":           task.id,
					"configuration_id": record.ConfigurationID,
				},
			})
			if err != nil {
				w.fail(task.id, fmt.Sprintf("store artifact %s: %v", artifact.Name, err))
				return
			}
			artifacts = append(artifacts, RunArtifact{
				Key:         info.Key,
				ContentType: info.ContentType,
				SizeBytes:   info.Size,
				URL:         info.URL,
				CreatedAt:   info.LastModified,
			})
			continue
		}
		artifacts = append(artifacts, RunArtifact{
			Key:         key,
			ContentType: artifact.ContentType,
			SizeBytes:   int64(len(artifact.Payload)),
			CreatedAt:   time.Now().UTC(),
		})
	}

	w.complete(task.id, artifacts)
}

func (w *Worker) snapshot(id string) *RunRecord {
	w.mu.RLock()
	record, ok := w.jobs[id]
	w.mu.RUnlock()
	if !ok {
		return nil
	}
	return record
}

func (w *Worker) updateStatus(id string, status RunStatus, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
	}
	w.mu.Unlock()
	w.recordAudit(id, status, message, now)
}

func (w *Worker) complete(id string, artifacts []RunArtifact) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = RunStatusSucceeded
		record.Error = ""
		record.Artifacts = artifacts
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, RunStatusSucceeded, "", now)
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	if record, ok := w.jobs[id]; ok {
		record.Status = RunStatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
	}
	w.mu.Unlock()
	w.recordAudit(id, RunStatusFailed, reason, now)
}

func (w *Worker) recordAudit(id string, status RunStatus, note string, at time.Time) {
	if w.audit == nil {
		return
	}
	var actor, configID string
	w.mu.RLock()
	if record, ok := w.jobs[id]; ok {
		actor = record.RequestedBy
		configID = record.ConfigurationID
	}
	w.mu.RUnlock()
	w.audit.Record(w.ctx, AuditEntry{
		ID:              newRunID(),
		Action:          auditAction,
		Actor:           actor,
		RunID:           id,
		ConfigurationID: configID,
		Status:          status,
		Note:            note,
		OccurredAt:      at,
	})
}

// materialize renders the archived files of a run: the submitted payload
// plus the outcome in every requested format.
func materialize(payload genetics.CrossPayload, outcome Outcome, formats []RunFormat) ([]renderedArtifact, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload artifact: %w", err)
	}
	rendered := []renderedArtifact{{
		Name:        "payload.json",
		ContentType: "application/json",
		Payload:     payloadJSON,
	}}
	for _, format := range formats {
		switch format {
		case FormatJSON:
			outcomeJSON, err := json.Marshal(outcome)
			if err != nil {
				return nil, fmt.Errorf("marshal outcome artifact: %w", err)
			}
			rendered = append(rendered, renderedArtifact{
				Name:        "outcome.json",
				ContentType: "application/json",
				Payload:     outcomeJSON,
			})
		case FormatCSV:
			outcomeCSV, err := renderOutcomeCSV(outcome)
			if err != nil {
				return nil, fmt.Errorf("render outcome csv: %w", err)
			}
			rendered = append(rendered, renderedArtifact{
				Name:        "outcome.csv",
				ContentType: "text/csv",
				Payload:     outcomeCSV,
			})
		default:
			return nil, fmt.Errorf("unsupported run format %s", format)
		}
	}
	return rendered, nil
}

// renderOutcomeCSV flattens an outcome into kind,id,label,count,fraction
// rows: one row per phenotype bucket, then one per sex bucket.
func renderOutcomeCSV(outcome Outcome) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write([]string{"kind", "id", "label", "count", "fraction"}); err != nil {
		return nil, err
	}
	for _, share := range outcome.Phenotypes {
		row := []string{
			"phenotype",
			share.TraitID,
			share.Label,
			strconv.Itoa(share.Count),
			strconv.FormatFloat(share.Fraction, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	for _, share := range outcome.Sexes {
		row := []string{
			"sex",
			string(share.Sex),
			"",
			strconv.Itoa(share.Count),
			strconv.FormatFloat(share.Fraction, 'f', -1, 64),
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (r RunRecord) copy() RunRecord {
	dup := r
	dup.Formats = append([]RunFormat(nil), r.Formats...)
	if len(r.Artifacts) > 0 {
		dup.Artifacts = append([]RunArtifact(nil), r.Artifacts...)
	}
	return dup
}

func newRunID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", b[:])
}

// MemoryAuditLog captures audit entries in-memory for assertions.
type MemoryAuditLog struct {
	mu      sync.Mutex
	entries []AuditEntry
}

// Record stores an audit entry.
func (l *MemoryAuditLog) Record(_ context.Context, entry AuditEntry) {
	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()
}

// Entries returns a defensive copy of recorded audit entries.
func (l *MemoryAuditLog) Entries() []AuditEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
