package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planora/planora/internal/aiextract"
	"github.com/planora/planora/internal/heuristic"
	"github.com/planora/planora/internal/plan"
	"github.com/planora/planora/internal/textextract"
)

// ErrEmptyDocument is returned when extraction succeeds mechanically
// but yields no usable text. No parsing is attempted on empty input.
var ErrEmptyDocument = errors.New("no extractable text in document")

const defaultHeartbeatInterval = 3 * time.Second

// Document is one upload to extract. Format is detected at the request
// boundary so unsupported inputs are rejected before any stage runs.
type Document struct {
	Name   string
	Format textextract.Format
	Data   []byte

	// Caller optionally personalizes the first progress label.
	Caller string
}

// Result is the terminal output of a run.
type Result struct {
	Plan      *plan.Plan
	Source    string // "ai" or "heuristic"
	RequestID string
}

// Config assembles an orchestrator. A nil Provider disables the AI
// path; heuristic extraction always remains available.
type Config struct {
	Provider          aiextract.Provider
	Heuristic         heuristic.Options
	HeartbeatInterval time.Duration

	// ArchiveDir, when set, receives a copy of each successfully
	// extracted document, named by request ID. Empty disables archiving.
	ArchiveDir string
}

// Orchestrator runs the extraction pipeline. It is safe for concurrent
// use; each run operates on its own buffers and sink, and configuration
// swaps (hot reload) take effect on the next run.
type Orchestrator struct {
	mu         sync.RWMutex
	provider   aiextract.Provider
	heuristic  heuristic.Options
	heartbeat  time.Duration
	archiveDir string

	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	o := &Orchestrator{logger: logger}
	o.Update(cfg)
	return o
}

// Update swaps the runtime configuration. Called on config reload.
func (o *Orchestrator) Update(cfg Config) {
	if cfg.Provider == nil {
		cfg.Provider = aiextract.Noop{}
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}
	o.mu.Lock()
	o.provider = cfg.Provider
	o.heuristic = cfg.Heuristic
	o.heartbeat = cfg.HeartbeatInterval
	o.archiveDir = cfg.ArchiveDir
	o.mu.Unlock()
}

// Provider returns the currently configured AI provider.
func (o *Orchestrator) Provider() aiextract.Provider {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.provider
}

func (o *Orchestrator) snapshot() (aiextract.Provider, heuristic.Options, time.Duration, string) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.provider, o.heuristic, o.heartbeat, o.archiveDir
}

// Run executes the pipeline for one document, emitting progress to
// sink. The sink is not closed; the caller owns its lifecycle. On
// failure the terminal error event is emitted before returning.
func (o *Orchestrator) Run(ctx context.Context, doc Document, sink Sink) (*Result, error) {
	provider, opts, interval, archiveDir := o.snapshot()

	requestID := uuid.New().String()
	log := o.logger.With("request_id", requestID, "filename", doc.Name, "format", string(doc.Format))
	start := time.Now()
	log.Info("extraction started", "bytes", len(doc.Data), "provider", provider.Name())

	em := &emitter{sink: sink}

	em.emit(Event{Stage: StageReading, Progress: progressReading, Label: greetingLabel(doc.Caller)})
	em.emit(Event{Stage: StageExtracting, Progress: progressExtractOpen, Label: "Extrayendo el texto del documento..."})

	text, err := textextract.Extract(doc.Data, doc.Format)
	if err != nil {
		log.Warn("text extraction failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		em.emit(Event{Stage: StageError, Error: "No se pudo extraer texto del documento."})
		return nil, fmt.Errorf("extracting document text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("document produced no text", "elapsed_ms", time.Since(start).Milliseconds())
		em.emit(Event{Stage: StageError, Error: "El documento no contiene texto extraíble."})
		return nil, ErrEmptyDocument
	}
	em.emit(Event{Stage: StageExtracting, Progress: progressExtractDone})

	var aiPlan *plan.Plan
	if provider.Configured() {
		em.emit(Event{Stage: StageAnalyzing, Progress: progressAnalyzing, Label: heartbeatLabels[0]})
		stopHeartbeat := o.startHeartbeat(ctx, em, interval)
		aiPlan = o.tryAI(ctx, provider, text, log)
		stopHeartbeat()
	}

	em.emit(Event{Stage: StageStructuring, Progress: progressStructuring, Label: "Estructurando el plan..."})

	source := "heuristic"
	var result plan.Plan
	if aiPlan != nil {
		result = *aiPlan
		source = "ai"
	} else {
		result = heuristic.Parse(text, opts)
	}

	em.emit(Event{Stage: StageCopying, Progress: progressCopying, Label: "Preparando el resultado..."})
	if archiveDir != "" {
		if err := archiveDocument(archiveDir, requestID, doc); err != nil {
			// Archiving is best effort; the plan is already built.
			log.Warn("failed to archive document", "error", err)
		}
	}
	em.emit(Event{Stage: StageDone, Progress: progressDone, Plan: &result, Source: source})

	log.Info("extraction finished",
		"source", source,
		"plan_name", result.Name,
		"itinerary_days", len(result.Itinerary),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return &Result{Plan: &result, Source: source, RequestID: requestID}, nil
}

// tryAI attempts the AI path. Every failure mode — error, panic,
// cancellation — collapses to nil so the heuristic fallback runs.
func (o *Orchestrator) tryAI(ctx context.Context, provider aiextract.Provider, text string, log *slog.Logger) (result *plan.Plan) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("ai extraction panicked, falling back", "provider", provider.Name(), "panic", r)
			result = nil
		}
	}()

	start := time.Now()
	p, err := provider.Extract(ctx, text)
	if err != nil {
		log.Warn("ai extraction failed, falling back",
			"provider", provider.Name(),
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
	if p != nil {
		log.Info("ai extraction succeeded",
			"provider", provider.Name(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}
	return p
}

// archiveDocument keeps a copy of the upload, named by request ID so
// archived files never collide.
func archiveDocument(dir, requestID string, doc Document) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	name := requestID + "." + string(doc.Format)
	if err := os.WriteFile(filepath.Join(dir, name), doc.Data, 0o644); err != nil {
		return fmt.Errorf("writing archived document: %w", err)
	}
	return nil
}

// startHeartbeat emits periodic analyzing events while the AI call is
// in flight. The ticker is request-scoped: the returned stop function
// ends the goroutine and waits for it, so no heartbeat can fire after
// the call settles.
func (o *Orchestrator) startHeartbeat(ctx context.Context, em *emitter, interval time.Duration) func() {
	hbCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		progress := progressAnalyzing + heartbeatStep
		for i := 1; ; i++ {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				em.emit(Event{
					Stage:    StageAnalyzing,
					Progress: progress,
					Label:    heartbeatLabels[i%len(heartbeatLabels)],
				})
				if progress < heartbeatCeiling {
					progress += heartbeatStep
					if progress > heartbeatCeiling {
						progress = heartbeatCeiling
					}
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
