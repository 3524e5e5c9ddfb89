package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/joelmbaka/introspect/internal/core/domain"
	"github.com/joelmbaka/introspect/internal/core/ports/driving"
	"github.com/joelmbaka/introspect/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.ReportService = (*Pipeline)(nil)

// maxDiagnosticLen bounds failure messages surfaced to callers. Underlying
// error text is truncated, never exposed raw.
const maxDiagnosticLen = 300

// stage names the orchestrator's sequential states, used for logging.
type stage string

const (
	stageSelecting    stage = "selecting"
	stageRetrieving   stage = "retrieving"
	stageSynthesizing stage = "synthesizing"
	stageDone         stage = "done"
	stageFailed       stage = "failed"
)

// Pipeline is the orchestrator binding the planner, the retrieval stage, and
// the synthesis stage into one strictly sequential run per request. It owns
// error containment: nothing below it leaks an error past GenerateReport.
type Pipeline struct {
	planner   *Planner
	retrieval *RetrievalService
	synthesis *SynthesisService

	// DefaultMetric overrides the similarity metric for every run when set.
	// Zero value defers to the planner's default (cosine).
	DefaultMetric domain.Metric
}

// NewPipeline creates a fully wired pipeline.
func NewPipeline(planner *Planner, retrieval *RetrievalService, synthesis *SynthesisService) *Pipeline {
	if planner == nil {
		planner = NewPlanner()
	}
	return &Pipeline{
		planner:   planner,
		retrieval: retrieval,
		synthesis: synthesis,
	}
}

// GenerateReport runs the pipeline and shapes the outcome into the outbound
// response. It never returns an error.
func (p *Pipeline) GenerateReport(ctx context.Context, req domain.ReportRequest) domain.ReportResponse {
	return p.Run(ctx, req).Response()
}

// Run executes one request through the stage sequence
// selecting -> retrieving -> synthesizing -> done. Each stage starts only
// after the previous stage's output is fully materialized; any stage error
// transitions to failed with a bounded diagnostic.
func (p *Pipeline) Run(ctx context.Context, req domain.ReportRequest) domain.ReportOutcome {
	started := time.Now()
	runID := uuid.NewString()

	logger.Section("Report Pipeline")
	logger.Info("Run %s: user=%s prompt_len=%d", runID, req.UserID, len(req.Prompt))

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return p.fail(runID, started, "invalid request", err)
	}

	// Selecting.
	logger.Debug("Run %s: stage=%s", runID, stageSelecting)
	directive := p.planner.Plan(req.Prompt, PlanParams{
		MatchCount:    req.MatchCount,
		DateRangeDays: req.DateRangeDays,
		IDs:           req.EntryIDs,
		Metric:        p.DefaultMetric,
	})

	// Retrieving.
	logger.Debug("Run %s: stage=%s", runID, stageRetrieving)
	envelope := p.retrieve(ctx, directive, req)

	// Synthesizing.
	logger.Debug("Run %s: stage=%s", runID, stageSynthesizing)
	raw, err := p.synthesis.Synthesize(ctx, req.Prompt, envelope, req.PreferredAnalysisTypes)
	if err != nil {
		return p.fail(runID, started, "failed to parse synthesis output into a report", err)
	}

	report, err := CoerceReport(raw)
	if err != nil {
		return p.fail(runID, started, "synthesis produced an invalid report", err)
	}

	elapsed := time.Since(started)
	logger.Info("Run %s: stage=%s entries=%d confidence=%.2f elapsed=%s",
		runID, stageDone, report.EntriesAnalyzed, report.ConfidenceScore, elapsed)

	return domain.ReportOutcome{Report: report, Elapsed: elapsed}
}

// retrieve executes the directive and, when results are sparse, the single
// broadened follow-up the planner allows. The two result sets are merged
// and deduplicated; a failed follow-up never discards the first envelope.
func (p *Pipeline) retrieve(ctx context.Context, d domain.SearchDirective, req domain.ReportRequest) domain.RetrievalEnvelope {
	envelope := p.retrieval.Retrieve(ctx, d, req.UserToken)
	if envelope.Failed() || len(envelope.Results) >= p.planner.MinResults {
		return envelope
	}

	revised, ok := p.planner.Broaden(d, req.Prompt)
	if !ok {
		return envelope
	}

	logger.Info("Sparse results (%d < %d), issuing one broadened retrieval", len(envelope.Results), p.planner.MinResults)
	second := p.retrieval.Retrieve(ctx, revised, req.UserToken)
	if second.Failed() {
		return envelope
	}

	merged := MergeBatches(envelope.Results, second.Results)
	return domain.OkEnvelope(merged)
}

// fail builds the failure outcome with a bounded, human-readable message.
// Raw error text is truncated; stack traces and credentials never appear.
func (p *Pipeline) fail(runID string, started time.Time, prefix string, err error) domain.ReportOutcome {
	elapsed := time.Since(started)
	message := prefix
	if err != nil {
		message = prefix + ": " + err.Error()
	}
	message = truncateDiagnostic(message)

	logger.Warn("Run %s: stage=%s %s", runID, stageFailed, message)
	return domain.ReportOutcome{ErrMessage: message, Elapsed: elapsed}
}

// truncateDiagnostic caps a diagnostic at maxDiagnosticLen characters,
// appending an ellipsis marker when text was dropped.
func truncateDiagnostic(s string) string {
	if len(s) <= maxDiagnosticLen {
		return s
	}
	return s[:maxDiagnosticLen] + "..."
}
