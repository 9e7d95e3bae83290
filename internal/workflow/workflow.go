// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow sequences the review pipeline: search, verification,
// analysis, limitation extraction, gap synthesis, report assembly.
// Implements: prd008-workflow (R1-R6);
//
//	docs/ARCHITECTURE § Workflow.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/analyze"
	"github.com/pdiddy/litreview/internal/gaps"
	"github.com/pdiddy/litreview/internal/limits"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/report"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/internal/verify"
	"github.com/pdiddy/litreview/pkg/types"
)

// SearchRunner runs the candidate search stage.
type SearchRunner interface {
	Run(ctx context.Context, query search.Query, cfg types.SearchConfig) (search.Output, error)
}

// Verifier cross-checks candidates against independent sources.
type Verifier interface {
	Run(ctx context.Context, papers []types.Paper) (verify.Output, error)
}

// Analyzer produces per-paper analyses.
type Analyzer interface {
	Run(ctx context.Context, topic string, papers []types.Paper) (analyze.Output, error)
}

// LimitFinder extracts limitations from analyzed papers.
type LimitFinder interface {
	Run(ctx context.Context, papers []types.Paper, analyses []types.PaperAnalysis) (limits.Output, error)
}

// GapFinder synthesizes research gaps from the limitation set.
type GapFinder interface {
	Run(ctx context.Context, topic string, limitations []types.Limitation, papers []types.Paper) (gaps.Output, error)
}

// Archiver persists finished reports.
type Archiver interface {
	Save(ctx context.Context, report types.ResearchReport) error
}

// Stages bundles the pipeline stage implementations.
type Stages struct {
	Search   SearchRunner
	Verifier Verifier
	Analyzer Analyzer
	Limits   LimitFinder
	Gaps     GapFinder
}

// relaxedOverfetchFactor widens the candidate pool on the single relaxed
// re-search pass.
const relaxedOverfetchFactor = 3

// Controller sequences review runs. It carries no per-run state, so one
// Controller can serve concurrent Run calls.
type Controller struct {
	cfg      types.PipelineConfig
	stages   Stages
	archive  Archiver
	observer func(State)
	log      *zap.Logger
}

// New builds a Controller from config and stage implementations. A nil
// logger is replaced with a no-op logger.
func New(cfg types.PipelineConfig, stages Stages, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{cfg: cfg, stages: stages, log: log}
}

// NewFromConfig wires a Controller with the production stages: the
// enabled search backends, the verifier, and the configured LLM provider
// behind the three model stages. The provider constructor fails here
// when no API key is configured.
func NewFromConfig(cfg types.PipelineConfig, log *zap.Logger) (*Controller, error) {
	stages, err := StagesFromConfig(cfg, log)
	if err != nil {
		return nil, err
	}
	return New(cfg, stages, log), nil
}

// StagesFromConfig builds the production stage set. The stages are safe
// for concurrent runs and share one rate-limited LLM client, so callers
// running several workflows at once should build them once and hand the
// same set to each Controller.
func StagesFromConfig(cfg types.PipelineConfig, log *zap.Logger) (Stages, error) {
	if log == nil {
		log = zap.NewNop()
	}
	client, err := llm.New(cfg.LLM, log)
	if err != nil {
		return Stages{}, err
	}

	return Stages{
		Search:   &searchAdapter{backends: search.EnabledBackends(cfg.Search), log: log},
		Verifier: verify.New(cfg.Verify, log),
		Analyzer: analyze.New(client, log),
		Limits:   limits.New(client, log),
		Gaps:     gaps.New(client, log),
	}, nil
}

// Observe registers a callback invoked with a state snapshot after every
// transition. Set before calling Run.
func (c *Controller) Observe(fn func(State)) {
	c.observer = fn
}

// ArchiveTo sets the store that receives every finished report. Set
// before calling Run.
func (c *Controller) ArchiveTo(a Archiver) {
	c.archive = a
}

// searchAdapter binds the live backends to the search stage seam.
type searchAdapter struct {
	backends []search.Backend
	log      *zap.Logger
}

func (a *searchAdapter) Run(ctx context.Context, query search.Query, cfg types.SearchConfig) (search.Output, error) {
	return search.Run(ctx, query, a.backends, cfg, a.log)
}

// run tracks one workflow execution.
type run struct {
	c          *Controller
	state      State
	stageStart time.Time
}

// Run executes the full pipeline for one query. The returned report is
// complete even on the insufficient-evidence path; Run returns an error
// only when the workflow itself fails: an invalid query, a canceled
// context, or an unavailable LLM endpoint.
func (c *Controller) Run(ctx context.Context, query types.ResearchQuery) (types.ResearchReport, error) {
	query = query.WithDefaults()
	if err := query.Validate(); err != nil {
		return types.ResearchReport{}, fmt.Errorf("invalid query: %w", err)
	}

	now := time.Now()
	r := &run{
		c: c,
		state: State{
			ID:             uuid.NewString(),
			Query:          query,
			Stage:          StageStarted,
			Status:         StatusRunning,
			StartedAt:      now,
			StageDurations: make(map[string]time.Duration),
		},
		stageStart: now,
	}
	c.log.Info("workflow started",
		zap.String("id", r.state.ID),
		zap.String("topic", query.Topic))
	r.notify()

	out, err := c.execute(ctx, r)
	if err != nil {
		r.fail(err)
		return types.ResearchReport{}, err
	}
	r.complete()

	rep := c.assemble(r, out)
	if c.archive != nil {
		if aerr := c.archive.Save(ctx, rep); aerr != nil {
			c.log.Warn("archiving report failed",
				zap.String("id", rep.ID), zap.Error(aerr))
		}
	}
	return rep, nil
}

// outcome carries everything a run collected for report assembly.
type outcome struct {
	status      types.ReportStatus
	papers      []types.Paper
	analyses    []types.PaperAnalysis
	limitations []types.Limitation
	gaps        []types.ResearchGap
	rejected    []types.Paper
}

func (c *Controller) execute(ctx context.Context, r *run) (outcome, error) {
	query := r.state.Query

	r.transition(StageSearching)
	q := search.FromResearchQuery(query)
	// The candidate pool must scale with the requested report size, not
	// with whatever MaxResults the config file happens to carry (R4.2).
	searchCfg := c.cfg.Search
	searchCfg.MaxResults = query.MaxPapers
	sout, err := c.stages.Search.Run(ctx, q, searchCfg)
	if err != nil {
		return outcome{}, fmt.Errorf("search stage: %w", err)
	}
	candidates := sout.Papers
	r.state.Counters.Candidates = len(candidates)

	r.transition(StageVerifying)
	vout, err := c.stages.Verifier.Run(ctx, candidates)
	if err != nil {
		return outcome{}, fmt.Errorf("verification stage: %w", err)
	}
	verified, rejected := vout.Verified, vout.Rejected

	// One relaxed retry when nothing survives the first pass: widen the
	// candidate pool, drop the citation and date floors, and verify only
	// the candidates the first pass has not already judged.
	if len(verified) == 0 {
		r.transition(StageReSearching)
		relaxedCfg := searchCfg
		relaxedCfg.OverfetchFactor = relaxedOverfetchFactor
		rout, err := c.stages.Search.Run(ctx, q.Relax(), relaxedCfg)
		if err != nil {
			return outcome{}, fmt.Errorf("relaxed search: %w", err)
		}
		fresh := newCandidates(rout.Papers, candidates)
		r.state.Counters.Candidates += len(fresh)
		c.log.Info("relaxed re-search",
			zap.String("id", r.state.ID),
			zap.Int("fresh_candidates", len(fresh)))

		r.transition(StageVerifying)
		vout, err = c.stages.Verifier.Run(ctx, fresh)
		if err != nil {
			return outcome{}, fmt.Errorf("verification stage: %w", err)
		}
		verified = vout.Verified
		rejected = append(rejected, vout.Rejected...)
	}
	r.state.Counters.Rejected = len(rejected)

	if len(verified) == 0 {
		c.log.Warn("no papers survived verification",
			zap.String("id", r.state.ID),
			zap.String("topic", query.Topic))
		return outcome{status: types.ReportInsufficientEvidence, rejected: rejected}, nil
	}

	if len(verified) > query.MaxPapers {
		verify.SortByConfidence(verified)
		c.log.Info("capping verified papers",
			zap.String("id", r.state.ID),
			zap.Int("verified", len(verified)),
			zap.Int("max_papers", query.MaxPapers))
		verified = verified[:query.MaxPapers]
	}
	r.state.Counters.Verified = len(verified)

	r.transition(StageAnalyzing)
	aout, err := c.stages.Analyzer.Run(ctx, query.Topic, verified)
	if err != nil {
		return outcome{}, fmt.Errorf("analysis stage: %w", err)
	}
	if len(aout.Analyses) == 0 {
		c.log.Warn("analysis produced no results", zap.String("id", r.state.ID))
		return outcome{
			status:   types.ReportInsufficientEvidence,
			papers:   verified,
			rejected: rejected,
		}, nil
	}

	r.transition(StageLimitations)
	lout, err := c.stages.Limits.Run(ctx, verified, aout.Analyses)
	if err != nil {
		return outcome{}, fmt.Errorf("limitation stage: %w", err)
	}
	r.state.Counters.Limitations = len(lout.Limitations)
	if len(lout.Limitations) == 0 {
		c.log.Warn("no limitations extracted", zap.String("id", r.state.ID))
		return outcome{
			status:   types.ReportInsufficientEvidence,
			papers:   verified,
			analyses: aout.Analyses,
			rejected: rejected,
		}, nil
	}

	r.transition(StageGaps)
	gout, err := c.stages.Gaps.Run(ctx, query.Topic, lout.Limitations, verified)
	if err != nil {
		if llm.Fatal(err) {
			return outcome{}, fmt.Errorf("gap stage: %w", err)
		}
		// A malformed synthesis response is not fatal: finish the run
		// with what the earlier stages produced.
		c.log.Warn("gap synthesis unusable", zap.String("id", r.state.ID), zap.Error(err))
		gout = gaps.Output{}
	}
	r.state.Counters.Gaps = len(gout.Gaps)
	if len(gout.Gaps) == 0 {
		c.log.Warn("no gaps synthesized", zap.String("id", r.state.ID))
		return outcome{
			status:      types.ReportInsufficientEvidence,
			papers:      verified,
			analyses:    aout.Analyses,
			limitations: lout.Limitations,
			rejected:    rejected,
		}, nil
	}

	return outcome{
		status:      types.ReportCompleted,
		papers:      verified,
		analyses:    aout.Analyses,
		limitations: lout.Limitations,
		gaps:        gout.Gaps,
		rejected:    rejected,
	}, nil
}

// assemble builds the final report from the run's outcome and timings.
func (c *Controller) assemble(r *run, out outcome) types.ResearchReport {
	rejected := make([]types.RejectedPaper, 0, len(out.rejected))
	for _, p := range out.rejected {
		rejected = append(rejected, types.RejectedPaper{
			PaperID: p.ID,
			Title:   p.Title,
			Reason:  p.RejectionReason,
		})
	}

	return report.Build(report.Input{
		ID:          r.state.ID,
		Query:       r.state.Query,
		Status:      out.status,
		GeneratedAt: r.state.CompletedAt,
		Papers:      out.papers,
		Analyses:    out.analyses,
		Limitations: out.limitations,
		Gaps:        out.gaps,
		Rejected:    rejected,
		Stats: types.ReportStats{
			Candidates:     r.state.Counters.Candidates,
			Verified:       len(out.papers),
			Rejected:       len(out.rejected),
			Duration:       r.state.CompletedAt.Sub(r.state.StartedAt),
			StageDurations: r.state.snapshot().StageDurations,
		},
	})
}

// newCandidates filters out papers the first pass already judged so the
// relaxed re-search does not re-verify known rejections.
func newCandidates(relaxed, seen []types.Paper) []types.Paper {
	seenIDs := make(map[string]struct{}, len(seen))
	for _, p := range seen {
		seenIDs[p.ID] = struct{}{}
	}
	var fresh []types.Paper
	for _, p := range relaxed {
		if _, ok := seenIDs[p.ID]; ok {
			continue
		}
		fresh = append(fresh, p)
	}
	return fresh
}

// transition closes the timing of the current stage and enters the next.
func (r *run) transition(stage Stage) {
	r.finishStage()
	r.state.Stage = stage
	r.state.Progress = stage.Progress()
	r.stageStart = time.Now()
	r.c.log.Debug("stage started",
		zap.String("id", r.state.ID),
		zap.String("stage", string(stage)))
	r.notify()
}

func (r *run) finishStage() {
	if r.state.Stage == "" || r.state.Stage == StageStarted {
		return
	}
	r.state.StageDurations[string(r.state.Stage)] += time.Since(r.stageStart)
}

func (r *run) complete() {
	r.finishStage()
	r.state.Stage = StageCompleted
	r.state.Progress = StageCompleted.Progress()
	r.state.Status = StatusCompleted
	r.state.CompletedAt = time.Now()
	r.notify()
	r.c.log.Info("workflow completed",
		zap.String("id", r.state.ID),
		zap.Duration("duration", r.state.CompletedAt.Sub(r.state.StartedAt)),
		zap.Int("verified", r.state.Counters.Verified),
		zap.Int("limitations", r.state.Counters.Limitations),
		zap.Int("gaps", r.state.Counters.Gaps))
}

func (r *run) fail(err error) {
	r.finishStage()
	r.state.Status = StatusFailed
	r.state.Err = err.Error()
	r.state.CompletedAt = time.Now()
	r.notify()
	r.c.log.Error("workflow failed",
		zap.String("id", r.state.ID),
		zap.String("stage", string(r.state.Stage)),
		zap.Error(err))
}

func (r *run) notify() {
	if r.c.observer != nil {
		r.c.observer(r.state.snapshot())
	}
}
