package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/litreview/internal/analyze"
	"github.com/pdiddy/litreview/internal/gaps"
	"github.com/pdiddy/litreview/internal/limits"
	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/internal/verify"
	"github.com/pdiddy/litreview/pkg/types"
)

// --- stage fakes ---

type fakeSearch struct {
	outputs []search.Output
	err     error
	calls   int
	queries []search.Query
	cfgs    []types.SearchConfig
}

func (f *fakeSearch) Run(_ context.Context, q search.Query, cfg types.SearchConfig) (search.Output, error) {
	f.calls++
	f.queries = append(f.queries, q)
	f.cfgs = append(f.cfgs, cfg)
	if f.err != nil {
		return search.Output{}, f.err
	}
	i := f.calls - 1
	if i >= len(f.outputs) {
		i = len(f.outputs) - 1
	}
	if i < 0 {
		return search.Output{}, nil
	}
	return f.outputs[i], nil
}

type fakeVerifier struct {
	fn      func([]types.Paper) (verify.Output, error)
	calls   int
	batches [][]types.Paper
}

func (f *fakeVerifier) Run(_ context.Context, papers []types.Paper) (verify.Output, error) {
	f.calls++
	f.batches = append(f.batches, papers)
	if f.fn == nil {
		return verifyAll(papers), nil
	}
	return f.fn(papers)
}

type fakeAnalyzer struct {
	fn    func(string, []types.Paper) (analyze.Output, error)
	calls int
}

func (f *fakeAnalyzer) Run(_ context.Context, topic string, papers []types.Paper) (analyze.Output, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(topic, papers)
	}
	out := analyze.Output{}
	for _, p := range papers {
		out.Analyses = append(out.Analyses, types.PaperAnalysis{
			PaperID:       p.ID,
			Contributions: []string{"a contribution"},
			Methodology:   "a methodology",
			Relevance:     0.8,
		})
	}
	out.Summary.Analyzed = len(out.Analyses)
	return out, nil
}

type fakeLimits struct {
	fn    func([]types.Paper, []types.PaperAnalysis) (limits.Output, error)
	calls int
}

func (f *fakeLimits) Run(_ context.Context, papers []types.Paper, analyses []types.PaperAnalysis) (limits.Output, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(papers, analyses)
	}
	out := limits.Output{}
	for _, a := range analyses {
		out.Limitations = append(out.Limitations, types.Limitation{
			ID:          "lim-" + a.PaperID,
			PaperID:     a.PaperID,
			Category:    types.LimitationMethodological,
			Description: "narrow evaluation",
			Confidence:  0.7,
		})
	}
	out.Summary.Extracted = len(out.Limitations)
	return out, nil
}

type fakeGaps struct {
	fn    func(string, []types.Limitation, []types.Paper) (gaps.Output, error)
	calls int
}

func (f *fakeGaps) Run(_ context.Context, topic string, lims []types.Limitation, papers []types.Paper) (gaps.Output, error) {
	f.calls++
	if f.fn != nil {
		return f.fn(topic, lims, papers)
	}
	if len(lims) == 0 {
		return gaps.Output{}, nil
	}
	return gaps.Output{
		Gaps: []types.ResearchGap{{
			ID:                "gap-1",
			Title:             "Underexplored direction",
			Description:       "d",
			ProposedDirection: "try it",
			Priority:          types.PriorityHigh,
			LimitationIDs:     []string{lims[0].ID},
			PaperIDs:          []string{lims[0].PaperID},
		}},
		Summary: gaps.Summary{Proposed: 1},
	}, nil
}

type fakeArchive struct {
	saved []types.ResearchReport
	err   error
}

func (f *fakeArchive) Save(_ context.Context, r types.ResearchReport) error {
	f.saved = append(f.saved, r)
	return f.err
}

// --- helpers ---

func makePapers(n int) []types.Paper {
	papers := make([]types.Paper, n)
	for i := range papers {
		papers[i] = types.Paper{
			ID:             fmt.Sprintf("p%02d", i+1),
			Title:          fmt.Sprintf("Paper %02d", i+1),
			Authors:        []string{"Some Author"},
			Source:         "arxiv",
			RelevanceScore: 1.0 - float64(i)*0.05,
			Status:         types.VerificationUnverified,
		}
	}
	return papers
}

func verifyAll(papers []types.Paper) verify.Output {
	var out verify.Output
	for _, p := range papers {
		p.Status = types.VerificationVerified
		p.Confidence = 0.9
		out.Verified = append(out.Verified, p)
	}
	return out
}

func rejectAll(papers []types.Paper) verify.Output {
	var out verify.Output
	for _, p := range papers {
		p.Status = types.VerificationRejected
		p.RejectionReason = "not found in any source"
		out.Rejected = append(out.Rejected, p)
	}
	return out
}

func rejectFirst(n int) func([]types.Paper) (verify.Output, error) {
	return func(papers []types.Paper) (verify.Output, error) {
		var out verify.Output
		for i, p := range papers {
			if i < n {
				p.Status = types.VerificationRejected
				p.RejectionReason = "metadata mismatch"
				out.Rejected = append(out.Rejected, p)
				continue
			}
			p.Status = types.VerificationVerified
			p.Confidence = 0.9
			out.Verified = append(out.Verified, p)
		}
		return out, nil
	}
}

type testStages struct {
	search   *fakeSearch
	verifier *fakeVerifier
	analyzer *fakeAnalyzer
	limits   *fakeLimits
	gaps     *fakeGaps
}

func (s *testStages) stages() Stages {
	return Stages{
		Search:   s.search,
		Verifier: s.verifier,
		Analyzer: s.analyzer,
		Limits:   s.limits,
		Gaps:     s.gaps,
	}
}

// happyStages drives a clean full run: 12 candidates, 2 rejected.
func happyStages() *testStages {
	return &testStages{
		search:   &fakeSearch{outputs: []search.Output{{Papers: makePapers(12)}}},
		verifier: &fakeVerifier{fn: rejectFirst(2)},
		analyzer: &fakeAnalyzer{},
		limits:   &fakeLimits{},
		gaps:     &fakeGaps{},
	}
}

func testQuery() types.ResearchQuery {
	return types.ResearchQuery{
		Topic:     "Deep Learning in Medical Image Analysis",
		MaxPapers: 10,
	}
}

func newTestController(ts *testStages) *Controller {
	return New(types.PipelineConfig{}, ts.stages(), nil)
}

// --- tests ---

func TestRunHappyPath(t *testing.T) {
	ts := happyStages()
	c := newTestController(ts)

	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if rep.Status != types.ReportCompleted {
		t.Errorf("Status = %q, want %q", rep.Status, types.ReportCompleted)
	}
	if len(rep.Papers) != 10 {
		t.Fatalf("len(Papers) = %d, want 10", len(rep.Papers))
	}
	for _, p := range rep.Papers {
		if p.Status != types.VerificationVerified {
			t.Errorf("paper %s status = %q, want verified", p.ID, p.Status)
		}
	}
	if len(rep.Rejected) != 2 {
		t.Errorf("len(Rejected) = %d, want 2", len(rep.Rejected))
	}
	for _, rej := range rep.Rejected {
		if rej.Reason == "" {
			t.Errorf("rejected paper %s has no reason", rej.PaperID)
		}
	}
	if rep.Stats.Candidates != 12 || rep.Stats.Verified != 10 || rep.Stats.Rejected != 2 {
		t.Errorf("Stats = %+v, want 12/10/2", rep.Stats)
	}
	if len(rep.ID) != 36 {
		t.Errorf("ID = %q, want a UUID", rep.ID)
	}
	if rep.ExecutiveSummary == "" {
		t.Error("ExecutiveSummary is empty")
	}
	if len(rep.Recommendations) < 3 {
		t.Errorf("len(Recommendations) = %d, want at least 3", len(rep.Recommendations))
	}
	if rep.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}

	for _, stage := range []Stage{StageSearching, StageVerifying, StageAnalyzing, StageLimitations, StageGaps} {
		if _, ok := rep.Stats.StageDurations[string(stage)]; !ok {
			t.Errorf("StageDurations missing %q", stage)
		}
	}

	if ts.search.calls != 1 {
		t.Errorf("search calls = %d, want 1", ts.search.calls)
	}
	if ts.verifier.calls != 1 {
		t.Errorf("verifier calls = %d, want 1", ts.verifier.calls)
	}
}

func TestRunObserverSequence(t *testing.T) {
	c := newTestController(happyStages())

	var states []State
	c.Observe(func(s State) { states = append(states, s) })

	if _, err := c.Run(context.Background(), testQuery()); err != nil {
		t.Fatal(err)
	}

	wantStages := []Stage{
		StageStarted, StageSearching, StageVerifying, StageAnalyzing,
		StageLimitations, StageGaps, StageCompleted,
	}
	wantProgress := []int{0, 20, 40, 60, 80, 90, 100}

	if len(states) != len(wantStages) {
		t.Fatalf("got %d notifications, want %d", len(states), len(wantStages))
	}
	for i, s := range states {
		if s.Stage != wantStages[i] {
			t.Errorf("states[%d].Stage = %q, want %q", i, s.Stage, wantStages[i])
		}
		if s.Progress != wantProgress[i] {
			t.Errorf("states[%d].Progress = %d, want %d", i, s.Progress, wantProgress[i])
		}
	}

	last := states[len(states)-1]
	if last.Status != StatusCompleted {
		t.Errorf("final Status = %q, want %q", last.Status, StatusCompleted)
	}
	if last.CompletedAt.IsZero() {
		t.Error("final CompletedAt not set")
	}
	for _, s := range states[:len(states)-1] {
		if s.Status != StatusRunning {
			t.Errorf("stage %q Status = %q, want running", s.Stage, s.Status)
		}
	}
}

func TestRunCapsVerifiedSet(t *testing.T) {
	ts := happyStages()
	ts.verifier.fn = nil // verify all 12

	c := newTestController(ts)
	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Papers) != 10 {
		t.Fatalf("len(Papers) = %d, want 10 after capping", len(rep.Papers))
	}
	// verifyAll assigns uniform confidence, so relevance breaks the tie
	// and the two lowest-relevance papers are dropped.
	for _, p := range rep.Papers {
		if p.ID == "p11" || p.ID == "p12" {
			t.Errorf("paper %s should have been capped out", p.ID)
		}
	}
	if rep.Stats.Verified != 10 {
		t.Errorf("Stats.Verified = %d, want 10", rep.Stats.Verified)
	}
	// Capped-out papers are not rejections.
	if len(rep.Rejected) != 0 {
		t.Errorf("len(Rejected) = %d, want 0", len(rep.Rejected))
	}
}

func TestRunSearchLimitTracksQuery(t *testing.T) {
	ts := happyStages()
	ts.search.outputs = []search.Output{{Papers: makePapers(40)}}
	ts.verifier.fn = nil // verify everything

	c := newTestController(ts)
	q := testQuery()
	q.MaxPapers = 30
	rep, err := c.Run(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}

	// The per-run result count comes from the query; a config-file
	// MaxResults (zero here) must not shrink the candidate pool below
	// the requested report size.
	if got := ts.search.cfgs[0].MaxResults; got != 30 {
		t.Fatalf("search MaxResults = %d, want 30 from the query", got)
	}
	if len(rep.Papers) != 30 {
		t.Errorf("len(Papers) = %d, want 30", len(rep.Papers))
	}
	if rep.Stats.Verified != 30 {
		t.Errorf("Stats.Verified = %d, want 30", rep.Stats.Verified)
	}
}

func TestRunCapPrefersConfidence(t *testing.T) {
	ts := happyStages()
	ts.search.outputs = []search.Output{{Papers: makePapers(4)}}
	ts.verifier.fn = func(papers []types.Paper) (verify.Output, error) {
		out := verifyAll(papers)
		// Invert the ordering: the lowest-relevance paper gets the
		// strongest verification.
		for i := range out.Verified {
			out.Verified[i].Confidence = 0.6 + float64(i)*0.1
		}
		return out, nil
	}

	c := newTestController(ts)
	q := testQuery()
	q.MaxPapers = 2
	rep, err := c.Run(context.Background(), q)
	if err != nil {
		t.Fatal(err)
	}

	if len(rep.Papers) != 2 {
		t.Fatalf("len(Papers) = %d, want 2", len(rep.Papers))
	}
	for _, p := range rep.Papers {
		if p.ID != "p03" && p.ID != "p04" {
			t.Errorf("paper %s kept; the cap should keep the two highest-confidence papers", p.ID)
		}
	}
}

func TestRunRelaxedResearch(t *testing.T) {
	firstPass := makePapers(5)
	secondPass := makePapers(7) // p01..p05 overlap, p06 and p07 are fresh

	ts := happyStages()
	ts.search.outputs = []search.Output{{Papers: firstPass}, {Papers: secondPass}}
	firstCall := true
	ts.verifier.fn = func(papers []types.Paper) (verify.Output, error) {
		if firstCall {
			firstCall = false
			return rejectAll(papers), nil
		}
		return verifyAll(papers), nil
	}

	var stages []Stage
	c := newTestController(ts)
	c.Observe(func(s State) { stages = append(stages, s.Stage) })

	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	if ts.search.calls != 2 {
		t.Fatalf("search calls = %d, want 2", ts.search.calls)
	}
	relaxed := ts.search.queries[1]
	if relaxed.MinCitations != 0 || !relaxed.DateFrom.IsZero() {
		t.Errorf("second query not relaxed: %+v", relaxed)
	}
	if ts.search.cfgs[1].OverfetchFactor != 3 {
		t.Errorf("relaxed OverfetchFactor = %d, want 3", ts.search.cfgs[1].OverfetchFactor)
	}
	if ts.search.cfgs[1].MaxResults != 10 {
		t.Errorf("relaxed MaxResults = %d, want the query's 10", ts.search.cfgs[1].MaxResults)
	}

	if ts.verifier.calls != 2 {
		t.Fatalf("verifier calls = %d, want 2", ts.verifier.calls)
	}
	second := ts.verifier.batches[1]
	if len(second) != 2 {
		t.Fatalf("second verify batch = %d papers, want only the 2 fresh ones", len(second))
	}
	for _, p := range second {
		if p.ID != "p06" && p.ID != "p07" {
			t.Errorf("unexpected paper %s in second verify batch", p.ID)
		}
	}

	if rep.Status != types.ReportCompleted {
		t.Errorf("Status = %q, want completed", rep.Status)
	}
	if len(rep.Papers) != 2 {
		t.Errorf("len(Papers) = %d, want 2", len(rep.Papers))
	}
	if rep.Stats.Candidates != 7 {
		t.Errorf("Stats.Candidates = %d, want 7 across both passes", rep.Stats.Candidates)
	}
	if rep.Stats.Rejected != 5 {
		t.Errorf("Stats.Rejected = %d, want 5", rep.Stats.Rejected)
	}

	sawReSearch := false
	for _, s := range stages {
		if s == StageReSearching {
			sawReSearch = true
		}
	}
	if !sawReSearch {
		t.Error("observer never saw the re-searching stage")
	}
}

func TestRunInsufficientEvidence(t *testing.T) {
	ts := happyStages()
	ts.search.outputs = []search.Output{{}, {}}

	c := newTestController(ts)
	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("insufficient evidence must not be an error: %v", err)
	}

	if rep.Status != types.ReportInsufficientEvidence {
		t.Errorf("Status = %q, want %q", rep.Status, types.ReportInsufficientEvidence)
	}
	if rep.Papers == nil || rep.Limitations == nil || rep.Gaps == nil {
		t.Error("slice fields must be non-nil")
	}
	if len(rep.Papers) != 0 || len(rep.Limitations) != 0 || len(rep.Gaps) != 0 {
		t.Errorf("papers/limitations/gaps = %d/%d/%d, want all empty",
			len(rep.Papers), len(rep.Limitations), len(rep.Gaps))
	}

	// Exactly one relaxed re-search, no model stages.
	if ts.search.calls != 2 {
		t.Errorf("search calls = %d, want 2", ts.search.calls)
	}
	if ts.analyzer.calls != 0 || ts.limits.calls != 0 || ts.gaps.calls != 0 {
		t.Errorf("model stages ran: %d/%d/%d calls",
			ts.analyzer.calls, ts.limits.calls, ts.gaps.calls)
	}
}

func TestRunEmptyAnalysesIsInsufficient(t *testing.T) {
	ts := happyStages()
	ts.analyzer.fn = func(string, []types.Paper) (analyze.Output, error) {
		return analyze.Output{}, nil
	}

	c := newTestController(ts)
	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	if rep.Status != types.ReportInsufficientEvidence {
		t.Errorf("Status = %q, want insufficient-evidence", rep.Status)
	}
	if len(rep.Papers) != 10 {
		t.Errorf("len(Papers) = %d, verified papers should be kept", len(rep.Papers))
	}
	if ts.limits.calls != 0 {
		t.Error("limitation stage should not run without analyses")
	}
}

func TestRunEmptyLimitationsIsInsufficient(t *testing.T) {
	ts := happyStages()
	ts.limits.fn = func([]types.Paper, []types.PaperAnalysis) (limits.Output, error) {
		return limits.Output{}, nil
	}

	c := newTestController(ts)
	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}

	if rep.Status != types.ReportInsufficientEvidence {
		t.Errorf("Status = %q, want insufficient-evidence", rep.Status)
	}
	if len(rep.Analyses) != 10 {
		t.Errorf("len(Analyses) = %d, analyses should be kept", len(rep.Analyses))
	}
	if ts.gaps.calls != 0 {
		t.Error("gap stage should not run without limitations")
	}
}

func TestRunGapSynthesisNonFatalError(t *testing.T) {
	ts := happyStages()
	ts.gaps.fn = func(string, []types.Limitation, []types.Paper) (gaps.Output, error) {
		return gaps.Output{}, errors.New("gap synthesis: parsing model response JSON: unexpected end")
	}

	c := newTestController(ts)
	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("a malformed synthesis response must not fail the run: %v", err)
	}

	if rep.Status != types.ReportInsufficientEvidence {
		t.Errorf("Status = %q, want insufficient-evidence", rep.Status)
	}
	if len(rep.Limitations) != 10 {
		t.Errorf("len(Limitations) = %d, limitations should be kept", len(rep.Limitations))
	}
}

func TestRunLLMUnavailableFails(t *testing.T) {
	tests := []struct {
		name string
		prep func(*testStages)
	}{
		{
			"analysis stage",
			func(ts *testStages) {
				ts.analyzer.fn = func(string, []types.Paper) (analyze.Output, error) {
					return analyze.Output{}, fmt.Errorf("analyzing %q: %w", "p03", llm.ErrUnavailable)
				}
			},
		},
		{
			"limitation stage",
			func(ts *testStages) {
				ts.limits.fn = func([]types.Paper, []types.PaperAnalysis) (limits.Output, error) {
					return limits.Output{}, fmt.Errorf("extracting limitations for %q: %w", "p03", llm.ErrUnavailable)
				}
			},
		},
		{
			"gap stage",
			func(ts *testStages) {
				ts.gaps.fn = func(string, []types.Limitation, []types.Paper) (gaps.Output, error) {
					return gaps.Output{}, fmt.Errorf("gap synthesis: %w", llm.ErrUnavailable)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := happyStages()
			tt.prep(ts)

			var last State
			c := newTestController(ts)
			c.Observe(func(s State) { last = s })

			_, err := c.Run(context.Background(), testQuery())
			if !errors.Is(err, llm.ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
			if last.Status != StatusFailed {
				t.Errorf("final Status = %q, want failed", last.Status)
			}
			if last.Err == "" {
				t.Error("final state carries no error text")
			}
		})
	}
}

func TestRunSearchErrorFails(t *testing.T) {
	ts := happyStages()
	ts.search.err = errors.New("all backends unreachable")

	var last State
	c := newTestController(ts)
	c.Observe(func(s State) { last = s })

	_, err := c.Run(context.Background(), testQuery())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "search stage") {
		t.Errorf("err = %v", err)
	}
	if last.Status != StatusFailed || last.Stage != StageSearching {
		t.Errorf("final state = %q/%q, want failed at searching", last.Status, last.Stage)
	}
}

func TestRunInvalidQuery(t *testing.T) {
	ts := happyStages()
	c := newTestController(ts)

	_, err := c.Run(context.Background(), types.ResearchQuery{Topic: "ab"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "invalid query") {
		t.Errorf("err = %v", err)
	}
	if ts.search.calls != 0 {
		t.Error("no stage should run for an invalid query")
	}
}

func TestRunArchivesReports(t *testing.T) {
	ts := happyStages()
	ar := &fakeArchive{}

	c := newTestController(ts)
	c.ArchiveTo(ar)

	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatal(err)
	}
	if len(ar.saved) != 1 {
		t.Fatalf("archived %d reports, want 1", len(ar.saved))
	}
	if ar.saved[0].ID != rep.ID {
		t.Errorf("archived ID = %q, want %q", ar.saved[0].ID, rep.ID)
	}
}

func TestRunArchivesInsufficientEvidence(t *testing.T) {
	ts := happyStages()
	ts.search.outputs = []search.Output{{}, {}}
	ar := &fakeArchive{}

	c := newTestController(ts)
	c.ArchiveTo(ar)

	if _, err := c.Run(context.Background(), testQuery()); err != nil {
		t.Fatal(err)
	}
	if len(ar.saved) != 1 {
		t.Fatalf("archived %d reports, want 1", len(ar.saved))
	}
	if ar.saved[0].Status != types.ReportInsufficientEvidence {
		t.Errorf("archived Status = %q", ar.saved[0].Status)
	}
}

func TestRunArchiveFailureDoesNotFailRun(t *testing.T) {
	ts := happyStages()
	ar := &fakeArchive{err: errors.New("disk full")}

	c := newTestController(ts)
	c.ArchiveTo(ar)

	rep, err := c.Run(context.Background(), testQuery())
	if err != nil {
		t.Fatalf("archive failure must not fail the run: %v", err)
	}
	if rep.Status != types.ReportCompleted {
		t.Errorf("Status = %q", rep.Status)
	}
}
