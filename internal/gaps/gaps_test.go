package gaps

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

type fakeClient struct {
	fn func(ctx context.Context, req llm.Request) (llm.Response, error)
}

func (f *fakeClient) Name() string { return "fake:test" }

func (f *fakeClient) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	return f.fn(ctx, req)
}

func testLimitations() ([]types.Limitation, []types.Paper) {
	limitations := []types.Limitation{
		{ID: "aaa111aaa111", PaperID: "p1", Category: types.LimitationMethodological, Description: "Single dataset.", Confidence: 0.7},
		{ID: "bbb222bbb222", PaperID: "p1", Category: types.LimitationScope, Description: "English only.", Confidence: 0.8},
		{ID: "ccc333ccc333", PaperID: "p2", Category: types.LimitationExperimental, Description: "No ablations.", Confidence: 0.6},
	}
	papers := []types.Paper{
		{ID: "p1", Title: "Attention Is All You Need"},
		{ID: "p2", Title: "Deep Residual Learning"},
	}
	return limitations, papers
}

func TestRunSynthesizesGaps(t *testing.T) {
	client := &fakeClient{fn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
		text := `{"gaps": [
			{"title": "Multilingual coverage", "description": "No evidence beyond English.", "proposed_direction": "Build multilingual benchmarks.", "priority": "high", "supporting_limitations": [2]},
			{"title": "Ablation depth", "description": "Component contributions unknown.", "proposed_direction": "Systematic ablations.", "priority": "medium", "supporting_limitations": [1, 3]}
		]}`
		return llm.Response{Text: text}, nil
	}}

	limitations, papers := testLimitations()
	out, err := New(client, zap.NewNop()).Run(context.Background(), "neural translation", limitations, papers)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Summary.Proposed != 2 || out.Summary.Discarded != 0 {
		t.Fatalf("summary = %+v", out.Summary)
	}
	if len(out.Gaps) != 2 {
		t.Fatalf("got %d gaps", len(out.Gaps))
	}

	// High priority sorts first.
	first := out.Gaps[0]
	if first.Title != "Multilingual coverage" {
		t.Errorf("first gap = %q", first.Title)
	}
	if first.Priority != types.PriorityHigh {
		t.Errorf("Priority = %q", first.Priority)
	}
	if len(first.LimitationIDs) != 1 || first.LimitationIDs[0] != "bbb222bbb222" {
		t.Errorf("LimitationIDs = %v", first.LimitationIDs)
	}
	if len(first.PaperIDs) != 1 || first.PaperIDs[0] != "p1" {
		t.Errorf("PaperIDs = %v", first.PaperIDs)
	}
	if len(first.ID) != 12 {
		t.Errorf("ID = %q", first.ID)
	}

	second := out.Gaps[1]
	if len(second.LimitationIDs) != 2 {
		t.Errorf("LimitationIDs = %v", second.LimitationIDs)
	}
	if len(second.PaperIDs) != 2 {
		t.Errorf("PaperIDs = %v", second.PaperIDs)
	}
}

func TestRunDiscardsUnsupportedGaps(t *testing.T) {
	client := &fakeClient{fn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
		text := `{"gaps": [
			{"title": "No citations", "description": "d", "proposed_direction": "x", "priority": "high", "supporting_limitations": []},
			{"title": "Bad citations", "description": "d", "proposed_direction": "x", "priority": "high", "supporting_limitations": [99, 0, -1]},
			{"title": "Kept", "description": "d", "proposed_direction": "x", "priority": "low", "supporting_limitations": [1]}
		]}`
		return llm.Response{Text: text}, nil
	}}

	limitations, papers := testLimitations()
	out, err := New(client, zap.NewNop()).Run(context.Background(), "topic", limitations, papers)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Summary.Proposed != 3 || out.Summary.Discarded != 2 {
		t.Fatalf("summary = %+v", out.Summary)
	}
	if len(out.Gaps) != 1 || out.Gaps[0].Title != "Kept" {
		t.Fatalf("gaps = %+v", out.Gaps)
	}
}

func TestRunEmptyLimitationsSkipsModel(t *testing.T) {
	client := &fakeClient{fn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
		t.Error("unexpected model call")
		return llm.Response{}, nil
	}}

	out, err := New(client, zap.NewNop()).Run(context.Background(), "topic", nil, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out.Gaps) != 0 || out.Summary.Proposed != 0 {
		t.Fatalf("out = %+v", out)
	}
}

func TestRunMalformedResponse(t *testing.T) {
	client := &fakeClient{fn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
		return llm.Response{Text: "I could not find any gaps."}, nil
	}}

	limitations, papers := testLimitations()
	_, err := New(client, zap.NewNop()).Run(context.Background(), "topic", limitations, papers)
	if err == nil {
		t.Fatal("want error for malformed response")
	}
	if llm.Fatal(err) {
		t.Errorf("malformed response classified fatal: %v", err)
	}
}

func TestRunUnavailableIsFatal(t *testing.T) {
	client := &fakeClient{fn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
		return llm.Response{}, fmt.Errorf("%w: after 2 retries: boom", llm.ErrUnavailable)
	}}

	limitations, papers := testLimitations()
	_, err := New(client, zap.NewNop()).Run(context.Background(), "topic", limitations, papers)
	if !errors.Is(err, llm.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}

func TestConvertGapValidation(t *testing.T) {
	limitations, _ := testLimitations()
	tests := []struct {
		name       string
		item       gapItem
		wantReason string
	}{
		{"empty title", gapItem{Description: "d", SupportingLimitations: []int{1}}, "empty title"},
		{"empty description", gapItem{Title: "t", SupportingLimitations: []int{1}}, "empty description"},
		{"no support", gapItem{Title: "t", Description: "d"}, "no valid supporting limitations"},
		{"valid", gapItem{Title: "t", Description: "d", Priority: "HIGH", SupportingLimitations: []int{1, 1, 2}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gap, reason := convertGap(tt.item, limitations)
			if reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", reason, tt.wantReason)
			}
			if tt.wantReason != "" {
				return
			}
			if gap.Priority != types.PriorityHigh {
				t.Errorf("Priority = %q", gap.Priority)
			}
			// Duplicate index 1 collapses.
			if len(gap.LimitationIDs) != 2 {
				t.Errorf("LimitationIDs = %v", gap.LimitationIDs)
			}
		})
	}
}

func TestConvertGapDefaultsPriority(t *testing.T) {
	limitations, _ := testLimitations()
	gap, reason := convertGap(gapItem{Title: "t", Description: "d", Priority: "urgent", SupportingLimitations: []int{1}}, limitations)
	if reason != "" {
		t.Fatalf("reason = %q", reason)
	}
	if gap.Priority != types.PriorityMedium {
		t.Errorf("Priority = %q, want medium fallback", gap.Priority)
	}
}

func TestRank(t *testing.T) {
	gaps := []types.ResearchGap{
		{Title: "b", Priority: types.PriorityMedium, LimitationIDs: []string{"1"}},
		{Title: "a", Priority: types.PriorityHigh, LimitationIDs: []string{"1"}},
		{Title: "c", Priority: types.PriorityHigh, LimitationIDs: []string{"1", "2"}},
		{Title: "a2", Priority: types.PriorityMedium, LimitationIDs: []string{"1"}},
	}
	Rank(gaps)

	want := []string{"c", "a", "a2", "b"}
	for i, title := range want {
		if gaps[i].Title != title {
			t.Fatalf("order = %v, want %v", titles(gaps), want)
		}
	}
}

func titles(gaps []types.ResearchGap) []string {
	out := make([]string, len(gaps))
	for i, g := range gaps {
		out[i] = g.Title
	}
	return out
}

func TestPromptGroupsByCategory(t *testing.T) {
	var got llm.Request
	client := &fakeClient{fn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
		got = req
		return llm.Response{Text: `{"gaps": []}`}, nil
	}}

	limitations, papers := testLimitations()
	if _, err := New(client, zap.NewNop()).Run(context.Background(), "neural translation", limitations, papers); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, want := range []string{
		"Research topic: neural translation",
		"across 2 verified papers",
		"METHODOLOGICAL:",
		"SCOPE:",
		"EXPERIMENTAL:",
		"1. [Attention Is All You Need] Single dataset.",
		"2. [Attention Is All You Need] English only.",
		"3. [Deep Residual Learning] No ablations.",
	} {
		if !strings.Contains(got.Prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if !strings.Contains(got.System, "research gaps") {
		t.Errorf("System = %q", got.System)
	}
}
