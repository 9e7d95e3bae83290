package report

import (
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

func testInput() Input {
	return Input{
		ID: "8b1a9953c461",
		Query: types.ResearchQuery{
			Topic:     "neural machine translation",
			Domain:    "Computer Science",
			MaxPapers: 10,
		},
		Status:      types.ReportCompleted,
		GeneratedAt: time.Date(2026, 2, 10, 9, 30, 0, 0, time.UTC),
		Papers: []types.Paper{
			{
				ID:             "1706.03762",
				Title:          "Attention Is All You Need",
				Authors:        []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar", "Jakob Uszkoreit"},
				Venue:          "arXiv",
				Date:           time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
				CitationCount:  90000,
				URL:            "https://arxiv.org/abs/1706.03762",
				Source:         "arxiv",
				RelevanceScore: 0.9,
				Status:         types.VerificationVerified,
			},
			{
				ID:             "10.1109/CVPR.2016.90",
				Title:          "Deep Residual Learning for Image Recognition.",
				Authors:        []string{"Kaiming He", "Xiangyu Zhang", "Shaoqing Ren"},
				Venue:          "CVPR",
				Date:           time.Date(2016, 6, 27, 0, 0, 0, 0, time.UTC),
				CitationCount:  150000,
				Source:         "semantic_scholar",
				RelevanceScore: 0.7,
				Status:         types.VerificationVerified,
			},
		},
		Analyses: []types.PaperAnalysis{
			{
				PaperID:       "1706.03762",
				Contributions: []string{"transformer architecture", "multi-head attention"},
				Methodology:   "Sequence transduction with self-attention only.",
				KeyConcepts:   []string{"attention", "positional encoding"},
				Relevance:     0.95,
				Notes:         "Foundational work.",
			},
			{
				PaperID:       "10.1109/CVPR.2016.90",
				Contributions: []string{"residual connections"},
				Methodology:   "Deep CNNs with identity shortcuts.",
				Relevance:     0.6,
			},
		},
		Limitations: []types.Limitation{
			{
				ID:          "aaa111aaa111",
				PaperID:     "1706.03762",
				Category:    types.LimitationMethodological,
				Description: "Evaluated only on two translation benchmarks.",
				Confidence:  0.8,
			},
			{
				ID:          "bbb222bbb222",
				PaperID:     "1706.03762",
				Category:    types.LimitationMethodological,
				Description: "No ablation of positional encoding variants.",
				Confidence:  0.6,
			},
			{
				ID:          "ccc333ccc333",
				PaperID:     "10.1109/CVPR.2016.90",
				Category:    types.LimitationScope,
				Description: "Image classification only.",
				Confidence:  0.7,
			},
		},
		Gaps: []types.ResearchGap{
			{
				ID:                "ddd444ddd444",
				Title:             "Low-resource language pairs",
				Description:       "Attention models are untested below 100k sentence pairs.",
				ProposedDirection: "Benchmark transformer variants on low-resource corpora.",
				Priority:          types.PriorityHigh,
				LimitationIDs:     []string{"aaa111aaa111", "bbb222bbb222"},
				PaperIDs:          []string{"1706.03762"},
			},
			{
				ID:            "eee555eee555",
				Title:         "Cross-domain transfer",
				Description:   "Residual architectures lack evaluation outside vision.",
				Priority:      types.PriorityMedium,
				LimitationIDs: []string{"ccc333ccc333"},
				PaperIDs:      []string{"10.1109/CVPR.2016.90"},
			},
		},
		Rejected: []types.RejectedPaper{
			{PaperID: "9999.99999", Title: "Phantom Paper", Reason: "not found in any verification source"},
		},
		Stats: types.ReportStats{
			Candidates: 9,
			Verified:   2,
			Rejected:   1,
			Duration:   42 * time.Second,
		},
	}
}

func TestBuildComposesExecutiveSummary(t *testing.T) {
	r := Build(testInput())

	want := `Analysis of 2 academic papers on "neural machine translation". ` +
		`Identified 3 research limitations (2 methodological, 1 scope). ` +
		`Found 2 potential research gaps, including 1 high-priority opportunities. ` +
		`Top directions: Low-resource language pairs; Cross-domain transfer.`
	if r.ExecutiveSummary != want {
		t.Errorf("ExecutiveSummary =\n%q\nwant\n%q", r.ExecutiveSummary, want)
	}
}

func TestBuildRecommendations(t *testing.T) {
	r := Build(testInput())

	if len(r.Recommendations) != 3 {
		t.Fatalf("len(Recommendations) = %d, want 3: %v", len(r.Recommendations), r.Recommendations)
	}
	want0 := `Focus on addressing "Low-resource language pairs": Benchmark transformer variants on low-resource corpora.`
	if r.Recommendations[0] != want0 {
		t.Errorf("Recommendations[0] = %q, want %q", r.Recommendations[0], want0)
	}
	if r.Recommendations[1] != "Consider improving methodological approaches in future research" {
		t.Errorf("Recommendations[1] = %q", r.Recommendations[1])
	}
	if r.Recommendations[2] != "Continue monitoring the research area for new developments" {
		t.Errorf("Recommendations[2] = %q", r.Recommendations[2])
	}
}

func TestBuildRecommendationsCapsGapEntries(t *testing.T) {
	in := testInput()
	in.Gaps = nil
	for i := 0; i < 5; i++ {
		in.Gaps = append(in.Gaps, types.ResearchGap{
			ID:            "gap" + string(rune('0'+i)),
			Title:         "Gap " + string(rune('A'+i)),
			Description:   "d",
			Priority:      types.PriorityHigh,
			LimitationIDs: []string{"aaa111aaa111"},
		})
	}

	r := Build(in)

	gapRecs := 0
	for _, rec := range r.Recommendations {
		if strings.HasPrefix(rec, "Focus on addressing") {
			gapRecs++
		}
	}
	if gapRecs != 3 {
		t.Errorf("gap-derived recommendations = %d, want 3: %v", gapRecs, r.Recommendations)
	}
	if len(r.Recommendations) > 5 {
		t.Errorf("len(Recommendations) = %d, want at most 5", len(r.Recommendations))
	}
}

func TestBuildRecommendationsWithoutDirection(t *testing.T) {
	in := testInput()
	in.Gaps = []types.ResearchGap{{
		ID:            "fff666fff666",
		Title:         "Untitled direction",
		Description:   "d",
		Priority:      types.PriorityHigh,
		LimitationIDs: []string{"aaa111aaa111"},
	}}

	r := Build(in)

	if r.Recommendations[0] != "Focus on addressing: Untitled direction" {
		t.Errorf("Recommendations[0] = %q", r.Recommendations[0])
	}
}

func TestBuildGenericFill(t *testing.T) {
	in := testInput()
	in.Limitations = nil
	in.Gaps = nil

	r := Build(in)

	if len(r.Recommendations) != 3 {
		t.Fatalf("len(Recommendations) = %d, want 3: %v", len(r.Recommendations), r.Recommendations)
	}
	for i, want := range genericRecommendations {
		if r.Recommendations[i] != want {
			t.Errorf("Recommendations[%d] = %q, want %q", i, r.Recommendations[i], want)
		}
	}
}

func TestBuildInsufficientEvidence(t *testing.T) {
	in := testInput()
	in.Status = types.ReportInsufficientEvidence
	in.Papers = nil
	in.Analyses = nil
	in.Limitations = nil
	in.Gaps = nil

	r := Build(in)

	if !strings.Contains(r.ExecutiveSummary, `No papers on "neural machine translation" survived independent verification`) {
		t.Errorf("ExecutiveSummary = %q", r.ExecutiveSummary)
	}
	if !strings.Contains(r.Recommendations[0], "broader topic") {
		t.Errorf("Recommendations[0] = %q, want retry advice first", r.Recommendations[0])
	}
	if r.Papers == nil || r.Analyses == nil || r.Limitations == nil || r.Gaps == nil || r.Rejected == nil {
		t.Error("all slice fields must be non-nil")
	}
}

func TestBuildDefaults(t *testing.T) {
	r := Build(Input{ID: "x", Query: types.ResearchQuery{Topic: "t"}})

	if r.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should default to now")
	}
	if r.Status != types.ReportCompleted {
		t.Errorf("Status = %q, want %q", r.Status, types.ReportCompleted)
	}
	if r.Papers == nil || r.Rejected == nil {
		t.Error("slices should be non-nil")
	}
}

func TestCategoryBreakdownOrder(t *testing.T) {
	limitations := []types.Limitation{
		{Category: types.LimitationExperimental},
		{Category: types.LimitationScope},
		{Category: types.LimitationExperimental},
		{Category: types.LimitationMethodological},
	}

	got := categoryBreakdown(limitations)
	want := "1 methodological, 1 scope, 2 experimental"
	if got != want {
		t.Errorf("categoryBreakdown() = %q, want %q", got, want)
	}
}

func TestDominantAdvice(t *testing.T) {
	tests := []struct {
		name        string
		limitations []types.Limitation
		want        string
	}{
		{"empty", nil, ""},
		{
			"scope dominates",
			[]types.Limitation{
				{Category: types.LimitationScope},
				{Category: types.LimitationScope},
				{Category: types.LimitationMethodological},
			},
			"Extend future studies to broader datasets, populations, and settings",
		},
		{
			"tie goes to methodological",
			[]types.Limitation{
				{Category: types.LimitationExperimental},
				{Category: types.LimitationMethodological},
			},
			"Consider improving methodological approaches in future research",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantAdvice(tt.limitations); got != tt.want {
				t.Errorf("dominantAdvice() = %q, want %q", got, tt.want)
			}
		})
	}
}
