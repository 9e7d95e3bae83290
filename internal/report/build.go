// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report assembles and renders the final output of a review
// run: executive summary, verified papers with analyses, limitations,
// ranked gaps, and recommendations.
// Implements: prd007-report (R1-R4);
//
//	docs/ARCHITECTURE § Report.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// Input carries everything the workflow collected for one run.
type Input struct {
	ID          string
	Query       types.ResearchQuery
	Status      types.ReportStatus
	GeneratedAt time.Time
	Papers      []types.Paper
	Analyses    []types.PaperAnalysis
	Limitations []types.Limitation
	Gaps        []types.ResearchGap
	Rejected    []types.RejectedPaper
	Stats       types.ReportStats
}

// Build assembles the immutable ResearchReport. All slice fields of the
// result are non-nil so renderers and API clients always see lists.
func Build(in Input) types.ResearchReport {
	r := types.ResearchReport{
		ID:          in.ID,
		Query:       in.Query,
		GeneratedAt: in.GeneratedAt,
		Status:      in.Status,
		Papers:      in.Papers,
		Analyses:    in.Analyses,
		Limitations: in.Limitations,
		Gaps:        in.Gaps,
		Rejected:    in.Rejected,
		Stats:       in.Stats,
	}
	if r.GeneratedAt.IsZero() {
		r.GeneratedAt = time.Now().UTC()
	}
	if r.Status == "" {
		r.Status = types.ReportCompleted
	}
	if r.Papers == nil {
		r.Papers = []types.Paper{}
	}
	if r.Analyses == nil {
		r.Analyses = []types.PaperAnalysis{}
	}
	if r.Limitations == nil {
		r.Limitations = []types.Limitation{}
	}
	if r.Gaps == nil {
		r.Gaps = []types.ResearchGap{}
	}
	if r.Rejected == nil {
		r.Rejected = []types.RejectedPaper{}
	}

	r.ExecutiveSummary = executiveSummary(in)
	r.Recommendations = recommendations(in)
	return r
}

// executiveSummary composes the overview from run counts and the top
// gap titles.
func executiveSummary(in Input) string {
	if len(in.Papers) == 0 {
		return fmt.Sprintf("No papers on %q survived independent verification, so no evidence-based findings can be reported. Broaden the topic, relax the filters, or try different keywords.", in.Query.Topic)
	}

	parts := []string{fmt.Sprintf("Analysis of %d academic papers on %q", len(in.Papers), in.Query.Topic)}

	if n := len(in.Limitations); n > 0 {
		parts = append(parts, fmt.Sprintf("Identified %d research limitations (%s)", n, categoryBreakdown(in.Limitations)))
	}
	if n := len(in.Gaps); n > 0 {
		sentence := fmt.Sprintf("Found %d potential research gaps", n)
		if high := countByPriority(in.Gaps, types.PriorityHigh); high > 0 {
			sentence += fmt.Sprintf(", including %d high-priority opportunities", high)
		}
		parts = append(parts, sentence)
		if titles := gapTitles(in.Gaps, 3); len(titles) > 0 {
			parts = append(parts, "Top directions: "+strings.Join(titles, "; "))
		}
	}
	return strings.Join(parts, ". ") + "."
}

// limitationCategories fixes the rendering and tie-break order.
var limitationCategories = []types.LimitationCategory{
	types.LimitationMethodological,
	types.LimitationScope,
	types.LimitationExperimental,
}

func categoryBreakdown(limitations []types.Limitation) string {
	counts := countByCategory(limitations)
	var parts []string
	for _, c := range limitationCategories {
		if counts[c] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[c], c))
		}
	}
	return strings.Join(parts, ", ")
}

func countByCategory(limitations []types.Limitation) map[types.LimitationCategory]int {
	counts := make(map[types.LimitationCategory]int)
	for _, lim := range limitations {
		counts[lim.Category]++
	}
	return counts
}

func countByPriority(gaps []types.ResearchGap, p types.GapPriority) int {
	n := 0
	for _, g := range gaps {
		if g.Priority == p {
			n++
		}
	}
	return n
}

func gapTitles(gaps []types.ResearchGap, limit int) []string {
	var titles []string
	for _, g := range gaps {
		if len(titles) == limit {
			break
		}
		titles = append(titles, g.Title)
	}
	return titles
}

// methodologyAdvice maps the dominant limitation category to a
// forward-looking recommendation.
var methodologyAdvice = map[types.LimitationCategory]string{
	types.LimitationMethodological: "Consider improving methodological approaches in future research",
	types.LimitationScope:          "Extend future studies to broader datasets, populations, and settings",
	types.LimitationExperimental:   "Strengthen evaluation protocols and reproducibility practices",
}

// genericRecommendations pad the list when the findings alone yield
// fewer than three entries.
var genericRecommendations = []string{
	"Continue monitoring the research area for new developments",
	"Consider interdisciplinary approaches to address complex research questions",
	"Replicate key results across independent datasets before building on them",
}

// recommendations derives 3 to 5 next-step suggestions: up to three
// high-priority gap directions, methodology advice from the dominant
// limitation category, then generic follow-ups to reach three.
func recommendations(in Input) []string {
	recs := make([]string, 0, 5)

	if len(in.Papers) == 0 {
		recs = append(recs, "Retry with a broader topic, fewer filters, or different keywords")
	}

	for _, gap := range in.Gaps {
		if len(recs) >= 3 {
			break
		}
		if gap.Priority != types.PriorityHigh {
			continue
		}
		if gap.ProposedDirection != "" {
			recs = append(recs, fmt.Sprintf("Focus on addressing %q: %s", gap.Title, gap.ProposedDirection))
		} else {
			recs = append(recs, "Focus on addressing: "+gap.Title)
		}
	}

	if advice := dominantAdvice(in.Limitations); advice != "" && len(recs) < 5 {
		recs = append(recs, advice)
	}

	for _, generic := range genericRecommendations {
		if len(recs) >= 3 {
			break
		}
		recs = append(recs, generic)
	}
	return recs
}

func dominantAdvice(limitations []types.Limitation) string {
	if len(limitations) == 0 {
		return ""
	}
	counts := countByCategory(limitations)
	dominant := limitationCategories[0]
	for _, c := range limitationCategories[1:] {
		if counts[c] > counts[dominant] {
			dominant = c
		}
	}
	return methodologyAdvice[dominant]
}
