// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze produces structured per-paper analyses of verified
// papers: contributions, methodology, key concepts, and a model-judged
// relevance score against the review topic.
// Implements: prd004-analysis (R1-R3);
//
//	docs/ARCHITECTURE § Analysis.
package analyze

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// Analyzer runs the analysis stage over verified papers.
type Analyzer struct {
	client llm.Client
	log    *zap.Logger
}

// New builds an Analyzer using the given model client.
func New(client llm.Client, log *zap.Logger) *Analyzer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{client: client, log: log}
}

// Summary holds counts from one analysis run.
type Summary struct {
	Analyzed int
	Failed   int
}

// Total returns the number of papers processed.
func (s Summary) Total() int {
	return s.Analyzed + s.Failed
}

// Output is the result of the analysis stage.
type Output struct {
	Analyses []types.PaperAnalysis
	Summary  Summary
}

// analysisResponse is the JSON contract the model replies with.
type analysisResponse struct {
	KeyConcepts   []string `json:"key_concepts"`
	Methodology   string   `json:"methodology"`
	Contributions []string `json:"contributions"`
	Relevance     float64  `json:"relevance"`
	Notes         string   `json:"notes"`
}

// Run analyzes each paper with one model call. A paper whose call or
// response fails is dropped with a logged reason; the run only aborts
// when the model endpoint is unusable or the context ends.
func (a *Analyzer) Run(ctx context.Context, topic string, papers []types.Paper) (Output, error) {
	var out Output
	for _, p := range papers {
		analysis, err := a.analyzeOne(ctx, topic, p)
		if err != nil {
			if llm.Fatal(err) {
				return Output{}, fmt.Errorf("analyzing %q: %w", p.ID, err)
			}
			a.log.Warn("paper analysis failed",
				zap.String("paper_id", p.ID),
				zap.Error(err))
			out.Summary.Failed++
			continue
		}
		out.Analyses = append(out.Analyses, analysis)
		out.Summary.Analyzed++
	}

	a.log.Info("analysis complete",
		zap.Int("analyzed", out.Summary.Analyzed),
		zap.Int("failed", out.Summary.Failed))
	return out, nil
}

func (a *Analyzer) analyzeOne(ctx context.Context, topic string, p types.Paper) (types.PaperAnalysis, error) {
	prompt, err := renderPrompt(topic, p)
	if err != nil {
		return types.PaperAnalysis{}, fmt.Errorf("rendering prompt: %w", err)
	}

	resp, err := a.client.Complete(ctx, llm.Request{
		System: analysisSystem,
		Prompt: prompt,
	})
	if err != nil {
		return types.PaperAnalysis{}, err
	}

	var parsed analysisResponse
	if err := llm.DecodeJSON(resp.Text, &parsed); err != nil {
		return types.PaperAnalysis{}, err
	}

	analysis := types.PaperAnalysis{
		PaperID:       p.ID,
		Contributions: cleanList(parsed.Contributions),
		Methodology:   strings.TrimSpace(parsed.Methodology),
		KeyConcepts:   cleanList(parsed.KeyConcepts),
		Relevance:     parsed.Relevance,
		Notes:         strings.TrimSpace(parsed.Notes),
	}
	if len(analysis.Contributions) == 0 && analysis.Methodology == "" {
		return types.PaperAnalysis{}, fmt.Errorf("response named no contributions or methodology")
	}
	if analysis.Relevance <= 0 || analysis.Relevance > 1 {
		analysis.Relevance = fallbackRelevance(p)
	}
	return analysis, nil
}

// fallbackRelevance estimates relevance when the model omits the score:
// the search-stage ranking plus a citation boost capped at 0.2.
func fallbackRelevance(p types.Paper) float64 {
	boost := math.Min(float64(p.CitationCount)/100, 0.2)
	return math.Min(p.RelevanceScore+boost, 1.0)
}

// cleanList trims entries and drops empty ones.
func cleanList(items []string) []string {
	var out []string
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
