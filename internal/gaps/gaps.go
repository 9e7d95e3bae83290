// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package gaps synthesizes research gaps from the accumulated
// limitation set. One model call proposes gaps over the whole set;
// proposals that cannot cite a known limitation are discarded.
// Implements: prd006-gaps (R1-R3);
//
//	docs/ARCHITECTURE § Gap Synthesis.
package gaps

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// Finder runs the gap-synthesis stage.
type Finder struct {
	client llm.Client
	log    *zap.Logger
}

// New builds a Finder using the given model client.
func New(client llm.Client, log *zap.Logger) *Finder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Finder{client: client, log: log}
}

// Summary holds counts from one synthesis run.
type Summary struct {
	// Proposed counts gaps the model suggested.
	Proposed int

	// Discarded counts proposals dropped by validation.
	Discarded int
}

// Output is the result of the gap stage, ranked.
type Output struct {
	Gaps    []types.ResearchGap
	Summary Summary
}

// gapResponse is the JSON contract the model replies with.
type gapResponse struct {
	Gaps []gapItem `json:"gaps"`
}

type gapItem struct {
	Title                 string `json:"title"`
	Description           string `json:"description"`
	ProposedDirection     string `json:"proposed_direction"`
	Priority              string `json:"priority"`
	SupportingLimitations []int  `json:"supporting_limitations"`
}

// Run synthesizes gaps from the limitation set in a single model call.
// Papers supply titles for the prompt and the PaperIDs on each gap.
// With no limitations the stage returns an empty output without calling
// the model.
func (f *Finder) Run(ctx context.Context, topic string, limitations []types.Limitation, papers []types.Paper) (Output, error) {
	if len(limitations) == 0 {
		return Output{}, nil
	}

	titles := make(map[string]string, len(papers))
	for _, p := range papers {
		titles[p.ID] = p.Title
	}

	prompt, err := renderPrompt(topic, limitations, titles)
	if err != nil {
		return Output{}, fmt.Errorf("rendering prompt: %w", err)
	}

	resp, err := f.client.Complete(ctx, llm.Request{
		System: gapSystem,
		Prompt: prompt,
	})
	if err != nil {
		return Output{}, fmt.Errorf("gap synthesis: %w", err)
	}

	var parsed gapResponse
	if err := llm.DecodeJSON(resp.Text, &parsed); err != nil {
		return Output{}, fmt.Errorf("gap synthesis: %w", err)
	}

	out := f.convertGaps(parsed.Gaps, limitations)
	Rank(out.Gaps)

	f.log.Info("gap synthesis complete",
		zap.Int("proposed", out.Summary.Proposed),
		zap.Int("discarded", out.Summary.Discarded),
		zap.Int("kept", len(out.Gaps)))
	return out, nil
}

func (f *Finder) convertGaps(items []gapItem, limitations []types.Limitation) Output {
	out := Output{Summary: Summary{Proposed: len(items)}}
	for i, item := range items {
		gap, reason := convertGap(item, limitations)
		if reason != "" {
			f.log.Info("gap discarded",
				zap.Int("item", i),
				zap.String("title", item.Title),
				zap.String("reason", reason))
			out.Summary.Discarded++
			continue
		}
		out.Gaps = append(out.Gaps, gap)
	}
	return out
}

// convertGap validates one proposal. A non-empty reason means the gap
// is discarded.
func convertGap(item gapItem, limitations []types.Limitation) (types.ResearchGap, string) {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		return types.ResearchGap{}, "empty title"
	}
	description := strings.TrimSpace(item.Description)
	if description == "" {
		return types.ResearchGap{}, "empty description"
	}
	direction := strings.TrimSpace(item.ProposedDirection)

	priority := types.GapPriority(strings.ToLower(strings.TrimSpace(item.Priority)))
	if !types.ValidGapPriority(priority) {
		priority = types.PriorityMedium
	}

	var limitationIDs, paperIDs []string
	seenLimitations := make(map[int]bool)
	seenPapers := make(map[string]bool)
	for _, n := range item.SupportingLimitations {
		if n < 1 || n > len(limitations) || seenLimitations[n] {
			continue
		}
		seenLimitations[n] = true
		lim := limitations[n-1]
		limitationIDs = append(limitationIDs, lim.ID)
		if !seenPapers[lim.PaperID] {
			seenPapers[lim.PaperID] = true
			paperIDs = append(paperIDs, lim.PaperID)
		}
	}
	if len(limitationIDs) == 0 {
		return types.ResearchGap{}, "no valid supporting limitations"
	}

	return types.ResearchGap{
		ID:                stableID(title, direction),
		Title:             title,
		Description:       description,
		ProposedDirection: direction,
		Priority:          priority,
		LimitationIDs:     limitationIDs,
		PaperIDs:          paperIDs,
	}, ""
}

// Rank orders gaps by priority (high first), then by supporting
// limitation count, then by title.
func Rank(gaps []types.ResearchGap) {
	sort.SliceStable(gaps, func(i, j int) bool {
		if a, b := gaps[i].Priority.Rank(), gaps[j].Priority.Rank(); a != b {
			return a < b
		}
		if a, b := len(gaps[i].LimitationIDs), len(gaps[j].LimitationIDs); a != b {
			return a > b
		}
		return gaps[i].Title < gaps[j].Title
	})
}

// stableID generates a deterministic ID from title and direction: the
// first 12 hex characters of their SHA-256 hash.
func stableID(title, direction string) string {
	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte(direction))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
