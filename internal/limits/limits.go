// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package limits extracts categorized limitation statements from
// analyzed papers. Limitation IDs are stable content hashes so repeated
// runs over the same material produce the same identifiers.
// Implements: prd005-limitations (R1-R3);
//
//	docs/ARCHITECTURE § Limitations.
package limits

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/llm"
	"github.com/pdiddy/litreview/pkg/types"
)

// Finder runs the limitation-extraction stage.
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

// Summary holds counts from one extraction run.
type Summary struct {
	// Extracted counts limitations that passed validation.
	Extracted int

	// Skipped counts model items dropped by validation.
	Skipped int

	// Failed counts papers whose model call or response failed.
	Failed int
}

// Output is the result of the limitation stage.
type Output struct {
	Limitations []types.Limitation
	Summary     Summary
}

// limitationResponse is the JSON contract the model replies with.
type limitationResponse struct {
	Limitations []limitationItem `json:"limitations"`
}

type limitationItem struct {
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Run extracts limitations for each analyzed paper with one model call
// per paper. Invalid items are skipped with a logged reason; a paper
// whose call fails is dropped. The run only aborts when the model
// endpoint is unusable or the context ends.
func (f *Finder) Run(ctx context.Context, papers []types.Paper, analyses []types.PaperAnalysis) (Output, error) {
	byID := make(map[string]types.Paper, len(papers))
	for _, p := range papers {
		byID[p.ID] = p
	}

	var out Output
	for _, analysis := range analyses {
		paper, ok := byID[analysis.PaperID]
		if !ok {
			f.log.Warn("analysis references unknown paper", zap.String("paper_id", analysis.PaperID))
			out.Summary.Failed++
			continue
		}

		limitations, skipped, err := f.extractOne(ctx, paper, analysis)
		if err != nil {
			if llm.Fatal(err) {
				return Output{}, fmt.Errorf("extracting limitations for %q: %w", paper.ID, err)
			}
			f.log.Warn("limitation extraction failed",
				zap.String("paper_id", paper.ID),
				zap.Error(err))
			out.Summary.Failed++
			continue
		}

		for _, reason := range skipped {
			f.log.Debug("limitation item skipped",
				zap.String("paper_id", paper.ID),
				zap.String("reason", reason))
		}
		out.Limitations = append(out.Limitations, limitations...)
		out.Summary.Extracted += len(limitations)
		out.Summary.Skipped += len(skipped)
	}

	f.log.Info("limitation extraction complete",
		zap.Int("extracted", out.Summary.Extracted),
		zap.Int("skipped", out.Summary.Skipped),
		zap.Int("failed", out.Summary.Failed))
	return out, nil
}

func (f *Finder) extractOne(ctx context.Context, p types.Paper, a types.PaperAnalysis) ([]types.Limitation, []string, error) {
	prompt, err := renderPrompt(p, a)
	if err != nil {
		return nil, nil, fmt.Errorf("rendering prompt: %w", err)
	}

	resp, err := f.client.Complete(ctx, llm.Request{
		System: limitationSystem,
		Prompt: prompt,
	})
	if err != nil {
		return nil, nil, err
	}

	var parsed limitationResponse
	if err := llm.DecodeJSON(resp.Text, &parsed); err != nil {
		return nil, nil, err
	}

	limitations, skipped := convertItems(parsed.Limitations, p.ID)
	return limitations, skipped, nil
}

// convertItems validates model items and converts them to Limitations.
// Invalid items are returned as skip reasons, not errors.
func convertItems(items []limitationItem, paperID string) ([]types.Limitation, []string) {
	var result []types.Limitation
	var skipped []string

	for i, item := range items {
		category := types.LimitationCategory(strings.ToLower(strings.TrimSpace(item.Category)))
		if !types.ValidLimitationCategory(category) {
			skipped = append(skipped, fmt.Sprintf("item %d: invalid category %q", i, item.Category))
			continue
		}
		description := strings.TrimSpace(item.Description)
		if description == "" {
			skipped = append(skipped, fmt.Sprintf("item %d: empty description", i))
			continue
		}
		if item.Confidence < 0.0 || item.Confidence > 1.0 {
			skipped = append(skipped, fmt.Sprintf("item %d: confidence %f out of range [0,1]", i, item.Confidence))
			continue
		}

		result = append(result, types.Limitation{
			ID:          stableID(paperID, string(category), description),
			PaperID:     paperID,
			Category:    category,
			Description: description,
			Confidence:  item.Confidence,
		})
	}

	return result, skipped
}

// stableID generates a deterministic ID from paper ID, category, and
// description: the first 12 hex characters of their SHA-256 hash.
func stableID(paperID, category, description string) string {
	h := sha256.New()
	h.Write([]byte(paperID))
	h.Write([]byte(category))
	h.Write([]byte(description))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}
