// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// PaperAnalysis holds the per-paper output of the analysis stage.
// Per prd004-analysis R3.1-R3.3.
type PaperAnalysis struct {
	// PaperID references the verified Paper this analysis describes.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Contributions lists the stated contributions of the paper.
	Contributions []string `json:"contributions" yaml:"contributions"`

	// Methodology summarizes the approach taken by the paper.
	Methodology string `json:"methodology" yaml:"methodology"`

	// KeyConcepts lists the central concepts the paper builds on.
	KeyConcepts []string `json:"key_concepts,omitempty" yaml:"key_concepts,omitempty"`

	// Relevance is the model-judged relevance to the review topic in [0,1].
	Relevance float64 `json:"relevance" yaml:"relevance"`

	// Notes carries anything the model flagged that fits no other field.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}
