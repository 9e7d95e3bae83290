// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LimitationCategory classifies a limitation statement.
// Per prd005-limitations R2.1.
type LimitationCategory string

const (
	// LimitationMethodological covers weaknesses in the approach itself.
	LimitationMethodological LimitationCategory = "methodological"

	// LimitationScope covers narrow datasets, populations, or settings.
	LimitationScope LimitationCategory = "scope"

	// LimitationExperimental covers evaluation and reproducibility gaps.
	LimitationExperimental LimitationCategory = "experimental"
)

// ValidLimitationCategory reports whether c is one of the known categories.
func ValidLimitationCategory(c LimitationCategory) bool {
	switch c {
	case LimitationMethodological, LimitationScope, LimitationExperimental:
		return true
	}
	return false
}

// Limitation is one limitation statement extracted from a verified paper.
// Per prd005-limitations R2.2, every Limitation references a paper in the
// verified set.
type Limitation struct {
	// ID is a stable content hash (12 hex chars) of paper, category,
	// and description, so re-runs produce the same IDs.
	ID string `json:"id" yaml:"id"`

	// PaperID references the verified Paper the limitation was found in.
	PaperID string `json:"paper_id" yaml:"paper_id"`

	// Category classifies the limitation.
	Category LimitationCategory `json:"category" yaml:"category"`

	// Description states the limitation in one or two sentences.
	Description string `json:"description" yaml:"description"`

	// Confidence is the model's confidence in [0,1].
	Confidence float64 `json:"confidence" yaml:"confidence"`
}
