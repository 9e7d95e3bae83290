// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// GapPriority ranks a research gap. Per prd006-gaps R3.2.
type GapPriority string

const (
	PriorityHigh   GapPriority = "high"
	PriorityMedium GapPriority = "medium"
	PriorityLow    GapPriority = "low"
)

// Rank returns a sortable order for the priority: high sorts first.
// Unknown values sort last.
func (p GapPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	}
	return 3
}

// ValidGapPriority reports whether p is one of the known priorities.
func ValidGapPriority(p GapPriority) bool {
	return p.Rank() < 3
}

// ResearchGap is an unaddressed sub-problem synthesized from one or more
// limitations across the verified set. Terminal entity: created by the gap
// stage and consumed by report rendering. Per prd006-gaps R3.1-R3.4.
type ResearchGap struct {
	// ID is a stable content hash (12 hex chars) of title and direction.
	ID string `json:"id" yaml:"id"`

	// Title names the gap in a few words.
	Title string `json:"title" yaml:"title"`

	// Description explains the gap and the evidence behind it.
	Description string `json:"description" yaml:"description"`

	// ProposedDirection sketches a concrete way to address the gap.
	ProposedDirection string `json:"proposed_direction" yaml:"proposed_direction"`

	// Priority ranks the gap against the others in the report.
	Priority GapPriority `json:"priority" yaml:"priority"`

	// LimitationIDs lists the limitations the gap derives from (at least one).
	LimitationIDs []string `json:"limitation_ids" yaml:"limitation_ids"`

	// PaperIDs lists the verified papers behind those limitations.
	PaperIDs []string `json:"paper_ids,omitempty" yaml:"paper_ids,omitempty"`
}
