// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ReportStatus marks how a workflow run ended. Per prd007-report R1.2.
type ReportStatus string

const (
	// ReportCompleted means the full pipeline produced results.
	ReportCompleted ReportStatus = "completed"

	// ReportInsufficientEvidence means some stage came up empty even after
	// the relaxed re-search; the report carries whatever was collected.
	ReportInsufficientEvidence ReportStatus = "insufficient-evidence"
)

// RejectedPaper is the audit record for a candidate that failed
// verification. Rejected papers are listed for transparency but are never
// rendered as report items. Per prd003-verification R2.3.
type RejectedPaper struct {
	PaperID string `json:"paper_id" yaml:"paper_id"`
	Title   string `json:"title" yaml:"title"`
	Reason  string `json:"reason" yaml:"reason"`
}

// ReportStats summarizes a run for listings and dashboards.
type ReportStats struct {
	// Candidates is the number of deduplicated search candidates
	// forwarded to verification (across the initial and relaxed passes).
	Candidates int `json:"candidates" yaml:"candidates"`

	// Verified is the number of papers in the report (after capping).
	Verified int `json:"verified" yaml:"verified"`

	// Rejected is the number of candidates that failed verification.
	Rejected int `json:"rejected" yaml:"rejected"`

	// Duration is the wall-clock time of the whole workflow.
	Duration time.Duration `json:"duration" yaml:"duration"`

	// StageDurations maps stage name to elapsed time.
	StageDurations map[string]time.Duration `json:"stage_durations,omitempty" yaml:"stage_durations,omitempty"`
}

// ResearchReport is the aggregate output of one workflow run. Created once
// at workflow completion and immutable thereafter. All slice fields are
// initialized (empty, never nil) so renderers and API clients see lists.
// Per prd007-report R1.1-R1.5.
type ResearchReport struct {
	// ID is the workflow run identifier (UUID).
	ID string `json:"id" yaml:"id"`

	// Query is the request that produced this report.
	Query ResearchQuery `json:"query" yaml:"query"`

	// GeneratedAt is the completion time.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	// Status is completed or insufficient-evidence.
	Status ReportStatus `json:"status" yaml:"status"`

	// ExecutiveSummary is a short prose overview of the findings.
	ExecutiveSummary string `json:"executive_summary" yaml:"executive_summary"`

	// Papers is the verified set, in rank order, capped at Query.MaxPapers.
	Papers []Paper `json:"papers" yaml:"papers"`

	// Analyses holds one analysis record per verified paper that the
	// analysis stage succeeded on.
	Analyses []PaperAnalysis `json:"analyses" yaml:"analyses"`

	// Limitations holds the extracted limitations across all papers.
	Limitations []Limitation `json:"limitations" yaml:"limitations"`

	// Gaps holds the synthesized research gaps in priority order.
	Gaps []ResearchGap `json:"gaps" yaml:"gaps"`

	// Recommendations are next-step suggestions derived from the gaps.
	Recommendations []string `json:"recommendations" yaml:"recommendations"`

	// Rejected is the audit trail of candidates that failed verification.
	Rejected []RejectedPaper `json:"rejected" yaml:"rejected"`

	// Stats summarizes counts and timings for the run.
	Stats ReportStats `json:"stats" yaml:"stats"`
}
