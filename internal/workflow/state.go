// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// Stage identifies one step of the review pipeline.
type Stage string

const (
	StageStarted     Stage = "started"
	StageSearching   Stage = "searching"
	StageVerifying   Stage = "verifying"
	StageReSearching Stage = "re-searching"
	StageAnalyzing   Stage = "analyzing"
	StageLimitations Stage = "limitation-extraction"
	StageGaps        Stage = "gap-synthesis"
	StageCompleted   Stage = "completed"
)

// Progress returns the percentage reported for the stage. The relaxed
// re-search repeats the search stage, so it reports the same figure.
func (s Stage) Progress() int {
	switch s {
	case StageSearching, StageReSearching:
		return 20
	case StageVerifying:
		return 40
	case StageAnalyzing:
		return 60
	case StageLimitations:
		return 80
	case StageGaps:
		return 90
	case StageCompleted:
		return 100
	default:
		return 0
	}
}

// Status reports whether a run is still going and how it ended.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Counters accumulates the sizes of each stage's output.
type Counters struct {
	Candidates  int `json:"candidates" yaml:"candidates"`
	Verified    int `json:"verified" yaml:"verified"`
	Rejected    int `json:"rejected" yaml:"rejected"`
	Limitations int `json:"limitations" yaml:"limitations"`
	Gaps        int `json:"gaps" yaml:"gaps"`
}

// State is a snapshot of one workflow run. Observers receive a copy
// after every stage transition; the copy is safe to retain.
type State struct {
	ID             string                   `json:"id" yaml:"id"`
	Query          types.ResearchQuery      `json:"query" yaml:"query"`
	Stage          Stage                    `json:"stage" yaml:"stage"`
	Status         Status                   `json:"status" yaml:"status"`
	Progress       int                      `json:"progress" yaml:"progress"`
	StartedAt      time.Time                `json:"started_at" yaml:"started_at"`
	CompletedAt    time.Time                `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	StageDurations map[string]time.Duration `json:"stage_durations,omitempty" yaml:"stage_durations,omitempty"`
	Counters       Counters                 `json:"counters" yaml:"counters"`
	Err            string                   `json:"error,omitempty" yaml:"error,omitempty"`
}

// snapshot returns a copy with its own duration map.
func (s State) snapshot() State {
	out := s
	if s.StageDurations != nil {
		out.StageDurations = make(map[string]time.Duration, len(s.StageDurations))
		for k, v := range s.StageDurations {
			out.StageDurations[k] = v
		}
	}
	return out
}
