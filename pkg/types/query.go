// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the litreview pipeline.
// Implements: prd001-query (ResearchQuery, R1.1-R1.4);
//
//	prd002-search (Paper, R4.1);
//	prd003-verification (VerificationStatus, R2.1);
//	prd004-analysis (PaperAnalysis, R3.1);
//	prd005-limitations (Limitation, R2.2);
//	prd006-gaps (ResearchGap, R3.3);
//	prd007-report (ResearchReport, R1.1-R1.5).
//
// See docs/ARCHITECTURE § Pipeline Interface, § Data Structures.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Query bounds per prd001-query R1.2. The caps match what the verification
// sources tolerate within one workflow run.
const (
	MaxPapersLimit   = 50
	DefaultMaxPapers = 10
	DefaultDomain    = "Computer Science"
	MinTopicLength   = 3

	// DefaultOverfetchFactor sets how many candidates the search stage
	// gathers per requested paper, so verification rejections do not
	// starve the final set (prd002-search R4.2).
	DefaultOverfetchFactor = 2
)

// ResearchQuery describes one literature-review request. It is immutable
// once submitted: stages receive it by value and never write to it.
// Per prd001-query R1.1.
type ResearchQuery struct {
	// Topic is the research question or subject under review.
	Topic string `json:"topic" yaml:"topic"`

	// Domain narrows the field of study (e.g. "Computer Science", "Medicine").
	Domain string `json:"domain,omitempty" yaml:"domain,omitempty"`

	// Keywords are additional terms combined with the topic in searches.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// DateFrom and DateTo bound the publication date range. Zero values
	// leave the corresponding side unbounded.
	DateFrom time.Time `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo   time.Time `json:"date_to,omitempty" yaml:"date_to,omitempty"`

	// MinCitations excludes candidates cited fewer times than this.
	MinCitations int `json:"min_citations,omitempty" yaml:"min_citations,omitempty"`

	// MaxPapers caps the verified set in the final report (1..MaxPapersLimit).
	MaxPapers int `json:"max_papers" yaml:"max_papers"`
}

// WithDefaults returns a copy with unset fields replaced by defaults
// (R1.3). It never modifies the receiver.
func (q ResearchQuery) WithDefaults() ResearchQuery {
	if q.Domain == "" {
		q.Domain = DefaultDomain
	}
	if q.MaxPapers == 0 {
		q.MaxPapers = DefaultMaxPapers
	}
	return q
}

// Validate reports the first constraint violation, or nil (R1.2, R1.4).
func (q ResearchQuery) Validate() error {
	if len(strings.TrimSpace(q.Topic)) < MinTopicLength {
		return fmt.Errorf("topic must be at least %d characters", MinTopicLength)
	}
	if q.MaxPapers < 1 || q.MaxPapers > MaxPapersLimit {
		return fmt.Errorf("max_papers must be between 1 and %d, got %d", MaxPapersLimit, q.MaxPapers)
	}
	if q.MinCitations < 0 {
		return fmt.Errorf("min_citations must not be negative, got %d", q.MinCitations)
	}
	if !q.DateFrom.IsZero() && !q.DateTo.IsZero() && q.DateFrom.After(q.DateTo) {
		return fmt.Errorf("date_from %s is after date_to %s",
			q.DateFrom.Format("2006-01-02"), q.DateTo.Format("2006-01-02"))
	}
	return nil
}
