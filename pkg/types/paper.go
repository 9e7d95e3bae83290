// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// VerificationStatus indicates whether a candidate paper survived
// cross-checking against an independent metadata source.
// Per prd003-verification R2.1.
type VerificationStatus string

const (
	// VerificationUnverified marks a fresh search candidate.
	VerificationUnverified VerificationStatus = "unverified"

	// VerificationVerified marks a paper confirmed by an independent source.
	VerificationVerified VerificationStatus = "verified"

	// VerificationRejected marks a paper that failed cross-checking.
	VerificationRejected VerificationStatus = "rejected"
)

// Paper holds the metadata for one candidate or verified paper.
// The search stage creates papers with status unverified; the verification
// stage writes Status, Confidence, and RejectionReason exactly once; every
// later stage treats the record as read-only. Per prd002-search R4.1,
// prd003-verification R2.1-R2.3.
type Paper struct {
	// ID is the canonical identifier from the source: an arXiv ID
	// (e.g. "2301.07041"), a DOI, or the backend's own record ID.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Venue is the publication venue ("arXiv" for preprints).
	Venue string `json:"venue,omitempty" yaml:"venue,omitempty"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date,omitempty" yaml:"date,omitempty"`

	// CitationCount is the citation count reported by the source, or 0
	// when the source does not track citations.
	CitationCount int `json:"citation_count" yaml:"citation_count"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// URL points at the source record or landing page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Source identifies which backend(s) found this paper
	// (e.g. "arxiv", "semantic_scholar", "arxiv,openalex").
	Source string `json:"source" yaml:"source"`

	// RelevanceScore is a value between 0.0 and 1.0 assigned by the
	// search stage's ranking model.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// Status is the verification outcome.
	Status VerificationStatus `json:"status" yaml:"status"`

	// Confidence is the verification confidence in [0,1]. Zero until the
	// verification stage runs.
	Confidence float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// RejectionReason records why a paper was rejected. Empty for
	// unverified and verified papers.
	RejectionReason string `json:"rejection_reason,omitempty" yaml:"rejection_reason,omitempty"`
}

// Year returns the publication year, or 0 when the date is unknown.
func (p Paper) Year() int {
	if p.Date.IsZero() {
		return 0
	}
	return p.Date.Year()
}
