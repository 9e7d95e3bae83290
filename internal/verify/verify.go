// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify cross-checks search candidates against independent
// bibliographic sources before they are admitted to the review corpus.
// Each candidate is resolved by its identifier (arXiv ID, DOI, or title
// lookup), compared field by field against the independent record, and
// scored into a confidence value. Candidates below the confidence floor
// are rejected with a recorded reason rather than silently dropped.
//
// Implements: prd003-verification (R1-R4);
//
//	docs/ARCHITECTURE § Verification.
package verify

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/litreview/pkg/types"
)

// Check weights. Existence dominates: a candidate no independent source
// knows about fails verification regardless of the other checks.
const (
	weightExistence  = 0.35
	weightIdentifier = 0.15
	weightAuthors    = 0.20
	weightYear       = 0.15
	weightVenue      = 0.15
)

// DefaultMinConfidence is the verification floor applied when the
// configuration leaves MinConfidence unset (R2.4).
const DefaultMinConfidence = 0.6

// defaultMaxParallel bounds concurrent lookups so the registries'
// rate limits are respected.
const defaultMaxParallel = 4

// Record is a paper's metadata as reported by an independent
// bibliographic source. Found is false when no source knows the paper.
type Record struct {
	Title   string
	Authors []string
	Year    int
	Venue   string
	Found   bool
	Source  string
}

// Verifier resolves candidates against Crossref and Semantic Scholar and
// scores the agreement between the candidate and the independent record.
type Verifier struct {
	client *http.Client
	cfg    types.VerifyConfig
	log    *zap.Logger
}

// New builds a Verifier from config. A nil logger is replaced with a
// no-op logger.
func New(cfg types.VerifyConfig, log *zap.Logger) *Verifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Verifier{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		log:    log,
	}
}

// Output partitions the candidates after verification. Every input paper
// appears in exactly one of the two lists (R3.1).
type Output struct {
	Verified []types.Paper
	Rejected []types.Paper
}

// Run verifies all candidates concurrently and partitions them by outcome.
// Verification is idempotent: papers that already carry a verified or
// rejected status pass through unchanged (R1.4).
func (v *Verifier) Run(ctx context.Context, papers []types.Paper) (Output, error) {
	results := make([]types.Paper, len(papers))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.maxParallel())
	for i, p := range papers {
		g.Go(func() error {
			results[i] = v.verifyOne(ctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Output{}, err
	}
	if err := ctx.Err(); err != nil {
		return Output{}, err
	}

	var out Output
	for _, p := range results {
		switch p.Status {
		case types.VerificationVerified:
			out.Verified = append(out.Verified, p)
		default:
			out.Rejected = append(out.Rejected, p)
		}
	}
	v.log.Info("verification complete",
		zap.Int("candidates", len(papers)),
		zap.Int("verified", len(out.Verified)),
		zap.Int("rejected", len(out.Rejected)))
	return out, nil
}

// verifyOne resolves a single candidate and writes its verification
// outcome. The returned paper always carries a terminal status.
func (v *Verifier) verifyOne(ctx context.Context, p types.Paper) types.Paper {
	if p.Status != types.VerificationUnverified {
		return p
	}

	rec, err := v.lookup(ctx, p)
	if err != nil {
		p.Status = types.VerificationRejected
		p.Confidence = 0
		p.RejectionReason = fmt.Sprintf("cross-check failed: %v", err)
		v.log.Warn("verification lookup failed",
			zap.String("id", p.ID),
			zap.String("title", p.Title),
			zap.Error(err))
		return p
	}

	checks := v.runChecks(p, rec)
	p.Confidence = checks.confidence()

	if p.Confidence >= v.minConfidence() {
		p.Status = types.VerificationVerified
		v.log.Debug("paper verified",
			zap.String("id", p.ID),
			zap.Float64("confidence", p.Confidence),
			zap.String("source", rec.Source))
		return p
	}

	p.Status = types.VerificationRejected
	p.RejectionReason = describeFailure(checks, p.Confidence)
	v.log.Info("paper rejected",
		zap.String("id", p.ID),
		zap.String("title", p.Title),
		zap.Float64("confidence", p.Confidence),
		zap.String("reason", p.RejectionReason))
	return p
}

// lookup routes the candidate to an independent source by identifier
// type: arXiv IDs and DOIs resolve directly, anything else falls back to
// a title search.
func (v *Verifier) lookup(ctx context.Context, p types.Paper) (Record, error) {
	idType, norm := Classify(p.ID)
	switch idType {
	case TypeArxiv:
		if v.cfg.EnableSemanticScholar {
			return v.fetchSemanticByID(ctx, RegistryID(idType, norm))
		}
	case TypeDOI:
		if v.cfg.EnableCrossref {
			rec, err := v.fetchCrossref(ctx, norm)
			if err == nil && rec.Found {
				return rec, nil
			}
			if err != nil && !v.cfg.EnableSemanticScholar {
				return Record{}, err
			}
			if err == nil && !v.cfg.EnableSemanticScholar {
				return rec, nil
			}
		}
		if v.cfg.EnableSemanticScholar {
			return v.fetchSemanticByID(ctx, RegistryID(idType, norm))
		}
	default:
		if v.cfg.EnableSemanticScholar {
			return v.fetchSemanticByTitle(ctx, p.Title)
		}
	}
	return Record{}, fmt.Errorf("no verification source enabled for identifier %q", p.ID)
}

// checkResult records the outcome of the individual field comparisons.
type checkResult struct {
	Existence  bool
	Identifier bool
	Authors    bool
	Year       bool
	Venue      bool
}

// confidence collapses the checks into a weighted score in [0, 1].
func (c checkResult) confidence() float64 {
	var score float64
	if c.Existence {
		score += weightExistence
	}
	if c.Identifier {
		score += weightIdentifier
	}
	if c.Authors {
		score += weightAuthors
	}
	if c.Year {
		score += weightYear
	}
	if c.Venue {
		score += weightVenue
	}
	return score
}

// runChecks compares the candidate against the independent record. When
// the record was not found, every check fails.
func (v *Verifier) runChecks(p types.Paper, rec Record) checkResult {
	if !rec.Found {
		return checkResult{}
	}
	idType, _ := Classify(p.ID)
	return checkResult{
		Existence:  true,
		Identifier: idType != TypeUnknown,
		Authors:    authorsMatch(p.Authors, rec.Authors),
		Year:       yearsMatch(p.Year(), rec.Year),
		Venue:      venuesMatch(p.Venue, rec.Venue),
	}
}

// describeFailure produces a human-readable rejection reason naming the
// failed checks (R3.2).
func describeFailure(c checkResult, confidence float64) string {
	if !c.Existence {
		return "not found in independent sources"
	}
	var failed []string
	if !c.Identifier {
		failed = append(failed, "identifier")
	}
	if !c.Authors {
		failed = append(failed, "authors")
	}
	if !c.Year {
		failed = append(failed, "year")
	}
	if !c.Venue {
		failed = append(failed, "venue")
	}
	return fmt.Sprintf("failed checks: %s (confidence %.2f)", strings.Join(failed, ", "), confidence)
}

func (v *Verifier) minConfidence() float64 {
	if v.cfg.MinConfidence > 0 {
		return v.cfg.MinConfidence
	}
	return DefaultMinConfidence
}

func (v *Verifier) maxParallel() int {
	if v.cfg.MaxParallel > 0 {
		return v.cfg.MaxParallel
	}
	return defaultMaxParallel
}

// authorsMatch reports whether at least half of the candidate's author
// family names appear in the independent record. Name order and given
// names vary across registries, so only family names are compared.
func authorsMatch(candidate, independent []string) bool {
	if len(candidate) == 0 || len(independent) == 0 {
		return false
	}
	known := make(map[string]bool, len(independent))
	for _, name := range independent {
		if fam := familyName(name); fam != "" {
			known[fam] = true
		}
	}
	matched := 0
	for _, name := range candidate {
		if known[familyName(name)] {
			matched++
		}
	}
	return float64(matched) >= float64(len(candidate))*0.5
}

// familyName extracts the last whitespace-separated token of a name,
// lowercased. Good enough for western and pinyin name orders, which is
// what the registries return.
func familyName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// yearsMatch tolerates one year of drift to absorb preprint-to-publication
// lag between registries.
func yearsMatch(a, b int) bool {
	if a <= 0 || b <= 0 {
		return false
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1
}

// venuesMatch compares venue names after stripping punctuation and case,
// accepting containment in either direction so "NeurIPS" matches
// "Advances in Neural Information Processing Systems (NeurIPS)".
func venuesMatch(a, b string) bool {
	na, nb := normalizeText(a), normalizeText(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}

// normalizeText lowercases and removes everything but letters and digits.
func normalizeText(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SortByConfidence orders papers by descending confidence, breaking ties
// by descending relevance score. Used when the pipeline caps the verified
// set to the requested size.
func SortByConfidence(papers []types.Paper) {
	sort.SliceStable(papers, func(i, j int) bool {
		if papers[i].Confidence != papers[j].Confidence {
			return papers[i].Confidence > papers[j].Confidence
		}
		return papers[i].RelevanceScore > papers[j].RelevanceScore
	})
}
