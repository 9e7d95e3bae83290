// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs and returns unified, deduplicated,
// ranked paper candidates for the review pipeline.
// Implements: prd002-search (R1-R5);
//
//	docs/ARCHITECTURE § Search.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/pkg/types"
)

// Backend searches a single academic API. Each backend (arXiv, Semantic
// Scholar, OpenAlex) implements this interface per the Strategy pattern (R2.5).
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.SearchConfig) ([]types.Paper, error)
}

// EnabledBackends builds the backend set selected by cfg. All backends
// share one HTTP client with the configured timeout (R2.5, R5.1).
func EnabledBackends(cfg types.SearchConfig) []Backend {
	client := &http.Client{Timeout: cfg.Timeout}

	var backends []Backend
	if cfg.EnableArxiv {
		backends = append(backends, &ArxivBackend{Client: client})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &SemanticScholarBackend{
			Client: client,
			APIKey: cfg.SemanticScholarAPIKey,
		})
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &OpenAlexBackend{
			Client: client,
			Email:  cfg.ContactEmail,
		})
	}
	return backends
}

// Query holds the search parameters (R1.1-R1.3).
type Query struct {
	FreeText     string
	Author       string
	Keywords     []string
	Domain       string
	DateFrom     time.Time
	DateTo       time.Time
	MinCitations int
}

// FromResearchQuery maps a validated research query onto search parameters.
// Domain joins the ranking terms rather than the API query text: the
// backends' conjunctive query syntax would demand the domain words
// verbatim, where a soft relevance boost is wanted (R1.4).
func FromResearchQuery(rq types.ResearchQuery) Query {
	return Query{
		FreeText:     rq.Topic,
		Keywords:     rq.Keywords,
		Domain:       rq.Domain,
		DateFrom:     rq.DateFrom,
		DateTo:       rq.DateTo,
		MinCitations: rq.MinCitations,
	}
}

// IsEmpty reports whether the query contains no searchable terms (R1.5).
func (q Query) IsEmpty() bool {
	return q.FreeText == "" && q.Author == "" && len(q.Keywords) == 0
}

// Relax returns a copy of the query with the citation floor and the lower
// date bound removed. The pipeline retries an under-filled search exactly
// once with the relaxed query (R5.2).
func (q Query) Relax() Query {
	relaxed := q
	relaxed.MinCitations = 0
	relaxed.DateFrom = time.Time{}
	return relaxed
}

// Output holds the candidate papers and pipeline statistics.
type Output struct {
	Papers        []types.Paper
	DupsRemoved   int
	Filtered      int
	BackendErrors []string
}

// Run fans the query out to all backends concurrently, deduplicates and
// merges the results, filters them against the query constraints, ranks
// them, and returns up to the overfetched candidate cap (R1-R4).
func Run(ctx context.Context, query Query, backends []Backend, cfg types.SearchConfig, log *zap.Logger) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide a topic or structured parameters")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no search backends configured")
	}

	type backendResult struct {
		papers []types.Paper
		err    error
		name   string
	}

	ch := make(chan backendResult, len(backends))
	var wg sync.WaitGroup

	for i, b := range backends {
		if i > 0 && cfg.InterBackendDelay > 0 {
			time.Sleep(cfg.InterBackendDelay)
		}
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			papers, err := b.Search(ctx, query, cfg)
			ch <- backendResult{papers: papers, err: err, name: b.Name()}
		}(b)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	var all []types.Paper
	var backendErrors []string
	for br := range ch {
		if br.err != nil {
			backendErrors = append(backendErrors, fmt.Sprintf("%s: %v", br.name, br.err))
			log.Warn("search backend failed", zap.String("backend", br.name), zap.Error(br.err))
			continue
		}
		log.Debug("search backend returned", zap.String("backend", br.name), zap.Int("papers", len(br.papers)))
		all = append(all, br.papers...)
	}

	deduped, removed := deduplicate(all)
	kept, filtered := filterPapers(deduped, query)

	rankPapers(kept, query)
	if cfg.RecencyBiasWindow > 0 {
		applyRecencyBias(kept, cfg.RecencyBiasWindow)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].RelevanceScore > kept[j].RelevanceScore
	})

	if limit := fetchLimit(cfg); len(kept) > limit {
		kept = kept[:limit]
	}

	for i := range kept {
		kept[i].Status = types.VerificationUnverified
	}

	return Output{
		Papers:        kept,
		DupsRemoved:   removed,
		Filtered:      filtered,
		BackendErrors: backendErrors,
	}, nil
}

// fetchLimit returns the candidate cap: the requested result count times the
// overfetch factor, so verification losses do not starve the pipeline (R4.2).
func fetchLimit(cfg types.SearchConfig) int {
	max := cfg.MaxResults
	if max <= 0 {
		max = types.DefaultMaxPapers
	}
	factor := cfg.OverfetchFactor
	if factor <= 0 {
		factor = types.DefaultOverfetchFactor
	}
	return max * factor
}

// deduplicate merges papers that share an identifier or normalized title (R3.1, R3.2).
func deduplicate(papers []types.Paper) ([]types.Paper, int) {
	seen := make(map[string]int) // dedup key → index in deduped
	var deduped []types.Paper
	removed := 0

	for _, p := range papers {
		key := dedupKey(p)
		if idx, ok := seen[key]; ok {
			mergeInto(&deduped[idx], p)
			removed++
			continue
		}

		// Also check by normalized title.
		titleKey := "title:" + normalizeTitle(p.Title)
		if titleKey != "title:" {
			if idx, ok := seen[titleKey]; ok {
				mergeInto(&deduped[idx], p)
				removed++
				continue
			}
		}

		idx := len(deduped)
		deduped = append(deduped, p)
		if key != "" {
			seen[key] = idx
		}
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped, removed
}

// dedupKey returns a key for identifier-based dedup. The ID field carries
// the arXiv ID, DOI, or backend record ID set by the backends.
func dedupKey(p types.Paper) string {
	if p.ID != "" {
		return "id:" + p.ID
	}
	return ""
}

// mergeInto fills empty fields of dst from src and keeps the richer
// metadata (R3.2). Citation counts take the maximum since arXiv reports none.
func mergeInto(dst *types.Paper, src types.Paper) {
	if dst.Title == "" && src.Title != "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.Venue == "" && src.Venue != "" {
		dst.Venue = src.Venue
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
	}
	if dst.Date.IsZero() && !src.Date.IsZero() {
		dst.Date = src.Date
	}
	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}
	// Prefer the arXiv ID as the canonical identifier (R3.3).
	if isArxivID(src.ID) && !isArxivID(dst.ID) {
		dst.ID = src.ID
	}
	if dst.Source != src.Source && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// isArxivID returns true if the string looks like an arXiv ID (e.g. "2301.07041").
func isArxivID(s string) bool {
	if len(s) < 9 {
		return false
	}
	return s[4] == '.' && s[0] >= '0' && s[0] <= '9'
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title (R3.1).
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// filterPapers drops papers outside the query's date range or below the
// citation floor (R3.4). Papers without a date survive the range check;
// papers without citation data count as zero citations.
func filterPapers(papers []types.Paper, q Query) ([]types.Paper, int) {
	var kept []types.Paper
	dropped := 0
	for _, p := range papers {
		if !q.DateFrom.IsZero() && !p.Date.IsZero() && p.Date.Before(q.DateFrom) {
			dropped++
			continue
		}
		if !q.DateTo.IsZero() && !p.Date.IsZero() && p.Date.After(q.DateTo) {
			dropped++
			continue
		}
		if q.MinCitations > 0 && p.CitationCount < q.MinCitations {
			dropped++
			continue
		}
		kept = append(kept, p)
	}
	return kept, dropped
}

// Relevance model weights (R3.5).
const (
	weightSimilarity = 0.5
	weightCoverage   = 0.3
	weightCitations  = 0.2
)

// rankPapers scores each paper against the query: keyword Jaccard
// similarity between abstract and query terms (0.5), query keyword
// coverage (0.3), and a normalized citation weight (0.2). Papers without
// an abstract score zero (R3.5).
func rankPapers(papers []types.Paper, q Query) {
	queryKW := extractKeywords(queryText(q))
	for i := range papers {
		papers[i].RelevanceScore = scorePaper(papers[i], queryKW)
	}
}

func queryText(q Query) string {
	parts := []string{q.FreeText, q.Author, q.Domain}
	parts = append(parts, q.Keywords...)
	return strings.Join(parts, " ")
}

func scorePaper(p types.Paper, queryKW []string) float64 {
	if p.Abstract == "" {
		return 0
	}
	paperKW := extractKeywords(p.Abstract)

	citations := math.Min(float64(p.CitationCount)/100.0, 1.0)
	score := weightSimilarity*jaccard(paperKW, queryKW) +
		weightCoverage*coverage(paperKW, queryKW) +
		weightCitations*citations
	return math.Min(score, 1.0)
}

// jaccard returns intersection over union of two keyword sets.
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, w := range a {
		set[w] = struct{}{}
	}
	inter := 0
	for _, w := range b {
		if _, ok := set[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// coverage returns the fraction of query keywords present in the paper keywords.
func coverage(paperKW, queryKW []string) float64 {
	if len(queryKW) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(paperKW))
	for _, w := range paperKW {
		set[w] = struct{}{}
	}
	hits := 0
	for _, w := range queryKW {
		if _, ok := set[w]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(queryKW))
}

// applyRecencyBias boosts scores for papers published within the window (R3.6).
func applyRecencyBias(papers []types.Paper, window time.Duration) {
	now := time.Now()
	for i := range papers {
		if papers[i].Date.IsZero() {
			continue
		}
		age := now.Sub(papers[i].Date)
		if age <= window {
			boost := 0.2 * (1.0 - float64(age)/float64(window))
			papers[i].RelevanceScore = math.Min(1.0, papers[i].RelevanceScore+boost)
		}
	}
}

// FormatTable writes papers as a human-readable table to w (R4.3, R4.5).
func FormatTable(out Output, w io.Writer) {
	if len(out.Papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-56s  %-20s  %-4s  %-5s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for i, p := range out.Papers {
		title := p.Title
		if len(title) > 56 {
			title = title[:53] + "..."
		}
		authors := formatAuthors(p.Authors)
		year := ""
		if y := p.Year(); y > 0 {
			year = fmt.Sprintf("%d", y)
		}
		fmt.Fprintf(w, "%-4d  %-56s  %-20s  %-4s  %-5d  %-6.2f  %s\n",
			i+1, title, authors, year, p.CitationCount, p.RelevanceScore, p.Source)
	}

	fmt.Fprintf(w, "\n%d results", len(out.Papers))
	if out.DupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates removed)", out.DupsRemoved)
	}
	if out.Filtered > 0 {
		fmt.Fprintf(w, " (%d filtered out)", out.Filtered)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes papers as indented JSON to w (R4.4).
func FormatJSON(out Output, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Papers)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
