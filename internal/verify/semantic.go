// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/litreview/internal/httputil"
)

// Semantic Scholar endpoints. Declared as vars so tests can substitute
// httptest servers.
var (
	semanticPaperBase  = "https://api.semanticscholar.org/graph/v1/paper/"
	semanticSearchBase = "https://api.semanticscholar.org/graph/v1/paper/search"
)

const semanticLookupFields = "title,authors,year,venue"

// Semantic Scholar API JSON structures.
type semanticLookupPaper struct {
	PaperID string `json:"paperId"`
	Title   string `json:"title"`
	Venue   string `json:"venue"`
	Year    int    `json:"year"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
}

type semanticSearchResponse struct {
	Total int                   `json:"total"`
	Data  []semanticLookupPaper `json:"data"`
}

// fetchSemanticByID looks a paper up by a prefixed identifier such as
// "arXiv:2301.07041" or "DOI:10.1145/1234567.1234568". A 404 is a
// negative result, not an error.
func (v *Verifier) fetchSemanticByID(ctx context.Context, id string) (Record, error) {
	apiURL := semanticPaperBase + url.PathEscape(id) + "?fields=" + semanticLookupFields

	rec, status, err := v.semanticGet(ctx, apiURL)
	if err != nil {
		return Record{}, err
	}
	if status == http.StatusNotFound {
		return Record{Source: "semantic_scholar"}, nil
	}
	return rec, nil
}

// fetchSemanticByTitle searches Semantic Scholar for the candidate's title
// and returns the first result whose normalized title matches exactly.
// Used when the identifier is a backend record ID that no registry resolves.
func (v *Verifier) fetchSemanticByTitle(ctx context.Context, title string) (Record, error) {
	if title == "" {
		return Record{Source: "semantic_scholar"}, nil
	}

	params := url.Values{
		"query":  {title},
		"limit":  {"5"},
		"fields": {semanticLookupFields},
	}
	apiURL := semanticSearchBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Record{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)
	if v.cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", v.cfg.SemanticScholarAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, v.client, req, 0)
	if err != nil {
		return Record{}, fmt.Errorf("Semantic Scholar search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("Semantic Scholar search returned HTTP %d", resp.StatusCode)
	}

	var sr semanticSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return Record{}, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	want := normalizeText(title)
	for _, paper := range sr.Data {
		if normalizeText(paper.Title) == want {
			return recordFromSemantic(paper), nil
		}
	}
	return Record{Source: "semantic_scholar"}, nil
}

// semanticGet fetches one paper record and reports the HTTP status so the
// caller can distinguish a missing record from a service failure.
func (v *Verifier) semanticGet(ctx context.Context, apiURL string) (Record, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Record{}, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)
	if v.cfg.SemanticScholarAPIKey != "" {
		req.Header.Set("x-api-key", v.cfg.SemanticScholarAPIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, v.client, req, 0)
	if err != nil {
		return Record{}, 0, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Record{}, http.StatusNotFound, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Record{}, resp.StatusCode, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var paper semanticLookupPaper
	if err := json.NewDecoder(resp.Body).Decode(&paper); err != nil {
		return Record{}, resp.StatusCode, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return recordFromSemantic(paper), http.StatusOK, nil
}

func recordFromSemantic(paper semanticLookupPaper) Record {
	rec := Record{
		Found:  true,
		Source: "semantic_scholar",
		Title:  paper.Title,
		Venue:  paper.Venue,
		Year:   paper.Year,
	}
	for _, a := range paper.Authors {
		rec.Authors = append(rec.Authors, a.Name)
	}
	return rec
}
