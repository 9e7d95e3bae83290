// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/litreview/internal/httputil"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works/"

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title          []string         `json:"title"`
	ContainerTitle []string         `json:"container-title"`
	Author         []crossrefAuthor `json:"author"`
	Created        crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// fetchCrossref looks a DOI up in the Crossref registry. A 404 means the
// DOI does not exist there; that is a negative result, not an error.
func (v *Verifier) fetchCrossref(ctx context.Context, doi string) (Record, error) {
	apiURL := crossrefAPIBase + url.PathEscape(doi)
	if v.cfg.ContactEmail != "" {
		apiURL += "?mailto=" + url.QueryEscape(v.cfg.ContactEmail)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return Record{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", v.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, v.client, req, 0)
	if err != nil {
		return Record{}, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Record{Source: "crossref"}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Record{}, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return Record{}, fmt.Errorf("parsing Crossref response: %w", err)
	}

	rec := Record{Found: true, Source: "crossref"}
	if len(cr.Message.Title) > 0 {
		rec.Title = cr.Message.Title[0]
	}
	if len(cr.Message.ContainerTitle) > 0 {
		rec.Venue = cr.Message.ContainerTitle[0]
	}
	for _, a := range cr.Message.Author {
		rec.Authors = append(rec.Authors, strings.TrimSpace(a.Given+" "+a.Family))
	}
	if len(cr.Message.Created.DateParts) > 0 && len(cr.Message.Created.DateParts[0]) >= 1 {
		rec.Year = cr.Message.Created.DateParts[0][0]
	}
	return rec, nil
}
