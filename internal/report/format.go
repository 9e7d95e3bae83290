// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

// FormatMarkdown renders the report as a human-readable Markdown
// document. Sections with no content are omitted.
func FormatMarkdown(r types.ResearchReport, w io.Writer) {
	fmt.Fprintf(w, "# Literature Review: %s\n\n", r.Query.Topic)

	fmt.Fprintf(w, "- Domain: %s\n", r.Query.Domain)
	fmt.Fprintf(w, "- Generated: %s\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(w, "- Status: %s\n", r.Status)
	fmt.Fprintf(w, "- Papers: %d verified of %d candidates (%d rejected)\n",
		r.Stats.Verified, r.Stats.Candidates, r.Stats.Rejected)
	if r.Stats.Duration > 0 {
		fmt.Fprintf(w, "- Duration: %s\n", r.Stats.Duration.Round(time.Millisecond))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "## Executive Summary\n\n%s\n\n", r.ExecutiveSummary)

	if len(r.Papers) > 0 {
		fmt.Fprintf(w, "## Verified Papers\n\n")
		for i, p := range r.Papers {
			fmt.Fprintf(w, "%d. %s\n", i+1, FormatCitation(p))
		}
		fmt.Fprintln(w)
	}

	if len(r.Analyses) > 0 {
		titles := paperTitles(r.Papers)
		fmt.Fprintf(w, "## Paper Analyses\n\n")
		for _, a := range r.Analyses {
			fmt.Fprintf(w, "### %s\n\n", titleFor(titles, a.PaperID))
			fmt.Fprintf(w, "- Relevance: %.2f\n", a.Relevance)
			if a.Methodology != "" {
				fmt.Fprintf(w, "- Methodology: %s\n", a.Methodology)
			}
			if len(a.Contributions) > 0 {
				fmt.Fprintf(w, "- Contributions: %s\n", strings.Join(a.Contributions, "; "))
			}
			if len(a.KeyConcepts) > 0 {
				fmt.Fprintf(w, "- Key concepts: %s\n", strings.Join(a.KeyConcepts, ", "))
			}
			if a.Notes != "" {
				fmt.Fprintf(w, "- Notes: %s\n", a.Notes)
			}
			fmt.Fprintln(w)
		}
	}

	if len(r.Limitations) > 0 {
		titles := paperTitles(r.Papers)
		fmt.Fprintf(w, "## Limitations\n\n")
		for _, c := range limitationCategories {
			var group []types.Limitation
			for _, lim := range r.Limitations {
				if lim.Category == c {
					group = append(group, lim)
				}
			}
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(w, "### %s\n\n", strings.ToUpper(string(c)[:1])+string(c)[1:])
			for _, lim := range group {
				fmt.Fprintf(w, "- %s (%s, confidence %.2f)\n",
					lim.Description, titleFor(titles, lim.PaperID), lim.Confidence)
			}
			fmt.Fprintln(w)
		}
	}

	if len(r.Gaps) > 0 {
		fmt.Fprintf(w, "## Research Gaps\n\n")
		for i, g := range r.Gaps {
			fmt.Fprintf(w, "%d. **%s** (%s priority)\n", i+1, g.Title, g.Priority)
			fmt.Fprintf(w, "   %s\n", g.Description)
			if g.ProposedDirection != "" {
				fmt.Fprintf(w, "   Proposed direction: %s\n", g.ProposedDirection)
			}
			fmt.Fprintf(w, "   Supported by %d limitation(s) across %d paper(s).\n",
				len(g.LimitationIDs), len(g.PaperIDs))
		}
		fmt.Fprintln(w)
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintf(w, "## Recommendations\n\n")
		for i, rec := range r.Recommendations {
			fmt.Fprintf(w, "%d. %s\n", i+1, rec)
		}
		fmt.Fprintln(w)
	}

	if len(r.Rejected) > 0 {
		fmt.Fprintf(w, "## Rejected Candidates\n\n")
		for _, rej := range r.Rejected {
			fmt.Fprintf(w, "- %s: %s\n", rej.Title, rej.Reason)
		}
		fmt.Fprintln(w)
	}
}

// FormatJSON writes the report as indented JSON.
func FormatJSON(r types.ResearchReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// FormatYAML writes the report as a YAML document.
func FormatYAML(r types.ResearchReport, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(r)
}

// FormatCitation renders one paper as a single citation line:
//
//	Vaswani et al. (2017). Attention Is All You Need. NeurIPS. (90000 citations)
func FormatCitation(p types.Paper) string {
	var b strings.Builder
	b.WriteString(citationAuthors(p.Authors))

	year := "n.d."
	if y := p.Year(); y > 0 {
		year = fmt.Sprintf("%d", y)
	}
	fmt.Fprintf(&b, " (%s). %s.", year, strings.TrimSuffix(p.Title, "."))

	if p.Venue != "" {
		fmt.Fprintf(&b, " %s.", p.Venue)
	}
	if p.CitationCount > 0 {
		fmt.Fprintf(&b, " (%d citations)", p.CitationCount)
	}
	return b.String()
}

func citationAuthors(authors []string) string {
	switch {
	case len(authors) == 0:
		return "Unknown Authors"
	case len(authors) == 1:
		return authors[0]
	case len(authors) <= 3:
		return strings.Join(authors[:len(authors)-1], ", ") + " and " + authors[len(authors)-1]
	default:
		return authors[0] + " et al."
	}
}

func paperTitles(papers []types.Paper) map[string]string {
	titles := make(map[string]string, len(papers))
	for _, p := range papers {
		titles[p.ID] = p.Title
	}
	return titles
}

func titleFor(titles map[string]string, paperID string) string {
	if t, ok := titles[paperID]; ok {
		return t
	}
	return paperID
}
