// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// GenerateBibTeX produces BibTeX entries for the report's verified
// papers. Entry keys are derived from the first author's family name
// and the publication year; collisions get a letter suffix.
func GenerateBibTeX(r types.ResearchReport) string {
	var b strings.Builder
	seen := make(map[string]int)
	for _, p := range r.Papers {
		base := citationKey(p)
		key := base
		if n := seen[base]; n > 0 {
			key = fmt.Sprintf("%s%c", base, 'a'+n-1)
		}
		seen[base]++

		fmt.Fprintf(&b, "@article{%s,\n", key)
		fmt.Fprintf(&b, "  title = {%s},\n", p.Title)
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(p.Authors, " and "))
		}
		if y := p.Year(); y > 0 {
			fmt.Fprintf(&b, "  year = {%d},\n", y)
		}
		if p.Venue != "" {
			fmt.Fprintf(&b, "  journal = {%s},\n", p.Venue)
		}
		if strings.HasPrefix(p.ID, "10.") {
			fmt.Fprintf(&b, "  doi = {%s},\n", p.ID)
		}
		if p.URL != "" {
			fmt.Fprintf(&b, "  url = {%s},\n", p.URL)
		}
		fmt.Fprintf(&b, "}\n\n")
	}
	return b.String()
}

// citationKey builds a BibTeX key like "vaswani2017" from the first
// author's family name and the year, falling back to the paper ID.
func citationKey(p types.Paper) string {
	base := ""
	if len(p.Authors) > 0 {
		name := parseAuthorName(p.Authors[0])
		if name.Family != "" {
			base = name.Family
		} else {
			base = name.Literal
		}
	}
	base = sanitizeKey(base)
	if base == "" {
		base = sanitizeKey(p.ID)
	}
	if base == "" {
		base = "paper"
	}
	if y := p.Year(); y > 0 {
		return fmt.Sprintf("%s%d", base, y)
	}
	return base
}

// sanitizeKey keeps letters and digits, lowercased, so keys stay valid
// across BibTeX implementations.
func sanitizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
