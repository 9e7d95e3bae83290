// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestFormatCitation(t *testing.T) {
	date2017 := time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		paper types.Paper
		want  string
	}{
		{
			"four authors et al",
			types.Paper{
				Title:         "Attention Is All You Need",
				Authors:       []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar", "Jakob Uszkoreit"},
				Venue:         "arXiv",
				Date:          date2017,
				CitationCount: 90000,
			},
			"Ashish Vaswani et al. (2017). Attention Is All You Need. arXiv. (90000 citations)",
		},
		{
			"three authors listed",
			types.Paper{
				Title:   "Deep Residual Learning for Image Recognition.",
				Authors: []string{"Kaiming He", "Xiangyu Zhang", "Shaoqing Ren"},
				Venue:   "CVPR",
				Date:    time.Date(2016, 6, 27, 0, 0, 0, 0, time.UTC),
			},
			"Kaiming He, Xiangyu Zhang and Shaoqing Ren (2016). Deep Residual Learning for Image Recognition. CVPR.",
		},
		{
			"two authors",
			types.Paper{
				Title:   "A Paper",
				Authors: []string{"Ada Lovelace", "Charles Babbage"},
				Date:    date2017,
			},
			"Ada Lovelace and Charles Babbage (2017). A Paper.",
		},
		{
			"single author no date",
			types.Paper{
				Title:   "Untimed Findings",
				Authors: []string{"Jane Doe"},
			},
			"Jane Doe (n.d.). Untimed Findings.",
		},
		{
			"no authors",
			types.Paper{
				Title: "Anonymous Results",
				Date:  date2017,
			},
			"Unknown Authors (2017). Anonymous Results.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatCitation(tt.paper); got != tt.want {
				t.Errorf("FormatCitation() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatMarkdownSections(t *testing.T) {
	r := Build(testInput())

	var buf bytes.Buffer
	FormatMarkdown(r, &buf)
	s := buf.String()

	for _, want := range []string{
		"# Literature Review: neural machine translation",
		"- Domain: Computer Science",
		"- Status: completed",
		"- Papers: 2 verified of 9 candidates (1 rejected)",
		"- Duration: 42s",
		"## Executive Summary",
		"## Verified Papers",
		"1. Ashish Vaswani et al. (2017). Attention Is All You Need. arXiv. (90000 citations)",
		"## Paper Analyses",
		"### Attention Is All You Need",
		"- Relevance: 0.95",
		"- Methodology: Sequence transduction with self-attention only.",
		"- Contributions: transformer architecture; multi-head attention",
		"- Key concepts: attention, positional encoding",
		"## Limitations",
		"### Methodological",
		"### Scope",
		"- Image classification only. (Deep Residual Learning for Image Recognition., confidence 0.70)",
		"## Research Gaps",
		"1. **Low-resource language pairs** (high priority)",
		"   Proposed direction: Benchmark transformer variants on low-resource corpora.",
		"   Supported by 2 limitation(s) across 1 paper(s).",
		"## Recommendations",
		"## Rejected Candidates",
		"- Phantom Paper: not found in any verification source",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestFormatMarkdownSkipsEmptySections(t *testing.T) {
	in := testInput()
	in.Status = types.ReportInsufficientEvidence
	in.Papers = nil
	in.Analyses = nil
	in.Limitations = nil
	in.Gaps = nil
	in.Rejected = nil
	r := Build(in)

	var buf bytes.Buffer
	FormatMarkdown(r, &buf)
	s := buf.String()

	for _, section := range []string{
		"## Verified Papers",
		"## Paper Analyses",
		"## Limitations",
		"## Research Gaps",
		"## Rejected Candidates",
	} {
		if strings.Contains(s, section) {
			t.Errorf("markdown output should omit %q when empty", section)
		}
	}
	if !strings.Contains(s, "## Executive Summary") {
		t.Error("markdown output should always include the executive summary")
	}
	if !strings.Contains(s, "## Recommendations") {
		t.Error("markdown output should include recommendations")
	}
}

func TestFormatJSONRoundTrip(t *testing.T) {
	r := Build(testInput())

	var buf bytes.Buffer
	if err := FormatJSON(r, &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	var got types.ResearchReport
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.ID != r.ID {
		t.Errorf("ID = %q, want %q", got.ID, r.ID)
	}
	if got.Query.Topic != "neural machine translation" {
		t.Errorf("Query.Topic = %q", got.Query.Topic)
	}
	if len(got.Papers) != 2 || len(got.Gaps) != 2 {
		t.Errorf("papers/gaps = %d/%d, want 2/2", len(got.Papers), len(got.Gaps))
	}
}

func TestFormatYAMLRoundTrip(t *testing.T) {
	r := Build(testInput())

	var buf bytes.Buffer
	if err := FormatYAML(r, &buf); err != nil {
		t.Fatalf("FormatYAML: %v", err)
	}

	var got types.ResearchReport
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Status != types.ReportCompleted {
		t.Errorf("Status = %q, want %q", got.Status, types.ReportCompleted)
	}
	if len(got.Limitations) != 3 {
		t.Errorf("len(Limitations) = %d, want 3", len(got.Limitations))
	}
}
