// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

func TestToCSLItemArxiv(t *testing.T) {
	p := types.Paper{
		ID:       "1706.03762",
		Title:    "Attention Is All You Need",
		Authors:  []string{"Ashish Vaswani", "Noam Shazeer"},
		Venue:    "arXiv",
		Abstract: "The dominant sequence transduction models...",
		Date:     time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
		URL:      "https://arxiv.org/abs/1706.03762",
	}

	item := toCSLItem(p)

	if item.Type != "article" {
		t.Errorf("Type = %q, want %q", item.Type, "article")
	}
	if item.ID != "1706.03762" {
		t.Errorf("ID = %q", item.ID)
	}
	if item.ContainerTitle != "arXiv" {
		t.Errorf("ContainerTitle = %q, want %q", item.ContainerTitle, "arXiv")
	}
	if item.DOI != "" {
		t.Errorf("DOI should be empty for arXiv IDs, got %q", item.DOI)
	}
	if item.URL != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("URL = %q", item.URL)
	}
	if len(item.Author) != 2 {
		t.Fatalf("len(Author) = %d, want 2", len(item.Author))
	}
	if item.Author[0].Family != "Vaswani" || item.Author[0].Given != "Ashish" {
		t.Errorf("Author[0] = %+v", item.Author[0])
	}
	if item.Issued == nil || item.Issued.DateParts[0][0] != 2017 {
		t.Error("Issued year should be 2017")
	}
}

func TestToCSLItemDOI(t *testing.T) {
	p := types.Paper{
		ID:    "10.1109/CVPR.2016.90",
		Title: "Deep Residual Learning for Image Recognition",
	}

	item := toCSLItem(p)

	if item.DOI != "10.1109/CVPR.2016.90" {
		t.Errorf("DOI = %q, want the identifier", item.DOI)
	}
	if item.Issued != nil {
		t.Error("Issued should be nil when the date is unknown")
	}
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want CSLName
	}{
		{"two tokens", "Ashish Vaswani", CSLName{Given: "Ashish", Family: "Vaswani"}},
		{"three tokens", "Jean-Claude Van Damme", CSLName{Given: "Jean-Claude Van", Family: "Damme"}},
		{"single token", "Plato", CSLName{Literal: "Plato"}},
		{"whitespace trimmed", "  Marie Curie  ", CSLName{Given: "Marie", Family: "Curie"}},
		{"empty", "", CSLName{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseAuthorName(tt.in); got != tt.want {
				t.Errorf("parseAuthorName(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatCSL(t *testing.T) {
	r := Build(testInput())

	var buf bytes.Buffer
	if err := FormatCSL(r, &buf); err != nil {
		t.Fatalf("FormatCSL: %v", err)
	}

	s := buf.String()
	for _, want := range []string{
		"id: 1706.03762",
		"type: article",
		"container-title: arXiv",
		"family: Vaswani",
		"DOI: 10.1109/CVPR.2016.90",
		"URL: https://arxiv.org/abs/1706.03762",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("CSL output missing %q", want)
		}
	}
	if strings.Count(s, "DOI:") != 1 {
		t.Errorf("expected exactly 1 DOI field, got %d", strings.Count(s, "DOI:"))
	}
}
