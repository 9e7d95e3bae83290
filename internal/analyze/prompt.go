// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/litreview/pkg/types"
)

// analysisSystem primes the model for the per-paper analysis calls.
const analysisSystem = "You are an expert research analyst. You read academic papers closely and report their concepts, methods, and contributions without embellishment."

// analysisPromptTmpl is the prompt sent for each verified paper. It asks
// for a structured JSON analysis against the review topic.
var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`Analyze the following academic paper in the context of the research topic "{{.Topic}}".

Paper details:
- Title: {{.Title}}
- Authors: {{.Authors}}
- Published: {{.Published}}
- Venue: {{.Venue}}
- Citation count: {{.Citations}}

Abstract:
{{.Abstract}}

Provide:
- key_concepts: the main concepts, theories, and technical terms the paper builds on, as short lowercase phrases
- methodology: a one-paragraph description of the research methodology and techniques used
- contributions: the main contributions and innovations, one short sentence each
- relevance: a number between 0.0 and 1.0 scoring how relevant this paper is to the research topic "{{.Topic}}"
- notes: a brief remark on the paper's significance, or an empty string

Respond with a JSON object containing exactly those fields. Do not include any text outside the JSON object.

Example response:
{"key_concepts": ["self-attention", "sequence transduction"], "methodology": "The authors replace recurrence with multi-head self-attention and train encoder-decoder models on WMT 2014 translation benchmarks.", "contributions": ["Introduces an architecture built entirely on attention."], "relevance": 0.91, "notes": "Foundational architecture for later work in the area."}
`))

// promptData carries one paper's fields into the template.
type promptData struct {
	Topic     string
	Title     string
	Authors   string
	Published string
	Venue     string
	Citations int
	Abstract  string
}

func renderPrompt(topic string, p types.Paper) (string, error) {
	data := promptData{
		Topic:     topic,
		Title:     p.Title,
		Authors:   strings.Join(p.Authors, ", "),
		Published: p.Date.Format("2006-01-02"),
		Venue:     p.Venue,
		Citations: p.CitationCount,
		Abstract:  p.Abstract,
	}
	if data.Authors == "" {
		data.Authors = "Unknown"
	}
	if p.Date.IsZero() {
		data.Published = "Unknown"
	}
	if data.Venue == "" {
		data.Venue = "Not specified"
	}
	if strings.TrimSpace(data.Abstract) == "" {
		data.Abstract = "(no abstract available)"
	}

	var buf bytes.Buffer
	if err := analysisPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
