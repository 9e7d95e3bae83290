// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package limits

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/pdiddy/litreview/pkg/types"
)

// limitationSystem primes the model for critical reading.
const limitationSystem = "You are a critical reviewer of academic papers. You identify genuine research limitations stated in or implied by a paper, and you never invent weaknesses the evidence does not support."

// limitationPromptTmpl asks for categorized limitation statements for
// one analyzed paper.
var limitationPromptTmpl = template.Must(template.New("limitations").Parse(`Identify the research limitations of the following academic paper:

Paper details:
- Title: {{.Title}}
- Authors: {{.Authors}}
- Published: {{.Published}}
- Venue: {{.Venue}}

Abstract:
{{.Abstract}}

Analysis so far:
- Methodology: {{.Methodology}}
- Key concepts: {{.KeyConcepts}}
- Contributions: {{.Contributions}}

Look for limitations in these categories:
- methodological: issues with the research design, data collection, analysis methods, or the approach itself
- scope: narrow datasets, populations, or settings; limited applicability to broader contexts
- experimental: problems with evaluation metrics, validation, reproducibility, or generalization of results

For each limitation provide:
- category: one of "methodological", "scope", "experimental"
- description: the limitation in one or two sentences, specific to this paper
- confidence: a number between 0.0 and 1.0 indicating how certain you are the limitation applies

Respond with a JSON object containing a "limitations" array. Each element must have all fields listed above. Return an empty array if the material shows no identifiable limitations. Do not include any text outside the JSON object.

Example response:
{"limitations": [{"category": "scope", "description": "Results are only reported on English-language benchmarks.", "confidence": 0.85}]}
`))

// limitationPromptData carries one paper and its analysis into the template.
type limitationPromptData struct {
	Title         string
	Authors       string
	Published     string
	Venue         string
	Abstract      string
	Methodology   string
	KeyConcepts   string
	Contributions string
}

func renderPrompt(p types.Paper, a types.PaperAnalysis) (string, error) {
	data := limitationPromptData{
		Title:         p.Title,
		Authors:       strings.Join(p.Authors, ", "),
		Published:     p.Date.Format("2006-01-02"),
		Venue:         p.Venue,
		Abstract:      p.Abstract,
		Methodology:   a.Methodology,
		KeyConcepts:   strings.Join(a.KeyConcepts, ", "),
		Contributions: strings.Join(a.Contributions, "; "),
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
	if data.Methodology == "" {
		data.Methodology = "(not summarized)"
	}

	var buf bytes.Buffer
	if err := limitationPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
