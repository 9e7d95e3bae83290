// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package gaps

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/litreview/pkg/types"
)

// gapSystem primes the model for synthesis across papers.
const gapSystem = "You are a senior researcher surveying a field. You synthesize concrete, actionable research gaps from the documented limitations of published work, and you only claim what the evidence supports."

// gapPromptTmpl presents the full limitation set, grouped by category
// with global numbering, and asks for gap proposals that cite the
// numbered limitations.
var gapPromptTmpl = template.Must(template.New("gaps").Parse(`Research topic: {{.Topic}}

A literature review identified the following limitations across {{.PaperCount}} verified papers, grouped by category:

{{.Limitations}}

Based on these limitations, identify the research gaps and opportunities they point to.

For each gap provide:
- title: a clear, concise name for the gap
- description: what is missing and why it matters
- proposed_direction: a concrete methodology or approach to address the gap
- priority: "high", "medium", or "low", judged by potential impact and feasibility
- supporting_limitations: the numbers of the limitations above that motivate this gap

Respond with a JSON object containing a "gaps" array. Each element must have all fields listed above. Every gap must cite at least one limitation number. Do not include any text outside the JSON object.

Example response:
{"gaps": [{"title": "Cross-lingual evaluation", "description": "Reported results cover English-only benchmarks, so robustness across languages is unknown.", "proposed_direction": "Assemble a multilingual benchmark and re-evaluate the surveyed methods.", "priority": "high", "supporting_limitations": [2, 5]}]}
`))

type gapPromptData struct {
	Topic       string
	PaperCount  int
	Limitations string
}

func renderPrompt(topic string, limitations []types.Limitation, titles map[string]string) (string, error) {
	papers := make(map[string]bool)
	for _, lim := range limitations {
		papers[lim.PaperID] = true
	}

	data := gapPromptData{
		Topic:       topic,
		PaperCount:  len(papers),
		Limitations: formatLimitations(limitations, titles),
	}

	var buf bytes.Buffer
	if err := gapPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatLimitations renders the limitation list grouped by category.
// Numbering is positional over the full input slice so the model's
// supporting_limitations references map straight back.
func formatLimitations(limitations []types.Limitation, titles map[string]string) string {
	categories := []types.LimitationCategory{
		types.LimitationMethodological,
		types.LimitationScope,
		types.LimitationExperimental,
	}

	var b strings.Builder
	for _, category := range categories {
		var lines []string
		for i, lim := range limitations {
			if lim.Category != category {
				continue
			}
			title := titles[lim.PaperID]
			if title == "" {
				title = lim.PaperID
			}
			lines = append(lines, fmt.Sprintf("%d. [%s] %s (confidence %.2f)", i+1, title, lim.Description, lim.Confidence))
		}
		if len(lines) == 0 {
			continue
		}
		b.WriteString(strings.ToUpper(string(category)))
		b.WriteString(":\n")
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
