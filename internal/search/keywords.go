// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"sort"
	"strings"
	"unicode"
)

// maxKeywords caps the keyword set extracted from any one text.
const maxKeywords = 10

// stopwords are excluded from keyword extraction. Only terms of four or
// more letters reach the filter, so shorter function words are omitted.
var stopwords = map[string]struct{}{
	"about": {}, "above": {}, "after": {}, "although": {}, "always": {},
	"among": {}, "another": {}, "barely": {}, "because": {}, "been": {},
	"before": {}, "being": {}, "below": {}, "between": {}, "both": {},
	"could": {}, "does": {}, "during": {}, "each": {}, "else": {},
	"every": {}, "from": {}, "hardly": {}, "have": {}, "here": {},
	"into": {}, "just": {}, "many": {}, "might": {}, "more": {},
	"most": {}, "much": {}, "must": {}, "never": {}, "often": {},
	"once": {}, "only": {}, "other": {}, "rarely": {}, "same": {},
	"scarcely": {}, "seldom": {}, "shall": {}, "should": {}, "since": {},
	"some": {}, "sometimes": {}, "such": {}, "than": {}, "that": {},
	"then": {}, "there": {}, "these": {}, "they": {}, "this": {},
	"those": {}, "though": {}, "through": {}, "twice": {}, "unless": {},
	"until": {}, "usually": {}, "very": {}, "were": {}, "what": {},
	"when": {}, "where": {}, "whereas": {}, "which": {}, "while": {},
	"whom": {}, "whose": {}, "will": {}, "with": {}, "would": {},
}

// extractKeywords returns the most frequent non-stopword terms of at least
// four letters, lowercased, capped at maxKeywords. Frequency ties keep
// first-seen order so the result is deterministic.
func extractKeywords(text string) []string {
	freq := make(map[string]int)
	var order []string

	for _, w := range tokenizeWords(text) {
		if len(w) < 4 {
			continue
		}
		if _, skip := stopwords[w]; skip {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// tokenizeWords splits text into lowercased runs of letters.
func tokenizeWords(text string) []string {
	var words []string
	var b strings.Builder
	for _, r := range text {
		if unicode.IsLetter(r) {
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}
