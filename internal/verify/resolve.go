// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"net/url"
	"regexp"
	"strings"
)

// IdentifierType classifies a candidate paper's identifier. The type
// decides which independent registry can confirm the paper: arXiv IDs
// and DOIs resolve to a record directly, URLs and opaque backend IDs
// fall back to a title search.
type IdentifierType int

const (
	TypeUnknown IdentifierType = iota
	TypeArxiv
	TypeDOI
	TypeURL
)

func (t IdentifierType) String() string {
	switch t {
	case TypeArxiv:
		return "arxiv"
	case TypeDOI:
		return "doi"
	case TypeURL:
		return "url"
	default:
		return "unknown"
	}
}

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5}(?:v\d+)?)$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

// doiURLPrefixes are resolver hosts that wrap a bare DOI. Registries
// and citations circulate DOIs in this URL form as often as bare.
var doiURLPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
}

// Classify determines the identifier type and returns the normalized form.
// arXiv IDs lose the optional "arXiv:" prefix and the version suffix so
// lookups hit the canonical record; doi.org resolver URLs reduce to the
// bare DOI.
func Classify(identifier string) (IdentifierType, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		id := m[1]
		if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
			id = id[:vIdx]
		}
		return TypeArxiv, id
	}

	for _, prefix := range doiURLPrefixes {
		if rest := strings.TrimPrefix(identifier, prefix); rest != identifier && doiPattern.MatchString(rest) {
			return TypeDOI, rest
		}
	}

	if doiPattern.MatchString(identifier) {
		return TypeDOI, identifier
	}

	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return TypeURL, identifier
	}

	return TypeUnknown, identifier
}

// RegistryID renders a classified identifier in the prefixed form the
// Semantic Scholar paper endpoint accepts ("arXiv:2301.07041",
// "DOI:10.1145/1234567.1234568"). It returns "" for types that have no
// direct registry lookup.
func RegistryID(t IdentifierType, normalized string) string {
	switch t {
	case TypeArxiv:
		return "arXiv:" + normalized
	case TypeDOI:
		return "DOI:" + normalized
	default:
		return ""
	}
}
