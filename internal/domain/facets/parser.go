package facets

import (
	"strings"

	"github.com/kailas-cloud/corner/internal/domain/lexicon"
)

// LocationExtractor strips a neighborhood mention from query text.
type LocationExtractor interface {
	ExtractLocation(text string) (remaining string, neighborhood *string)
}

// groupRule maps a set of keywords to a group size. Rules are checked in order.
type groupRule struct {
	size     GroupSize
	keywords []string
}

var groupRules = []groupRule{
	{GroupLarge, []string{"group", "party", "gathering", "crowd"}},
	{GroupSolo, []string{"solo", "alone", "by myself", "single"}},
	{GroupCouple, []string{"date", "couple", "two people"}},
}

// Parser builds QueryFacets from raw text. It never fails.
type Parser struct {
	locations LocationExtractor
}

// NewParser creates a Parser. locations may be nil, in which case no location is extracted.
func NewParser(locations LocationExtractor) *Parser {
	return &Parser{locations: locations}
}

// Parse extracts the location first, then matches every lexicon category
// against the remaining text.
func (p *Parser) Parse(query string) QueryFacets {
	f := QueryFacets{
		original: query,
		cleaned:  query,
		tags:     make(map[lexicon.Category][]string),
	}

	if p.locations != nil {
		f.cleaned, f.location = p.locations.ExtractLocation(query)
	}

	lowered := strings.ToLower(f.cleaned)
	if strings.TrimSpace(lowered) == "" {
		return f
	}

	for _, c := range lexicon.Categories() {
		for _, e := range lexicon.Entries(c) {
			if e.Matches(lowered) {
				f.tags[c] = append(f.tags[c], e.Term)
			}
		}
	}

	f.groupSize = detectGroupSize(lowered)
	return f
}

func detectGroupSize(lowered string) GroupSize {
	for _, rule := range groupRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lowered, kw) {
				return rule.size
			}
		}
	}
	return GroupNone
}
