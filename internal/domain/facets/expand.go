package facets

import (
	"strings"

	"github.com/kailas-cloud/corner/internal/domain/lexicon"
)

const (
	// MaxExpansionPhrases caps how many synonyms are appended to a query.
	MaxExpansionPhrases = 8
	// ExpansionSeparator introduces the appended synonym clause.
	ExpansionSeparator = ". Similar to places that are: "

	vibeSynonyms    = 3
	defaultSynonyms = 2
)

// Expand appends lexicon synonyms of the recognized facets to the cleaned query.
// Phrases already present in the cleaned text are skipped and duplicates are
// removed case-insensitively. Without any remaining phrase the cleaned text is
// returned unchanged.
func Expand(f QueryFacets) string {
	cleaned := f.Cleaned()
	loweredQuery := strings.ToLower(cleaned)

	seen := make(map[string]struct{})
	var phrases []string
	for _, c := range lexicon.Categories() {
		n := defaultSynonyms
		if c == lexicon.Vibe {
			n = vibeSynonyms
		}
		for _, term := range f.Tags(c) {
			for _, syn := range lexicon.Synonyms(c, term, n) {
				key := strings.ToLower(syn)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				if strings.Contains(loweredQuery, key) {
					continue
				}
				phrases = append(phrases, syn)
			}
		}
	}

	if len(phrases) == 0 {
		return cleaned
	}
	if len(phrases) > MaxExpansionPhrases {
		phrases = phrases[:MaxExpansionPhrases]
	}
	return cleaned + ExpansionSeparator + strings.Join(phrases, ", ")
}
