// Package facets turns free-text venue queries into structured facet sets
// and expands those sets back into embedding-friendly text.
package facets

import "github.com/kailas-cloud/corner/internal/domain/lexicon"

// GroupSize is the party size hinted at by a query.
type GroupSize string

const (
	// GroupNone means no hint was found.
	GroupNone GroupSize = ""
	// GroupSolo is a single visitor.
	GroupSolo GroupSize = "solo"
	// GroupCouple is two people.
	GroupCouple GroupSize = "couple"
	// GroupLarge is a group or party.
	GroupLarge GroupSize = "large"
)

// QueryFacets is the structured reading of one query. Built once by the Parser
// and never modified afterwards; accessors return copies.
type QueryFacets struct {
	original  string
	cleaned   string
	location  *string
	tags      map[lexicon.Category][]string
	groupSize GroupSize
}

// Original returns the query as typed by the user.
func (f QueryFacets) Original() string { return f.original }

// Cleaned returns the query with the location phrase removed.
func (f QueryFacets) Cleaned() string { return f.cleaned }

// Location returns the recognized neighborhood, or nil.
func (f QueryFacets) Location() *string {
	if f.location == nil {
		return nil
	}
	loc := *f.location
	return &loc
}

// GroupSize returns the detected party size.
func (f QueryFacets) GroupSize() GroupSize { return f.groupSize }

// Tags returns the canonical terms recognized for a category, in lexicon order.
func (f QueryFacets) Tags(c lexicon.Category) []string {
	src := f.tags[c]
	if len(src) == 0 {
		return nil
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

// Vibe returns vibe tags.
func (f QueryFacets) Vibe() []string { return f.Tags(lexicon.Vibe) }

// Establishment returns establishment tags.
func (f QueryFacets) Establishment() []string { return f.Tags(lexicon.Establishment) }

// Cuisine returns cuisine tags.
func (f QueryFacets) Cuisine() []string { return f.Tags(lexicon.Cuisine) }

// Price returns price tags.
func (f QueryFacets) Price() []string { return f.Tags(lexicon.Price) }

// Activity returns activity tags.
func (f QueryFacets) Activity() []string { return f.Tags(lexicon.Activity) }

// TimeOfDay returns time-of-day tags.
func (f QueryFacets) TimeOfDay() []string { return f.Tags(lexicon.Time) }

// Amenities returns amenity tags.
func (f QueryFacets) Amenities() []string { return f.Tags(lexicon.Amenity) }

// IsEmpty reports whether no category tag was recognized.
func (f QueryFacets) IsEmpty() bool {
	for _, tags := range f.tags {
		if len(tags) > 0 {
			return false
		}
	}
	return true
}

// Summary is a serializable view of the facet set.
type Summary struct {
	Original  string              `json:"original"`
	Cleaned   string              `json:"cleaned"`
	Location  *string             `json:"location,omitempty"`
	Tags      map[string][]string `json:"tags,omitempty"`
	GroupSize GroupSize           `json:"group_size,omitempty"`
}

// Summary returns a copy suitable for logging and API responses.
func (f QueryFacets) Summary() Summary {
	s := Summary{
		Original:  f.original,
		Cleaned:   f.cleaned,
		Location:  f.Location(),
		GroupSize: f.groupSize,
	}
	for _, c := range lexicon.Categories() {
		if tags := f.Tags(c); len(tags) > 0 {
			if s.Tags == nil {
				s.Tags = make(map[string][]string)
			}
			s.Tags[string(c)] = tags
		}
	}
	return s
}
