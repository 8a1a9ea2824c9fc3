package result

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kailas-cloud/corner/internal/domain/candidate"
)

func TestFromCandidate(t *testing.T) {
	c := &candidate.Candidate{
		ID:            "v1",
		Name:          "Joe's",
		Neighborhood:  "Chinatown",
		PriceRange:    "$",
		Description:   "dumplings",
		Similarity:    0.87654,
		RawSimilarity: 0.73,
		Tier:          candidate.TierPrimary,
	}

	r := FromCandidate(c)

	if r.ID != "v1" || r.Name != "Joe's" || r.Neighborhood != "Chinatown" {
		t.Errorf("identity fields = %+v", r)
	}
	if r.PriceLevel != 1 {
		t.Errorf("PriceLevel = %d, want 1", r.PriceLevel)
	}
	if r.MatchPercent != 87.65 {
		t.Errorf("MatchPercent = %v, want 87.65", r.MatchPercent)
	}
	if r.BoostTier != candidate.TierPrimary {
		t.Errorf("BoostTier = %q", r.BoostTier)
	}
	if r.Tags == nil {
		t.Error("Tags should be an empty slice, not nil")
	}
}

func TestTruncateDescription(t *testing.T) {
	short := "a quiet spot"
	if got := TruncateDescription(short); got != short {
		t.Errorf("short description changed: %q", got)
	}

	exact := strings.Repeat("x", MaxDescriptionRunes)
	if got := TruncateDescription(exact); got != exact {
		t.Error("description at the limit should be kept")
	}

	long := strings.Repeat("é", MaxDescriptionRunes+10)
	got := TruncateDescription(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != MaxDescriptionRunes+3 {
		t.Errorf("rune count = %d, want %d", n, MaxDescriptionRunes+3)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1, 100},
		{0, 0},
		{0.5, 50},
		{0.123456, 12.35},
	}
	for _, tt := range tests {
		if got := Percent(tt.in); got != tt.want {
			t.Errorf("Percent(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
