package location

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGazetteer(t *testing.T) *Gazetteer {
	t.Helper()
	g, err := New([]Neighborhood{
		{Name: "Chinatown", Aliases: []string{"china town"}, Adjacent: []string{"Little Italy", "Tribeca"}},
		{Name: "Little Italy"},
		{Name: "Tribeca"},
		{Name: "Brooklyn"},
		{Name: "Downtown Brooklyn", Adjacent: []string{"Dumbo"}},
		{Name: "Dumbo"},
	})
	require.NoError(t, err)
	return g
}

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantText  string
		wantPlace string
	}{
		{"trailing with connector", "cheap eats in Chinatown", "cheap eats", "Chinatown"},
		{"case insensitive", "dim sum IN CHINATOWN please", "dim sum please", "Chinatown"},
		{"alias resolves to canonical", "noodles near china town", "noodles", "Chinatown"},
		{"leading mention", "Tribeca wine bar", "wine bar", "Tribeca"},
		{"longest match wins", "cocktails in downtown brooklyn", "cocktails", "Downtown Brooklyn"},
		{"punctuation tidied", "bagels around Dumbo.", "bagels", "Dumbo"},
	}
	g := newTestGazetteer(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, place := g.ExtractLocation(tc.in)
			require.NotNil(t, place)
			assert.Equal(t, tc.wantPlace, *place)
			assert.Equal(t, tc.wantText, text)
			assert.NotContains(t, text, tc.wantPlace)
		})
	}
}

func TestExtractLocation_NoMatch(t *testing.T) {
	g := newTestGazetteer(t)
	text, place := g.ExtractLocation("xyzzy plugh")
	assert.Nil(t, place)
	assert.Equal(t, "xyzzy plugh", text)
}

func TestExtractLocation_WordBoundary(t *testing.T) {
	g := newTestGazetteer(t)
	text, place := g.ExtractLocation("brooklynite bakery")
	assert.Nil(t, place)
	assert.Equal(t, "brooklynite bakery", text)
}

func TestExtractLocation_ConnectorInsideWordKept(t *testing.T) {
	g := newTestGazetteer(t)
	text, place := g.ExtractLocation("great Tribeca spot")
	require.NotNil(t, place)
	assert.Equal(t, "great spot", text)
}

func TestExtractLocation_RepeatedMention(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"same name twice", "Chinatown dumplings in Chinatown", "dumplings"},
		{"name and alias", "noodles in china town near Chinatown", "noodles"},
		{"mentions around text", "chinatown dim sum, not far from chinatown", "dim sum, not far from"},
	}
	g := newTestGazetteer(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, place := g.ExtractLocation(tc.in)
			require.NotNil(t, place)
			assert.Equal(t, "Chinatown", *place)
			assert.Equal(t, tc.want, text)
		})
	}
}

func TestExtractLocation_OtherNeighborhoodKept(t *testing.T) {
	g := newTestGazetteer(t)
	text, place := g.ExtractLocation("pizza in Tribeca or Chinatown")
	require.NotNil(t, place)
	assert.Equal(t, "Chinatown", *place)
	assert.Equal(t, "pizza in Tribeca or", text)
}

func TestExtractLocation_NonASCIIName(t *testing.T) {
	g, err := New([]Neighborhood{
		{Name: "Côte Village", Aliases: []string{"ÉCOLE"}},
		{Name: "Tribeca"},
	})
	require.NoError(t, err)

	text, place := g.ExtractLocation("BAKERY IN CÔTE VILLAGE")
	require.NotNil(t, place)
	assert.Equal(t, "Côte Village", *place)
	assert.Equal(t, "BAKERY", text)

	text, place = g.ExtractLocation("croissants près de l'école")
	require.NotNil(t, place)
	assert.Equal(t, "Côte Village", *place)
	assert.Equal(t, "croissants près de l'", text)

	text, place = g.ExtractLocation("écoles bakery")
	assert.Nil(t, place)
	assert.Equal(t, "écoles bakery", text)
}

func TestAdjacentNeighborhoods_Symmetric(t *testing.T) {
	g := newTestGazetteer(t)
	assert.ElementsMatch(t, []string{"Little Italy", "Tribeca"}, g.AdjacentNeighborhoods("chinatown"))
	assert.Equal(t, []string{"Chinatown"}, g.AdjacentNeighborhoods("Little Italy"))
	assert.Equal(t, []string{"Downtown Brooklyn"}, g.AdjacentNeighborhoods("Dumbo"))
	assert.Nil(t, g.AdjacentNeighborhoods("Brooklyn"))
	assert.Nil(t, g.AdjacentNeighborhoods("Atlantis"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New([]Neighborhood{{Name: " "}})
	assert.Error(t, err)

	_, err = New([]Neighborhood{{Name: "Soho"}, {Name: "soho"}})
	assert.Error(t, err)
}

func TestDefault_Loads(t *testing.T) {
	g, err := Default()
	require.NoError(t, err)
	assert.Contains(t, g.Names(), "Chinatown")
	assert.Contains(t, g.AdjacentNeighborhoods("Chinatown"), "Little Italy")
	assert.Contains(t, g.AdjacentNeighborhoods("Little Italy"), "Chinatown")

	text, place := g.ExtractLocation("cozy cafe with wifi in Clinton Hill")
	require.NotNil(t, place)
	assert.Equal(t, "Clinton Hill", *place)
	assert.Equal(t, "cozy cafe with wifi", text)
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "places.yaml")
	data := []byte("neighborhoods:\n  - name: Old Town\n    adjacent: [Harbor]\n  - name: Harbor\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	g, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Harbor", "Old Town"}, g.Names())
	assert.Equal(t, []string{"Old Town"}, g.AdjacentNeighborhoods("harbor"))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
