// Package location resolves neighborhood mentions in query text and knows
// which neighborhoods border each other.
package location

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed nyc.yaml
var defaultGazetteer []byte

// connectors are dropped when they directly precede a neighborhood mention.
var connectors = []string{"in", "near", "around", "at", "by", "within", "close to"}

// Neighborhood is one gazetteer record.
type Neighborhood struct {
	Name     string   `yaml:"name"`
	Aliases  []string `yaml:"aliases"`
	Adjacent []string `yaml:"adjacent"`
}

type file struct {
	Neighborhoods []Neighborhood `yaml:"neighborhoods"`
}

type phrase struct {
	text      string // case-folded name or alias
	canonical string
}

// Gazetteer is a static, read-only Location Resolver. Safe for concurrent use.
type Gazetteer struct {
	phrases   []phrase // longest first
	canonical map[string]string
	adjacent  map[string][]string // lower-cased canonical -> canonical names
}

// Default returns the embedded New York City gazetteer.
func Default() (*Gazetteer, error) {
	return Parse(defaultGazetteer)
}

// Load reads a gazetteer from a YAML file. An empty path yields the embedded default.
func Load(path string) (*Gazetteer, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read gazetteer %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a gazetteer from YAML. Adjacency is made symmetric.
func Parse(data []byte) (*Gazetteer, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse gazetteer: %w", err)
	}
	return New(f.Neighborhoods)
}

// New builds a gazetteer from records.
func New(records []Neighborhood) (*Gazetteer, error) {
	g := &Gazetteer{
		canonical: make(map[string]string),
		adjacent:  make(map[string][]string),
	}

	for _, n := range records {
		name := strings.TrimSpace(n.Name)
		if name == "" {
			return nil, fmt.Errorf("neighborhood name is required")
		}
		key := strings.ToLower(name)
		if _, dup := g.canonical[key]; dup {
			return nil, fmt.Errorf("duplicate neighborhood %q", name)
		}
		g.canonical[key] = name
	}

	seenPhrase := make(map[string]bool)
	addPhrase := func(text, canonical string) {
		text = fold(strings.TrimSpace(text)).text
		if text == "" || seenPhrase[text] {
			return
		}
		seenPhrase[text] = true
		g.phrases = append(g.phrases, phrase{text: text, canonical: canonical})
	}

	for _, n := range records {
		name := strings.TrimSpace(n.Name)
		addPhrase(name, name)
		for _, a := range n.Aliases {
			addPhrase(a, name)
		}
		for _, adj := range n.Adjacent {
			adjName, ok := g.canonical[strings.ToLower(strings.TrimSpace(adj))]
			if !ok {
				adjName = strings.TrimSpace(adj)
			}
			g.link(name, adjName)
			g.link(adjName, name)
		}
	}

	sort.SliceStable(g.phrases, func(i, j int) bool {
		return len(g.phrases[i].text) > len(g.phrases[j].text)
	})
	return g, nil
}

func (g *Gazetteer) link(from, to string) {
	if strings.EqualFold(from, to) {
		return
	}
	key := strings.ToLower(from)
	for _, existing := range g.adjacent[key] {
		if strings.EqualFold(existing, to) {
			return
		}
	}
	g.adjacent[key] = append(g.adjacent[key], to)
}

// ExtractLocation finds the longest neighborhood name or alias in text and
// returns its canonical name. Every mention of that neighborhood, aliases
// included, is removed together with a directly preceding connector word.
func (g *Gazetteer) ExtractLocation(text string) (string, *string) {
	f := fold(text)
	hay := []byte(f.text)

	var (
		name string
		cuts [][2]int
	)
	for _, p := range g.phrases {
		if name != "" && p.canonical != name {
			continue
		}
		for {
			start := indexWord(string(hay), p.text)
			if start < 0 {
				break
			}
			name = p.canonical
			end := start + len(p.text)
			start = trimConnector(string(hay), start)
			for i := start; i < end; i++ {
				hay[i] = ' '
			}
			cuts = append(cuts, [2]int{f.offsets[start], f.offsets[end]})
		}
	}
	if name == "" {
		return text, nil
	}

	sort.Slice(cuts, func(i, j int) bool { return cuts[i][0] < cuts[j][0] })
	var b strings.Builder
	prev := 0
	for _, c := range cuts {
		b.WriteString(text[prev:c[0]])
		b.WriteByte(' ')
		prev = c[1]
	}
	b.WriteString(text[prev:])
	return tidy(b.String()), &name
}

// AdjacentNeighborhoods returns the neighborhoods bordering name.
func (g *Gazetteer) AdjacentNeighborhoods(name string) []string {
	adj := g.adjacent[strings.ToLower(strings.TrimSpace(name))]
	if len(adj) == 0 {
		return nil
	}
	out := make([]string, len(adj))
	copy(out, adj)
	return out
}

// Names returns every canonical neighborhood name, sorted.
func (g *Gazetteer) Names() []string {
	out := make([]string, 0, len(g.canonical))
	for _, n := range g.canonical {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// indexWord returns the byte offset of the first occurrence of word in s that
// is not part of a longer word, or -1.
func indexWord(s, word string) int {
	from := 0
	for from <= len(s)-len(word) {
		i := strings.Index(s[from:], word)
		if i < 0 {
			return -1
		}
		i += from
		if boundaryBefore(s, i) && boundaryAt(s, i+len(word)) {
			return i
		}
		from = i + 1
	}
	return -1
}

// boundaryBefore reports whether the rune ending at byte i is not a word rune.
func boundaryBefore(s string, i int) bool {
	if i <= 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

// boundaryAt reports whether the rune starting at byte i is not a word rune.
func boundaryAt(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// trimConnector moves start back over a connector word that precedes it.
func trimConnector(s string, start int) int {
	head := strings.TrimRight(s[:start], " \t")
	for _, c := range connectors {
		if strings.HasSuffix(head, c) && boundaryBefore(head, len(head)-len(c)) {
			return len(head) - len(c)
		}
	}
	return start
}

// folded is s lower-cased rune by rune. offsets maps each byte of text to the
// byte in s it came from, plus one trailing entry for len(s).
type folded struct {
	text    string
	offsets []int
}

// fold is applied to both gazetteer phrases and query text.
func fold(s string) folded {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)
	for i, r := range s {
		n := b.Len()
		b.WriteRune(unicode.ToLower(r))
		for range b.Len() - n {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))
	return folded{text: b.String(), offsets: offsets}
}

func tidy(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimRight(s, " ,.;:-")
}
