package venue

import (
	"regexp"
	"strconv"
	"strings"
)

// Price is a normalized price range.
type Price struct {
	Original    string `json:"original"`
	Level       int    `json:"level"`
	Description string `json:"description"`
}

const defaultPriceLevel = 2

var (
	priceRangeRe  = regexp.MustCompile(`\$?(\d+)\D+(\d+)`)
	priceSingleRe = regexp.MustCompile(`\$?(\d+)`)

	priceDescriptions = map[int]string{
		1: "Budget-friendly, inexpensive, affordable",
		2: "Moderately priced, mid-range",
		3: "Higher-end, upscale, expensive",
		4: "Fine dining, premium, luxury, high-end",
	}

	priceCleaner = strings.NewReplacer(
		"–", "-", "—", "-", "‒", "-",
		"‘", "'", "’", "'",
		"“", `"`, "”", `"`,
	)
)

// ParsePrice maps a price string ("$$", "$10-20", "25") to a level 1..4.
// Dollar signs win; otherwise the average of a numeric range or a single number
// picks the level. Anything else gets the mid-range level.
func ParsePrice(raw string) Price {
	s := strings.Join(strings.Fields(priceCleaner.Replace(raw)), " ")
	p := Price{Original: s, Level: priceLevel(s)}
	p.Description = priceDescriptions[p.Level]
	return p
}

func priceLevel(s string) int {
	if s == "" {
		return defaultPriceLevel
	}

	if !strings.ContainsAny(s, "0123456789") {
		if n := strings.Count(s, "$"); n > 0 {
			return min(n, 4)
		}
		return defaultPriceLevel
	}

	if m := priceRangeRe.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		return levelForAmount(float64(lo+hi) / 2)
	}
	if m := priceSingleRe.FindStringSubmatch(s); m != nil {
		v, _ := strconv.Atoi(m[1])
		return levelForAmount(float64(v))
	}
	return defaultPriceLevel
}

func levelForAmount(avg float64) int {
	switch {
	case avg < 15:
		return 1
	case avg < 30:
		return 2
	case avg < 60:
		return 3
	default:
		return 4
	}
}
