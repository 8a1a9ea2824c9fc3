// Package lexicon holds the static category tables used to recognize facets
// in free-text venue queries and to expand them with related phrases.
package lexicon

import "strings"

// Category is one facet dimension.
type Category string

const (
	// Vibe describes atmosphere.
	Vibe Category = "vibe"
	// Establishment describes the kind of venue.
	Establishment Category = "establishment"
	// Cuisine describes food style.
	Cuisine Category = "cuisine"
	// Price describes cost expectations.
	Price Category = "price"
	// Activity describes what the visitor wants to do.
	Activity Category = "activity"
	// Time describes time of day.
	Time Category = "time"
	// Amenity describes a venue feature that can be filtered on.
	Amenity Category = "amenity"
)

// Entry maps a canonical term to its ordered synonyms.
type Entry struct {
	Term     string
	Synonyms []string
}

var categories = []Category{Vibe, Establishment, Cuisine, Price, Activity, Time, Amenity}

var tables = map[Category][]Entry{
	Vibe: {
		{"cozy", []string{"warm", "intimate", "homey", "comfortable", "snug", "hygge"}},
		{"chill", []string{"relaxed", "laid-back", "casual", "low-key", "easygoing", "mellow"}},
		{"aesthetic", []string{
			"stylish", "beautiful", "instagrammable", "pretty", "photogenic", "designed", "trendy",
		}},
		{"vibey", []string{"atmospheric", "cool", "trendy", "hip", "fun", "good vibes", "ambiance"}},
		{"romantic", []string{"intimate", "date night", "candlelit", "quiet", "cozy", "dimly lit"}},
		{"cool", []string{"hip", "trendy", "edgy", "stylish", "interesting", "unique"}},
		{"fancy", []string{"upscale", "elegant", "sophisticated", "high-end", "luxurious"}},
		{"casual", []string{"relaxed", "laid-back", "informal", "easygoing", "unpretentious"}},
	},
	Establishment: {
		{"cafe", []string{"coffee shop", "bakery", "pastry shop", "espresso bar", "tea house"}},
		{"bar", []string{"pub", "cocktail bar", "lounge", "tavern", "speakeasy", "dive bar"}},
		{"restaurant", []string{"eatery", "bistro", "dining", "diner", "trattoria", "brasserie"}},
		{"bakery", []string{"patisserie", "bread shop", "cake shop", "pastry shop"}},
		{"diner", []string{"breakfast place", "brunch spot", "greasy spoon", "all-day breakfast"}},
	},
	Cuisine: {
		{"italian", []string{"pasta", "pizza", "risotto", "italian cuisine", "trattoria", "italian restaurant"}},
		{"asian", []string{"chinese", "japanese", "korean", "thai", "vietnamese", "asian cuisine", "asian fusion"}},
		{"mexican", []string{"tacos", "burritos", "tex-mex", "mexican cuisine", "mexican food"}},
		{"american", []string{"burgers", "sandwiches", "american cuisine", "american food", "new american"}},
		{"chinese", []string{"dim sum", "dumpling", "noodles", "chinese cuisine", "chinese food"}},
		{"japanese", []string{"sushi", "ramen", "japanese cuisine", "japanese food", "izakaya"}},
	},
	Price: {
		{"cheap", []string{"affordable", "budget-friendly", "inexpensive", "good value", "low price"}},
		{"moderate", []string{"mid-range", "reasonable", "moderately priced", "fair price"}},
		{"expensive", []string{"high-end", "upscale", "pricey", "fine dining", "luxury", "splurge"}},
	},
	Activity: {
		{"work", []string{"wifi", "laptop friendly", "outlets", "coworking", "study", "productive"}},
		{"date", []string{"romantic", "date night", "intimate", "couples", "special occasion"}},
		{"group", []string{"group dining", "large parties", "group friendly", "communal seating"}},
		{"party", []string{"celebration", "birthday", "special occasion", "event", "gathering"}},
		{"quiet", []string{"peaceful", "calm", "serene", "tranquil", "not crowded"}},
	},
	Time: {
		{"breakfast", []string{"morning", "early", "brunch", "breakfast food", "eggs", "pastry"}},
		{"lunch", []string{"midday", "noon", "lunch menu", "lunch special"}},
		{"dinner", []string{"evening", "night", "dinner menu", "supper"}},
		{"late night", []string{"open late", "after hours", "late", "midnight", "night owl"}},
	},
	Amenity: {
		{"wifi", []string{"internet", "wi-fi", "free wifi", "internet access"}},
		{"outdoor seating", []string{"patio", "terrace", "outdoor space", "alfresco", "sidewalk seating"}},
		{"pet friendly", []string{"dog friendly", "allows dogs", "brings dogs", "canine friendly"}},
		{"view", []string{"scenic view", "overlook", "vista", "skyline view", "waterfront"}},
		{"live music", []string{"music venue", "band", "performer", "music performance", "dj"}},
		{"reservations", []string{"takes reservations", "reservation required", "reserve ahead"}},
		{"takeout", []string{"to go", "takeaway", "carryout", "pickup", "delivery"}},
	},
}

// Categories returns all categories in matching order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Entries returns the entries of a category in table order.
func Entries(c Category) []Entry {
	return tables[c]
}

// Has reports whether term is a canonical key of category c.
func Has(c Category, term string) bool {
	_, ok := lookup(c, term)
	return ok
}

// Synonyms returns at most n synonyms of term, in table order.
func Synonyms(c Category, term string, n int) []string {
	e, ok := lookup(c, term)
	if !ok || n <= 0 {
		return nil
	}
	if n > len(e.Synonyms) {
		n = len(e.Synonyms)
	}
	out := make([]string, n)
	copy(out, e.Synonyms[:n])
	return out
}

// Matches reports whether the lower-cased text mentions the entry's term or any of its synonyms.
func (e Entry) Matches(lowered string) bool {
	if strings.Contains(lowered, e.Term) {
		return true
	}
	for _, syn := range e.Synonyms {
		if strings.Contains(lowered, syn) {
			return true
		}
	}
	return false
}

// AmenityField returns the store field name holding the boolean flag for an amenity term,
// e.g. "outdoor seating" -> "amenity_outdoor_seating".
func AmenityField(term string) string {
	return "amenity_" + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(term)), " ", "_")
}

// AmenityFields returns the store field names of every amenity term.
func AmenityFields() []string {
	entries := tables[Amenity]
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = AmenityField(e.Term)
	}
	return out
}

func lookup(c Category, term string) (Entry, bool) {
	for _, e := range tables[c] {
		if e.Term == term {
			return e, true
		}
	}
	return Entry{}, false
}
