package venue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseTags reads tags stored as a JSON array, a Postgres array literal
// ({a,b}), a comma-separated list or a single tag.
func ParseTags(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var items []any
		if err := json.Unmarshal([]byte(s), &items); err == nil {
			out := make([]string, 0, len(items))
			for _, it := range items {
				if it == nil {
					continue
				}
				if tag := strings.TrimSpace(fmt.Sprint(it)); tag != "" {
					out = append(out, tag)
				}
			}
			return out
		}
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		return splitList(strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}"), ` "'`)
	}

	if strings.Contains(s, ",") {
		return splitList(s, " ")
	}

	return []string{s}
}

// ParseHours reads opening hours stored as a JSON object (or the same with
// single quotes) into a day -> interval map. Unparseable text is kept under "text".
func ParseHours(raw string) map[string]string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	obj, ok := decodeObject(s)
	if !ok {
		return map[string]string{"text": s}
	}

	hours := make(map[string]string, len(obj))
	for day, v := range obj {
		switch val := v.(type) {
		case string:
			hours[day] = strings.TrimSpace(val)
		case []any:
			parts := make([]string, 0, len(val))
			for _, p := range val {
				parts = append(parts, fmt.Sprint(p))
			}
			hours[day] = strings.Join(parts, ", ")
		case nil:
			continue
		default:
			hours[day] = fmt.Sprint(val)
		}
	}
	return hours
}

// ParseAmenities reads amenity flags stored as a JSON object or a
// comma-separated list of present amenities. Keys are lower-cased and use
// spaces instead of underscores.
func ParseAmenities(raw string) map[string]bool {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	out := make(map[string]bool)
	if obj, ok := decodeObject(s); ok {
		for k, v := range obj {
			out[amenityKey(k)] = truthy(v)
		}
		return out
	}

	for _, item := range splitList(s, " ") {
		out[amenityKey(item)] = true
	}
	return out
}

func decodeObject(s string) (map[string]any, bool) {
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err == nil {
		return obj, true
	}
	if err := json.Unmarshal([]byte(strings.ReplaceAll(s, "'", `"`)), &obj); err == nil {
		return obj, true
	}
	return nil, false
}

func truthy(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(val))
		if err == nil {
			return b
		}
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "yes", "y":
			return true
		}
		return false
	default:
		return false
	}
}

func amenityKey(k string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(k, "_", " ")))
}

func splitList(s, cutset string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.Trim(p, cutset); v != "" {
			out = append(out, v)
		}
	}
	return out
}
