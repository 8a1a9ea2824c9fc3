package valkey

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/corner/internal/db"
	"github.com/kailas-cloud/corner/internal/domain/search/filter"
)

// SearchKNN runs FT.SEARCH with a KNN clause. Entries come back nearest first.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("knn query: %w", err)
	}

	reply, err := s.client.Do(ctx, s.client.B().Arbitrary("FT.SEARCH").Args(buildKNNArgs(q)...).Build()).ToArray()
	if indexMissing(err) {
		return nil, fail(db.OpSearch, q.IndexName, db.ErrIndexNotFound)
	}
	if err != nil {
		return nil, fail(db.OpSearch, q.IndexName, err)
	}
	return parseKNNReply(reply)
}

// buildKNNArgs renders the FT.SEARCH arguments. The score alias is always
// returned; the vector only when asked for.
func buildKNNArgs(q *db.KNNQuery) []string {
	knn := fmt.Sprintf("[KNN %d @%s $BLOB]", q.K, q.VectorField)
	query := "*=>" + knn
	if pre := buildFilter(q.Filters); pre != "" {
		query = "(" + pre + ")=>" + knn
	}

	args := []string{q.IndexName, query}
	if len(q.ReturnFields) > 0 {
		ret := append(slices.Clone(q.ReturnFields), db.ScoreField)
		if q.IncludeVector {
			ret = append(ret, q.VectorField)
		}
		args = append(append(args, "RETURN", strconv.Itoa(len(ret))), ret...)
	}
	return append(args,
		"PARAMS", "2", "BLOB", db.EncodeVector(q.Vector),
		"LIMIT", "0", strconv.Itoa(q.K),
		"DIALECT", "2",
	)
}

// parseKNNReply decodes the RESP2 layout [total, key, [field, value, ...], key, ...].
// Malformed pairs are skipped.
func parseKNNReply(reply []rueidis.RedisMessage) (*db.SearchResult, error) {
	res := &db.SearchResult{}
	if len(reply) == 0 {
		return res, nil
	}
	total, err := reply[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("knn reply total: %w", err)
	}
	res.Total = int(total)

	for rest := reply[1:]; len(rest) >= 2; rest = rest[2:] {
		key, kerr := rest[0].ToString()
		pairs, ferr := rest[1].ToArray()
		if kerr != nil || ferr != nil {
			continue
		}
		fields := fieldMap(pairs)
		entry := db.SearchEntry{Key: key, Fields: fields}
		if raw, ok := fields[db.ScoreField]; ok {
			if d, err := strconv.ParseFloat(raw, 64); err == nil {
				entry.Score = db.SimilarityFromDistance(d)
			}
			delete(fields, db.ScoreField)
		}
		res.Entries = append(res.Entries, entry)
	}

	slices.SortStableFunc(res.Entries, func(a, b db.SearchEntry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return res, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, nerr := pairs[i].ToString()
		val, verr := pairs[i+1].ToString()
		if nerr == nil && verr == nil {
			m[name] = val
		}
	}
	return m
}

// buildFilter translates filter.Expression into an FT.SEARCH pre-filter.
func buildFilter(expr filter.Expression) string {
	if expr.IsEmpty() {
		return ""
	}

	parts := make([]string, 0, len(expr.Must()))
	for _, cond := range expr.Must() {
		parts = append(parts, buildTagFilter(cond.Key(), cond.Match()))
	}
	return strings.Join(parts, " ")
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)
