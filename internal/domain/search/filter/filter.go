// Package filter holds the tag constraints a KNN query is pre-filtered by.
// Amenity requirements from the query become must conditions on the
// venue's amenity_* tag fields.
package filter

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxConditions caps the conditions of one expression.
const MaxConditions = 32

// ErrTooManyConditions is returned when an expression exceeds MaxConditions.
var ErrTooManyConditions = errors.New("too many filter conditions")

// Condition requires a tag field to hold an exact value.
type Condition struct {
	key   string
	match string
}

// NewMatch builds a condition on field key. Blank keys or values are rejected.
func NewMatch(key, match string) (Condition, error) {
	switch {
	case strings.TrimSpace(key) == "":
		return Condition{}, errors.New("filter key is required")
	case strings.TrimSpace(match) == "":
		return Condition{}, fmt.Errorf("match value is required for key %q", key)
	}
	return Condition{key: key, match: match}, nil
}

func (c Condition) Key() string   { return c.key }
func (c Condition) Match() string { return c.match }

// Expression is a conjunction of must conditions.
// The zero value matches everything.
type Expression struct {
	must []Condition
}

// NewExpression copies the conditions into an Expression.
func NewExpression(must []Condition) (Expression, error) {
	if n := len(must); n > MaxConditions {
		return Expression{}, fmt.Errorf("%d must conditions (max %d): %w", n, MaxConditions, ErrTooManyConditions)
	}
	return Expression{must: slices.Clone(must)}, nil
}

func (e Expression) Must() []Condition { return e.must }

// IsEmpty reports whether e constrains nothing.
func (e Expression) IsEmpty() bool {
	return len(e.must) == 0
}
