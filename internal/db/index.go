package db

import (
	"errors"
	"fmt"
	"strings"
)

// DistanceMetric is the DISTANCE_METRIC of a vector field.
type DistanceMetric string

const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// VectorAlgorithm is the index structure behind a vector field.
type VectorAlgorithm string

const (
	// VectorHNSW is the approximate graph index.
	VectorHNSW VectorAlgorithm = "HNSW"
	// VectorFlat scans every vector; exact, fine for a few thousand venues.
	VectorFlat VectorAlgorithm = "FLAT"
)

// IndexFieldType is the schema type of an index field.
type IndexFieldType int

const (
	IndexFieldTag IndexFieldType = iota
	IndexFieldVector
)

// IndexField is one SCHEMA entry of an index over hashes.
type IndexField struct {
	Name string
	Type IndexFieldType

	TagSeparator string

	VectorAlgo     VectorAlgorithm
	VectorDim      int
	VectorDistance DistanceMetric
	// HNSW only; zero keeps the server default.
	VectorM           int
	VectorEFConstruct int
}

// IndexDefinition describes an FT index over HASH keys.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// Validate reports the first structural problem with the definition.
// At most one vector field is allowed.
func (idx *IndexDefinition) Validate() error {
	switch {
	case idx.Name == "":
		return errors.New("index name is required")
	case !IsValidIdentifier(idx.Name):
		return fmt.Errorf("index name %q contains invalid characters", idx.Name)
	case len(idx.Fields) == 0:
		return errors.New("at least one field is required")
	}

	names := make(map[string]struct{}, len(idx.Fields))
	var vector string
	for i, f := range idx.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if _, dup := names[f.Name]; dup {
			return fmt.Errorf("duplicate field name: %s", f.Name)
		}
		names[f.Name] = struct{}{}

		if f.Type != IndexFieldVector {
			continue
		}
		if f.VectorDim <= 0 {
			return fmt.Errorf("vector field %s requires positive DIM", f.Name)
		}
		if vector != "" {
			return fmt.Errorf("at most one vector field is supported (%s, %s)", vector, f.Name)
		}
		vector = f.Name
	}
	return nil
}

// VectorField returns the vector field name, or "" when there is none.
func (idx *IndexDefinition) VectorField() string {
	for _, f := range idx.Fields {
		if f.Type == IndexFieldVector {
			return f.Name
		}
	}
	return ""
}

// String is a short FT.CREATE-like rendering for logs.
func (idx *IndexDefinition) String() string {
	var sb strings.Builder
	sb.WriteString("FT.CREATE " + idx.Name + " ON HASH")
	if len(idx.Prefixes) > 0 {
		sb.WriteString(" PREFIX " + strings.Join(idx.Prefixes, " "))
	}
	sb.WriteString(" SCHEMA")
	for _, f := range idx.Fields {
		sb.WriteString(" " + f.Name)
		switch f.Type {
		case IndexFieldTag:
			sb.WriteString(" TAG")
		case IndexFieldVector:
			sb.WriteString(" VECTOR " + string(f.VectorAlgo))
		}
	}
	return sb.String()
}

// IsValidIdentifier reports whether s is non-empty and only uses [a-zA-Z0-9_:-].
func IsValidIdentifier(s string) bool {
	return s != "" && strings.IndexFunc(s, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return false
		case r == '_', r == ':', r == '-':
			return false
		}
		return true
	}) < 0
}
