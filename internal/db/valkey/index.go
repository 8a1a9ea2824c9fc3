package valkey

import (
	"cmp"
	"context"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/corner/internal/db"
)

// CreateIndex issues FT.CREATE for def. A name collision yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := createArgs(def)
	if err != nil {
		return err
	}
	err = s.client.Do(ctx, s.client.B().Arbitrary("FT.CREATE").Args(args...).Build()).Error()
	switch {
	case err == nil:
		return nil
	case serverSays(err, "already exists"):
		return db.ErrIndexExists
	default:
		return fail(db.OpCreateIndex, def.Name, err)
	}
}

// IndexExists asks FT.INFO about name; an unknown-index reply means false.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	err := s.client.Do(ctx, s.client.B().Arbitrary("FT.INFO").Args(name).Build()).Error()
	switch {
	case err == nil:
		return true, nil
	case indexMissing(err):
		return false, nil
	default:
		return false, fail(db.OpIndexInfo, name, err)
	}
}

// createArgs renders "<name> ON HASH [PREFIX n p...] SCHEMA <fields...>".
func createArgs(def *db.IndexDefinition) ([]string, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	args := []string{def.Name, "ON", "HASH"}
	if n := len(def.Prefixes); n > 0 {
		args = append(append(args, "PREFIX", strconv.Itoa(n)), def.Prefixes...)
	}
	args = append(args, "SCHEMA")

	for i := range def.Fields {
		f := &def.Fields[i]
		switch f.Type {
		case db.IndexFieldTag:
			args = append(args, f.Name, "TAG")
			if f.TagSeparator != "" {
				args = append(args, "SEPARATOR", f.TagSeparator)
			}
		case db.IndexFieldVector:
			args = append(args, f.Name)
			args = append(args, vectorArgs(f)...)
		default:
			return nil, fmt.Errorf("field %q: unsupported type %d", f.Name, f.Type)
		}
	}
	return args, nil
}

// vectorArgs renders "VECTOR <algo> <nattrs> <attrs...>". HNSW tuning is only
// sent when set, leaving server defaults otherwise.
func vectorArgs(f *db.IndexField) []string {
	algo := cmp.Or(f.VectorAlgo, db.VectorHNSW)
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(f.VectorDim),
		"DISTANCE_METRIC", string(cmp.Or(f.VectorDistance, db.DistanceCosine)),
	}
	if algo == db.VectorHNSW {
		if f.VectorM > 0 {
			attrs = append(attrs, "M", strconv.Itoa(f.VectorM))
		}
		if f.VectorEFConstruct > 0 {
			attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(f.VectorEFConstruct))
		}
	}
	return append([]string{"VECTOR", string(algo), strconv.Itoa(len(attrs))}, attrs...)
}
