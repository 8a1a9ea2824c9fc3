package valkey

import (
	"context"

	"github.com/kailas-cloud/corner/internal/db"
)

// HGetAll returns every field of the hash at key. An empty reply means the
// key does not exist and yields db.ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	switch {
	case err != nil:
		return nil, fail(db.OpHGetAll, key, err)
	case len(fields) == 0:
		return nil, db.ErrKeyNotFound
	}
	return fields, nil
}
