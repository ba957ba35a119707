package manifest

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/dgraph-io/badger/v3"

	"github.com/devansh-kaila-006/neuron-ai-club-sub000/internal/models"
)

// One JSON record per team under team/<id>. The cache is a read
// fallback, not a write-ahead log: nothing here is ever replayed to the
// remote.

var cachePrefix = []byte("team/")

func cacheKey(id string) []byte {
	return append(append([]byte{}, cachePrefix...), id...)
}

// OpenCache opens the badger cache at dir. An empty dir opens an
// in-memory cache, used by tests.
func OpenCache(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	return badger.Open(opts)
}

func (s *Store) cachePut(teams ...models.Team) error {
	return s.cache.Update(func(tx *badger.Txn) error {
		for _, t := range teams {
			raw, err := json.Marshal(t)
			if err != nil {
				return err
			}
			if err := tx.Set(cacheKey(t.ID), raw); err != nil {
				return err
			}
		}
		return nil
	})
}

// cacheReplaceAll swaps the snapshot wholesale after a successful remote
// read, so remote deletions propagate.
func (s *Store) cacheReplaceAll(teams []models.Team) error {
	if err := s.cacheClear(); err != nil {
		return err
	}
	return s.cachePut(teams...)
}

func (s *Store) cacheSnapshot() ([]models.Team, error) {
	teams := []models.Team{}
	err := s.cache.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = cachePrefix
		it := tx.NewIterator(opts)
		defer it.Close()
		for it.Seek(cachePrefix); it.ValidForPrefix(cachePrefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var t models.Team
				if err := json.Unmarshal(val, &t); err != nil {
					return err
				}
				teams = append(teams, t)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].RegisteredAt < teams[j].RegisteredAt })
	return teams, nil
}

func (s *Store) cacheGet(id string) (*models.Team, error) {
	var t models.Team
	err := s.cache.View(func(tx *badger.Txn) error {
		item, err := tx.Get(cacheKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) cacheDelete(id string) error {
	return s.cache.Update(func(tx *badger.Txn) error {
		return tx.Delete(cacheKey(id))
	})
}

func (s *Store) cacheClear() error {
	return s.cache.DropPrefix(cachePrefix)
}
