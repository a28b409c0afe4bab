package snapshot

import (
	"github.com/outofforest/flatmap"
	"github.com/outofforest/flatmap/persistence"
)

// Save encodes layout and commits it to the store.
func Save[K flatmap.Key, V comparable](s *persistence.Store, l flatmap.Layout[K, V], c Compression) error {
	b, err := Encode(l, c)
	if err != nil {
		return err
	}
	return s.Commit(b)
}

// Load decodes layout committed to the store.
func Load[K flatmap.Key, V comparable](s *persistence.Store) (flatmap.Layout[K, V], error) {
	b, err := s.Load()
	if err != nil {
		return flatmap.Layout[K, V]{}, err
	}
	return Decode[K, V](b)
}

// LoadMap restores the map committed to the store.
func LoadMap[K flatmap.Key, V comparable](s *persistence.Store) (flatmap.Map[K, V], error) {
	l, err := Load[K, V](s)
	if err != nil {
		return nil, err
	}
	return flatmap.Restore(l)
}
