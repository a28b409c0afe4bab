package flatmap

import "iter"

// Iterator walks the slot log and returns live entries. Stale entries are skipped.
// Iterator is single-pass. It must not be used while the map is modified.
type Iterator[K Key, V any] struct {
	log   *slotLog[K]
	r     resolver[K, V]
	pos   int
	key   K
	value *V
}

// Next moves the iterator to the next live entry. Next returns false when the iterator is complete.
func (it *Iterator[K, V]) Next() bool {
	if it.log == nil {
		return false
	}
	for it.pos < it.log.n {
		k := it.log.at(it.pos)
		it.pos++
		if v := it.r.resolve(k); v != nil {
			it.key = k
			it.value = v
			return true
		}
	}

	var k K
	it.key = k
	it.value = nil
	return false
}

// Key returns the key of the current entry.
func (it *Iterator[K, V]) Key() K {
	return it.key
}

// Value returns the value of the current entry.
func (it *Iterator[K, V]) Value() V {
	if it.value == nil {
		var v V
		return v
	}
	return *it.value
}

// All returns the rest of the iterator as a sequence usable in range loop.
func (it *Iterator[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for it.Next() {
			if !yield(it.key, *it.value) {
				return
			}
		}
	}
}

// Cursor walks the slot log and returns live entries for modification.
//
// Stale entry met on the way is reclaimed: its slot is released and the last log entry is moved into its
// position, which is then examined again. Because of that the slot log is reordered and its length shrinks.
// Cursor requires exclusive access to the map for its entire lifetime.
type Cursor[K Key, V any] struct {
	log   *slotLog[K]
	r     resolver[K, V]
	pos   int
	key   K
	value *V
}

// Next moves the cursor to the next live entry. Next returns false when the cursor is complete.
func (c *Cursor[K, V]) Next() bool {
	if c.log == nil {
		return false
	}
	// Length of the log is read on every step because reclaiming shrinks it.
	for c.pos < c.log.n {
		k := c.log.at(c.pos)
		if v := c.r.resolve(k); v != nil {
			c.pos++
			c.key = k
			c.value = v
			return true
		}

		c.r.release(k)
		c.log.swapRemove(c.pos)
	}

	var k K
	c.key = k
	c.value = nil
	return false
}

// Key returns the key of the current entry.
func (c *Cursor[K, V]) Key() K {
	return c.key
}

// Value returns pointer to the value of the current entry. It must not be used after calling Next again.
func (c *Cursor[K, V]) Value() *V {
	return c.value
}

// All returns live entries of the map as a sequence usable in range loop.
func (b *base[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		it := b.Iter()
		for it.Next() {
			if !yield(it.key, *it.value) {
				return
			}
		}
	}
}
