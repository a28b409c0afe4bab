/*
Package flatmap provides fixed-capacity maps keeping all their state in flat arrays allocated once, at construction.

The memory shape is fixed by Config: capacity is width x height slots. Nothing is allocated by insert, get,
remove or by the cursors, so the maps might be used on hot paths and where heap allocation is undesirable.

Two addressing policies are available:

  - DirectMap uses the key as the slot index, so keys must be in range [0, capacity).
  - ProbeMap starts at key mod capacity and probes linearly with wraparound, so any key fits.

Inserted keys are appended to the slot log which drives iteration, so walking the map never scans empty slots.
Remove doesn't touch the log. It leaves a stale entry behind, which is skipped by Iterator and reclaimed
by Cursor: the stale entry is overwritten by the last one and the log shrinks. Compact drains a cursor to reclaim
all of them at once.

Basic usage:

	m, err := flatmap.NewDirect[uint8, int32](flatmap.Config{Width: 8, Height: 8})
	if err != nil {
		return err
	}

	if err := m.Insert(5, 32); err != nil {
		return err
	}

	it := m.Iter()
	for it.Next() {
		fmt.Println(it.Key(), it.Value())
	}

	c := m.IterMut()
	for c.Next() {
		*c.Value() *= 2
	}

Inserting the key which exists replaces its value. Insert on the full map fails with ErrCapacityExceeded,
key outside the range of DirectMap is reported with ErrKeyOutOfRange. Absent key is not an error.

Maps are not safe for concurrent use.
*/
package flatmap
