package value

// Table is an open-addressed hash table keyed by interned *ObjString
// identity, used both for the VM's global-variable store and for the
// string-intern set itself (spec.md §3/§4.D).
//
// Every slot is in one of three states:
//
//	Empty:     key == nil, value is Nil
//	Tombstone: key == nil, value is Bool(true)
//	Occupied:  key != nil
//
// Load factor is capped at 0.75: inserting would push count+1 over
// capacity*0.75 triggers a rehash to max(8, capacity*2) first. count
// includes tombstones for the load-factor check, but a rehash recomputes
// it to occupied-only (tombstones are dropped, not rehashed).
type Table struct {
	entries  []entry
	count    int // occupied + tombstones, for the load-factor check
	occupied int // occupied only
}

type entry struct {
	key   *ObjString
	value Value
}

const tableMaxLoad = 0.75
const initialCapacity = 8

func (e entry) isEmpty() bool     { return e.key == nil && e.value.IsNil() }
func (e entry) isTombstone() bool { return e.key == nil && !e.value.IsNil() }

func tombstone() entry { return entry{key: nil, value: Bool(true)} }

// findEntry runs linear probing starting at hash(key) mod capacity. The
// first tombstone seen is remembered; if the probe then hits a genuine
// empty slot, it returns the remembered tombstone (so inserts reuse
// tombstone slots) unless no tombstone was seen, in which case it returns
// the empty slot itself. A matching occupied key returns immediately.
//
// Because capacity is always a power of two >= 8 and the load factor is
// kept <= 0.75 before every insert, the table is never full and this
// loop always terminates.
func findEntry(entries []entry, key *ObjString) *entry {
	capacity := len(entries)
	index := int(key.Hash) % capacity
	var tombstoneSlot *entry

	for {
		e := &entries[index]
		if e.key == nil {
			if e.isEmpty() {
				if tombstoneSlot != nil {
					return tombstoneSlot
				}
				return e
			}
			// Tombstone.
			if tombstoneSlot == nil {
				tombstoneSlot = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) % capacity
	}
}

func (t *Table) adjustCapacity(capacity int) {
	newEntries := make([]entry, capacity)

	t.occupied = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.key == nil {
			continue
		}
		dest := findEntry(newEntries, old.key)
		dest.key = old.key
		dest.value = old.value
		t.occupied++
	}

	t.entries = newEntries
	t.count = t.occupied
}

// Get looks up key and reports whether it was present.
func (t *Table) Get(key *ObjString) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set inserts or overwrites key's value, growing the table first if the
// load factor would exceed 0.75. Reports whether key was new, whether it
// lands on an empty slot or reuses a tombstone. Only a genuinely empty
// slot increments count, so count reflects occupied + tombstone slots for
// load-factor purposes (spec.md §4.D).
func (t *Table) Set(key *ObjString, v Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		capacity := initialCapacity
		if len(t.entries) > 0 {
			capacity = len(t.entries) * 2
		}
		t.adjustCapacity(capacity)
	}

	e := findEntry(t.entries, key)
	isNewKey := e.key == nil
	if isNewKey && e.isEmpty() {
		t.count++
	}
	if isNewKey {
		t.occupied++
	}

	e.key = key
	e.value = v
	return isNewKey
}

// Delete removes key, leaving a tombstone in its slot so later probes
// that skipped over it still find keys that were inserted after it.
// Reports whether key was present.
func (t *Table) Delete(key *ObjString) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	*e = tombstone()
	t.occupied--
	return true
}

// AddAll copies every occupied entry of src into dst, overwriting any
// value dst already holds for the same key.
func AddAll(src, dst *Table) {
	for i := range src.entries {
		e := &src.entries[i]
		if e.key != nil {
			dst.Set(e.key, e.value)
		}
	}
}

// FindString is the intern-lookup primitive: given raw bytes and their
// precomputed hash, it probes the table the same way findEntry does but
// -- because no *ObjString key exists yet to compare by identity -- it
// compares candidate entries by length, hash, and byte content. This is
// the only place in the table that does byte-wise string comparison.
func (t *Table) FindString(s string, hash uint32) *ObjString {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := len(t.entries)
	index := int(hash) % capacity

	for {
		e := &t.entries[index]
		if e.key == nil {
			if e.isEmpty() {
				return nil
			}
			// Tombstone: keep probing.
		} else if e.key.Hash == hash && len(e.key.Chars) == len(s) && e.key.Chars == s {
			return e.key
		}
		index = (index + 1) % capacity
	}
}

// Count reports the number of live (non-tombstone) entries.
func (t *Table) Count() int { return t.occupied }

// Capacity reports the table's current backing-array size.
func (t *Table) Capacity() int { return len(t.entries) }
