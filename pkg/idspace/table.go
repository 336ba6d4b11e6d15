package idspace

import "math"

// emptyKey marks an unused bucket. synthetic barrier ids start one above
// math.MinInt64, so no real or synthetic id ever collides with it.
const emptyKey int64 = math.MinInt64

// arenaTable is an open-addressed map from external 64-bit ids to dense
// int32 slots. it only ever grows; at the scale of hundreds of millions of
// point references a generic map of boxed values costs several times the
// memory of this flat layout.
type arenaTable struct {
	keys    []int64
	slots   []int32
	size    int
	maxLoad float64
}

func newArenaTable(initialCap int) *arenaTable {
	capacity := 16
	for capacity < initialCap {
		capacity <<= 1
	}
	t := &arenaTable{
		keys:    make([]int64, capacity),
		slots:   make([]int32, capacity),
		maxLoad: 0.65,
	}
	for i := range t.keys {
		t.keys[i] = emptyKey
	}
	return t
}

func hashID(key int64) uint64 {
	h := uint64(key)
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// lookup returns the dense slot of key, or -1 when absent.
func (t *arenaTable) lookup(key int64) int32 {
	mask := uint64(len(t.keys) - 1)
	idx := hashID(key) & mask
	for {
		k := t.keys[idx]
		if k == emptyKey {
			return -1
		}
		if k == key {
			return t.slots[idx]
		}
		idx = (idx + 1) & mask
	}
}

// insert maps key to slot. key must not be present yet.
func (t *arenaTable) insert(key int64, slot int32) {
	if float64(t.size+1) > t.maxLoad*float64(len(t.keys)) {
		t.grow()
	}
	t.insertNoGrow(key, slot)
	t.size++
}

func (t *arenaTable) insertNoGrow(key int64, slot int32) {
	mask := uint64(len(t.keys) - 1)
	idx := hashID(key) & mask
	for t.keys[idx] != emptyKey {
		idx = (idx + 1) & mask
	}
	t.keys[idx] = key
	t.slots[idx] = slot
}

func (t *arenaTable) grow() {
	oldKeys, oldSlots := t.keys, t.slots
	t.keys = make([]int64, len(oldKeys)*2)
	t.slots = make([]int32, len(oldSlots)*2)
	for i := range t.keys {
		t.keys[i] = emptyKey
	}
	for i, k := range oldKeys {
		if k != emptyKey {
			t.insertNoGrow(k, oldSlots[i])
		}
	}
}

func (t *arenaTable) len() int {
	return t.size
}
