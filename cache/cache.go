// Package cache implements a fixed-size, reference-counted table of
// slots guarded by one short-held lock. A lookup bumps the slot's
// reference count and returns immediately without touching the slot's
// own lock: identity lookups never block on another holder's disk I/O.
// Acquiring the per-slot lock (Cslot.Lock) is the separate, sleepable
// step — the buffered-block layer uses it to serialize access to one
// resident block across a read-modify-write.
package cache

import (
	"sync"

	"github.com/aalwan09/tinyfs/util"
)

// Cslot is one cache slot. Obj is nil until a caller fills it in while
// holding the slot's lock.
type Cslot struct {
	mu  *sync.Mutex
	Obj interface{}
}

func (slot *Cslot) Lock() {
	slot.mu.Lock()
}

func (slot *Cslot) Unlock() {
	slot.mu.Unlock()
}

type entry struct {
	ref  uint32
	slot Cslot
}

// Cache is a fixed-size map from uint64 identity (a block number) to a
// Cslot. At most one slot exists per identity at a time; a slot with
// ref==0 is eligible for eviction to make room for a different
// identity.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64]*entry
	sz      uint64
	cnt     uint64
}

func MkCache(sz uint64) *Cache {
	return &Cache{
		entries: make(map[uint64]*entry, sz),
		sz:      sz,
	}
}

func (c *Cache) printCache() {
	for k, v := range c.entries {
		util.DPrintf(0, "cache entry %v: ref %v\n", k, v.ref)
	}
}

// evict drops one ref==0 entry to make room, reporting whether it found
// one.
func (c *Cache) evict() bool {
	for id, e := range c.entries {
		if e.ref == 0 {
			delete(c.entries, id)
			c.cnt--
			return true
		}
	}
	return false
}

// LookupSlot returns the slot for id, creating an empty one if id is
// not cached and space is available. Returns nil if the cache is full
// and every resident slot is still referenced — callers treat this as
// resource exhaustion and panic.
func (c *Cache) LookupSlot(id uint64) *Cslot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e := c.entries[id]; e != nil {
		e.ref++
		return &e.slot
	}
	if c.cnt >= c.sz {
		if !c.evict() {
			c.printCache()
			return nil
		}
	}
	e := &entry{ref: 1, slot: Cslot{mu: new(sync.Mutex)}}
	c.entries[id] = e
	c.cnt++
	return &e.slot
}

// FreeSlot decrements id's reference count, making the slot eligible
// for eviction once it reaches 0.
func (c *Cache) FreeSlot(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[id]
	util.Assert(e != nil, "FreeSlot: unknown id")
	e.ref--
}
