// Package bcache is the buffered-block layer: a write-through cache of
// disk blocks with per-block locking. Bread returns a locked buffer
// whose bytes the holder may read or mutate; Bwrite persists the bytes
// while the buffer is still held; Brelse unlocks the buffer and drops
// the cache reference. The per-buffer lock serializes all I/O on one
// block.
package bcache

import (
	"github.com/tchajed/goose/machine/disk"

	"github.com/aalwan09/tinyfs/cache"
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/util"
)

// Buf is a locked, resident disk block. Blk aliases the cached bytes,
// so mutations become visible to later readers once written back with
// Bwrite.
type Buf struct {
	Blkno common.Bnum
	Blk   disk.Block
	slot  *cache.Cslot
}

type Bcache struct {
	d      disk.Disk
	bcache *cache.Cache
}

func MkBcache(d disk.Disk, sz uint64) *Bcache {
	return &Bcache{
		d:      d,
		bcache: cache.MkCache(sz),
	}
}

// Bread returns the buffer for block bn, locked. The caller owns the
// buffer's bytes until Brelse.
func (bc *Bcache) Bread(bn common.Bnum) *Buf {
	cslot := bc.bcache.LookupSlot(bn)
	if cslot == nil {
		panic("Bread: no buffers")
	}
	cslot.Lock()
	if cslot.Obj == nil {
		cslot.Obj = bc.d.Read(bn)
	}
	blk := cslot.Obj.(disk.Block)
	util.DPrintf(15, "Bread %d\n", bn)
	return &Buf{Blkno: bn, Blk: blk, slot: cslot}
}

// Bwrite writes the buffer's bytes through to disk. The caller must
// still hold the buffer.
func (bc *Bcache) Bwrite(b *Buf) {
	if b == nil || b.slot == nil {
		panic("Bwrite")
	}
	util.DPrintf(15, "Bwrite %d\n", b.Blkno)
	bc.d.Write(b.Blkno, b.Blk)
}

// Brelse unlocks the buffer and releases the cache reference. The
// buffer must not be used afterwards.
func (bc *Bcache) Brelse(b *Buf) {
	if b == nil || b.slot == nil {
		panic("Brelse")
	}
	slot := b.slot
	b.slot = nil
	slot.Unlock()
	bc.bcache.FreeSlot(b.Blkno)
}

func (bc *Bcache) Barrier() {
	bc.d.Barrier()
}

func (bc *Bcache) Size() uint64 {
	return bc.d.Size()
}
