// Package balloc is the block allocator: first-fit over the on-disk
// bitmap. The allocator keeps no bitmap state across calls; every call
// re-reads the superblock and the bitmap blocks it scans, so the bitmap
// on disk is the only source of truth.
package balloc

import (
	"github.com/aalwan09/tinyfs/bcache"
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/super"
	"github.com/aalwan09/tinyfs/util"
)

type Alloc struct {
	bc *bcache.Bcache
}

func MkAlloc(bc *bcache.Bcache) *Alloc {
	return &Alloc{bc: bc}
}

func (a *Alloc) zeroBlock(bn common.Bnum) {
	b := a.bc.Bread(bn)
	for i := range b.Blk {
		b.Blk[i] = 0
	}
	a.bc.Bwrite(b)
	a.bc.Brelse(b)
}

// Balloc allocates a zeroed data block and returns its number. Panics
// if the disk is out of blocks.
func (a *Alloc) Balloc(dev uint64) common.Bnum {
	sb := super.ReadSuper(a.bc)
	for b := uint64(0); b < sb.Size; b += common.NBITBLOCK {
		bp := a.bc.Bread(sb.BBlock(b))
		for bi := uint64(0); bi < common.NBITBLOCK && b+bi < sb.Size; bi++ {
			m := byte(1) << (bi % 8)
			if bp.Blk[bi/8]&m == 0 {
				bp.Blk[bi/8] |= m
				a.bc.Bwrite(bp)
				a.bc.Brelse(bp)
				a.zeroBlock(b + bi)
				util.DPrintf(5, "Balloc: %d\n", b+bi)
				return b + bi
			}
		}
		a.bc.Brelse(bp)
	}
	panic("Balloc: out of blocks")
}

// Bfree zeroes block bn on disk and clears its bitmap bit. Panics on a
// double free.
func (a *Alloc) Bfree(dev uint64, bn common.Bnum) {
	util.DPrintf(5, "Bfree: %d\n", bn)
	a.zeroBlock(bn)
	sb := super.ReadSuper(a.bc)
	bp := a.bc.Bread(sb.BBlock(bn))
	bi := bn % common.NBITBLOCK
	m := byte(1) << (bi % 8)
	if bp.Blk[bi/8]&m == 0 {
		panic("Bfree: freeing free block")
	}
	bp.Blk[bi/8] &^= m
	a.bc.Bwrite(bp)
	a.bc.Brelse(bp)
}
