// Package super describes the on-disk layout: block 0 is reserved for
// boot, block 1 holds the superblock, inode blocks follow, then the
// allocation bitmap, then data blocks. The superblock records the two
// quantities everything else is derived from — the total block count
// and the inode count — and is read on demand, never mutated.
package super

import (
	"github.com/tchajed/marshal"

	"github.com/aalwan09/tinyfs/bcache"
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/ondisk"
	"github.com/aalwan09/tinyfs/util"
)

const MAGIC uint32 = 0x74667331 // "tfs1"

const SUPERBLK common.Bnum = 1

type FsSuper struct {
	Size    uint64 // total blocks on the device
	NInodes uint64
}

func MkFsSuper(sz uint64, ninodes uint64) *FsSuper {
	return &FsSuper{Size: sz, NInodes: ninodes}
}

// NInodeBlk is the number of blocks holding packed inodes.
func (sb *FsSuper) NInodeBlk() uint64 {
	return util.RoundUp(sb.NInodes, ondisk.IPB)
}

func (sb *FsSuper) NBitmapBlk() uint64 {
	return util.RoundUp(sb.Size, common.NBITBLOCK)
}

func (sb *FsSuper) InodeStart() common.Bnum {
	return SUPERBLK + 1
}

func (sb *FsSuper) BitmapStart() common.Bnum {
	return sb.InodeStart() + sb.NInodeBlk()
}

func (sb *FsSuper) DataStart() common.Bnum {
	return sb.BitmapStart() + sb.NBitmapBlk()
}

// BBlock returns the bitmap block covering block b.
func (sb *FsSuper) BBlock(b common.Bnum) common.Bnum {
	return sb.BitmapStart() + b/common.NBITBLOCK
}

// InodeBlock returns the block holding inode inum.
func (sb *FsSuper) InodeBlock(inum common.Inum) common.Bnum {
	return sb.InodeStart() + inum/ondisk.IPB
}

// InodeOffset returns inum's byte offset within its inode block.
func (sb *FsSuper) InodeOffset(inum common.Inum) uint64 {
	return (inum % ondisk.IPB) * ondisk.DinodeSize
}

func (sb *FsSuper) Encode() []byte {
	enc := marshal.NewEnc(common.BlockSize)
	enc.PutInt32(MAGIC)
	enc.PutInt(sb.Size)
	enc.PutInt(sb.NInodes)
	return enc.Finish()
}

func Decode(blk []byte) *FsSuper {
	dec := marshal.NewDec(blk)
	magic := dec.GetInt32()
	if magic != MAGIC {
		panic("super: bad magic")
	}
	return &FsSuper{
		Size:    dec.GetInt(),
		NInodes: dec.GetInt(),
	}
}

// ReadSuper reads the superblock through the buffered-block layer.
func ReadSuper(bc *bcache.Bcache) *FsSuper {
	b := bc.Bread(SUPERBLK)
	sb := Decode(b.Blk)
	bc.Brelse(b)
	return sb
}

// WriteSuper persists the superblock; only mkfs calls this.
func (sb *FsSuper) WriteSuper(bc *bcache.Bcache) {
	b := bc.Bread(SUPERBLK)
	copy(b.Blk, sb.Encode())
	bc.Bwrite(b)
	bc.Brelse(b)
}
