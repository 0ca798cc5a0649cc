// Package ondisk implements the on-disk encodings: the packed inode
// (dinode), directory entries, and tag records. Nothing here touches
// the disk or the inode cache; callers hand it raw block bytes read or
// about to be written through the buffered-block layer.
package ondisk

import (
	"github.com/tchajed/marshal"

	"github.com/aalwan09/tinyfs/common"
)

// DinodeSize is the packed, on-disk size of one inode record. Layout:
// type(4) major(4) minor(4) nlink(4) size(8) tags(8) addrs[NDIRECT+1](8 each).
const DinodeSize uint64 = 4 + 4 + 4 + 4 + 8 + 8 + (common.NDIRECT+1)*8

// IPB is inodes per inode block.
const IPB uint64 = common.BlockSize / DinodeSize

// Dinode is the on-disk inode record.
type Dinode struct {
	Type  common.Itype
	Major uint32
	Minor uint32
	Nlink uint32
	Size  uint64
	Tags  common.Bnum // 0 if no tags have ever been set
	Addrs [common.NDIRECT + 1]common.Bnum
}

// FreeDinode returns the all-zero record written into a freed inode
// slot; Ialloc scans for Type==FREE.
func FreeDinode() Dinode {
	return Dinode{}
}

func EncodeDinode(di *Dinode) []byte {
	enc := marshal.NewEnc(DinodeSize)
	enc.PutInt32(uint32(di.Type))
	enc.PutInt32(di.Major)
	enc.PutInt32(di.Minor)
	enc.PutInt32(di.Nlink)
	enc.PutInt(di.Size)
	enc.PutInt(di.Tags)
	enc.PutInts(di.Addrs[:])
	return enc.Finish()
}

func DecodeDinode(data []byte) Dinode {
	dec := marshal.NewDec(data)
	var di Dinode
	di.Type = common.Itype(dec.GetInt32())
	di.Major = dec.GetInt32()
	di.Minor = dec.GetInt32()
	di.Nlink = dec.GetInt32()
	di.Size = dec.GetInt()
	di.Tags = dec.GetInt()
	addrs := dec.GetInts(common.NDIRECT + 1)
	copy(di.Addrs[:], addrs)
	return di
}
