package kernel

import (
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/dir"
	"github.com/aalwan09/tinyfs/ondisk"
	"github.com/aalwan09/tinyfs/super"
)

// mkfs lays out a fresh image: superblock, zeroed inode blocks, the
// allocation bitmap with all metadata blocks marked in use, and a root
// directory holding "." and "..", both pointing at the root itself.
func (fs *FS) mkfs(cfg Config) {
	sb := super.MkFsSuper(cfg.Size, cfg.NInodes)
	if sb.DataStart() >= cfg.Size {
		panic("mkfs: too small")
	}
	if cfg.NInodes >= 1<<16 {
		// directory entries store 16-bit inode numbers
		panic("mkfs: too many inodes")
	}

	for bn := sb.InodeStart(); bn < sb.DataStart(); bn++ {
		b := fs.Bc.Bread(bn)
		for i := range b.Blk {
			b.Blk[i] = 0
		}
		fs.Bc.Bwrite(b)
		fs.Bc.Brelse(b)
	}
	sb.WriteSuper(fs.Bc)

	for bn := common.Bnum(0); bn < sb.DataStart(); bn++ {
		bp := fs.Bc.Bread(sb.BBlock(bn))
		bi := bn % common.NBITBLOCK
		bp.Blk[bi/8] |= 1 << (bi % 8)
		fs.Bc.Bwrite(bp)
		fs.Bc.Brelse(bp)
	}

	rootDi := ondisk.FreeDinode()
	rootDi.Type = common.DIR
	rootDi.Nlink = 1
	bp := fs.Bc.Bread(sb.InodeBlock(common.ROOTINUM))
	off := sb.InodeOffset(common.ROOTINUM)
	copy(bp.Blk[off:off+ondisk.DinodeSize], ondisk.EncodeDinode(&rootDi))
	fs.Bc.Bwrite(bp)
	fs.Bc.Brelse(bp)

	root := fs.Ic.Iget(common.ROOTDEV, common.ROOTINUM)
	fs.Ic.Ilock(root)
	if !dir.AddName(fs.Ic, root, ".", common.ROOTINUM) ||
		!dir.AddName(fs.Ic, root, "..", common.ROOTINUM) {
		panic("mkfs: root entries")
	}
	fs.Ic.IunlockPut(root)
	fs.Bc.Barrier()
}
