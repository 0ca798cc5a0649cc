// Package dir interprets a directory inode's contents as a sequence of
// fixed-size name to inode-number entries. All functions expect the
// directory inode locked by the caller.
package dir

import (
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/inode"
	"github.com/aalwan09/tinyfs/ondisk"
	"github.com/aalwan09/tinyfs/util"
)

// NameCmp compares two names over at most DIRSIZ bytes.
func NameCmp(a string, b string) bool {
	if uint64(len(a)) > common.DIRSIZ {
		a = a[:common.DIRSIZ]
	}
	if uint64(len(b)) > common.DIRSIZ {
		b = b[:common.DIRSIZ]
	}
	return a == b
}

func readEnt(c *inode.Cache, dp *inode.Inode, off uint64) ondisk.Dirent {
	data := make([]byte, ondisk.DirentSize)
	n, ok := c.Readi(dp, data, off, ondisk.DirentSize)
	if !ok || n != ondisk.DirentSize {
		panic("dir: read")
	}
	return ondisk.DecodeDirent(data)
}

// LookupName scans dp for name and returns an unlocked reference to the
// entry's inode plus the entry's byte offset, or nil on a miss. Panics
// if dp is not a directory.
func LookupName(c *inode.Cache, dp *inode.Inode, name string) (*inode.Inode, uint64) {
	if dp.Kind != common.DIR {
		panic("LookupName: not a directory")
	}
	for off := uint64(0); off < dp.Size; off += ondisk.DirentSize {
		de := readEnt(c, dp, off)
		if de.Inum == common.NULLINUM {
			continue
		}
		if NameCmp(de.Name, name) {
			util.DPrintf(5, "LookupName # %d: %s -> %d\n", dp.Inum, name, de.Inum)
			return c.Iget(dp.Dev, de.Inum), off
		}
	}
	return nil, 0
}

// AddName writes a (name, inum) entry into dp, reusing the first free
// slot or extending the directory. Fails if name is already present.
func AddName(c *inode.Cache, dp *inode.Inode, name string, inum common.Inum) bool {
	if ip, _ := LookupName(c, dp, name); ip != nil {
		c.Iput(ip)
		return false
	}

	var off uint64
	for off = 0; off < dp.Size; off += ondisk.DirentSize {
		de := readEnt(c, dp, off)
		if de.Inum == common.NULLINUM {
			break
		}
	}
	de := ondisk.Dirent{Inum: inum, Name: name}
	n, ok := c.Writei(dp, ondisk.EncodeDirent(&de), off, ondisk.DirentSize)
	if !ok || n != ondisk.DirentSize {
		panic("AddName: write")
	}
	util.DPrintf(5, "AddName # %d: %s -> %d off %d\n", dp.Inum, name, inum, off)
	return true
}

// RemName zeroes the entry at off, freeing the slot.
func RemName(c *inode.Cache, dp *inode.Inode, off uint64) {
	de := ondisk.Dirent{}
	n, ok := c.Writei(dp, ondisk.EncodeDirent(&de), off, ondisk.DirentSize)
	if !ok || n != ondisk.DirentSize {
		panic("RemName: write")
	}
}

// IsDirEmpty reports whether dp holds nothing beyond "." and "..".
func IsDirEmpty(c *inode.Cache, dp *inode.Inode) bool {
	for off := 2 * ondisk.DirentSize; off < dp.Size; off += ondisk.DirentSize {
		de := readEnt(c, dp, off)
		if de.Inum != common.NULLINUM {
			return false
		}
	}
	return true
}
