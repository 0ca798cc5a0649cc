// Package tag implements the per-file key-value tag store: a single
// lazily allocated block of fixed-size records attached to a regular
// file's inode. Callers pass an open-file handle; the inode is locked
// here, not by the caller.
package tag

import (
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/inode"
	"github.com/aalwan09/tinyfs/ondisk"
	"github.com/aalwan09/tinyfs/proc"
	"github.com/aalwan09/tinyfs/util"
)

func keyOk(key string) bool {
	if len(key) < 1 || uint64(len(key)) > common.TAGMAXKEYLEN {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] == 0 {
			return false
		}
	}
	return true
}

// findRec scans the tag block for key, returning the record index or
// the first free index when absent.
func findRec(blk []byte, key string) (rec int, free int) {
	rec, free = -1, -1
	for i := uint64(0); i < common.NTAGREC; i++ {
		off := i * common.TAGRECSZ
		r := ondisk.DecodeTagRecord(blk[off : off+common.TAGRECSZ])
		if r.Free() {
			if free < 0 {
				free = int(i)
			}
			continue
		}
		if r.Key == key {
			rec = int(i)
			return rec, free
		}
	}
	return rec, free
}

// TagFile sets key to value on f's inode, overwriting an existing
// record or claiming a free one. Returns 1 on success, -1 on failure.
func TagFile(c *inode.Cache, f *proc.File, key string, value []byte) int {
	if f == nil || f.Kind != proc.FD_INODE || !f.Writable {
		return -1
	}
	if !keyOk(key) || uint64(len(value)) > common.TAGVALSZ {
		return -1
	}
	ip := f.Ip
	c.Ilock(ip)
	if ip.Tags == common.NULLBNUM {
		ip.Tags = c.Ba.Balloc(ip.Dev)
		c.Iupdate(ip)
	}
	bp := c.Bc.Bread(ip.Tags)
	rec, free := findRec(bp.Blk, key)
	if rec < 0 {
		rec = free
	}
	if rec < 0 {
		c.Bc.Brelse(bp)
		c.Iunlock(ip)
		return -1
	}
	ondisk.EncodeRecordInto(bp.Blk, uint64(rec), ondisk.TagRecord{Key: key, Value: value})
	c.Bc.Bwrite(bp)
	c.Bc.Brelse(bp)
	c.Iunlock(ip)
	util.DPrintf(5, "TagFile # %d: %s (%d bytes)\n", ip.Inum, key, len(value))
	return 1
}

// RemoveFileTag deletes key from f's inode's tag block. Returns 1 on
// success, -1 if the file has no tags or the key is absent.
func RemoveFileTag(c *inode.Cache, f *proc.File, key string) int {
	if f == nil || f.Kind != proc.FD_INODE || !f.Writable {
		return -1
	}
	if !keyOk(key) {
		return -1
	}
	ip := f.Ip
	c.Ilock(ip)
	if ip.Tags == common.NULLBNUM {
		c.Iunlock(ip)
		return -1
	}
	bp := c.Bc.Bread(ip.Tags)
	rec, _ := findRec(bp.Blk, key)
	if rec < 0 {
		c.Bc.Brelse(bp)
		c.Iunlock(ip)
		return -1
	}
	// marking the record free only needs its first key byte cleared
	bp.Blk[uint64(rec)*common.TAGRECSZ] = 0
	c.Bc.Bwrite(bp)
	c.Bc.Brelse(bp)
	c.Iunlock(ip)
	return 1
}

// GetFileTag copies key's value into buf, truncating to len(buf), and
// returns the stored length. A return larger than len(buf) tells the
// caller to retry with a bigger buffer. Returns -1 on absent key.
func GetFileTag(c *inode.Cache, f *proc.File, key string, buf []byte) int {
	if f == nil || f.Kind != proc.FD_INODE || !f.Readable {
		return -1
	}
	if !keyOk(key) {
		return -1
	}
	ip := f.Ip
	c.Ilock(ip)
	if ip.Tags == common.NULLBNUM {
		c.Iunlock(ip)
		return -1
	}
	bp := c.Bc.Bread(ip.Tags)
	rec, _ := findRec(bp.Blk, key)
	if rec < 0 {
		c.Bc.Brelse(bp)
		c.Iunlock(ip)
		return -1
	}
	off := uint64(rec) * common.TAGRECSZ
	r := ondisk.DecodeTagRecord(bp.Blk[off : off+common.TAGRECSZ])
	c.Bc.Brelse(bp)
	c.Iunlock(ip)
	copy(buf, r.Value)
	return len(r.Value)
}
