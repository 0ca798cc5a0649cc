// Package inode implements the inode layer: a fixed-size cache of
// in-memory inodes with two-level locking, inode allocation, and file
// content I/O through direct and single-indirect block pointers.
//
// The cache lock is held only for short, CPU-bound updates of a slot's
// identity, reference count, and flags. The per-inode busy flag guards
// the inode's contents across operations that touch the disk; it is
// acquired by sleeping on the slot's condition variable, so a waiter
// never holds the cache lock while another holder performs I/O.
package inode

import (
	"sync"

	"github.com/aalwan09/tinyfs/balloc"
	"github.com/aalwan09/tinyfs/bcache"
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/ondisk"
	"github.com/aalwan09/tinyfs/super"
	"github.com/aalwan09/tinyfs/util"
)

// Inode is one slot of the inode cache. Dev, Inum, ref, valid, and
// busy are protected by the cache lock; the on-disk fields below them
// are protected by busy.
type Inode struct {
	Dev   uint64
	Inum  common.Inum
	ref   uint32
	valid bool
	busy  bool
	cond  *sync.Cond // signaled when busy clears

	Kind  common.Itype
	Major uint32
	Minor uint32
	Nlink uint32
	Size  uint64
	Tags  common.Bnum
	Addrs [common.NDIRECT + 1]common.Bnum
}

// Cache is the fixed-size inode cache. Bc and Ba are the layers below:
// the buffered-block cache and the block allocator.
type Cache struct {
	Bc *bcache.Bcache
	Ba *balloc.Alloc

	lock   *sync.Mutex
	inodes []*Inode
}

func MkCache(bc *bcache.Bcache, ba *balloc.Alloc) *Cache {
	lock := new(sync.Mutex)
	inodes := make([]*Inode, common.NINODE)
	for i := range inodes {
		inodes[i] = &Inode{cond: sync.NewCond(lock)}
	}
	return &Cache{
		Bc:     bc,
		Ba:     ba,
		lock:   lock,
		inodes: inodes,
	}
}

func (c *Cache) readSb() *super.FsSuper {
	return super.ReadSuper(c.Bc)
}

// Ialloc claims a free on-disk inode by writing the requested type into
// the first slot whose type is free, and returns an unlocked in-memory
// reference to it. Panics if every on-disk inode is in use.
func (c *Cache) Ialloc(dev uint64, kind common.Itype) *Inode {
	sb := c.readSb()
	for inum := common.ROOTINUM; inum < sb.NInodes; inum++ {
		bp := c.Bc.Bread(sb.InodeBlock(inum))
		off := sb.InodeOffset(inum)
		di := ondisk.DecodeDinode(bp.Blk[off : off+ondisk.DinodeSize])
		if di.Type == common.FREE {
			di = ondisk.FreeDinode()
			di.Type = kind
			copy(bp.Blk[off:off+ondisk.DinodeSize], ondisk.EncodeDinode(&di))
			c.Bc.Bwrite(bp)
			c.Bc.Brelse(bp)
			util.DPrintf(5, "Ialloc: # %d kind %d\n", inum, kind)
			return c.Iget(dev, inum)
		}
		c.Bc.Brelse(bp)
	}
	panic("Ialloc: no inodes")
}

// Iget returns the cache slot for (dev, inum), bumping its reference
// count or claiming an empty slot. It does not read the inode from
// disk; callers that need the on-disk fields must Ilock first. Panics
// if every slot is referenced.
func (c *Cache) Iget(dev uint64, inum common.Inum) *Inode {
	c.lock.Lock()

	var empty *Inode
	for _, ip := range c.inodes {
		if ip.ref > 0 && ip.Dev == dev && ip.Inum == inum {
			ip.ref++
			c.lock.Unlock()
			return ip
		}
		if ip.ref == 0 && empty == nil {
			empty = ip
		}
	}
	if empty == nil {
		c.lock.Unlock()
		panic("Iget: no slots")
	}
	ip := empty
	ip.Dev = dev
	ip.Inum = inum
	ip.ref = 1
	ip.valid = false
	ip.busy = false
	c.lock.Unlock()
	return ip
}

// Idup bumps ip's reference count and returns ip.
func (c *Cache) Idup(ip *Inode) *Inode {
	c.lock.Lock()
	ip.ref++
	c.lock.Unlock()
	return ip
}

// load reads ip's on-disk record and populates the in-memory fields.
// The caller holds busy.
func (c *Cache) load(ip *Inode) {
	sb := c.readSb()
	bp := c.Bc.Bread(sb.InodeBlock(ip.Inum))
	off := sb.InodeOffset(ip.Inum)
	di := ondisk.DecodeDinode(bp.Blk[off : off+ondisk.DinodeSize])
	c.Bc.Brelse(bp)

	ip.Kind = di.Type
	ip.Major = di.Major
	ip.Minor = di.Minor
	ip.Nlink = di.Nlink
	ip.Size = di.Size
	ip.Tags = di.Tags
	ip.Addrs = di.Addrs
	ip.valid = true
	if ip.Kind == common.FREE {
		panic("Ilock: no type")
	}
}

// Ilock acquires exclusive use of ip's contents, loading them from disk
// on first use.
func (c *Cache) Ilock(ip *Inode) {
	if ip == nil {
		panic("Ilock")
	}
	c.lock.Lock()
	if ip.ref < 1 {
		c.lock.Unlock()
		panic("Ilock: ref")
	}
	for ip.busy {
		ip.cond.Wait()
	}
	ip.busy = true
	c.lock.Unlock()

	if !ip.valid {
		c.load(ip)
	}
}

// Iunlock releases exclusive use of ip's contents and wakes waiters.
func (c *Cache) Iunlock(ip *Inode) {
	if ip == nil {
		panic("Iunlock")
	}
	c.lock.Lock()
	if !ip.busy || ip.ref < 1 {
		c.lock.Unlock()
		panic("Iunlock: not busy")
	}
	ip.busy = false
	ip.cond.Broadcast()
	c.lock.Unlock()
}

// Iupdate rewrites ip's on-disk record from the in-memory fields. The
// caller holds busy.
func (c *Cache) Iupdate(ip *Inode) {
	sb := c.readSb()
	bp := c.Bc.Bread(sb.InodeBlock(ip.Inum))
	off := sb.InodeOffset(ip.Inum)
	di := ondisk.Dinode{
		Type:  ip.Kind,
		Major: ip.Major,
		Minor: ip.Minor,
		Nlink: ip.Nlink,
		Size:  ip.Size,
		Tags:  ip.Tags,
		Addrs: ip.Addrs,
	}
	copy(bp.Blk[off:off+ondisk.DinodeSize], ondisk.EncodeDinode(&di))
	c.Bc.Bwrite(bp)
	c.Bc.Brelse(bp)
}

// Iput drops one reference to ip. If this was the last reference and
// the inode has no links left, the inode's contents are freed and its
// on-disk slot released; the truncation happens with busy held but the
// cache lock dropped, since it performs disk I/O.
func (c *Cache) Iput(ip *Inode) {
	c.lock.Lock()
	if ip.ref == 1 && ip.valid && ip.Nlink == 0 {
		if ip.busy {
			panic("Iput: busy")
		}
		ip.busy = true
		c.lock.Unlock()

		c.Itrunc(ip)
		ip.Kind = common.FREE
		c.Iupdate(ip)

		c.lock.Lock()
		ip.valid = false
		ip.busy = false
		ip.cond.Broadcast()
	}
	ip.ref--
	c.lock.Unlock()
}

// IunlockPut unlocks ip, then drops the reference.
func (c *Cache) IunlockPut(ip *Inode) {
	c.Iunlock(ip)
	c.Iput(ip)
}
