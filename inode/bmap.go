package inode

import (
	"github.com/tchajed/marshal"

	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/util"
)

// Bmap returns the physical block holding ip's logical block bn,
// allocating the data block (and the indirect block, if needed) on
// first use. The caller holds busy.
func (c *Cache) Bmap(ip *Inode, bn uint64) common.Bnum {
	if bn < common.NDIRECT {
		addr := ip.Addrs[bn]
		if addr == common.NULLBNUM {
			addr = c.Ba.Balloc(ip.Dev)
			ip.Addrs[bn] = addr
		}
		return addr
	}
	bn -= common.NDIRECT
	if bn < common.NINDIRECT {
		iaddr := ip.Addrs[common.NDIRECT]
		if iaddr == common.NULLBNUM {
			iaddr = c.Ba.Balloc(ip.Dev)
			ip.Addrs[common.NDIRECT] = iaddr
		}
		bp := c.Bc.Bread(iaddr)
		dec := marshal.NewDec(bp.Blk)
		addrs := dec.GetInts(common.NINDIRECT)
		addr := addrs[bn]
		if addr == common.NULLBNUM {
			addr = c.Ba.Balloc(ip.Dev)
			addrs[bn] = addr
			enc := marshal.NewEnc(common.BlockSize)
			enc.PutInts(addrs)
			copy(bp.Blk, enc.Finish())
			c.Bc.Bwrite(bp)
		}
		c.Bc.Brelse(bp)
		return addr
	}
	panic("Bmap: out of range")
}

// Readi reads up to n bytes from ip at byte offset off into dst,
// returning the count read. Device inodes dispatch to the device
// switch. The caller holds busy.
func (c *Cache) Readi(ip *Inode, dst []byte, off uint64, n uint64) (uint64, bool) {
	if ip.Kind == common.DEV {
		d := lookupDev(ip.Major)
		if d == nil || d.Read == nil {
			return 0, false
		}
		return d.Read(ip, dst[:util.Min(n, uint64(len(dst)))])
	}
	if off > ip.Size || off+n < off {
		return 0, false
	}
	if off+n > ip.Size {
		n = ip.Size - off
	}
	for tot := uint64(0); tot < n; {
		bp := c.Bc.Bread(c.Bmap(ip, off/common.BlockSize))
		m := util.Min(n-tot, common.BlockSize-off%common.BlockSize)
		copy(dst[tot:tot+m], bp.Blk[off%common.BlockSize:off%common.BlockSize+m])
		c.Bc.Brelse(bp)
		tot += m
		off += m
	}
	return n, true
}

// Writei writes n bytes from src to ip at byte offset off, returning
// the count written. Writing past the current size grows the file up
// to the maximum; writing at off > size fails. The caller holds busy.
func (c *Cache) Writei(ip *Inode, src []byte, off uint64, n uint64) (uint64, bool) {
	if ip.Kind == common.DEV {
		d := lookupDev(ip.Major)
		if d == nil || d.Write == nil {
			return 0, false
		}
		return d.Write(ip, src[:util.Min(n, uint64(len(src)))])
	}
	if off > ip.Size || off+n < off {
		return 0, false
	}
	if off+n > common.MAXFILE*common.BlockSize {
		n = common.MAXFILE*common.BlockSize - off
	}
	for tot := uint64(0); tot < n; {
		bp := c.Bc.Bread(c.Bmap(ip, off/common.BlockSize))
		m := util.Min(n-tot, common.BlockSize-off%common.BlockSize)
		copy(bp.Blk[off%common.BlockSize:off%common.BlockSize+m], src[tot:tot+m])
		c.Bc.Bwrite(bp)
		c.Bc.Brelse(bp)
		tot += m
		off += m
	}
	if n > 0 && off > ip.Size {
		ip.Size = off
		c.Iupdate(ip)
	}
	return n, true
}

// Itrunc frees everything ip owns: direct blocks, the indirect block
// and the blocks it lists, and the tag block. The caller holds busy.
func (c *Cache) Itrunc(ip *Inode) {
	for i := uint64(0); i < common.NDIRECT; i++ {
		if ip.Addrs[i] != common.NULLBNUM {
			c.Ba.Bfree(ip.Dev, ip.Addrs[i])
			ip.Addrs[i] = common.NULLBNUM
		}
	}
	if ip.Addrs[common.NDIRECT] != common.NULLBNUM {
		bp := c.Bc.Bread(ip.Addrs[common.NDIRECT])
		dec := marshal.NewDec(bp.Blk)
		addrs := dec.GetInts(common.NINDIRECT)
		c.Bc.Brelse(bp)
		for _, a := range addrs {
			if a != common.NULLBNUM {
				c.Ba.Bfree(ip.Dev, a)
			}
		}
		c.Ba.Bfree(ip.Dev, ip.Addrs[common.NDIRECT])
		ip.Addrs[common.NDIRECT] = common.NULLBNUM
	}
	if ip.Tags != common.NULLBNUM {
		c.Ba.Bfree(ip.Dev, ip.Tags)
		ip.Tags = common.NULLBNUM
	}
	ip.Size = 0
	c.Iupdate(ip)
}
