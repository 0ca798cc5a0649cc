// Package path walks slash-separated paths through the directory
// layer, starting from the root inode for absolute paths or the
// caller's working directory otherwise.
package path

import (
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/dir"
	"github.com/aalwan09/tinyfs/inode"
	"github.com/aalwan09/tinyfs/util"
)

// skipElem strips leading slashes, splits off the next path element,
// and strips the slashes that follow it. found is false when no
// element remained.
func skipElem(path string) (rest string, name string, found bool) {
	i := 0
	for i < len(path) && path[i] == '/' {
		i++
	}
	if i == len(path) {
		return "", "", false
	}
	s := i
	for i < len(path) && path[i] != '/' {
		i++
	}
	name = path[s:i]
	for i < len(path) && path[i] == '/' {
		i++
	}
	return path[i:], name, true
}

// namex resolves path starting from root or cwd. With wantParent set it
// stops one element early and returns the parent directory plus the
// final element's name. Path elements longer than DIRSIZ are rejected
// rather than truncated.
func namex(c *inode.Cache, cwd *inode.Inode, path string, wantParent bool) (*inode.Inode, string) {
	var ip *inode.Inode
	if len(path) > 0 && path[0] == '/' {
		ip = c.Iget(common.ROOTDEV, common.ROOTINUM)
	} else {
		ip = c.Idup(cwd)
	}

	var name string
	for {
		rest, elem, found := skipElem(path)
		if !found {
			break
		}
		if uint64(len(elem)) > common.DIRSIZ {
			c.Iput(ip)
			return nil, ""
		}
		c.Ilock(ip)
		if ip.Kind != common.DIR {
			c.IunlockPut(ip)
			return nil, ""
		}
		if wantParent && rest == "" {
			c.Iunlock(ip)
			return ip, elem
		}
		next, _ := dir.LookupName(c, ip, elem)
		if next == nil {
			c.IunlockPut(ip)
			return nil, ""
		}
		c.IunlockPut(ip)
		ip = next
		path = rest
		name = elem
	}
	if wantParent {
		c.Iput(ip)
		return nil, ""
	}
	util.DPrintf(10, "namex: resolved to # %d (%s)\n", ip.Inum, name)
	return ip, name
}

// Namei resolves path to an unlocked inode reference, or nil.
func Namei(c *inode.Cache, cwd *inode.Inode, path string) *inode.Inode {
	ip, _ := namex(c, cwd, path, false)
	return ip
}

// NameiParent resolves path to the parent directory of its final
// element, returning the parent (unlocked) and the element's name.
func NameiParent(c *inode.Cache, cwd *inode.Inode, path string) (*inode.Inode, string) {
	return namex(c, cwd, path, true)
}
