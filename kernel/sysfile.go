package kernel

import (
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/dir"
	"github.com/aalwan09/tinyfs/inode"
	"github.com/aalwan09/tinyfs/path"
	"github.com/aalwan09/tinyfs/proc"
	"github.com/aalwan09/tinyfs/util"
)

// create resolves pn's parent and makes a new inode of the given kind
// in it, returning the new inode locked. Opening an existing regular
// file with kind FILE returns that inode instead. The fresh child is
// locked while the parent is still held; a newly allocated inode has
// no other holders, so the nested hold cannot deadlock.
func (fs *FS) create(p *proc.Process, pn string, kind common.Itype, major uint32, minor uint32) *inode.Inode {
	dp, name := path.NameiParent(fs.Ic, p.Cwd, pn)
	if dp == nil {
		return nil
	}
	fs.Ic.Ilock(dp)

	if ip, _ := dir.LookupName(fs.Ic, dp, name); ip != nil {
		fs.Ic.IunlockPut(dp)
		fs.Ic.Ilock(ip)
		if kind == common.FILE && ip.Kind == common.FILE {
			return ip
		}
		fs.Ic.IunlockPut(ip)
		return nil
	}

	ip := fs.Ic.Ialloc(dp.Dev, kind)
	fs.Ic.Ilock(ip)
	ip.Major = major
	ip.Minor = minor
	ip.Nlink = 1
	fs.Ic.Iupdate(ip)

	if kind == common.DIR {
		// ".." counts toward the parent; "." does not count toward
		// the child, so the cycle never holds a link
		dp.Nlink++
		fs.Ic.Iupdate(dp)
		if !dir.AddName(fs.Ic, ip, ".", ip.Inum) ||
			!dir.AddName(fs.Ic, ip, "..", dp.Inum) {
			panic("create: dots")
		}
	}
	if !dir.AddName(fs.Ic, dp, name, ip.Inum) {
		panic("create: AddName")
	}
	fs.Ic.IunlockPut(dp)
	util.DPrintf(5, "create %s: # %d kind %d\n", pn, ip.Inum, kind)
	return ip
}

// Open opens pn, creating it as a regular file when O_CREATE is set,
// and returns a descriptor. Directories open read-only.
func (fs *FS) Open(p *proc.Process, pn string, mode uint32) int {
	var ip *inode.Inode
	if mode&common.O_CREATE != 0 {
		ip = fs.create(p, pn, common.FILE, 0, 0)
		if ip == nil {
			return -1
		}
	} else {
		ip = path.Namei(fs.Ic, p.Cwd, pn)
		if ip == nil {
			return -1
		}
		fs.Ic.Ilock(ip)
		if ip.Kind == common.DIR && mode != common.O_RDONLY {
			fs.Ic.IunlockPut(ip)
			return -1
		}
	}

	f := fs.Ft.Alloc()
	if f == nil {
		fs.Ic.IunlockPut(ip)
		return -1
	}
	fd := p.FdAlloc(f)
	if fd < 0 {
		fs.Ft.Close(fs.Ic, f)
		fs.Ic.IunlockPut(ip)
		return -1
	}
	f.Kind = proc.FD_INODE
	f.Ip = ip
	f.Off = 0
	f.Readable = mode&common.O_WRONLY == 0
	f.Writable = mode&common.O_WRONLY != 0 || mode&common.O_RDWR != 0
	fs.Ic.Iunlock(ip)
	return fd
}

// Close releases descriptor fd.
func (fs *FS) Close(p *proc.Process, fd int) int {
	f := p.GetFile(fd)
	if f == nil {
		return -1
	}
	p.Ofile[fd] = nil
	fs.Ft.Close(fs.Ic, f)
	return 0
}

// Read reads up to len(buf) bytes from fd at its current offset.
func (fs *FS) Read(p *proc.Process, fd int, buf []byte) int {
	f := p.GetFile(fd)
	if f == nil || !f.Readable {
		return -1
	}
	if f.Kind != proc.FD_INODE {
		// pipes live outside the core
		return -1
	}
	fs.Ic.Ilock(f.Ip)
	n, ok := fs.Ic.Readi(f.Ip, buf, f.Off, uint64(len(buf)))
	if ok {
		f.Off += n
	}
	fs.Ic.Iunlock(f.Ip)
	if !ok {
		return -1
	}
	return int(n)
}

// Write writes len(data) bytes to fd at its current offset.
func (fs *FS) Write(p *proc.Process, fd int, data []byte) int {
	f := p.GetFile(fd)
	if f == nil || !f.Writable {
		return -1
	}
	if f.Kind != proc.FD_INODE {
		return -1
	}
	fs.Ic.Ilock(f.Ip)
	n, ok := fs.Ic.Writei(f.Ip, data, f.Off, uint64(len(data)))
	if ok {
		f.Off += n
	}
	fs.Ic.Iunlock(f.Ip)
	if !ok || n != uint64(len(data)) {
		return -1
	}
	return int(n)
}

// Link makes pathname new refer to the same inode as old. Directories
// cannot be linked. The link count is bumped first and reverted if any
// later step fails, so the namespace changes all-or-nothing.
func (fs *FS) Link(p *proc.Process, old string, new string) int {
	ip := path.Namei(fs.Ic, p.Cwd, old)
	if ip == nil {
		return -1
	}
	fs.Ic.Ilock(ip)
	if ip.Kind == common.DIR {
		fs.Ic.IunlockPut(ip)
		return -1
	}
	ip.Nlink++
	fs.Ic.Iupdate(ip)
	fs.Ic.Iunlock(ip)

	ok := false
	if dp, name := path.NameiParent(fs.Ic, p.Cwd, new); dp != nil {
		fs.Ic.Ilock(dp)
		if dp.Dev == ip.Dev && dir.AddName(fs.Ic, dp, name, ip.Inum) {
			ok = true
		}
		fs.Ic.IunlockPut(dp)
	}
	if !ok {
		fs.Ic.Ilock(ip)
		ip.Nlink--
		fs.Ic.Iupdate(ip)
		fs.Ic.IunlockPut(ip)
		return -1
	}
	fs.Ic.Iput(ip)
	return 0
}

// Unlink removes pn from its parent directory. A directory must be
// empty; "." and ".." cannot be unlinked. The inode itself is
// reclaimed by Iput once the last reference drops.
func (fs *FS) Unlink(p *proc.Process, pn string) int {
	dp, name := path.NameiParent(fs.Ic, p.Cwd, pn)
	if dp == nil {
		return -1
	}
	fs.Ic.Ilock(dp)
	if name == "." || name == ".." {
		fs.Ic.IunlockPut(dp)
		return -1
	}
	ip, off := dir.LookupName(fs.Ic, dp, name)
	if ip == nil {
		fs.Ic.IunlockPut(dp)
		return -1
	}
	fs.Ic.Ilock(ip)
	if ip.Nlink < 1 {
		panic("Unlink: nlink")
	}
	if ip.Kind == common.DIR && !dir.IsDirEmpty(fs.Ic, ip) {
		fs.Ic.IunlockPut(ip)
		fs.Ic.IunlockPut(dp)
		return -1
	}
	dir.RemName(fs.Ic, dp, off)
	if ip.Kind == common.DIR {
		dp.Nlink--
		fs.Ic.Iupdate(dp)
	}
	fs.Ic.IunlockPut(dp)

	ip.Nlink--
	fs.Ic.Iupdate(ip)
	fs.Ic.IunlockPut(ip)
	return 0
}

// Mkdir creates a directory at pn.
func (fs *FS) Mkdir(p *proc.Process, pn string) int {
	ip := fs.create(p, pn, common.DIR, 0, 0)
	if ip == nil {
		return -1
	}
	fs.Ic.IunlockPut(ip)
	return 0
}

// Mknod creates a device inode at pn.
func (fs *FS) Mknod(p *proc.Process, pn string, major uint32, minor uint32) int {
	ip := fs.create(p, pn, common.DEV, major, minor)
	if ip == nil {
		return -1
	}
	fs.Ic.IunlockPut(ip)
	return 0
}

// Chdir switches p's working directory to pn.
func (fs *FS) Chdir(p *proc.Process, pn string) int {
	ip := path.Namei(fs.Ic, p.Cwd, pn)
	if ip == nil {
		return -1
	}
	fs.Ic.Ilock(ip)
	if ip.Kind != common.DIR {
		fs.Ic.IunlockPut(ip)
		return -1
	}
	fs.Ic.Iunlock(ip)
	fs.Ic.Iput(p.Cwd)
	p.Cwd = ip
	return 0
}

// Dup returns a new descriptor sharing fd's open file.
func (fs *FS) Dup(p *proc.Process, fd int) int {
	f := p.GetFile(fd)
	if f == nil {
		return -1
	}
	fd2 := p.FdAlloc(f)
	if fd2 < 0 {
		return -1
	}
	fs.Ft.Dup(f)
	return fd2
}

// Stat is the metadata returned by Fstat.
type Stat struct {
	Dev   uint64
	Inum  common.Inum
	Kind  common.Itype
	Nlink uint32
	Size  uint64
}

// Fstat reports fd's inode metadata. Returns the stat and 0, or -1.
func (fs *FS) Fstat(p *proc.Process, fd int) (Stat, int) {
	f := p.GetFile(fd)
	if f == nil || f.Kind != proc.FD_INODE {
		return Stat{}, -1
	}
	fs.Ic.Ilock(f.Ip)
	st := Stat{
		Dev:   f.Ip.Dev,
		Inum:  f.Ip.Inum,
		Kind:  f.Ip.Kind,
		Nlink: f.Ip.Nlink,
		Size:  f.Ip.Size,
	}
	fs.Ic.Iunlock(f.Ip)
	return st, 0
}
