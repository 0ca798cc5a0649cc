// Package proc is the narrow process-side surface the core reads from:
// the open-file handle, a system-wide table of them, and a Process
// carrying a working directory plus a per-process descriptor table.
package proc

import (
	"sync"

	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/inode"
)

type Fkind uint32

const (
	FD_NONE  Fkind = 0
	FD_PIPE  Fkind = 1
	FD_INODE Fkind = 2
)

// File is an open-file handle. The handle has its own reference count,
// distinct from the inode's: duplicated descriptors share one File.
type File struct {
	Kind     Fkind
	ref      uint32
	Readable bool
	Writable bool
	Ip       *inode.Inode
	Off      uint64
}

// FileTable is the system-wide open-file table.
type FileTable struct {
	lock  *sync.Mutex
	files []*File
}

func MkFileTable() *FileTable {
	files := make([]*File, common.NFILE)
	for i := range files {
		files[i] = &File{}
	}
	return &FileTable{
		lock:  new(sync.Mutex),
		files: files,
	}
}

// Alloc returns an unused File with one reference, or nil if the table
// is full.
func (ft *FileTable) Alloc() *File {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	for _, f := range ft.files {
		if f.ref == 0 {
			f.ref = 1
			return f
		}
	}
	return nil
}

// Dup bumps f's reference count.
func (ft *FileTable) Dup(f *File) *File {
	ft.lock.Lock()
	defer ft.lock.Unlock()
	if f.ref < 1 {
		panic("Dup")
	}
	f.ref++
	return f
}

// Close drops one reference to f; the last close releases the inode.
func (ft *FileTable) Close(c *inode.Cache, f *File) {
	ft.lock.Lock()
	if f.ref < 1 {
		ft.lock.Unlock()
		panic("Close")
	}
	f.ref--
	if f.ref > 0 {
		ft.lock.Unlock()
		return
	}
	ff := *f
	f.Kind = FD_NONE
	f.Ip = nil
	f.Off = 0
	f.Readable = false
	f.Writable = false
	ft.lock.Unlock()

	if ff.Kind == FD_INODE {
		c.Iput(ff.Ip)
	}
}

// Process carries the working directory and the per-process descriptor
// table. Each process accesses only its own, so there is no lock.
type Process struct {
	Cwd   *inode.Inode
	Ofile [common.NOFILE]*File
}

func MkProcess(cwd *inode.Inode) *Process {
	return &Process{Cwd: cwd}
}

// FdAlloc installs f in the lowest free descriptor slot, or returns -1.
func (p *Process) FdAlloc(f *File) int {
	for fd := 0; fd < len(p.Ofile); fd++ {
		if p.Ofile[fd] == nil {
			p.Ofile[fd] = f
			return fd
		}
	}
	return -1
}

// GetFile returns the File for fd, or nil if fd is out of range or the
// slot is empty.
func (p *Process) GetFile(fd int) *File {
	if fd < 0 || fd >= len(p.Ofile) {
		return nil
	}
	return p.Ofile[fd]
}
