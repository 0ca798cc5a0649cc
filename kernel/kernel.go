// Package kernel wires the layers together and exposes the
// syscall-shaped entry points: path-based namespace operations, file
// descriptor I/O, and the tag syscalls. Every entry point follows the
// integer return convention: >= 0 on success, -1 on failure.
package kernel

import (
	"github.com/tchajed/goose/machine/disk"

	"github.com/aalwan09/tinyfs/balloc"
	"github.com/aalwan09/tinyfs/bcache"
	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/inode"
	"github.com/aalwan09/tinyfs/proc"
	"github.com/aalwan09/tinyfs/super"
	"github.com/aalwan09/tinyfs/util"
)

// Config sizes a file system image.
type Config struct {
	Size    uint64 // total blocks
	NInodes uint64
}

func DefaultConfig() Config {
	return Config{
		Size:    10 * 1000,
		NInodes: 200,
	}
}

// FS is a mounted file system.
type FS struct {
	Bc *bcache.Bcache
	Ba *balloc.Alloc
	Ic *inode.Cache
	Ft *proc.FileTable
}

func mkPlumbing(d disk.Disk) *FS {
	bc := bcache.MkBcache(d, common.NBUF)
	ba := balloc.MkAlloc(bc)
	return &FS{
		Bc: bc,
		Ba: ba,
		Ic: inode.MkCache(bc, ba),
		Ft: proc.MkFileTable(),
	}
}

// MkFS formats d with a fresh file system and mounts it.
func MkFS(d disk.Disk, cfg Config) *FS {
	fs := mkPlumbing(d)
	fs.mkfs(cfg)
	util.DPrintf(1, "MkFS: %d blocks, %d inodes\n", cfg.Size, cfg.NInodes)
	return fs
}

// Boot mounts an existing file system image.
func Boot(d disk.Disk) *FS {
	fs := mkPlumbing(d)
	sb := super.ReadSuper(fs.Bc)
	util.DPrintf(1, "Boot: %d blocks, %d inodes\n", sb.Size, sb.NInodes)
	return fs
}

// NewProc returns a process whose working directory is the root.
func (fs *FS) NewProc() *proc.Process {
	root := fs.Ic.Iget(common.ROOTDEV, common.ROOTINUM)
	return proc.MkProcess(root)
}

// ExitProc releases everything p holds: open files and the working
// directory.
func (fs *FS) ExitProc(p *proc.Process) {
	for fd, f := range p.Ofile {
		if f != nil {
			p.Ofile[fd] = nil
			fs.Ft.Close(fs.Ic, f)
		}
	}
	fs.Ic.Iput(p.Cwd)
	p.Cwd = nil
}
