package kernel

import (
	"github.com/aalwan09/tinyfs/proc"
	"github.com/aalwan09/tinyfs/tag"
)

// TagFile attaches (key, value) to the file open on fd. Returns 1 on
// success, -1 on failure.
func (fs *FS) TagFile(p *proc.Process, fd int, key string, value []byte) int {
	return tag.TagFile(fs.Ic, p.GetFile(fd), key, value)
}

// RemoveFileTag removes key from the file open on fd. Returns 1 on
// success, -1 on failure.
func (fs *FS) RemoveFileTag(p *proc.Process, fd int, key string) int {
	return tag.RemoveFileTag(fs.Ic, p.GetFile(fd), key)
}

// GetFileTag copies key's value into buf and returns the stored
// length, which may exceed len(buf); the caller retries with a larger
// buffer. Returns -1 on failure.
func (fs *FS) GetFileTag(p *proc.Process, fd int, key string, buf []byte) int {
	return tag.GetFileTag(fs.Ic, p.GetFile(fd), key, buf)
}
