package tag_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tchajed/goose/machine/disk"

	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/kernel"
	"github.com/aalwan09/tinyfs/path"
	"github.com/aalwan09/tinyfs/proc"
)

func mkTestFS(t *testing.T) (*kernel.FS, *proc.Process) {
	t.Helper()
	d := disk.NewMemDisk(2000)
	fs := kernel.MkFS(d, kernel.Config{Size: 2000, NInodes: 50})
	return fs, fs.NewProc()
}

func TestSetGetRoundTrip(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)

	require.Equal(t, 1, fs.TagFile(p, fd, "lang", []byte("English")))
	buf := make([]byte, 10)
	n := fs.GetFileTag(p, fd, "lang", buf)
	assert.Equal(t, 7, n)
	assert.Equal(t, []byte("English"), buf[:n])
}

func TestOverwriteValue(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)

	require.Equal(t, 1, fs.TagFile(p, fd, "lang", []byte("English")))
	require.Equal(t, 1, fs.TagFile(p, fd, "lang", []byte("Java")))

	buf := make([]byte, 10)
	n := fs.GetFileTag(p, fd, "lang", buf)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("Java"), buf[:n])
}

func TestTagsPersistAcrossReopen(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_WRONLY)
	require.GreaterOrEqual(t, fd, 0)
	require.Equal(t, 1, fs.TagFile(p, fd, "lang", []byte("English")))
	require.Equal(t, 1, fs.TagFile(p, fd, "lang", []byte("Java")))
	fs.Close(p, fd)

	fd = fs.Open(p, "/x", common.O_RDONLY)
	require.GreaterOrEqual(t, fd, 0)
	buf := make([]byte, 10)
	n := fs.GetFileTag(p, fd, "lang", buf)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte("Java"), buf[:n])
	fs.Close(p, fd)
}

func TestRemoveTag(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)

	require.Equal(t, 1, fs.TagFile(p, fd, "k", []byte("v")))
	assert.Equal(t, 1, fs.RemoveFileTag(p, fd, "k"))
	buf := make([]byte, 8)
	assert.Equal(t, -1, fs.GetFileTag(p, fd, "k", buf))

	// removing again, or from a file with no tag block, fails
	assert.Equal(t, -1, fs.RemoveFileTag(p, fd, "k"))
	fd2 := fs.Open(p, "/y", common.O_CREATE|common.O_RDWR)
	assert.Equal(t, -1, fs.RemoveFileTag(p, fd2, "k"))
}

func TestGetReportsFullLength(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)

	require.Equal(t, 1, fs.TagFile(p, fd, "k", []byte("0123456789")))
	small := make([]byte, 4)
	n := fs.GetFileTag(p, fd, "k", small)
	assert.Equal(t, 10, n, "stored length even when the buffer is short")
	assert.Equal(t, []byte("0123"), small)

	big := make([]byte, n)
	assert.Equal(t, 10, fs.GetFileTag(p, fd, "k", big))
	assert.Equal(t, []byte("0123456789"), big)
}

func TestKeyBounds(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/y", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)

	assert.Equal(t, -1, fs.TagFile(p, fd, "toolongkey", []byte("v")), "10-byte key leaves no room for the terminator")
	assert.Equal(t, 1, fs.TagFile(p, fd, "ninechars", []byte("v")))
	assert.Equal(t, -1, fs.TagFile(p, fd, "", []byte("v")))

	buf := make([]byte, 4)
	assert.Equal(t, -1, fs.GetFileTag(p, fd, "toolongkey", buf))
}

func TestValueBounds(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/y", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)

	maxVal := []byte(strings.Repeat("v", int(common.TAGVALSZ)))
	assert.Equal(t, 1, fs.TagFile(p, fd, "k", maxVal))
	assert.Equal(t, -1, fs.TagFile(p, fd, "k2", append(maxVal, 'v')))

	// zero-length values are legal
	assert.Equal(t, 1, fs.TagFile(p, fd, "empty", nil))
	buf := make([]byte, 4)
	assert.Equal(t, 0, fs.GetFileTag(p, fd, "empty", buf))
}

func TestPermissions(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_WRONLY)
	require.GreaterOrEqual(t, fd, 0)
	require.Equal(t, 1, fs.TagFile(p, fd, "k", []byte("v")))

	buf := make([]byte, 4)
	assert.Equal(t, -1, fs.GetFileTag(p, fd, "k", buf), "get needs a readable descriptor")
	fs.Close(p, fd)

	fd = fs.Open(p, "/x", common.O_RDONLY)
	require.GreaterOrEqual(t, fd, 0)
	assert.Equal(t, -1, fs.TagFile(p, fd, "k", []byte("w")), "set needs a writable descriptor")
	assert.Equal(t, -1, fs.RemoveFileTag(p, fd, "k"))
	assert.Equal(t, 1, fs.GetFileTag(p, fd, "k", buf))

	assert.Equal(t, -1, fs.TagFile(p, 33, "k", []byte("v")), "bad descriptor")
	fs.Close(p, fd)
}

func TestBlockFull(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)

	keys := []string{
		"k00", "k01", "k02", "k03", "k04", "k05", "k06", "k07",
		"k08", "k09", "k10", "k11", "k12", "k13", "k14", "k15",
	}
	require.Equal(t, int(common.NTAGREC), len(keys))
	for _, k := range keys {
		require.Equal(t, 1, fs.TagFile(p, fd, k, []byte("v")))
	}
	assert.Equal(t, -1, fs.TagFile(p, fd, "k16", []byte("v")), "all records in use")

	// overwriting an existing key still works when full
	assert.Equal(t, 1, fs.TagFile(p, fd, "k03", []byte("w")))

	// freeing one record makes room again
	require.Equal(t, 1, fs.RemoveFileTag(p, fd, "k07"))
	assert.Equal(t, 1, fs.TagFile(p, fd, "k16", []byte("v")))
}

func TestTagBlockFreedWithFile(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/x", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)
	require.Equal(t, 1, fs.TagFile(p, fd, "k", []byte("v")))
	fs.Close(p, fd)

	tagBlock := func(pn string) common.Bnum {
		ip := path.Namei(fs.Ic, p.Cwd, pn)
		require.NotNil(t, ip)
		fs.Ic.Ilock(ip)
		bn := ip.Tags
		fs.Ic.IunlockPut(ip)
		return bn
	}
	old := tagBlock("/x")
	require.Equal(t, 0, fs.Unlink(p, "/x"))

	// the tag block came back to the allocator: a fresh file's first
	// allocation reuses the freed space and sees zeroed bytes
	fd = fs.Open(p, "/z", common.O_CREATE|common.O_RDWR)
	require.GreaterOrEqual(t, fd, 0)
	require.Equal(t, 1, fs.TagFile(p, fd, "j", []byte("w")))
	assert.Equal(t, old, tagBlock("/z"))
	buf := make([]byte, 4)
	assert.Equal(t, -1, fs.GetFileTag(p, fd, "k", buf))
	fs.Close(p, fd)
}
