package path_test

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

func TestRootResolution(t *testing.T) {
	fs, p := mkTestFS(t)

	ip := path.Namei(fs.Ic, p.Cwd, "/")
	require.NotNil(t, ip)
	assert.Equal(t, common.ROOTINUM, ip.Inum)
	fs.Ic.Iput(ip)

	// extra slashes collapse
	ip = path.Namei(fs.Ic, p.Cwd, "///")
	require.NotNil(t, ip)
	assert.Equal(t, common.ROOTINUM, ip.Inum)
	fs.Ic.Iput(ip)
}

func TestNameiParentOfRootFails(t *testing.T) {
	fs, p := mkTestFS(t)
	dp, _ := path.NameiParent(fs.Ic, p.Cwd, "/")
	assert.Nil(t, dp, "the walk stops before any element")
}

func TestNameiParentRelative(t *testing.T) {
	fs, p := mkTestFS(t)

	dp, name := path.NameiParent(fs.Ic, p.Cwd, "a")
	require.NotNil(t, dp)
	assert.Equal(t, p.Cwd.Inum, dp.Inum)
	assert.Equal(t, "a", name)
	fs.Ic.Iput(dp)
}

func TestWalkThroughDirs(t *testing.T) {
	fs, p := mkTestFS(t)
	require.Equal(t, 0, fs.Mkdir(p, "/d"))
	require.Equal(t, 0, fs.Mkdir(p, "/d/e"))
	fd := fs.Open(p, "/d/e/f", common.O_CREATE|common.O_WRONLY)
	require.GreaterOrEqual(t, fd, 0)
	fs.Close(p, fd)

	ip := path.Namei(fs.Ic, p.Cwd, "/d/e/f")
	require.NotNil(t, ip)
	fs.Ic.Ilock(ip)
	assert.Equal(t, common.FILE, ip.Kind)
	fs.Ic.IunlockPut(ip)

	// trailing slashes after a directory are fine
	dp := path.Namei(fs.Ic, p.Cwd, "/d/e/")
	require.NotNil(t, dp)
	fs.Ic.Ilock(dp)
	assert.Equal(t, common.DIR, dp.Kind)
	fs.Ic.IunlockPut(dp)

	// .. climbs back up
	ip = path.Namei(fs.Ic, p.Cwd, "/d/e/../e/f")
	require.NotNil(t, ip)
	fs.Ic.Iput(ip)
}

func TestWalkThroughFileFails(t *testing.T) {
	fs, p := mkTestFS(t)
	fd := fs.Open(p, "/f", common.O_CREATE|common.O_WRONLY)
	require.GreaterOrEqual(t, fd, 0)
	fs.Close(p, fd)

	assert.Nil(t, path.Namei(fs.Ic, p.Cwd, "/f/x"))
}

func TestMissingElement(t *testing.T) {
	fs, p := mkTestFS(t)
	assert.Nil(t, path.Namei(fs.Ic, p.Cwd, "/nope"))
	dp, _ := path.NameiParent(fs.Ic, p.Cwd, "/nope/child")
	assert.Nil(t, dp)
}

func TestOverlongElementRejected(t *testing.T) {
	fs, p := mkTestFS(t)
	long := strings.Repeat("x", int(common.DIRSIZ)+1)
	assert.Nil(t, path.Namei(fs.Ic, p.Cwd, "/"+long))
	dp, _ := path.NameiParent(fs.Ic, p.Cwd, "/"+long)
	assert.Nil(t, dp)
}

func TestRelativeWalk(t *testing.T) {
	fs, p := mkTestFS(t)
	require.Equal(t, 0, fs.Mkdir(p, "/d"))
	require.Equal(t, 0, fs.Chdir(p, "/d"))

	fd := fs.Open(p, "f", common.O_CREATE|common.O_WRONLY)
	require.GreaterOrEqual(t, fd, 0)
	fs.Close(p, fd)

	ip := path.Namei(fs.Ic, p.Cwd, "f")
	require.NotNil(t, ip)
	fs.Ic.Iput(ip)

	ip = path.Namei(fs.Ic, p.Cwd, "../d/f")
	require.NotNil(t, ip)
	fs.Ic.Iput(ip)
}
