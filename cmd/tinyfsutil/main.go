// tinyfsutil inspects a file system image: directory listings, file
// contents, tags, and a consistency check.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rodaine/table"
	"github.com/tchajed/goose/machine/disk"
	"golang.org/x/sys/unix"

	"github.com/aalwan09/tinyfs/common"
	"github.com/aalwan09/tinyfs/kernel"
	"github.com/aalwan09/tinyfs/ondisk"
	"github.com/aalwan09/tinyfs/path"
	"github.com/aalwan09/tinyfs/proc"
	"github.com/aalwan09/tinyfs/super"
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: tinyfsutil -img <image> ls|cat|tags|fsck [path]\n")
	os.Exit(1)
}

func kindStr(k common.Itype) string {
	switch k {
	case common.DIR:
		return "dir"
	case common.FILE:
		return "file"
	case common.DEV:
		return "dev"
	}
	return "free"
}

func openImage(img string) disk.FileDisk {
	fd, err := unix.Open(img, unix.O_RDWR, 0)
	if err != nil {
		panic(err)
	}
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		panic(err)
	}
	// the flock outlives this call; the process exit releases it
	st, err := os.Stat(img)
	if err != nil {
		panic(err)
	}
	d, err := disk.NewFileDisk(img, uint64(st.Size())/disk.BlockSize)
	if err != nil {
		panic(err)
	}
	return d
}

func ls(fs *kernel.FS, p *proc.Process, pn string) {
	dp := path.Namei(fs.Ic, p.Cwd, pn)
	if dp == nil {
		fmt.Fprintf(os.Stderr, "ls: %s: no such path\n", pn)
		os.Exit(1)
	}
	fs.Ic.Ilock(dp)
	if dp.Kind != common.DIR {
		fmt.Fprintf(os.Stderr, "ls: %s: not a directory\n", pn)
		os.Exit(1)
	}
	tbl := table.New("name", "inum", "kind", "size")
	for off := uint64(0); off < dp.Size; off += ondisk.DirentSize {
		data := make([]byte, ondisk.DirentSize)
		fs.Ic.Readi(dp, data, off, ondisk.DirentSize)
		de := ondisk.DecodeDirent(data)
		if de.Inum == common.NULLINUM {
			continue
		}
		ip := fs.Ic.Iget(dp.Dev, de.Inum)
		if ip == dp {
			tbl.AddRow(de.Name, de.Inum, kindStr(dp.Kind), dp.Size)
			fs.Ic.Iput(ip)
			continue
		}
		fs.Ic.Ilock(ip)
		tbl.AddRow(de.Name, de.Inum, kindStr(ip.Kind), ip.Size)
		fs.Ic.IunlockPut(ip)
	}
	fs.Ic.IunlockPut(dp)
	tbl.Print()
}

func cat(fs *kernel.FS, p *proc.Process, pn string) {
	fd := fs.Open(p, pn, common.O_RDONLY)
	if fd < 0 {
		fmt.Fprintf(os.Stderr, "cat: %s: cannot open\n", pn)
		os.Exit(1)
	}
	buf := make([]byte, common.BlockSize)
	for {
		n := fs.Read(p, fd, buf)
		if n <= 0 {
			break
		}
		os.Stdout.Write(buf[:n])
	}
	fs.Close(p, fd)
}

func tags(fs *kernel.FS, p *proc.Process, pn string) {
	ip := path.Namei(fs.Ic, p.Cwd, pn)
	if ip == nil {
		fmt.Fprintf(os.Stderr, "tags: %s: no such path\n", pn)
		os.Exit(1)
	}
	fs.Ic.Ilock(ip)
	tbl := table.New("key", "len", "value")
	if ip.Tags != common.NULLBNUM {
		bp := fs.Bc.Bread(ip.Tags)
		for _, r := range ondisk.DecodeTagBlock(bp.Blk) {
			if r.Free() {
				continue
			}
			tbl.AddRow(r.Key, len(r.Value), string(r.Value))
		}
		fs.Bc.Brelse(bp)
	}
	fs.Ic.IunlockPut(ip)
	tbl.Print()
}

// fsck walks every allocated inode and checks that each block it
// references is marked in the bitmap and referenced exactly once.
func fsck(fs *kernel.FS) {
	sb := super.ReadSuper(fs.Bc)

	bitSet := func(bn common.Bnum) bool {
		bp := fs.Bc.Bread(sb.BBlock(bn))
		bi := bn % common.NBITBLOCK
		set := bp.Blk[bi/8]&(1<<(bi%8)) != 0
		fs.Bc.Brelse(bp)
		return set
	}

	refs := make(map[common.Bnum]common.Inum)
	var nused, nfiles, ndirs, errs uint64
	check := func(inum common.Inum, bn common.Bnum) {
		if bn == common.NULLBNUM {
			return
		}
		if bn < sb.DataStart() || bn >= sb.Size {
			fmt.Printf("inode %d: block %d out of range\n", inum, bn)
			errs++
			return
		}
		if !bitSet(bn) {
			fmt.Printf("inode %d: block %d not marked allocated\n", inum, bn)
			errs++
		}
		if other, ok := refs[bn]; ok {
			fmt.Printf("inode %d: block %d also referenced by inode %d\n", inum, bn, other)
			errs++
		}
		refs[bn] = inum
	}

	for inum := common.ROOTINUM; inum < sb.NInodes; inum++ {
		bp := fs.Bc.Bread(sb.InodeBlock(inum))
		off := sb.InodeOffset(inum)
		di := ondisk.DecodeDinode(bp.Blk[off : off+ondisk.DinodeSize])
		fs.Bc.Brelse(bp)
		if di.Type == common.FREE {
			continue
		}
		nused++
		if di.Type == common.FILE {
			nfiles++
		}
		if di.Type == common.DIR {
			ndirs++
		}
		for _, a := range di.Addrs {
			check(inum, a)
		}
		if ind := di.Addrs[common.NDIRECT]; ind != common.NULLBNUM {
			bp := fs.Bc.Bread(ind)
			for i := uint64(0); i < common.NINDIRECT; i++ {
				a := common.Bnum(0)
				for j := uint64(0); j < 8; j++ {
					a |= common.Bnum(bp.Blk[i*8+j]) << (8 * j)
				}
				check(inum, a)
			}
			fs.Bc.Brelse(bp)
		}
		check(inum, di.Tags)
	}

	tbl := table.New("item", "count")
	tbl.AddRow("inodes in use", nused)
	tbl.AddRow("files", nfiles)
	tbl.AddRow("directories", ndirs)
	tbl.AddRow("data blocks referenced", uint64(len(refs)))
	tbl.AddRow("errors", errs)
	tbl.Print()
	if errs > 0 {
		os.Exit(1)
	}
}

func main() {
	img := flag.String("img", "", "file system image")
	flag.Parse()
	if *img == "" || flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)
	pn := "/"
	if flag.NArg() > 1 {
		pn = flag.Arg(1)
	}

	d := openImage(*img)
	defer d.Close()
	fs := kernel.Boot(d)
	p := fs.NewProc()

	switch cmd {
	case "ls":
		ls(fs, p, pn)
	case "cat":
		cat(fs, p, pn)
	case "tags":
		tags(fs, p, pn)
	case "fsck":
		fsck(fs)
	default:
		usage()
	}
}
