package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tchajed/goose/machine/disk"
	"golang.org/x/sys/unix"

	"github.com/aalwan09/tinyfs/kernel"
)

func main() {
	size := flag.Uint64("size", 10*1000, "image size in blocks")
	ninodes := flag.Uint64("ninodes", 200, "number of inodes")
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: mkfs [-size n] [-ninodes n] <image>\n")
		os.Exit(1)
	}
	img := flag.Arg(0)

	// hold an advisory lock on the image while formatting
	fd, err := unix.Open(img, unix.O_RDWR|unix.O_CREAT, 0644)
	if err != nil {
		panic(err)
	}
	defer unix.Close(fd)
	if err := unix.Flock(fd, unix.LOCK_EX); err != nil {
		panic(err)
	}

	d, err := disk.NewFileDisk(img, *size)
	if err != nil {
		panic(err)
	}
	defer d.Close()

	kernel.MkFS(d, kernel.Config{Size: *size, NInodes: *ninodes})
	fmt.Printf("%s: %d blocks of %d bytes, %d inodes\n",
		img, *size, disk.BlockSize, *ninodes)
}
