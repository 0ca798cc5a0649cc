// Package common holds the numeric types and compile-time size
// constants shared by every layer of the filesystem core.
package common

import "github.com/tchajed/goose/machine/disk"

// Bnum is a physical block number. 0 is never a valid data block.
type Bnum = uint64

// Inum is an inode number. 0 is never a valid inode.
type Inum = uint64

const (
	NULLBNUM Bnum = 0
	NULLINUM Inum = 0
	ROOTINUM Inum = 1

	// ROOTDEV is the single device the namespace spans.
	ROOTDEV uint64 = 1
)

// BlockSize is inherited from the simulated disk rather than hardcoded.
const BlockSize uint64 = disk.BlockSize

const (
	NBITBLOCK uint64 = BlockSize * 8 // bits per bitmap block

	NDIRECT   uint64 = 12
	NINDIRECT uint64 = BlockSize / 8 // 8-byte block numbers per indirect block
	MAXFILE   uint64 = NDIRECT + NINDIRECT

	// DIRSIZ is the name field width of a directory entry. Names
	// shorter than DIRSIZ are NUL-padded; a name of exactly DIRSIZ
	// bytes fills the field with no terminator.
	DIRSIZ uint64 = 14

	NOFILE uint64 = 16  // open files per process
	NFILE  uint64 = 100 // open files system-wide
	NINODE uint64 = 50  // inode cache slots
	NBUF   uint64 = 512 // buffer cache slots
	NDEV   uint64 = 10  // device-switch entries

	// Tag records live in the first TAGBLOCKSZ bytes of a file's tag
	// block, independent of the device block size.
	TAGBLOCKSZ   uint64 = 512
	TAGRECSZ     uint64 = 32
	TAGKEYSZ     uint64 = 10                       // key field width, NUL-terminated
	TAGVALSZ     uint64 = TAGRECSZ - TAGKEYSZ - 1 // 21: one byte is the length prefix
	TAGMAXKEYLEN uint64 = TAGKEYSZ - 1
	NTAGREC      uint64 = TAGBLOCKSZ / TAGRECSZ
)

// Itype is the on-disk inode type.
type Itype uint32

const (
	FREE Itype = 0
	DIR  Itype = 1
	FILE Itype = 2
	DEV  Itype = 3
)

// File-open flags.
const (
	O_RDONLY uint32 = 0
	O_WRONLY uint32 = 1
	O_RDWR   uint32 = 2
	O_CREATE uint32 = 0x200
)
