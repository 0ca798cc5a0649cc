package ondisk

import (
	"github.com/aalwan09/tinyfs/common"
)

// DirentSize is the directory entry size: a 2-byte little-endian inum
// followed by a DIRSIZ-byte, NUL-padded name.
const DirentSize uint64 = 2 + common.DIRSIZ

type Dirent struct {
	Inum common.Inum // 0 means free
	Name string      // <= DIRSIZ bytes
}

func EncodeDirent(de *Dirent) []byte {
	d := make([]byte, DirentSize)
	d[0] = byte(de.Inum)
	d[1] = byte(de.Inum >> 8)
	copy(d[2:], de.Name)
	return d
}

func DecodeDirent(d []byte) Dirent {
	inum := common.Inum(d[0]) | common.Inum(d[1])<<8
	raw := d[2 : 2+common.DIRSIZ]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return Dirent{Inum: inum, Name: string(raw[:n])}
}
