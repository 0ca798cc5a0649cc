package inode

import (
	"sync"

	"github.com/aalwan09/tinyfs/common"
)

// Devsw is one entry of the device switch. Read and Write transfer up
// to len(dst)/len(src) bytes and report the count.
type Devsw struct {
	Read  func(ip *Inode, dst []byte) (uint64, bool)
	Write func(ip *Inode, src []byte) (uint64, bool)
}

var devMu sync.Mutex
var devsw [common.NDEV]*Devsw

// RegisterDev installs the handlers for device inodes with the given
// major number.
func RegisterDev(major uint32, d *Devsw) {
	if uint64(major) >= common.NDEV {
		panic("RegisterDev: bad major")
	}
	devMu.Lock()
	devsw[major] = d
	devMu.Unlock()
}

func lookupDev(major uint32) *Devsw {
	if uint64(major) >= common.NDEV {
		return nil
	}
	devMu.Lock()
	d := devsw[major]
	devMu.Unlock()
	return d
}
