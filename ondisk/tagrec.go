package ondisk

import "github.com/aalwan09/tinyfs/common"

// TagRecord is one 32-byte record of a tag block: a NUL-terminated key
// (bytes 0..9), a value length prefix (byte 10), and up to 21 value
// bytes (bytes 11..31).
type TagRecord struct {
	Key   string
	Value []byte // len(Value) == the stored length L
}

// Free reports whether byte 0 of the record (the first key byte) is 0.
func (r TagRecord) Free() bool {
	return len(r.Key) == 0
}

func EncodeTagRecord(r TagRecord) []byte {
	d := make([]byte, common.TAGRECSZ)
	if r.Key == "" {
		return d
	}
	copy(d[0:common.TAGKEYSZ-1], r.Key) // leaves d[len(key)] == 0 terminator
	l := uint8(len(r.Value))
	d[common.TAGKEYSZ] = l
	copy(d[common.TAGKEYSZ+1:common.TAGKEYSZ+1+uint64(l)], r.Value)
	return d
}

func DecodeTagRecord(d []byte) TagRecord {
	if d[0] == 0 {
		return TagRecord{}
	}
	n := 0
	for n < int(common.TAGKEYSZ-1) && d[n] != 0 {
		n++
	}
	key := string(d[:n])
	l := d[common.TAGKEYSZ]
	value := make([]byte, l)
	copy(value, d[common.TAGKEYSZ+1:common.TAGKEYSZ+1+uint64(l)])
	return TagRecord{Key: key, Value: value}
}

// DecodeTagBlock splits a tag block into its NTAGREC fixed-size records.
func DecodeTagBlock(blk []byte) []TagRecord {
	recs := make([]TagRecord, common.NTAGREC)
	for i := uint64(0); i < common.NTAGREC; i++ {
		off := i * common.TAGRECSZ
		recs[i] = DecodeTagRecord(blk[off : off+common.TAGRECSZ])
	}
	return recs
}

func EncodeRecordInto(blk []byte, idx uint64, r TagRecord) {
	off := idx * common.TAGRECSZ
	copy(blk[off:off+common.TAGRECSZ], EncodeTagRecord(r))
}
