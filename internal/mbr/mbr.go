// Package mbr decodes the legacy Master Boot Record partition table: the
// 0x55AA boot signature at the end of block 0 and the four 16-byte partition
// records starting at offset 446.
package mbr

import "encoding/binary"

const (
	// TableOffset is the byte offset of the first of the four partition
	// records within block 0.
	TableOffset = 446
	// EntrySize is the size in bytes of one partition record.
	EntrySize = 16
	// NumEntries is the fixed number of records in an MBR partition table.
	NumEntries = 4
	// SignatureOffset is the byte offset of the 0x55AA boot signature.
	SignatureOffset = 510

	attrBootable = 0x80
)

// fatPartitionTypes are the partition-type IDs this engine treats as "might
// be FAT16/FAT32, attempt BPB decode".
var fatPartitionTypes = map[byte]bool{
	0x04: true,
	0x06: true,
	0x0B: true,
	0x0C: true,
	0x0E: true,
}

// Valid reports whether block holds the 0x55AA MBR boot signature.
func Valid(block []byte) bool {
	return len(block) >= 512 && block[SignatureOffset] == 0x55 && block[SignatureOffset+1] == 0xAA
}

// Entry is a byte-view over one 16-byte MBR partition record.
type Entry struct {
	data []byte
}

// Entries returns the four partition records of block (block 0 of the
// medium). It does not validate the boot signature; call Valid first.
func Entries(block []byte) [NumEntries]Entry {
	var es [NumEntries]Entry
	for i := range es {
		off := TableOffset + i*EntrySize
		es[i] = Entry{data: block[off : off+EntrySize]}
	}
	return es
}

// Bootable reports the 0x80 status byte.
func (e Entry) Bootable() bool {
	return e.data[0]&attrBootable != 0
}

// Type returns the raw partition-type byte.
func (e Entry) Type() byte {
	return e.data[4]
}

// IsFATType reports whether Type() is one of the FAT16/FAT32 partition IDs
// this decoder will attempt to classify via the BPB.
func (e Entry) IsFATType() bool {
	return fatPartitionTypes[e.Type()]
}

// FirstLBA returns the starting LBA of the partition.
func (e Entry) FirstLBA() uint32 {
	return binary.LittleEndian.Uint32(e.data[8:12])
}
