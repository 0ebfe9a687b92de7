// Package gpt decodes the subset of the GUID Partition Table this engine
// needs: the header at block 1 and the fixed-size partition entry array it
// points to.
package gpt

import (
	"encoding/binary"

	"github.com/google/uuid"
)

const (
	// HeaderBlock is the absolute block number holding the GPT header.
	HeaderBlock = 1

	signatureOff       = 0
	partitionEntryLBAOff = 72
	numEntriesOff       = 80
	entrySizeOff        = 84

	entryTypeGUIDOff   = 0
	entryUniqueGUIDOff = 16
	entryFirstLBAOff   = 32
	entryAttrsOff      = 48

	attrLegacyBIOSBootable = 0x04
)

// Signature is the 8-byte "EFI PART" magic at the start of the header block.
var Signature = [8]byte{'E', 'F', 'I', ' ', 'P', 'A', 'R', 'T'}

// BasicDataPartitionGUID is the well-known Microsoft Basic Data Partition
// type GUID, stored in on-disk byte order (as it appears in a type-GUID
// field), not the conventional string-form byte order.
var BasicDataPartitionGUID = uuid.UUID{
	0xA2, 0xA0, 0xD0, 0xEB, 0xE5, 0xB9, 0x33, 0x44,
	0x87, 0xC0, 0x68, 0xB6, 0xB7, 0x26, 0x99, 0xC7,
}

// Header is a byte-view over the GPT header block.
type Header struct {
	data []byte
}

// DecodeHeader returns a Header view over block (which must be HeaderBlock
// of the medium) if it carries the "EFI PART" signature.
func DecodeHeader(block []byte) (Header, bool) {
	if len(block) < 512 {
		return Header{}, false
	}
	for i, b := range Signature {
		if block[signatureOff+i] != b {
			return Header{}, false
		}
	}
	return Header{data: block}, true
}

// PartitionEntryLBA returns the starting LBA of the partition entry array
// (the low 32 bits of the on-disk 64-bit field; see the 2 TiB addressing
// limitation noted on the Partition type).
func (h Header) PartitionEntryLBA() uint32 {
	return binary.LittleEndian.Uint32(h.data[partitionEntryLBAOff : partitionEntryLBAOff+4])
}

// NumberOfPartitionEntries returns the number of entries in the partition
// entry array.
func (h Header) NumberOfPartitionEntries() uint32 {
	return binary.LittleEndian.Uint32(h.data[numEntriesOff : numEntriesOff+4])
}

// SizeOfPartitionEntry returns the size in bytes of one partition entry,
// usually 128.
func (h Header) SizeOfPartitionEntry() uint32 {
	return binary.LittleEndian.Uint32(h.data[entrySizeOff : entrySizeOff+4])
}

// Entry is a byte-view over one partition entry within the entry array.
type Entry struct {
	data []byte
}

// DecodeEntry returns an Entry view over data, which must be at least
// entrySize bytes (as reported by Header.SizeOfPartitionEntry).
func DecodeEntry(data []byte) Entry {
	return Entry{data: data}
}

// TypeGUID returns the partition type GUID, in on-disk byte order.
func (e Entry) TypeGUID() uuid.UUID {
	var g uuid.UUID
	copy(g[:], e.data[entryTypeGUIDOff:entryTypeGUIDOff+16])
	return g
}

// IsBasicData reports whether the entry's type GUID equals
// BasicDataPartitionGUID.
func (e Entry) IsBasicData() bool {
	return e.TypeGUID() == BasicDataPartitionGUID
}

// UniqueGUID returns the per-partition unique GUID.
func (e Entry) UniqueGUID() uuid.UUID {
	var g uuid.UUID
	copy(g[:], e.data[entryUniqueGUIDOff:entryUniqueGUIDOff+16])
	return g
}

// FirstLBA returns the starting LBA of the partition (low 32 bits).
func (e Entry) FirstLBA() uint32 {
	return binary.LittleEndian.Uint32(e.data[entryFirstLBAOff : entryFirstLBAOff+4])
}

// Attributes returns the raw 64-bit attribute field.
func (e Entry) Attributes() uint64 {
	return binary.LittleEndian.Uint64(e.data[entryAttrsOff : entryAttrsOff+8])
}

// LegacyBIOSBootable reports attribute bit 2, which this engine consumes as
// the GPT "bootable hint" for partition selection, matching (and preserving)
// the reference implementation's choice even though bit 2 being the
// canonical "Legacy BIOS Bootable" attribute is itself a GPT convention
// rather than a UEFI structural requirement.
func (e Entry) LegacyBIOSBootable() bool {
	return e.Attributes()&attrLegacyBIOSBootable != 0
}

// IsEmpty reports whether the entry's type GUID is the all-zero "unused"
// GUID. Such entries are skipped while iterating, which matters when
// NumberOfPartitionEntries is larger than the number of actually-used
// entries.
func (e Entry) IsEmpty() bool {
	return e.TypeGUID() == uuid.Nil
}
