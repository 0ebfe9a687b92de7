package mbr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func blankBlock() []byte {
	return make([]byte, 512)
}

func TestValidRequiresSignature(t *testing.T) {
	block := blankBlock()
	require.False(t, Valid(block))

	block[SignatureOffset] = 0x55
	block[SignatureOffset+1] = 0xAA
	require.True(t, Valid(block))
}

func TestValidRejectsShortBlock(t *testing.T) {
	require.False(t, Valid(make([]byte, 100)))
}

func TestEntriesDecodeFourRecords(t *testing.T) {
	block := blankBlock()
	block[SignatureOffset] = 0x55
	block[SignatureOffset+1] = 0xAA

	// Entry 1: bootable FAT32 LBA partition starting at LBA 2048.
	off := TableOffset + EntrySize
	block[off] = 0x80
	block[off+4] = 0x0C
	block[off+8] = 0x00
	block[off+9] = 0x08
	block[off+10] = 0x00
	block[off+11] = 0x00

	entries := Entries(block)
	require.False(t, entries[0].Bootable())
	require.True(t, entries[1].Bootable())
	require.True(t, entries[1].IsFATType())
	require.EqualValues(t, 0x0C, entries[1].Type())
	require.EqualValues(t, 2048, entries[1].FirstLBA())
	require.False(t, entries[2].Bootable())
	require.False(t, entries[2].IsFATType())
}

func TestIsFATTypeCoversKnownIDs(t *testing.T) {
	block := blankBlock()
	for i, id := range []byte{0x04, 0x06, 0x0B, 0x0C} {
		off := TableOffset + i*EntrySize
		block[off+4] = id
	}
	entries := Entries(block)
	for i := range entries {
		require.True(t, entries[i].IsFATType())
	}

	other := blankBlock()
	other[TableOffset+4] = 0x07 // NTFS/exFAT, not recognized here
	require.False(t, Entries(other)[0].IsFATType())
}
