package fat

import (
	"log/slog"

	"github.com/blockfat/fat/internal/gpt"
	"github.com/blockfat/fat/internal/mbr"
)

// DefaultPartitions is the fixed partition-table capacity P.
const DefaultPartitions = 4

// PartitionType classifies a partition descriptor. It is modeled as a small
// tagged-variant type rather than a bare int so every switch over it can be
// reviewed for exhaustiveness.
type PartitionType uint8

const (
	// TypeUnknown marks a slot that does not hold a usable partition.
	TypeUnknown PartitionType = iota
	// TypeFatUndecided marks a partition-table entry that looks like it
	// might hold a FAT volume; the BPB decoder resolves it to Fat16, Fat32,
	// or back to Unknown.
	TypeFatUndecided
	TypeFat16
	TypeFat32
)

func (t PartitionType) String() string {
	switch t {
	case TypeFatUndecided:
		return "fat-undecided"
	case TypeFat16:
		return "fat16"
	case TypeFat32:
		return "fat32"
	default:
		return "unknown"
	}
}

// Partition is a single partition descriptor. Starting LBAs are read as
// 32-bit values (see the reference design's open question on GPT/MBR LBA
// width), so media larger than 2 TiB are not addressable by this engine.
type Partition struct {
	Type PartitionType

	FirstBlock        uint32
	NumBlocks         uint32
	BlocksPerCluster  uint32
	BlocksPerFAT      uint32
	NumFATs           uint32
	NumReservedBlocks uint32

	RootDirBlock     uint32 // FAT16 only
	BlocksInRootDir  uint32 // FAT16 only; 0 for FAT32
	RootDirCluster   uint32 // FAT32 only
	FirstDataBlock   uint32
	Boot             bool
}

// decodePartitionTables tries GPT, then MBR, then a tableless fallback, and
// populates ctx.partition. It stops at the first successful table format;
// each populated entry is then resolved by classifyPartitions.
func (ctx *Context) decodePartitionTables() error {
	if ok, err := ctx.decodeGPT(); err != nil {
		return err
	} else if ok {
		return nil
	}
	if ok, err := ctx.decodeMBR(); err != nil {
		return err
	} else if ok {
		return nil
	}
	ctx.decodeTableless()
	return nil
}

func (ctx *Context) decodeGPT() (bool, error) {
	block, err := ctx.read(roleData, gpt.HeaderBlock)
	if err != nil {
		return false, err
	}
	hdr, ok := gpt.DecodeHeader(block.buf[:])
	if !ok {
		return false, nil
	}

	entrySize := hdr.SizeOfPartitionEntry()
	if entrySize == 0 {
		return false, nil
	}
	n := int(hdr.NumberOfPartitionEntries())
	if n > len(ctx.partition) {
		n = len(ctx.partition)
	}

	entriesPerBlock := BlockSize / int(entrySize)
	if entriesPerBlock == 0 {
		return false, nil
	}
	entryLBA := hdr.PartitionEntryLBA()

	found := false
	for i := 0; i < n; i++ {
		blkIdx := i / entriesPerBlock
		offInBlock := (i % entriesPerBlock) * int(entrySize)
		entBlock, err := ctx.read(roleData, entryLBA+uint32(blkIdx))
		if err != nil {
			return false, err
		}
		ent := gpt.DecodeEntry(entBlock.buf[offInBlock : offInBlock+int(entrySize)])
		if ent.IsEmpty() {
			continue
		}
		ctx.partition[i] = Partition{
			FirstBlock: ent.FirstLBA(),
			Boot:       ent.LegacyBIOSBootable(),
		}
		if ent.IsBasicData() {
			ctx.partition[i].Type = TypeFatUndecided
			found = true
		}
	}
	if found {
		ctx.trace("decoded GPT partition table", slog.Int("entries", n))
	}
	// A parsed GPT header is authoritative regardless of whether any entry
	// happens to be Basic Data: unlike decodeMBR, success here is not gated
	// on finding a FAT-typed entry, so a valid GPT disk never falls through
	// to decodeMBR and picks up its protective/hybrid MBR by mistake.
	return true, nil
}

func (ctx *Context) decodeMBR() (bool, error) {
	block, err := ctx.read(roleData, 0)
	if err != nil {
		return false, err
	}
	if !mbr.Valid(block.buf[:]) {
		return false, nil
	}

	found := false
	for i, ent := range mbr.Entries(block.buf[:]) {
		if i >= len(ctx.partition) {
			break
		}
		ctx.partition[i] = Partition{
			FirstBlock: ent.FirstLBA(),
			Boot:       ent.Bootable(),
		}
		if ent.IsFATType() {
			ctx.partition[i].Type = TypeFatUndecided
			found = true
		}
	}
	if found {
		ctx.trace("decoded MBR partition table")
	}
	return found, nil
}

func (ctx *Context) decodeTableless() {
	for i := range ctx.partition {
		ctx.partition[i] = Partition{}
	}
	ctx.partition[0].Type = TypeFatUndecided
	ctx.partition[0].FirstBlock = 0
	ctx.trace("no partition table found, assuming single tableless volume")
}
