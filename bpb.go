package fat

import (
	"encoding/binary"
	"log/slog"
)

const (
	bpbJmpBoot        = 0
	bpbBytesPerSector = 11
	bpbBlocksPerClus  = 13
	bpbReservedBlocks = 14
	bpbNumFATs        = 16
	bpbRootEntCnt     = 17
	bpbTotBlocks16    = 19
	bpbBlocksPerFAT16 = 22
	bpbTotBlocks32    = 32
	bpbBlocksPerFAT32 = 36
	bpbRootCluster32  = 44
	bpbSigOff         = 510
)

// classifyPartitions resolves every TypeFatUndecided slot to Fat16, Fat32,
// or back to Unknown by validating and decoding its BPB (§4.3). Partitions
// that were never populated (Type == TypeUnknown) are left untouched.
func (ctx *Context) classifyPartitions() error {
	for i := range ctx.partition {
		p := &ctx.partition[i]
		if p.Type != TypeFatUndecided {
			continue
		}
		if err := ctx.classifyPartition(p); err != nil {
			return err
		}
	}
	return nil
}

func (ctx *Context) classifyPartition(p *Partition) error {
	block, err := ctx.read(roleData, p.FirstBlock)
	if err != nil {
		return err
	}
	b := block.buf[:]

	if b[bpbSigOff] != 0x55 || b[bpbSigOff+1] != 0xAA {
		p.Type = TypeUnknown
		return nil
	}
	if !(b[bpbJmpBoot] == 0xE9 || (b[bpbJmpBoot] == 0xEB && b[bpbJmpBoot+2] == 0x90)) {
		p.Type = TypeUnknown
		return nil
	}
	bytesPerSector := binary.LittleEndian.Uint16(b[bpbBytesPerSector:])
	if bytesPerSector != 512 {
		// Only 512-byte blocks are supported.
		p.Type = TypeUnknown
		return nil
	}

	blocksPerCluster := uint32(b[bpbBlocksPerClus])
	reservedBlocks := uint32(binary.LittleEndian.Uint16(b[bpbReservedBlocks:]))
	numFATs := uint32(b[bpbNumFATs])
	rootEntCnt := uint32(binary.LittleEndian.Uint16(b[bpbRootEntCnt:]))

	numBlocks := uint32(binary.LittleEndian.Uint16(b[bpbTotBlocks16:]))
	if numBlocks == 0 {
		numBlocks = binary.LittleEndian.Uint32(b[bpbTotBlocks32:])
	}
	blocksPerFAT := uint32(binary.LittleEndian.Uint16(b[bpbBlocksPerFAT16:]))
	if blocksPerFAT == 0 {
		blocksPerFAT = binary.LittleEndian.Uint32(b[bpbBlocksPerFAT32:])
	}

	if blocksPerCluster == 0 || numFATs == 0 {
		p.Type = TypeUnknown
		return nil
	}

	blocksInRootDir := (rootEntCnt*32 + BlockSize - 1) / BlockSize

	reserved := reservedBlocks + numFATs*blocksPerFAT + blocksInRootDir
	if reserved > numBlocks {
		p.Type = TypeUnknown
		return nil
	}
	dataBlocks := numBlocks - reserved
	countOfClusters := dataBlocks / blocksPerCluster

	p.BlocksPerCluster = blocksPerCluster
	p.NumReservedBlocks = reservedBlocks
	p.NumFATs = numFATs
	p.NumBlocks = numBlocks
	p.BlocksPerFAT = blocksPerFAT
	p.FirstDataBlock = p.FirstBlock + reserved

	switch {
	case countOfClusters < 4085:
		// FAT12, explicitly out of scope.
		p.Type = TypeUnknown
		return nil
	case countOfClusters < 65525:
		p.Type = TypeFat16
		p.BlocksInRootDir = blocksInRootDir
		p.RootDirBlock = p.FirstDataBlock - blocksInRootDir
	default:
		p.Type = TypeFat32
		p.BlocksInRootDir = 0
		p.RootDirCluster = binary.LittleEndian.Uint32(b[bpbRootCluster32:])
	}
	ctx.debug("classified partition", slog.String("type", p.Type.String()), slog.Int("first_block", int(p.FirstBlock)))
	return nil
}
