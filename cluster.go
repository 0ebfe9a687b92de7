package fat

import "encoding/binary"

// eocSentinel is the smallest FAT32-space cluster value that marks
// end-of-chain; FAT16 entries are widened into this same 28-bit space by
// nextCluster so callers only ever compare against one constant.
const eocSentinel = 0x0FFFFFF8

// badCluster is the FAT32-space "bad cluster" sentinel.
const badCluster = 0x0FFFFFF7

// isEOC reports whether cluster marks the end of a chain.
func isEOC(cluster uint32) bool {
	return cluster >= eocSentinel
}

// firstBlockOfCluster returns the absolute block number of the first block
// of cluster within part's data region.
func firstBlockOfCluster(part *Partition, cluster uint32) uint32 {
	return part.FirstDataBlock + (cluster-2)*part.BlocksPerCluster
}

// nextCluster follows the singly-linked FAT chain by one hop, widening
// FAT16 entries into FAT32-sentinel space so callers have one comparison to
// make for end-of-chain and bad-cluster detection.
func (ctx *Context) nextCluster(part *Partition, cur uint32) (uint32, error) {
	entrySize := uint32(2)
	if part.Type == TypeFat32 {
		entrySize = 4
	}
	fatOffset := entrySize * cur
	fatBlock := part.FirstBlock + part.NumReservedBlocks + fatOffset/BlockSize
	inBlock := fatOffset % BlockSize

	slot, err := ctx.read(roleFAT, fatBlock)
	if err != nil {
		return 0, err
	}

	var next uint32
	if part.Type == TypeFat32 {
		next = binary.LittleEndian.Uint32(slot.buf[inBlock:]) & 0x0FFFFFFF
	} else {
		v := binary.LittleEndian.Uint16(slot.buf[inBlock:])
		next = uint32(v)
		if next >= 0xFFF7 {
			next |= 0x0FFF0000
		}
	}
	if next == 0 || next == badCluster {
		return 0, ecFormatError
	}
	return next, nil
}

// clusterPos is an ephemeral position within either a cluster chain (FAT32,
// or any subdirectory) or the fixed-size FAT16 root directory. It is never
// persisted across public API calls.
type clusterPos struct {
	clusterNo       uint32 // 0 for the synthetic FAT16 root position
	blockInCluster  uint32
	clusterStartBlk uint32

	isRoot       bool // true: FAT16 fixed-size root directory
	rootRemaining uint32 // remaining blocks in the FAT16 root, only when isRoot
}

// blkNo returns the absolute block number the position currently refers to.
func (cp *clusterPos) blkNo() uint32 {
	return cp.clusterStartBlk + cp.blockInCluster
}

// hasMore reports whether at least one more block remains to be visited
// (FAT16 root: bounded by rootRemaining; chains: bounded by end-of-chain).
func (cp *clusterPos) hasMore() bool {
	if cp.isRoot {
		return cp.rootRemaining > 0
	}
	return !isEOC(cp.clusterNo)
}

// rootPos returns the initial position at the root directory of part.
func rootPos(part *Partition) clusterPos {
	if part.Type == TypeFat32 {
		return clusterPos{
			clusterNo:       part.RootDirCluster,
			clusterStartBlk: firstBlockOfCluster(part, part.RootDirCluster),
		}
	}
	return clusterPos{
		isRoot:        true,
		clusterStartBlk: part.RootDirBlock,
		rootRemaining: part.BlocksInRootDir,
	}
}

// subdirPos returns the initial position at the start of a subdirectory
// whose first cluster is startCluster.
func subdirPos(part *Partition, startCluster uint32) clusterPos {
	return clusterPos{
		clusterNo:       startCluster,
		clusterStartBlk: firstBlockOfCluster(part, startCluster),
	}
}

// filePos returns the position of byte offset off within a file, given
// currentCluster, the cluster that contains off (used for resuming from an
// open handle's current_cluster).
func filePos(part *Partition, currentCluster uint32, off uint32) clusterPos {
	bytesPerCluster := part.BlocksPerCluster * BlockSize
	blockInCluster := (off % bytesPerCluster) / BlockSize
	return clusterPos{
		clusterNo:       currentCluster,
		blockInCluster:  blockInCluster,
		clusterStartBlk: firstBlockOfCluster(part, currentCluster) ,
	}
}

// advance moves the position forward by exactly one block, crossing a
// cluster boundary (via the FAT) or decrementing the root's block budget as
// appropriate.
func (cp *clusterPos) advance(ctx *Context, part *Partition) error {
	if cp.isRoot {
		cp.rootRemaining--
		cp.clusterStartBlk++
		return nil
	}
	cp.blockInCluster++
	if cp.blockInCluster >= part.BlocksPerCluster {
		next, err := ctx.nextCluster(part, cp.clusterNo)
		if err != nil {
			return err
		}
		cp.clusterNo = next
		cp.blockInCluster = 0
		if !isEOC(next) {
			cp.clusterStartBlk = firstBlockOfCluster(part, next)
		}
	}
	return nil
}
