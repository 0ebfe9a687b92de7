package fat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildTwoClusterFAT16Image builds a FAT16 volume with a single file spanning
// exactly two one-block clusters, so the cluster boundary falls precisely at
// byte offset 512 within the file. badChain, if true, marks the first
// cluster's FAT entry as unmapped (0) instead of continuing the chain, to
// exercise the corrupted-chain failure path.
func buildTwoClusterFAT16Image(t *testing.T, badChain bool) []byte {
	t.Helper()
	b := newImageBuilder()

	bpb := make([]byte, BlockSize)
	writeBPB(bpb, bpbParams{
		blocksPerCluster: 1,
		reservedBlocks:   1,
		numFATs:          1,
		rootEntCnt:       16,
		blocksPerFAT:     1,
		totalBlocks:      10000,
	})
	b.set(0, bpb)

	fatBlock := make([]byte, BlockSize)
	if badChain {
		fat16Entry(fatBlock, 2, 0) // unmapped: corrupt chain
	} else {
		fat16Entry(fatBlock, 2, 3)
	}
	fat16Entry(fatBlock, 3, 0xFFFF) // end-of-chain
	b.set(1, fatBlock)

	const fileSize = 600
	root := make([]byte, BlockSize)
	copy(root[0:32], dirEntryBytes(name83("BIG", "TXT"), 0x20, 2, fileSize, 0x54A5, 0x6000))
	b.set(2, root)

	cluster0 := bytes.Repeat([]byte{'X'}, BlockSize)
	b.set(3, cluster0)
	cluster1 := make([]byte, BlockSize)
	copy(cluster1, bytes.Repeat([]byte{'Y'}, fileSize-BlockSize))
	b.set(4, cluster1)

	return b.bytes()
}

func expectedByteAt(offset int) byte {
	if offset < BlockSize {
		return 'X'
	}
	return 'Y'
}

func TestReadAtClusterBoundaryOffsets(t *testing.T) {
	image := buildTwoClusterFAT16Image(t, false)
	ctx, err := Mount(newMemDevice(image))
	require.NoError(t, err)

	for _, offset := range []int{0, 1, 511, 512, 513} {
		fd, err := ctx.Open("/big.txt", ORDONLY)
		require.NoError(t, err)

		_, err = ctx.Lseek(fd, int64(offset), SeekSet)
		require.NoError(t, err)

		buf := make([]byte, 1)
		n, err := ctx.Read(fd, buf)
		require.NoError(t, err, "offset %d", offset)
		require.Equal(t, 1, n)
		require.Equal(t, expectedByteAt(offset), buf[0], "offset %d", offset)

		require.NoError(t, ctx.Close(fd))
	}
}

func TestReadWholeFileAcrossClusterBoundary(t *testing.T) {
	image := buildTwoClusterFAT16Image(t, false)
	ctx, err := Mount(newMemDevice(image))
	require.NoError(t, err)

	fd, err := ctx.Open("/big.txt", ORDONLY)
	require.NoError(t, err)

	buf := make([]byte, 600)
	n, err := ctx.Read(fd, buf)
	require.NoError(t, err)
	require.Equal(t, 600, n)
	require.Equal(t, bytes.Repeat([]byte{'X'}, 512), buf[:512])
	require.Equal(t, bytes.Repeat([]byte{'Y'}, 88), buf[512:600])
}

func TestReadAcrossCorruptedChainFails(t *testing.T) {
	image := buildTwoClusterFAT16Image(t, true)
	ctx, err := Mount(newMemDevice(image))
	require.NoError(t, err)

	fd, err := ctx.Open("/big.txt", ORDONLY)
	require.NoError(t, err)

	buf := make([]byte, 600)
	_, err = ctx.Read(fd, buf)
	require.Error(t, err)
}
