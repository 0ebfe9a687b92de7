package fat

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDevice is a minimal BlockDevice that records every write and serves
// reads from an in-memory map, used to exercise cache.go in isolation from
// the rest of the engine.
type fakeDevice struct {
	reads  map[uint32]int
	writes []uint32
	data   map[uint32][BlockSize]byte
	failOn uint32 // WriteBlock to this block number fails, if non-zero
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		reads: map[uint32]int{},
		data:  map[uint32][BlockSize]byte{},
	}
}

func (d *fakeDevice) ReadBlock(blk uint32, buf []byte) error {
	d.reads[blk]++
	block := d.data[blk]
	copy(buf, block[:])
	return nil
}

func (d *fakeDevice) WriteBlock(blk uint32, buf []byte) error {
	if d.failOn != 0 && blk == d.failOn {
		return errors.New("simulated write failure")
	}
	var block [BlockSize]byte
	copy(block[:], buf)
	d.data[blk] = block
	d.writes = append(d.writes, blk)
	return nil
}

func newTestContext(dev BlockDevice) *Context {
	ctx := &Context{dev: dev, activePartition: -1}
	for i := range ctx.cache {
		ctx.cache[i].init()
	}
	return ctx
}

// findCachedSlot looks up the slot currently holding blkNo without touching
// LRU order, unlike ctx.get/ctx.read which always promote the slot they
// return to MRU.
func findCachedSlot(ctx *Context, role cacheRole, blkNo uint32) *cachedBlock {
	c := &ctx.cache[role]
	for i := range c.slots {
		if c.slots[i].state != slotInvalid && c.slots[i].blkNo == blkNo {
			return &c.slots[i]
		}
	}
	return nil
}

func TestCacheReadHitAvoidsSecondDeviceRead(t *testing.T) {
	dev := newFakeDevice()
	ctx := newTestContext(dev)

	_, err := ctx.read(roleData, 5)
	require.NoError(t, err)
	_, err = ctx.read(roleData, 5)
	require.NoError(t, err)

	require.Equal(t, 1, dev.reads[5])
}

func TestCacheEvictsLRUSlotOnCapacityMiss(t *testing.T) {
	dev := newFakeDevice()
	ctx := newTestContext(dev)

	_, err := ctx.read(roleData, 1)
	require.NoError(t, err)
	_, err = ctx.read(roleData, 2)
	require.NoError(t, err)
	// Both slots now hold blocks 1 and 2 (K=2); fetching a third block must
	// evict one of them.
	_, err = ctx.read(roleData, 3)
	require.NoError(t, err)

	// Re-reading block 1 should now cost a second device read, since it was
	// the least-recently-used slot and was evicted.
	before := dev.reads[1]
	_, err = ctx.read(roleData, 1)
	require.NoError(t, err)
	require.Greater(t, dev.reads[1], before)
}

func TestCacheMostRecentlyUsedSurvivesEviction(t *testing.T) {
	dev := newFakeDevice()
	ctx := newTestContext(dev)

	_, err := ctx.read(roleData, 1)
	require.NoError(t, err)
	_, err = ctx.read(roleData, 2)
	require.NoError(t, err)
	// Touch block 1 again, promoting it to MRU ahead of block 2.
	_, err = ctx.read(roleData, 1)
	require.NoError(t, err)
	_, err = ctx.read(roleData, 3)
	require.NoError(t, err)

	before := dev.reads[1]
	_, err = ctx.read(roleData, 1)
	require.NoError(t, err)
	require.Equal(t, before, dev.reads[1], "block 1 should still be cached")
}

func TestCacheFlushesDirtySlotOnEviction(t *testing.T) {
	dev := newFakeDevice()
	ctx := newTestContext(dev)

	_, err := ctx.read(roleData, 1)
	require.NoError(t, err)
	_, err = ctx.read(roleData, 2)
	require.NoError(t, err)

	// Simulate a prior write to block 1's slot, without disturbing LRU order.
	slot := findCachedSlot(ctx, roleData, 1)
	require.NotNil(t, slot)
	slot.buf[0] = 0xAB
	slot.state = slotDirty

	// Forcing in a third block evicts the LRU slot (block 1), which must
	// flush before being reused.
	_, err = ctx.read(roleData, 3)
	require.NoError(t, err)

	require.Contains(t, dev.writes, uint32(1))
	require.Equal(t, byte(0xAB), dev.data[1][0])
}

func TestCacheEvictionFlushFailureInvalidatesSlot(t *testing.T) {
	dev := newFakeDevice()
	dev.failOn = 1
	ctx := newTestContext(dev)

	_, err := ctx.read(roleData, 1)
	require.NoError(t, err)
	_, err = ctx.read(roleData, 2)
	require.NoError(t, err)

	slot := findCachedSlot(ctx, roleData, 1)
	require.NotNil(t, slot)
	slot.state = slotDirty

	_, err = ctx.read(roleData, 3)
	require.ErrorIs(t, err, ErrMediumFailure)
	require.Equal(t, slotInvalid, slot.state)
}

func TestSyncCachesFlushesAllDirtySlots(t *testing.T) {
	dev := newFakeDevice()
	ctx := newTestContext(dev)

	_, err := ctx.read(roleData, 1)
	require.NoError(t, err)
	_, err = ctx.read(roleFAT, 9)
	require.NoError(t, err)

	slotData, err := ctx.get(roleData, 1)
	require.NoError(t, err)
	slotData.state = slotDirty
	slotFAT, err := ctx.get(roleFAT, 9)
	require.NoError(t, err)
	slotFAT.state = slotDirty

	require.NoError(t, ctx.syncCaches())
	require.Contains(t, dev.writes, uint32(1))
	require.Contains(t, dev.writes, uint32(9))
	require.Equal(t, slotValid, slotData.state)
	require.Equal(t, slotValid, slotFAT.state)
}
