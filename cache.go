package fat

import "log/slog"

// DefaultCacheSlots is the per-role cache capacity K. Exposed as a build
// parameter per the fixed-capacity design note; override by editing this
// constant and recompiling for a given target.
const DefaultCacheSlots = 2

// cacheRole partitions the two independent caches by the kind of block they
// hold, so FAT-entry lookups never evict data blocks under read-heavy
// workloads.
type cacheRole int

const (
	roleData cacheRole = iota
	roleFAT
	numCaches
)

func (r cacheRole) String() string {
	switch r {
	case roleData:
		return "data"
	case roleFAT:
		return "fat"
	default:
		return "unknown"
	}
}

// slotState is the lifecycle of a single cached block.
type slotState uint8

const (
	slotInvalid slotState = iota
	slotValid
	slotDirty
)

func (s slotState) String() string {
	switch s {
	case slotInvalid:
		return "invalid"
	case slotValid:
		return "valid"
	case slotDirty:
		return "dirty"
	default:
		return "unknown"
	}
}

// cachedBlock is one slot: a 512-byte buffer, the absolute block number it
// currently holds, and its state.
type cachedBlock struct {
	state slotState
	blkNo uint32
	buf   [BlockSize]byte
}

// cache is a small fixed pool of slots plus an LRU ordering vector of slot
// indices, most-recently-used first. It is a linear-scan priority queue,
// which is the right tradeoff for K <= 8.
type cache struct {
	slots [DefaultCacheSlots]cachedBlock
	pri   [DefaultCacheSlots]int
}

func (c *cache) init() {
	for i := range c.pri {
		c.pri[i] = i
	}
}

// promote moves the slot index stored at pri[pos] to the MRU (front) position.
func (c *cache) promote(pos int) {
	idx := c.pri[pos]
	copy(c.pri[1:pos+1], c.pri[0:pos])
	c.pri[0] = idx
}

// get returns the slot holding blkNo, fetching a victim slot and flushing it
// first if necessary. It never performs the medium read itself; callers that
// need the contents call read instead.
func (ctx *Context) get(role cacheRole, blkNo uint32) (*cachedBlock, error) {
	c := &ctx.cache[role]

	// Scan for a slot that already holds this block.
	for pos, idx := range c.pri {
		slot := &c.slots[idx]
		if slot.state != slotInvalid && slot.blkNo == blkNo {
			c.promote(pos)
			ctx.trace("cache hit", slog.String("role", role.String()), slog.Int("blk", int(blkNo)))
			return slot, nil
		}
	}

	// Miss: evict the LRU-tail slot.
	tail := len(c.pri) - 1
	idx := c.pri[tail]
	slot := &c.slots[idx]
	c.promote(tail)

	if slot.state != slotInvalid && slot.blkNo != blkNo {
		if slot.state == slotDirty {
			ctx.trace("cache flush on eviction", slog.String("role", role.String()), slog.Int("blk", int(slot.blkNo)))
			if err := ctx.dev.WriteBlock(slot.blkNo, slot.buf[:]); err != nil {
				// Leave the slot forced to Invalid so a later reassignment
				// re-fetches instead of trusting stale data.
				slot.state = slotInvalid
				ctx.logerror("cache eviction flush failed", slog.Int("blk", int(slot.blkNo)))
				return nil, wrapMedium(err)
			}
		}
		slot.state = slotInvalid
	}
	slot.blkNo = blkNo
	return slot, nil
}

// read returns the slot for blkNo, populated with the block's contents.
func (ctx *Context) read(role cacheRole, blkNo uint32) (*cachedBlock, error) {
	slot, err := ctx.get(role, blkNo)
	if err != nil {
		return nil, err
	}
	if slot.state == slotInvalid {
		if err := ctx.dev.ReadBlock(blkNo, slot.buf[:]); err != nil {
			return nil, wrapMedium(err)
		}
		slot.state = slotValid
	}
	return slot, nil
}

// syncCaches writes back every Dirty slot across every cache and downgrades
// it to Valid. Used by Sync and by Unmount/Close on writable handles.
func (ctx *Context) syncCaches() error {
	for r := range ctx.cache {
		c := &ctx.cache[r]
		for i := range c.slots {
			slot := &c.slots[i]
			if slot.state == slotDirty {
				if err := ctx.dev.WriteBlock(slot.blkNo, slot.buf[:]); err != nil {
					ctx.logerror("sync flush failed", slog.Int("blk", int(slot.blkNo)))
					return wrapMedium(err)
				}
				slot.state = slotValid
			}
		}
	}
	return nil
}
