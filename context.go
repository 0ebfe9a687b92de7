package fat

import "log/slog"

// Context is the mounted, explicit handle to a medium: the Go-native
// replacement for the reference implementation's single process-wide
// global (see the design note in SPEC_FULL.md). Every public operation is a
// method on *Context so multiple media can be mounted independently in the
// same process.
type Context struct {
	initialized     bool
	activePartition int

	dev BlockDevice

	partition [DefaultPartitions]Partition
	file      [DefaultFileHandles]fileHandle
	cache     [numCaches]cache

	log *slog.Logger
}

// Option configures a Context at Mount time.
type Option func(*Context)

// WithLogger attaches a structured logger; by default a mounted Context is
// silent.
func WithLogger(l *slog.Logger) Option {
	return func(ctx *Context) { ctx.log = l }
}

// Mount decodes the partition table and BPB of dev and selects an active
// partition: the first bootable FAT partition found, or else the first
// supported partition. It fails if no FAT16/FAT32 partition is found.
func Mount(dev BlockDevice, opts ...Option) (*Context, error) {
	if dev == nil {
		return nil, ecBadArgument
	}
	ctx := &Context{dev: dev, activePartition: -1}
	for _, opt := range opts {
		opt(ctx)
	}
	for i := range ctx.cache {
		ctx.cache[i].init()
	}

	if err := ctx.decodePartitionTables(); err != nil {
		return nil, err
	}
	if err := ctx.classifyPartitions(); err != nil {
		return nil, err
	}

	firstBoot := -1
	for i := range ctx.partition {
		p := &ctx.partition[i]
		if p.Type == TypeUnknown {
			continue
		}
		if p.Boot && firstBoot < 0 {
			firstBoot = i
			ctx.activePartition = i
		} else if ctx.activePartition < 0 {
			ctx.activePartition = i
		}
	}
	if ctx.activePartition < 0 {
		ctx.warn("mount: no supported partition found")
		return nil, ecFormatError
	}

	ctx.initialized = true
	ctx.info("mounted", slog.Int("active_partition", ctx.activePartition))
	return ctx, nil
}

// Unmount flushes every dirty cache slot, invalidates every cache slot and
// marks the context uninitialized; subsequent calls to methods that return
// an error fail with ErrNotInitialized, Sync does nothing, and
// ActivePartition reports -1.
func (ctx *Context) Unmount() {
	_ = ctx.syncCaches()
	for i := range ctx.cache {
		ctx.cache[i] = cache{}
		ctx.cache[i].init()
	}
	ctx.activePartition = -1
	ctx.initialized = false
}

// SelectPartition changes the active partition used by Open/Stat. idx must
// name a partition classified Fat16 or Fat32.
func (ctx *Context) SelectPartition(idx int) error {
	if !ctx.initialized {
		return ecNotInitialized
	}
	if idx < 0 || idx >= len(ctx.partition) {
		return ecBadArgument
	}
	if ctx.partition[idx].Type == TypeUnknown {
		return ecUnsupported
	}
	ctx.activePartition = idx
	return nil
}

// Sync flushes every dirty cache slot to the medium without unmounting.
func (ctx *Context) Sync() {
	if !ctx.initialized {
		return
	}
	_ = ctx.syncCaches()
}

// Partitions returns a snapshot of the decoded partition table, primarily
// useful for diagnostics and for the example commands under cmd/.
func (ctx *Context) Partitions() [DefaultPartitions]Partition {
	return ctx.partition
}

// ActivePartition returns the index of the currently selected partition, or
// -1 if the context is not mounted.
func (ctx *Context) ActivePartition() int {
	return ctx.activePartition
}
