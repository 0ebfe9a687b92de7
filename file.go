package fat

import "log/slog"

// DefaultFileHandles is the fixed open-file capacity F.
const DefaultFileHandles = 4

// oflag bits recognized by Open.
const (
	ORDONLY    = 1
	OWRONLY    = 2
	ORDWR      = 3
	OAPPEND    = 4
	OCREAT     = 8
	ODIRECTORY = 16
)

// whence values recognized by Lseek.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// fileHandle is one slot of the fixed handle table.
type fileHandle struct {
	open           bool
	oflag          int
	offset         uint32
	currentCluster uint32
	entry          dirEntry
}

func (ctx *Context) getFile(fd int) (*fileHandle, error) {
	if !ctx.initialized {
		return nil, ecNotInitialized
	}
	if fd < 0 || fd >= len(ctx.file) {
		return nil, ecBadArgument
	}
	f := &ctx.file[fd]
	if !f.open {
		return nil, ecBadArgument
	}
	return f, nil
}

// Open resolves path against the active partition and claims the
// lowest-numbered free handle. oflag must set at least one of
// ORDONLY/OWRONLY.
func (ctx *Context) Open(path string, oflag int) (int, error) {
	if !ctx.initialized || ctx.activePartition < 0 {
		return -1, ecNotInitialized
	}
	if path == "" || oflag&ORDWR == 0 {
		return -1, ecBadArgument
	}

	fd := -1
	for i := range ctx.file {
		if !ctx.file[i].open {
			fd = i
			break
		}
	}
	if fd < 0 {
		return -1, ecNoResource
	}

	entry, exists, err := ctx.findFile(ctx.activePartition, path)
	if err != nil {
		return -1, err
	}
	if exists && entry.isDir() {
		ctx.debug("open: refusing to open a directory")
		return -1, ecUnsupported
	}
	if !exists {
		if oflag&OCREAT != 0 {
			return -1, ecUnsupported
		}
		return -1, ecNotFound
	}

	f := &ctx.file[fd]
	f.open = true
	f.oflag = oflag
	f.currentCluster = entry.firstCluster
	f.offset = 0
	f.entry = entry

	ctx.trace("opened file",
		slog.Int("fd", fd),
		slog.Int("first_cluster", int(entry.firstCluster)),
		slog.Int("size", int(entry.size)),
	)
	return fd, nil
}

// Close releases fd. Handles opened with OWRONLY flush every dirty cache
// slot first, matching the "close implies a partial sync" guarantee.
func (ctx *Context) Close(fd int) error {
	f, err := ctx.getFile(fd)
	if err != nil {
		return err
	}
	if f.oflag&OWRONLY != 0 {
		if err := ctx.syncCaches(); err != nil {
			return err
		}
	}
	f.open = false
	return nil
}

// Read implements the three-phase head/middle/tail read described in §4.7:
// an unaligned leading block and trailing block go through the DATA cache,
// whole aligned blocks in between are read straight into buf to avoid
// polluting the cache.
func (ctx *Context) Read(fd int, buf []byte) (int, error) {
	f, err := ctx.getFile(fd)
	if err != nil {
		return 0, err
	}
	if f.oflag&ORDONLY == 0 {
		return 0, ecBadArgument
	}

	remain := f.entry.size - f.offset
	n := uint32(len(buf))
	if n > remain {
		n = remain
	}
	if n == 0 {
		return 0, nil
	}

	part := &ctx.partition[f.entry.partitionIndex]
	pos := filePos(part, f.currentCluster, f.offset)
	var done uint32

	if blockOffset := f.offset % BlockSize; blockOffset != 0 {
		slot, err := ctx.read(roleData, pos.blkNo())
		if err != nil {
			return int(done), err
		}
		tailInBlock := uint32(BlockSize) - blockOffset
		toCopy := min(tailInBlock, n)
		copy(buf[done:done+toCopy], slot.buf[blockOffset:blockOffset+toCopy])
		done += toCopy
		if toCopy == tailInBlock {
			if err := pos.advance(ctx, part); err != nil {
				return int(done), err
			}
		}
	}

	for n-done >= BlockSize {
		if !pos.hasMore() {
			return int(done), ecFormatError
		}
		if err := ctx.dev.ReadBlock(pos.blkNo(), buf[done:done+BlockSize]); err != nil {
			return int(done), wrapMedium(err)
		}
		done += BlockSize
		if err := pos.advance(ctx, part); err != nil {
			return int(done), err
		}
	}

	if done < n {
		if !pos.hasMore() {
			return int(done), ecFormatError
		}
		slot, err := ctx.read(roleData, pos.blkNo())
		if err != nil {
			return int(done), err
		}
		toCopy := n - done
		copy(buf[done:done+toCopy], slot.buf[:toCopy])
		done += toCopy
	}

	f.currentCluster = pos.clusterNo
	f.offset += done
	return int(done), nil
}

// Write is reserved surface: extending files and writing through existing
// clusters are not implemented, so this always fails once the oflag check
// passes.
func (ctx *Context) Write(fd int, buf []byte) (int, error) {
	f, err := ctx.getFile(fd)
	if err != nil {
		return 0, err
	}
	if f.oflag&OWRONLY == 0 {
		return 0, ecBadArgument
	}
	return 0, ecUnsupported
}

// Lseek computes the target offset in 64-bit arithmetic, rejects negative
// or past-EOF targets, and walks the singly-linked cluster chain from
// either the handle's current cluster or the first cluster (whichever is
// closer, since the chain cannot be walked backwards).
func (ctx *Context) Lseek(fd int, offset int64, whence int) (int64, error) {
	f, err := ctx.getFile(fd)
	if err != nil {
		return 0, err
	}

	var target int64
	switch whence {
	case SeekSet:
		target = offset
	case SeekEnd:
		target = int64(f.entry.size) + offset
	case SeekCur:
		target = int64(f.offset) + offset
	default:
		return 0, ecBadArgument
	}
	if target < 0 || target > int64(f.entry.size) {
		return 0, ecBadArgument
	}
	targetOffset := uint32(target)

	part := &ctx.partition[f.entry.partitionIndex]
	bytesPerCluster := part.BlocksPerCluster * BlockSize

	currentCluster := f.currentCluster
	clusterOffset := f.offset - f.offset%bytesPerCluster
	if targetOffset < clusterOffset {
		currentCluster = f.entry.firstCluster
		clusterOffset = 0
	}

	for targetOffset-clusterOffset >= bytesPerCluster {
		if isEOC(currentCluster) {
			return 0, ecFormatError
		}
		next, err := ctx.nextCluster(part, currentCluster)
		if err != nil {
			return 0, err
		}
		currentCluster = next
		clusterOffset += bytesPerCluster
	}

	f.offset = targetOffset
	f.currentCluster = currentCluster
	return int64(targetOffset), nil
}

// Stat resolves path against the active partition and decodes its
// directory entry.
func (ctx *Context) Stat(path string) (FileInfo, error) {
	if !ctx.initialized || ctx.activePartition < 0 {
		return FileInfo{}, ecNotInitialized
	}
	if path == "" {
		return FileInfo{}, ecBadArgument
	}
	entry, exists, err := ctx.findFile(ctx.activePartition, path)
	if err != nil {
		return FileInfo{}, err
	}
	if !exists {
		return FileInfo{}, ecNotFound
	}
	return ctx.dirEntryToFileInfo(entry)
}

// Fstat decodes the directory entry recorded at Open time for fd.
func (ctx *Context) Fstat(fd int) (FileInfo, error) {
	f, err := ctx.getFile(fd)
	if err != nil {
		return FileInfo{}, err
	}
	return ctx.dirEntryToFileInfo(f.entry)
}
