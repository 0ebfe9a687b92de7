package fat

import "encoding/binary"

const (
	dirEntrySize    = 32
	dirAttrOff      = 11
	dirClusterHiOff = 20
	dirWriteTimeOff = 22
	dirWriteDateOff = 24
	dirClusterLoOff = 26
	dirFileSizeOff  = 28

	attrReadOnly = 0x01
	attrDir      = 0x10

	dirFree    = 0x00
	dirDeleted = 0xE5
)

// dirEntry is the "file info" of §3: the static facts recorded at open time
// about a resolved directory entry, enough to reopen the file's data and to
// re-read its stat fields on demand.
type dirEntry struct {
	partitionIndex int
	size           uint32
	firstCluster   uint32
	dirEntryBlock  uint32
	dirEntryOffset uint32
	attr           byte
	isRoot         bool
}

func (d dirEntry) isDir() bool { return d.attr&attrDir != 0 }

// rootEntry is the synthetic dirEntry returned when a path resolves to the
// root directory itself (e.g. "/" or ""). It carries no backing directory
// record of its own (the root directory isn't described by an entry within
// itself), so dirEntryToFileInfo must special-case isRoot rather than read
// dirEntryBlock/dirEntryOffset.
func rootEntry(partIdx int) dirEntry {
	return dirEntry{partitionIndex: partIdx, attr: attrDir, isRoot: true}
}

// findFile resolves path against the root directory of the given partition.
// exists reports whether a matching, non-deleted entry was found; when
// exists is false the returned dirEntry is meaningless. A non-nil error
// indicates a hard medium/format failure encountered while walking.
func (ctx *Context) findFile(partIdx int, path string) (entry dirEntry, exists bool, err error) {
	part := &ctx.partition[partIdx]
	pos := rootPos(part)
	cur := rootEntry(partIdx)

	idx := 0
	for {
		name, next := canonicalizeComponent(path, idx)
		if isAllSpaces(name) {
			if next < 0 {
				return cur, true, nil
			}
			idx = next
			continue
		}

		found, matched, ferr := ctx.scanDirectory(part, &pos, name)
		if ferr != nil {
			return dirEntry{}, false, ferr
		}
		if !found {
			return dirEntry{}, false, nil
		}

		isLast := next < 0
		matched.partitionIndex = partIdx
		if isLast {
			return matched, true, nil
		}
		if !matched.isDir() {
			return dirEntry{}, false, nil
		}
		cur = matched
		pos = subdirPos(part, matched.firstCluster)
		idx = next
	}
}

// scanDirectory scans the directory beginning at pos for an entry whose
// name+ext bytes equal name. found reports whether a non-deleted entry
// pointer matched before the directory terminated or its block budget was
// exhausted.
func (ctx *Context) scanDirectory(part *Partition, pos *clusterPos, name [11]byte) (found bool, entry dirEntry, err error) {
	for pos.hasMore() {
		blk := pos.blkNo()
		slot, rerr := ctx.read(roleData, blk)
		if rerr != nil {
			return false, dirEntry{}, rerr
		}

		for off := 0; off+dirEntrySize <= BlockSize; off += dirEntrySize {
			e := slot.buf[off : off+dirEntrySize]
			switch e[0] {
			case dirFree:
				// 0x00 terminates the entire directory: no further entries
				// exist anywhere past this point.
				return false, dirEntry{}, nil
			case dirDeleted:
				continue
			}
			if !nameEquals(e[:11], name) {
				continue
			}
			hi := binary.LittleEndian.Uint16(e[dirClusterHiOff:])
			lo := binary.LittleEndian.Uint16(e[dirClusterLoOff:])
			return true, dirEntry{
				size:           binary.LittleEndian.Uint32(e[dirFileSizeOff:]),
				firstCluster:   uint32(hi)<<16 | uint32(lo),
				dirEntryBlock:  blk,
				dirEntryOffset: uint32(off),
				attr:           e[dirAttrOff],
			}, nil
		}

		if err := pos.advance(ctx, part); err != nil {
			return false, dirEntry{}, err
		}
	}
	return false, dirEntry{}, nil
}

func nameEquals(entryName []byte, name [11]byte) bool {
	for i := 0; i < 11; i++ {
		if entryName[i] != name[i] {
			return false
		}
	}
	return true
}

// DirEntryInfo is one listed entry of ReadDir: the human-readable form of an
// 8.3 directory record.
type DirEntryInfo struct {
	Name  string
	IsDir bool
	Size  uint32
}

// displayName reformats an 11-byte 8.3 directory name as "BASE.EXT" (or just
// "BASE" when the extension is blank), trimming padding spaces.
func displayName(raw [11]byte) string {
	base := trimSpaces(raw[0:8])
	ext := trimSpaces(raw[8:11])
	if ext == "" {
		return base
	}
	return base + "." + ext
}

func trimSpaces(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == ' ' {
		end--
	}
	return string(b[:end])
}

// ReadDir resolves path to a directory on the active partition and lists its
// immediate, non-deleted entries.
func (ctx *Context) ReadDir(path string) ([]DirEntryInfo, error) {
	if !ctx.initialized || ctx.activePartition < 0 {
		return nil, ecNotInitialized
	}
	entry, exists, err := ctx.findFile(ctx.activePartition, path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ecNotFound
	}
	if !entry.isDir() && path != "/" && path != "" {
		return nil, ecUnsupported
	}

	part := &ctx.partition[ctx.activePartition]
	var pos clusterPos
	if entry.firstCluster == 0 {
		pos = rootPos(part)
	} else {
		pos = subdirPos(part, entry.firstCluster)
	}

	var out []DirEntryInfo
	for pos.hasMore() {
		blk := pos.blkNo()
		slot, rerr := ctx.read(roleData, blk)
		if rerr != nil {
			return nil, rerr
		}
		for off := 0; off+dirEntrySize <= BlockSize; off += dirEntrySize {
			e := slot.buf[off : off+dirEntrySize]
			switch e[0] {
			case dirFree:
				return out, nil
			case dirDeleted:
				continue
			}
			var raw [11]byte
			copy(raw[:], e[0:11])
			out = append(out, DirEntryInfo{
				Name:  displayName(raw),
				IsDir: e[dirAttrOff]&attrDir != 0,
				Size:  binary.LittleEndian.Uint32(e[dirFileSizeOff:]),
			})
		}
		if err := pos.advance(ctx, part); err != nil {
			return nil, err
		}
	}
	return out, nil
}
