package fat

import (
	"encoding/binary"
	"time"
)

// FileMode carries the two attributes callers branch on: directory and
// read-only. ModeDir uses the same bit as io/fs.ModeDir; ModeReadOnly is
// this package's own bit (io/fs uses that bit for owner-read permission).
type FileMode uint32

const (
	ModeDir FileMode = 1 << 31
	// ModeReadOnly is set when the FAT READ_ONLY attribute bit is present;
	// the engine clears no other write-permission bits since it has none to
	// begin with (write support is rudimentary, see §4.7).
	ModeReadOnly FileMode = 1 << 8
)

func (m FileMode) IsDir() bool { return m&ModeDir != 0 }

// FileInfo is the result of Stat/Fstat: §4.7's decoded directory entry.
type FileInfo struct {
	Size    int64
	Mode    FileMode
	ModTime time.Time
}

func (fi FileInfo) IsDir() bool { return fi.Mode.IsDir() }

// decodeFATTime converts a FAT date/time word pair into a time.Time, per
// §4.7/§8's bit layout and round-trip example.
func decodeFATTime(date, t uint16) time.Time {
	year := 1980 + int(date>>9)
	month := int((date >> 5) & 0x0F)
	day := int(date & 0x1F)
	hour := int(t >> 11)
	minute := int((t >> 5) & 0x3F)
	second := int(t&0x1F) * 2
	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}

// dirEntryToFileInfo loads the block holding entry's directory record
// (normally still resident in the DATA cache) and decodes its stat fields.
// The root directory has no record of its own to decode (it isn't described
// by an entry within itself), so it's reported with a fixed, zero-value
// ModTime instead.
func (ctx *Context) dirEntryToFileInfo(entry dirEntry) (FileInfo, error) {
	if entry.isRoot {
		return FileInfo{Size: 0, Mode: ModeDir}, nil
	}
	slot, err := ctx.read(roleData, entry.dirEntryBlock)
	if err != nil {
		return FileInfo{}, err
	}
	e := slot.buf[entry.dirEntryOffset : entry.dirEntryOffset+dirEntrySize]

	var mode FileMode
	if e[dirAttrOff]&attrReadOnly != 0 {
		mode |= ModeReadOnly
	}
	if e[dirAttrOff]&attrDir != 0 {
		mode |= ModeDir
	}
	writeTime := binary.LittleEndian.Uint16(e[dirWriteTimeOff:])
	writeDate := binary.LittleEndian.Uint16(e[dirWriteDateOff:])

	return FileInfo{
		Size:    int64(binary.LittleEndian.Uint32(e[dirFileSizeOff:])),
		Mode:    mode,
		ModTime: decodeFATTime(writeDate, writeTime),
	}, nil
}
