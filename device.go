package fat

import (
	"io"
	"os"
)

// FileDevice adapts an *os.File (an image file or, on platforms that expose
// it as a path, a raw block device) to BlockDevice.
type FileDevice struct {
	f *os.File
}

// NewFileDevice wraps f. Callers own f's lifetime; FileDevice never closes
// it.
func NewFileDevice(f *os.File) *FileDevice {
	return &FileDevice{f: f}
}

func (d *FileDevice) ReadBlock(blk uint32, buf []byte) error {
	n, err := d.f.ReadAt(buf[:BlockSize], int64(blk)*BlockSize)
	if err == io.EOF && (n == BlockSize || n == 0) {
		return nil
	}
	return err
}

func (d *FileDevice) WriteBlock(blk uint32, buf []byte) error {
	_, err := d.f.WriteAt(buf[:BlockSize], int64(blk)*BlockSize)
	return err
}
