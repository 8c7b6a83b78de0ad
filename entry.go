package qrfs

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Kind distinguishes a directory entry from a regular file entry.
type Kind uint8

const (
	KindDirectory Kind = 0
	KindRegular   Kind = 1
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// maxNameLen is the fixed width of the on-disk name field.
const maxNameLen = 25

// entryHeaderSize is the fixed portion of one serialized entry, before the
// inline data payload.
const entryHeaderSize = 88

// maxInlineData is the largest data payload that fits alongside an entry's
// header in one block.
const maxInlineData = blockSize - entryHeaderSize

// Entry is one filesystem object: a directory or a regular file.
type Entry struct {
	Inode    uint64
	Parent   uint64
	Name     string
	Kind     Kind
	Attrs    Attrs
	Data     []byte   // nil for directories; present (possibly empty) for regular files
	Children []uint64 // in-memory only, rebuilt from Parent pointers at load time
}

// validateName enforces the naming rules: no '/', not "." or "..", at most
// maxNameLen bytes.
func validateName(name string) error {
	if name == "" || len(name) > maxNameLen {
		return ErrInvalidName
	}
	if strings.Contains(name, "/") {
		return ErrInvalidName
	}
	if name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}

// encodeEntry packs e into exactly one block's worth of bytes, per the fixed
// little-endian layout:
//
//	offset  size  field
//	0       8     inode
//	8       8     parent
//	16      25    name (zero-padded)
//	41      1     is_directory
//	42      2     permission bits
//	44      8     atime seconds
//	52      8     mtime seconds
//	60      8     ctime seconds
//	68      8     crtime seconds
//	76      4     preferred blocksize
//	80      8     data size D
//	88      D     inline data
func encodeEntry(e *Entry) ([]byte, error) {
	if err := validateName(e.Name); err != nil {
		return nil, err
	}
	if len(e.Data) > maxInlineData {
		return nil, fmt.Errorf("%w: entry data exceeds %d bytes", ErrIO, maxInlineData)
	}

	buf := make([]byte, entryHeaderSize+len(e.Data))
	binary.LittleEndian.PutUint64(buf[0:8], e.Inode)
	binary.LittleEndian.PutUint64(buf[8:16], e.Parent)
	copy(buf[16:16+maxNameLen], e.Name)
	if e.Kind == KindDirectory {
		buf[41] = 0
	} else {
		buf[41] = 1
	}
	binary.LittleEndian.PutUint16(buf[42:44], e.Attrs.Perm)
	binary.LittleEndian.PutUint64(buf[44:52], uint64(e.Attrs.Atime.Unix()))
	binary.LittleEndian.PutUint64(buf[52:60], uint64(e.Attrs.Mtime.Unix()))
	binary.LittleEndian.PutUint64(buf[60:68], uint64(e.Attrs.Ctime.Unix()))
	binary.LittleEndian.PutUint64(buf[68:76], uint64(e.Attrs.Crtime.Unix()))
	binary.LittleEndian.PutUint32(buf[76:80], e.Attrs.BlkSize)
	binary.LittleEndian.PutUint64(buf[80:88], uint64(len(e.Data)))
	copy(buf[88:], e.Data)
	return buf, nil
}

// decodeEntry is the inverse of encodeEntry. Sub-second timestamp precision
// is not present on the disk form; callers receive zero nanoseconds.
func decodeEntry(buf []byte) (*Entry, error) {
	if len(buf) < entryHeaderSize {
		return nil, fmt.Errorf("%w: truncated entry block", ErrCorruptMetadata)
	}
	e := &Entry{}
	e.Inode = binary.LittleEndian.Uint64(buf[0:8])
	e.Parent = binary.LittleEndian.Uint64(buf[8:16])
	e.Name = fixedNameToString(buf[16 : 16+maxNameLen])
	if buf[41] == 0 {
		e.Kind = KindDirectory
	} else {
		e.Kind = KindRegular
	}
	e.Attrs.Perm = binary.LittleEndian.Uint16(buf[42:44])
	e.Attrs.Atime = secondsToTime(binary.LittleEndian.Uint64(buf[44:52]))
	e.Attrs.Mtime = secondsToTime(binary.LittleEndian.Uint64(buf[52:60]))
	e.Attrs.Ctime = secondsToTime(binary.LittleEndian.Uint64(buf[60:68]))
	e.Attrs.Crtime = secondsToTime(binary.LittleEndian.Uint64(buf[68:76]))
	e.Attrs.BlkSize = binary.LittleEndian.Uint32(buf[76:80])

	size := binary.LittleEndian.Uint64(buf[80:88])
	if size > uint64(len(buf)-entryHeaderSize) {
		return nil, fmt.Errorf("%w: entry data size out of range", ErrCorruptMetadata)
	}
	if e.Kind == KindRegular {
		e.Data = make([]byte, size)
		copy(e.Data, buf[entryHeaderSize:entryHeaderSize+int(size)])
		e.Attrs.Size = size
	}
	return e, nil
}

func fixedNameToString(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}
