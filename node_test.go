package qrfs

import (
	"syscall"
	"testing"

	"github.com/hanwen/go-fuse/v2/fs"
)

func TestErrnoForMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want syscall.Errno
	}{
		{nil, fs.OK},
		{ErrNoEnt, syscall.ENOENT},
		{ErrNotDir, syscall.ENOTDIR},
		{ErrIsDir, syscall.EISDIR},
		{ErrNotEmpty, syscall.ENOTEMPTY},
		{ErrNameClash, syscall.EEXIST},
		{ErrNoSpace, syscall.ENOSPC},
		{ErrDenied, syscall.EACCES},
		{ErrInvalidName, syscall.EINVAL},
		{ErrIO, syscall.EIO},
	}
	for _, c := range cases {
		if got := errnoFor(c.err); got != c.want {
			t.Errorf("errnoFor(%v) = %v, want %v", c.err, got, c.want)
		}
	}
}

func TestStableAttrForDistinguishesKind(t *testing.T) {
	dirEntry := &Entry{Inode: 5, Kind: KindDirectory}
	fileEntry := &Entry{Inode: 6, Kind: KindRegular}

	dirAttr := stableAttrFor(dirEntry)
	if dirAttr.Ino != 5 || dirAttr.Mode&uint32(0o40000) == 0 {
		t.Errorf("stableAttrFor(dir) = %+v, expected S_IFDIR bit set and Ino 5", dirAttr)
	}
	fileAttr := stableAttrFor(fileEntry)
	if fileAttr.Ino != 6 || fileAttr.Mode&uint32(0o100000) == 0 {
		t.Errorf("stableAttrFor(file) = %+v, expected S_IFREG bit set and Ino 6", fileAttr)
	}
}
