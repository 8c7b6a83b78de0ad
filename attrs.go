package qrfs

import (
	"time"

	"github.com/hanwen/go-fuse/v2/fuse"
)

// Attrs is the full-precision in-memory attribute record for one entry.
// Owner, group, rdev and flags are stored but never enforced:
// ownership checks are stubbed because uid/gid are always zero.
type Attrs struct {
	Perm    uint16 // lower 9 bits used
	Uid     uint32
	Gid     uint32
	Rdev    uint32
	Flags   uint32
	BlkSize uint32
	Size    uint64

	Atime  time.Time
	Mtime  time.Time
	Ctime  time.Time
	Crtime time.Time
}

const defaultBlkSize = 4096

// defaultAttrs returns the attribute record assigned to a freshly created
// entry, matching the permission defaults of the original filesystem: rwxr-xr-x
// for directories, rw-r--r-- for regular files, unless overridden by mode.
func defaultAttrs(kind Kind, mode uint16) Attrs {
	now := time.Now()
	perm := mode & 0777
	if perm == 0 {
		if kind == KindDirectory {
			perm = 0755
		} else {
			perm = 0644
		}
	}
	return Attrs{
		Perm:    perm,
		BlkSize: defaultBlkSize,
		Atime:   now,
		Mtime:   now,
		Ctime:   now,
		Crtime:  now,
	}
}

func secondsToTime(sec uint64) time.Time {
	return time.Unix(int64(sec), 0)
}

// ToFuseAttr converts an entry's kind and attributes into the wire Attr
// structure the kernel expects, filling Ino from the caller.
func (a *Attrs) ToFuseAttr(ino uint64, kind Kind, size uint64, nlink uint32) fuse.Attr {
	mode := uint32(a.Perm)
	if kind == KindDirectory {
		mode |= uint32(S_IFDIR)
	} else {
		mode |= uint32(S_IFREG)
	}
	at := fuse.Attr{
		Ino:     ino,
		Size:    size,
		Blocks:  (size + 511) / 512,
		Mode:    mode,
		Nlink:   nlink,
		Rdev:    a.Rdev,
		Blksize: a.BlkSize,
	}
	at.Owner = fuse.Owner{Uid: a.Uid, Gid: a.Gid}
	at.Atime = uint64(a.Atime.Unix())
	at.Atimensec = uint32(a.Atime.Nanosecond())
	at.Mtime = uint64(a.Mtime.Unix())
	at.Mtimensec = uint32(a.Mtime.Nanosecond())
	at.Ctime = uint64(a.Ctime.Unix())
	at.Ctimensec = uint32(a.Ctime.Nanosecond())
	return at
}

// ApplySetAttr applies the fields marked Valid in in, following the
// FATTR_* bitmask the kernel sets for a setattr request.
func (a *Attrs) ApplySetAttr(in *fuse.SetAttrIn) {
	now := time.Now()
	if in.Valid&fuse.FATTR_MODE != 0 {
		a.Perm = uint16(in.Mode & 0777)
	}
	if in.Valid&fuse.FATTR_UID != 0 {
		a.Uid = in.Owner.Uid
	}
	if in.Valid&fuse.FATTR_GID != 0 {
		a.Gid = in.Owner.Gid
	}
	if in.Valid&fuse.FATTR_ATIME != 0 {
		a.Atime = time.Unix(int64(in.Atime), int64(in.Atimensec))
	}
	if in.Valid&fuse.FATTR_ATIME_NOW != 0 {
		a.Atime = now
	}
	if in.Valid&fuse.FATTR_MTIME != 0 {
		a.Mtime = time.Unix(int64(in.Mtime), int64(in.Mtimensec))
	}
	if in.Valid&fuse.FATTR_MTIME_NOW != 0 {
		a.Mtime = now
	}
	a.Ctime = now
}

// accessMode reports whether mask (R_OK/W_OK/X_OK-style bits) is satisfied
// by perm's owner/group/other triads. Ownership enforcement is stubbed: the
// check reduces to "is any bit of the requested class set".
func accessMode(perm uint16, mask uint32) bool {
	const rMask, wMask, xMask = 0444, 0222, 0111
	if mask&4 != 0 && perm&rMask == 0 {
		return false
	}
	if mask&2 != 0 && perm&wMask == 0 {
		return false
	}
	if mask&1 != 0 && perm&xMask == 0 {
		return false
	}
	return true
}
