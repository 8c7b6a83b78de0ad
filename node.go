package qrfs

import (
	"context"
	"errors"
	"syscall"
	"time"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// entryTimeout and attrTimeout are the 1s TTLs assigned to every
// stat/lookup reply.
const (
	entryTimeout = time.Second
	attrTimeout  = time.Second
)

// Node is the FUSE tree node for one inode of a Model. It is ephemeral: the
// go-fuse bridge deduplicates nodes sharing a StableAttr.Ino, so Lookup and
// Readdir are free to construct a fresh *Node for every reference.
type Node struct {
	fs.Inode
	m   *Model
	ino uint64
}

var (
	_ fs.NodeLookuper  = (*Node)(nil)
	_ fs.NodeGetattrer = (*Node)(nil)
	_ fs.NodeSetattrer = (*Node)(nil)
	_ fs.NodeCreater   = (*Node)(nil)
	_ fs.NodeMkdirer   = (*Node)(nil)
	_ fs.NodeUnlinker  = (*Node)(nil)
	_ fs.NodeRmdirer   = (*Node)(nil)
	_ fs.NodeRenamer   = (*Node)(nil)
	_ fs.NodeReaddirer = (*Node)(nil)
	_ fs.NodeOpener    = (*Node)(nil)
	_ fs.NodeReader    = (*Node)(nil)
	_ fs.NodeWriter    = (*Node)(nil)
	_ fs.NodeAccesser  = (*Node)(nil)
	_ fs.NodeStatfser  = (*Node)(nil)
	_ fs.NodeFsyncer   = (*Node)(nil)
)

// errnoFor maps the package's sentinel errors to the syscall.Errno the
// kernel expects.
func errnoFor(err error) syscall.Errno {
	switch {
	case err == nil:
		return fs.OK
	case errors.Is(err, ErrNoEnt):
		return syscall.ENOENT
	case errors.Is(err, ErrNotDir):
		return syscall.ENOTDIR
	case errors.Is(err, ErrIsDir):
		return syscall.EISDIR
	case errors.Is(err, ErrNotEmpty):
		return syscall.ENOTEMPTY
	case errors.Is(err, ErrNameClash):
		return syscall.EEXIST
	case errors.Is(err, ErrNoSpace):
		return syscall.ENOSPC
	case errors.Is(err, ErrDenied):
		return syscall.EACCES
	case errors.Is(err, ErrInvalidName):
		return syscall.EINVAL
	case errors.Is(err, ErrIO):
		return syscall.EIO
	default:
		return syscall.EIO
	}
}

func stableAttrFor(e *Entry) fs.StableAttr {
	mode := uint32(fuse.S_IFREG)
	if e.Kind == KindDirectory {
		mode = fuse.S_IFDIR
	}
	return fs.StableAttr{Mode: mode, Ino: e.Inode}
}

func (n *Node) childNode(e *Entry) *fs.Inode {
	child := &Node{m: n.m, ino: e.Inode}
	return n.NewInode(context.Background(), child, stableAttrFor(e))
}

func fillEntryOut(e *Entry, out *fuse.EntryOut) {
	nlink := uint32(1)
	if e.Kind == KindDirectory {
		nlink = 2
	}
	out.Attr = e.Attrs.ToFuseAttr(e.Inode, e.Kind, e.Attrs.Size, nlink)
	out.NodeId = e.Inode
	out.SetEntryTimeout(entryTimeout)
	out.SetAttrTimeout(attrTimeout)
}

// Lookup finds a direct child of this directory by name.
func (n *Node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	e, err := n.m.Lookup(n.ino, name)
	if err != nil {
		return nil, errnoFor(err)
	}
	fillEntryOut(e, out)
	return n.childNode(e), fs.OK
}

// Getattr reports the current attributes of this inode.
func (n *Node) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	e, err := n.m.Get(n.ino)
	if err != nil {
		return errnoFor(err)
	}
	nlink := uint32(1)
	if e.Kind == KindDirectory {
		nlink = 2
	}
	out.Attr = e.Attrs.ToFuseAttr(e.Inode, e.Kind, e.Attrs.Size, nlink)
	out.SetTimeout(attrTimeout)
	return fs.OK
}

// Setattr applies a partial attribute update.
func (n *Node) Setattr(ctx context.Context, f fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	e, err := n.m.UpdateAttrs(n.ino, func(a *Attrs) {
		a.ApplySetAttr(in)
		if in.Valid&fuse.FATTR_SIZE != 0 {
			a.Size = in.Size
		}
	})
	if err != nil {
		return errnoFor(err)
	}
	nlink := uint32(1)
	if e.Kind == KindDirectory {
		nlink = 2
	}
	out.Attr = e.Attrs.ToFuseAttr(e.Inode, e.Kind, e.Attrs.Size, nlink)
	out.SetTimeout(attrTimeout)
	return fs.OK
}

// Create makes a new regular file under this directory and opens it.
func (n *Node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	e, err := n.m.Insert(n.ino, name, KindRegular, uint16(mode&0777), nil)
	if err != nil {
		return nil, nil, 0, errnoFor(err)
	}
	fillEntryOut(e, out)
	return n.childNode(e), nil, 0, fs.OK
}

// Mkdir makes a new directory under this directory.
func (n *Node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	e, err := n.m.Insert(n.ino, name, KindDirectory, uint16(mode&0777), nil)
	if err != nil {
		return nil, errnoFor(err)
	}
	fillEntryOut(e, out)
	return n.childNode(e), fs.OK
}

// Unlink removes a regular-file child.
func (n *Node) Unlink(ctx context.Context, name string) syscall.Errno {
	e, err := n.m.Lookup(n.ino, name)
	if err != nil {
		return errnoFor(err)
	}
	if e.Kind != KindRegular {
		return syscall.EISDIR
	}
	return errnoFor(n.m.Remove(e.Inode))
}

// Rmdir removes an empty directory child.
func (n *Node) Rmdir(ctx context.Context, name string) syscall.Errno {
	e, err := n.m.Lookup(n.ino, name)
	if err != nil {
		return errnoFor(err)
	}
	if e.Kind != KindDirectory {
		return syscall.ENOTDIR
	}
	return errnoFor(n.m.Remove(e.Inode))
}

// Rename moves name from this directory to newName under newParent.
func (n *Node) Rename(ctx context.Context, name string, newParent fs.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	target, ok := newParent.(*Node)
	if !ok {
		return syscall.EXDEV
	}
	return errnoFor(n.m.Rename(n.ino, name, target.ino, newName))
}

// dirStream implements fs.DirStream over the snapshot of a directory's
// current child order, emitting "." and ".." first.
type dirStream struct {
	entries []fuse.DirEntry
	pos     int
}

func (s *dirStream) HasNext() bool { return s.pos < len(s.entries) }
func (s *dirStream) Next() (fuse.DirEntry, syscall.Errno) {
	e := s.entries[s.pos]
	s.pos++
	return e, fs.OK
}
func (s *dirStream) Close() {}

// Readdir streams this directory's children, "." and ".." first.
func (n *Node) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	self, err := n.m.Get(n.ino)
	if err != nil {
		return nil, errnoFor(err)
	}
	if self.Kind != KindDirectory {
		return nil, syscall.ENOTDIR
	}
	children, err := n.m.Children(n.ino)
	if err != nil {
		return nil, errnoFor(err)
	}

	list := make([]fuse.DirEntry, 0, len(children)+2)
	list = append(list, fuse.DirEntry{Mode: fuse.S_IFDIR, Name: ".", Ino: self.Inode})
	list = append(list, fuse.DirEntry{Mode: fuse.S_IFDIR, Name: "..", Ino: self.Parent})
	for _, id := range children {
		c, err := n.m.Get(id)
		if err != nil {
			continue
		}
		mode := uint32(fuse.S_IFREG)
		if c.Kind == KindDirectory {
			mode = fuse.S_IFDIR
		}
		list = append(list, fuse.DirEntry{Mode: mode, Name: c.Name, Ino: c.Inode})
	}
	return &dirStream{entries: list}, fs.OK
}

// Open rejects write-mode opens on directories; the inode
// itself doubles as the opaque handle, so no FileHandle is allocated.
func (n *Node) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	e, err := n.m.Get(n.ino)
	if err != nil {
		return nil, 0, errnoFor(err)
	}
	if e.Kind == KindDirectory && (flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0) {
		return nil, 0, syscall.EISDIR
	}
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

// Read returns data[offset:offset+size], clamped to the file's length.
func (n *Node) Read(ctx context.Context, f fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	e, err := n.m.Get(n.ino)
	if err != nil {
		return nil, errnoFor(err)
	}
	if e.Kind != KindRegular {
		return nil, syscall.ENOENT
	}
	if off >= int64(len(e.Data)) {
		return fuse.ReadResultData(nil), fs.OK
	}
	end := off + int64(len(dest))
	if end > int64(len(e.Data)) {
		end = int64(len(e.Data))
	}
	return fuse.ReadResultData(e.Data[off:end]), fs.OK
}

// Write extends the file and copies data in at off.
func (n *Node) Write(ctx context.Context, f fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	written, err := n.m.Write(n.ino, off, data)
	if err != nil {
		return 0, errnoFor(err)
	}
	return uint32(written), fs.OK
}

// Access checks mask against the entry's permission triads; ownership
// enforcement is stubbed.
func (n *Node) Access(ctx context.Context, mask uint32) syscall.Errno {
	e, err := n.m.Get(n.ino)
	if err != nil {
		return errnoFor(err)
	}
	if !accessMode(e.Attrs.Perm, mask) {
		return syscall.EACCES
	}
	return fs.OK
}

// Statfs reports aggregate space usage.
func (n *Node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	totalBlocks, freeBlocks, totalInodes, freeInodes := n.m.Statfs()
	out.St = fuse.Kstatfs{
		Blocks:  totalBlocks,
		Bfree:   freeBlocks,
		Bavail:  freeBlocks,
		Files:   totalInodes,
		Ffree:   freeInodes,
		Bsize:   blockSize,
		NameLen: maxNameLen,
		Frsize:  blockSize,
	}
	return fs.OK
}

// Fsync forces the backing file to stable storage; a no-op for pure
// in-memory (archive-only) models.
func (n *Node) Fsync(ctx context.Context, f fs.FileHandle, flags uint32) syscall.Errno {
	if n.m.dev == nil {
		return fs.OK
	}
	if err := n.m.dev.Sync(); err != nil {
		return errnoFor(err)
	}
	return fs.OK
}
