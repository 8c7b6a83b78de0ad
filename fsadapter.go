package qrfs

import (
	"io/fs"
	"path"
	"strings"
	"time"
)

// ModelFS exposes a Model as a read-only io/fs.FS, walking the qrfs
// parent/children graph by path instead of an on-disk directory-entry table.
// cmd/check and cmd/topdf use it to walk an archive without going through a
// kernel mount.
type ModelFS struct {
	m *Model
}

// NewModelFS wraps m for path-based read-only access.
func NewModelFS(m *Model) *ModelFS {
	return &ModelFS{m: m}
}

var (
	_ fs.FS        = (*ModelFS)(nil)
	_ fs.StatFS    = (*ModelFS)(nil)
	_ fs.ReadDirFS = (*ModelFS)(nil)
)

func (mfs *ModelFS) resolve(name string) (*Entry, error) {
	if name == "." || name == "" {
		return mfs.m.Get(rootIno)
	}
	cur := uint64(rootIno)
	for _, part := range strings.Split(path.Clean(name), "/") {
		if part == "" || part == "." {
			continue
		}
		e, err := mfs.m.Lookup(cur, part)
		if err != nil {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		cur = e.Inode
	}
	return mfs.m.Get(cur)
}

// modelFile adapts one Entry to fs.File / fs.ReadDirFile, matching the
// teacher's File/FileDir split in file.go.
type modelFile struct {
	mfs *ModelFS
	e   *Entry
	pos int64
}

type modelFileInfo struct {
	e *Entry
}

var (
	_ fs.File     = (*modelFile)(nil)
	_ fs.FileInfo = (*modelFileInfo)(nil)
)

func (mfs *ModelFS) Open(name string) (fs.File, error) {
	e, err := mfs.resolve(name)
	if err != nil {
		return nil, err
	}
	return &modelFile{mfs: mfs, e: e}, nil
}

func (mfs *ModelFS) Stat(name string) (fs.FileInfo, error) {
	e, err := mfs.resolve(name)
	if err != nil {
		return nil, err
	}
	return &modelFileInfo{e: e}, nil
}

func (mfs *ModelFS) ReadDir(name string) ([]fs.DirEntry, error) {
	e, err := mfs.resolve(name)
	if err != nil {
		return nil, err
	}
	if e.Kind != KindDirectory {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: ErrNotDir}
	}
	children, err := mfs.m.Children(e.Inode)
	if err != nil {
		return nil, err
	}
	out := make([]fs.DirEntry, 0, len(children))
	for _, id := range children {
		c, err := mfs.m.Get(id)
		if err != nil {
			continue
		}
		out = append(out, &modelFileInfo{e: c})
	}
	return out, nil
}

func (f *modelFile) Stat() (fs.FileInfo, error) { return &modelFileInfo{e: f.e}, nil }
func (f *modelFile) Close() error               { return nil }
func (f *modelFile) Read(p []byte) (int, error) {
	if f.e.Kind == KindDirectory {
		return 0, fs.ErrInvalid
	}
	if f.pos >= int64(len(f.e.Data)) {
		return 0, nil
	}
	n := copy(p, f.e.Data[f.pos:])
	f.pos += int64(n)
	return n, nil
}

func (fi *modelFileInfo) Name() string       { return fi.e.Name }
func (fi *modelFileInfo) Size() int64        { return int64(fi.e.Attrs.Size) }
func (fi *modelFileInfo) Mode() fs.FileMode  { return UnixToMode(uint32(fi.e.Attrs.Perm) | modeKindBits(fi.e.Kind)) }
func (fi *modelFileInfo) ModTime() time.Time { return fi.e.Attrs.Mtime }
func (fi *modelFileInfo) IsDir() bool        { return fi.e.Kind == KindDirectory }
func (fi *modelFileInfo) Sys() any           { return fi.e }
func (fi *modelFileInfo) Type() fs.FileMode  { return fi.Mode().Type() }
func (fi *modelFileInfo) Info() (fs.FileInfo, error) { return fi, nil }

func modeKindBits(k Kind) uint32 {
	if k == KindDirectory {
		return S_IFDIR
	}
	return S_IFREG
}
