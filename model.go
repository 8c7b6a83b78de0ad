package qrfs

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

const rootIno uint64 = 1

// Model is the in-memory filesystem: an inode table, a parent/children
// graph derived from it, and (optionally) a backing block device that every
// mutation is reflected to immediately.
type Model struct {
	mu sync.Mutex

	entries      map[uint64]*Entry
	inodeToBlock map[uint64]uint64
	counter      uint64

	dev *BlockDevice // nil when the model has no backing file (pure archive use)
}

// NewModel returns an empty model containing only the root directory,
// optionally backed by dev.
func NewModel(dev *BlockDevice) (*Model, error) {
	m := &Model{
		entries:      make(map[uint64]*Entry),
		inodeToBlock: make(map[uint64]uint64),
		dev:          dev,
	}
	root := &Entry{
		Inode:  rootIno,
		Parent: 0,
		Name:   "/",
		Kind:   KindDirectory,
		Attrs:  defaultAttrs(KindDirectory, 0755),
	}
	m.entries[rootIno] = root
	m.counter = rootIno

	if dev != nil {
		block, err := dev.Allocate()
		if err != nil {
			return nil, err
		}
		if err := m.writeEntryBlock(root, block); err != nil {
			return nil, err
		}
		if err := dev.WriteCounter(m.counter); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// LoadFromDevice reconstructs a model by scanning every block of dev.
func LoadFromDevice(dev *BlockDevice) (*Model, error) {
	m := &Model{
		entries:      make(map[uint64]*Entry),
		inodeToBlock: make(map[uint64]uint64),
		dev:          dev,
	}
	counter, err := dev.ReadCounter()
	if err != nil {
		return nil, err
	}
	m.counter = counter

	for b := uint64(dataStart); b < blockCount; b++ {
		set, err := dev.IsSet(b)
		if err != nil {
			return nil, err
		}
		if !set {
			continue
		}
		raw, err := dev.ReadBlock(b)
		if err != nil {
			return nil, err
		}
		e, err := decodeEntry(raw)
		if err != nil {
			return nil, err
		}
		if e.Inode == 0 {
			continue
		}
		m.entries[e.Inode] = e
		m.inodeToBlock[e.Inode] = b
	}
	m.rebuildChildren()
	return m, nil
}

// rebuildChildren recomputes every entry's Children slice by scanning for
// entries whose Parent points at it, in ascending-inode order.
func (m *Model) rebuildChildren() {
	for _, e := range m.entries {
		e.Children = e.Children[:0]
	}
	ids := make([]uint64, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		e := m.entries[id]
		if e.Inode == rootIno {
			continue
		}
		if parent, ok := m.entries[e.Parent]; ok {
			parent.Children = append(parent.Children, e.Inode)
		}
	}
}

// nextInode issues the next monotonic inode id.
func (m *Model) nextInode() uint64 {
	m.counter++
	return m.counter
}

func (m *Model) writeEntryBlock(e *Entry, block uint64) error {
	buf, err := encodeEntry(e)
	if err != nil {
		return err
	}
	return m.dev.WriteBlock(block, buf)
}

// persist rewrites e's block (allocating one if it has none yet) and syncs
// the counter cell: model update, entry
// block rewrite, counter update, bitmap rewrite already folded into Allocate.
func (m *Model) persist(e *Entry) error {
	if m.dev == nil {
		return nil
	}
	block, ok := m.inodeToBlock[e.Inode]
	if !ok {
		b, err := m.dev.Allocate()
		if err != nil {
			return err
		}
		block = b
		m.inodeToBlock[e.Inode] = block
	}
	if err := m.writeEntryBlock(e, block); err != nil {
		return err
	}
	return m.dev.WriteCounter(m.counter)
}

// Get returns the entry for inode, or ErrNoEnt.
func (m *Model) Get(inode uint64) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[inode]
	if !ok {
		return nil, ErrNoEnt
	}
	return e, nil
}

// Lookup finds a child of parent by name.
func (m *Model) Lookup(parent uint64, name string) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.entries[parent]
	if !ok {
		return nil, ErrNoEnt
	}
	for _, id := range p.Children {
		if c, ok := m.entries[id]; ok && c.Name == name {
			return c, nil
		}
	}
	return nil, ErrNoEnt
}

// Children returns the ordered child inode list of a directory.
func (m *Model) Children(inode uint64) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[inode]
	if !ok {
		return nil, ErrNoEnt
	}
	if e.Kind != KindDirectory {
		return nil, ErrNotDir
	}
	out := make([]uint64, len(e.Children))
	copy(out, e.Children)
	return out, nil
}

// Insert creates a new entry under parent and returns it. data is nil for
// directories.
func (m *Model) Insert(parent uint64, name string, kind Kind, mode uint16, data []byte) (*Entry, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.entries[parent]
	if !ok {
		return nil, ErrNoEnt
	}
	if p.Kind != KindDirectory {
		return nil, ErrNotDir
	}
	for _, id := range p.Children {
		if c, ok := m.entries[id]; ok && c.Name == name {
			return nil, ErrNameClash
		}
	}

	e := &Entry{
		Inode:  m.nextInode(),
		Parent: parent,
		Name:   name,
		Kind:   kind,
		Attrs:  defaultAttrs(kind, mode),
	}
	if kind == KindRegular {
		e.Data = data
		e.Attrs.Size = uint64(len(data))
	}

	if err := m.persist(e); err != nil {
		m.counter-- // undo the issued id so retrying doesn't burn inode numbers on IO failure
		return nil, err
	}

	m.entries[e.Inode] = e
	p.Children = append(p.Children, e.Inode)
	p.Attrs.Mtime = time.Now()
	return e, nil
}

// Rename moves the child named oldName under oldParent to newName under
// newParent. The destination name must not already exist.
func (m *Model) Rename(oldParent uint64, oldName string, newParent uint64, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	op, ok := m.entries[oldParent]
	if !ok {
		return ErrNoEnt
	}
	np, ok := m.entries[newParent]
	if !ok {
		return ErrNoEnt
	}
	if np.Kind != KindDirectory {
		return ErrNotDir
	}

	idx := -1
	for i, id := range op.Children {
		if c, ok := m.entries[id]; ok && c.Name == oldName {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNoEnt
	}
	childIno := op.Children[idx]
	child := m.entries[childIno]

	if oldParent != newParent || oldName != newName {
		for _, id := range np.Children {
			if c, ok := m.entries[id]; ok && c.Name == newName {
				return ErrNameClash
			}
		}
	}

	op.Children = append(op.Children[:idx], op.Children[idx+1:]...)
	child.Name = newName
	child.Parent = newParent
	child.Attrs.Ctime = time.Now()
	np.Children = append(np.Children, childIno)

	return m.persist(child)
}

// Remove deletes inode from its parent. Directories must be empty.
func (m *Model) Remove(inode uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[inode]
	if !ok {
		return ErrNoEnt
	}
	if inode == rootIno {
		return fmt.Errorf("%w: cannot remove the root directory", ErrDenied)
	}
	if e.Kind == KindDirectory && len(e.Children) > 0 {
		return ErrNotEmpty
	}
	p, ok := m.entries[e.Parent]
	if !ok {
		return ErrNoEnt
	}
	for i, id := range p.Children {
		if id == inode {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}

	if m.dev != nil {
		if block, ok := m.inodeToBlock[inode]; ok {
			if err := m.dev.Free(block); err != nil {
				return err
			}
		}
	}
	delete(m.inodeToBlock, inode)
	delete(m.entries, inode)
	return nil
}

// UpdateAttrsFunc mutates attrs in place; used by UpdateAttrs so callers
// (the FUSE layer) can apply only the fields the kernel marked valid.
type UpdateAttrsFunc func(*Attrs)

// UpdateAttrs applies fn to inode's attributes, truncating or zero-extending
// Data when Attrs.Size changes, and rewrites the entry's block.
func (m *Model) UpdateAttrs(inode uint64, fn UpdateAttrsFunc) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[inode]
	if !ok {
		return nil, ErrNoEnt
	}
	prevSize := e.Attrs.Size
	fn(&e.Attrs)

	if e.Kind == KindRegular && e.Attrs.Size != prevSize {
		resized := make([]byte, e.Attrs.Size)
		copy(resized, e.Data)
		e.Data = resized
	}

	if err := m.persist(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Write extends inode's data to offset+len(bytes) with zero-fill as needed,
// copies bytes in at offset, and rewrites the entry's block. Directories
// reject the call.
func (m *Model) Write(inode uint64, offset int64, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[inode]
	if !ok {
		return 0, ErrNoEnt
	}
	if e.Kind != KindRegular {
		return 0, ErrIsDir
	}
	end := offset + int64(len(data))
	if m.dev != nil && end > maxInlineData {
		return 0, fmt.Errorf("%w: write would exceed the %d byte inline data bound", ErrIO, maxInlineData)
	}

	if int64(len(e.Data)) < end {
		grown := make([]byte, end)
		copy(grown, e.Data)
		e.Data = grown
	}
	copy(e.Data[offset:], data)
	e.Attrs.Size = uint64(len(e.Data))
	e.Attrs.Mtime = time.Now()

	if err := m.persist(e); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Counter returns the current (highest-issued) inode id.
func (m *Model) Counter() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counter
}

// SetCounter is used by archive import to restore the persisted next_inode.
func (m *Model) SetCounter(v uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter = v
}

// All returns every entry in the model, ascending by inode, for the
// consistency checker and the archive exporter.
func (m *Model) All() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]uint64, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Entry, len(ids))
	for i, id := range ids {
		out[i] = m.entries[id]
	}
	return out
}

// Statfs reports aggregate space usage: free blocks/inodes are computed
// from the bitmap when backed by a device, or treated as unbounded for a
// pure in-memory model.
func (m *Model) Statfs() (totalBlocks, freeBlocks uint64, totalInodes, freeInodes uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	totalInodes = blockCount - dataStart
	freeInodes = totalInodes - uint64(len(m.entries))
	if m.dev == nil {
		return 0, 0, totalInodes, freeInodes
	}
	totalBlocks = blockCount
	used := uint64(len(m.inodeToBlock)) + dataStart
	if used > blockCount {
		used = blockCount
	}
	freeBlocks = blockCount - used
	return
}
