package qrfs

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestNewModelHasOnlyRoot(t *testing.T) {
	m, err := NewModel(nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	root, err := m.Get(rootIno)
	if err != nil {
		t.Fatalf("Get(root): %v", err)
	}
	if root.Kind != KindDirectory {
		t.Errorf("root kind = %v, want KindDirectory", root.Kind)
	}
	children, err := m.Children(rootIno)
	if err != nil {
		t.Fatalf("Children(root): %v", err)
	}
	if len(children) != 0 {
		t.Errorf("fresh model root has %d children, want 0", len(children))
	}
}

func TestInsertLookupAndChildren(t *testing.T) {
	m, _ := NewModel(nil)
	dir, err := m.Insert(rootIno, "docs", KindDirectory, 0, nil)
	if err != nil {
		t.Fatalf("Insert(docs): %v", err)
	}
	file, err := m.Insert(dir.Inode, "a.txt", KindRegular, 0, []byte("hi"))
	if err != nil {
		t.Fatalf("Insert(a.txt): %v", err)
	}

	got, err := m.Lookup(dir.Inode, "a.txt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.Inode != file.Inode {
		t.Errorf("Lookup returned inode %d, want %d", got.Inode, file.Inode)
	}

	if _, err := m.Insert(dir.Inode, "a.txt", KindRegular, 0, nil); !errors.Is(err, ErrNameClash) {
		t.Errorf("Insert duplicate name = %v, want ErrNameClash", err)
	}
}

func TestRemoveRejectsNonEmptyDirectory(t *testing.T) {
	m, _ := NewModel(nil)
	dir, _ := m.Insert(rootIno, "docs", KindDirectory, 0, nil)
	if _, err := m.Insert(dir.Inode, "a.txt", KindRegular, 0, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Remove(dir.Inode); !errors.Is(err, ErrNotEmpty) {
		t.Errorf("Remove(non-empty dir) = %v, want ErrNotEmpty", err)
	}
}

func TestRenameAcrossDirectories(t *testing.T) {
	m, _ := NewModel(nil)
	a, _ := m.Insert(rootIno, "a", KindDirectory, 0, nil)
	b, _ := m.Insert(rootIno, "b", KindDirectory, 0, nil)
	f, _ := m.Insert(a.Inode, "f.txt", KindRegular, 0, []byte("x"))

	if err := m.Rename(a.Inode, "f.txt", b.Inode, "f.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := m.Lookup(a.Inode, "f.txt"); !errors.Is(err, ErrNoEnt) {
		t.Errorf("old location should no longer have f.txt, got %v", err)
	}
	moved, err := m.Lookup(b.Inode, "f.txt")
	if err != nil {
		t.Fatalf("Lookup new location: %v", err)
	}
	if moved.Inode != f.Inode {
		t.Errorf("moved inode = %d, want %d", moved.Inode, f.Inode)
	}
}

func TestRenameOntoExistingNameIsClash(t *testing.T) {
	m, _ := NewModel(nil)
	a, _ := m.Insert(rootIno, "a", KindDirectory, 0, nil)
	if _, err := m.Insert(a.Inode, "one", KindRegular, 0, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := m.Insert(a.Inode, "two", KindRegular, 0, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := m.Rename(a.Inode, "one", a.Inode, "two"); !errors.Is(err, ErrNameClash) {
		t.Errorf("Rename onto existing name = %v, want ErrNameClash", err)
	}
}

func TestWriteExtendsAndZeroFills(t *testing.T) {
	m, _ := NewModel(nil)
	f, _ := m.Insert(rootIno, "f.txt", KindRegular, 0, nil)
	n, err := m.Write(f.Inode, 4, []byte("abc"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 3 {
		t.Errorf("Write returned %d, want 3", n)
	}
	got, _ := m.Get(f.Inode)
	want := []byte{0, 0, 0, 0, 'a', 'b', 'c'}
	if string(got.Data) != string(want) {
		t.Errorf("Data = %q, want %q", got.Data, want)
	}
}

func TestModelPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "disk.img")

	dev, err := Mkfs(path)
	if err != nil {
		t.Fatalf("Mkfs: %v", err)
	}
	m, err := NewModel(dev)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	sub, err := m.Insert(rootIno, "sub", KindDirectory, 0, nil)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := m.Insert(sub.Inode, "f.txt", KindRegular, 0, []byte("payload")); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dev2, err := OpenBlockDevice(path)
	if err != nil {
		t.Fatalf("OpenBlockDevice: %v", err)
	}
	defer dev2.Close()
	loaded, err := LoadFromDevice(dev2)
	if err != nil {
		t.Fatalf("LoadFromDevice: %v", err)
	}

	children, err := loaded.Children(rootIno)
	if err != nil {
		t.Fatalf("Children(root): %v", err)
	}
	if len(children) != 1 {
		t.Fatalf("reloaded root has %d children, want 1", len(children))
	}
	loadedSub, err := loaded.Get(children[0])
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if loadedSub.Name != "sub" {
		t.Errorf("reloaded child name = %q, want sub", loadedSub.Name)
	}
	f, err := loaded.Lookup(loadedSub.Inode, "f.txt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if string(f.Data) != "payload" {
		t.Errorf("reloaded file data = %q, want payload", f.Data)
	}
}
