package qrfs

import "testing"

func TestCheckCleanModel(t *testing.T) {
	m, _ := NewModel(nil)
	sub, _ := m.Insert(rootIno, "docs", KindDirectory, 0, nil)
	if _, err := m.Insert(sub.Inode, "a.txt", KindRegular, 0, []byte("hi")); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	report := Check(m)
	if !report.Clean() {
		t.Errorf("expected a clean report, got issues: %v", report.Issues)
	}
}

func TestCheckDetectsOrphan(t *testing.T) {
	m, _ := NewModel(nil)
	sub, _ := m.Insert(rootIno, "docs", KindDirectory, 0, nil)

	// Sever the link without going through Remove, to simulate a corrupted backing file.
	m.mu.Lock()
	sub.Parent = 9999
	m.mu.Unlock()

	report := Check(m)
	if report.Clean() {
		t.Fatal("expected the orphaned entry to be reported as an issue")
	}
	found := false
	for _, issue := range report.Issues {
		if issue.Kind == "orphan" && issue.Inode == sub.Inode {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an orphan issue for inode %d, got %v", sub.Inode, report.Issues)
	}
}

func TestCheckWarnsOnSizeMismatch(t *testing.T) {
	m, _ := NewModel(nil)
	f, _ := m.Insert(rootIno, "f.txt", KindRegular, 0, []byte("hello"))

	m.mu.Lock()
	f.Attrs.Size = 999
	m.mu.Unlock()

	report := Check(m)
	found := false
	for _, w := range report.Warnings {
		if w.Kind == "size_mismatch" && w.Inode == f.Inode {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a size_mismatch warning for inode %d, got %v", f.Inode, report.Warnings)
	}
}

func TestDirectoryTreePreview(t *testing.T) {
	m, _ := NewModel(nil)
	sub, _ := m.Insert(rootIno, "docs", KindDirectory, 0, nil)
	if _, err := m.Insert(sub.Inode, "a.txt", KindRegular, 0, nil); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	tree := DirectoryTree(m, rootIno, 4)
	if tree == "" {
		t.Fatal("expected a non-empty directory tree preview")
	}
}
