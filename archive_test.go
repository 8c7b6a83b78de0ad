package qrfs

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestExportImportEmptyArchiveRoundtrip(t *testing.T) {
	dir := t.TempDir()
	qrDir := filepath.Join(dir, "archive")

	m, err := NewModel(nil)
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	if err := ExportArchive(m, qrDir, "correct horse", CompressNone); err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}

	imported, err := ImportArchive(qrDir, "correct horse", CompressNone, nil)
	if err != nil {
		t.Fatalf("ImportArchive: %v", err)
	}
	root, err := imported.Get(rootIno)
	if err != nil {
		t.Fatalf("Get(root): %v", err)
	}
	if root.Kind != KindDirectory {
		t.Errorf("imported root kind = %v, want KindDirectory", root.Kind)
	}
	children, err := imported.Children(rootIno)
	if err != nil {
		t.Fatalf("Children(root): %v", err)
	}
	if len(children) != 0 {
		t.Errorf("imported empty archive has %d root children, want 0", len(children))
	}
}

func TestExportImportDirectoryTreeRoundtrip(t *testing.T) {
	dir := t.TempDir()
	qrDir := filepath.Join(dir, "archive")

	m, _ := NewModel(nil)
	sub, err := m.Insert(rootIno, "docs", KindDirectory, 0, nil)
	if err != nil {
		t.Fatalf("Insert(docs): %v", err)
	}
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated enough to span more than one QR chunk. " +
		"the quick brown fox jumps over the lazy dog, repeated enough to span more than one QR chunk.")
	if _, err := m.Insert(sub.Inode, "fox.txt", KindRegular, 0, payload); err != nil {
		t.Fatalf("Insert(fox.txt): %v", err)
	}
	if _, err := m.Insert(rootIno, "empty.txt", KindRegular, 0, nil); err != nil {
		t.Fatalf("Insert(empty.txt): %v", err)
	}

	if err := ExportArchive(m, qrDir, "s3cret", CompressNone); err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}

	imported, err := ImportArchive(qrDir, "s3cret", CompressNone, nil)
	if err != nil {
		t.Fatalf("ImportArchive: %v", err)
	}

	rootChildren, err := imported.Children(rootIno)
	if err != nil {
		t.Fatalf("Children(root): %v", err)
	}
	if len(rootChildren) != 2 {
		t.Fatalf("imported root has %d children, want 2", len(rootChildren))
	}

	docsEntry, err := imported.Lookup(rootIno, "docs")
	if err != nil {
		t.Fatalf("Lookup(docs): %v", err)
	}
	foxEntry, err := imported.Lookup(docsEntry.Inode, "fox.txt")
	if err != nil {
		t.Fatalf("Lookup(fox.txt): %v", err)
	}
	if string(foxEntry.Data) != string(payload) {
		t.Errorf("imported fox.txt content mismatch: got %d bytes, want %d", len(foxEntry.Data), len(payload))
	}
}

func TestExportImportRoundtripWithCompression(t *testing.T) {
	for _, comp := range []Compression{CompressZstd, CompressXZ} {
		t.Run(comp.String(), func(t *testing.T) {
			dir := t.TempDir()
			qrDir := filepath.Join(dir, "archive")

			m, _ := NewModel(nil)
			sub, err := m.Insert(rootIno, "docs", KindDirectory, 0, nil)
			if err != nil {
				t.Fatalf("Insert(docs): %v", err)
			}
			payload := []byte("the quick brown fox jumps over the lazy dog, repeated enough to span more than one QR chunk. " +
				"the quick brown fox jumps over the lazy dog, repeated enough to span more than one QR chunk.")
			if _, err := m.Insert(sub.Inode, "fox.txt", KindRegular, 0, payload); err != nil {
				t.Fatalf("Insert(fox.txt): %v", err)
			}

			if err := ExportArchive(m, qrDir, "s3cret", comp); err != nil {
				t.Fatalf("ExportArchive: %v", err)
			}

			imported, err := ImportArchive(qrDir, "s3cret", comp, nil)
			if err != nil {
				t.Fatalf("ImportArchive: %v", err)
			}

			docsEntry, err := imported.Lookup(rootIno, "docs")
			if err != nil {
				t.Fatalf("Lookup(docs): %v", err)
			}
			foxEntry, err := imported.Lookup(docsEntry.Inode, "fox.txt")
			if err != nil {
				t.Fatalf("Lookup(fox.txt): %v", err)
			}
			if string(foxEntry.Data) != string(payload) {
				t.Errorf("imported fox.txt content mismatch: got %d bytes, want %d", len(foxEntry.Data), len(payload))
			}

			if _, err := ImportArchive(qrDir, "wrong", comp, nil); !errors.Is(err, ErrWrongPassphrase) {
				t.Errorf("ImportArchive with wrong passphrase = %v, want ErrWrongPassphrase", err)
			}
		})
	}
}

func TestImportArchiveWrongPassphrase(t *testing.T) {
	dir := t.TempDir()
	qrDir := filepath.Join(dir, "archive")

	m, _ := NewModel(nil)
	if err := ExportArchive(m, qrDir, "right", CompressNone); err != nil {
		t.Fatalf("ExportArchive: %v", err)
	}

	if _, err := ImportArchive(qrDir, "wrong", CompressNone, nil); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("ImportArchive with wrong passphrase = %v, want ErrWrongPassphrase", err)
	}
}

func TestHashPassphraseIsDeterministic(t *testing.T) {
	if hashPassphrase("abc") != hashPassphrase("abc") {
		t.Error("hashPassphrase should be deterministic for the same input")
	}
	if hashPassphrase("abc") == hashPassphrase("abd") {
		t.Error("hashPassphrase should differ for different inputs (in the overwhelming common case)")
	}
}
