package qrfs

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeEntryRoundtrip(t *testing.T) {
	e := &Entry{
		Inode:  7,
		Parent: 1,
		Name:   "hello.txt",
		Kind:   KindRegular,
		Attrs:  defaultAttrs(KindRegular, 0),
		Data:   []byte("some file content"),
	}
	e.Attrs.Size = uint64(len(e.Data))

	buf, err := encodeEntry(e)
	if err != nil {
		t.Fatalf("encodeEntry: %v", err)
	}
	if len(buf) != entryHeaderSize+len(e.Data) {
		t.Fatalf("encoded length = %d, want %d", len(buf), entryHeaderSize+len(e.Data))
	}

	decoded, err := decodeEntry(buf)
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if decoded.Inode != e.Inode || decoded.Parent != e.Parent || decoded.Name != e.Name {
		t.Fatalf("decoded entry mismatch: %+v", decoded)
	}
	if decoded.Kind != KindRegular {
		t.Errorf("decoded kind = %v, want KindRegular", decoded.Kind)
	}
	if !bytes.Equal(decoded.Data, e.Data) {
		t.Errorf("decoded data = %q, want %q", decoded.Data, e.Data)
	}
	if decoded.Attrs.Atime.Unix() != e.Attrs.Atime.Unix() {
		t.Errorf("decoded atime = %v, want %v", decoded.Attrs.Atime, e.Attrs.Atime)
	}
}

func TestEncodeDecodeDirectoryEntry(t *testing.T) {
	e := &Entry{
		Inode: 2, Parent: 1, Name: "sub", Kind: KindDirectory,
		Attrs: defaultAttrs(KindDirectory, 0),
	}
	buf, err := encodeEntry(e)
	if err != nil {
		t.Fatalf("encodeEntry: %v", err)
	}
	decoded, err := decodeEntry(buf)
	if err != nil {
		t.Fatalf("decodeEntry: %v", err)
	}
	if decoded.Kind != KindDirectory {
		t.Errorf("decoded kind = %v, want KindDirectory", decoded.Kind)
	}
	if decoded.Data != nil {
		t.Errorf("directory entry should decode with nil Data, got %v", decoded.Data)
	}
}

func TestValidateNameRejectsInvalid(t *testing.T) {
	cases := []string{"", ".", "..", "a/b", string(make([]byte, maxNameLen+1))}
	for _, name := range cases {
		if err := validateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("validateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestValidateNameAcceptsBoundary(t *testing.T) {
	name := make([]byte, maxNameLen)
	for i := range name {
		name[i] = 'a'
	}
	if err := validateName(string(name)); err != nil {
		t.Errorf("validateName should accept a %d byte name: %v", maxNameLen, err)
	}
}

func TestEncodeEntryRejectsOversizeData(t *testing.T) {
	e := &Entry{
		Inode: 3, Parent: 1, Name: "big", Kind: KindRegular,
		Attrs: defaultAttrs(KindRegular, 0),
		Data:  make([]byte, maxInlineData+1),
	}
	if _, err := encodeEntry(e); !errors.Is(err, ErrIO) {
		t.Errorf("encodeEntry with oversize data = %v, want ErrIO", err)
	}
}
