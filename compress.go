package qrfs

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression names the archive metadata compressor selected at export
// time: the uncompressed default plus zstd and xz for large trees.
type Compression string

const (
	CompressNone Compression = "none"
	CompressZstd Compression = "zstd"
	CompressXZ   Compression = "xz"
)

func (c Compression) String() string {
	switch c {
	case CompressNone, "":
		return "none"
	case CompressZstd:
		return "zstd"
	case CompressXZ:
		return "xz"
	}
	return fmt.Sprintf("Compression(%s)", string(c))
}

// compressMetadata compresses buf under the named scheme. CompressNone
// (the default) returns buf unchanged, keeping the archive metadata
// sentinel-searchable as plain text.
func compressMetadata(c Compression, buf []byte) ([]byte, error) {
	switch c {
	case CompressNone, "":
		return buf, nil
	case CompressZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer enc.Close()
		return enc.EncodeAll(buf, nil), nil
	case CompressXZ:
		var out bytes.Buffer
		w, err := xz.NewWriter(&out)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(buf); err != nil {
			w.Close()
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return out.Bytes(), nil
	}
	return nil, fmt.Errorf("qrfs: unknown compression %q", c)
}

func decompressMetadata(c Compression, buf []byte) ([]byte, error) {
	switch c {
	case CompressNone, "":
		return buf, nil
	case CompressZstd:
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		return dec.DecodeAll(buf, nil)
	case CompressXZ:
		r, err := xz.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, err
		}
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("qrfs: unknown compression %q", c)
}
