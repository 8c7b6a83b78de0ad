package qrfs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// archiveChunkSize is the raw per-image payload size C: at most
// 512 bytes, comfortably inside QR capacity at EC level H once base64-expanded.
const archiveChunkSize = 512

// passphraseSentinel separates the metadata prefix from the literal
// passphrase proof appended during export.
const passphraseSentinel = "|PASSPHRASE:"

// maxArchiveImages bounds how many images the importer will read while
// searching for the sentinel before declaring the archive corrupt.
const maxArchiveImages = 1000

type archiveAttrs struct {
	Perm       uint16 `json:"perm"`
	Uid        uint32 `json:"uid"`
	Gid        uint32 `json:"gid"`
	Rdev       uint32 `json:"rdev"`
	Flags      uint32 `json:"flags"`
	BlkSize    uint32 `json:"blksize"`
	Size       uint64 `json:"size"`
	AtimeSec   int64  `json:"atime_sec"`
	AtimeNsec  int32  `json:"atime_nsec"`
	MtimeSec   int64  `json:"mtime_sec"`
	MtimeNsec  int32  `json:"mtime_nsec"`
	CtimeSec   int64  `json:"ctime_sec"`
	CtimeNsec  int32  `json:"ctime_nsec"`
	CrtimeSec  int64  `json:"crtime_sec"`
	CrtimeNsec int32  `json:"crtime_nsec"`
}

func toArchiveAttrs(a Attrs) archiveAttrs {
	return archiveAttrs{
		Perm: a.Perm, Uid: a.Uid, Gid: a.Gid, Rdev: a.Rdev, Flags: a.Flags, BlkSize: a.BlkSize, Size: a.Size,
		AtimeSec: a.Atime.Unix(), AtimeNsec: int32(a.Atime.Nanosecond()),
		MtimeSec: a.Mtime.Unix(), MtimeNsec: int32(a.Mtime.Nanosecond()),
		CtimeSec: a.Ctime.Unix(), CtimeNsec: int32(a.Ctime.Nanosecond()),
		CrtimeSec: a.Crtime.Unix(), CrtimeNsec: int32(a.Crtime.Nanosecond()),
	}
}

func fromArchiveAttrs(a archiveAttrs) Attrs {
	return Attrs{
		Perm: a.Perm, Uid: a.Uid, Gid: a.Gid, Rdev: a.Rdev, Flags: a.Flags, BlkSize: a.BlkSize, Size: a.Size,
		Atime:  time.Unix(a.AtimeSec, int64(a.AtimeNsec)),
		Mtime:  time.Unix(a.MtimeSec, int64(a.MtimeNsec)),
		Ctime:  time.Unix(a.CtimeSec, int64(a.CtimeNsec)),
		Crtime: time.Unix(a.CrtimeSec, int64(a.CrtimeNsec)),
	}
}

type archiveFile struct {
	Inode    uint64       `json:"inode"`
	Name     string       `json:"name"`
	Parent   uint64       `json:"parent"`
	IsDir    bool         `json:"is_dir"`
	QRBlocks []uint32     `json:"qr_blocks"`
	Attrs    archiveAttrs `json:"attrs"`
}

type archiveMetadata struct {
	Version        int           `json:"version"`
	NextInode      uint64        `json:"next_inode"`
	Files          []archiveFile `json:"files"`
	PassphraseHash uint64        `json:"passphrase_hash"`
}

// hashPassphrase returns a non-cryptographic tamper hint, not a
// confidentiality mechanism: FNV-1a 64 of the literal passphrase.
func hashPassphrase(passphrase string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(passphrase))
	return h.Sum64()
}

// marshalMetadata serializes m and guarantees the literal byte '|' never
// occurs in the output, so the passphrase sentinel appended after it can
// never be confused with user data.
func marshalMetadata(m *archiveMetadata) ([]byte, error) {
	buf, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	escaped := bytes.ReplaceAll(buf, []byte{'|'}, []byte("\\u007C"))
	return escaped, nil
}

func chunk(data []byte, size int) [][]byte {
	var out [][]byte
	for i := 0; i < len(data); i += size {
		end := i + size
		if end > len(data) {
			end = len(data)
		}
		out = append(out, data[i:end])
	}
	if len(out) == 0 {
		out = [][]byte{{}}
	}
	return out
}

func imageName(i int) string {
	return fmt.Sprintf("%03d.png", i)
}

// ExportArchive writes model's entire tree into dir as a sequence of
// numbered QR PNGs protected by passphrase.
func ExportArchive(m *Model, dir string, passphrase string, comp Compression) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: %s", ErrIO, err)
	}

	entries := m.All()
	meta := &archiveMetadata{
		Version:        1,
		NextInode:      m.Counter(),
		PassphraseHash: hashPassphrase(passphrase),
	}
	for _, e := range entries {
		meta.Files = append(meta.Files, archiveFile{
			Inode: e.Inode, Name: e.Name, Parent: e.Parent,
			IsDir: e.Kind == KindDirectory, QRBlocks: []uint32{},
			Attrs: toArchiveAttrs(e.Attrs),
		})
	}

	firstPass, err := marshalMetadata(meta)
	if err != nil {
		return err
	}
	firstPass, err = compressMetadata(comp, firstPass)
	if err != nil {
		return err
	}
	firstChunks := chunk(firstPass, archiveChunkSize)
	d := len(firstChunks)
	for i, c := range firstChunks {
		if err := encodeBlobToImage(c, filepath.Join(dir, imageName(i))); err != nil {
			return err
		}
	}

	k := d
	for fi, e := range entries {
		if e.Kind != KindRegular || len(e.Data) == 0 {
			continue
		}
		fileChunks := chunk(e.Data, archiveChunkSize)
		blocks := make([]uint32, 0, len(fileChunks))
		for _, c := range fileChunks {
			if err := encodeBlobToImage(c, filepath.Join(dir, imageName(k))); err != nil {
				return err
			}
			blocks = append(blocks, uint32(k))
			k++
		}
		meta.Files[fi].QRBlocks = blocks
	}
	nextFree := k

	final, err := marshalMetadata(meta)
	if err != nil {
		return err
	}
	final, err = compressMetadata(comp, final)
	if err != nil {
		return err
	}
	// The sentinel and passphrase proof stay uncompressed and appended last,
	// so ImportArchive can find them with a plain byte scan before anything
	// is decompressed.
	final = append(final, []byte(passphraseSentinel+passphrase)...)
	finalChunks := chunk(final, archiveChunkSize)

	overwrite := len(finalChunks)
	if overwrite > d {
		overwrite = d
	}
	for i := 0; i < overwrite; i++ {
		if err := encodeBlobToImage(finalChunks[i], filepath.Join(dir, imageName(i))); err != nil {
			return err
		}
	}
	if len(finalChunks) > d {
		for i := d; i < len(finalChunks); i++ {
			if err := encodeBlobToImage(finalChunks[i], filepath.Join(dir, imageName(nextFree))); err != nil {
				return err
			}
			nextFree++
		}
	}
	return nil
}

// ImportArchive reads the numbered QR PNGs in dir, validates passphrase,
// and rebuilds a model, optionally backed by dev.
func ImportArchive(dir string, passphrase string, comp Compression, dev *BlockDevice) (*Model, error) {
	var acc bytes.Buffer
	sentinelIdx := -1
	var i int
	for ; i < maxArchiveImages; i++ {
		path := filepath.Join(dir, imageName(i))
		if _, err := os.Stat(path); err != nil {
			break
		}
		raw, err := decodeImageToBlob(path)
		if err != nil {
			return nil, err
		}
		acc.Write(raw)
		if idx := bytes.Index(acc.Bytes(), []byte(passphraseSentinel)); idx >= 0 {
			sentinelIdx = idx
			break
		}
	}
	if sentinelIdx < 0 {
		return nil, ErrCorruptArchive
	}

	full := acc.Bytes()
	prefix := full[:sentinelIdx]
	suffix := string(full[sentinelIdx+len(passphraseSentinel):])
	if suffix != passphrase {
		return nil, ErrWrongPassphrase
	}

	prefix, err := decompressMetadata(comp, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptMetadata, err)
	}
	var meta archiveMetadata
	if err := json.Unmarshal(prefix, &meta); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptMetadata, err)
	}

	if hashPassphrase(passphrase) != meta.PassphraseHash {
		// Tamper hint only: mismatch is a warning, not a failure.
		fmt.Fprintf(os.Stderr, "qrfs: warning: archive passphrase_hash does not match the supplied passphrase\n")
	}

	m := &Model{
		entries:      make(map[uint64]*Entry),
		inodeToBlock: make(map[uint64]uint64),
		dev:          dev,
		counter:      meta.NextInode,
	}

	sortedFiles := append([]archiveFile(nil), meta.Files...)
	sort.Slice(sortedFiles, func(a, b int) bool { return sortedFiles[a].Inode < sortedFiles[b].Inode })

	for _, f := range sortedFiles {
		e := &Entry{
			Inode: f.Inode, Parent: f.Parent, Name: f.Name,
			Attrs: fromArchiveAttrs(f.Attrs),
		}
		if f.IsDir {
			e.Kind = KindDirectory
		} else {
			e.Kind = KindRegular
			var data bytes.Buffer
			for _, blk := range f.QRBlocks {
				raw, err := decodeImageToBlob(filepath.Join(dir, imageName(int(blk))))
				if err != nil {
					return nil, fmt.Errorf("%w: data block %d: %s", ErrCorruptArchive, blk, err)
				}
				data.Write(raw)
			}
			e.Data = data.Bytes()
			e.Attrs.Size = uint64(len(e.Data))
		}
		m.entries[e.Inode] = e
		if dev != nil {
			block, err := dev.Allocate()
			if err != nil {
				return nil, err
			}
			if err := m.writeEntryBlock(e, block); err != nil {
				return nil, err
			}
			m.inodeToBlock[e.Inode] = block
		}
	}
	m.rebuildChildren()
	if dev != nil {
		if err := dev.WriteCounter(m.counter); err != nil {
			return nil, err
		}
	}
	return m, nil
}
