package qrfs

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// MountedFS is a live mount: the FUSE server plus enough state to support
// auto-export on unmount.
type MountedFS struct {
	Server *fuse.Server
	Model  *Model

	autoExportDir        string
	autoExportPassphrase string
	autoExportCompress   Compression
}

// Mount attaches m at mountpoint using the high-level go-fuse tree API.
func Mount(mountpoint string, m *Model) (*MountedFS, error) {
	root := &Node{m: m, ino: rootIno}
	opts := &fs.Options{
		MountOptions: fuse.MountOptions{FsName: "qrfs", Name: "qrfs"},
	}
	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, fmt.Errorf("qrfs: mount %s: %w", mountpoint, err)
	}
	return &MountedFS{Server: server, Model: m}, nil
}

// EnableAutoExport arranges for Wait to re-encode the live model into a
// QR archive directory once the filesystem is unmounted.
func (mf *MountedFS) EnableAutoExport(dir, passphrase string, comp Compression) {
	mf.autoExportDir = dir
	mf.autoExportPassphrase = passphrase
	mf.autoExportCompress = comp
}

// Wait blocks until the filesystem is unmounted, then auto-exports if
// enabled. An export failure falls back to a temp directory rather than
// silently losing the session's state.
func (mf *MountedFS) Wait() {
	mf.Server.Wait()
	if mf.autoExportDir == "" {
		return
	}
	if err := ExportArchive(mf.Model, mf.autoExportDir, mf.autoExportPassphrase, mf.autoExportCompress); err != nil {
		fallback, ferr := fallbackExportDir()
		if ferr != nil {
			log.Printf("qrfs: auto-export to %s failed (%s) and no fallback directory available: %s", mf.autoExportDir, err, ferr)
			return
		}
		log.Printf("qrfs: auto-export to %s failed (%s); falling back to %s", mf.autoExportDir, err, fallback)
		if err := ExportArchive(mf.Model, fallback, mf.autoExportPassphrase, mf.autoExportCompress); err != nil {
			log.Printf("qrfs: fallback auto-export to %s also failed: %s", fallback, err)
		}
	}
}

func fallbackExportDir() (string, error) {
	dir, err := os.MkdirTemp("", "qrfs-export-*")
	if err != nil {
		return "", err
	}
	return filepath.Clean(dir), nil
}
