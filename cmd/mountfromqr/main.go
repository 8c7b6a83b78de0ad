package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-qrfs/qrfs"
	"github.com/google/uuid"
)

const usage = `qrfs-mountfromqr - import a QR archive and mount it

Usage:
  qrfs-mountfromqr <qr_dir> <mountpoint> [disk_path]

Imports the QR archive in qr_dir, rebuilding a backing file at disk_path (a
temporary file if omitted), then mounts it at mountpoint.
`

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}
	qrDir := os.Args[1]
	mountpoint := os.Args[2]

	var diskPath string
	if len(os.Args) > 3 {
		diskPath = os.Args[3]
	} else {
		diskPath = filepath.Join(os.TempDir(), "qrfs-"+uuid.New().String()+".img")
	}

	passphrase, err := qrfs.PromptPassphrase("passphrase: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	dev, err := qrfs.Mkfs(diskPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize backing file: %s\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	m, err := qrfs.ImportArchive(qrDir, passphrase, qrfs.CompressNone, dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to import archive: %s\n", err)
		os.Exit(1)
	}

	mounted, err := qrfs.Mount(mountpoint, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to mount: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("imported %s into %s, mounted at %s\n", qrDir, diskPath, mountpoint)
	mounted.Wait()
}
