package main

import (
	"fmt"
	"os"

	"github.com/go-qrfs/qrfs"
)

const usage = `qrfs-export - export a backing file to a QR archive

Usage:
  qrfs-export <disk_path> <qr_dir> [compression]

compression is one of: none (default), zstd, xz
`

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}
	diskPath := os.Args[1]
	qrDir := os.Args[2]
	comp := qrfs.CompressNone
	if len(os.Args) > 3 {
		comp = qrfs.Compression(os.Args[3])
	}

	passphrase, err := qrfs.PromptPassphrase("passphrase: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	dev, err := qrfs.OpenBlockDevice(diskPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to open backing file: %s\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	m, err := qrfs.LoadFromDevice(dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load filesystem: %s\n", err)
		os.Exit(1)
	}

	if err := qrfs.ExportArchive(m, qrDir, passphrase, comp); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to export archive: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("exported %s to %s\n", diskPath, qrDir)
}
