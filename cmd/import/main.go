package main

import (
	"fmt"
	"os"

	"github.com/go-qrfs/qrfs"
)

const usage = `qrfs-import - import a QR archive into a fresh backing file

Usage:
  qrfs-import <qr_dir> <disk_path> [compression]

compression is one of: none (default), zstd, xz
`

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}
	qrDir := os.Args[1]
	diskPath := os.Args[2]
	comp := qrfs.CompressNone
	if len(os.Args) > 3 {
		comp = qrfs.Compression(os.Args[3])
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

	if _, err := qrfs.ImportArchive(qrDir, passphrase, comp, dev); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to import archive: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("imported %s into %s\n", qrDir, diskPath)
}
