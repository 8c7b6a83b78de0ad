package main

import (
	"fmt"
	"os"

	"github.com/go-qrfs/qrfs"
)

const usage = `qrfs-mkfs - create an empty QR archive

Usage:
  qrfs-mkfs <qr_dir>    Create an empty archive in qr_dir containing only the root directory

Examples:
  qrfs-mkfs ./my-archive
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	qrDir := os.Args[1]

	passphrase, err := qrfs.PromptPassphrase("passphrase: ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	m, err := qrfs.NewModel(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize filesystem: %s\n", err)
		os.Exit(1)
	}

	if err := qrfs.ExportArchive(m, qrDir, passphrase, qrfs.CompressNone); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to export archive: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("created empty archive in %s\n", qrDir)
}
