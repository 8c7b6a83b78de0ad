package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/go-qrfs/qrfs"
)

const usage = `qrfs-mount - mount a qrfs backing file

Usage:
  qrfs-mount <mountpoint> [disk_path]    Mount the backing file at mountpoint

If disk_path is omitted, you will be prompted for it. If the file does not
exist, a fresh filesystem is created there.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	mountpoint := os.Args[1]

	var diskPath string
	if len(os.Args) > 2 {
		diskPath = os.Args[2]
	} else {
		fmt.Print("disk path: ")
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		diskPath = trimNewline(line)
	}

	var (
		dev *qrfs.BlockDevice
		err error
	)
	if _, statErr := os.Stat(diskPath); statErr != nil {
		dev, err = qrfs.Mkfs(diskPath)
	} else {
		dev, err = qrfs.OpenBlockDevice(diskPath)
	}
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

	mounted, err := qrfs.Mount(mountpoint, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to mount: %s\n", err)
		os.Exit(1)
	}

	fmt.Printf("mounted %s at %s\n", diskPath, mountpoint)
	mounted.Wait()
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
