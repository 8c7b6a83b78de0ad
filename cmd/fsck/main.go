package main

import (
	"fmt"
	"os"

	"github.com/go-qrfs/qrfs"
)

const usage = `qrfs-fsck - consistency check plus a directory tree preview

Usage:
  qrfs-fsck <disk_path> [max_depth]

max_depth defaults to 4.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	diskPath := os.Args[1]
	maxDepth := 4
	if len(os.Args) > 2 {
		fmt.Sscanf(os.Args[2], "%d", &maxDepth)
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

	fmt.Print(qrfs.DirectoryTree(m, 1, maxDepth))
	fmt.Println()

	report := qrfs.Check(m)
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, issue := range report.Issues {
		fmt.Printf("issue: %s\n", issue)
	}

	if !report.Clean() {
		fmt.Printf("%d issue(s) found\n", len(report.Issues))
		os.Exit(1)
	}
	fmt.Println("no issues found")
}
