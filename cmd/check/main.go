package main

import (
	"fmt"
	"os"

	"github.com/go-qrfs/qrfs"
)

const usage = `qrfs-check - run a read-only consistency pass over a backing file

Usage:
  qrfs-check <disk_path>

Exits non-zero if any hard issues are found.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	diskPath := os.Args[1]

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

	report := qrfs.Check(m)
	for _, w := range report.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	for _, issue := range report.Issues {
		fmt.Printf("issue: %s\n", issue)
	}

	if report.Clean() {
		fmt.Println("no issues found")
		return
	}
	fmt.Printf("%d issue(s) found\n", len(report.Issues))
	os.Exit(1)
}
