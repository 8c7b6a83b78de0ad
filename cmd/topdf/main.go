package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jung-kurt/gofpdf"
)

const usage = `qrfs-topdf - render a QR archive directory into one printable PDF

Usage:
  qrfs-topdf <qr_dir> <output_dir>    Writes <output_dir>/QRs.pdf
`

const (
	perPageCols = 3
	perPageRows = 4
	cellSize    = 60.0 // mm
	marginMM    = 10.0
)

func main() {
	if len(os.Args) < 3 {
		fmt.Println(usage)
		os.Exit(1)
	}
	qrDir := os.Args[1]
	outDir := os.Args[2]
	if err := os.MkdirAll(outDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create %s: %s\n", outDir, err)
		os.Exit(1)
	}
	outPath := filepath.Join(outDir, "QRs.pdf")

	var images []string
	err := filepath.WalkDir(qrDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if filepath.Ext(path) == ".png" {
			images = append(images, path)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to walk %s: %s\n", qrDir, err)
		os.Exit(1)
	}
	sort.Strings(images)
	if len(images) == 0 {
		fmt.Fprintf(os.Stderr, "Error: no QR images found in %s\n", qrDir)
		os.Exit(1)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	perPage := perPageCols * perPageRows
	for i, img := range images {
		if i%perPage == 0 {
			pdf.AddPage()
		}
		pos := i % perPage
		col := pos % perPageCols
		row := pos / perPageCols
		x := marginMM + float64(col)*cellSize
		y := marginMM + float64(row)*cellSize

		pdf.RegisterImageOptions(img, gofpdf.ImageOptions{ImageType: "PNG"})
		pdf.ImageOptions(img, x, y, cellSize-4, cellSize-4, false, gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
		pdf.SetXY(x, y+cellSize-4)
		pdf.SetFont("Arial", "", 8)
		pdf.CellFormat(cellSize-4, 4, filepath.Base(img), "", 0, "C", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to write %s: %s\n", outPath, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d QR images to %s\n", len(images), outPath)
}
