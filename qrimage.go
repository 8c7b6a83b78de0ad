package qrfs

import (
	"encoding/base64"
	"fmt"
	"image/png"
	"os"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	goqrcode "github.com/skip2/go-qrcode"
)

// qrImageSize is the rendered width and height, in pixels, of every archive
// QR image.
const qrImageSize = 200

// encodeBlobToImage base64-encodes raw, encodes it as a QR symbol at EC
// level H, and writes a 200x200 PNG to path.
func encodeBlobToImage(raw []byte, path string) error {
	payload := base64.StdEncoding.EncodeToString(raw)
	qr, err := goqrcode.New(payload, goqrcode.Highest)
	if err != nil {
		return fmt.Errorf("qrfs: encoding qr image %s: %w", path, err)
	}
	if err := qr.WriteFile(qrImageSize, path); err != nil {
		return fmt.Errorf("qrfs: writing qr image %s: %w", path, err)
	}
	return nil
}

// decodeImageToBlob is the inverse of encodeBlobToImage: it reads a PNG,
// decodes its QR symbol, and base64-decodes the payload back to raw bytes.
func decodeImageToBlob(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIO, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %s", ErrCorruptArchive, path, err)
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptArchive, err)
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding qr symbol in %s: %s", ErrCorruptArchive, path, err)
	}

	raw, err := base64.StdEncoding.DecodeString(result.GetText())
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptArchive, err)
	}
	return raw, nil
}
