// Package qr renders QR code images for check-in URLs.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

const size = 256 // pixels, square

// Encode renders a URL as a PNG in memory.
func Encode(url string) ([]byte, error) {
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}

// WriteFile renders a URL as a PNG at the given path.
func WriteFile(url, path string) error {
	if err := qrcode.WriteFile(url, qrcode.Medium, size, path); err != nil {
		return fmt.Errorf("write qr %s: %w", path, err)
	}
	return nil
}
