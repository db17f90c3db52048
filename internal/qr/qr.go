// Package qr renders membership QR codes.
//
// Codes are encoded at the highest error-correction level with a 4-module
// quiet zone and 10 pixels per module, using the smallest symbol version that
// fits the payload. The PNG bytes are returned to the caller instead of being
// written to a shared path, so each row's image travels with that row only.
package qr

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/clubmontagne/membercards/internal/member"
)

const (
	// ModuleSize is the rendered size of one QR module in pixels
	ModuleSize = 10

	// MaxPayloadBytes is the byte-mode capacity of a version 40 symbol at
	// error-correction level H
	MaxPayloadBytes = 1273

	// ImageDir is the archive directory, relative to the page output directory
	ImageDir = "img"
)

var (
	// ErrEmptyPayload is returned when there is nothing to encode
	ErrEmptyPayload = errors.New("qr payload is empty")
	// ErrPayloadTooLarge is returned when the payload exceeds MaxPayloadBytes
	ErrPayloadTooLarge = errors.New("qr payload exceeds symbol capacity")
)

// Generator renders QR codes and archives them next to the member pages
type Generator struct {
	outputDir string
}

// NewGenerator creates a Generator archiving images under outputDir/img
func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir}
}

// Generate renders link as a PNG QR code
func (g *Generator) Generate(link string) ([]byte, error) {
	if link == "" {
		return nil, ErrEmptyPayload
	}
	if len(link) > MaxPayloadBytes {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(link), MaxPayloadBytes)
	}

	code, err := qrcode.New(link, qrcode.Highest)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}

	// A negative size fixes the pixels per module rather than the image size
	png, err := code.PNG(-ModuleSize)
	if err != nil {
		return nil, fmt.Errorf("rendering qr code: %w", err)
	}

	return png, nil
}

// Archive writes png to outputDir/img/name, replacing any previous image.
// It returns the written path.
func (g *Generator) Archive(name string, png []byte) (string, error) {
	if err := member.CheckKey(name); err != nil {
		return "", err
	}

	dir := filepath.Join(g.outputDir, ImageDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating image directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, png, 0644); err != nil {
		return "", fmt.Errorf("writing qr image: %w", err)
	}

	return path, nil
}
