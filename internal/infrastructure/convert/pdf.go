// Package convert normalizes import candidates into single-document PDF files.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/jung-kurt/gofpdf"

	"github.com/mkravets/docvault/internal/core/domain"
)

// A4 content box in millimeters after margins.
const (
	pageWidth  = 190.0
	pageHeight = 277.0
	margin     = 10.0
)

var imageTypes = map[string]string{
	"image/jpeg": "JPG",
	"image/jpg":  "JPG",
	"image/png":  "PNG",
}

// PDFConverter turns supported images into one-page PDFs and passes PDF input
// through untouched.
type PDFConverter struct{}

func NewPDFConverter() *PDFConverter { return &PDFConverter{} }

func (c *PDFConverter) Normalize(ctx context.Context, sourcePath, mimeType, destPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	switch {
	case mimeType == "application/pdf":
		return copyFile(sourcePath, destPath)
	case imageTypes[mimeType] != "":
		return c.imageToPDF(sourcePath, imageTypes[mimeType], destPath)
	default:
		return domain.WrapError(domain.ErrInvalidInput, "convert",
			fmt.Errorf("unsupported content type %q", mimeType))
	}
}

func (c *PDFConverter) imageToPDF(sourcePath, imageType, destPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer source.Close()

	doc := gofpdf.New("P", "mm", "A4", "")
	doc.AddPage()

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := doc.RegisterImageOptionsReader("scan", opts, source)
	if doc.Err() {
		return fmt.Errorf("register image: %w", doc.Error())
	}

	w, h := fitToPage(info.Width(), info.Height())
	doc.ImageOptions("scan", margin, margin, w, h, false, opts, 0, "")

	if err := doc.OutputFileAndClose(destPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// fitToPage scales the image down to the content box preserving aspect ratio.
// Images already inside the box keep their size.
func fitToPage(w, h float64) (float64, float64) {
	if w <= pageWidth && h <= pageHeight {
		return w, h
	}
	scale := pageWidth / w
	if s := pageHeight / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}

func copyFile(sourcePath, destPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer source.Close()

	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create dest: %w", err)
	}
	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		os.Remove(destPath)
		return fmt.Errorf("copy: %w", err)
	}
	return dest.Close()
}
