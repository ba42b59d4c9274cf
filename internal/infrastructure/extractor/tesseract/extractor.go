// Package tesseract extracts text from images and PDF files using the
// tesseract and poppler command line tools plus embedded PDF text.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
)

// Runner lets tests stub the external commands.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		r.logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		r.logger.Debug("exec ok",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", time.Since(start).Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

type Config struct {
	Tesseract string
	Pdftoppm  string
	Languages string
	DPI       int
}

func (c *Config) applyDefaults() {
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Languages == "" {
		c.Languages = "eng"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
}

// Extractor recognizes text in images directly and in PDFs via the embedded
// text layer, rendering the first page only when no text layer exists.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Extractor {
	cfg.applyDefaults()
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

// NewWithRunner is for tests.
func NewWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	cfg.applyDefaults()
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// ExtractText returns recognized text, or an empty string for content types it
// has no strategy for.
func (e *Extractor) ExtractText(ctx context.Context, path, mimeType string) (string, error) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return e.imageOCR(ctx, path)
	case mimeType == "application/pdf":
		return e.pdfText(ctx, path)
	default:
		return "", nil
	}
}

func (e *Extractor) imageOCR(ctx context.Context, path string) (string, error) {
	// tesseract <img> stdout -l <langs>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.Languages)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *Extractor) pdfText(ctx context.Context, path string) (string, error) {
	if text := embeddedFirstPageText(path); text != "" {
		return text, nil
	}
	return e.pdfOCR(ctx, path)
}

// embeddedFirstPageText pulls the text layer of page one. Scanned PDFs have
// none, so an empty result just routes the file to OCR.
func embeddedFirstPageText(path string) string {
	f, r, err := pdf.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return ""
	}

	defer func() {
		// The parser panics on some malformed files.
		_ = recover()
	}()

	text, err := r.Page(1).GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *Extractor) pdfOCR(ctx context.Context, path string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "docvault-render-*")
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -f 1 -l 1 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", e.cfg.DPI), "-f", "1", "-l", "1", "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 512))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no images")
	}
	return e.imageOCR(ctx, matches[0])
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
