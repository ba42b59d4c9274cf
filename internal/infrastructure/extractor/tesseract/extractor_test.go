package tesseract

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type scriptedRunner struct {
	calls   []string
	outputs map[string]string
	fail    map[string]error
}

func newScriptedRunner() *scriptedRunner {
	return &scriptedRunner{
		outputs: make(map[string]string),
		fail:    make(map[string]error),
	}
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, name+" "+strings.Join(args, " "))
	if err := r.fail[name]; err != nil {
		return nil, []byte("boom"), err
	}
	if name == "pdftoppm" {
		// Last arg is the output prefix.
		prefix := args[len(args)-1]
		if err := os.WriteFile(prefix+"-1.png", []byte("png"), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return []byte(r.outputs[name]), nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtractTextImage(t *testing.T) {
	runner := newScriptedRunner()
	runner.outputs["tesseract"] = "  Invoice Total $42.00  \n"
	ex := NewWithRunner(Config{Languages: "eng"}, runner, testLogger())

	got, err := ex.ExtractText(context.Background(), "/in/scan.jpg", "image/jpeg")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "Invoice Total $42.00" {
		t.Fatalf("text %q", got)
	}
	if len(runner.calls) != 1 || !strings.Contains(runner.calls[0], "-l eng") {
		t.Fatalf("calls %v", runner.calls)
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	runner := newScriptedRunner()
	ex := NewWithRunner(Config{}, runner, testLogger())

	got, err := ex.ExtractText(context.Background(), "/in/notes.txt", "text/plain")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "" {
		t.Fatalf("text %q, want empty", got)
	}
	if len(runner.calls) != 0 {
		t.Fatalf("unexpected commands: %v", runner.calls)
	}
}

func TestExtractTextImageFailure(t *testing.T) {
	runner := newScriptedRunner()
	runner.fail["tesseract"] = fmt.Errorf("exit status 1")
	ex := NewWithRunner(Config{}, runner, testLogger())

	if _, err := ex.ExtractText(context.Background(), "/in/scan.jpg", "image/jpeg"); err == nil {
		t.Fatal("want error from failed recognition")
	}
}

func TestExtractTextScannedPDFFallsBackToRender(t *testing.T) {
	runner := newScriptedRunner()
	runner.outputs["tesseract"] = "receipt text"
	ex := NewWithRunner(Config{DPI: 150}, runner, testLogger())

	// Not a parseable PDF, so the embedded text layer comes back empty.
	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	got, err := ex.ExtractText(context.Background(), path, "application/pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if got != "receipt text" {
		t.Fatalf("text %q", got)
	}

	if len(runner.calls) != 2 {
		t.Fatalf("calls %v", runner.calls)
	}
	if !strings.HasPrefix(runner.calls[0], "pdftoppm ") || !strings.Contains(runner.calls[0], "-r 150") {
		t.Fatalf("render call %q", runner.calls[0])
	}
	if !strings.HasPrefix(runner.calls[1], "tesseract ") {
		t.Fatalf("ocr call %q", runner.calls[1])
	}
}

func TestExtractTextRenderFailure(t *testing.T) {
	runner := newScriptedRunner()
	runner.fail["pdftoppm"] = fmt.Errorf("exit status 99")
	ex := NewWithRunner(Config{}, runner, testLogger())

	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 garbage"), 0o600); err != nil {
		t.Fatalf("write pdf: %v", err)
	}

	if _, err := ex.ExtractText(context.Background(), path, "application/pdf"); err == nil {
		t.Fatal("want error from failed render")
	}
}
