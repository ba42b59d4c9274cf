package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q", cfg.APIPort)
	}
	if cfg.NATSSubject != "documents.import" {
		t.Fatalf("NATSSubject = %q", cfg.NATSSubject)
	}
	if cfg.ImportConcurrency != 3 {
		t.Fatalf("ImportConcurrency = %d", cfg.ImportConcurrency)
	}
	if cfg.ImportChunkSize != 50 {
		t.Fatalf("ImportChunkSize = %d", cfg.ImportChunkSize)
	}
	if cfg.ScanMinSizeKB != 50 {
		t.Fatalf("ScanMinSizeKB = %d", cfg.ScanMinSizeKB)
	}
	if cfg.ScanContentHash {
		t.Fatal("ScanContentHash should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("IMPORT_CONCURRENCY", "8")
	t.Setenv("SCAN_ROOTS", "/a, /b ,,")
	t.Setenv("SCAN_CONTENT_HASH", "true")
	t.Setenv("HTTP_RATE_LIMIT", "12.5")

	cfg := Load()
	if cfg.ImportConcurrency != 8 {
		t.Fatalf("ImportConcurrency = %d", cfg.ImportConcurrency)
	}
	if len(cfg.ScanRoots) != 2 || cfg.ScanRoots[0] != "/a" || cfg.ScanRoots[1] != "/b" {
		t.Fatalf("ScanRoots = %v", cfg.ScanRoots)
	}
	if !cfg.ScanContentHash {
		t.Fatal("ScanContentHash override lost")
	}
	if cfg.HTTPRateLimit != 12.5 {
		t.Fatalf("HTTPRateLimit = %v", cfg.HTTPRateLimit)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("IMPORT_CONCURRENCY", "lots")
	t.Setenv("SCAN_CONTENT_HASH", "maybe")

	cfg := Load()
	if cfg.ImportConcurrency != 3 {
		t.Fatalf("ImportConcurrency = %d", cfg.ImportConcurrency)
	}
	if cfg.ScanContentHash {
		t.Fatal("malformed bool should fall back")
	}
}
