// Package localfs feeds import candidates from local directories.
package localfs

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mkravets/docvault/internal/core/domain"
)

var supportedTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

var skippedDirs = []string{"cache", ".thumbnails", "temp", ".tmp"}

// Scanner walks the configured roots and returns document candidates above
// the size floor, de-duplicated by fingerprint within one scan.
type Scanner struct {
	roots       []string
	minSize     int64
	contentHash bool
	logger      *slog.Logger
}

type Option func(*Scanner)

// WithMinSize sets the smallest file size worth importing, in bytes.
func WithMinSize(size int64) Option {
	return func(s *Scanner) {
		if size >= 0 {
			s.minSize = size
		}
	}
}

// WithContentHash switches fingerprinting from the cheap path/size/mtime
// digest to a full content digest. Slower, but it survives file moves.
func WithContentHash(enabled bool) Option {
	return func(s *Scanner) { s.contentHash = enabled }
}

func New(roots []string, logger *slog.Logger, opts ...Option) *Scanner {
	s := &Scanner{
		roots:   roots,
		minSize: 50 * 1024,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) Scan(ctx context.Context) ([]domain.ScannedFile, error) {
	var (
		out  []domain.ScannedFile
		seen = make(map[string]bool)
	)

	for _, root := range s.roots {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				s.logger.Warn("scan entry skipped", "path", path, "error", err)
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if entry.IsDir() {
				if skipDir(entry.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			file, ok := s.candidate(path, entry)
			if !ok || seen[file.ContentFingerprint] {
				return nil
			}
			seen[file.ContentFingerprint] = true
			out = append(out, file)
			return nil
		})
		if err != nil {
			if os.IsNotExist(err) {
				s.logger.Warn("scan root missing", "root", root)
				continue
			}
			return nil, fmt.Errorf("scan %s: %w", root, err)
		}
	}

	s.logger.Info("scan finished", "roots", len(s.roots), "candidates", len(out))
	return out, nil
}

func (s *Scanner) candidate(path string, entry fs.DirEntry) (domain.ScannedFile, bool) {
	mimeType, ok := supportedTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return domain.ScannedFile{}, false
	}

	info, err := entry.Info()
	if err != nil || info.Size() < s.minSize {
		return domain.ScannedFile{}, false
	}

	fingerprint, err := s.fingerprint(path, info)
	if err != nil {
		s.logger.Warn("fingerprint failed", "path", path, "error", err)
		return domain.ScannedFile{}, false
	}

	return domain.ScannedFile{
		Locator:            "file://" + path,
		DisplayName:        filepath.Base(path),
		SourcePath:         path,
		SizeBytes:          info.Size(),
		MimeType:           mimeType,
		ModifiedAt:         info.ModTime(),
		ContentFingerprint: fingerprint,
	}, true
}

func (s *Scanner) fingerprint(path string, info fs.FileInfo) (string, error) {
	if s.contentHash {
		return contentDigest(path)
	}
	sum := md5.Sum(fmt.Appendf(nil, "%s|%d|%d", path, info.Size(), info.ModTime().UnixMilli()))
	return hex.EncodeToString(sum[:]), nil
}

func contentDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func skipDir(name string) bool {
	lower := strings.ToLower(name)
	for _, skip := range skippedDirs {
		if lower == skip {
			return true
		}
	}
	return false
}
