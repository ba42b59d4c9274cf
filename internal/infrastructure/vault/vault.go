// Package vault implements the content store as per-document AES-256-GCM
// encrypted blobs on the local filesystem.
package vault

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mkravets/docvault/internal/core/domain"
	"github.com/mkravets/docvault/internal/core/ports"
)

const (
	objectSuffix    = ".vault"
	thumbnailSuffix = ".thumb"
	thumbnailDir    = "thumbnails"
)

// Store keeps one encrypted object per document under root. On-disk layout is
// a one-byte IV length, the IV, then the GCM-sealed payload. Every write uses
// a fresh IV and a per-document key from the provider.
type Store struct {
	root       string
	scratchDir string
	keys       ports.KeyProvider
	logger     *slog.Logger
}

func NewStore(root, scratchDir string, keys ports.KeyProvider, logger *slog.Logger) (*Store, error) {
	for _, dir := range []string{root, filepath.Join(root, thumbnailDir), scratchDir} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("vault: create %s: %w", dir, err)
		}
	}
	return &Store{root: root, scratchDir: scratchDir, keys: keys, logger: logger}, nil
}

func (s *Store) EncryptAndStore(ctx context.Context, sourcePath, documentID string) (*domain.VaultObject, error) {
	name := documentID + objectSuffix
	return s.encryptTo(ctx, sourcePath, documentID, name, filepath.Join(s.root, name))
}

func (s *Store) EncryptThumbnail(ctx context.Context, sourcePath, documentID string) (*domain.VaultObject, error) {
	name := documentID + thumbnailSuffix
	return s.encryptTo(ctx, sourcePath, documentID, name, filepath.Join(s.root, thumbnailDir, name))
}

func (s *Store) encryptTo(ctx context.Context, sourcePath, documentID, name, destPath string) (*domain.VaultObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	plaintext, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "vault.read_source", err)
	}

	key, err := s.keys.GetOrCreate(name)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "vault.key", err)
	}

	sealed, err := seal(key, plaintext)
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "vault.seal", err)
	}

	// Write through a temp file so a crash never leaves a partial object.
	tmp, err := os.CreateTemp(filepath.Dir(destPath), name+".tmp-*")
	if err != nil {
		return nil, domain.WrapError(domain.ErrUnavailable, "vault.tmp", err)
	}
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, domain.WrapError(domain.ErrUnavailable, "vault.write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, domain.WrapError(domain.ErrUnavailable, "vault.close", err)
	}
	if err := os.Rename(tmp.Name(), destPath); err != nil {
		os.Remove(tmp.Name())
		return nil, domain.WrapError(domain.ErrUnavailable, "vault.rename", err)
	}

	s.logger.Debug("vault object written", "name", name, "bytes", len(sealed))
	return &domain.VaultObject{
		DocumentID: documentID,
		Name:       name,
		Path:       destPath,
		SizeBytes:  int64(len(sealed)),
	}, nil
}

func (s *Store) DecryptToTemp(ctx context.Context, documentID string) (string, error) {
	name := documentID + objectSuffix
	return s.decryptTo(ctx, name, filepath.Join(s.root, name), "doc-*.pdf")
}

func (s *Store) DecryptThumbnailToTemp(ctx context.Context, documentID string) (string, error) {
	name := documentID + thumbnailSuffix
	return s.decryptTo(ctx, name, filepath.Join(s.root, thumbnailDir, name), "thumb-*")
}

func (s *Store) decryptTo(ctx context.Context, name, objectPath, pattern string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sealed, err := os.ReadFile(objectPath)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnavailable, "vault.read_object", err)
	}

	key, err := s.keys.GetOrCreate(name)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnavailable, "vault.key", err)
	}

	plaintext, err := open(key, sealed)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnavailable, "vault.open", err)
	}

	out, err := os.CreateTemp(s.scratchDir, pattern)
	if err != nil {
		return "", domain.WrapError(domain.ErrUnavailable, "vault.tmp", err)
	}
	if _, err := out.Write(plaintext); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", domain.WrapError(domain.ErrUnavailable, "vault.write", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", domain.WrapError(domain.ErrUnavailable, "vault.close", err)
	}
	return out.Name(), nil
}

// Remove deletes the object, its thumbnail, and their keys. Only the main
// object's absence is reported back.
func (s *Store) Remove(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.root, thumbnailDir, documentID+thumbnailSuffix)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("thumbnail removal failed", "id", documentID, "error", err)
	}
	for _, alias := range []string{documentID + objectSuffix, documentID + thumbnailSuffix} {
		if err := s.keys.Delete(alias); err != nil {
			s.logger.Warn("key removal failed", "alias", alias, "error", err)
		}
	}

	err := os.Remove(filepath.Join(s.root, documentID+objectSuffix))
	if err != nil && !os.IsNotExist(err) {
		return domain.WrapError(domain.ErrUnavailable, "vault.remove", err)
	}
	return nil
}

func seal(key, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	out := make([]byte, 0, 1+len(iv)+len(plaintext)+gcm.Overhead())
	out = append(out, byte(len(iv)))
	out = append(out, iv...)
	return gcm.Seal(out, iv, plaintext, nil), nil
}

func open(key, sealed []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	r := &headerReader{data: sealed}
	ivLen, err := r.byte()
	if err != nil {
		return nil, err
	}
	iv, err := r.take(int(ivLen))
	if err != nil {
		return nil, err
	}
	if len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("iv length %d does not match cipher", len(iv))
	}
	return gcm.Open(nil, iv, r.rest(), nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// headerReader consumes the object header with full-read semantics so a
// truncated object fails cleanly instead of panicking.
type headerReader struct {
	data []byte
	off  int
}

func (r *headerReader) byte() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *headerReader) take(n int) ([]byte, error) {
	if r.off+n > len(r.data) {
		return nil, io.ErrUnexpectedEOF
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *headerReader) rest() []byte {
	return r.data[r.off:]
}
