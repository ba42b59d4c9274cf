// Package keystore provides per-alias AES-256 keys persisted on disk, each
// wrapped under a key derived from the deployment master secret.
package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/hkdf"
)

const (
	keySize     = 32
	derivedInfo = "docvault-keystore-v1"
	fileSuffix  = ".key"
)

// FileKeystore stores one wrapped key file per alias. Key material on disk is
// never the raw key: each is sealed with AES-GCM under the wrapping key.
type FileKeystore struct {
	dir     string
	wrapKey []byte

	mu sync.Mutex
}

// New derives the wrapping key from masterSecret with HKDF-SHA256 and prepares
// the key directory. The master secret never touches disk.
func New(dir string, masterSecret []byte) (*FileKeystore, error) {
	if len(masterSecret) == 0 {
		return nil, fmt.Errorf("keystore: empty master secret")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keystore: create dir: %w", err)
	}

	wrapKey := make([]byte, keySize)
	kdf := hkdf.New(sha256.New, masterSecret, []byte(derivedInfo), nil)
	if _, err := io.ReadFull(kdf, wrapKey); err != nil {
		return nil, fmt.Errorf("keystore: derive wrapping key: %w", err)
	}
	return &FileKeystore{dir: dir, wrapKey: wrapKey}, nil
}

// GetOrCreate returns the key for alias, generating and persisting a fresh
// random one on first use.
func (k *FileKeystore) GetOrCreate(alias string) ([]byte, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	path, err := k.path(alias)
	if err != nil {
		return nil, err
	}

	wrapped, err := os.ReadFile(path)
	switch {
	case err == nil:
		return k.unwrap(wrapped)
	case os.IsNotExist(err):
		return k.create(path)
	default:
		return nil, fmt.Errorf("keystore: read %s: %w", path, err)
	}
}

func (k *FileKeystore) Delete(alias string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	path, err := k.path(alias)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("keystore: delete %s: %w", path, err)
	}
	return nil
}

func (k *FileKeystore) create(path string) ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("keystore: generate key: %w", err)
	}

	wrapped, err := k.wrap(key)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, wrapped, 0o600); err != nil {
		return nil, fmt.Errorf("keystore: write %s: %w", path, err)
	}
	return key, nil
}

func (k *FileKeystore) wrap(key []byte) ([]byte, error) {
	gcm, err := k.gcm()
	if err != nil {
		return nil, err
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("keystore: generate iv: %w", err)
	}
	out := make([]byte, 0, 1+len(iv)+len(key)+gcm.Overhead())
	out = append(out, byte(len(iv)))
	out = append(out, iv...)
	return gcm.Seal(out, iv, key, nil), nil
}

func (k *FileKeystore) unwrap(wrapped []byte) ([]byte, error) {
	gcm, err := k.gcm()
	if err != nil {
		return nil, err
	}
	if len(wrapped) < 1 {
		return nil, fmt.Errorf("keystore: truncated key file")
	}
	ivLen := int(wrapped[0])
	if len(wrapped) < 1+ivLen || ivLen != gcm.NonceSize() {
		return nil, fmt.Errorf("keystore: malformed key file header")
	}
	key, err := gcm.Open(nil, wrapped[1:1+ivLen], wrapped[1+ivLen:], nil)
	if err != nil {
		return nil, fmt.Errorf("keystore: unwrap key: %w", err)
	}
	return key, nil
}

func (k *FileKeystore) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(k.wrapKey)
	if err != nil {
		return nil, fmt.Errorf("keystore: init cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// path rejects aliases that would escape the key directory.
func (k *FileKeystore) path(alias string) (string, error) {
	if alias == "" || strings.ContainsAny(alias, `/\`) || strings.Contains(alias, "..") {
		return "", fmt.Errorf("keystore: invalid alias %q", alias)
	}
	return filepath.Join(k.dir, alias+fileSuffix), nil
}
