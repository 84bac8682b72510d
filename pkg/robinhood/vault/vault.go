// Package vault persists brokerage credentials across process restarts
// without leaving readable plaintext on disk. Each field of the credential
// record is sealed individually with XChaCha20-Poly1305; loading succeeds
// only if every field decrypts cleanly.
package vault

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	// ErrNotFound is returned by Load when no credential file exists at the
	// given path.
	ErrNotFound = errors.New("vault: no stored credentials")

	// ErrDecrypt is returned by Load when the file exists but a field fails
	// to authenticate, typically because the wrong key was supplied.
	ErrDecrypt = errors.New("vault: decryption failed")
)

// Credentials is the record persisted between sessions. It is only valid
// when all four fields are non-empty.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	DeviceToken  string
}

// Valid reports whether every field of the record is populated.
func (c *Credentials) Valid() bool {
	return c != nil &&
		c.AccessToken != "" &&
		c.RefreshToken != "" &&
		c.TokenType != "" &&
		c.DeviceToken != ""
}

// fileLayout is the on-disk shape: one base64 blob per field, each blob a
// random nonce followed by the AEAD ciphertext.
type fileLayout struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	DeviceToken  string `json:"device_token"`
}

// GenerateKey returns a fresh 32-byte symmetric key suitable for Save and
// Load.
func GenerateKey() ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}
	return key, nil
}

// Save writes the encrypted record to path, creating the parent directory if
// absent. The write is atomic: a temp file in the same directory is renamed
// over the destination.
func Save(path string, key []byte, creds *Credentials) error {
	if !creds.Valid() {
		return errors.New("vault: refusing to store incomplete credentials")
	}

	var layout fileLayout
	var err error
	if layout.AccessToken, err = seal(key, creds.AccessToken); err != nil {
		return err
	}
	if layout.RefreshToken, err = seal(key, creds.RefreshToken); err != nil {
		return err
	}
	if layout.TokenType, err = seal(key, creds.TokenType); err != nil {
		return err
	}
	if layout.DeviceToken, err = seal(key, creds.DeviceToken); err != nil {
		return err
	}

	data, err := json.MarshalIndent(&layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding credential file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".vault-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing credential file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("setting credential file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing credential file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing credential file: %w", err)
	}
	return nil
}

// Load reads and decrypts the record at path. It returns ErrNotFound when
// the file does not exist and ErrDecrypt when any field fails to open.
func Load(path string, key []byte) (*Credentials, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading credential file: %w", err)
	}

	var layout fileLayout
	if err := json.Unmarshal(data, &layout); err != nil {
		return nil, fmt.Errorf("decoding credential file: %w", err)
	}

	creds := &Credentials{}
	if creds.AccessToken, err = open(key, layout.AccessToken); err != nil {
		return nil, err
	}
	if creds.RefreshToken, err = open(key, layout.RefreshToken); err != nil {
		return nil, err
	}
	if creds.TokenType, err = open(key, layout.TokenType); err != nil {
		return nil, err
	}
	if creds.DeviceToken, err = open(key, layout.DeviceToken); err != nil {
		return nil, err
	}
	if !creds.Valid() {
		return nil, fmt.Errorf("%w: incomplete record", ErrDecrypt)
	}
	return creds, nil
}

// seal encrypts plaintext under key and returns base64(nonce || ciphertext).
func seal(key []byte, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("vault: bad key: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	ct := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ct), nil
}

// open reverses seal.
func open(key []byte, blob string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", fmt.Errorf("vault: bad key: %w", err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("%w: blob too short", ErrDecrypt)
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(pt), nil
}

// NewDeviceToken produces the stable device identifier sent with every login
// attempt: 16 uniformly random bytes rendered as lowercase hex with dash
// separators in the 8-4-4-4-12 grouping.
func NewDeviceToken() (string, error) {
	raw := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", fmt.Errorf("generating device token: %w", err)
	}
	hexed := hex.EncodeToString(raw)
	return hexed[0:8] + "-" + hexed[8:12] + "-" + hexed[12:16] + "-" + hexed[16:20] + "-" + hexed[20:32], nil
}

// DefaultPath returns the conventional credential file location,
// ~/.tokens/robinhood<suffix>.json. An empty suffix yields robinhood.json.
func DefaultPath(suffix string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".tokens", "robinhood"+suffix+".json"), nil
}
