package session

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// sealPrefix tags the cookie format so a future format change can be told
// apart from garbage.
const sealPrefix = "s1."

// hkdfSalt domain-separates session keys from any other use of the password.
const hkdfSalt = "outreach/session-cookie"

var (
	// ErrShortPassword is returned when the sealing password is under 32 characters.
	ErrShortPassword = errors.New("session password must be at least 32 characters")

	// ErrMalformed is returned for values that are not a sealed session.
	ErrMalformed = errors.New("malformed session cookie")

	// ErrTampered is returned when authentication of the sealed value fails.
	ErrTampered = errors.New("session cookie failed authentication")
)

// sealer encrypts and authenticates cookie payloads with XChaCha20-Poly1305.
// The key is derived from the configured password with HKDF-SHA256, and the
// cookie name is bound in as associated data so a value cannot be replayed
// under a different cookie.
type sealer struct {
	aead cipher.AEAD
	ad   []byte
}

func newSealer(password, cookieName string) (*sealer, error) {
	if len(password) < 32 {
		return nil, ErrShortPassword
	}

	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, []byte(password), []byte(hkdfSalt), []byte(cookieName))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("deriving session key: %w", err)
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("creating session cipher: %w", err)
	}
	return &sealer{aead: aead, ad: []byte(cookieName)}, nil
}

// seal returns prefix + base64url([nonce][ciphertext+tag]).
func (s *sealer) seal(plaintext []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, plaintext, s.ad)
	return sealPrefix + base64.RawURLEncoding.EncodeToString(out), nil
}

// open reverses seal.
func (s *sealer) open(value string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(value, sealPrefix)
	if !ok {
		return nil, ErrMalformed
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformed
	}

	nonceSize := s.aead.NonceSize()
	if len(raw) < nonceSize+s.aead.Overhead() {
		return nil, ErrMalformed
	}

	plaintext, err := s.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], s.ad)
	if err != nil {
		return nil, ErrTampered
	}
	return plaintext, nil
}
