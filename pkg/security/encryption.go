package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const KeySize = 32

var (
	ErrInvalidKeySize = errors.New("invalid key size")
	ErrSeal           = errors.New("seal failed")
	ErrOpen           = errors.New("open failed")
	ErrEmptySecret    = errors.New("secret must not be empty")
)

// DeriveKey expands secret into a key bound to purpose. Keys for different
// purposes share no material.
func DeriveKey(secret []byte, purpose string) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte("afresh-web/"+purpose)), key); err != nil {
		return nil, err
	}
	return key, nil
}

// Sealer encrypts and authenticates small values with AES-256-GCM. The
// nonce is prepended to the output.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Sealer{aead: aead}, nil
}

// NewSealerFor derives the key for purpose from secret.
func NewSealerFor(secret []byte, purpose string) (*Sealer, error) {
	key, err := DeriveKey(secret, purpose)
	if err != nil {
		return nil, err
	}
	return NewSealer(key)
}

// Seal encrypts plain. bound is authenticated but not stored, so Open only
// succeeds with the same bound value.
func (s *Sealer) Seal(plain, bound []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plain)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, ErrSeal
	}
	return s.aead.Seal(nonce, nonce, plain, bound), nil
}

func (s *Sealer) Open(sealed, bound []byte) ([]byte, error) {
	n := s.aead.NonceSize()
	if len(sealed) < n+s.aead.Overhead() {
		return nil, ErrOpen
	}
	plain, err := s.aead.Open(nil, sealed[:n], sealed[n:], bound)
	if err != nil {
		return nil, ErrOpen
	}
	return plain, nil
}
