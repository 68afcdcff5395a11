package sealed

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/jrsteele09/go-erp-client/internal/errors"
	"github.com/jrsteele09/go-erp-client/storage"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

var _ storage.Repo = (*Repo)(nil)

// KDFParams are the Argon2id cost parameters used to derive the sealing key.
type KDFParams struct {
	Iterations  uint32
	MemoryKiB   uint32
	Parallelism uint8
	SaltLength  int
}

// DefaultKDFParams follow the RFC 9106 second recommended option.
var DefaultKDFParams = KDFParams{
	Iterations:  3,
	MemoryKiB:   64 * 1024,
	Parallelism: 4,
	SaltLength:  16,
}

// Repo encrypts every value with XChaCha20-Poly1305 before handing it to the
// wrapped Repo. The key name is bound as associated data so a ciphertext
// cannot be moved to another key.
type Repo struct {
	inner storage.Repo
	aead  cipher.AEAD
}

type Option func(*KDFParams)

func WithKDFParams(params KDFParams) Option {
	return func(p *KDFParams) {
		*p = params
	}
}

// New derives the sealing key from passphrase with Argon2id. The salt is
// generated on first use and kept unencrypted in inner under
// storage.KeySealSalt.
func New(ctx context.Context, inner storage.Repo, passphrase string, options ...Option) (*Repo, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("[sealed New] empty passphrase: %w", errors.ErrInvalidConfig)
	}
	params := DefaultKDFParams
	for _, opt := range options {
		opt(&params)
	}

	salt, err := loadSalt(ctx, inner, params.SaltLength)
	if err != nil {
		return nil, err
	}
	key := argon2.IDKey([]byte(passphrase), salt, params.Iterations, params.MemoryKiB, params.Parallelism, chacha20poly1305.KeySize)
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("[sealed New] cipher: %w", err)
	}
	return &Repo{inner: inner, aead: aead}, nil
}

func loadSalt(ctx context.Context, inner storage.Repo, length int) ([]byte, error) {
	stored, found, err := inner.Get(ctx, storage.KeySealSalt)
	if err != nil {
		return nil, fmt.Errorf("[sealed loadSalt] %w", err)
	}
	if found {
		salt, err := base64.RawStdEncoding.DecodeString(stored)
		if err != nil || len(salt) == 0 {
			return nil, fmt.Errorf("[sealed loadSalt] %w", errors.ErrMalformedState)
		}
		return salt, nil
	}

	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("[sealed loadSalt] salt: %w", err)
	}
	if err := inner.Set(ctx, map[string]string{storage.KeySealSalt: base64.RawStdEncoding.EncodeToString(salt)}); err != nil {
		return nil, fmt.Errorf("[sealed loadSalt] %w", err)
	}
	return salt, nil
}

func (r *Repo) Get(ctx context.Context, key string) (string, bool, error) {
	v, found, err := r.inner.Get(ctx, key)
	if err != nil || !found {
		return "", found, err
	}
	raw, err := base64.RawStdEncoding.DecodeString(v)
	if err != nil || len(raw) < r.aead.NonceSize()+r.aead.Overhead() {
		return "", false, fmt.Errorf("[sealed Get] %s: %w", key, errors.ErrMalformedState)
	}
	nonce, ciphertext := raw[:r.aead.NonceSize()], raw[r.aead.NonceSize():]
	plain, err := r.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", false, fmt.Errorf("[sealed Get] %s: %w", key, errors.ErrMalformedState)
	}
	return string(plain), true, nil
}

func (r *Repo) Set(ctx context.Context, values map[string]string) error {
	sealed := make(map[string]string, len(values))
	for k, v := range values {
		nonce := make([]byte, r.aead.NonceSize(), r.aead.NonceSize()+len(v)+r.aead.Overhead())
		if _, err := rand.Read(nonce); err != nil {
			return fmt.Errorf("[sealed Set] nonce: %w", err)
		}
		out := r.aead.Seal(nonce, nonce, []byte(v), []byte(k))
		sealed[k] = base64.RawStdEncoding.EncodeToString(out)
	}
	return r.inner.Set(ctx, sealed)
}

func (r *Repo) Delete(ctx context.Context, keys ...string) error {
	return r.inner.Delete(ctx, keys...)
}

func (r *Repo) Close() error {
	return r.inner.Close()
}
