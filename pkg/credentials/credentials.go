package credentials

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Params configures argon2id key derivation
type Params struct {
	Memory      uint32 // KiB
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

var DefaultParams = Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 2,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher derives salted password hashes
type Hasher struct {
	params Params
}

func NewHasher(params Params) *Hasher {
	return &Hasher{params: params}
}

// NewSalt returns SaltLength random bytes
func (h *Hasher) NewSalt() ([]byte, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// Hash derives the key for password and salt
func (h *Hasher) Hash(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, h.params.KeyLength)
}

// Verify recomputes the hash with the stored salt and compares in constant time
func (h *Hasher) Verify(password string, salt, hash []byte) bool {
	candidate := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, uint32(len(hash)))
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// VerifyMissing does the same derivation work as Verify for an account that
// does not exist, so both failures take equally long. It always returns false.
func (h *Hasher) VerifyMissing(password string) bool {
	salt := make([]byte, h.params.SaltLength)
	hash := make([]byte, h.params.KeyLength)
	h.Verify(password, salt, hash)
	return false
}
