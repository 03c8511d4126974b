// Package password provides one-way password hashing with argon2id and
// constant-time verification. Hashes use the PHC string format so parameters
// travel with the hash and can be raised later without breaking old records.
package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	timeCost    = 1
	memoryKB    = 64 * 1024
	parallelism = 4
	saltLength  = 16
	keyLength   = 32
)

// Hasher hashes and verifies passwords. A dummy hash is precomputed at
// construction so login can run a verification even when the user does not
// exist, keeping "no such user" and "wrong password" timings alike.
type Hasher struct {
	dummy string
}

func NewHasher() (*Hasher, error) {
	dummy, err := Hash("dummy_password")
	if err != nil {
		return nil, err
	}
	return &Hasher{dummy: dummy}, nil
}

// Dummy returns the precomputed hash used for timing mitigation.
func (h *Hasher) Dummy() string { return h.dummy }

// Hash derives an argon2id hash of the password under a fresh random salt.
func Hash(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, timeCost, memoryKB, parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memoryKB, timeCost, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Verify reports whether password matches the PHC-encoded hash. The final
// comparison is constant-time.
func Verify(password string, encoded string) (bool, error) {
	salt, key, params, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

type phcParams struct {
	memory      uint32
	time        uint32
	parallelism uint8
}

func parsePHC(encoded string) (salt, key []byte, params phcParams, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, params, errors.New("invalid hash format")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, params, errors.New("unsupported argon2 version")
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memory, &params.time, &params.parallelism); err != nil {
		return nil, nil, params, errors.New("invalid hash parameters")
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, errors.New("invalid salt encoding")
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, params, errors.New("invalid key encoding")
	}

	return salt, key, params, nil
}
