// Package auth provides password hashing and bearer-token primitives shared
// by the web login and the SFTP credential realm.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

func DefaultArgon2Params() Argon2Params {
	return Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 4,
		SaltLen:     16,
		KeyLen:      32,
	}
}

var errBadHash = errors.New("invalid password hash")

// HashPassword returns a PHC-style Argon2id string.
// Format: argon2id$v=19$m=65536,t=3,p=4$<salt_b64>$<hash_b64>
func HashPassword(password string, p Argon2Params) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	salt := make([]byte, p.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)
	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

func VerifyPassword(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}
	p, salt, want, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	got := argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// DummyVerify burns the same work as a real verification so unknown-username
// rejections take as long as wrong-password ones.
func DummyVerify(password string) {
	p := DefaultArgon2Params()
	salt := make([]byte, p.SaltLen)
	_ = argon2.IDKey([]byte(password), salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLen)
}

func parsePHC(s string) (Argon2Params, []byte, []byte, error) {
	fail := func(msg string) (Argon2Params, []byte, []byte, error) {
		return Argon2Params{}, nil, nil, fmt.Errorf("%w: %s", errBadHash, msg)
	}

	// argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
	parts := strings.Split(s, "$")
	if len(parts) != 5 {
		return fail("format")
	}
	if parts[0] != "argon2id" {
		return fail("algorithm")
	}
	ver, ok := strings.CutPrefix(parts[1], "v=")
	if !ok || ver != strconv.Itoa(argon2.Version) {
		return fail("version")
	}

	var p Argon2Params
	for _, kv := range strings.Split(parts[2], ",") {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			return fail("parameters")
		}
		n, err := strconv.ParseUint(val, 10, 32)
		if err != nil {
			return fail("parameters")
		}
		switch key {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Iterations = uint32(n)
		case "p":
			if n > 255 {
				return fail("parallelism")
			}
			p.Parallelism = uint8(n)
		default:
			return fail("unknown parameter " + key)
		}
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[3])
	if err != nil {
		return fail("salt")
	}
	hash, err := b64.DecodeString(parts[4])
	if err != nil {
		return fail("digest")
	}
	if len(hash) < 16 {
		return fail("digest length")
	}
	return p, salt, hash, nil
}
