package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/vizailabs/vizboost-backend/pkg/config"
)

// ErrInvalidHash is returned when a stored hash cannot be parsed.
var ErrInvalidHash = fmt.Errorf("invalid password hash")

// ArgonParams holds the argon2id parameters encoded alongside a hash.
type ArgonParams struct {
	MemoryKB uint32
	Time     uint32
	Threads  uint8
	SaltLen  uint32
	KeyLen   uint32
}

// HashPassword derives an argon2id hash of password using the configured
// parameters and returns it in the standard encoded form.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	params := ArgonParams{
		MemoryKB: uint32(clampInt(cfg.ArgonMemoryKB, 8*1024, 1024*1024)),
		Time:     uint32(clampInt(cfg.ArgonTime, 1, 10)),
		Threads:  uint8(clampInt(cfg.ArgonParallelism, 1, 16)),
		SaltLen:  uint32(clampInt(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:   uint32(clampInt(cfg.ArgonKeyLen, 16, 128)),
	}

	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKB, params.Threads, params.KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		params.MemoryKB,
		params.Time,
		params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// VerifyPassword reports whether password matches the encoded argon2id hash.
func VerifyPassword(password, encoded string) (bool, error) {
	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKB, params.Threads, params.KeyLen)
	if subtle.ConstantTimeCompare(key, candidate) == 1 {
		return true, nil
	}
	return false, nil
}

func decodeHash(encoded string) (ArgonParams, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	if version != argon2.Version {
		return ArgonParams{}, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	var params ArgonParams
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKB, &params.Time, &params.Threads); err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ArgonParams{}, nil, nil, ErrInvalidHash
	}

	params.SaltLen = uint32(len(salt))
	params.KeyLen = uint32(len(key))
	return params, salt, key, nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
