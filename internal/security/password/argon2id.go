// Package password deriva y verifica digests argon2id.
//
// El salt se guarda aparte del digest (columna propia en el store). El digest
// lleva sus parámetros de costo codificados para poder verificar hashes viejos
// después de subir los costos:
//
//	$argon2id$v=19$m=65536,t=3,p=1$<keyB64>
package password

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

// MinSaltLen es el largo mínimo aceptado para un salt.
const MinSaltLen = 16

type Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	KeyLen      uint32
	SaltLen     int
}

// Default: 64 MiB, 3 pasadas, 1 hilo, clave de 32 bytes, salt de 16 bytes.
var Default = Params{Memory: 64 * 1024, Time: 3, Parallelism: 1, KeyLen: 32, SaltLen: 16}

var (
	ErrEmptySecret   = errors.New("password: empty secret")
	ErrShortSalt     = fmt.Errorf("password: salt shorter than %d bytes", MinSaltLen)
	ErrInvalidDigest = errors.New("password: invalid digest encoding")
)

func (p Params) Validate() error {
	if p.Memory < 8*uint32(p.Parallelism) || p.Time == 0 || p.Parallelism == 0 {
		return fmt.Errorf("password: invalid argon2id cost m=%d t=%d p=%d", p.Memory, p.Time, p.Parallelism)
	}
	if p.KeyLen < 16 {
		return fmt.Errorf("password: key_len %d too small", p.KeyLen)
	}
	if p.SaltLen < MinSaltLen {
		return ErrShortSalt
	}
	return nil
}

// NewSalt genera n bytes aleatorios con crypto/rand.
func NewSalt(n int) ([]byte, error) {
	if n < MinSaltLen {
		return nil, ErrShortSalt
	}
	salt := make([]byte, n)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// Derive calcula el digest codificado de plain con el salt dado.
func Derive(p Params, plain string, salt []byte) (string, error) {
	if plain == "" {
		return "", ErrEmptySecret
	}
	if len(salt) < MinSaltLen {
		return "", ErrShortSalt
	}
	dk := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s",
		argon2.Version, p.Memory, p.Time, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(dk),
	), nil
}

// Hash genera un salt nuevo y deriva el digest.
func Hash(p Params, plain string) (salt []byte, digest string, err error) {
	n := p.SaltLen
	if n == 0 {
		n = MinSaltLen
	}
	salt, err = NewSalt(n)
	if err != nil {
		return nil, "", err
	}
	digest, err = Derive(p, plain, salt)
	if err != nil {
		return nil, "", err
	}
	return salt, digest, nil
}

// Verify re-deriva con los parámetros del digest y compara en tiempo constante.
func Verify(plain string, salt []byte, digest string) bool {
	p, want, err := decode(digest)
	if err != nil || len(salt) < MinSaltLen {
		return false
	}
	got := argon2.IDKey([]byte(plain), salt, p.Time, p.Memory, p.Parallelism, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

func decode(digest string) (Params, []byte, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", key
	parts := strings.Split(digest, "$")
	if len(parts) != 5 || parts[0] != "" || parts[1] != "argon2id" {
		return Params{}, nil, ErrInvalidDigest
	}
	if parts[2] != "v="+strconv.Itoa(argon2.Version) {
		return Params{}, nil, ErrInvalidDigest
	}
	var p Params
	for _, kv := range strings.Split(parts[3], ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return Params{}, nil, ErrInvalidDigest
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return Params{}, nil, ErrInvalidDigest
		}
		switch k {
		case "m":
			p.Memory = uint32(n)
		case "t":
			p.Time = uint32(n)
		case "p":
			if n > 255 {
				return Params{}, nil, ErrInvalidDigest
			}
			p.Parallelism = uint8(n)
		default:
			return Params{}, nil, ErrInvalidDigest
		}
	}
	if p.Memory == 0 || p.Time == 0 || p.Parallelism == 0 {
		return Params{}, nil, ErrInvalidDigest
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(key) == 0 {
		return Params{}, nil, ErrInvalidDigest
	}
	return p, key, nil
}
