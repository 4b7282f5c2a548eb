package accounts

import (
	"crypto/rand"
	"encoding/base64"

	goerrors "github.com/goliatone/go-errors"
)

const keyByteLen = 32

// RandomKeyGenerator derives activation keys from crypto/rand, encoded
// URL-safe without padding. Collisions are treated as negligible and not
// checked for.
type RandomKeyGenerator struct{}

var _ KeyGenerator = RandomKeyGenerator{}

func (RandomKeyGenerator) Generate() (string, error) {
	buf := make([]byte, keyByteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read random bytes for activation key")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// KeyGeneratorFunc adapts a func into a KeyGenerator, used by tests
type KeyGeneratorFunc func() (string, error)

func (f KeyGeneratorFunc) Generate() (string, error) {
	return f()
}
