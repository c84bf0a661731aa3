package domain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
)

const (
	// Alphabet is the set of characters a code may contain.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	MinCodeLength       = 6
	MaxCodeLength       = 8
	GeneratedCodeLength = 6
)

var (
	codePattern  = regexp.MustCompile(`^[A-Za-z0-9]{6,8}$`)
	alphabetSize = big.NewInt(int64(len(Alphabet)))
)

// ValidCode reports whether s is an acceptable short code.
func ValidCode(s string) bool {
	return codePattern.MatchString(s)
}

// ValidateTargetURL checks that raw is an absolute URL with a host. Any
// scheme is accepted.
func ValidateTargetURL(raw string) error {
	if raw == "" {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if u.Scheme == "" || u.Hostname() == "" {
		return ErrInvalidURL
	}
	return nil
}

// GenerateCode draws n characters uniformly from Alphabet using crypto/rand.
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("invalid code length %d", n)
	}
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to read random index: %w", err)
		}
		b[i] = Alphabet[idx.Int64()]
	}
	return string(b), nil
}

// CodeGenerator produces candidate codes for the allocator.
type CodeGenerator func() (string, error)

// RandomCodes is the default generator: GeneratedCodeLength random characters.
func RandomCodes() (string, error) {
	return GenerateCode(GeneratedCodeLength)
}
