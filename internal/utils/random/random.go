package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// CodeAlphabet omits characters that are easy to confuse when typed from a
// printed voucher (0/O, 1/I/L).
const CodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Source is the random-number interface consumed by the prize draw.
// *math/rand.Rand satisfies it, which keeps draws reproducible in tests.
type Source interface {
	Intn(n int) int
}

// CryptoSource draws from crypto/rand.
type CryptoSource struct{}

// Intn returns a uniform value in [0, n). It panics if n <= 0, like math/rand.
func (CryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("random: invalid argument to Intn")
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(fmt.Sprintf("random: crypto source failed: %v", err))
	}
	return int(v.Int64())
}

// Code returns prefix followed by length characters from CodeAlphabet.
func Code(prefix string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("code length must be positive")
	}
	var b strings.Builder
	b.Grow(len(prefix) + length)
	b.WriteString(prefix)
	max := big.NewInt(int64(len(CodeAlphabet)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		b.WriteByte(CodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
