package security

import (
	"crypto/rand"
	"math/big"
)

const (
	passwordLower   = "abcdefghijkmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordDigits  = "23456789"
	passwordSymbols = "!@#$%^&*"

	// TempPasswordLen is the length of generated temporary passwords.
	TempPasswordLen = 16
)

// PasswordGenerator produces strong random passwords for
// server-side provisioning. There is exactly one implementation;
// callers never generate credentials themselves.
type PasswordGenerator interface {
	Generate() (string, error)
}

type randomGenerator struct {
	length int
}

// NewPasswordGenerator creates a generator backed by crypto/rand.
func NewPasswordGenerator(length int) PasswordGenerator {
	if length < MinPasswordLen {
		length = TempPasswordLen
	}
	return &randomGenerator{length: length}
}

func (g *randomGenerator) Generate() (string, error) {
	// Guarantee one character from each class, fill the rest from
	// the full alphabet, then shuffle.
	classes := []string{passwordLower, passwordUpper, passwordDigits, passwordSymbols}
	all := passwordLower + passwordUpper + passwordDigits + passwordSymbols

	buf := make([]byte, g.length)
	for i, class := range classes {
		ch, err := randomChar(class)
		if err != nil {
			return "", err
		}
		buf[i] = ch
	}
	for i := len(classes); i < g.length; i++ {
		ch, err := randomChar(all)
		if err != nil {
			return "", err
		}
		buf[i] = ch
	}

	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}

	return string(buf), nil
}

func randomChar(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
