package rooms

import (
	"crypto/rand"
	"math/big"
	"regexp"
)

const codeLength = 4

var codePattern = regexp.MustCompile(`^\d{4}$`)

func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// GenerateCode returns a random 4-digit join code, leading zeros included.
func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}
