package provisioning

import (
	"crypto/rand"
	"math/big"
)

const (
	SecretLength = 16

	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*-_=+?"
	allChars    = upperChars + lowerChars + digitChars + symbolChars
)

// GenerateSecret returns a temporary password with at least one character
// from each class. The rest is drawn from the union and the result is shuffled.
func GenerateSecret() (string, error) {
	out := make([]byte, 0, SecretLength)
	for _, class := range []string{upperChars, lowerChars, digitChars, symbolChars} {
		c, err := pick(class)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for len(out) < SecretLength {
		c, err := pick(allChars)
		if err != nil {
			return "", err
		}
		out = append(out, c)
	}
	for i := len(out) - 1; i > 0; i-- {
		j, err := randIntn(i + 1)
		if err != nil {
			return "", err
		}
		out[i], out[j] = out[j], out[i]
	}
	return string(out), nil
}

func pick(set string) (byte, error) {
	i, err := randIntn(len(set))
	if err != nil {
		return 0, err
	}
	return set[i], nil
}

func randIntn(n int) (int, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(v.Int64()), nil
}
