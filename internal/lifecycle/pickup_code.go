package lifecycle

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

const (
	pickupCodeMin = 100000
	pickupCodeMax = 999999
)

var pickupCodeSpan = big.NewInt(pickupCodeMax - pickupCodeMin + 1)

// codeSource is swapped in tests.
var codeSource io.Reader = rand.Reader

// NewPickupCode returns a six digit code drawn uniformly from [100000, 999999].
// It is read aloud at the handoff, so it never starts with zero.
func NewPickupCode() (string, error) {
	n, err := rand.Int(codeSource, pickupCodeSpan)
	if err != nil {
		return "", fmt.Errorf("generate pickup code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+pickupCodeMin), nil
}
