package ident

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/demo-credit/wallet-backend/internal/apperr"
	"github.com/oklog/ulid/v2"
)

// accountNumberAttempts bounds the draw-and-check loop. The candidate space is
// ~2e9 so a handful of retries is already astronomically safe; the bound keeps
// a pathological store from spinning us forever.
const accountNumberAttempts = 5

// ExistsFunc reports whether an account number is already taken.
type ExistsFunc func(ctx context.Context, accountNumber string) (bool, error)

// NewReference returns a transaction reference unique across processes:
// a ULID carries millisecond time bits plus 80 bits of crypto entropy, and
// its Crockford base32 form is already uppercase.
func NewReference() string {
	return "TXN_" + ulid.Make().String()
}

// NewAccountNumber draws bank-style 10-digit numbers (leading digit 1 or 2)
// until the supplied predicate reports the candidate free.
func NewAccountNumber(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < accountNumberAttempts; i++ {
		candidate, err := randomAccountNumber()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperr.Conflict("could not allocate a unique account number")
}

func randomAccountNumber() (string, error) {
	prefix, err := rand.Int(rand.Reader, big.NewInt(2))
	if err != nil {
		return "", err
	}
	suffix, err := rand.Int(rand.Reader, big.NewInt(1_000_000_000))
	if err != nil {
		return "", err
	}
	digits := suffix.String()
	for len(digits) < 9 {
		digits = "0" + digits
	}
	if prefix.Int64() == 0 {
		return "1" + digits, nil
	}
	return "2" + digits, nil
}
