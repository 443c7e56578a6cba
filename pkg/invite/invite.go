// Package invite generates and validates the short codes used to join a
// session. Codes are 8 characters from an uppercase letter + digit alphabet,
// unique among active non-deleted sessions, and compared case-insensitively.
package invite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// CodeLength is the fixed length of an invite code.
const CodeLength = 8

// maxMintRetries bounds collision retries before minting gives up.
const maxMintRetries = 16

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ErrExhausted is returned when minting fails to find a free code.
var ErrExhausted = errors.New("invite code space exhausted after retries")

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// TakenFunc reports whether a candidate code is already held by an active
// non-deleted session.
type TakenFunc func(ctx context.Context, code string) (bool, error)

// Minter mints invite codes, retrying on collision.
type Minter struct{}

// NewMinter creates a Minter.
func NewMinter() *Minter {
	return &Minter{}
}

// Mint returns a canonical code that taken reports as free.
// It retries up to 16 times before returning ErrExhausted.
func (m *Minter) Mint(ctx context.Context, taken TakenFunc) (string, error) {
	for range maxMintRetries {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("generating invite code: %w", err)
		}
		inUse, err := taken(ctx, code)
		if err != nil {
			return "", fmt.Errorf("checking invite code: %w", err)
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Normalize canonicalises a user-supplied code: trimmed, uppercase.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Valid reports whether a canonical code has the expected shape.
func Valid(code string) bool {
	return codePattern.MatchString(code)
}

func randomCode() (string, error) {
	// Rejection sampling keeps the draw uniform: 256 is not a multiple of
	// the alphabet size, so a plain modulo would skew the low characters.
	max := 256 - 256%len(alphabet)
	out := make([]byte, 0, CodeLength)
	buf := make([]byte, CodeLength)
	for len(out) < CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= max {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == CodeLength {
				break
			}
		}
	}
	return string(out), nil
}
