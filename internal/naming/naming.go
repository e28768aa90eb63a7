// Package naming generates random, collision-resistant resource names.
//
// Names are bounded to a caller-supplied prefix and exact total length so
// they satisfy backend naming limits. The randomized suffix is drawn from
// crypto/rand, base32-encoded, and lower-cased.
package naming

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// MinSuffixLength is the minimum number of randomized characters required
// after the prefix. Shorter suffixes make collisions across parallel test
// runs too likely.
const MinSuffixLength = 4

// InvalidLengthError reports a prefix/length combination that cannot
// produce a name with an acceptable random suffix.
type InvalidLengthError struct {
	// Prefix is the requested name prefix.
	Prefix string

	// TotalLength is the requested total name length.
	TotalLength int
}

// Error implements the error interface.
func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("cannot generate name: prefix %q (len %d) leaves fewer than %d random characters in a total length of %d",
		e.Prefix, len(e.Prefix), MinSuffixLength, e.TotalLength)
}

// RandomName returns a random name of exactly totalLength characters
// starting with prefix. The suffix is base32-encoded random bytes,
// lower-cased and truncated to fit.
//
// Returns *InvalidLengthError when the prefix is longer than totalLength
// or the remaining suffix would be shorter than MinSuffixLength.
func RandomName(prefix string, totalLength int) (string, error) {
	remain := totalLength - len(prefix)
	if remain < MinSuffixLength {
		return "", &InvalidLengthError{Prefix: prefix, TotalLength: totalLength}
	}

	// base32 expands 5 bytes to 8 characters; over-provision and truncate.
	raw := make([]byte, remain)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}

	suffix := strings.ToLower(base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw))
	return prefix + suffix[:remain], nil
}
