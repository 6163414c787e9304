package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	// BookingReferencePrefix starts every booking reference
	BookingReferencePrefix = "BR"
	referenceSuffixLen     = 4
	referenceAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewBookingReference builds a reference from the creation time in base 36
// followed by a random suffix, e.g. "BRMGR3X0QK7Z2P"
func NewBookingReference(now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(BookingReferencePrefix)
	b.WriteString(strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)))

	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := 0; i < referenceSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(referenceAlphabet[n.Int64()])
	}
	return b.String(), nil
}
