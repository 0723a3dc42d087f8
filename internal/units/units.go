// Package units converts between human decimal amounts and the ledger's
// fixed-point smallest unit. The conversion is exact: any decimal string
// with no more significant fractional digits than the unit's places maps to
// exactly one integer and back.
package units

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherPlaces is the scale of wei to ether.
const EtherPlaces = 18

var (
	// ErrInvalidAmount is returned for strings that are not plain
	// non-negative decimals.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrExcessPrecision is returned when an amount has more fractional
	// digits than the unit can represent.
	ErrExcessPrecision = errors.New("amount has more fractional digits than the unit allows")
)

// Converter converts amounts for a unit with a fixed number of decimal places.
type Converter struct {
	Places int
}

// Ether returns a converter for 18-decimal currency.
func Ether() Converter {
	return Converter{Places: EtherPlaces}
}

// ToSmallest parses a decimal string such as "0.5" into smallest units.
func (c Converter) ToSmallest(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if err := checkPlain(s); err != nil {
		return nil, err
	}
	// shopspring rejects a bare leading or trailing point
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	scaled := d.Shift(int32(c.Places))
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: %q exceeds %d places", ErrExcessPrecision, s, c.Places)
	}
	return scaled.BigInt(), nil
}

// FromSmallest renders a smallest-unit amount as a canonical decimal string.
func (c Converter) FromSmallest(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(c.Places)).String()
}

// checkPlain accepts digits with at most one point and at least one digit.
func checkPlain(s string) error {
	if s == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	digits, points := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			points++
		default:
			return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
	}
	if digits == 0 || points > 1 {
		return fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return nil
}
