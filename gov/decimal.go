package gov

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// DecimalPlaces is the number of fractional digits carried by Decimal.
const DecimalPlaces = 18

var (
	decimalFractional = uint256.NewInt(1_000_000_000_000_000_000)

	ErrInvalidDecimal = errors.New("invalid decimal")
)

// Decimal is a non-negative fixed-point number with 18 fractional digits.
// The zero value is 0.
type Decimal struct {
	atomics uint256.Int
}

func ZeroDecimal() Decimal {
	return Decimal{}
}

func OneDecimal() Decimal {
	var d Decimal
	d.atomics.Set(decimalFractional)
	return d
}

// Percent returns n/100.
func Percent(n uint64) Decimal {
	return DecimalFromRatio(n, 100)
}

// Permille returns n/1000.
func Permille(n uint64) Decimal {
	return DecimalFromRatio(n, 1000)
}

// DecimalFromRatio returns num/den rounded down to 18 places. It panics when
// den is zero.
func DecimalFromRatio(num, den uint64) Decimal {
	if den == 0 {
		panic("decimal: zero denominator")
	}
	var d Decimal
	d.atomics.Mul(uint256.NewInt(num), decimalFractional)
	d.atomics.Div(&d.atomics, uint256.NewInt(den))
	return d
}

// ParseDecimal parses the "123.456" form. At most 18 fractional digits are
// accepted.
func ParseDecimal(s string) (d Decimal, err error) {
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" || (hasDot && frac == "") {
		err = fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
		return
	}
	if len(frac) > DecimalPlaces {
		err = fmt.Errorf("%w: %q has more than %d fractional digits", ErrInvalidDecimal, s, DecimalPlaces)
		return
	}
	digits := whole + frac + strings.Repeat("0", DecimalPlaces-len(frac))
	for _, c := range digits {
		if c < '0' || c > '9' {
			err = fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
			return
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		err = fmt.Errorf("%w: %q: %v", ErrInvalidDecimal, s, err)
		return
	}
	d.atomics.Set(v)
	return
}

func MustParseDecimal(s string) Decimal {
	d, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) IsZero() bool {
	return d.atomics.IsZero()
}

// Cmp returns -1, 0 or +1.
func (d Decimal) Cmp(o Decimal) int {
	return d.atomics.Cmp(&o.atomics)
}

// Complement returns 1 - d, or zero when d exceeds one.
func (d Decimal) Complement() Decimal {
	var r Decimal
	if d.atomics.Gt(decimalFractional) {
		return r
	}
	r.atomics.Sub(decimalFractional, &d.atomics)
	return r
}

func (d Decimal) String() string {
	var whole, frac uint256.Int
	whole.DivMod(&d.atomics, decimalFractional, &frac)
	if frac.IsZero() {
		return whole.Dec()
	}
	fs := frac.Dec()
	fs = strings.Repeat("0", DecimalPlaces-len(fs)) + fs
	return whole.Dec() + "." + strings.TrimRight(fs, "0")
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Decimal) UnmarshalJSON(bz []byte) error {
	var s string
	if err := json.Unmarshal(bz, &s); err != nil {
		return err
	}
	v, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
