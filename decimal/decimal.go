// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package decimal implements an unsigned, overflow-checked fixed-point number with
// 18 fractional digits. Every operation that can leave the representable range
// returns an error instead of wrapping or saturating.
package decimal

import (
	"io"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	sdec "github.com/shopspring/decimal"
)

// Places is the number of fractional digits kept by a Decimal.
const Places = 18

var (
	ErrOverflow     = errors.New("decimal overflow")
	ErrUnderflow    = errors.New("decimal underflow")
	ErrDivideByZero = errors.New("decimal division by zero")
	ErrNegative     = errors.New("negative decimal")
)

var (
	fractional = uint256.NewInt(1_000_000_000_000_000_000)
	bigUnit    = fractional.ToBig()
)

// Decimal is a value type; the zero value is 0.
type Decimal struct {
	atomics uint256.Int
}

func Zero() Decimal { return Decimal{} }

func One() Decimal {
	var d Decimal
	d.atomics.Set(fractional)
	return d
}

// NewFromUint64 creates a decimal holding the whole number n.
func NewFromUint64(n uint64) Decimal {
	var d Decimal
	// n < 2^64 and 10^18 < 2^60, the product always fits.
	d.atomics.Mul(uint256.NewInt(n), fractional)
	return d
}

// NewFromInt creates a decimal holding the whole number n.
func NewFromInt(n *big.Int) (Decimal, error) {
	if n == nil {
		return Zero(), nil
	}
	if n.Sign() < 0 {
		return Zero(), ErrNegative
	}
	v, overflow := uint256.FromBig(n)
	if overflow {
		return Zero(), ErrOverflow
	}
	var d Decimal
	if _, overflow := d.atomics.MulOverflow(v, fractional); overflow {
		return Zero(), ErrOverflow
	}
	return d, nil
}

// FromAtomics creates a decimal from its raw 10^-18 representation.
func FromAtomics(atomics *big.Int) (Decimal, error) {
	if atomics.Sign() < 0 {
		return Zero(), ErrNegative
	}
	v, overflow := uint256.FromBig(atomics)
	if overflow {
		return Zero(), ErrOverflow
	}
	return Decimal{atomics: *v}, nil
}

// FromRatio returns num/den truncated to 18 places.
func FromRatio(num, den uint64) (Decimal, error) {
	return NewFromUint64(num).Quo(NewFromUint64(den))
}

// FromString parses a non-negative decimal literal such as "0.05" or "1000000".
// Digits beyond the 18th fractional place are truncated.
func FromString(s string) (Decimal, error) {
	v, err := sdec.NewFromString(s)
	if err != nil {
		return Zero(), errors.Wrapf(err, "parse decimal %q", s)
	}
	if v.IsNegative() {
		return Zero(), ErrNegative
	}
	return FromAtomics(v.Shift(Places).BigInt())
}

// MustFromString is like FromString but panics on malformed input.
// It is meant for constants and tests.
func MustFromString(s string) Decimal {
	d, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Atomics returns the raw 10^-18 representation.
func (d Decimal) Atomics() *big.Int {
	return d.atomics.ToBig()
}

func (d Decimal) Add(o Decimal) (Decimal, error) {
	var z Decimal
	if _, overflow := z.atomics.AddOverflow(&d.atomics, &o.atomics); overflow {
		return Zero(), ErrOverflow
	}
	return z, nil
}

func (d Decimal) Sub(o Decimal) (Decimal, error) {
	var z Decimal
	if _, underflow := z.atomics.SubOverflow(&d.atomics, &o.atomics); underflow {
		return Zero(), ErrUnderflow
	}
	return z, nil
}

// Mul multiplies using a 512-bit intermediate and truncates the result.
func (d Decimal) Mul(o Decimal) (Decimal, error) {
	var z Decimal
	if _, overflow := z.atomics.MulDivOverflow(&d.atomics, &o.atomics, fractional); overflow {
		return Zero(), ErrOverflow
	}
	return z, nil
}

// Quo divides using a 512-bit intermediate and truncates the result.
func (d Decimal) Quo(o Decimal) (Decimal, error) {
	if o.atomics.IsZero() {
		return Zero(), ErrDivideByZero
	}
	var z Decimal
	if _, overflow := z.atomics.MulDivOverflow(&d.atomics, fractional, &o.atomics); overflow {
		return Zero(), ErrOverflow
	}
	return z, nil
}

func (d Decimal) Cmp(o Decimal) int       { return d.atomics.Cmp(&o.atomics) }
func (d Decimal) Equal(o Decimal) bool    { return d.atomics.Eq(&o.atomics) }
func (d Decimal) LessThan(o Decimal) bool { return d.atomics.Lt(&o.atomics) }
func (d Decimal) GreaterThan(o Decimal) bool {
	return d.atomics.Gt(&o.atomics)
}
func (d Decimal) IsZero() bool { return d.atomics.IsZero() }

// Min returns the smaller of d and o.
func (d Decimal) Min(o Decimal) Decimal {
	if o.LessThan(d) {
		return o
	}
	return d
}

// Floor truncates to the whole part.
func (d Decimal) Floor() *big.Int {
	return new(big.Int).Quo(d.atomics.ToBig(), bigUnit)
}

// Fraction returns the part below one whole unit.
func (d Decimal) Fraction() Decimal {
	var z Decimal
	z.atomics.Mod(&d.atomics, fractional)
	return z
}

func (d Decimal) String() string {
	return sdec.NewFromBigInt(d.atomics.ToBig(), -Places).String()
}

func (d Decimal) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Decimal) UnmarshalText(text []byte) error {
	v, err := FromString(string(text))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// EncodeRLP implements rlp.Encoder, the atomics are encoded as a big integer.
func (d Decimal) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, d.atomics.ToBig())
}

// DecodeRLP implements rlp.Decoder.
func (d *Decimal) DecodeRLP(s *rlp.Stream) error {
	b, err := s.BigInt()
	if err != nil {
		return err
	}
	v, err := FromAtomics(b)
	if err != nil {
		return err
	}
	*d = v
	return nil
}
