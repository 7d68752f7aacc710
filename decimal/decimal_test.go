// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package decimal

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1", "1"},
		{"0.05", "0.05"},
		{"1000000.000000000000000001", "1000000.000000000000000001"},
		{"0.1234567890123456789", "0.123456789012345678"}, // truncated
	}
	for _, tt := range tests {
		d, err := FromString(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, d.String())
	}

	_, err := FromString("-1")
	assert.ErrorIs(t, err, ErrNegative)

	_, err = FromString("abc")
	assert.Error(t, err)
}

func TestCheckedArithmetic(t *testing.T) {
	a := MustFromString("10.5")
	b := MustFromString("0.5")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "11", sum.String())

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, "10", diff.String())

	_, err = b.Sub(a)
	assert.ErrorIs(t, err, ErrUnderflow)

	prod, err := a.Mul(b)
	require.NoError(t, err)
	assert.Equal(t, "5.25", prod.String())

	quo, err := a.Quo(b)
	require.NoError(t, err)
	assert.Equal(t, "21", quo.String())

	_, err = a.Quo(Zero())
	assert.ErrorIs(t, err, ErrDivideByZero)

	third, err := FromRatio(1, 3)
	require.NoError(t, err)
	assert.Equal(t, "0.333333333333333333", third.String())
}

func TestOverflow(t *testing.T) {
	max, err := FromAtomics(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))
	require.NoError(t, err)

	_, err = max.Add(One())
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = max.Mul(NewFromUint64(2))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = FromAtomics(new(big.Int).Lsh(big.NewInt(1), 256))
	assert.ErrorIs(t, err, ErrOverflow)

	// the 512-bit intermediate keeps x*y/1e18 exact when the result fits
	big1 := NewFromUint64(1 << 62)
	r, err := big1.Mul(big1)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Lsh(big.NewInt(1), 124).String(), r.String())
}

func TestFloorAndFraction(t *testing.T) {
	d := MustFromString("123.999999999999999999")
	assert.Equal(t, big.NewInt(123), d.Floor())
	assert.Equal(t, "0.999999999999999999", d.Fraction().String())
	assert.Equal(t, "0", NewFromUint64(7).Fraction().String())
}

func TestArith(t *testing.T) {
	var a Arith
	r := a.Quo(a.Mul(NewFromUint64(6), NewFromUint64(7)), NewFromUint64(2))
	require.NoError(t, a.Err())
	assert.Equal(t, "21", r.String())

	var b Arith
	r = b.Add(b.Sub(One(), NewFromUint64(2)), NewFromUint64(5))
	assert.ErrorIs(t, b.Err(), ErrUnderflow)
	assert.True(t, r.IsZero())
}

func TestPercent(t *testing.T) {
	p, err := PercentFromString("0.1")
	require.NoError(t, err)
	assert.Equal(t, "0.1", p.String())

	_, err = PercentFromString("1.01")
	assert.ErrorIs(t, err, ErrInvalidPercent)

	var q Percent
	assert.ErrorIs(t, json.Unmarshal([]byte(`"2"`), &q), ErrInvalidPercent)
	require.NoError(t, json.Unmarshal([]byte(`"1"`), &q))
	assert.True(t, q.Equal(One()))
}

func TestEncoding(t *testing.T) {
	d := MustFromString("42.000000000000000042")

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"42.000000000000000042"`, string(data))

	var back Decimal
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back))

	enc, err := rlp.EncodeToBytes(struct {
		D Decimal
		P Percent
	}{d, MustPercent("0.25")})
	require.NoError(t, err)

	var dec struct {
		D Decimal
		P Percent
	}
	require.NoError(t, rlp.DecodeBytes(enc, &dec))
	assert.True(t, d.Equal(dec.D))
	assert.Equal(t, "0.25", dec.P.String())
}
