// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package decimal

import (
	"math/big"
	"testing"

	"github.com/davecgh/go-spew/spew"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomArithmetic(t *testing.T) {
	f := fuzz.NewWithSeed(42).NilChance(0)

	for range 1000 {
		var a, b uint64
		f.Fuzz(&a)
		f.Fuzz(&b)

		x, err := FromAtomics(new(big.Int).SetUint64(a))
		require.NoError(t, err)
		y, err := FromAtomics(new(big.Int).SetUint64(b))
		require.NoError(t, err)

		parsed, err := FromString(x.String())
		require.NoError(t, err)
		assert.True(t, parsed.Equal(x), "string round trip of %v", x)

		sum, err := x.Add(y)
		require.NoError(t, err)
		back, err := sum.Sub(y)
		require.NoError(t, err)
		assert.True(t, back.Equal(x), "%v + %v - %v", x, y, y)

		whole, err := NewFromInt(x.Floor())
		require.NoError(t, err)
		rebuilt, err := whole.Add(x.Fraction())
		require.NoError(t, err)
		assert.True(t, rebuilt.Equal(x), "floor and fraction of %s", spew.Sdump(x))

		if b == 0 {
			continue
		}
		// whole numbers multiply and divide without truncation
		p, q := NewFromUint64(a), NewFromUint64(b)
		prod, err := p.Mul(q)
		require.NoError(t, err)
		quo, err := prod.Quo(q)
		require.NoError(t, err)
		assert.True(t, quo.Equal(p), "%v * %v / %v", p, q, q)

		// truncating division never rounds up
		r, err := x.Quo(y)
		require.NoError(t, err)
		m, err := r.Mul(y)
		require.NoError(t, err)
		assert.False(t, m.GreaterThan(x), "(%v / %v) * %v", x, y, y)
	}
}
