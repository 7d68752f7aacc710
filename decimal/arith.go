// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package decimal

// Arith chains checked operations. Once an operation fails every later call
// is a no-op returning zero, and Err reports the first failure.
//
//	var a decimal.Arith
//	r := a.Quo(a.Mul(x, y), z)
//	if err := a.Err(); err != nil { ... }
type Arith struct {
	err error
}

func (a *Arith) Err() error { return a.err }

func (a *Arith) Add(x, y Decimal) Decimal {
	return a.apply(x.Add, y)
}

func (a *Arith) Sub(x, y Decimal) Decimal {
	return a.apply(x.Sub, y)
}

func (a *Arith) Mul(x, y Decimal) Decimal {
	return a.apply(x.Mul, y)
}

func (a *Arith) Quo(x, y Decimal) Decimal {
	return a.apply(x.Quo, y)
}

func (a *Arith) apply(op func(Decimal) (Decimal, error), y Decimal) Decimal {
	if a.err != nil {
		return Zero()
	}
	z, err := op(y)
	if err != nil {
		a.err = err
		return Zero()
	}
	return z
}
