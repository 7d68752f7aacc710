// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package decimal

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"
)

var ErrInvalidPercent = errors.New("provided percent value is greater than 100%")

// Percent is a Decimal within [0, 1].
type Percent struct {
	Decimal
}

func NewPercent(d Decimal) (Percent, error) {
	if d.GreaterThan(One()) {
		return Percent{}, ErrInvalidPercent
	}
	return Percent{d}, nil
}

// PercentFromString parses values such as "0.1" (10%).
func PercentFromString(s string) (Percent, error) {
	d, err := FromString(s)
	if err != nil {
		return Percent{}, err
	}
	return NewPercent(d)
}

// MustPercent panics if s is not a valid percent.
func MustPercent(s string) Percent {
	p, err := PercentFromString(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Percent) Value() Decimal { return p.Decimal }

func (p *Percent) UnmarshalText(text []byte) error {
	v, err := PercentFromString(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p *Percent) DecodeRLP(s *rlp.Stream) error {
	var d Decimal
	if err := d.DecodeRLP(s); err != nil {
		return err
	}
	v, err := NewPercent(d)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
