// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mix holds the value types shared by every part of the ledger.
package mix

import (
	"encoding/binary"
	"fmt"
	"math/big"
	"strconv"

	"golang.org/x/crypto/blake2b"

	"github.com/mixledger/mixledger/decimal"
)

const (
	// DefaultDenom is the minimal unit of the staking token.
	DefaultDenom = "unym"
	// MinimumPledge is the lowest operator pledge accepted at bonding, in minimal units.
	MinimumPledge = 100_000_000
	// MinimumDelegation is the lowest amount accepted per delegation request.
	MinimumDelegation = 1
)

// UnitDelegationBase is the value of the theoretical baseline delegation every
// rewarding index is normalised against.
var UnitDelegationBase = decimal.NewFromUint64(1_000_000_000)

// NodeID identifies a bonded mixnode. Ids are assigned sequentially and never reused.
type NodeID uint32

func (id NodeID) Bytes() []byte {
	return binary.BigEndian.AppendUint32(nil, uint32(id))
}

func (id NodeID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseNodeID parses the decimal form produced by String.
func ParseNodeID(s string) (NodeID, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return NodeID(v), nil
}

// Addr is an account address on the host chain.
type Addr string

func (a Addr) Bytes() []byte  { return []byte(a) }
func (a Addr) String() string { return string(a) }

// FullEpochID is the absolute epoch counter, it never resets across intervals.
type FullEpochID uint32

// Env carries what the host environment knows about the current block.
type Env struct {
	Height uint64
	Time   uint64 // unix seconds
}

// Blake2b computes blake2b-256 checksum for given data.
func Blake2b(data ...[]byte) [32]byte {
	hasher, _ := blake2b.New256(nil)
	for _, b := range data {
		hasher.Write(b)
	}
	var h [32]byte
	hasher.Sum(h[:0])
	return h
}

// Coin is an amount of minimal token units tagged with its denomination.
type Coin struct {
	Amount *big.Int `json:"amount"`
	Denom  string   `json:"denom"`
}

func NewCoin(amount uint64, denom string) Coin {
	return Coin{Amount: new(big.Int).SetUint64(amount), Denom: denom}
}

func (c Coin) IsZero() bool {
	return c.Amount == nil || c.Amount.Sign() == 0
}

// Dec returns the amount as a decimal of whole minimal units.
func (c Coin) Dec() (decimal.Decimal, error) {
	return decimal.NewFromInt(c.Amount)
}

// Add returns c + o, both must share the denomination.
func (c Coin) Add(o Coin) Coin {
	sum := new(big.Int)
	if c.Amount != nil {
		sum.Set(c.Amount)
	}
	if o.Amount != nil {
		sum.Add(sum, o.Amount)
	}
	return Coin{Amount: sum, Denom: c.Denom}
}

func (c Coin) String() string {
	amount := "0"
	if c.Amount != nil {
		amount = c.Amount.String()
	}
	return fmt.Sprintf("%s%s", amount, c.Denom)
}
