// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package bank pays out tokens released by the ledger. Payments are plain
// balance credits staged together with the ledger changes that caused them.
package bank

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/state"
	"github.com/mixledger/mixledger/storage"
)

var logger = log.New("pkg", "bank")

func SetLogger(l log.Logger) {
	logger = l
}

type balanceKey struct {
	addr  mix.Addr
	denom string
}

func (k balanceKey) Bytes() []byte {
	b := binary.BigEndian.AppendUint16(nil, uint16(len(k.addr)))
	b = append(b, k.addr...)
	return append(b, k.denom...)
}

type Service struct {
	balances *storage.Mapping[balanceKey, *big.Int]
}

func New(st *state.State) *Service {
	return &Service{balances: storage.NewMapping[balanceKey, *big.Int](st, "bank/balances")}
}

// Balance returns the tokens of denom held by addr.
func (s *Service) Balance(addr mix.Addr, denom string) (mix.Coin, error) {
	amount, err := s.balances.Get(balanceKey{addr, denom})
	if err != nil {
		return mix.Coin{}, errors.Wrapf(err, "failed to get balance of %s", addr)
	}
	if amount == nil {
		amount = new(big.Int)
	}
	return mix.Coin{Amount: amount, Denom: denom}, nil
}

// Send credits coin to recipient. Zero amounts are ignored.
func (s *Service) Send(recipient mix.Addr, coin mix.Coin) error {
	if coin.IsZero() {
		return nil
	}
	if coin.Amount.Sign() < 0 {
		return errors.Errorf("negative payment %s to %s", coin, recipient)
	}
	balance, err := s.Balance(recipient, coin.Denom)
	if err != nil {
		return err
	}
	if err := s.balances.Set(balanceKey{recipient, coin.Denom}, balance.Add(coin).Amount); err != nil {
		return errors.Wrapf(err, "failed to set balance of %s", recipient)
	}
	logger.Debug("sent tokens", "recipient", recipient, "amount", coin)
	return nil
}

// SendToProxyOrOwner pays the proxy when the position was created through
// one, the owner otherwise.
func (s *Service) SendToProxyOrOwner(proxy *mix.Addr, owner mix.Addr, coin mix.Coin) (mix.Addr, error) {
	recipient := owner
	if proxy != nil {
		recipient = *proxy
	}
	return recipient, s.Send(recipient, coin)
}
