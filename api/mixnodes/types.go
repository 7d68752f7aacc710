// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnodes

import (
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/delegation"
)

// Delegation is a delegation with the reward it could withdraw now.
type Delegation struct {
	*delegation.Delegation
	PendingReward mix.Coin `json:"pending_reward"`
}
