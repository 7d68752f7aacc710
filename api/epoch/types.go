// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package epoch

import "github.com/mixledger/mixledger/mixnet/interval"

type Interval struct {
	*interval.Interval
	EpochEnd uint64 `json:"epoch_end"`
}

type PendingEvent struct {
	ID    uint64 `json:"id"`
	Kind  string `json:"kind"`
	Event any    `json:"event"`
}
