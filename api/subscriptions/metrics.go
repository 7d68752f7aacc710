// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package subscriptions

import "github.com/mixledger/mixledger/metrics"

var (
	metricActiveCount    = metrics.LazyLoadGaugeVec("api_active_websocket_gauge", []string{"subject"})
	metricMessageCreated = metrics.LazyLoadCounter("api_websocket_message_created_count")
)
