// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"github.com/mixledger/mixledger/metrics"
	"github.com/mixledger/mixledger/mixnet/reverts"
)

var (
	metricTxCount            = metrics.LazyLoadCounterVec("tx_count", []string{"op", "status"})
	metricRewardedNodes      = metrics.LazyLoadCounterVec("rewarded_nodes_count", []string{"status"})
	metricRewardPassDuration = metrics.LazyLoadHistogram("reward_pass_duration_ms", metrics.BucketHTTPReqs)
	metricEpochPassDuration  = metrics.LazyLoadHistogram("epoch_pass_duration_ms", metrics.BucketHTTPReqs)
)

func observeTx(op string, err error) {
	status := "ok"
	switch {
	case err == nil:
	case reverts.IsFatal(err):
		status = "fatal"
	case reverts.IsRevertErr(err):
		status = "reverted"
	default:
		status = "error"
	}
	metricTxCount().AddWithLabel(1, map[string]string{"op": op, "status": status})
}
