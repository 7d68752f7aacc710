// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import "github.com/mixledger/mixledger/metrics"

var (
	metricEventsExecuted = metrics.LazyLoadCounterVec("events_executed_count", []string{"kind", "status"})
	metricEventsPerPass  = metrics.LazyLoadHistogramVec("events_per_pass", []string{"queue"}, metrics.BucketEvents)
)
