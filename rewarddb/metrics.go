// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarddb

import (
	"github.com/mixledger/mixledger/metrics"
)

var (
	metricRowsWritten       = metrics.LazyLoadCounterVec("rewarddb_rows_written", []string{"table"})
	metricQueryOrderCounter = metrics.LazyLoadCounterVec("rewarddb_query_order", []string{"order", "type"})
	metricLimitBucket       = metrics.LazyLoadHistogramVec("rewarddb_query_limit_bucket", []string{"type"}, []int64{
		0, 5, 10, 25, 50, 100, 250, 500, 1000,
	})
)

func metricsHandleQuery(options *Options, order Order, queryType string) {
	if order == DESC {
		metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "desc", "type": queryType})
	} else {
		metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": "asc", "type": queryType})
	}
	if options == nil {
		return
	}
	limit := options.Limit
	if limit > 1000 {
		limit = 1001
	}
	metricLimitBucket().ObserveWithLabels(int64(limit), map[string]string{"type": queryType})
}
