// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pborman/uuid"
)

const requestIDHeader = "X-Request-Id"

// RequestLoggerHandler tags every request with an id, echoed in the response
// header, and logs it once handled.
func RequestLoggerHandler(handler http.Handler, logger log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if uuid.Parse(id) == nil {
			id = uuid.New()
		}
		w.Header().Set(requestIDHeader, id)

		start := time.Now()
		handler.ServeHTTP(w, r)
		logger.Info("API Request",
			"id", id,
			"URI", r.URL.String(),
			"Method", r.Method,
			"remote", r.RemoteAddr,
			"elapsed", time.Since(start),
		)
	})
}
