// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mixledger/mixledger/api/doc"
	"github.com/mixledger/mixledger/api/epoch"
	"github.com/mixledger/mixledger/api/mixnodes"
	"github.com/mixledger/mixledger/api/rewards"
	"github.com/mixledger/mixledger/api/subscriptions"
	"github.com/mixledger/mixledger/kv"
	"github.com/mixledger/mixledger/metrics"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/rewarddb"
	"github.com/mixledger/mixledger/state"
)

var logger = log.New("pkg", "api")

func SetLogger(l log.Logger) {
	logger = l
}

type Options struct {
	AllowedOrigins  string
	PprofOn         bool
	EnableReqLogger bool
	EnableMetrics   bool
	// how often subscriptions look for a new epoch
	SubscriptionPollInterval time.Duration
}

// New return api router. Every request reads what was last committed to store.
// history may be nil, in which case the reward history routes are not served.
func New(store kv.Store, cache *state.Cache, history *rewarddb.RewardDB, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	view := func() *mixnet.Mixnet {
		return mixnet.New(state.New(store, cache))
	}

	router := mux.NewRouter()

	router.PathPrefix("/doc").Handler(
		http.StripPrefix("/doc/", http.FileServer(http.FS(doc.FS))),
	)

	mixnodes.New(view).
		Mount(router, "/mixnodes")
	epoch.New(view).
		Mount(router, "/epoch")
	rewards.New(view, history).
		Mount(router, "/rewards")

	poll := opts.SubscriptionPollInterval
	if poll <= 0 {
		poll = time.Second
	}
	subs := subscriptions.New(view, origins, poll)
	subs.Mount(router, "/subscriptions")

	if opts.EnableMetrics {
		router.Path("/metrics").Handler(metrics.HTTPHandler())
		router.Use(metricsHandler)
	}

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", requestIDHeader}),
		handlers.ExposedHeaders([]string{"x-mixledger-ver", requestIDHeader}),
	)(handler)
	handler = versionHeader(handler)

	if opts.EnableReqLogger {
		handler = RequestLoggerHandler(handler, logger)
	}
	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}

func versionHeader(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-mixledger-ver", doc.Version())
		h.ServeHTTP(w, r)
	})
}
