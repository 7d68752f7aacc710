// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/mixledger/mixledger/api"
	"github.com/mixledger/mixledger/metrics"
	"github.com/mixledger/mixledger/state"
)

func serveAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing ledger database..."); db.Close() }()

	history, err := openRewardDB(ctx)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing reward history..."); history.Close() }()

	apiHandler, apiCloser := api.New(db, state.NewCache(cacheSize(ctx)/2), history, api.Options{
		AllowedOrigins:           ctx.String(apiCorsFlag.Name),
		PprofOn:                  ctx.Bool(pprofFlag.Name),
		EnableReqLogger:          ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:            ctx.Bool(enableMetricsFlag.Name),
		SubscriptionPollInterval: time.Duration(ctx.Uint64(apiPollIntervalFlag.Name)) * time.Millisecond,
	})
	defer func() { logger.Info("closing subscriptions..."); apiCloser() }()

	handler := http.Handler(apiHandler)
	if timeout := ctx.Uint64(apiTimeoutFlag.Name); timeout > 0 {
		handler = handleAPITimeout(handler, time.Duration(timeout)*time.Millisecond)
	}

	addr := ctx.String(apiAddrFlag.Name)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(handleExitSignal())
	g.Go(func() error {
		logger.Info("API server started", "url", "http://"+listener.Addr().String()+"/")
		if err := srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("stopping API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
