// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/mixledger/mixledger/api"
	"github.com/mixledger/mixledger/api/subscriptions"
	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/bank"
	"github.com/mixledger/mixledger/mixnet/events"
	"github.com/mixledger/mixledger/rewarddb"
	"github.com/mixledger/mixledger/state"
)

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".mixledger")
	}
	return ""
}

func initLogger(ctx *cli.Context) {
	useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
	lvl := log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name))
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, useColor)))

	logger = log.New("pkg", "main")
	mixnet.SetLogger(log.New("pkg", "mixnet"))
	events.SetLogger(log.New("pkg", "events"))
	bank.SetLogger(log.New("pkg", "bank"))
	api.SetLogger(log.New("pkg", "api"))
	subscriptions.SetLogger(log.New("pkg", "subscriptions"))
	rewarddb.SetLogger(log.New("pkg", "rewarddb"))
}

func openDB(ctx *cli.Context) (*lvldb.LevelDB, error) {
	dataDir := ctx.GlobalString(dataDirFlag.Name)
	if dataDir == "" {
		return nil, errors.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}
	path := filepath.Join(dataDir, "ledger.db")
	db, err := lvldb.New(path, lvldb.Options{
		CacheSize:              cacheSize(ctx) / 2,
		OpenFilesCacheCapacity: suggestFDCache(),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger database [%v]", path)
	}
	logger.Debug("opened ledger database", "path", path)
	return db, nil
}

func openRewardDB(ctx *cli.Context) (*rewarddb.RewardDB, error) {
	path := filepath.Join(ctx.GlobalString(dataDirFlag.Name), "rewards.db")
	db, err := rewarddb.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open reward history [%v]", path)
	}
	return db, nil
}

func cacheSize(ctx *cli.Context) int {
	return normalizeCacheSize(ctx.GlobalInt(cacheFlag.Name))
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		logger.Warn("failed to get fd limit", "err", err)
		return 64
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}
	n := limit / 2
	if n > 1024 {
		return 1024
	}
	return n
}

type ledgerFunc func(m *mixnet.Mixnet, env mix.Env) (any, error)

// withLedger opens the database, runs fn and commits what fn applied.
func withLedger(ctx *cli.Context, fn ledgerFunc) error {
	return withRecordedLedger(ctx, fn, nil)
}

// withRecordedLedger is withLedger that also hands the output of fn to record
// once the ledger is committed. History failures are logged, not returned.
func withRecordedLedger(ctx *cli.Context, fn ledgerFunc, record func(b *rewarddb.Batch, out any)) error {
	initLogger(ctx)
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	env := requestEnv(ctx)
	m := mixnet.New(state.New(db, nil))
	out, err := fn(m, env)
	if err != nil {
		return err
	}
	if _, err := m.Commit(); err != nil {
		return err
	}

	if record != nil {
		if err := recordHistory(ctx, env, out, record); err != nil {
			logger.Warn("failed to record reward history", "error", err)
		}
	}
	if out == nil {
		return nil
	}
	return printJSON(os.Stdout, out)
}

func recordHistory(ctx *cli.Context, env mix.Env, out any, record func(b *rewarddb.Batch, out any)) error {
	rdb, err := openRewardDB(ctx)
	if err != nil {
		return err
	}
	defer rdb.Close()

	batch := rdb.NewBatch(env)
	record(batch, out)
	return batch.Commit()
}

func requestEnv(ctx *cli.Context) mix.Env {
	env := mix.Env{
		Height: ctx.GlobalUint64(heightFlag.Name),
		Time:   ctx.GlobalUint64(timeFlag.Name),
	}
	if env.Time == 0 {
		env.Time = uint64(time.Now().Unix())
		if server := ctx.GlobalString(ntpServerFlag.Name); server != "" {
			checkClockOffset(server)
		}
	}
	return env
}

// maxClockOffset is how far the local clock may drift before epoch
// boundaries computed from it are called out.
const maxClockOffset = 10 * time.Second

func checkClockOffset(server string) {
	resp, err := ntp.Query(server)
	if err != nil {
		logger.Debug("failed to access NTP", "server", server, "err", err)
		return
	}
	offset := resp.ClockOffset
	if offset < 0 {
		offset = -offset
	}
	if offset > maxClockOffset {
		logger.Warn("clock offset detected, consider passing --time", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func loadGenesis(path string) (*mixnet.Genesis, error) {
	if path == "" {
		return mixnet.DefaultGenesis(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read genesis file")
	}
	return parseGenesis(data)
}

// parseGenesis decodes a YAML genesis on top of the defaults, unset fields keep
// their default value.
func parseGenesis(data []byte) (*mixnet.Genesis, error) {
	g := mixnet.DefaultGenesis()
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, errors.Wrap(err, "decode genesis file")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// parseCoin parses "1000" or "1000unym". A bare amount takes denom.
func parseCoin(s, denom string) (mix.Coin, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	amount, denomPart := s, denom
	if i >= 0 {
		amount, denomPart = s[:i], s[i:]
	}
	if amount == "" {
		return mix.Coin{}, errors.Errorf("invalid coin %q", s)
	}
	v, ok := new(big.Int).SetString(amount, 10)
	if !ok {
		return mix.Coin{}, errors.Errorf("invalid coin amount %q", amount)
	}
	return mix.Coin{Amount: v, Denom: denomPart}, nil
}

// parseRewardRequests parses "<mix-id>:<performance>" pairs.
func parseRewardRequests(args []string) ([]mixnet.NodeRewardRequest, error) {
	requests := make([]mixnet.NodeRewardRequest, 0, len(args))
	for _, arg := range args {
		id, perf, found := strings.Cut(arg, ":")
		if !found {
			return nil, errors.Errorf("invalid reward request %q, expected <mix-id>:<performance>", arg)
		}
		nodeID, err := mix.ParseNodeID(id)
		if err != nil {
			return nil, errors.Wrapf(err, "reward request %q", arg)
		}
		performance, err := decimal.PercentFromString(perf)
		if err != nil {
			return nil, errors.Wrapf(err, "reward request %q", arg)
		}
		requests = append(requests, mixnet.NodeRewardRequest{NodeID: nodeID, Performance: performance})
	}
	return requests, nil
}

// parseEstimateRequest parses the performance and the optional forced status.
func parseEstimateRequest(performance, active string) (mixnet.EstimateRequest, error) {
	perf, err := decimal.PercentFromString(performance)
	if err != nil {
		return mixnet.EstimateRequest{}, errors.Wrap(err, "performance")
	}
	req := mixnet.EstimateRequest{Performance: perf}
	if active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			return mixnet.EstimateRequest{}, errors.Wrap(err, "active")
		}
		req.Active = &v
	}
	return req, nil
}

func parseNodeIDs(args []string) ([]mix.NodeID, error) {
	ids := make([]mix.NodeID, 0, len(args))
	for _, arg := range args {
		id, err := mix.ParseNodeID(arg)
		if err != nil {
			return nil, errors.Wrapf(err, "mix id %q", arg)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func requireOwner(ctx *cli.Context) (mix.Addr, error) {
	owner := ctx.String(ownerFlag.Name)
	if owner == "" {
		return "", errors.Errorf("-%s is required", ownerFlag.Name)
	}
	return mix.Addr(owner), nil
}

func optionalProxy(ctx *cli.Context) *mix.Addr {
	if !ctx.IsSet(proxyFlag.Name) {
		return nil
	}
	proxy := mix.Addr(ctx.String(proxyFlag.Name))
	return &proxy
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/subscriptions") {
			h.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}
