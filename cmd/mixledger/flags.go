// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for the ledger database",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 64,
		Usage: "megabytes of ram allocated to the database and state caches",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	heightFlag = cli.Uint64Flag{
		Name:  "height",
		Usage: "height of the block the request is included in",
	}
	timeFlag = cli.Uint64Flag{
		Name:  "time",
		Usage: "unix time of the request, defaults to now",
	}
	ntpServerFlag = cli.StringFlag{
		Name:  "ntp-server",
		Usage: "NTP server the local clock is checked against when --time is not given",
	}

	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a YAML genesis file, defaults to the built-in parameters",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "address of the account sending the request",
	}
	proxyFlag = cli.StringFlag{
		Name:  "proxy",
		Usage: "address of the contract acting on behalf of the owner",
	}
	mixIDFlag = cli.Uint64Flag{
		Name:  "mix-id",
		Usage: "id of the mixnode",
	}
	amountFlag = cli.StringFlag{
		Name:  "amount",
		Usage: "amount in minimal units, optionally suffixed with the denom (e.g. 1000unym)",
	}
	hostFlag = cli.StringFlag{
		Name:  "host",
		Usage: "mixnode host",
	}
	mixPortFlag = cli.UintFlag{
		Name:  "mix-port",
		Value: 1789,
		Usage: "mixnode mixing port",
	}
	verlocPortFlag = cli.UintFlag{
		Name:  "verloc-port",
		Value: 1790,
		Usage: "mixnode verloc port",
	}
	httpAPIPortFlag = cli.UintFlag{
		Name:  "http-api-port",
		Value: 8000,
		Usage: "mixnode http api port",
	}
	identityKeyFlag = cli.StringFlag{
		Name:  "identity-key",
		Usage: "base58 identity key of the mixnode",
	}
	sphinxKeyFlag = cli.StringFlag{
		Name:  "sphinx-key",
		Usage: "base58 sphinx key of the mixnode",
	}
	nodeVersionFlag = cli.StringFlag{
		Name:  "node-version",
		Usage: "version of the mixnode binary",
	}
	profitMarginFlag = cli.StringFlag{
		Name:  "profit-margin",
		Value: "0.1",
		Usage: "operator profit margin as a fraction",
	}
	operatingCostFlag = cli.StringFlag{
		Name:  "operating-cost",
		Value: "40000000",
		Usage: "operating cost per interval in minimal units",
	}
	operatorFlag = cli.BoolFlag{
		Name:  "operator",
		Usage: "withdraw the operator reward instead of a delegator reward",
	}
	limitFlag = cli.Uint64Flag{
		Name:  "limit",
		Value: 50,
		Usage: "maximum number of items returned",
	}
	fromEpochFlag = cli.Uint64Flag{
		Name:  "from",
		Usage: "first epoch of the history range",
	}
	toEpochFlag = cli.Uint64Flag{
		Name:  "to",
		Usage: "last epoch of the history range, open when below -from",
	}
	orderFlag = cli.StringFlag{
		Name:  "order",
		Value: "asc",
		Usage: "history order, asc or desc",
	}
	performanceFlag = cli.StringFlag{
		Name:  "performance",
		Value: "1",
		Usage: "performance the estimate assumes, as a fraction",
	}
	activeFlag = cli.StringFlag{
		Name:  "active",
		Usage: "assume the node is active (true) or standby (false) instead of its rewarded set status",
	}

	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8680",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiTimeoutFlag = cli.Uint64Flag{
		Name:  "api-timeout",
		Value: 10000,
		Usage: "API request timeout value in milliseconds",
	}
	apiPollIntervalFlag = cli.Uint64Flag{
		Name:  "api-poll-interval",
		Value: 1000,
		Usage: "interval in milliseconds at which subscriptions look for a new epoch",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection, served at /metrics",
	}
	pprofFlag = cli.BoolFlag{
		Name:  "pprof",
		Usage: "turn on go-pprof",
	}
)
