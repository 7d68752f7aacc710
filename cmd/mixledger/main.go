// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	cli "gopkg.in/urfave/cli.v1"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.New("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "mixledger",
		Usage:   "Rewarding ledger of a mix network",
		Flags: []cli.Flag{
			dataDirFlag,
			cacheFlag,
			verbosityFlag,
			heightFlag,
			timeFlag,
			ntpServerFlag,
		},
		Commands: []cli.Command{
			{
				Name:   "init",
				Usage:  "Initialise the ledger and start the epoch clock",
				Flags:  []cli.Flag{genesisFlag},
				Action: initAction,
			},
			{
				Name:   "dump-genesis",
				Usage:  "Print the built-in genesis as YAML",
				Action: dumpGenesisAction,
			},
			{
				Name:  "bond",
				Usage: "Bond a mixnode",
				Flags: []cli.Flag{
					ownerFlag, proxyFlag, amountFlag,
					hostFlag, mixPortFlag, verlocPortFlag, httpAPIPortFlag,
					identityKeyFlag, sphinxKeyFlag, nodeVersionFlag,
					profitMarginFlag, operatingCostFlag,
				},
				Action: bondAction,
			},
			{
				Name:   "unbond",
				Usage:  "Unbond the owner's mixnode at the end of the epoch",
				Flags:  []cli.Flag{ownerFlag, proxyFlag},
				Action: unbondAction,
			},
			{
				Name:   "update-costs",
				Usage:  "Change the owner's cost parameters at the end of the interval",
				Flags:  []cli.Flag{ownerFlag, proxyFlag, profitMarginFlag, operatingCostFlag},
				Action: updateCostsAction,
			},
			{
				Name:   "delegate",
				Usage:  "Delegate to a mixnode at the end of the epoch",
				Flags:  []cli.Flag{ownerFlag, proxyFlag, mixIDFlag, amountFlag},
				Action: delegateAction,
			},
			{
				Name:   "undelegate",
				Usage:  "Remove a delegation at the end of the epoch",
				Flags:  []cli.Flag{ownerFlag, proxyFlag, mixIDFlag},
				Action: undelegateAction,
			},
			{
				Name:   "withdraw",
				Usage:  "Withdraw accumulated operator or delegator rewards",
				Flags:  []cli.Flag{ownerFlag, proxyFlag, mixIDFlag, operatorFlag},
				Action: withdrawAction,
			},
			{
				Name:      "reward",
				Usage:     "Reward mixnodes for the epoch that just ended",
				ArgsUsage: "<mix-id>:<performance>...",
				Action:    rewardAction,
			},
			{
				Name:      "advance",
				Usage:     "Close the epoch and start the next one with the given rewarded set",
				ArgsUsage: "<mix-id>...",
				Action:    advanceAction,
			},
			{
				Name:  "query",
				Usage: "Read the ledger",
				Subcommands: []cli.Command{
					{Name: "params", Usage: "Rewarding parameters", Action: queryParamsAction},
					{Name: "interval", Usage: "Current interval and epoch", Action: queryIntervalAction},
					{Name: "rewarded-set", Usage: "Rewarded set of the current epoch", Action: queryRewardedSetAction},
					{Name: "mixnode", Usage: "Mixnode details", ArgsUsage: "<mix-id>", Action: queryMixnodeAction},
					{Name: "mixnodes", Usage: "Bonded mixnodes", Flags: []cli.Flag{limitFlag}, Action: queryMixnodesAction},
					{Name: "delegation", Usage: "Delegation and its pending reward", Flags: []cli.Flag{ownerFlag, proxyFlag, mixIDFlag}, Action: queryDelegationAction},
					{Name: "events", Usage: "Pending epoch and interval events", Flags: []cli.Flag{limitFlag}, Action: queryEventsAction},
					{Name: "balance", Usage: "Tokens paid out to an address", ArgsUsage: "<address>", Action: queryBalanceAction},
					{Name: "estimate", Usage: "Estimated reward of a mixnode for the current epoch", ArgsUsage: "<mix-id>", Flags: []cli.Flag{performanceFlag, activeFlag}, Action: queryEstimateAction},
					{Name: "rewards", Usage: "Recorded rewards, of one mixnode if given", ArgsUsage: "[mix-id]", Flags: []cli.Flag{fromEpochFlag, toEpochFlag, orderFlag, limitFlag}, Action: queryRewardsAction},
					{Name: "totals", Usage: "Sum of the recorded rewards of a mixnode", ArgsUsage: "<mix-id>", Action: queryTotalsAction},
					{Name: "advances", Usage: "Recorded epoch advances", Flags: []cli.Flag{fromEpochFlag, toEpochFlag, orderFlag, limitFlag}, Action: queryAdvancesAction},
				},
			},
			{
				Name:   "verify-history",
				Usage:  "Check the reward history against the ledger",
				Action: verifyHistoryAction,
			},
			{
				Name:  "serve",
				Usage: "Serve the committed ledger over HTTP",
				Flags: []cli.Flag{
					apiAddrFlag,
					apiCorsFlag,
					apiTimeoutFlag,
					apiPollIntervalFlag,
					enableAPILogsFlag,
					enableMetricsFlag,
					pprofFlag,
				},
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Fatal:", err)
		os.Exit(1)
	}
}
