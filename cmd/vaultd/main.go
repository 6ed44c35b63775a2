// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// vaultd serves the ledger of a pooled staking vault over HTTP.
package main

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/vault/api"
	apivault "github.com/vechain/vault/api/vault"
	"github.com/vechain/vault/builtin/vault"
	"github.com/vechain/vault/cmd/vaultd/httpserver"
	"github.com/vechain/vault/eventdb"
	"github.com/vechain/vault/log"
	"github.com/vechain/vault/metrics"
	"github.com/vechain/vault/state"
)

var (
	version       string
	gitCommit     string
	gitTag        string
	copyrightYear string

	flags = []cli.Flag{
		configFlag,
		dataDirFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiEventsLimitFlag,
		skipEventsFlag,
		enableAPILogsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		verbosityFlag,
		jsonLogsFlag,
		pprofFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		devFlag,
	}
)

func main() {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	app := cli.App{
		Version:   fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta),
		Name:      "Vaultd",
		Usage:     "Ledger of a VeChain pooled staking vault",
		Copyright: fmt.Sprintf("2025-%s VeChain Foundation <https://vechain.org/>", copyrightYear),
		Flags:     flags,
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse verbosity flag")
	}
	initLogger(lvl, ctx.Bool(jsonLogsFlag.Name))

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	dev := ctx.Bool(devFlag.Name)

	if cfg.Metrics.Enabled {
		metrics.InitializePrometheusMetrics()
	}

	db, err := openDatabase(cfg, dev)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing ledger database..."); db.Close() }()

	v := vault.New(cfg.Vault, cfg.Principal, state.New(db), db)
	if err := applyConfig(v, cfg, apivault.SystemClock()); err != nil {
		return err
	}

	var eventDB *eventdb.EventDB
	if !cfg.SkipEvents {
		if eventDB, err = openEventDatabase(cfg, dev); err != nil {
			return errors.WithMessage(err, "open event database")
		}
		defer func() { log.Info("closing event database..."); eventDB.Close() }()
	}

	enableAPILogs := &atomic.Bool{}
	enableAPILogs.Store(ctx.Bool(enableAPILogsFlag.Name))
	handler, closeSubs := api.New(v, eventDB, api.Options{
		AllowedOrigins:       strings.Join(cfg.API.CORS, ","),
		Operator:             cfg.Operator,
		DevMode:              dev,
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableMetrics:        cfg.Metrics.Enabled,
		EnableReqLogger:      enableAPILogs,
		SlowQueriesThreshold: time.Duration(ctx.Uint64(apiSlowQueriesThresholdFlag.Name)) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EventsLimit:          cfg.API.EventsLimit,
		Clock:                apivault.SystemClock,
	})
	defer closeSubs()

	exitSignal := handleExitSignal()
	group, groupCtx := errgroup.WithContext(exitSignal)

	apiSrv, err := httpserver.NewAPIServer(cfg.API.Addr, handler)
	if err != nil {
		return err
	}
	group.Go(apiSrv.Serve)
	log.Info("API server started", "url", apiSrv.URL()+"/vault", "vault", cfg.Vault, "principal", cfg.Principal, "dev", dev)

	servers := []*httpserver.Server{apiSrv}
	if cfg.Metrics.Enabled {
		metricsSrv, err := httpserver.NewMetricsServer(cfg.Metrics.Addr)
		if err != nil {
			apiSrv.Close()
			return err
		}
		group.Go(metricsSrv.Serve)
		servers = append(servers, metricsSrv)
		log.Info("metrics server started", "url", metricsSrv.URL()+"/metrics")
	}

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("stopping servers...")
		closeSubs()
		for _, srv := range servers {
			srv.Close()
		}
		return nil
	})
	return group.Wait()
}
