// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/vault/builtin/vault"
	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/builtin/vault/routing"
	"github.com/vechain/vault/config"
	"github.com/vechain/vault/eventdb"
	"github.com/vechain/vault/log"
	"github.com/vechain/vault/lvldb"
)

func initLogger(lvl int, jsonLogs bool) {
	useColor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.Init(os.Stderr, lvl, jsonLogs, useColor && !jsonLogs)
}

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, errors.Errorf("flag value %d overflows int", val)
	}
	return int(val), nil
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		log.Info("exit for signal", "signal", sig)
		cancel()
	}()
	return ctx
}

// loadConfig reads the config file and applies the command line overrides.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if ctx.IsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.String(dataDirFlag.Name)
	}
	if ctx.IsSet(apiAddrFlag.Name) {
		cfg.API.Addr = ctx.String(apiAddrFlag.Name)
	}
	if ctx.IsSet(apiCorsFlag.Name) {
		cfg.API.CORS = strings.Split(ctx.String(apiCorsFlag.Name), ",")
	}
	if ctx.IsSet(apiEventsLimitFlag.Name) {
		cfg.API.EventsLimit = ctx.Uint64(apiEventsLimitFlag.Name)
	}
	if ctx.Bool(skipEventsFlag.Name) {
		cfg.SkipEvents = true
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		cfg.Metrics.Enabled = true
	}
	if ctx.IsSet(metricsAddrFlag.Name) {
		cfg.Metrics.Addr = ctx.String(metricsAddrFlag.Name)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithMessage(err, "config")
	}
	return cfg, nil
}

func openDatabase(cfg *config.Config, dev bool) (*lvldb.LevelDB, error) {
	if dev {
		return lvldb.NewMem()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	return lvldb.New(filepath.Join(cfg.DataDir, "ledger"), lvldb.Options{
		CacheSize:              256,
		OpenFilesCacheCapacity: 64,
	})
}

func openEventDatabase(cfg *config.Config, dev bool) (*eventdb.EventDB, error) {
	if dev {
		return eventdb.NewMem()
	}
	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", cfg.DataDir)
	}
	return eventdb.New(filepath.Join(cfg.DataDir, "events.db"))
}

// applyConfig brings the vault parameters in line with cfg.
// Settings already in place are left untouched.
func applyConfig(v *vault.Vault, cfg *config.Config, now uint64) error {
	if err := v.SetMaxRewardAssets(cfg.MaxRewardAssets, now); err != nil {
		return errors.WithMessage(err, "max reward assets")
	}

	maxDeposits, err := v.MaxDeposits()
	if err != nil {
		return err
	}
	if maxDeposits.Cmp(cfg.MaxDepositsInt()) != 0 {
		if err := v.SetMaxDeposits(cfg.MaxDepositsInt(), now); err != nil {
			return errors.WithMessage(err, "max deposits")
		}
	}

	for _, rd := range cfg.RewardDurations {
		current, err := v.RewardsDuration(rd.Asset)
		if err != nil {
			return err
		}
		if current == rd.Seconds() {
			continue
		}
		if err := v.SetRewardsDuration(rd.Asset, rd.Seconds(), now); err != nil {
			if errors.Is(err, reverts.ErrPeriodActive) {
				log.Warn("reward period still active, duration kept", "asset", rd.Asset, "duration", current)
				continue
			}
			return errors.WithMessagef(err, "rewards duration of %v", rd.Asset)
		}
	}

	for _, addr := range cfg.PassThrough {
		kind, err := v.Kind(addr)
		if err != nil {
			return err
		}
		if kind == routing.PassThrough {
			continue
		}
		if err := v.SetPassThrough(addr, true, now); err != nil {
			return errors.WithMessagef(err, "pass-through %v", addr)
		}
	}
	return nil
}
