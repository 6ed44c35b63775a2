// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"math/big"

	"github.com/vechain/vault/builtin/vault/reverts"
	"github.com/vechain/vault/metrics"
)

var (
	metricOperations      = metrics.LazyLoadCounterVec("operations_count", []string{"op", "result"})
	metricOperationGas    = metrics.LazyLoadHistogramVec("operation_gas", []string{"op"}, metrics.BucketStorageGas)
	metricTotalShares     = metrics.LazyLoadGauge("total_shares")
	metricRewardAssets    = metrics.LazyLoadGauge("reward_assets")
	metricOpenBatchShares = metrics.LazyLoadGauge("open_batch_shares")
	metricRewardRate      = metrics.LazyLoadGaugeVec("reward_rate", []string{"asset"})
)

func recordOperation(op string, err error, gas uint64) {
	result := "ok"
	switch {
	case err == nil:
		metricOperationGas().ObserveWithLabels(int64(gas), map[string]string{"op": op})
	case reverts.IsRevertErr(err):
		result = reverts.KindOf(err).String()
	default:
		result = "error"
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
}

// gaugeValue converts a base-unit amount, which overflows int64 beyond 9.2e18.
func gaugeValue(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

// updateGauges reads totals for the gauges. Failures only skip the update.
func (v *Vault) updateGauges() {
	if total, err := v.shares.TotalShares(); err == nil {
		metricTotalShares().SetFloat(gaugeValue(total))
	}
	if assets, err := v.rewards.RewardAssets(); err == nil {
		metricRewardAssets().Set(int64(len(assets)))
		for _, asset := range assets {
			if s, err := v.rewards.Stream(asset); err == nil {
				metricRewardRate().SetFloatWithLabel(gaugeValue(s.RewardRate), map[string]string{"asset": asset.String()})
			}
		}
	}
	if id, err := v.withdrawals.CurrentBatchID(); err == nil {
		if b, err := v.withdrawals.Batch(id); err == nil {
			metricOpenBatchShares().SetFloat(gaugeValue(b.Total))
		}
	}
}
