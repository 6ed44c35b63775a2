// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package vault

import (
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"

	"github.com/vechain/vault/api/utils"
	"github.com/vechain/vault/builtin/vault"
	"github.com/vechain/vault/thor"
)

// Clock returns the current unix time in seconds.
type Clock func() uint64

// SystemClock reads the wall clock.
func SystemClock() uint64 {
	return uint64(time.Now().Unix())
}

// Options of the vault endpoints.
type Options struct {
	// Operator is the only signer allowed to run operator endpoints.
	// A zero operator leaves them open to any signer.
	Operator thor.Address
	// DevMode enables the asset faucet.
	DevMode bool
}

type Vault struct {
	mu    sync.Mutex
	vault *vault.Vault
	clock Clock
	opts  Options
	seen  *lru.Cache
}

func New(v *vault.Vault, clock Clock, opts Options) *Vault {
	if clock == nil {
		clock = SystemClock
	}
	seen, _ := lru.New(seenCacheSize)
	return &Vault{
		vault: v,
		clock: clock,
		opts:  opts,
		seen:  seen,
	}
}

func parseAddress(req *http.Request, name string) (thor.Address, error) {
	addr, err := thor.ParseAddress(mux.Vars(req)[name])
	if err != nil {
		return thor.Address{}, utils.BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

func parseBody(r io.Reader, v any) error {
	if err := utils.ParseJSON(r, v); err != nil {
		return utils.BadRequest(errors.WithMessage(err, "body"))
	}
	return nil
}

func (v *Vault) handleGetSummary(w http.ResponseWriter, _ *http.Request) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	total, err := v.vault.TotalShares()
	if err != nil {
		return err
	}
	principal, err := v.vault.DepositPrincipal()
	if err != nil {
		return err
	}
	maxDeposits, err := v.vault.MaxDeposits()
	if err != nil {
		return err
	}
	current, err := v.vault.CurrentBatchID()
	if err != nil {
		return err
	}
	assets, err := v.vault.RewardAssets()
	if err != nil {
		return err
	}
	maxAssets, err := v.vault.MaxRewardAssets()
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Summary{
		Address:          v.vault.Address(),
		Principal:        v.vault.Principal(),
		TotalShares:      hex(total),
		DepositPrincipal: hex(principal),
		MaxDeposits:      hex(maxDeposits),
		CurrentBatch:     current,
		RewardAssets:     assets,
		MaxRewardAssets:  maxAssets,
		Timestamp:        v.clock(),
	})
}

func (v *Vault) handleGetAccount(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock()
	kind, err := v.vault.Kind(addr)
	if err != nil {
		return err
	}
	shares, err := v.vault.BalanceOf(addr)
	if err != nil {
		return err
	}
	effective, err := v.vault.EffectiveBalance(addr)
	if err != nil {
		return err
	}
	routed, err := v.vault.RoutedShares(addr)
	if err != nil {
		return err
	}
	pending, err := v.vault.PendingShares(addr)
	if err != nil {
		return err
	}
	claimable, err := v.vault.ClaimableAssets(addr)
	if err != nil {
		return err
	}
	assets, err := v.vault.RewardAssets()
	if err != nil {
		return err
	}
	rewards := make([]*Reward, 0, len(assets))
	for _, asset := range assets {
		amount, err := v.vault.PreviewRewards(addr, asset, now)
		if err != nil {
			return err
		}
		rewards = append(rewards, &Reward{Asset: asset, Amount: hex(amount)})
	}

	return utils.WriteJSON(w, &Account{
		Address:          addr,
		Kind:             kind.String(),
		Shares:           hex(shares),
		EffectiveBalance: hex(effective),
		RoutedShares:     hex(routed),
		PendingShares:    hex(pending),
		ClaimableAssets:  hex(claimable),
		Rewards:          rewards,
	})
}

func (v *Vault) handleGetReward(w http.ResponseWriter, req *http.Request) error {
	addr, err := parseAddress(req, "address")
	if err != nil {
		return err
	}
	asset, err := parseAddress(req, "asset")
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	amount, err := v.vault.PreviewRewards(addr, asset, v.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Reward{Asset: asset, Amount: hex(amount)})
}

func (v *Vault) handleGetStream(w http.ResponseWriter, req *http.Request) error {
	asset, err := parseAddress(req, "asset")
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	stream, err := v.vault.Stream(asset)
	if err != nil {
		return err
	}
	duration, err := v.vault.RewardsDuration(asset)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStream(stream, duration, v.clock()))
}

func (v *Vault) parseBatchID(req *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		return 0, utils.BadRequest(errors.WithMessage(err, "id"))
	}
	current, err := v.vault.CurrentBatchID()
	if err != nil {
		return 0, err
	}
	if id > current {
		return 0, utils.NotFound(errors.Errorf("batch %d not found", id))
	}
	return id, nil
}

func (v *Vault) handleGetBatch(w http.ResponseWriter, req *http.Request) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	id, err := v.parseBatchID(req)
	if err != nil {
		return err
	}
	batch, err := v.vault.Batch(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertBatch(batch))
}

func (v *Vault) handleGetParticipants(w http.ResponseWriter, req *http.Request) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	id, err := v.parseBatchID(req)
	if err != nil {
		return err
	}
	entries, err := v.vault.BatchParticipants(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertParticipants(entries))
}

func (v *Vault) handleDeposit(w http.ResponseWriter, req *http.Request) error {
	var body DepositRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.vault.Deposit(caller, body.Receiver, amount(body.Amount), v.clock()); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{})
}

func (v *Vault) handleTransfer(w http.ResponseWriter, req *http.Request) error {
	var body TransferRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.vault.Transfer(caller, body.To, amount(body.Amount), v.clock()); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{})
}

func (v *Vault) handleRequestWithdraw(w http.ResponseWriter, req *http.Request) error {
	var body WithdrawRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id, err := v.vault.RequestWithdraw(caller, amount(body.Shares), v.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &WithdrawResponse{BatchID: id})
}

func (v *Vault) handleClaimWithdrawn(w http.ResponseWriter, req *http.Request) error {
	caller, err := v.parseSigned(req, nil)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	claimed, err := v.vault.ClaimWithdrawnAssets(caller, v.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &AmountResponse{Amount: hex(claimed)})
}

func (v *Vault) handleStartBatch(w http.ResponseWriter, req *http.Request) error {
	caller, err := v.parseSigned(req, nil)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id, _, err := v.vault.StartBatch(v.clock())
	if err != nil {
		return err
	}
	batch, err := v.vault.Batch(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertBatch(batch))
}

func (v *Vault) handleFulfillBatch(w http.ResponseWriter, req *http.Request) error {
	var body FulfillRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id, err := v.parseBatchID(req)
	if err != nil {
		return err
	}
	if _, err := v.vault.FulfillBatch(caller, id, amount(body.Fee), v.clock()); err != nil {
		return err
	}
	batch, err := v.vault.Batch(id)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertBatch(batch))
}

func (v *Vault) handleNotify(w http.ResponseWriter, req *http.Request) error {
	var body NotifyRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock()
	if err := v.vault.Notify(caller, body.Asset, amount(body.Amount), now); err != nil {
		return err
	}
	stream, err := v.vault.Stream(body.Asset)
	if err != nil {
		return err
	}
	duration, err := v.vault.RewardsDuration(body.Asset)
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertStream(stream, duration, now))
}

func (v *Vault) handleSetDuration(w http.ResponseWriter, req *http.Request) error {
	var body DurationRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.vault.SetRewardsDuration(body.Asset, body.Duration, v.clock()); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{})
}

func (v *Vault) handleSetMaxRewardAssets(w http.ResponseWriter, req *http.Request) error {
	var body MaxRewardAssetsRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.vault.SetMaxRewardAssets(body.Max, v.clock()); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{})
}

func (v *Vault) handleClaim(w http.ResponseWriter, req *http.Request) error {
	var body ClaimRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	claimed, err := v.vault.Claim(caller, body.Asset, body.Receiver, v.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Reward{Asset: body.Asset, Amount: hex(claimed)})
}

func (v *Vault) handleClaimAll(w http.ResponseWriter, req *http.Request) error {
	var body ClaimRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	payouts, err := v.vault.ClaimAll(caller, body.Receiver, v.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, convertPayouts(payouts))
}

func (v *Vault) handleSweepDust(w http.ResponseWriter, req *http.Request) error {
	var body ClaimRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	swept, err := v.vault.SweepDust(body.Asset, body.Receiver, v.clock())
	if err != nil {
		return err
	}
	return utils.WriteJSON(w, &Reward{Asset: body.Asset, Amount: hex(swept)})
}

func (v *Vault) handleSetPassThrough(w http.ResponseWriter, req *http.Request) error {
	var body PassThroughRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.vault.SetPassThrough(body.Account, body.PassThrough, v.clock()); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{})
}

func (v *Vault) handleSetMaxDeposits(w http.ResponseWriter, req *http.Request) error {
	var body MaxDepositsRequest
	caller, err := v.parseSigned(req, &body)
	if err != nil {
		return err
	}
	if err := v.checkOperator(caller); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.vault.SetMaxDeposits(amount(body.Max), v.clock()); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{})
}

func (v *Vault) handleFund(w http.ResponseWriter, req *http.Request) error {
	var body FundRequest
	if err := parseBody(req.Body, &body); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.vault.Fund(body.Asset, body.Holder, amount(body.Amount), v.clock()); err != nil {
		return err
	}
	return utils.WriteJSON(w, utils.M{})
}

func (v *Vault) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/summary").
		Methods(http.MethodGet).
		Name("GET /vault/summary").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetSummary))
	sub.Path("/accounts/{address}").
		Methods(http.MethodGet).
		Name("GET /vault/accounts/{address}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetAccount))
	sub.Path("/accounts/{address}/rewards/{asset}").
		Methods(http.MethodGet).
		Name("GET /vault/accounts/{address}/rewards/{asset}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetReward))
	sub.Path("/streams/{asset}").
		Methods(http.MethodGet).
		Name("GET /vault/streams/{asset}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetStream))
	sub.Path("/batches/{id}").
		Methods(http.MethodGet).
		Name("GET /vault/batches/{id}").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetBatch))
	sub.Path("/batches/{id}/participants").
		Methods(http.MethodGet).
		Name("GET /vault/batches/{id}/participants").
		HandlerFunc(utils.WrapHandlerFunc(v.handleGetParticipants))

	sub.Path("/deposit").
		Methods(http.MethodPost).
		Name("POST /vault/deposit").
		HandlerFunc(utils.WrapHandlerFunc(v.handleDeposit))
	sub.Path("/transfer").
		Methods(http.MethodPost).
		Name("POST /vault/transfer").
		HandlerFunc(utils.WrapHandlerFunc(v.handleTransfer))
	sub.Path("/withdrawals/request").
		Methods(http.MethodPost).
		Name("POST /vault/withdrawals/request").
		HandlerFunc(utils.WrapHandlerFunc(v.handleRequestWithdraw))
	sub.Path("/withdrawals/claim").
		Methods(http.MethodPost).
		Name("POST /vault/withdrawals/claim").
		HandlerFunc(utils.WrapHandlerFunc(v.handleClaimWithdrawn))
	sub.Path("/batches/start").
		Methods(http.MethodPost).
		Name("POST /vault/batches/start").
		HandlerFunc(utils.WrapHandlerFunc(v.handleStartBatch))
	sub.Path("/batches/{id}/fulfill").
		Methods(http.MethodPost).
		Name("POST /vault/batches/{id}/fulfill").
		HandlerFunc(utils.WrapHandlerFunc(v.handleFulfillBatch))
	sub.Path("/rewards/notify").
		Methods(http.MethodPost).
		Name("POST /vault/rewards/notify").
		HandlerFunc(utils.WrapHandlerFunc(v.handleNotify))
	sub.Path("/rewards/duration").
		Methods(http.MethodPost).
		Name("POST /vault/rewards/duration").
		HandlerFunc(utils.WrapHandlerFunc(v.handleSetDuration))
	sub.Path("/rewards/max-assets").
		Methods(http.MethodPost).
		Name("POST /vault/rewards/max-assets").
		HandlerFunc(utils.WrapHandlerFunc(v.handleSetMaxRewardAssets))
	sub.Path("/rewards/claim").
		Methods(http.MethodPost).
		Name("POST /vault/rewards/claim").
		HandlerFunc(utils.WrapHandlerFunc(v.handleClaim))
	sub.Path("/rewards/claim-all").
		Methods(http.MethodPost).
		Name("POST /vault/rewards/claim-all").
		HandlerFunc(utils.WrapHandlerFunc(v.handleClaimAll))
	sub.Path("/rewards/sweep").
		Methods(http.MethodPost).
		Name("POST /vault/rewards/sweep").
		HandlerFunc(utils.WrapHandlerFunc(v.handleSweepDust))
	sub.Path("/pass-through").
		Methods(http.MethodPost).
		Name("POST /vault/pass-through").
		HandlerFunc(utils.WrapHandlerFunc(v.handleSetPassThrough))
	sub.Path("/max-deposits").
		Methods(http.MethodPost).
		Name("POST /vault/max-deposits").
		HandlerFunc(utils.WrapHandlerFunc(v.handleSetMaxDeposits))

	if v.opts.DevMode {
		sub.Path("/fund").
			Methods(http.MethodPost).
			Name("POST /vault/fund").
			HandlerFunc(utils.WrapHandlerFunc(v.handleFund))
	}
}
