package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/galacticcouncil/warehouse/crypto"
	"github.com/galacticcouncil/warehouse/gateway/auth"
	"github.com/galacticcouncil/warehouse/native/farming"
)

const farmingRequestLimit = 1 << 20 // 1 MiB

// farmingRoutes wires HTTP handlers directly to a farming.Engine. The engine
// lives in the same process, so requests are decoded straight into engine
// parameters.
type farmingRoutes struct {
	engine *farming.Engine
	hmac   *auth.Authenticator
	now    func() time.Time
}

// NewFarmingRoutes returns routes bound to engine. hmac may be nil, in which
// case deposit/claim/withdraw endpoints skip request-signature verification
// (suitable for local development only).
func NewFarmingRoutes(engine *farming.Engine, hmac *auth.Authenticator) *farmingRoutes {
	return &farmingRoutes{engine: engine, hmac: hmac, now: time.Now}
}

// --- global farm lifecycle ---

type createGlobalFarmRequest struct {
	Owner                  string          `json:"owner"`
	TotalRewards           string          `json:"totalRewards"`
	PlannedYieldingPeriods uint64          `json:"plannedYieldingPeriods"`
	BlocksPerPeriod        uint64          `json:"blocksPerPeriod"`
	IncentivizedAsset      string          `json:"incentivizedAsset"`
	RewardCurrency         string          `json:"rewardCurrency"`
	YieldPerPeriod         farming.FixedU128 `json:"yieldPerPeriod"`
	MinDeposit             string          `json:"minDeposit"`
	PriceAdjustment        farming.FixedU128 `json:"priceAdjustment"`
	BlockNumber            uint64          `json:"blockNumber"`
}

type createGlobalFarmResponse struct {
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	MaxRewardPerPeriod string       `json:"maxRewardPerPeriod"`
}

func (fr *farmingRoutes) createGlobalFarm(w http.ResponseWriter, r *http.Request) {
	var req createGlobalFarmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	totalRewards, err := parseBigInt(req.TotalRewards, "totalRewards")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	minDeposit, err := parseBigInt(req.MinDeposit, "minDeposit")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	id, maxRewardPerPeriod, err := fr.engine.CreateGlobalFarm(farming.CreateGlobalFarmParams{
		Owner:                  owner,
		TotalRewards:           totalRewards,
		PlannedYieldingPeriods: req.PlannedYieldingPeriods,
		BlocksPerPeriod:        req.BlocksPerPeriod,
		IncentivizedAsset:      req.IncentivizedAsset,
		RewardCurrency:         req.RewardCurrency,
		YieldPerPeriod:         req.YieldPerPeriod,
		MinDeposit:             minDeposit,
		PriceAdjustment:        req.PriceAdjustment,
		BlockNumber:            req.BlockNumber,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createGlobalFarmResponse{
		GlobalFarmID:       id,
		MaxRewardPerPeriod: maxRewardPerPeriod.String(),
	})
}

type destroyGlobalFarmRequest struct {
	Owner string `json:"owner"`
}

type destroyGlobalFarmResponse struct {
	RewardCurrency string `json:"rewardCurrency"`
	Undistributed  string `json:"undistributed"`
}

func (fr *farmingRoutes) destroyGlobalFarm(w http.ResponseWriter, r *http.Request) {
	id, err := pathGlobalFarmID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req destroyGlobalFarmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	currency, undistributed, err := fr.engine.DestroyGlobalFarm(owner, id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, destroyGlobalFarmResponse{
		RewardCurrency: currency,
		Undistributed:  undistributed.String(),
	})
}

// --- yield farm lifecycle ---

type createYieldFarmRequest struct {
	Owner        string            `json:"owner"`
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	Multiplier   farming.FixedU128 `json:"multiplier"`
	Loyalty      *loyaltyCurveDTO  `json:"loyalty,omitempty"`
	AmmPoolID    string            `json:"ammPoolId"`
	AssetPair    [2]string         `json:"assetPair"`
	BlockNumber  uint64            `json:"blockNumber"`
}

type loyaltyCurveDTO struct {
	InitialRewardPercentage farming.FixedU128 `json:"initialRewardPercentage"`
	ScaleCoef               uint64            `json:"scaleCoef"`
}

type createYieldFarmResponse struct {
	YieldFarmID farming.YieldFarmID `json:"yieldFarmId"`
}

func (fr *farmingRoutes) createYieldFarm(w http.ResponseWriter, r *http.Request) {
	var req createYieldFarmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	var loyalty *farming.LoyaltyCurve
	if req.Loyalty != nil {
		loyalty = &farming.LoyaltyCurve{
			InitialRewardPercentage: req.Loyalty.InitialRewardPercentage,
			ScaleCoef:               req.Loyalty.ScaleCoef,
		}
	}
	id, err := fr.engine.CreateYieldFarm(farming.CreateYieldFarmParams{
		Owner:        owner,
		GlobalFarmID: req.GlobalFarmID,
		Multiplier:   req.Multiplier,
		Loyalty:      loyalty,
		AmmPoolID:    farming.AmmPoolID(req.AmmPoolID),
		AssetPair:    req.AssetPair,
		BlockNumber:  req.BlockNumber,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createYieldFarmResponse{YieldFarmID: id})
}

type updateMultiplierRequest struct {
	Owner        string               `json:"owner"`
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	AmmPoolID    string               `json:"ammPoolId"`
	NewMultiplier farming.FixedU128   `json:"newMultiplier"`
	BlockNumber  uint64               `json:"blockNumber"`
}

func (fr *farmingRoutes) updateYieldFarmMultiplier(w http.ResponseWriter, r *http.Request) {
	var req updateMultiplierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	id, err := fr.engine.UpdateYieldFarmMultiplier(owner, req.GlobalFarmID, farming.AmmPoolID(req.AmmPoolID), req.NewMultiplier, req.BlockNumber)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createYieldFarmResponse{YieldFarmID: id})
}

type stopYieldFarmRequest struct {
	Owner        string               `json:"owner"`
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	AmmPoolID    string               `json:"ammPoolId"`
	BlockNumber  uint64               `json:"blockNumber"`
}

func (fr *farmingRoutes) stopYieldFarm(w http.ResponseWriter, r *http.Request) {
	var req stopYieldFarmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	id, err := fr.engine.StopYieldFarm(owner, req.GlobalFarmID, farming.AmmPoolID(req.AmmPoolID), req.BlockNumber)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createYieldFarmResponse{YieldFarmID: id})
}

type resumeYieldFarmRequest struct {
	Owner         string               `json:"owner"`
	GlobalFarmID  farming.GlobalFarmID `json:"globalFarmId"`
	YieldFarmID   farming.YieldFarmID  `json:"yieldFarmId"`
	NewMultiplier farming.FixedU128    `json:"newMultiplier"`
	BlockNumber   uint64               `json:"blockNumber"`
}

func (fr *farmingRoutes) resumeYieldFarm(w http.ResponseWriter, r *http.Request) {
	var req resumeYieldFarmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	if err := fr.engine.ResumeYieldFarm(owner, req.GlobalFarmID, req.YieldFarmID, req.NewMultiplier, req.BlockNumber); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type destroyYieldFarmRequest struct {
	Owner        string               `json:"owner"`
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
}

func (fr *farmingRoutes) destroyYieldFarm(w http.ResponseWriter, r *http.Request) {
	yfID, err := pathYieldFarmID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	var req destroyYieldFarmRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	if err := fr.engine.DestroyYieldFarm(owner, req.GlobalFarmID, yfID); err != nil {
		writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- depositor operations ---

type depositRequest struct {
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	YieldFarmID  farming.YieldFarmID  `json:"yieldFarmId"`
	AmmPoolID    string               `json:"ammPoolId"`
	Owner        string               `json:"owner"`
	Shares       string               `json:"shares"`
	ValuedShares string               `json:"valuedShares"`
	BlockNumber  uint64               `json:"blockNumber"`
}

type depositResponse struct {
	DepositID farming.DepositID `json:"depositId"`
}

func (fr *farmingRoutes) depositLPShares(w http.ResponseWriter, r *http.Request) {
	body, err := fr.verify(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	var req depositRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	owner, err := crypto.DecodeAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("owner: %w", err))
		return
	}
	shares, err := parseBigInt(req.Shares, "shares")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	valuedShares, err := parseBigInt(req.ValuedShares, "valuedShares")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	id, err := fr.engine.DepositLPShares(req.GlobalFarmID, req.YieldFarmID, farming.AmmPoolID(req.AmmPoolID), owner, shares, fixedValuation(valuedShares), req.BlockNumber)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, depositResponse{DepositID: id})
}

type redepositRequest struct {
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	YieldFarmID  farming.YieldFarmID  `json:"yieldFarmId"`
	ValuedShares string               `json:"valuedShares"`
	BlockNumber  uint64               `json:"blockNumber"`
}

type redepositResponse struct {
	Shares    string `json:"shares"`
	AmmPoolID string `json:"ammPoolId"`
}

func (fr *farmingRoutes) redepositLPShares(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathDepositID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	body, err := fr.verify(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	var req redepositRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	valuedShares, err := parseBigInt(req.ValuedShares, "valuedShares")
	if err != nil {
		writeBadRequest(w, err)
		return
	}

	shares, poolID, err := fr.engine.RedepositLPShares(req.GlobalFarmID, req.YieldFarmID, depositID, fixedValuation(valuedShares), req.BlockNumber)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redepositResponse{Shares: shares.String(), AmmPoolID: string(poolID)})
}

type claimRequest struct {
	Account           string              `json:"account"`
	YieldFarmID       farming.YieldFarmID `json:"yieldFarmId"`
	FailOnDoubleClaim bool                `json:"failOnDoubleClaim"`
	BlockNumber       uint64              `json:"blockNumber"`
}

type claimResponse struct {
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	RewardCurrency string             `json:"rewardCurrency"`
	Claimed        string             `json:"claimed"`
	Unclaimable    string             `json:"unclaimable"`
}

func (fr *farmingRoutes) claimRewards(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathDepositID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	body, err := fr.verify(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	var req claimRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	account, err := crypto.DecodeAddress(req.Account)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("account: %w", err))
		return
	}
	globalFarmID, currency, claimed, unclaimable, err := fr.engine.ClaimRewards(account, depositID, req.YieldFarmID, req.FailOnDoubleClaim, req.BlockNumber)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{
		GlobalFarmID:   globalFarmID,
		RewardCurrency: currency,
		Claimed:        claimed.String(),
		Unclaimable:    unclaimable.String(),
	})
}

type withdrawRequest struct {
	YieldFarmID        farming.YieldFarmID `json:"yieldFarmId"`
	UnclaimableRewards string              `json:"unclaimableRewards"`
}

type withdrawResponse struct {
	GlobalFarmID farming.GlobalFarmID `json:"globalFarmId"`
	Shares       string               `json:"shares"`
	DepositDestroyed bool             `json:"depositDestroyed"`
}

func (fr *farmingRoutes) withdrawLPShares(w http.ResponseWriter, r *http.Request) {
	depositID, err := pathDepositID(r)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	body, err := fr.verify(r)
	if err != nil {
		writeUnauthorized(w, err)
		return
	}
	var req withdrawRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeBadRequest(w, fmt.Errorf("decode request: %w", err))
		return
	}
	unclaimable, err := parseBigInt(req.UnclaimableRewards, "unclaimableRewards")
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	globalFarmID, shares, depositDestroyed, err := fr.engine.WithdrawLPShares(depositID, req.YieldFarmID, unclaimable)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, withdrawResponse{
		GlobalFarmID:     globalFarmID,
		Shares:           shares.String(),
		DepositDestroyed: depositDestroyed,
	})
}

// fixedValuation returns a ValuationFunc that ignores its arguments and
// always reports valuedShares — the gateway trusts the caller's own
// off-chain pool valuation rather than recomputing it in-process.
func fixedValuation(valuedShares *big.Int) farming.ValuationFunc {
	return func(_ string, _ *big.Int, _ farming.AmmPoolID) (*big.Int, error) {
		return new(big.Int).Set(valuedShares), nil
	}
}

// verify authenticates a request with the HMAC request-signing scheme (when
// configured) and returns the raw body for handlers to decode.
func (fr *farmingRoutes) verify(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.New("missing request body")
	}
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, farmingRequestLimit))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if fr.hmac == nil {
		return body, nil
	}
	if _, err := fr.hmac.Authenticate(r, body); err != nil {
		return nil, err
	}
	return body, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()
	reader := io.LimitReader(r.Body, farmingRequestLimit)
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func parseBigInt(s, field string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%s is not a valid integer", field)
	}
	return n, nil
}

func pathGlobalFarmID(r *http.Request) (farming.GlobalFarmID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid global farm id %q", raw)
	}
	return farming.GlobalFarmID(n), nil
}

func pathYieldFarmID(r *http.Request) (farming.YieldFarmID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid yield farm id %q", raw)
	}
	return farming.YieldFarmID(n), nil
}

func pathDepositID(r *http.Request) (farming.DepositID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid deposit id %q", raw)
	}
	return farming.DepositID(n), nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	payload, err := json.Marshal(v)
	if err != nil {
		writeInternalError(w, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	writeJSONError(w, http.StatusUnauthorized, err)
}

// writeEngineError maps native/farming sentinel errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, farming.ErrGlobalFarmNotFound),
		errors.Is(err, farming.ErrYieldFarmNotFound),
		errors.Is(err, farming.ErrDepositNotFound),
		errors.Is(err, farming.ErrFarmEntryNotFound):
		writeJSONError(w, http.StatusNotFound, err)
	case errors.Is(err, farming.ErrForbidden):
		writeJSONError(w, http.StatusForbidden, err)
	case errors.Is(err, farming.ErrGlobalFarmNotActive),
		errors.Is(err, farming.ErrYieldFarmNotActive),
		errors.Is(err, farming.ErrYieldFarmNotStopped),
		errors.Is(err, farming.ErrYieldFarmAlreadyStopped),
		errors.Is(err, farming.ErrYieldFarmHasStake),
		errors.Is(err, farming.ErrGlobalFarmHasYieldFarms),
		errors.Is(err, farming.ErrFarmEntryAlreadyExists),
		errors.Is(err, farming.ErrMaxEntriesExceeded),
		errors.Is(err, farming.ErrNoRewardsToClaim),
		errors.Is(err, farming.ErrAmmPoolMismatch),
		errors.Is(err, farming.ErrDoubleClaimInPeriod),
		errors.Is(err, farming.ErrInsufficientDeposit),
		errors.Is(err, farming.ErrInvalidAmount),
		errors.Is(err, farming.ErrInvalidMultiplier),
		errors.Is(err, farming.ErrInvalidPeriod),
		errors.Is(err, farming.ErrInvalidMinDeposit),
		errors.Is(err, farming.ErrInvalidPriceAdjustment),
		errors.Is(err, farming.ErrInvalidLoyaltyCurve):
		writeJSONError(w, http.StatusConflict, err)
	case errors.Is(err, farming.ErrInsufficientBalance):
		writeJSONError(w, http.StatusPaymentRequired, err)
	default:
		writeInternalError(w, err)
	}
}
