package farming

import (
	"math/big"

	"github.com/galacticcouncil/warehouse/core/events"
	"github.com/galacticcouncil/warehouse/crypto"
	"github.com/galacticcouncil/warehouse/observability/metrics"
)

// ValuationFunc converts a raw LP share amount into reward-weighting
// "valued shares" for a specific pool and incentivized asset. Injected by
// the caller at deposit/redeposit time so the engine never needs to know
// how AMM pools price their liquidity.
type ValuationFunc func(incentivizedAsset string, shares *big.Int, poolID AmmPoolID) (*big.Int, error)

// Engine is the public reward orchestrator (C5). It is the only type
// external callers interact with; every mutation flows through one of its
// methods. A method applies its ledger transfers and Store writes one at a
// time; the Store has no transaction, so a method that fails partway does
// not undo the transfers and writes it has already made.
type Engine struct {
	store       Store
	transactor  AssetTransactor
	emitter     events.Emitter
	metrics     *metrics.FarmingMetrics
}

// Option configures optional Engine collaborators.
type Option func(*Engine)

// WithEmitter attaches a structured-event sink. Defaults to a no-op
// emitter if never set.
func WithEmitter(e events.Emitter) Option {
	return func(eng *Engine) { eng.emitter = e }
}

// WithMetrics attaches a Prometheus metrics registry. Defaults to nil,
// which disables instrumentation entirely (every call site nil-checks).
func WithMetrics(m *metrics.FarmingMetrics) Option {
	return func(eng *Engine) { eng.metrics = m }
}

// NewEngine constructs an Engine over the given store and asset ledger.
func NewEngine(store Store, transactor AssetTransactor, opts ...Option) *Engine {
	e := &Engine{store: store, transactor: transactor, emitter: events.NoopEmitter{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) < 0 {
		return a
	}
	return b
}

// syncGlobalFarm advances gf's accumulators up to period `now`, per the
// emission and reward-per-share-step formulas (§4.1). No-op if gf is not
// Active or if no period boundary has elapsed since the last sync.
func (e *Engine) syncGlobalFarm(gf *GlobalFarm, now Period) error {
	if gf.State != GlobalFarmActive {
		return nil
	}
	if now <= gf.UpdatedAtPeriod {
		return nil
	}
	elapsed := new(big.Int).SetUint64(uint64(now - gf.UpdatedAtPeriod))

	account := DeriveFarmAccount(FarmAccountGlobal, uint64(gf.ID))
	balance, err := e.transactor.Balance(gf.RewardCurrency, account)
	if err != nil {
		return err
	}

	emitPerPeriod, err := gf.YieldPerPeriod.MulInt(balance)
	if err != nil {
		return err
	}
	emitPerPeriod = minBig(emitPerPeriod, gf.MaxRewardPerPeriod)

	totalEmission := new(big.Int).Mul(emitPerPeriod, elapsed)
	gf.AccumulatedRewards = new(big.Int).Add(gf.AccumulatedRewards, totalEmission)

	if gf.TotalSharesZ.Sign() > 0 {
		deltaRpz, err := DivInt(totalEmission, gf.TotalSharesZ)
		if err != nil {
			return err
		}
		deltaRpz, err = deltaRpz.Mul(gf.PriceAdjustment)
		if err != nil {
			return err
		}
		gf.AccumulatedRPZ, err = gf.AccumulatedRPZ.Add(deltaRpz)
		if err != nil {
			return err
		}
		distributed, err := deltaRpz.MulInt(gf.TotalSharesZ)
		if err != nil {
			return err
		}
		remaining := new(big.Int).Sub(gf.AccumulatedRewards, distributed)
		if remaining.Sign() < 0 {
			return ErrUnderflow
		}
		gf.AccumulatedRewards = remaining
	}

	gf.UpdatedAtPeriod = now
	if e.metrics != nil {
		e.metrics.EmissionPool.WithLabelValues(idLabel(uint64(gf.ID))).Set(bigToFloat(gf.AccumulatedRewards))
	}
	return nil
}

// pickupYieldFarm transfers yf's share of gf's emission since their last
// sync (§4.1 "Yield-farm pickup"). No-op beyond advancing the accumulator
// snapshot if yf has no valued shares staked.
func (e *Engine) pickupYieldFarm(gf *GlobalFarm, yf *YieldFarm) error {
	if yf.TotalValuedShares.Sign() == 0 {
		yf.AccumulatedRPZ = gf.AccumulatedRPZ
		return nil
	}

	deltaFromGlobal, err := gf.AccumulatedRPZ.Sub(yf.AccumulatedRPZ)
	if err != nil {
		return err
	}
	deltaFromGlobal, err = deltaFromGlobal.Mul(yf.Multiplier)
	if err != nil {
		return err
	}
	claimFromGlobal, err := deltaFromGlobal.MulInt(yf.TotalValuedShares)
	if err != nil {
		return err
	}

	if claimFromGlobal.Sign() > 0 {
		globalAccount := DeriveFarmAccount(FarmAccountGlobal, uint64(gf.ID))
		yieldAccount := DeriveFarmAccount(FarmAccountYield, uint64(yf.ID))
		if err := e.transactor.Transfer(gf.RewardCurrency, globalAccount, yieldAccount, claimFromGlobal); err != nil {
			return err
		}
		gf.PaidAccumulatedRewards = new(big.Int).Add(gf.PaidAccumulatedRewards, claimFromGlobal)

		perShare, err := DivInt(claimFromGlobal, yf.TotalValuedShares)
		if err != nil {
			return err
		}
		yf.AccumulatedRPVS, err = yf.AccumulatedRPVS.Add(perShare)
		if err != nil {
			return err
		}
	}

	yf.AccumulatedRPZ = gf.AccumulatedRPZ
	return nil
}

func idLabel(id uint64) string {
	return big.NewInt(0).SetUint64(id).String()
}

func bigToFloat(v *big.Int) float64 {
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}

// --- create / destroy global farm -----------------------------------------

// CreateGlobalFarmParams bundles the inputs to CreateGlobalFarm.
type CreateGlobalFarmParams struct {
	Owner                 crypto.Address
	TotalRewards           *big.Int
	PlannedYieldingPeriods uint64
	BlocksPerPeriod        uint64
	IncentivizedAsset      string
	RewardCurrency         string
	YieldPerPeriod         FixedU128
	MinDeposit             *big.Int
	PriceAdjustment        FixedU128
	BlockNumber            uint64
}

// CreateGlobalFarm allocates a new reward budget and pulls TotalRewards
// from Owner into the farm's deterministic account.
func (e *Engine) CreateGlobalFarm(p CreateGlobalFarmParams) (GlobalFarmID, *big.Int, error) {
	if p.PlannedYieldingPeriods < MinPlannedYieldingPeriods {
		return 0, nil, ErrInvalidPeriod
	}
	if p.BlocksPerPeriod < 1 {
		return 0, nil, ErrInvalidPeriod
	}
	if p.YieldPerPeriod.IsZero() {
		return 0, nil, ErrInvalidAmount
	}
	if p.MinDeposit == nil || p.MinDeposit.Cmp(MinMinDeposit) < 0 {
		return 0, nil, ErrInvalidMinDeposit
	}
	if p.PriceAdjustment.IsZero() {
		return 0, nil, ErrInvalidPriceAdjustment
	}
	if p.TotalRewards == nil || p.TotalRewards.Sign() <= 0 {
		return 0, nil, ErrInvalidAmount
	}

	plannedPeriods := new(big.Int).SetUint64(p.PlannedYieldingPeriods)
	minSufficient := new(big.Int).Mul(plannedPeriods, p.MinDeposit)
	minSufficient, err := p.YieldPerPeriod.MulInt(minSufficient)
	if err != nil {
		return 0, nil, err
	}
	if p.TotalRewards.Cmp(minSufficient) < 0 {
		return 0, nil, ErrInvalidAmount
	}

	id, err := e.store.NextGlobalFarmID()
	if err != nil {
		return 0, nil, err
	}

	maxRewardPerPeriod := new(big.Int).Quo(p.TotalRewards, plannedPeriods)

	account := DeriveFarmAccount(FarmAccountGlobal, uint64(id))
	if err := e.transactor.EnsureCanWithdraw(p.RewardCurrency, p.Owner, p.TotalRewards); err != nil {
		return 0, nil, err
	}
	if err := e.transactor.Transfer(p.RewardCurrency, p.Owner, account, p.TotalRewards); err != nil {
		return 0, nil, err
	}

	gf := &GlobalFarm{
		ID:                     id,
		Owner:                  p.Owner.String(),
		RewardCurrency:         p.RewardCurrency,
		IncentivizedAsset:      p.IncentivizedAsset,
		YieldPerPeriod:         p.YieldPerPeriod,
		MaxRewardPerPeriod:     maxRewardPerPeriod,
		BlocksPerPeriod:        p.BlocksPerPeriod,
		PlannedYieldingPeriods: p.PlannedYieldingPeriods,
		MinDeposit:             new(big.Int).Set(p.MinDeposit),
		PriceAdjustment:        p.PriceAdjustment,
		TotalSharesZ:           big.NewInt(0),
		AccumulatedRPZ:         ZeroFixed(),
		AccumulatedRewards:     big.NewInt(0),
		PaidAccumulatedRewards: big.NewInt(0),
		UpdatedAtPeriod:        PeriodOf(p.BlockNumber, p.BlocksPerPeriod),
		State:                  GlobalFarmActive,
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return 0, nil, err
	}

	e.emit(events.GlobalFarmCreated{
		GlobalFarmID:       uint64(id),
		Owner:              gf.Owner,
		RewardCurrency:     gf.RewardCurrency,
		IncentivizedAsset:  gf.IncentivizedAsset,
		TotalRewards:       p.TotalRewards,
		MaxRewardPerPeriod: maxRewardPerPeriod,
	})
	return id, maxRewardPerPeriod, nil
}

// DestroyGlobalFarm marks a global farm Deleted (and flushes it if it has
// no outstanding yield farm records), returning its undistributed budget
// to Owner.
func (e *Engine) DestroyGlobalFarm(owner crypto.Address, id GlobalFarmID) (string, *big.Int, error) {
	gf, ok, err := e.store.GetGlobalFarm(id)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, ErrGlobalFarmNotFound
	}
	if gf.Owner != owner.String() {
		return "", nil, ErrForbidden
	}
	if !gf.HasNoLiveFarms() {
		return "", nil, ErrGlobalFarmHasYieldFarms
	}

	account := DeriveFarmAccount(FarmAccountGlobal, uint64(gf.ID))
	undistributed, err := e.transactor.Balance(gf.RewardCurrency, account)
	if err != nil {
		return "", nil, err
	}
	if undistributed.Sign() > 0 {
		if err := e.transactor.Transfer(gf.RewardCurrency, account, owner, undistributed); err != nil {
			return "", nil, err
		}
	}

	gf.State = GlobalFarmDeleted
	flushed := false
	if gf.CanBeFlushed() {
		if err := e.store.DeleteGlobalFarm(id); err != nil {
			return "", nil, err
		}
		flushed = true
	} else {
		if err := e.store.PutGlobalFarm(gf); err != nil {
			return "", nil, err
		}
	}

	e.emit(events.GlobalFarmDestroyed{
		GlobalFarmID:  uint64(id),
		Owner:         owner.String(),
		Undistributed: undistributed,
		Flushed:       flushed,
	})
	return gf.RewardCurrency, undistributed, nil
}

// --- create / manage yield farm -------------------------------------------

// CreateYieldFarmParams bundles the inputs to CreateYieldFarm.
type CreateYieldFarmParams struct {
	Owner        crypto.Address
	GlobalFarmID GlobalFarmID
	Multiplier   FixedU128
	Loyalty      *LoyaltyCurve
	AmmPoolID    AmmPoolID
	AssetPair    [2]string
	BlockNumber  uint64
}

// CreateYieldFarm attaches a new pool-scoped distribution bucket to an
// Active global farm.
func (e *Engine) CreateYieldFarm(p CreateYieldFarmParams) (YieldFarmID, error) {
	gf, ok, err := e.store.GetGlobalFarm(p.GlobalFarmID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrGlobalFarmNotFound
	}
	if gf.Owner != p.Owner.String() {
		return 0, ErrForbidden
	}
	if gf.State != GlobalFarmActive {
		return 0, ErrGlobalFarmNotActive
	}
	if p.Multiplier.IsZero() {
		return 0, ErrInvalidMultiplier
	}
	if p.Loyalty != nil {
		if p.Loyalty.ScaleCoef < 1 {
			return 0, ErrInvalidLoyaltyCurve
		}
		oneFixed := OneFixed()
		if p.Loyalty.InitialRewardPercentage.Raw().Cmp(oneFixed.Raw()) >= 0 {
			return 0, ErrInvalidLoyaltyCurve
		}
	}
	found := false
	for _, asset := range p.AssetPair {
		if asset == gf.IncentivizedAsset {
			found = true
		}
	}
	if !found {
		return 0, ErrAmmPoolMismatch
	}
	if _, exists, err := e.store.FindActiveYieldFarm(p.AmmPoolID, p.GlobalFarmID); err != nil {
		return 0, err
	} else if exists {
		return 0, ErrFarmEntryAlreadyExists
	}

	now := PeriodOf(p.BlockNumber, gf.BlocksPerPeriod)
	if err := e.syncGlobalFarm(gf, now); err != nil {
		return 0, err
	}

	id, err := e.store.NextYieldFarmID()
	if err != nil {
		return 0, err
	}
	yf := &YieldFarm{
		ID:                id,
		GlobalFarmID:      p.GlobalFarmID,
		AmmPoolID:         p.AmmPoolID,
		Multiplier:        p.Multiplier,
		Loyalty:           p.Loyalty,
		TotalShares:       big.NewInt(0),
		TotalValuedShares: big.NewInt(0),
		AccumulatedRPVS:   ZeroFixed(),
		AccumulatedRPZ:    gf.AccumulatedRPZ,
		UpdatedAtPeriod:   now,
		State:             YieldFarmActive,
	}
	gf.YieldFarmAdded()

	if err := e.store.PutYieldFarm(yf); err != nil {
		return 0, err
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return 0, err
	}

	e.emit(events.YieldFarmCreated{
		YieldFarmID:  uint64(id),
		GlobalFarmID: uint64(p.GlobalFarmID),
		AmmPoolID:    string(p.AmmPoolID),
		Multiplier:   p.Multiplier.Raw().String(),
	})
	return id, nil
}

// UpdateYieldFarmMultiplier changes an Active yield farm's multiplier,
// adjusting the parent's TotalSharesZ by the delta.
func (e *Engine) UpdateYieldFarmMultiplier(owner crypto.Address, globalFarmID GlobalFarmID, poolID AmmPoolID, newMultiplier FixedU128, blockNumber uint64) (YieldFarmID, error) {
	if newMultiplier.IsZero() {
		return 0, ErrInvalidMultiplier
	}
	gf, yf, err := e.loadOwnedPair(owner, globalFarmID, poolID)
	if err != nil {
		return 0, err
	}
	if yf.State != YieldFarmActive {
		return 0, ErrYieldFarmNotActive
	}

	now := PeriodOf(blockNumber, gf.BlocksPerPeriod)
	if err := e.syncGlobalFarm(gf, now); err != nil {
		return 0, err
	}
	if err := e.pickupYieldFarm(gf, yf); err != nil {
		return 0, err
	}

	oldContribution, err := yf.sharesZContribution()
	if err != nil {
		return 0, err
	}
	yf.Multiplier = newMultiplier
	newContribution, err := yf.sharesZContribution()
	if err != nil {
		return 0, err
	}
	if err := addToTotalSharesZ(gf, new(big.Int).Sub(newContribution, oldContribution)); err != nil {
		return 0, err
	}
	yf.UpdatedAtPeriod = now

	if err := e.store.PutYieldFarm(yf); err != nil {
		return 0, err
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return 0, err
	}
	return yf.ID, nil
}

func (e *Engine) loadOwnedPair(owner crypto.Address, globalFarmID GlobalFarmID, poolID AmmPoolID) (*GlobalFarm, *YieldFarm, error) {
	gf, ok, err := e.store.GetGlobalFarm(globalFarmID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrGlobalFarmNotFound
	}
	if gf.Owner != owner.String() {
		return nil, nil, ErrForbidden
	}
	yf, ok, err := e.store.FindActiveYieldFarm(poolID, globalFarmID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrYieldFarmNotFound
	}
	return gf, yf, nil
}

// StopYieldFarm halts further emission pickup for an Active yield farm.
func (e *Engine) StopYieldFarm(owner crypto.Address, globalFarmID GlobalFarmID, poolID AmmPoolID, blockNumber uint64) (YieldFarmID, error) {
	gf, yf, err := e.loadOwnedPair(owner, globalFarmID, poolID)
	if err != nil {
		return 0, err
	}
	if yf.State == YieldFarmStopped {
		return 0, ErrYieldFarmAlreadyStopped
	}

	now := PeriodOf(blockNumber, gf.BlocksPerPeriod)
	if err := e.syncGlobalFarm(gf, now); err != nil {
		return 0, err
	}
	if err := e.pickupYieldFarm(gf, yf); err != nil {
		return 0, err
	}

	contribution, err := yf.sharesZContribution()
	if err != nil {
		return 0, err
	}
	if err := yf.Stop(); err != nil {
		return 0, err
	}
	if err := addToTotalSharesZ(gf, new(big.Int).Neg(contribution)); err != nil {
		return 0, err
	}
	yf.UpdatedAtPeriod = now

	if err := e.store.PutYieldFarm(yf); err != nil {
		return 0, err
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return 0, err
	}
	e.emit(events.YieldFarmStopped{YieldFarmID: uint64(yf.ID), GlobalFarmID: uint64(globalFarmID)})
	return yf.ID, nil
}

// ResumeYieldFarm restores emission pickup to a Stopped yield farm with a
// new multiplier, resetting its accumulator snapshot so the stopped
// interval is never retroactively paid.
func (e *Engine) ResumeYieldFarm(owner crypto.Address, globalFarmID GlobalFarmID, yieldFarmID YieldFarmID, newMultiplier FixedU128, blockNumber uint64) error {
	gf, ok, err := e.store.GetGlobalFarm(globalFarmID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGlobalFarmNotFound
	}
	if gf.Owner != owner.String() {
		return ErrForbidden
	}
	yf, ok, err := e.store.GetYieldFarm(yieldFarmID)
	if err != nil {
		return err
	}
	if !ok || yf.GlobalFarmID != globalFarmID {
		return ErrYieldFarmNotFound
	}

	now := PeriodOf(blockNumber, gf.BlocksPerPeriod)
	if err := e.syncGlobalFarm(gf, now); err != nil {
		return err
	}
	if err := yf.Resume(newMultiplier); err != nil {
		return err
	}
	yf.AccumulatedRPZ = gf.AccumulatedRPZ
	yf.UpdatedAtPeriod = now

	contribution, err := yf.sharesZContribution()
	if err != nil {
		return err
	}
	if err := addToTotalSharesZ(gf, contribution); err != nil {
		return err
	}

	if err := e.store.PutYieldFarm(yf); err != nil {
		return err
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return err
	}
	e.emit(events.YieldFarmResumed{YieldFarmID: uint64(yf.ID), GlobalFarmID: uint64(globalFarmID), Multiplier: newMultiplier.Raw().String()})
	return nil
}

// DestroyYieldFarm marks a Stopped yield farm Deleted, flushing it
// immediately if it already has no deposit entries.
func (e *Engine) DestroyYieldFarm(owner crypto.Address, globalFarmID GlobalFarmID, yieldFarmID YieldFarmID) error {
	gf, ok, err := e.store.GetGlobalFarm(globalFarmID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrGlobalFarmNotFound
	}
	if gf.Owner != owner.String() {
		return ErrForbidden
	}
	yf, ok, err := e.store.GetYieldFarm(yieldFarmID)
	if err != nil {
		return err
	}
	if !ok || yf.GlobalFarmID != globalFarmID {
		return ErrYieldFarmNotFound
	}
	if err := yf.Destroy(); err != nil {
		return err
	}
	gf.YieldFarmDestroyed()

	if yf.CanBeFlushed() {
		if err := e.store.DeleteYieldFarm(yieldFarmID); err != nil {
			return err
		}
		gf.YieldFarmFlushed()
	} else {
		if err := e.store.PutYieldFarm(yf); err != nil {
			return err
		}
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return err
	}
	e.emit(events.YieldFarmDestroyed{YieldFarmID: uint64(yieldFarmID), GlobalFarmID: uint64(globalFarmID)})
	return nil
}

// --- deposit / redeposit ---------------------------------------------------

func (e *Engine) resolveActiveYieldFarm(globalFarmID GlobalFarmID, yieldFarmID YieldFarmID, poolID AmmPoolID) (*GlobalFarm, *YieldFarm, error) {
	gf, ok, err := e.store.GetGlobalFarm(globalFarmID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrGlobalFarmNotFound
	}
	yf, ok, err := e.store.GetYieldFarm(yieldFarmID)
	if err != nil {
		return nil, nil, err
	}
	if !ok || yf.GlobalFarmID != globalFarmID {
		return nil, nil, ErrYieldFarmNotFound
	}
	if yf.AmmPoolID != poolID {
		return nil, nil, ErrAmmPoolMismatch
	}
	if yf.State != YieldFarmActive {
		return nil, nil, ErrYieldFarmNotActive
	}
	return gf, yf, nil
}

// DepositLPShares opens a brand new Deposit earning from a single yield
// farm.
func (e *Engine) DepositLPShares(globalFarmID GlobalFarmID, yieldFarmID YieldFarmID, poolID AmmPoolID, owner crypto.Address, shares *big.Int, valuation ValuationFunc, blockNumber uint64) (DepositID, error) {
	gf, yf, err := e.resolveActiveYieldFarm(globalFarmID, yieldFarmID, poolID)
	if err != nil {
		return 0, err
	}
	if shares == nil || shares.Cmp(gf.MinDeposit) < 0 {
		return 0, ErrInsufficientDeposit
	}
	valuedShares, err := valuation(gf.IncentivizedAsset, shares, poolID)
	if err != nil {
		return 0, err
	}
	if valuedShares == nil || valuedShares.Sign() <= 0 {
		return 0, ErrInsufficientDeposit
	}

	now := PeriodOf(blockNumber, gf.BlocksPerPeriod)
	if err := e.syncGlobalFarm(gf, now); err != nil {
		return 0, err
	}
	if err := e.pickupYieldFarm(gf, yf); err != nil {
		return 0, err
	}

	depositID, err := e.store.NextDepositID()
	if err != nil {
		return 0, err
	}
	entry := &YieldFarmEntry{
		GlobalFarmID:              globalFarmID,
		YieldFarmID:               yieldFarmID,
		ValuedShares:              new(big.Int).Set(valuedShares),
		AccumulatedRPVS:           yf.AccumulatedRPVS,
		AccumulatedClaimedRewards: big.NewInt(0),
		EnteredAtPeriod:           now,
		UpdatedAtPeriod:           now,
	}
	deposit := &Deposit{
		ID:        depositID,
		Owner:     owner.String(),
		AmmPoolID: poolID,
		Shares:    new(big.Int).Set(shares),
		Entries:   []*YieldFarmEntry{entry},
	}

	yf.TotalShares = new(big.Int).Add(yf.TotalShares, shares)
	yf.TotalValuedShares = new(big.Int).Add(yf.TotalValuedShares, valuedShares)
	if err := yf.EntryAdded(); err != nil {
		return 0, err
	}

	contribution, err := yf.Multiplier.MulInt(valuedShares)
	if err != nil {
		return 0, err
	}
	if err := addToTotalSharesZ(gf, contribution); err != nil {
		return 0, err
	}

	if err := e.store.PutDeposit(deposit); err != nil {
		return 0, err
	}
	if err := e.store.PutYieldFarm(yf); err != nil {
		return 0, err
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return 0, err
	}

	e.emit(events.DepositCreated{DepositID: uint64(depositID), Owner: deposit.Owner, YieldFarmID: uint64(yieldFarmID), Shares: shares})
	return depositID, nil
}

// RedepositLPShares attaches a new entry for a different yield farm to an
// existing Deposit, reusing its already-locked raw shares.
func (e *Engine) RedepositLPShares(globalFarmID GlobalFarmID, yieldFarmID YieldFarmID, depositID DepositID, valuation ValuationFunc, blockNumber uint64) (*big.Int, AmmPoolID, error) {
	deposit, ok, err := e.store.GetDeposit(depositID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrDepositNotFound
	}
	gf, yf, err := e.resolveActiveYieldFarm(globalFarmID, yieldFarmID, deposit.AmmPoolID)
	if err != nil {
		return nil, "", err
	}
	if deposit.EntryFor(yieldFarmID) != nil {
		return nil, "", ErrFarmEntryAlreadyExists
	}

	valuedShares, err := valuation(gf.IncentivizedAsset, deposit.Shares, deposit.AmmPoolID)
	if err != nil {
		return nil, "", err
	}
	if valuedShares == nil || valuedShares.Sign() <= 0 {
		return nil, "", ErrInsufficientDeposit
	}

	now := PeriodOf(blockNumber, gf.BlocksPerPeriod)
	if err := e.syncGlobalFarm(gf, now); err != nil {
		return nil, "", err
	}
	if err := e.pickupYieldFarm(gf, yf); err != nil {
		return nil, "", err
	}

	entry := &YieldFarmEntry{
		GlobalFarmID:              globalFarmID,
		YieldFarmID:               yieldFarmID,
		ValuedShares:              new(big.Int).Set(valuedShares),
		AccumulatedRPVS:           yf.AccumulatedRPVS,
		AccumulatedClaimedRewards: big.NewInt(0),
		EnteredAtPeriod:           now,
		UpdatedAtPeriod:           now,
	}
	if err := deposit.AddEntry(entry, MaxFarmEntriesPerDeposit); err != nil {
		return nil, "", err
	}

	yf.TotalShares = new(big.Int).Add(yf.TotalShares, deposit.Shares)
	yf.TotalValuedShares = new(big.Int).Add(yf.TotalValuedShares, valuedShares)
	if err := yf.EntryAdded(); err != nil {
		return nil, "", err
	}

	contribution, err := yf.Multiplier.MulInt(valuedShares)
	if err != nil {
		return nil, "", err
	}
	if err := addToTotalSharesZ(gf, contribution); err != nil {
		return nil, "", err
	}

	if err := e.store.PutDeposit(deposit); err != nil {
		return nil, "", err
	}
	if err := e.store.PutYieldFarm(yf); err != nil {
		return nil, "", err
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return nil, "", err
	}

	e.emit(events.DepositCreated{DepositID: uint64(depositID), Owner: deposit.Owner, YieldFarmID: uint64(yieldFarmID), Shares: deposit.Shares})
	return deposit.Shares, deposit.AmmPoolID, nil
}

// --- claim ------------------------------------------------------------------

func computeSplit(yf *YieldFarm, entry *YieldFarmEntry, now Period) (claimable, unclaimable *big.Int, err error) {
	delta, err := yf.AccumulatedRPVS.Sub(entry.AccumulatedRPVS)
	if err != nil {
		return nil, nil, err
	}
	earned, err := delta.MulInt(entry.ValuedShares)
	if err != nil {
		return nil, nil, err
	}
	gross := new(big.Int).Sub(earned, entry.AccumulatedClaimedRewards)
	if gross.Sign() < 0 {
		gross = big.NewInt(0)
	}
	periodsStaked := uint64(now - entry.EnteredAtPeriod)
	return yf.Loyalty.Split(gross, periodsStaked)
}

// ClaimRewards realises a deposit entry's pending reward, net of the
// loyalty curve. If the entry was already updated this period,
// failOnDoubleClaim controls whether this is an error or a zero-effect
// informational call.
func (e *Engine) ClaimRewards(account crypto.Address, depositID DepositID, yieldFarmID YieldFarmID, failOnDoubleClaim bool, blockNumber uint64) (GlobalFarmID, string, *big.Int, *big.Int, error) {
	deposit, ok, err := e.store.GetDeposit(depositID)
	if err != nil {
		return 0, "", nil, nil, err
	}
	if !ok {
		return 0, "", nil, nil, ErrDepositNotFound
	}
	entry := deposit.EntryFor(yieldFarmID)
	if entry == nil {
		return 0, "", nil, nil, ErrFarmEntryNotFound
	}

	yf, ok, err := e.store.GetYieldFarm(yieldFarmID)
	if err != nil {
		return 0, "", nil, nil, err
	}
	if !ok {
		return 0, "", nil, nil, ErrYieldFarmNotFound
	}
	if yf.State == YieldFarmDeleted {
		return 0, "", nil, nil, ErrYieldFarmNotFound
	}

	gf, ok, err := e.store.GetGlobalFarm(entry.GlobalFarmID)
	if err != nil {
		return 0, "", nil, nil, err
	}
	if !ok {
		return 0, "", nil, nil, ErrGlobalFarmNotFound
	}

	now := PeriodOf(blockNumber, gf.BlocksPerPeriod)
	if entry.UpdatedAtPeriod == now {
		if failOnDoubleClaim {
			return 0, "", nil, nil, ErrDoubleClaimInPeriod
		}
		_, unclaimable, err := computeSplit(yf, entry, now)
		if err != nil {
			return 0, "", nil, nil, err
		}
		if e.metrics != nil {
			e.metrics.ClaimsTotal.WithLabelValues("double_claim").Inc()
		}
		return entry.GlobalFarmID, gf.RewardCurrency, big.NewInt(0), unclaimable, nil
	}

	if yf.State == YieldFarmActive {
		if err := e.syncGlobalFarm(gf, now); err != nil {
			return 0, "", nil, nil, err
		}
		if err := e.pickupYieldFarm(gf, yf); err != nil {
			return 0, "", nil, nil, err
		}
	}

	claimable, unclaimable, err := computeSplit(yf, entry, now)
	if err != nil {
		return 0, "", nil, nil, err
	}

	if claimable.Sign() > 0 {
		yieldAccount := DeriveFarmAccount(FarmAccountYield, uint64(yf.ID))
		if err := e.transactor.Transfer(gf.RewardCurrency, yieldAccount, account, claimable); err != nil {
			return 0, "", nil, nil, err
		}
	}
	entry.AccumulatedClaimedRewards = new(big.Int).Add(entry.AccumulatedClaimedRewards, claimable)
	entry.UpdatedAtPeriod = now

	if err := e.store.PutDeposit(deposit); err != nil {
		return 0, "", nil, nil, err
	}
	if err := e.store.PutYieldFarm(yf); err != nil {
		return 0, "", nil, nil, err
	}
	if err := e.store.PutGlobalFarm(gf); err != nil {
		return 0, "", nil, nil, err
	}

	if e.metrics != nil {
		e.metrics.ClaimsTotal.WithLabelValues("claimed").Inc()
		e.metrics.RewardsPaid.WithLabelValues(idLabel(uint64(gf.ID))).Add(bigToFloat(claimable))
		e.metrics.RoundingDust.WithLabelValues(idLabel(uint64(yf.ID))).Set(bigToFloat(unclaimable))
	}
	e.emit(events.RewardsClaimed{
		DepositID:      uint64(depositID),
		YieldFarmID:    uint64(yieldFarmID),
		GlobalFarmID:   uint64(entry.GlobalFarmID),
		Account:        account.String(),
		RewardCurrency: gf.RewardCurrency,
		Claimable:      claimable,
		Unclaimable:    unclaimable,
	})
	return entry.GlobalFarmID, gf.RewardCurrency, claimable, unclaimable, nil
}

// --- withdraw ---------------------------------------------------------------

// WithdrawLPShares removes a deposit's entry for yieldFarmID, moving the
// un-loyalty-earned portion from the yield farm's account back to its global
// farm's account and flushing any
// records that become empty as a result.
func (e *Engine) WithdrawLPShares(depositID DepositID, yieldFarmID YieldFarmID, unclaimableRewards *big.Int) (GlobalFarmID, *big.Int, bool, error) {
	deposit, ok, err := e.store.GetDeposit(depositID)
	if err != nil {
		return 0, nil, false, err
	}
	if !ok {
		return 0, nil, false, ErrDepositNotFound
	}
	entry, err := deposit.RemoveEntry(yieldFarmID)
	if err != nil {
		return 0, nil, false, err
	}

	yf, ok, err := e.store.GetYieldFarm(yieldFarmID)
	if err != nil {
		return 0, nil, false, err
	}
	if !ok {
		return 0, nil, false, ErrYieldFarmNotFound
	}
	gf, ok, err := e.store.GetGlobalFarm(entry.GlobalFarmID)
	if err != nil {
		return 0, nil, false, err
	}
	if !ok {
		return 0, nil, false, ErrGlobalFarmNotFound
	}

	yf.TotalShares = new(big.Int).Sub(yf.TotalShares, deposit.Shares)
	yf.TotalValuedShares = new(big.Int).Sub(yf.TotalValuedShares, entry.ValuedShares)
	yf.EntryRemoved()

	if yf.State == YieldFarmActive {
		contribution, err := yf.Multiplier.MulInt(entry.ValuedShares)
		if err != nil {
			return 0, nil, false, err
		}
		if err := addToTotalSharesZ(gf, new(big.Int).Neg(contribution)); err != nil {
			return 0, nil, false, err
		}
	}

	if unclaimableRewards != nil && unclaimableRewards.Sign() > 0 {
		yieldAccount := DeriveFarmAccount(FarmAccountYield, uint64(yf.ID))
		globalAccount := DeriveFarmAccount(FarmAccountGlobal, uint64(gf.ID))
		if err := e.transactor.Transfer(gf.RewardCurrency, yieldAccount, globalAccount, unclaimableRewards); err != nil {
			return 0, nil, false, err
		}
	}

	if yf.State == YieldFarmDeleted && yf.CanBeFlushed() {
		if err := e.store.DeleteYieldFarm(yieldFarmID); err != nil {
			return 0, nil, false, err
		}
		gf.YieldFarmFlushed()
	} else {
		if err := e.store.PutYieldFarm(yf); err != nil {
			return 0, nil, false, err
		}
	}

	if gf.State == GlobalFarmDeleted && gf.CanBeFlushed() {
		if err := e.store.DeleteGlobalFarm(gf.ID); err != nil {
			return 0, nil, false, err
		}
	} else {
		if err := e.store.PutGlobalFarm(gf); err != nil {
			return 0, nil, false, err
		}
	}

	depositDestroyed := deposit.CanBeFlushed()
	if depositDestroyed {
		if err := e.store.DeleteDeposit(depositID); err != nil {
			return 0, nil, false, err
		}
	} else {
		if err := e.store.PutDeposit(deposit); err != nil {
			return 0, nil, false, err
		}
	}

	e.emit(events.SharesWithdrawn{
		DepositID:       uint64(depositID),
		YieldFarmID:     uint64(yieldFarmID),
		GlobalFarmID:    uint64(entry.GlobalFarmID),
		SharesWithdrawn: deposit.Shares,
		DepositFlushed:  depositDestroyed,
	})
	return entry.GlobalFarmID, deposit.Shares, depositDestroyed, nil
}
