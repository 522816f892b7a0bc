package events

import (
	"math/big"
	"strconv"

	"github.com/galacticcouncil/warehouse/core/types"
)

const (
	TypeGlobalFarmCreated   = "farming.globalFarmCreated"
	TypeGlobalFarmDestroyed = "farming.globalFarmDestroyed"
	TypeYieldFarmCreated    = "farming.yieldFarmCreated"
	TypeYieldFarmStopped    = "farming.yieldFarmStopped"
	TypeYieldFarmResumed    = "farming.yieldFarmResumed"
	TypeYieldFarmDestroyed  = "farming.yieldFarmDestroyed"
	TypeDepositCreated      = "farming.depositCreated"
	TypeRewardsClaimed      = "farming.rewardsClaimed"
	TypeSharesWithdrawn     = "farming.sharesWithdrawn"
)

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// GlobalFarmCreated is emitted when a new reward budget is allocated.
type GlobalFarmCreated struct {
	GlobalFarmID       uint64
	Owner              string
	RewardCurrency     string
	IncentivizedAsset  string
	TotalRewards       *big.Int
	MaxRewardPerPeriod *big.Int
}

func (GlobalFarmCreated) EventType() string { return TypeGlobalFarmCreated }

func (e GlobalFarmCreated) Event() *types.Event {
	return &types.Event{Type: TypeGlobalFarmCreated, Attributes: map[string]string{
		"globalFarmId":       strconv.FormatUint(e.GlobalFarmID, 10),
		"owner":              e.Owner,
		"rewardCurrency":     normalizeAsset(e.RewardCurrency),
		"incentivizedAsset":  normalizeAsset(e.IncentivizedAsset),
		"totalRewards":       formatAmount(e.TotalRewards),
		"maxRewardPerPeriod": formatAmount(e.MaxRewardPerPeriod),
	}}
}

// GlobalFarmDestroyed is emitted once a global farm is marked Deleted (and
// possibly flushed) and its undistributed budget returned to the owner.
type GlobalFarmDestroyed struct {
	GlobalFarmID  uint64
	Owner         string
	Undistributed *big.Int
	Flushed       bool
}

func (GlobalFarmDestroyed) EventType() string { return TypeGlobalFarmDestroyed }

func (e GlobalFarmDestroyed) Event() *types.Event {
	return &types.Event{Type: TypeGlobalFarmDestroyed, Attributes: map[string]string{
		"globalFarmId":  strconv.FormatUint(e.GlobalFarmID, 10),
		"owner":         e.Owner,
		"undistributed": formatAmount(e.Undistributed),
		"flushed":       strconv.FormatBool(e.Flushed),
	}}
}

// YieldFarmCreated is emitted when a pool-scoped distribution bucket is
// attached to a global farm.
type YieldFarmCreated struct {
	YieldFarmID  uint64
	GlobalFarmID uint64
	AmmPoolID    string
	Multiplier   string
}

func (YieldFarmCreated) EventType() string { return TypeYieldFarmCreated }

func (e YieldFarmCreated) Event() *types.Event {
	return &types.Event{Type: TypeYieldFarmCreated, Attributes: map[string]string{
		"yieldFarmId":  strconv.FormatUint(e.YieldFarmID, 10),
		"globalFarmId": strconv.FormatUint(e.GlobalFarmID, 10),
		"ammPoolId":    e.AmmPoolID,
		"multiplier":   e.Multiplier,
	}}
}

// YieldFarmStopped is emitted when an owner halts further emission pickup
// for a yield farm.
type YieldFarmStopped struct {
	YieldFarmID  uint64
	GlobalFarmID uint64
}

func (YieldFarmStopped) EventType() string { return TypeYieldFarmStopped }

func (e YieldFarmStopped) Event() *types.Event {
	return &types.Event{Type: TypeYieldFarmStopped, Attributes: map[string]string{
		"yieldFarmId":  strconv.FormatUint(e.YieldFarmID, 10),
		"globalFarmId": strconv.FormatUint(e.GlobalFarmID, 10),
	}}
}

// YieldFarmResumed is emitted when a stopped yield farm resumes emission
// pickup with a (possibly new) multiplier.
type YieldFarmResumed struct {
	YieldFarmID  uint64
	GlobalFarmID uint64
	Multiplier   string
}

func (YieldFarmResumed) EventType() string { return TypeYieldFarmResumed }

func (e YieldFarmResumed) Event() *types.Event {
	return &types.Event{Type: TypeYieldFarmResumed, Attributes: map[string]string{
		"yieldFarmId":  strconv.FormatUint(e.YieldFarmID, 10),
		"globalFarmId": strconv.FormatUint(e.GlobalFarmID, 10),
		"multiplier":   e.Multiplier,
	}}
}

// YieldFarmDestroyed is emitted when a stopped yield farm is marked
// Deleted by its owner.
type YieldFarmDestroyed struct {
	YieldFarmID  uint64
	GlobalFarmID uint64
}

func (YieldFarmDestroyed) EventType() string { return TypeYieldFarmDestroyed }

func (e YieldFarmDestroyed) Event() *types.Event {
	return &types.Event{Type: TypeYieldFarmDestroyed, Attributes: map[string]string{
		"yieldFarmId":  strconv.FormatUint(e.YieldFarmID, 10),
		"globalFarmId": strconv.FormatUint(e.GlobalFarmID, 10),
	}}
}

// DepositCreated is emitted when a new LP position starts earning from a
// yield farm for the first time.
type DepositCreated struct {
	DepositID   uint64
	Owner       string
	YieldFarmID uint64
	Shares      *big.Int
}

func (DepositCreated) EventType() string { return TypeDepositCreated }

func (e DepositCreated) Event() *types.Event {
	return &types.Event{Type: TypeDepositCreated, Attributes: map[string]string{
		"depositId":   strconv.FormatUint(e.DepositID, 10),
		"owner":       e.Owner,
		"yieldFarmId": strconv.FormatUint(e.YieldFarmID, 10),
		"shares":      formatAmount(e.Shares),
	}}
}

// RewardsClaimed is emitted on every successful claim_rewards call that
// mutates state (double-claims within a period are not re-emitted).
type RewardsClaimed struct {
	DepositID      uint64
	YieldFarmID    uint64
	GlobalFarmID   uint64
	Account        string
	RewardCurrency string
	Claimable      *big.Int
	Unclaimable    *big.Int
}

func (RewardsClaimed) EventType() string { return TypeRewardsClaimed }

func (e RewardsClaimed) Event() *types.Event {
	return &types.Event{Type: TypeRewardsClaimed, Attributes: map[string]string{
		"depositId":      strconv.FormatUint(e.DepositID, 10),
		"yieldFarmId":    strconv.FormatUint(e.YieldFarmID, 10),
		"globalFarmId":   strconv.FormatUint(e.GlobalFarmID, 10),
		"account":        e.Account,
		"rewardCurrency": normalizeAsset(e.RewardCurrency),
		"claimable":      formatAmount(e.Claimable),
		"unclaimable":    formatAmount(e.Unclaimable),
	}}
}

// SharesWithdrawn is emitted when a deposit entry is removed from a yield
// farm.
type SharesWithdrawn struct {
	DepositID        uint64
	YieldFarmID      uint64
	GlobalFarmID     uint64
	SharesWithdrawn  *big.Int
	DepositFlushed   bool
}

func (SharesWithdrawn) EventType() string { return TypeSharesWithdrawn }

func (e SharesWithdrawn) Event() *types.Event {
	return &types.Event{Type: TypeSharesWithdrawn, Attributes: map[string]string{
		"depositId":       strconv.FormatUint(e.DepositID, 10),
		"yieldFarmId":     strconv.FormatUint(e.YieldFarmID, 10),
		"globalFarmId":    strconv.FormatUint(e.GlobalFarmID, 10),
		"sharesWithdrawn": formatAmount(e.SharesWithdrawn),
		"depositFlushed":  strconv.FormatBool(e.DepositFlushed),
	}}
}
