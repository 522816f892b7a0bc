package farming

import "errors"

// Error kinds returned by the farming engine. Kept as exported sentinels so
// callers (HTTP handlers, CLI, tests) can discriminate with errors.Is
// without string matching.
var (
	// Lookup failures.
	ErrGlobalFarmNotFound = errors.New("farming: global farm not found")
	ErrYieldFarmNotFound  = errors.New("farming: yield farm not found")
	ErrDepositNotFound    = errors.New("farming: deposit not found")
	ErrFarmEntryNotFound  = errors.New("farming: yield farm entry not found on deposit")

	// State preconditions.
	ErrGlobalFarmNotActive    = errors.New("farming: global farm is not active")
	ErrYieldFarmNotActive     = errors.New("farming: yield farm is not active")
	ErrYieldFarmNotStopped    = errors.New("farming: yield farm is not stopped")
	ErrYieldFarmAlreadyStopped = errors.New("farming: yield farm is already stopped")
	ErrYieldFarmHasStake      = errors.New("farming: yield farm still has staked shares")
	ErrGlobalFarmHasYieldFarms = errors.New("farming: global farm still has live yield farms")
	ErrFarmEntryAlreadyExists  = errors.New("farming: deposit already has an entry for this yield farm")
	ErrMaxEntriesExceeded      = errors.New("farming: deposit exceeds max yield farm entries")
	ErrNoRewardsToClaim        = errors.New("farming: nothing to claim for this entry")
	ErrAmmPoolMismatch         = errors.New("farming: amm pool id does not match yield farm")
	ErrDoubleClaimInPeriod     = errors.New("farming: entry already claimed this period")
	ErrInsufficientDeposit     = errors.New("farming: deposit below minimum or valued at zero")

	// Arithmetic.
	ErrOverflow  = errors.New("farming: arithmetic overflow")
	ErrUnderflow = errors.New("farming: arithmetic underflow")
	ErrDivByZero = errors.New("farming: division by zero")

	// Input validation.
	ErrInvalidAmount          = errors.New("farming: amount must be positive")
	ErrInvalidMultiplier      = errors.New("farming: multiplier must be positive")
	ErrInvalidPeriod          = errors.New("farming: planned yielding periods or blocks per period out of range")
	ErrInvalidMinDeposit      = errors.New("farming: min deposit below protocol floor")
	ErrInvalidPriceAdjustment = errors.New("farming: price adjustment must be positive")
	ErrInvalidLoyaltyCurve    = errors.New("farming: loyalty curve parameters out of range")

	// Transfer adapter.
	ErrInsufficientBalance = errors.New("farming: insufficient balance")
	ErrForbidden           = errors.New("farming: operation forbidden for caller")
)
