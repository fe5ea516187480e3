package types

import (
	"errors"
	"fmt"
)

// ErrKind tags an error with the taxonomy category from the protocol's
// error-handling design so callers can branch on class without string
// matching (authorization vs. input validation vs. state).
type ErrKind uint8

const (
	ErrKindAuthorization ErrKind = iota
	ErrKindValidation
	ErrKindState
)

// CodedError wraps a sentinel error with its taxonomy kind. Exported
// operations in validator, factory, and governance report their own checks
// with the sentinels below; errors from the token ledger and the signature
// oracle are passed back to the caller unchanged.
type CodedError struct {
	Kind ErrKind
	Err  error
}

func (c *CodedError) Error() string { return c.Err.Error() }
func (c *CodedError) Unwrap() error { return c.Err }

func coded(kind ErrKind, msg string) error {
	return &CodedError{Kind: kind, Err: errors.New(msg)}
}

// Authorization errors.
var (
	ErrNotAdmin              = coded(ErrKindAuthorization, "not admin")
	ErrNotOwner              = coded(ErrKindAuthorization, "not owner")
	ErrNotPauser             = coded(ErrKindAuthorization, "not pauser")
	ErrNotGovernance         = coded(ErrKindAuthorization, "not governance")
	ErrNotValidator          = coded(ErrKindAuthorization, "not the expected master validator")
	ErrNotRegisteredValidator = coded(ErrKindAuthorization, "not a registered validator")
	ErrNotValidValidator     = coded(ErrKindAuthorization, "not a valid validator")
)

// Input-validation errors.
var (
	ErrZeroAddress             = coded(ErrKindValidation, "zero address")
	ErrZeroAmount              = coded(ErrKindValidation, "zero amount")
	ErrWrongDuration           = coded(ErrKindValidation, "wrong duration")
	ErrWrongFee                = coded(ErrKindValidation, "wrong fee")
	ErrWrongTime               = coded(ErrKindValidation, "wrong time")
	ErrWrongBoostTime          = coded(ErrKindValidation, "wrong boost time")
	ErrQualityWrong            = coded(ErrKindValidation, "quality wrong")
	ErrInvalidWeight           = coded(ErrKindValidation, "invalid weight")
	ErrInvalidTotalReward      = coded(ErrKindValidation, "invalid total reward")
	ErrInvalidTimePeriod       = coded(ErrKindValidation, "invalid time period")
	ErrNoSuchOption            = coded(ErrKindValidation, "no such option")
	ErrPageOutOfBounds         = coded(ErrKindValidation, "page out of bounds")
	ErrInsufficientAmount      = coded(ErrKindValidation, "insufficient amount")
	ErrInsufficientNPPoint     = coded(ErrKindValidation, "insufficient np point")
	ErrInsufficientLockAmount  = coded(ErrKindValidation, "insufficient lock amount")
	ErrGreaterThanMaxTime      = coded(ErrKindValidation, "greater than max time")
	ErrFeeTooHigh              = coded(ErrKindValidation, "fee too high")
	ErrZeroFee                 = coded(ErrKindValidation, "zero fee")
	ErrZeroVelrds              = coded(ErrKindValidation, "zero voting power")
)

// State errors.
var (
	ErrFactoryAlreadySet          = coded(ErrKindState, "factory already set")
	ErrAlreadyLocked              = coded(ErrKindState, "already locked")
	ErrNoLockCreated              = coded(ErrKindState, "no lock created")
	ErrNoStakeFound               = coded(ErrKindState, "no stake found")
	ErrTimeNotUp                  = coded(ErrKindState, "time not up")
	ErrLockTimeExceeded           = coded(ErrKindState, "lock time exceeded")
	ErrAutoMaxTime                = coded(ErrKindState, "auto max time")
	ErrAutoMaxNotEnabled          = coded(ErrKindState, "auto max not enabled")
	ErrTheSameValue               = coded(ErrKindState, "the same value")
	ErrContractPaused             = coded(ErrKindState, "contract paused")
	ErrStateUnchanged             = coded(ErrKindState, "state unchanged")
	ErrRewardPeriodNotActive      = coded(ErrKindState, "reward period not active")
	ErrStartTimeNotInFuture       = coded(ErrKindState, "start time not in future")
	ErrEndTimeBeforeStartTime     = coded(ErrKindState, "end time before start time")
	ErrStartTimeNotAsExpected     = coded(ErrKindState, "start time not as expected")
	ErrSignatureExpired           = coded(ErrKindState, "signature expired")
	ErrVerificationFailed         = coded(ErrKindState, "verification failed")
	ErrValidatorIsClaimed         = coded(ErrKindState, "validator is claimed")
	ErrAlreadyPurchasedThisQuality = coded(ErrKindState, "already purchased this quality")
	ErrProposalHasStakedVotes     = coded(ErrKindState, "proposal has staked votes")
	ErrUserIsVoted                = coded(ErrKindState, "user already voted")
	ErrUserIsNotVoted             = coded(ErrKindState, "user has not voted")
	ErrWrongStatus                = coded(ErrKindState, "wrong status")
	ErrVotingNotOpen              = coded(ErrKindState, "voting not open")
	ErrRewardAlreadyClaimed       = coded(ErrKindState, "reward already claimed")
	ErrRewardDistributionNotAllowed = coded(ErrKindState, "reward distribution not allowed")
	ErrNoVotes                    = coded(ErrKindState, "no votes")
	ErrRewardIsZero               = coded(ErrKindState, "reward is zero")
	ErrTimeIsNotUp                = coded(ErrKindState, "time is not up")
	ErrNoReward                   = coded(ErrKindState, "no reward")
	ErrInvalidBoostReward         = coded(ErrKindState, "invalid boost reward")
	ErrNotEnoughAmount            = coded(ErrKindState, "not enough amount")
	ErrNotEnoughWallet            = coded(ErrKindState, "not enough wallet")
	ErrNotEnoughStakeToken        = coded(ErrKindState, "not enough stake token")
	ErrNotEnoughRewardToken       = coded(ErrKindState, "not enough reward token")
)

// Wrap adds call-site context to a sentinel error while preserving
// errors.Is/errors.As compatibility with the sentinel.
func Wrap(err error, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
