package ledger

import "errors"

// Operation faults. Every fault aborts the whole call with no state
// change; callers decide how to surface them.
var (
	// ErrAlreadyRegistered indicates the caller address already owns a user ID.
	ErrAlreadyRegistered = errors.New("address is already registered")
	// ErrUnknownReferrer indicates a referral to an ID that was never assigned.
	ErrUnknownReferrer = errors.New("referrer id does not exist")
	// ErrUnknownUser indicates the caller address has no user ID.
	ErrUnknownUser = errors.New("user is not registered")
	// ErrUnauthorized indicates the caller does not own the target entity.
	ErrUnauthorized = errors.New("caller is not the owner")
	// ErrInsufficientFunds indicates balance plus attached funds cannot cover the price.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientTreasury indicates the reserve cannot cover a payout.
	ErrInsufficientTreasury = errors.New("treasury cannot cover the payout")
	// ErrMaxLevelReached indicates the factory is already at the catalog's top level.
	ErrMaxLevelReached = errors.New("factory is at the maximum level")
	// ErrInvalidArgument indicates an out-of-range type, level or resource index.
	ErrInvalidArgument = errors.New("invalid argument")
)
