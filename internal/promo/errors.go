package promo

import "errors"

var (
	// ErrNotFound indicates no promo code matches the lookup.
	ErrNotFound = errors.New("promo code not found")
	// ErrDuplicateCode indicates a promo code with the same code already exists.
	ErrDuplicateCode = errors.New("promo code already exists")
	// ErrRedemptionRejected indicates the code was no longer redeemable at redemption time.
	ErrRedemptionRejected = errors.New("promo code redemption rejected")
	// ErrInvalidPromo indicates an administrative payload violates the promo code invariants.
	ErrInvalidPromo = errors.New("invalid promo code")
)
