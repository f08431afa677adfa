package service

import "errors"

// Domain errors. All of them abort the enclosing transaction before any
// record or movement row is committed, and are safe to surface verbatim.
var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoInventory       = errors.New("no inventory record for variant at location")
	ErrOverRelease       = errors.New("release exceeds reserved stock")
	ErrSameLocation      = errors.New("transfer source and destination are the same")
	ErrMissingLocation   = errors.New("location is required")
	ErrLocationCycle     = errors.New("parent assignment would create a cycle")
	ErrLocationInUse     = errors.New("location still has child locations or inventory")
	ErrLocationNotFound  = errors.New("location not found")
	ErrVariantNotFound   = errors.New("variant not found")
)
