package services

import "errors"

var (
	ErrActivityNotFound    = errors.New("activity not found")
	ErrInscriptionNotFound = errors.New("inscription not found")
	ErrCapacityExceeded    = errors.New("activity is full")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrInvalidScope        = errors.New("invalid leaderboard scope")
	ErrTokenInvalid        = errors.New("check-in token invalid or expired")

	// ErrMalformedRecord never leaves the catalog; listing paths log and skip the row.
	ErrMalformedRecord = errors.New("malformed activity record")
)
