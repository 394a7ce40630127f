package common

import "errors"

var (
	// ErrNotFound indicates the requested row exists neither locally nor remotely.
	ErrNotFound = errors.New("record not found")
	// ErrRemoteUnavailable covers every transport-level failure of the remote API.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrValidation indicates a malformed write request. Never recovered locally.
	ErrValidation = errors.New("validation failed")
	// ErrNoCurrentUser is returned for owner-scoped reads when nobody is signed in.
	ErrNoCurrentUser = errors.New("no current user")
	// ErrIllegalTransition is returned for a draft status change the state machine forbids.
	ErrIllegalTransition = errors.New("illegal draft transition")
)
