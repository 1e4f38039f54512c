package models

import "errors"

var (
	ErrInvalidFormat = errors.New("invalid format")
	ErrNotFound      = errors.New("not found")
	ErrPermDenied    = errors.New("not enough permissions to execute this action")
	ErrUnauthorized  = errors.New("unauthorized")

	// Ban lifecycle.
	ErrAlreadyBanned   = errors.New("user already has an active ban")
	ErrNoActiveBan     = errors.New("user has no active ban")
	ErrInvalidDuration = errors.New("temporary ban requires a positive duration")
	ErrSelfBan         = errors.New("moderators cannot ban themselves")

	// Report intake.
	ErrMissingTarget      = errors.New("report carries no valid target")
	ErrDuplicatePending   = errors.New("a pending report for this target already exists")
	ErrAlreadyResolved    = errors.New("report is already in a terminal state")
	ErrUnresolvableTarget = errors.New("cannot determine the author of the reported content")

	// Cascade side effects. The audit record is written before any of
	// these can occur, so they signal partial success, not failure.
	ErrBanConflict         = errors.New("ban was not applied: user already has an active ban")
	ErrNothingToLift       = errors.New("no active ban to lift")
	ErrContentDeleteFailed = errors.New("content deletion failed")
)
