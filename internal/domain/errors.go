package domain

import "errors"

var (
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidPlayer  = errors.New("player number is invalid")
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadPayload     = errors.New("bad payload")
	ErrUserNotFound   = errors.New("user not found")
	ErrBadUser        = errors.New("user is missing id or login")
	ErrRoomClosed     = errors.New("room closed")
)

// Kick reasons sent to connections on eviction.
const (
	KickForbidden        = "forbidden"
	KickConcurrencyLimit = "concurrency_limit"
)
