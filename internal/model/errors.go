package model

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrConflict             = errors.New("already exists")
	ErrSlotConflict         = errors.New("slot already taken")
	ErrIneligibleClient     = errors.New("client is not enabled for booking")
	ErrTooManyCancellations = errors.New("too many recent cancellations")
)
