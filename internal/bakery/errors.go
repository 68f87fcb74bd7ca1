package bakery

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrUnknownGood       = errors.New("unknown good")
	ErrInsufficientStock = errors.New("insufficient stock")
)
