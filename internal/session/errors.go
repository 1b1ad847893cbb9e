package session

import "errors"

var (
	ErrInvalidTransition    = errors.New("invalid transition")
	ErrExtensionUnavailable = errors.New("time extension unavailable")
	ErrNoBank               = errors.New("no question bank loaded")
	ErrEmptyUserName        = errors.New("user name is required")
	ErrNoCategories         = errors.New("select at least one category")
	ErrInvalidIndex         = errors.New("question index out of range")
	ErrInvalidConfig        = errors.New("invalid exam config")
)
