package models

import "errors"

var (
	ErrInvalidUserID     = errors.New("invalid user ID")
	ErrInvalidSKU        = errors.New("invalid SKU")
	ErrInvalidQuantity   = errors.New("quantity must not be negative")
	ErrInvalidDate       = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidSeason     = errors.New("invalid season")
	ErrInvalidFeedback   = errors.New("suggested and actual days must be positive")
	ErrSourceUnavailable = errors.New("pattern source unavailable")
)
