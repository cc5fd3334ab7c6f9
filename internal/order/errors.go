package order

import "errors"

var (
	ErrNotFound          = errors.New("order not found")
	ErrIntentAttached    = errors.New("order already has a payment intent")
	ErrInvalidTransition = errors.New("illegal order status transition")
)
