package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrLineNotFound    = errors.New("cart line not found")
)
