package checkout

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrPaymentNotCompleted = errors.New("payment not completed")
)
