package payment

import (
	"context"
	"errors"
)

// ErrGateway wraps network or gateway-side failures. Callers treat it as
// retryable and must never assume the payment went through.
var ErrGateway = errors.New("payment gateway error")

type IntentStatus string

const (
	IntentStatusRequiresPayment IntentStatus = "requires_payment_method"
	IntentStatusProcessing      IntentStatus = "processing"
	IntentStatusSucceeded       IntentStatus = "succeeded"
	IntentStatusCanceled        IntentStatus = "canceled"
)

// Intent is the gateway's handle for an in-progress payment, correlated 1:1
// with an order.
type Intent struct {
	ID           string
	ClientSecret string
	Status       IntentStatus
	LastError    string
}

type CreateIntentRequest struct {
	AmountCents int
	Currency    string
	OrderID     string
	OrderNumber string
}

// Gateway is the external payment collaborator. The client-confirmation path
// uses RetrieveIntent to corroborate success before reconciling; a client's
// bare claim is never trusted.
type Gateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}
