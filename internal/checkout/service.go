package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/n0remac/Lumeron/internal/cart"
	"github.com/n0remac/Lumeron/internal/order"
	"github.com/n0remac/Lumeron/internal/payment"
	"github.com/n0remac/Lumeron/internal/sequence"
)

// ShippingCents is the flat per-order shipping charge.
const ShippingCents = 500

type Customer struct {
	Email   string
	Name    string
	Address order.Address
}

type IntentResponse struct {
	ClientSecret string `json:"clientSecret"`
	OrderID      string `json:"orderId"`
	OrderNumber  string `json:"orderNumber"`
}

// Reconciler is the single entry point for recording payment outcomes.
type Reconciler interface {
	Reconcile(ctx context.Context, intentID string, outcome payment.Outcome) (*payment.ReconcileResult, error)
}

// Service drives checkout: it freezes the cart into a priced snapshot,
// creates the order, and opens a payment intent sized to the order total.
type Service struct {
	carts     cart.Repository
	validator *cart.Validator
	orders    order.Repository
	numbers   sequence.Allocator
	gateway   payment.Gateway
	recon     Reconciler
	logger    zerolog.Logger
}

func NewService(
	carts cart.Repository,
	validator *cart.Validator,
	orders order.Repository,
	numbers sequence.Allocator,
	gateway payment.Gateway,
	recon Reconciler,
	logger zerolog.Logger,
) *Service {
	return &Service{
		carts:     carts,
		validator: validator,
		orders:    orders,
		numbers:   numbers,
		gateway:   gateway,
		recon:     recon,
		logger:    logger,
	}
}

// CreateIntent validates the session's cart, creates a pending order with a
// freshly allocated order number, and opens a gateway intent for the total.
// If the gateway call fails the order stays pending with no intent attached;
// the client may retry checkout.
func (s *Service) CreateIntent(ctx context.Context, sessionID string, c Customer) (*IntentResponse, error) {
	lines, err := s.carts.GetLines(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	snap, err := s.validator.Validate(ctx, lines)
	if err != nil {
		return nil, err
	}

	number, err := s.numbers.NextOrderNumber(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("allocate order number: %w", err)
	}

	o := &order.Order{
		ID:              uuid.NewString(),
		OrderNumber:     number,
		Email:           c.Email,
		Name:            c.Name,
		ShippingAddress: c.Address,
		SubtotalCents:   snap.SubtotalCents,
		ShippingCents:   ShippingCents,
		TotalCents:      snap.SubtotalCents + ShippingCents,
		Status:          order.StatusPending,
	}
	for _, l := range snap.Lines {
		o.Items = append(o.Items, order.Item{
			ProductID:  l.ProductID,
			Title:      l.Title,
			Size:       l.Size,
			Finish:     l.Finish,
			Quantity:   l.Quantity,
			PriceCents: l.UnitPriceCents,
		})
	}

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.CreateIntentRequest{
		AmountCents: o.TotalCents,
		Currency:    "usd",
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("orderNumber", o.OrderNumber).Msg("intent creation failed, order left pending")
		return nil, err
	}

	if err := s.orders.AttachPaymentIntent(ctx, o.ID, intent.ID); err != nil {
		return nil, fmt.Errorf("attach payment intent: %w", err)
	}

	s.logger.Info().
		Str("orderNumber", o.OrderNumber).
		Str("intentId", intent.ID).
		Int("totalCents", o.TotalCents).
		Msg("checkout intent created")

	return &IntentResponse{
		ClientSecret: intent.ClientSecret,
		OrderID:      o.ID,
		OrderNumber:  o.OrderNumber,
	}, nil
}

// Confirm handles the client-driven success path. The claim is corroborated
// against the gateway's own record before the reconciler runs; the cart is
// cleared only after reconciliation reports the order settled.
func (s *Service) Confirm(ctx context.Context, intentID, sessionID string) (*order.Order, error) {
	intent, err := s.gateway.RetrieveIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}
	if intent.Status != payment.IntentStatusSucceeded {
		return nil, fmt.Errorf("%w: intent status %s", ErrPaymentNotCompleted, intent.Status)
	}

	res, err := s.recon.Reconcile(ctx, intentID, payment.OutcomeSucceeded)
	if err != nil {
		return nil, err
	}

	if sessionID != "" {
		if err := s.carts.Clear(ctx, sessionID); err != nil {
			s.logger.Warn().Err(err).Str("orderNumber", res.OrderNumber).Msg("cart clear failed")
		}
	}

	return s.orders.GetByID(ctx, res.OrderID)
}
