package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

// StripeGateway talks to the Stripe REST API. A circuit breaker sits in
// front of every call so a wedged gateway fails checkouts fast instead of
// tying up request handlers.
type StripeGateway struct {
	baseURL   string
	secretKey string
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker[*Intent]
}

func NewStripeGateway(baseURL, secretKey string, httpClient *http.Client) *StripeGateway {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &StripeGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      httpClient,
		breaker: gobreaker.NewCircuitBreaker[*Intent](gobreaker.Settings{
			Name:    "payment-gateway",
			Timeout: 30 * time.Second,
		}),
	}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error) {
	form := url.Values{}
	form.Set("amount", strconv.Itoa(req.AmountCents))
	form.Set("currency", req.Currency)
	form.Set("metadata[orderId]", req.OrderID)
	form.Set("metadata[orderNumber]", req.OrderNumber)
	form.Set("automatic_payment_methods[enabled]", "true")

	return g.breaker.Execute(func() (*Intent, error) {
		return g.do(ctx, http.MethodPost, "/v1/payment_intents", form)
	})
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*Intent, error) {
	return g.breaker.Execute(func() (*Intent, error) {
		return g.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil)
	})
}

type intentResponse struct {
	ID               string `json:"id"`
	ClientSecret     string `json:"client_secret"`
	Status           string `json:"status"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *StripeGateway) do(ctx context.Context, method, path string, form url.Values) (*Intent, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrGateway, err)
	}

	var ir intentResponse
	if err := json.Unmarshal(raw, &ir); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrGateway, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := "unexpected status " + resp.Status
		if ir.Error != nil && ir.Error.Message != "" {
			msg = ir.Error.Message
		}
		return nil, fmt.Errorf("%w: %s", ErrGateway, msg)
	}

	intent := &Intent{
		ID:           ir.ID,
		ClientSecret: ir.ClientSecret,
		Status:       IntentStatus(ir.Status),
	}
	if ir.LastPaymentError != nil {
		intent.LastError = ir.LastPaymentError.Message
	}
	return intent, nil
}
