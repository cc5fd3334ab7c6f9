package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature means the webhook payload could not be authenticated.
// Such deliveries are rejected without touching any state.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SignatureHeader carries the gateway's signature over the raw body,
// formatted "t=<unix>,v1=<hex hmac-sha256 of '<t>.<body>'>".
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance bounds how stale a signed timestamp may be before the
// delivery is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

type EventType string

const (
	EventPaymentSucceeded EventType = "payment_intent.succeeded"
	EventPaymentFailed    EventType = "payment_intent.payment_failed"
	EventPaymentCanceled  EventType = "payment_intent.canceled"
)

// Event is one verified gateway notification about a payment intent.
type Event struct {
	Type      EventType
	IntentID  string
	LastError string
}

// ConstructEvent verifies the signature and parses the payload. It is the
// only way webhook bytes become a trusted Event.
func ConstructEvent(payload []byte, header, secret string) (*Event, error) {
	return constructEventAt(payload, header, secret, DefaultTolerance, time.Now())
}

func constructEventAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) (*Event, error) {
	if err := verifySignatureAt(payload, header, secret, tolerance, now); err != nil {
		return nil, err
	}

	var raw struct {
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID               string `json:"id"`
				LastPaymentError *struct {
					Message string `json:"message"`
				} `json:"last_payment_error"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}
	if raw.Data.Object.ID == "" {
		return nil, fmt.Errorf("event missing intent id")
	}

	ev := &Event{
		Type:     EventType(raw.Type),
		IntentID: raw.Data.Object.ID,
	}
	if raw.Data.Object.LastPaymentError != nil {
		ev.LastError = raw.Data.Object.LastPaymentError.Message
	}
	return ev, nil
}

func verifySignatureAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	var (
		timestamp  int64
		signatures [][]byte
	)

	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(v)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > tolerance || age < -tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(sig, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignPayload produces a signature header for the given body. The fake
// gateway in tests and local tooling use it; verification uses the same
// scheme.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
