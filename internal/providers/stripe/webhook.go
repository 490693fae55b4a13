package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrInvalidSignature = errors.New("invalid_signature")
	ErrInvalidPayload   = errors.New("invalid_payload")
	ErrInvalidEvent     = errors.New("invalid_event")
	ErrEventIgnored     = errors.New("event_ignored")
)

// Webhook verifies and parses Stripe webhook deliveries. Signature
// verification is the authentication mechanism for the endpoint; a missing
// configured secret means every delivery is rejected.
type Webhook struct {
	secret string
}

func NewWebhook(secret string) *Webhook {
	return &Webhook{secret: strings.TrimSpace(secret)}
}

// Verify checks the Stripe-Signature header against the shared secret.
func (w *Webhook) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	_ = ctx
	if w.secret == "" {
		return ErrInvalidSignature
	}

	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return ErrInvalidSignature
	}

	timestamp, signatures, err := parseSignatureHeader(sigHeader)
	if err != nil {
		return ErrInvalidSignature
	}

	signedPayload := fmt.Sprintf("%s.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(w.secret))
	_, _ = mac.Write([]byte(signedPayload))
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, signature := range signatures {
		if hmac.Equal([]byte(signature), []byte(expected)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

// Event is a parsed webhook delivery that should trigger fulfillment.
type Event struct {
	ID        string
	Type      string
	SessionID string
}

type webhookEvent struct {
	ID   string           `json:"id"`
	Type string           `json:"type"`
	Data webhookEventData `json:"data"`
}

type webhookEventData struct {
	Object json.RawMessage `json:"object"`
}

type webhookSessionObject struct {
	ID string `json:"id"`
}

// Parse extracts the checkout session id from completion events. Event
// types that do not represent a confirmed payment return ErrEventIgnored.
func (w *Webhook) Parse(ctx context.Context, payload []byte) (*Event, error) {
	_ = ctx
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return nil, ErrInvalidEvent
	}

	eventType := strings.TrimSpace(event.Type)
	switch eventType {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
	default:
		return nil, ErrEventIgnored
	}

	var object webhookSessionObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(object.ID) == "" {
		return nil, ErrInvalidEvent
	}

	return &Event{
		ID:        event.ID,
		Type:      eventType,
		SessionID: object.ID,
	}, nil
}

func parseSignatureHeader(header string) (string, []string, error) {
	parts := strings.Split(header, ",")
	var timestamp string
	signatures := []string{}
	for _, part := range parts {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, errors.New("invalid_signature")
	}
	return timestamp, signatures, nil
}
