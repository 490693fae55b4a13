package stripe_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	stripeprovider "github.com/smallbiznis/storefront/internal/providers/stripe"
)

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	signed := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signed))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyAcceptsValidSignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"id":"evt_1"}`)
	header := http.Header{}
	header.Set("Stripe-Signature", buildSignatureHeader(secret, payload, time.Now().Unix()))

	webhook := stripeprovider.NewWebhook(secret)
	if err := webhook.Verify(context.Background(), payload, header); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := http.Header{}
	header.Set("Stripe-Signature", buildSignatureHeader("whsec_other", payload, time.Now().Unix()))

	webhook := stripeprovider.NewWebhook("whsec_test")
	if err := webhook.Verify(context.Background(), payload, header); !errors.Is(err, stripeprovider.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	secret := "whsec_test"
	header := http.Header{}
	header.Set("Stripe-Signature", buildSignatureHeader(secret, []byte(`{"id":"evt_1"}`), time.Now().Unix()))

	webhook := stripeprovider.NewWebhook(secret)
	if err := webhook.Verify(context.Background(), []byte(`{"id":"evt_2"}`), header); !errors.Is(err, stripeprovider.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsMissingHeader(t *testing.T) {
	webhook := stripeprovider.NewWebhook("whsec_test")
	if err := webhook.Verify(context.Background(), []byte(`{}`), http.Header{}); !errors.Is(err, stripeprovider.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyRejectsEverythingWithoutSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	header := http.Header{}
	header.Set("Stripe-Signature", buildSignatureHeader("whsec_test", payload, time.Now().Unix()))

	webhook := stripeprovider.NewWebhook("")
	if err := webhook.Verify(context.Background(), payload, header); !errors.Is(err, stripeprovider.ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestParseCompletionEvents(t *testing.T) {
	webhook := stripeprovider.NewWebhook("whsec_test")

	for _, eventType := range []string{
		"checkout.session.completed",
		"checkout.session.async_payment_succeeded",
	} {
		payload := []byte(fmt.Sprintf(
			`{"id":"evt_1","type":%q,"data":{"object":{"id":"cs_42"}}}`, eventType,
		))
		event, err := webhook.Parse(context.Background(), payload)
		if err != nil {
			t.Fatalf("parse %s: %v", eventType, err)
		}
		if event.SessionID != "cs_42" {
			t.Fatalf("expected session cs_42, got %q", event.SessionID)
		}
		if event.Type != eventType {
			t.Fatalf("expected type %q, got %q", eventType, event.Type)
		}
	}
}

func TestParseIgnoresUnrelatedEvents(t *testing.T) {
	webhook := stripeprovider.NewWebhook("whsec_test")

	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
	if _, err := webhook.Parse(context.Background(), payload); !errors.Is(err, stripeprovider.ErrEventIgnored) {
		t.Fatalf("expected ErrEventIgnored, got %v", err)
	}
}

func TestParseRejectsMalformedPayload(t *testing.T) {
	webhook := stripeprovider.NewWebhook("whsec_test")

	if _, err := webhook.Parse(context.Background(), []byte(`{`)); !errors.Is(err, stripeprovider.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestParseRejectsEventWithoutSession(t *testing.T) {
	webhook := stripeprovider.NewWebhook("whsec_test")

	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	if _, err := webhook.Parse(context.Background(), payload); !errors.Is(err, stripeprovider.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}
