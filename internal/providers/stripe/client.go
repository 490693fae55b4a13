package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	checkoutdomain "github.com/smallbiznis/storefront/internal/checkout/domain"
	fulfillmentdomain "github.com/smallbiznis/storefront/internal/fulfillment/domain"
)

var (
	ErrInvalidConfig   = errors.New("invalid_config")
	ErrRequestFailed   = errors.New("stripe_request_failed")
	ErrInvalidResponse = errors.New("stripe_response_invalid")
)

// Client talks to the Stripe API directly over its form-encoded HTTP
// surface. No SDK: the request shapes in play are small and stable.
type Client struct {
	apiBase string
	apiKey  string
	client  *http.Client
}

func NewClient(apiBase, apiKey string) *Client {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = "https://api.stripe.com"
	}
	return &Client{
		apiBase: apiBase,
		apiKey:  strings.TrimSpace(apiKey),
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

type stripeCustomer struct {
	ID string `json:"id"`
}

type stripeCheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
	LineItems     *stripeLineItems  `json:"line_items"`
}

type stripeLineItems struct {
	Data []stripeLineItem `json:"data"`
}

type stripeLineItem struct {
	Quantity *int64 `json:"quantity"`
}

type stripeErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CreateCustomer creates a provider customer tagged with the internal user id.
func (c *Client) CreateCustomer(ctx context.Context, name, email, userID string) (string, error) {
	values := url.Values{}
	values.Set("name", name)
	values.Set("email", email)
	values.Set("metadata[userId]", userID)

	var customer stripeCustomer
	if err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, "customer:"+userID, &customer); err != nil {
		return "", err
	}
	if customer.ID == "" {
		return "", ErrInvalidResponse
	}
	return customer.ID, nil
}

// CreateCheckoutSession creates a payment-mode checkout session and returns
// its redirect URL. An empty URL in the provider response is a contract
// violation, surfaced as ErrInvalidResponse.
func (c *Client) CreateCheckoutSession(ctx context.Context, params checkoutdomain.SessionParams) (string, error) {
	values := url.Values{}
	values.Set("mode", "payment")
	values.Set("customer", params.CustomerRef)
	values.Set("line_items[0][price_data][currency]", strings.ToLower(params.Currency))
	values.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.UnitAmount, 10))
	values.Set("line_items[0][price_data][product_data][name]", params.ProductName)
	if params.ProductDescription != "" {
		values.Set("line_items[0][price_data][product_data][description]", params.ProductDescription)
	}
	values.Set("line_items[0][quantity]", "1")
	values.Set("metadata[productId]", params.ProductID)
	values.Set("metadata[userId]", params.UserID)
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)

	var session stripeCheckoutSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, "", &session); err != nil {
		return "", err
	}
	if session.ID == "" {
		return "", ErrInvalidResponse
	}
	if strings.TrimSpace(session.URL) == "" {
		return "", ErrInvalidResponse
	}
	return session.URL, nil
}

// ResolveSession fetches a checkout session by id, expanding line items.
func (c *Client) ResolveSession(ctx context.Context, sessionID string) (*fulfillmentdomain.Session, error) {
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID) + "?expand[]=line_items"

	var session stripeCheckoutSession
	if err := c.doRequest(ctx, http.MethodGet, path, nil, "", &session); err != nil {
		return nil, err
	}
	if session.ID == "" {
		return nil, ErrInvalidResponse
	}

	resolved := &fulfillmentdomain.Session{
		ID:            session.ID,
		PaymentStatus: strings.TrimSpace(session.PaymentStatus),
		ProductID:     strings.TrimSpace(session.Metadata["productId"]),
		UserID:        strings.TrimSpace(session.Metadata["userId"]),
	}
	if session.LineItems != nil && len(session.LineItems.Data) > 0 {
		if qty := session.LineItems.Data[0].Quantity; qty != nil {
			resolved.HasLineItems = true
			resolved.LineItemQuantity = *qty
		}
	}
	return resolved, nil
}

func (c *Client) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
	out any,
) error {
	if c.apiKey == "" {
		return ErrInvalidConfig
	}

	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var stripeErr stripeErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&stripeErr); err != nil {
			return ErrRequestFailed
		}
		message := strings.TrimSpace(stripeErr.Error.Message)
		if message == "" {
			return ErrRequestFailed
		}
		return errors.New(message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
