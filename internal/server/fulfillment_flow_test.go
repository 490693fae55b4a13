package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/config"
	fulfillmentdomain "github.com/smallbiznis/storefront/internal/fulfillment/domain"
	fulfillmentrepo "github.com/smallbiznis/storefront/internal/fulfillment/repository"
	fulfillmentservice "github.com/smallbiznis/storefront/internal/fulfillment/service"
	"github.com/smallbiznis/storefront/internal/locks"
	ownershiprepo "github.com/smallbiznis/storefront/internal/ownership/repository"
	ownershipservice "github.com/smallbiznis/storefront/internal/ownership/service"
	stripeprovider "github.com/smallbiznis/storefront/internal/providers/stripe"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

type staticResolver struct {
	session *fulfillmentdomain.Session
}

func (s *staticResolver) ResolveSession(ctx context.Context, sessionID string) (*fulfillmentdomain.Session, error) {
	session := *s.session
	session.ID = sessionID
	return &session, nil
}

func setupFlowServer(t *testing.T, resolver fulfillmentdomain.SessionResolver) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE fulfillments (
			id BIGINT PRIMARY KEY,
			session_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_fulfillments_session_id ON fulfillments(session_id)`,
		`CREATE TABLE ownerships (
			id BIGINT PRIMARY KEY,
			user_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			quantity BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_ownerships_user_product ON ownerships(user_id, product_id)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(30)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	cfg := config.Config{
		StripeLookupTimeout: time.Second,
		PurchaseRedirectURL: "http://localhost:5173",
		DemoUserID:          "u1",
	}

	fulfillSvc := fulfillmentservice.New(fulfillmentservice.Params{
		DB:            db,
		Log:           zap.NewNop(),
		Cfg:           cfg,
		GenID:         node,
		Repo:          fulfillmentrepo.Provide(),
		OwnershipRepo: ownershiprepo.Provide(),
		Resolver:      resolver,
		Locks:         locks.NewSessionLock(nil),
	})
	ownershipSvc := ownershipservice.New(ownershipservice.Params{
		DB:   db,
		Log:  zap.NewNop(),
		Repo: ownershiprepo.Provide(),
	})

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:       router,
		cfg:          cfg,
		log:          zap.NewNop(),
		ownershipSvc: ownershipSvc,
		fulfillSvc:   fulfillSvc,
		webhook:      stripeprovider.NewWebhook(testWebhookSecret),
	}
	srv.registerPaymentRoutes()
	router.GET("/owned-products", srv.ListOwnedProducts)

	return srv, db
}

func signedWebhookRequest(t *testing.T, sessionID string) *http.Request {
	t.Helper()

	payload := []byte(fmt.Sprintf(
		`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":%q}}}`,
		sessionID,
	))
	timestamp := time.Now().Unix()
	signed := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(signed))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil))))
	return req
}

func TestWebhookThenRedirectFulfillsOnce(t *testing.T) {
	resolver := &staticResolver{session: &fulfillmentdomain.Session{
		PaymentStatus:    fulfillmentdomain.PaymentStatusPaid,
		ProductID:        "p1",
		UserID:           "u1",
		LineItemQuantity: 1,
		HasLineItems:     true,
	}}
	srv, db := setupFlowServer(t, resolver)

	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, signedWebhookRequest(t, "cs_dual"))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook status %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchase/success?sessionId=cs_dual", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("redirect status %d: %s", rec.Code, rec.Body.String())
	}
	if location := rec.Header().Get("Location"); location != "http://localhost:5173" {
		t.Fatalf("unexpected redirect location %q", location)
	}

	var quantity int64
	if err := db.Raw(
		`SELECT quantity FROM ownerships WHERE user_id = ? AND product_id = ?`, "u1", "p1",
	).Scan(&quantity).Error; err != nil {
		t.Fatalf("quantity query: %v", err)
	}
	if quantity != 1 {
		t.Fatalf("expected single grant, got quantity %d", quantity)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(1) FROM fulfillments`).Scan(&count).Error; err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one ledger row, got %d", count)
	}
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	resolver := &staticResolver{session: &fulfillmentdomain.Session{
		PaymentStatus: fulfillmentdomain.PaymentStatusPaid,
	}}
	srv, db := setupFlowServer(t, resolver)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe",
		bytes.NewReader([]byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1"}}}`)))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")

	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var count int64
	if err := db.Raw(`SELECT COUNT(1) FROM fulfillments`).Scan(&count).Error; err != nil {
		t.Fatalf("count query: %v", err)
	}
	if count != 0 {
		t.Fatalf("unverified webhook must not fulfill, got %d rows", count)
	}
}

func TestWebhookAcknowledgesIgnoredEvents(t *testing.T) {
	resolver := &staticResolver{session: &fulfillmentdomain.Session{
		PaymentStatus: fulfillmentdomain.PaymentStatusPaid,
	}}
	srv, _ := setupFlowServer(t, resolver)

	payload := []byte(`{"id":"evt_1","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
	timestamp := time.Now().Unix()
	signed := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write([]byte(signed))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil))))

	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for ignored event, got %d", rec.Code)
	}
}

func TestWebhookRejectionReturnsBadRequest(t *testing.T) {
	resolver := &staticResolver{session: &fulfillmentdomain.Session{
		PaymentStatus:    fulfillmentdomain.PaymentStatusUnpaid,
		ProductID:        "p1",
		UserID:           "u1",
		LineItemQuantity: 1,
		HasLineItems:     true,
	}}
	srv, _ := setupFlowServer(t, resolver)

	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, signedWebhookRequest(t, "cs_unpaid"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unpaid session, got %d", rec.Code)
	}

	var resp struct {
		Error struct {
			Type   string `json:"type"`
			Errors []struct {
				Code string `json:"code"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if resp.Error.Type != "fulfillment_rejected" {
		t.Fatalf("expected fulfillment_rejected, got %q", resp.Error.Type)
	}
	if len(resp.Error.Errors) != 1 || resp.Error.Errors[0].Code != "unpaid" {
		t.Fatalf("expected unpaid rejection code, got %+v", resp.Error.Errors)
	}
}

func TestPurchaseSuccessRequiresSessionID(t *testing.T) {
	resolver := &staticResolver{session: &fulfillmentdomain.Session{
		PaymentStatus: fulfillmentdomain.PaymentStatusPaid,
	}}
	srv, _ := setupFlowServer(t, resolver)

	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/purchase/success", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without sessionId, got %d", rec.Code)
	}
}

func TestOwnedProductsReflectsFulfillment(t *testing.T) {
	resolver := &staticResolver{session: &fulfillmentdomain.Session{
		PaymentStatus:    fulfillmentdomain.PaymentStatusPaid,
		ProductID:        "p1",
		UserID:           "u1",
		LineItemQuantity: 3,
		HasLineItems:     true,
	}}
	srv, _ := setupFlowServer(t, resolver)

	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, signedWebhookRequest(t, "cs_owned"))
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook status %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/owned-products?userId=u1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("owned-products status %d", rec.Code)
	}

	var resp struct {
		Data []struct {
			ProductID string `json:"product_id"`
			Quantity  int64  `json:"quantity"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].ProductID != "p1" || resp.Data[0].Quantity != 3 {
		t.Fatalf("unexpected owned products %+v", resp.Data)
	}
}
