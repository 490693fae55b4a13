package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	userdomain "github.com/smallbiznis/storefront/internal/user/domain"
	userrepo "github.com/smallbiznis/storefront/internal/user/repository"
	userservice "github.com/smallbiznis/storefront/internal/user/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeCustomerCreator struct {
	calls      int
	ref        string
	beforeDone func()
}

func (f *fakeCustomerCreator) CreateCustomer(ctx context.Context, name, email, userID string) (string, error) {
	f.calls++
	if f.beforeDone != nil {
		f.beforeDone()
	}
	return f.ref, nil
}

func setupUserService(t *testing.T, creator userdomain.CustomerCreator) (userdomain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := db.Exec(`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		stripe_customer_id TEXT,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`).Error; err != nil {
		t.Fatalf("create schema: %v", err)
	}

	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO users (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		"u1", "Demo User", "demo@example.com", now, now,
	).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	svc := userservice.New(userservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		Repo:      userrepo.Provide(),
		Customers: creator,
	})
	return svc, db
}

func TestEnsureCustomerRefCreatesAndPersists(t *testing.T) {
	creator := &fakeCustomerCreator{ref: "cus_new"}
	svc, db := setupUserService(t, creator)

	ref, err := svc.EnsureCustomerRef(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if ref != "cus_new" {
		t.Fatalf("expected cus_new, got %q", ref)
	}

	var stored string
	if err := db.Raw(`SELECT stripe_customer_id FROM users WHERE id = ?`, "u1").Scan(&stored).Error; err != nil {
		t.Fatalf("read stored ref: %v", err)
	}
	if stored != "cus_new" {
		t.Fatalf("expected persisted ref cus_new, got %q", stored)
	}

	// Second call must not create another provider customer.
	if _, err := svc.EnsureCustomerRef(context.Background(), "u1"); err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if creator.calls != 1 {
		t.Fatalf("expected one provider customer, got %d", creator.calls)
	}
}

func TestEnsureCustomerRefLosesRaceReusesStoredRef(t *testing.T) {
	creator := &fakeCustomerCreator{ref: "cus_loser"}
	svc, db := setupUserService(t, creator)

	// A concurrent request claims the ref while this one is still talking
	// to the provider.
	creator.beforeDone = func() {
		if err := db.Exec(
			`UPDATE users SET stripe_customer_id = ? WHERE id = ?`, "cus_winner", "u1",
		).Error; err != nil {
			t.Fatalf("simulate winner: %v", err)
		}
	}

	ref, err := svc.EnsureCustomerRef(context.Background(), "u1")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if ref != "cus_winner" {
		t.Fatalf("loser must reuse the stored ref, got %q", ref)
	}

	var stored string
	if err := db.Raw(`SELECT stripe_customer_id FROM users WHERE id = ?`, "u1").Scan(&stored).Error; err != nil {
		t.Fatalf("read stored ref: %v", err)
	}
	if stored != "cus_winner" {
		t.Fatalf("stored ref must not be overwritten, got %q", stored)
	}
}

func TestEnsureCustomerRefUnknownUser(t *testing.T) {
	creator := &fakeCustomerCreator{ref: "cus_x"}
	svc, _ := setupUserService(t, creator)

	if _, err := svc.EnsureCustomerRef(context.Background(), "ghost"); !errors.Is(err, userdomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if creator.calls != 0 {
		t.Fatalf("no provider customer should be created for unknown user")
	}
}
