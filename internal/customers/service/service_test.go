package service

import (
	"context"
	"testing"

	"pipeline_backend/internal/customers/repository"
	"pipeline_backend/internal/customers/transport"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"

	"github.com/google/uuid"
)

type stubUsage bool

func (u stubUsage) CustomerHasDeals(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return bool(u), nil
}

func TestCreateAndExists(t *testing.T) {
	svc := New(repository.NewMemory(), logger.New("test"))
	tenantID := uuid.New()

	c, err := svc.Create(context.Background(), tenantID, transport.CreateCustomerRequest{Name: " Acme ", Email: "Ops@Acme.io"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Name != "Acme" || c.Email != "ops@acme.io" {
		t.Fatalf("unexpected normalization: %+v", c)
	}

	ok, _ := svc.Exists(context.Background(), tenantID, c.ID)
	if !ok {
		t.Fatal("expected customer to exist")
	}
	ok, _ = svc.Exists(context.Background(), uuid.New(), c.ID)
	if ok {
		t.Fatal("customer must not be visible to another tenant")
	}
}

func TestDeleteBlockedByDeals(t *testing.T) {
	svc := New(repository.NewMemory(), logger.New("test"))
	svc.SetDealUsage(stubUsage(true))
	tenantID := uuid.New()
	c, _ := svc.Create(context.Background(), tenantID, transport.CreateCustomerRequest{Name: "Acme"})

	if err := svc.Delete(context.Background(), tenantID, c.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}

	svc.SetDealUsage(stubUsage(false))
	if err := svc.Delete(context.Background(), tenantID, c.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(context.Background(), tenantID, c.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestUpdateRejectsBlankName(t *testing.T) {
	svc := New(repository.NewMemory(), logger.New("test"))
	tenantID := uuid.New()
	c, _ := svc.Create(context.Background(), tenantID, transport.CreateCustomerRequest{Name: "Acme"})

	blank := "   "
	if _, err := svc.Update(context.Background(), tenantID, c.ID, transport.UpdateCustomerRequest{Name: &blank}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
