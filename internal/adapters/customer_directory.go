package adapters

import (
	"context"
	"fmt"

	contractsvc "pipeline_backend/internal/contracts/service"
	conversionsvc "pipeline_backend/internal/conversion/service"
	customersvc "pipeline_backend/internal/customers/service"
	"pipeline_backend/internal/customers/transport"
	dealsvc "pipeline_backend/internal/deals/service"
	leadsvc "pipeline_backend/internal/leads/service"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
)

// CustomerDirectory adapts the customers service for every module that needs
// to look up or provision customers: deals and contracts check existence,
// conversion resolves names and leads create customers on conversion.
type CustomerDirectory struct {
	svc *customersvc.Service
}

// NewCustomerDirectory creates a customer directory adapter.
func NewCustomerDirectory(svc *customersvc.Service) *CustomerDirectory {
	return &CustomerDirectory{svc: svc}
}

// CustomerExists reports whether the customer belongs to the tenant.
func (a *CustomerDirectory) CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	return a.svc.Exists(ctx, tenantID, customerID)
}

// CustomerName returns the display name, or an empty string when the
// customer is gone.
func (a *CustomerDirectory) CustomerName(ctx context.Context, tenantID, customerID uuid.UUID) (string, error) {
	customer, err := a.svc.Get(ctx, tenantID, customerID)
	if apperr.Is(err, apperr.KindNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("look up customer name: %w", err)
	}
	return customer.Name, nil
}

// CreateCustomer provisions a customer from a converting lead.
func (a *CustomerDirectory) CreateCustomer(ctx context.Context, tenantID uuid.UUID, draft leadsvc.CustomerDraft) (uuid.UUID, error) {
	customer, err := a.svc.Create(ctx, tenantID, transport.CreateCustomerRequest{
		Name:     draft.Name,
		Email:    draft.Email,
		Phone:    draft.Phone,
		Industry: draft.Industry,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return customer.ID, nil
}

// DiscardCustomer deletes a customer provisioned by a conversion that failed.
func (a *CustomerDirectory) DiscardCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	return a.svc.Delete(ctx, tenantID, customerID)
}

var (
	_ leadsvc.CustomerProvisioner     = (*CustomerDirectory)(nil)
	_ dealsvc.CustomerReader          = (*CustomerDirectory)(nil)
	_ contractsvc.CustomerReader      = (*CustomerDirectory)(nil)
	_ conversionsvc.CustomerDirectory = (*CustomerDirectory)(nil)
)
