package adapters

import (
	"context"

	contractdomain "pipeline_backend/internal/contracts/domain"
	contractsvc "pipeline_backend/internal/contracts/service"
	conversiondomain "pipeline_backend/internal/conversion/domain"
	conversionsvc "pipeline_backend/internal/conversion/service"
	salesdomain "pipeline_backend/internal/productsales/domain"
	salessvc "pipeline_backend/internal/productsales/service"

	"github.com/google/uuid"
)

// ContractWriter persists conversion drafts through the contracts service.
type ContractWriter struct {
	svc *contractsvc.Service
}

// NewContractWriter creates a contract writer adapter.
func NewContractWriter(svc *contractsvc.Service) *ContractWriter {
	return &ContractWriter{svc: svc}
}

// CreateContract stores the draft as a new draft contract.
func (a *ContractWriter) CreateContract(ctx context.Context, tenantID uuid.UUID, draft conversiondomain.ContractDraft) (conversiondomain.ContractSummary, error) {
	dealID := draft.DealID
	created, err := a.svc.CreateFromInput(ctx, contractdomain.NewContractInput{
		OrganizationID: tenantID,
		Title:          draft.Title,
		Description:    draft.Description,
		Type:           draft.Type,
		CustomerID:     draft.CustomerID,
		CustomerName:   draft.CustomerName,
		Value:          draft.Value,
		Currency:       draft.Currency,
		StartDate:      draft.StartDate,
		EndDate:        draft.EndDate,
		AssignedTo:     draft.AssignedTo,
		Notes:          draft.Notes,
		DealID:         &dealID,
		DealTitle:      draft.DealTitle,
	})
	if err != nil {
		return conversiondomain.ContractSummary{}, err
	}
	return toContractSummary(created), nil
}

// ListContractsForDeal returns the contracts whose back-reference is the deal.
func (a *ContractWriter) ListContractsForDeal(ctx context.Context, tenantID, dealID uuid.UUID) ([]conversiondomain.ContractSummary, error) {
	contracts, err := a.svc.ListByDeal(ctx, tenantID, dealID)
	if err != nil {
		return nil, err
	}
	out := make([]conversiondomain.ContractSummary, len(contracts))
	for i, c := range contracts {
		out[i] = toContractSummary(c)
	}
	return out, nil
}

func toContractSummary(c contractdomain.Contract) conversiondomain.ContractSummary {
	return conversiondomain.ContractSummary{
		ID:             c.ID,
		ContractNumber: c.ContractNumber,
		Title:          c.Title,
		Status:         string(c.Status),
		Value:          c.Value,
		Currency:       c.Currency,
		StartDate:      c.StartDate,
		EndDate:        c.EndDate,
		CreatedAt:      c.CreatedAt,
	}
}

// SalesWriter books conversion sale lines in the sales ledger.
type SalesWriter struct {
	svc *salessvc.Service
}

// NewSalesWriter creates a sales writer adapter.
func NewSalesWriter(svc *salessvc.Service) *SalesWriter {
	return &SalesWriter{svc: svc}
}

// RecordSale writes one ledger line.
func (a *SalesWriter) RecordSale(ctx context.Context, tenantID uuid.UUID, line conversiondomain.SaleLine) (uuid.UUID, error) {
	sale, err := a.svc.CreateFromInput(ctx, salesdomain.NewSaleInput{
		OrganizationID: tenantID,
		DealID:         line.DealID,
		ProductID:      line.ProductID,
		ProductName:    line.ProductName,
		Quantity:       line.Quantity,
		UnitPrice:      line.UnitPrice,
		Discount:       line.Discount,
		Tax:            line.Tax,
		CustomerID:     line.CustomerID,
		SaleDate:       line.SaleDate,
		AssignedTo:     line.AssignedTo,
		Notes:          line.Notes,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return sale.ID, nil
}

var (
	_ conversionsvc.ContractWriter = (*ContractWriter)(nil)
	_ conversionsvc.SalesWriter    = (*SalesWriter)(nil)
)
