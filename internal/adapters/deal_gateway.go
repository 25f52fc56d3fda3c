package adapters

import (
	"context"

	conversiondomain "pipeline_backend/internal/conversion/domain"
	conversionsvc "pipeline_backend/internal/conversion/service"
	customersvc "pipeline_backend/internal/customers/service"
	dealdomain "pipeline_backend/internal/deals/domain"
	dealsvc "pipeline_backend/internal/deals/service"
	"pipeline_backend/internal/deals/transport"
	leadsvc "pipeline_backend/internal/leads/service"

	"github.com/google/uuid"
)

// DealGateway exposes the deals service to the modules around it: leads open
// deals on conversion, customers guard deletes and conversion reads deal
// snapshots.
type DealGateway struct {
	svc *dealsvc.Service
}

// NewDealGateway creates a deal gateway adapter.
func NewDealGateway(svc *dealsvc.Service) *DealGateway {
	return &DealGateway{svc: svc}
}

// OpenDealFromLead opens a deal in the lead stage for a converted lead.
func (a *DealGateway) OpenDealFromLead(ctx context.Context, tenantID uuid.UUID, draft leadsvc.DealDraft) (uuid.UUID, error) {
	value := draft.Value
	leadID := draft.LeadID
	deal, err := a.svc.Create(ctx, tenantID, transport.CreateDealRequest{
		Title:      draft.Title,
		Value:      &value,
		CustomerID: draft.CustomerID,
		AssignedTo: draft.AssignedTo,
		Source:     draft.Source,
		Campaign:   draft.Campaign,
		LeadID:     &leadID,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return deal.ID, nil
}

// DiscardDeal deletes a deal opened by a conversion that failed.
func (a *DealGateway) DiscardDeal(ctx context.Context, tenantID, dealID uuid.UUID) error {
	return a.svc.Delete(ctx, tenantID, dealID)
}

// CustomerHasDeals reports whether any deal references the customer.
func (a *DealGateway) CustomerHasDeals(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	return a.svc.CustomerHasDeals(ctx, tenantID, customerID)
}

// GetDeal returns the conversion snapshot of a deal.
func (a *DealGateway) GetDeal(ctx context.Context, tenantID, dealID uuid.UUID) (conversiondomain.Deal, error) {
	deal, err := a.svc.Get(ctx, tenantID, dealID)
	if err != nil {
		return conversiondomain.Deal{}, err
	}
	return toConversionDeal(deal), nil
}

func toConversionDeal(d dealdomain.Deal) conversiondomain.Deal {
	items := make([]conversiondomain.Item, len(d.Items))
	for i, item := range d.Items {
		items[i] = conversiondomain.Item{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Tax:         item.Tax,
			LineTotal:   item.LineTotal,
		}
	}
	return conversiondomain.Deal{
		ID:             d.ID,
		OrganizationID: d.OrganizationID,
		Title:          d.Title,
		Description:    d.Description,
		Stage:          string(d.Stage),
		CustomerID:     d.CustomerID,
		Value:          d.Value,
		AssignedTo:     d.AssignedTo,
		Items:          items,
	}
}

var (
	_ leadsvc.DealOpener       = (*DealGateway)(nil)
	_ customersvc.DealUsage    = (*DealGateway)(nil)
	_ conversionsvc.DealReader = (*DealGateway)(nil)
)
