package service

import (
	"context"
	"sort"
	"strings"

	contractdomain "pipeline_backend/internal/contracts/domain"
	contracttransport "pipeline_backend/internal/contracts/transport"
	customerrepo "pipeline_backend/internal/customers/repository"
	customertransport "pipeline_backend/internal/customers/transport"
	dealdomain "pipeline_backend/internal/deals/domain"
	dealtransport "pipeline_backend/internal/deals/transport"
	leaddomain "pipeline_backend/internal/leads/domain"
	leadtransport "pipeline_backend/internal/leads/transport"
	"pipeline_backend/internal/search/transport"
	"pipeline_backend/internal/shared/paging"
	"pipeline_backend/platform/apperr"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const defaultLimit = 10

type LeadFinder interface {
	List(ctx context.Context, tenantID uuid.UUID, req leadtransport.ListLeadsRequest) (paging.Result[leaddomain.Lead], error)
}

type DealFinder interface {
	List(ctx context.Context, tenantID uuid.UUID, req dealtransport.ListDealsRequest) (paging.Result[dealdomain.Deal], error)
}

type CustomerFinder interface {
	List(ctx context.Context, tenantID uuid.UUID, req customertransport.ListCustomersRequest) (paging.Result[customerrepo.Customer], error)
}

type ContractFinder interface {
	List(ctx context.Context, tenantID uuid.UUID, req contracttransport.ListContractsRequest) (paging.Result[contractdomain.Contract], error)
}

// Finders are the modules searched. A nil finder is skipped.
type Finders struct {
	Leads     LeadFinder
	Deals     DealFinder
	Customers CustomerFinder
	Contracts ContractFinder
}

type Service struct {
	finders Finders
}

func New(finders Finders) *Service {
	return &Service{finders: finders}
}

// hits is what one module contributed: up to limit items plus its total match count.
type hits struct {
	items []transport.SearchResultItem
	total int
}

func (s *Service) GlobalSearch(ctx context.Context, orgID uuid.UUID, req transport.SearchRequest) (*transport.SearchResponse, error) {
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return &transport.SearchResponse{Items: []transport.SearchResultItem{}, Total: 0}, nil
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var results [4]hits
	g, gctx := errgroup.WithContext(ctx)
	if s.finders.Leads != nil {
		g.Go(func() (err error) {
			results[0], err = s.searchLeads(gctx, orgID, q, limit)
			return err
		})
	}
	if s.finders.Deals != nil {
		g.Go(func() (err error) {
			results[1], err = s.searchDeals(gctx, orgID, q, limit)
			return err
		})
	}
	if s.finders.Customers != nil {
		g.Go(func() (err error) {
			results[2], err = s.searchCustomers(gctx, orgID, q, limit)
			return err
		})
	}
	if s.finders.Contracts != nil {
		g.Go(func() (err error) {
			results[3], err = s.searchContracts(gctx, orgID, q, limit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		switch apperr.GetKind(err) {
		case apperr.KindInternal, apperr.KindUnknown:
			return nil, apperr.Wrap(apperr.KindInternal, "search failed", err).WithOp("search.GlobalSearch")
		}
		return nil, err
	}

	items := make([]transport.SearchResultItem, 0, limit)
	total := 0
	for _, r := range results {
		items = append(items, r.items...)
		total += r.total
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}

	return &transport.SearchResponse{Items: items, Total: total}, nil
}

func (s *Service) searchLeads(ctx context.Context, orgID uuid.UUID, q string, limit int) (hits, error) {
	page, err := s.finders.Leads.List(ctx, orgID, leadtransport.ListLeadsRequest{Search: q, PageSize: limit})
	if err != nil {
		return hits{}, err
	}
	out := hits{total: page.Total}
	for _, l := range page.Data {
		score, matched := relevance(q,
			field{"name", l.FullName()},
			field{"companyName", l.CompanyName},
			field{"email", l.Email},
		)
		out.items = append(out.items, transport.SearchResultItem{
			ID:           l.ID.String(),
			Type:         "lead",
			Title:        l.FullName(),
			Subtitle:     l.CompanyName,
			Status:       string(l.Status),
			Link:         buildFrontendLink("lead", l.ID),
			Score:        score,
			MatchedField: matched,
			CreatedAt:    l.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) searchDeals(ctx context.Context, orgID uuid.UUID, q string, limit int) (hits, error) {
	page, err := s.finders.Deals.List(ctx, orgID, dealtransport.ListDealsRequest{Search: q, PageSize: limit})
	if err != nil {
		return hits{}, err
	}
	out := hits{total: page.Total}
	for _, d := range page.Data {
		score, matched := relevance(q,
			field{"title", d.Title},
			field{"description", d.Description},
		)
		out.items = append(out.items, transport.SearchResultItem{
			ID:           d.ID.String(),
			Type:         "deal",
			Title:        d.Title,
			Subtitle:     string(d.Stage),
			Status:       string(d.Status),
			Link:         buildFrontendLink("deal", d.ID),
			Score:        score,
			MatchedField: matched,
			CreatedAt:    d.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) searchCustomers(ctx context.Context, orgID uuid.UUID, q string, limit int) (hits, error) {
	page, err := s.finders.Customers.List(ctx, orgID, customertransport.ListCustomersRequest{Search: q, PageSize: limit})
	if err != nil {
		return hits{}, err
	}
	out := hits{total: page.Total}
	for _, c := range page.Data {
		score, matched := relevance(q,
			field{"name", c.Name},
			field{"email", c.Email},
		)
		out.items = append(out.items, transport.SearchResultItem{
			ID:           c.ID.String(),
			Type:         "customer",
			Title:        c.Name,
			Subtitle:     c.Industry,
			Link:         buildFrontendLink("customer", c.ID),
			Score:        score,
			MatchedField: matched,
			CreatedAt:    c.CreatedAt,
		})
	}
	return out, nil
}

func (s *Service) searchContracts(ctx context.Context, orgID uuid.UUID, q string, limit int) (hits, error) {
	page, err := s.finders.Contracts.List(ctx, orgID, contracttransport.ListContractsRequest{Search: q, PageSize: limit})
	if err != nil {
		return hits{}, err
	}
	out := hits{total: page.Total}
	for _, c := range page.Data {
		score, matched := relevance(q,
			field{"contractNumber", c.ContractNumber},
			field{"title", c.Title},
			field{"customerName", c.CustomerName},
		)
		out.items = append(out.items, transport.SearchResultItem{
			ID:           c.ID.String(),
			Type:         "contract",
			Title:        c.ContractNumber,
			Subtitle:     c.Title,
			Status:       string(c.Status),
			Link:         buildFrontendLink("contract", c.ID),
			Score:        score,
			MatchedField: matched,
			CreatedAt:    c.CreatedAt,
		})
	}
	return out, nil
}

type field struct {
	name  string
	value string
}

// relevance ranks the best matching field: exact 1, prefix 0.8, contains 0.5.
// Later fields weigh less than earlier ones. Matches found only by the
// module's own search (e.g. notes) score 0.1.
func relevance(q string, fields ...field) (float64, string) {
	needle := strings.ToLower(q)
	best, matched := 0.1, ""
	for i, f := range fields {
		value := strings.ToLower(strings.TrimSpace(f.value))
		var score float64
		switch {
		case value == "":
			continue
		case value == needle:
			score = 1
		case strings.HasPrefix(value, needle):
			score = 0.8
		case strings.Contains(value, needle):
			score = 0.5
		default:
			continue
		}
		score -= float64(i) * 0.05
		if score > best {
			best, matched = score, f.name
		}
	}
	return best, matched
}

func buildFrontendLink(entityType string, id uuid.UUID) string {
	switch entityType {
	case "lead":
		return "/app/leads/" + id.String()
	case "deal":
		return "/app/deals/" + id.String()
	case "customer":
		return "/app/customers/" + id.String()
	case "contract":
		return "/app/contracts/" + id.String()
	default:
		return "/app"
	}
}
