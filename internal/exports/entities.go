package exports

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	catalogrepo "pipeline_backend/internal/catalog/repository"
	catalogtransport "pipeline_backend/internal/catalog/transport"
	contractdomain "pipeline_backend/internal/contracts/domain"
	customerrepo "pipeline_backend/internal/customers/repository"
	customertransport "pipeline_backend/internal/customers/transport"
	dealdomain "pipeline_backend/internal/deals/domain"
	dealtransport "pipeline_backend/internal/deals/transport"
	leaddomain "pipeline_backend/internal/leads/domain"
	leadtransport "pipeline_backend/internal/leads/transport"
	salesdomain "pipeline_backend/internal/productsales/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entity names an exportable collection.
type Entity string

const (
	EntityLeads        Entity = "leads"
	EntityDeals        Entity = "deals"
	EntityCustomers    Entity = "customers"
	EntityProducts     Entity = "products"
	EntityContracts    Entity = "contracts"
	EntityProductSales Entity = "product-sales"
)

const (
	dateLayout = "2006-01-02"
	tagSep     = ";"
)

var (
	leadColumns = []string{
		"ID", "First Name", "Last Name", "Email", "Phone", "Mobile", "Job Title",
		"Company Name", "Industry", "Company Size", "Source", "Campaign", "Budget Range",
		"Timeline", "Lead Score", "Status", "Stage", "Assigned To", "Next Follow Up", "Notes",
	}
	dealColumns = []string{
		"ID", "Title", "Description", "Value", "Stage", "Status", "Customer ID", "Assigned To",
		"Probability", "Expected Close Date", "Source", "Campaign", "Tags",
	}
	customerColumns = []string{"ID", "Name", "Email", "Phone", "Industry", "Website"}
	productColumns  = []string{"ID", "SKU", "Name", "Description", "Unit Price", "Active"}
	contractColumns = []string{
		"ID", "Contract Number", "Title", "Type", "Status", "Customer", "Value", "Start Date", "End Date",
	}
	saleColumns = []string{
		"ID", "Deal ID", "Product", "Quantity", "Unit Price", "Discount", "Tax", "Total Price",
		"Customer ID", "Sale Date",
	}
)

// Columns returns the fixed column set of an entity.
func Columns(entity Entity) ([]string, bool) {
	switch entity {
	case EntityLeads:
		return leadColumns, true
	case EntityDeals:
		return dealColumns, true
	case EntityCustomers:
		return customerColumns, true
	case EntityProducts:
		return productColumns, true
	case EntityContracts:
		return contractColumns, true
	case EntityProductSales:
		return saleColumns, true
	}
	return nil, false
}

func leadRow(l leaddomain.Lead) []string {
	return []string{
		l.ID.String(), l.FirstName, l.LastName, l.Email, l.Phone, l.Mobile, l.JobTitle,
		l.CompanyName, l.Industry, l.CompanySize, l.Source, l.Campaign, l.BudgetRange,
		l.Timeline, strconv.Itoa(l.LeadScore), string(l.Status), string(l.Stage),
		formatID(l.AssignedTo), formatTime(l.NextFollowUp), l.Notes,
	}
}

func dealRow(d dealdomain.Deal) []string {
	return []string{
		d.ID.String(), d.Title, d.Description, d.Value.StringFixed(2), string(d.Stage), string(d.Status),
		d.CustomerID.String(), formatID(d.AssignedTo), strconv.Itoa(d.Probability),
		formatDate(d.ExpectedCloseDate), d.Source, d.Campaign, strings.Join(d.Tags, tagSep),
	}
}

func customerRow(c customerrepo.Customer) []string {
	return []string{c.ID.String(), c.Name, c.Email, c.Phone, c.Industry, c.Website}
}

func productRow(p catalogrepo.Product) []string {
	return []string{p.ID.String(), p.SKU, p.Name, p.Description, p.UnitPrice.StringFixed(2), strconv.FormatBool(p.Active)}
}

func contractRow(c contractdomain.Contract) []string {
	return []string{
		c.ID.String(), c.ContractNumber, c.Title, c.Type, string(c.Status), c.CustomerName,
		c.Value.StringFixed(2), c.StartDate.Format(dateLayout), c.EndDate.Format(dateLayout),
	}
}

func saleRow(s salesdomain.ProductSale) []string {
	return []string{
		s.ID.String(), s.DealID.String(), s.ProductName, strconv.Itoa(s.Quantity),
		s.UnitPrice.StringFixed(2), s.Discount.StringFixed(2), s.Tax.StringFixed(2),
		s.TotalPrice.StringFixed(2), s.CustomerID.String(), s.SaleDate.Format(dateLayout),
	}
}

// leadFromRow maps an import line onto a create request. Unknown columns are ignored.
func leadFromRow(row Row) (leadtransport.CreateLeadRequest, error) {
	req := leadtransport.CreateLeadRequest{
		FirstName:   row.Get("first_name"),
		LastName:    row.Get("last_name"),
		Email:       row.Get("email"),
		Phone:       row.Get("phone"),
		Mobile:      row.Get("mobile"),
		JobTitle:    row.Get("job_title"),
		CompanyName: row.Get("company_name"),
		Industry:    row.Get("industry"),
		CompanySize: row.Get("company_size"),
		Source:      row.Get("source"),
		Campaign:    row.Get("campaign"),
		BudgetRange: row.Get("budget_range"),
		Timeline:    row.Get("timeline"),
		Notes:       row.Get("notes"),
	}
	var err error
	if req.AssignedTo, err = parseOptionalID(row, "assigned_to"); err != nil {
		return req, err
	}
	if req.NextFollowUp, err = parseOptionalTime(row, "next_follow_up"); err != nil {
		return req, err
	}
	return req, nil
}

func dealFromRow(row Row) (dealtransport.CreateDealRequest, error) {
	req := dealtransport.CreateDealRequest{
		Title:       row.Get("title"),
		Description: row.Get("description"),
		Stage:       row.Get("stage"),
		Source:      row.Get("source"),
		Campaign:    row.Get("campaign"),
		Tags:        splitTags(row.Get("tags")),
	}

	customerID, err := parseOptionalID(row, "customer_id")
	if err != nil {
		return req, err
	}
	if customerID == nil {
		return req, fmt.Errorf("customer_id is required")
	}
	req.CustomerID = *customerID

	if row.Has("value") {
		value, err := decimal.NewFromString(row.Get("value"))
		if err != nil {
			return req, fmt.Errorf("invalid value %q", row.Get("value"))
		}
		req.Value = &value
	}
	if row.Has("probability") {
		p, err := strconv.Atoi(row.Get("probability"))
		if err != nil {
			return req, fmt.Errorf("invalid probability %q", row.Get("probability"))
		}
		req.Probability = &p
	}
	if req.AssignedTo, err = parseOptionalID(row, "assigned_to"); err != nil {
		return req, err
	}
	if req.ExpectedCloseDate, err = parseOptionalTime(row, "expected_close_date"); err != nil {
		return req, err
	}
	return req, nil
}

func customerFromRow(row Row) (customertransport.CreateCustomerRequest, error) {
	return customertransport.CreateCustomerRequest{
		Name:     row.Get("name"),
		Email:    row.Get("email"),
		Phone:    row.Get("phone"),
		Industry: row.Get("industry"),
		Website:  row.Get("website"),
	}, nil
}

func productFromRow(row Row) (catalogtransport.CreateProductRequest, error) {
	req := catalogtransport.CreateProductRequest{
		SKU:         row.Get("sku"),
		Name:        row.Get("name"),
		Description: row.Get("description"),
		UnitPrice:   decimal.Zero,
	}
	if row.Has("unit_price") {
		price, err := decimal.NewFromString(row.Get("unit_price"))
		if err != nil {
			return req, fmt.Errorf("invalid unit_price %q", row.Get("unit_price"))
		}
		req.UnitPrice = price
	}
	if row.Has("active") {
		active, err := strconv.ParseBool(row.Get("active"))
		if err != nil {
			return req, fmt.Errorf("invalid active flag %q", row.Get("active"))
		}
		req.Active = &active
	}
	return req, nil
}

func parseOptionalID(row Row, header string) (*uuid.UUID, error) {
	if !row.Has(header) {
		return nil, nil
	}
	id, err := uuid.Parse(row.Get(header))
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", header, row.Get(header))
	}
	return &id, nil
}

// parseOptionalTime accepts RFC 3339 timestamps and plain dates.
func parseOptionalTime(row Row, header string) (*time.Time, error) {
	if !row.Has(header) {
		return nil, nil
	}
	raw := row.Get(header)
	for _, layout := range []string{time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid %s %q", header, raw)
}

func splitTags(raw string) []string {
	tags := make([]string, 0)
	for _, t := range strings.Split(raw, tagSep) {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func formatID(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(dateLayout)
}
