// Package exports turns tenant collections into CSV, JSON or XLSX documents
// and loads CSV files back through the owning modules.
package exports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"pipeline_backend/internal/adapters/storage"
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
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"

	"github.com/google/uuid"
)

// Format is the serialization of an export.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// LeadSource lists and creates leads.
type LeadSource interface {
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]leaddomain.Lead, error)
	Import(ctx context.Context, tenantID uuid.UUID, req leadtransport.CreateLeadRequest) error
}

// DealSource lists and creates deals.
type DealSource interface {
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]dealdomain.Deal, error)
	Import(ctx context.Context, tenantID uuid.UUID, req dealtransport.CreateDealRequest) error
}

// CustomerSource lists and creates customers.
type CustomerSource interface {
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]customerrepo.Customer, error)
	Create(ctx context.Context, tenantID uuid.UUID, req customertransport.CreateCustomerRequest) (customerrepo.Customer, error)
}

// ProductSource lists and creates catalog products.
type ProductSource interface {
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]catalogrepo.Product, error)
	CreateProduct(ctx context.Context, tenantID uuid.UUID, req catalogtransport.CreateProductRequest) (catalogrepo.Product, error)
}

// ContractSource lists contracts.
type ContractSource interface {
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]contractdomain.Contract, error)
}

// SaleSource lists product sales.
type SaleSource interface {
	ListAll(ctx context.Context, tenantID uuid.UUID) ([]salesdomain.ProductSale, error)
}

// Sources bundles the module services an export can read from. A nil source
// makes its entity unavailable.
type Sources struct {
	Leads     LeadSource
	Deals     DealSource
	Customers CustomerSource
	Products  ProductSource
	Contracts ContractSource
	Sales     SaleSource
}

// Document is a rendered export.
type Document struct {
	FileName    string
	ContentType string
	Body        []byte
}

// UploadResult points at an export kept in object storage.
type UploadResult struct {
	FileName  string    `json:"fileName"`
	FileKey   string    `json:"fileKey"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
}

type table struct {
	columns []string
	rows    [][]string
	records interface{}
}

// Service renders exports and runs CSV imports.
type Service struct {
	sources Sources
	store   storage.ExportStore
	val     *validator.Validator
	log     *logger.Logger
	now     func() time.Time
}

// NewService creates the exports service. store may be nil when object storage is disabled.
func NewService(sources Sources, store storage.ExportStore, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{sources: sources, store: store, val: val, log: log, now: time.Now}
}

// SetClock overrides the clock used in file names.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ParseEntity validates an entity name taken from a URL.
func ParseEntity(raw string) (Entity, error) {
	e := Entity(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := Columns(e); !ok {
		return "", apperr.NotFound(fmt.Sprintf("unknown export entity %q", raw))
	}
	return e, nil
}

// ParseFormat validates a format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(raw))); f {
	case "":
		return FormatCSV, nil
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unsupported export format %q", raw))
}

// Export renders every record of the entity for the tenant.
func (s *Service) Export(ctx context.Context, tenantID uuid.UUID, entity Entity, format Format) (Document, int, error) {
	t, err := s.load(ctx, tenantID, entity)
	if err != nil {
		return Document{}, 0, err
	}

	var buf bytes.Buffer
	doc := Document{FileName: fmt.Sprintf("%s-%s.%s", entity, s.now().UTC().Format("20060102-150405"), format)}
	switch format {
	case FormatJSON:
		doc.ContentType = storage.ContentTypeJSON
		err = ExportJSON(&buf, t.records)
	case FormatXLSX:
		doc.ContentType = storage.ContentTypeXLSX
		err = ExportXLSX(&buf, t.columns, t.rows)
	default:
		doc.ContentType = storage.ContentTypeCSV
		err = ExportCSV(&buf, t.columns, t.rows)
	}
	if err != nil {
		return Document{}, 0, fmt.Errorf("render %s export: %w", entity, err)
	}
	doc.Body = buf.Bytes()

	s.log.Info("export rendered", "entity", entity, "format", format, "rows", len(t.rows))
	return doc, len(t.rows), nil
}

// ExportAndUpload renders an export and stores it, returning a presigned download link.
func (s *Service) ExportAndUpload(ctx context.Context, tenantID uuid.UUID, entity Entity, format Format) (UploadResult, error) {
	if s.store == nil {
		return UploadResult{}, apperr.BadRequest("export uploads are not enabled")
	}
	doc, rows, err := s.Export(ctx, tenantID, entity, format)
	if err != nil {
		return UploadResult{}, err
	}

	folder := fmt.Sprintf("%s/%s", tenantID, entity)
	key, err := s.store.UploadExport(ctx, folder, doc.FileName, doc.ContentType, bytes.NewReader(doc.Body), int64(len(doc.Body)))
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload export: %w", err)
	}
	link, err := s.store.GenerateDownloadURL(ctx, key)
	if err != nil {
		return UploadResult{}, fmt.Errorf("presign export: %w", err)
	}

	s.log.Info("export uploaded", "entity", entity, "fileKey", key)
	return UploadResult{
		FileName:  doc.FileName,
		FileKey:   key,
		URL:       link.URL,
		ExpiresAt: link.ExpiresAt,
		Rows:      rows,
	}, nil
}

// Import loads a CSV file into the entity's module. Only leads, deals,
// customers and products accept imports.
func (s *Service) Import(ctx context.Context, tenantID uuid.UUID, entity Entity, r io.Reader) (ImportResult, error) {
	fn, err := s.importer(ctx, tenantID, entity)
	if err != nil {
		return ImportResult{}, err
	}
	result := ImportCSV(r, fn)
	s.log.BulkOutcome("import "+string(entity), result.Success, len(result.Errors))
	return result, nil
}

func (s *Service) importer(ctx context.Context, tenantID uuid.UUID, entity Entity) (RowFunc, error) {
	switch entity {
	case EntityLeads:
		if s.sources.Leads != nil {
			return func(row Row) error {
				req, err := leadFromRow(row)
				if err == nil {
					err = s.validate(req)
				}
				if err != nil {
					return err
				}
				return s.sources.Leads.Import(ctx, tenantID, req)
			}, nil
		}
	case EntityDeals:
		if s.sources.Deals != nil {
			return func(row Row) error {
				req, err := dealFromRow(row)
				if err == nil {
					err = s.validate(req)
				}
				if err != nil {
					return err
				}
				return s.sources.Deals.Import(ctx, tenantID, req)
			}, nil
		}
	case EntityCustomers:
		if s.sources.Customers != nil {
			return func(row Row) error {
				req, err := customerFromRow(row)
				if err == nil {
					err = s.validate(req)
				}
				if err != nil {
					return err
				}
				_, err = s.sources.Customers.Create(ctx, tenantID, req)
				return err
			}, nil
		}
	case EntityProducts:
		if s.sources.Products != nil {
			return func(row Row) error {
				req, err := productFromRow(row)
				if err == nil {
					err = s.validate(req)
				}
				if err != nil {
					return err
				}
				_, err = s.sources.Products.CreateProduct(ctx, tenantID, req)
				return err
			}, nil
		}
	}
	return nil, apperr.Validation(fmt.Sprintf("%s cannot be imported", entity))
}

func (s *Service) validate(req interface{}) error {
	if s.val == nil {
		return nil
	}
	if err := s.val.Struct(req); err != nil {
		return apperr.Validation(err.Error())
	}
	return nil
}

func (s *Service) load(ctx context.Context, tenantID uuid.UUID, entity Entity) (table, error) {
	columns, ok := Columns(entity)
	if !ok {
		return table{}, apperr.NotFound(fmt.Sprintf("unknown export entity %q", entity))
	}
	t := table{columns: columns}

	switch entity {
	case EntityLeads:
		if s.sources.Leads == nil {
			break
		}
		items, err := s.sources.Leads.ListAll(ctx, tenantID)
		if err != nil {
			return table{}, err
		}
		t.records, t.rows = items, mapRows(items, leadRow)
		return t, nil
	case EntityDeals:
		if s.sources.Deals == nil {
			break
		}
		items, err := s.sources.Deals.ListAll(ctx, tenantID)
		if err != nil {
			return table{}, err
		}
		t.records, t.rows = items, mapRows(items, dealRow)
		return t, nil
	case EntityCustomers:
		if s.sources.Customers == nil {
			break
		}
		items, err := s.sources.Customers.ListAll(ctx, tenantID)
		if err != nil {
			return table{}, err
		}
		t.records, t.rows = items, mapRows(items, customerRow)
		return t, nil
	case EntityProducts:
		if s.sources.Products == nil {
			break
		}
		items, err := s.sources.Products.ListAll(ctx, tenantID)
		if err != nil {
			return table{}, err
		}
		t.records, t.rows = items, mapRows(items, productRow)
		return t, nil
	case EntityContracts:
		if s.sources.Contracts == nil {
			break
		}
		items, err := s.sources.Contracts.ListAll(ctx, tenantID)
		if err != nil {
			return table{}, err
		}
		t.records, t.rows = items, mapRows(items, contractRow)
		return t, nil
	case EntityProductSales:
		if s.sources.Sales == nil {
			break
		}
		items, err := s.sources.Sales.ListAll(ctx, tenantID)
		if err != nil {
			return table{}, err
		}
		t.records, t.rows = items, mapRows(items, saleRow)
		return t, nil
	}
	return table{}, apperr.NotFound(fmt.Sprintf("%s exports are not available", entity))
}

func mapRows[T any](items []T, fn func(T) []string) [][]string {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = fn(item)
	}
	return rows
}
