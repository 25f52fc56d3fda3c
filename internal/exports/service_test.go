package exports

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"pipeline_backend/internal/adapters/storage"
	contractdomain "pipeline_backend/internal/contracts/domain"
	leaddomain "pipeline_backend/internal/leads/domain"
	leadtransport "pipeline_backend/internal/leads/transport"
	"pipeline_backend/platform/apperr"
	"pipeline_backend/platform/logger"
	"pipeline_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exportNow = time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)

type leadBook struct {
	leads    []leaddomain.Lead
	imported []leadtransport.CreateLeadRequest
}

func (b *leadBook) ListAll(context.Context, uuid.UUID) ([]leaddomain.Lead, error) {
	return b.leads, nil
}

func (b *leadBook) Import(_ context.Context, _ uuid.UUID, req leadtransport.CreateLeadRequest) error {
	if req.FirstName == "" && req.LastName == "" && req.CompanyName == "" {
		return apperr.Validation("lead needs a name or a company")
	}
	b.imported = append(b.imported, req)
	return nil
}

type contractBook []contractdomain.Contract

func (b contractBook) ListAll(context.Context, uuid.UUID) ([]contractdomain.Contract, error) {
	return b, nil
}

type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) UploadExport(_ context.Context, folder, fileName, _ string, r io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	key := storage.ObjectKey(folder, fileName, uuid.MustParse("0b6f3a52-1111-4c1e-9d1a-2f6a4a0f0c01"))
	m.objects[key] = data
	return key, nil
}

func (m *memoryStore) GenerateDownloadURL(_ context.Context, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example.com/" + fileKey, FileKey: fileKey, ExpiresAt: exportNow.Add(time.Hour)}, nil
}

func (m *memoryStore) DeleteObject(_ context.Context, fileKey string) error {
	delete(m.objects, fileKey)
	return nil
}

func (m *memoryStore) EnsureBucketExists(context.Context) error { return nil }

func newExportService(sources Sources, store storage.ExportStore) *Service {
	svc := NewService(sources, store, validator.New(), logger.New("test"))
	svc.SetClock(func() time.Time { return exportNow })
	return svc
}

func sampleContract() contractdomain.Contract {
	return contractdomain.Contract{
		ID:             uuid.MustParse("7d1c1c0e-6a55-4a43-9a57-0c8b2cf0a001"),
		ContractNumber: "CT-000042",
		Title:          `Support "Gold"`,
		Type:           "service",
		Status:         contractdomain.StatusActive,
		CustomerName:   "Acme, Inc.",
		Value:          decimal.RequireFromString("1200.5"),
		StartDate:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestExportContractsCSV(t *testing.T) {
	svc := newExportService(Sources{Contracts: contractBook{sampleContract()}}, nil)

	doc, rows, err := svc.Export(context.Background(), uuid.New(), EntityContracts, FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 1, rows)
	assert.Equal(t, "contracts-20261001-083000.csv", doc.FileName)
	assert.Equal(t, storage.ContentTypeCSV, doc.ContentType)
	lines := strings.Split(string(doc.Body), "\r\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		`"7d1c1c0e-6a55-4a43-9a57-0c8b2cf0a001","CT-000042","Support ""Gold""","service","active","Acme, Inc.","1200.50","2026-01-01","2026-12-31"`,
		lines[1])
}

func TestExportJSONKeepsRecordFields(t *testing.T) {
	svc := newExportService(Sources{Contracts: contractBook{sampleContract()}}, nil)

	doc, _, err := svc.Export(context.Background(), uuid.New(), EntityContracts, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, storage.ContentTypeJSON, doc.ContentType)
	assert.True(t, strings.HasPrefix(string(doc.Body), "[\n  {\n    \"id\""))
	assert.Contains(t, string(doc.Body), `"contractNumber": "CT-000042"`)
}

func TestExportUnavailableEntity(t *testing.T) {
	svc := newExportService(Sources{}, nil)

	_, _, err := svc.Export(context.Background(), uuid.New(), EntityDeals, FormatCSV)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestExportAndUploadReturnsPresignedLink(t *testing.T) {
	store := &memoryStore{objects: map[string][]byte{}}
	tenantID := uuid.MustParse("3f0c9a0e-0000-4000-8000-000000000001")
	svc := newExportService(Sources{Contracts: contractBook{sampleContract()}}, store)

	result, err := svc.ExportAndUpload(context.Background(), tenantID, EntityContracts, FormatXLSX)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, tenantID.String()+"/contracts/contracts-20261001-083000_0b6f3a52.xlsx", result.FileKey)
	assert.Equal(t, "https://files.example.com/"+result.FileKey, result.URL)
	assert.NotEmpty(t, store.objects[result.FileKey])
}

func TestExportAndUploadWithoutStore(t *testing.T) {
	svc := newExportService(Sources{Contracts: contractBook{}}, nil)

	_, err := svc.ExportAndUpload(context.Background(), uuid.New(), EntityContracts, FormatCSV)
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestImportLeadsReportsBadLines(t *testing.T) {
	book := &leadBook{}
	svc := newExportService(Sources{Leads: book}, nil)

	input := "First Name,Last Name,Email,Company Size,Next Follow Up\r\n" +
		"Ada,Lovelace,ada@example.com,11-50,2026-11-02\r\n" +
		"Bob,Builder,not-an-email,,\r\n" +
		",,,,\r\n" +
		"Cy,Young,cy@example.com,,tomorrow\r\n" +
		"Dee,Jones,dee@example.com,1000+,2026-11-05T10:00:00Z\r\n"

	result, err := svc.Import(context.Background(), uuid.New(), EntityLeads, strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Success)
	require.Len(t, result.Errors, 2)
	assert.True(t, strings.HasPrefix(result.Errors[0], "line 3: "))
	assert.Equal(t, `line 5: invalid next_follow_up "tomorrow"`, result.Errors[1])

	require.Len(t, book.imported, 2)
	assert.Equal(t, "11-50", book.imported[0].CompanySize)
	require.NotNil(t, book.imported[1].NextFollowUp)
	assert.Equal(t, time.Date(2026, 11, 5, 10, 0, 0, 0, time.UTC), *book.imported[1].NextFollowUp)
}

func TestImportRejectsReadOnlyEntities(t *testing.T) {
	svc := newExportService(Sources{Contracts: contractBook{}}, nil)

	_, err := svc.Import(context.Background(), uuid.New(), EntityContracts, bytes.NewReader(nil))
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestParseEntityAndFormat(t *testing.T) {
	e, err := ParseEntity("Product-Sales")
	require.NoError(t, err)
	assert.Equal(t, EntityProductSales, e)

	_, err = ParseEntity("invoices")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
