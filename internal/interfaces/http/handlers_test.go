package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/internal/application/service"
	"github.com/garyjia/billwatch/internal/domain/entity"
)

type mockBillService struct {
	submitErr  error
	previewErr error
	exportErr  error
	submitted  [][]byte
}

func (m *mockBillService) Submit(ctx context.Context, content []byte) (*entity.BillRecord, error) {
	m.submitted = append(m.submitted, content)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return sampleRecord(), nil
}

func (m *mockBillService) Preview(ctx context.Context, content []byte) (*service.BillPreview, error) {
	if m.previewErr != nil {
		return nil, m.previewErr
	}
	record := sampleRecord()
	row := record.ToSheetRow()
	return &service.BillPreview{
		Record:    record,
		Row:       row.Values,
		Columns:   row.Columns,
		Duplicate: true,
	}, nil
}

func (m *mockBillService) Export(ctx context.Context) ([]byte, string, error) {
	if m.exportErr != nil {
		return nil, "", m.exportErr
	}
	return []byte("xlsx-bytes"), "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
}

type mockSummaryService struct {
	err      error
	lastMode port.SummaryMode
}

func (m *mockSummaryService) Summarize(ctx context.Context, content []byte, mode port.SummaryMode) (string, error) {
	m.lastMode = mode
	if m.err != nil {
		return "", m.err
	}
	return "Electric bill for March 2024.", nil
}

func sampleRecord() *entity.BillRecord {
	return &entity.BillRecord{
		UserID:      "user-hash",
		BillID:      "bill-1",
		ContentHash: "abc123",
		Metadata:    entity.BillMetadata{PeriodMonthYear: "03-2024", Identifier: "JANE DOE"},
		Charges: []entity.ConsolidatedCharge{
			{Key: "Customer Charge", Amount: decimal.RequireFromString("9.19")},
			{Key: "Distribution Charge First kWh", Amount: decimal.RequireFromString("36.18"), Rate: "0.0723610"},
		},
	}
}

func newTestServer(bills service.BillService, summaries service.SummaryService) *Server {
	return NewServer(DefaultServerConfig(), bills, summaries, NewZapLogger(zap.NewNop()))
}

func uploadRequest(t *testing.T, target string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(uploadField, "bill.pdf")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(&mockBillService{}, nil)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestSubmitBill(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "created", wantStatus: http.StatusCreated},
		{name: "duplicate", err: fmt.Errorf("%w: bill_id b1", service.ErrDuplicateBill), wantStatus: http.StatusConflict},
		{name: "invalid", err: fmt.Errorf("%w: missing PDF header", service.ErrInvalidDocument), wantStatus: http.StatusBadRequest},
		{name: "storage", err: fmt.Errorf("%w: disk full", service.ErrStorageUnavailable), wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bills := &mockBillService{submitErr: tt.err}
			server := newTestServer(bills, nil)

			rec := httptest.NewRecorder()
			server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills", []byte("%PDF-1.4")))

			assert.Equal(t, tt.wantStatus, rec.Code)
			require.Len(t, bills.submitted, 1)
			assert.Equal(t, []byte("%PDF-1.4"), bills.submitted[0])

			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.err == nil, resp.Success)
		})
	}
}

func TestSubmitBill_ResponseBody(t *testing.T) {
	server := newTestServer(&mockBillService{}, nil)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Data BillResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "bill-1", resp.Data.BillID)
	assert.Equal(t, "03-2024", resp.Data.PeriodMonthYear)
	require.Len(t, resp.Data.Charges, 2)
	assert.Equal(t, "9.19", resp.Data.Charges[0].Amount)
	assert.Equal(t, "0.0723610", resp.Data.Charges[1].Rate)

	// the identifier never appears in responses
	assert.NotContains(t, rec.Body.String(), "JANE DOE")
}

func TestSubmitBill_MissingFile(t *testing.T) {
	bills := &mockBillService{}
	server := newTestServer(bills, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bills", bytes.NewReader(nil))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, bills.submitted)
}

func TestPreviewBill(t *testing.T) {
	server := newTestServer(&mockBillService{}, nil)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills/preview", []byte("%PDF-1.4")))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data PreviewResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Duplicate)
	assert.Equal(t, "bill-1", resp.Data.Bill.BillID)
	assert.Contains(t, resp.Data.Columns, "Customer Charge Amount")
}

func TestExportBills(t *testing.T) {
	server := newTestServer(&mockBillService{}, nil)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bills/export", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "xlsx-bytes", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
}

func TestExportBills_StorageUnavailable(t *testing.T) {
	server := newTestServer(&mockBillService{exportErr: service.ErrStorageUnavailable}, nil)

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/bills/export", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSummarizeBill(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		server := newTestServer(&mockBillService{}, nil)

		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills/summary", []byte("%PDF-1.4")))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("paragraph by default", func(t *testing.T) {
		summaries := &mockSummaryService{}
		server := newTestServer(&mockBillService{}, summaries)

		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills/summary", []byte("%PDF-1.4")))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, port.SummaryParagraph, summaries.lastMode)
		assert.Contains(t, rec.Body.String(), "Electric bill for March 2024.")
	})

	t.Run("bullets", func(t *testing.T) {
		summaries := &mockSummaryService{}
		server := newTestServer(&mockBillService{}, summaries)

		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills/summary?bullets=true", []byte("%PDF-1.4")))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, port.SummaryBullets, summaries.lastMode)
	})

	t.Run("invalid document", func(t *testing.T) {
		summaries := &mockSummaryService{err: fmt.Errorf("%w: no text", service.ErrInvalidDocument)}
		server := newTestServer(&mockBillService{}, summaries)

		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills/summary", []byte("%PDF-1.4")))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUploadTooLarge(t *testing.T) {
	bills := &mockBillService{}
	cfg := DefaultServerConfig()
	cfg.MaxUploadSize = 1024
	server := NewServer(cfg, bills, nil, NewZapLogger(zap.NewNop()))

	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, uploadRequest(t, "/api/bills", bytes.Repeat([]byte("a"), 4096)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, bills.submitted)
}
