package service

import (
	"context"
	"strings"
	"sync"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/internal/domain/entity"
)

type mockPageSource struct {
	pages []string
	err   error
	calls int
}

func (m *mockPageSource) Pages(ctx context.Context, content []byte) ([]string, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.pages, nil
}

type mockSheet struct {
	mu        sync.Mutex
	headers   []string
	rows      []entity.SheetRow
	findErr   error
	appendErr error
}

func (m *mockSheet) Headers(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.headers...), nil
}

func (m *mockSheet) Rows(ctx context.Context) ([]entity.SheetRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.SheetRow(nil), m.rows...), nil
}

func (m *mockSheet) FindByContentHash(ctx context.Context, hash string) (*entity.SheetRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	for i := range m.rows {
		if m.rows[i].Get(entity.ColumnBillHash) == hash {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (m *mockSheet) AppendRow(ctx context.Context, row entity.SheetRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	known := make(map[string]bool, len(m.headers))
	for _, h := range m.headers {
		known[h] = true
	}
	for _, c := range row.Columns {
		if !known[c] {
			m.headers = append(m.headers, c)
			known[c] = true
		}
	}
	m.rows = append(m.rows, row)
	return nil
}

type mockExporter struct {
	headers []string
	rows    []entity.SheetRow
}

func (m *mockExporter) Export(headers []string, rows []entity.SheetRow) ([]byte, error) {
	m.headers = headers
	m.rows = rows
	return []byte(strings.Join(headers, ",")), nil
}

func (m *mockExporter) ContentType() string {
	return "text/csv"
}

type mockArchive struct {
	stored map[string][]byte
	err    error
}

func (m *mockArchive) Store(ctx context.Context, record *entity.BillRecord, content []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if m.stored == nil {
		m.stored = make(map[string][]byte)
	}
	path := record.ContentHash + ".pdf"
	m.stored[path] = content
	return path, nil
}

type mockPublisher struct {
	published []*entity.BillRecord
	err       error
}

func (m *mockPublisher) PublishRecord(ctx context.Context, record *entity.BillRecord) error {
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, record)
	return nil
}

func (m *mockPublisher) Close() error {
	return nil
}

type mockSummarizer struct {
	calls []port.SummaryMode
	texts []string
	err   error
}

func (m *mockSummarizer) Summarize(ctx context.Context, text string, mode port.SummaryMode) (string, error) {
	m.calls = append(m.calls, mode)
	m.texts = append(m.texts, text)
	if m.err != nil {
		return "", m.err
	}
	return "summary:" + string(mode), nil
}

type mockLookup struct {
	ids map[string]string
	err error
}

func (m *mockLookup) BillIDForHash(ctx context.Context, contentHash string) (string, bool, error) {
	if m.err != nil {
		return "", false, m.err
	}
	id, ok := m.ids[contentHash]
	return id, ok, nil
}

// billPages is a two-page bill with one delivery table
var billPages = []string{
	strings.Join([]string{
		"Delmarva Power",
		"Your electric bill - March 2024",
		"JANE DOE",
		"123 MAIN ST",
	}, "\n"),
	strings.Join([]string{
		"Type of charge How we calculate this charge Amount($)",
		"Customer Charge 9.19",
		"Distribution Charge First 500 kWh X $0.0723610 per kWh 36.18",
		"Total Electric Delivery Charges 45.37",
	}, "\n"),
}

func pdfBytes(body string) []byte {
	return []byte("%PDF-1.4\n" + body)
}
