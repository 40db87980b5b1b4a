package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/pos-backend/internal/domain/catalog"
	"github.com/xenking/pos-backend/internal/domain/report"
	"github.com/xenking/pos-backend/internal/domain/transaction"
)

// --- Mock implementations ---

type mockCategoryRepo struct {
	categories []catalog.Category
	created    *catalog.Category
	err        error
}

func (m *mockCategoryRepo) List(_ context.Context) ([]catalog.Category, error) {
	return m.categories, m.err
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id string) (*catalog.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.categories {
		if m.categories[i].ID == id {
			return &m.categories[i], nil
		}
	}
	return nil, catalog.ErrCategoryNotFound
}

func (m *mockCategoryRepo) Create(_ context.Context, c *catalog.Category) error {
	m.created = c
	return m.err
}

func (m *mockCategoryRepo) Update(_ context.Context, id string, upd catalog.CategoryUpdate) (*catalog.Category, error) {
	c, err := m.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	out := *c
	if upd.Name != nil {
		out.Name = *upd.Name
	}
	if upd.Description != nil {
		out.Description = *upd.Description
	}
	return &out, nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id string) error {
	_, err := m.GetByID(context.Background(), id)
	return err
}

type mockItemRepo struct {
	items   []catalog.Item
	created *catalog.Item
	err     error
}

func (m *mockItemRepo) List(_ context.Context) ([]catalog.Item, error) {
	return m.items, m.err
}

func (m *mockItemRepo) ListByCategory(_ context.Context, categoryID string) ([]catalog.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []catalog.Item
	for _, it := range m.items {
		if it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id string) (*catalog.Item, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.items {
		if m.items[i].ID == id {
			return &m.items[i], nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (m *mockItemRepo) Create(_ context.Context, it *catalog.Item) error {
	m.created = it
	return m.err
}

func (m *mockItemRepo) Update(_ context.Context, id string, upd catalog.ItemUpdate) (*catalog.Item, error) {
	it, err := m.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	out := *it
	if upd.Name != nil {
		out.Name = *upd.Name
	}
	if upd.Price != nil {
		out.Price = *upd.Price
	}
	if upd.InStock != nil {
		out.InStock = *upd.InStock
	}
	return &out, nil
}

func (m *mockItemRepo) Delete(_ context.Context, id string) error {
	_, err := m.GetByID(context.Background(), id)
	return err
}

// mockTxStore is a canned transaction.Repository. Each method returns the
// injected error when set; the guard semantics live in the real postgres
// repository and in the service tests, not here.
type mockTxStore struct {
	tx    *transaction.Transaction
	lines []transaction.LineDetail
	err   error
}

func (m *mockTxStore) get(id string) (*transaction.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.tx == nil || m.tx.ID != id {
		return nil, transaction.ErrNotFound
	}
	out := *m.tx
	return &out, nil
}

func (m *mockTxStore) Create(_ context.Context, t *transaction.Transaction) error {
	m.tx = t
	return m.err
}

func (m *mockTxStore) GetByID(_ context.Context, id string) (*transaction.Transaction, error) {
	return m.get(id)
}

func (m *mockTxStore) List(_ context.Context) ([]transaction.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.tx == nil {
		return nil, nil
	}
	return []transaction.Transaction{*m.tx}, nil
}

func (m *mockTxStore) ListOpen(_ context.Context) ([]transaction.Transaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.tx == nil || m.tx.Status != transaction.StatusOpen {
		return nil, nil
	}
	return []transaction.Transaction{*m.tx}, nil
}

func (m *mockTxStore) ListLines(_ context.Context, _ string) ([]transaction.LineDetail, error) {
	return m.lines, m.err
}

func (m *mockTxStore) Rename(_ context.Context, id, customerName string) (*transaction.Transaction, error) {
	t, err := m.get(id)
	if err != nil {
		return nil, err
	}
	t.CustomerName = customerName
	return t, nil
}

func (m *mockTxStore) AddLine(_ context.Context, l *transaction.Line) (*transaction.Transaction, error) {
	t, err := m.get(l.TransactionID)
	if err != nil {
		return nil, err
	}
	t.Total = t.Total.Add(l.TotalPrice)
	m.tx.Total = t.Total
	return t, nil
}

func (m *mockTxStore) UpdateLine(_ context.Context, transactionID, itemID string, quantity int, unitPrice decimal.Decimal) (*transaction.Line, *transaction.Transaction, error) {
	t, err := m.get(transactionID)
	if err != nil {
		return nil, nil, err
	}
	l := &transaction.Line{
		TransactionID: transactionID,
		ItemID:        itemID,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		TotalPrice:    unitPrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
	return l, t, nil
}

func (m *mockTxStore) RemoveLine(_ context.Context, transactionID, _ string) (*transaction.Transaction, error) {
	return m.get(transactionID)
}

func (m *mockTxStore) Close(_ context.Context, id string, paid decimal.Decimal, at time.Time) (*transaction.Transaction, error) {
	t, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if t.Status != transaction.StatusOpen {
		return nil, transaction.ErrInvalidState
	}
	if paid.LessThan(t.Total) {
		return nil, transaction.ErrInsufficientPayment
	}
	change := paid.Sub(t.Total)
	t.Status = transaction.StatusClosed
	t.PaidAmount = &paid
	t.ChangeAmount = &change
	t.ClosedAt = &at
	return t, nil
}

func (m *mockTxStore) Cancel(_ context.Context, id string) (*transaction.Transaction, error) {
	t, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if t.Status != transaction.StatusOpen {
		return nil, transaction.ErrInvalidState
	}
	t.Status = transaction.StatusCancelled
	return t, nil
}

type mockAggregator struct {
	report *report.SalesReport
	err    error
}

func (m *mockAggregator) SalesReport(_ context.Context, start, end time.Time) (*report.SalesReport, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := *m.report
	out.Start = start
	out.End = end
	return &out, nil
}

// --- Helpers ---

type testEnv struct {
	mux        *http.ServeMux
	categories *mockCategoryRepo
	items      *mockItemRepo
	store      *mockTxStore
	reports    *mockAggregator
}

func newTestEnv() *testEnv {
	env := &testEnv{
		categories: &mockCategoryRepo{},
		items:      &mockItemRepo{},
		store:      &mockTxStore{},
		reports: &mockAggregator{report: &report.SalesReport{
			Summary: report.Summary{TotalRevenue: decimal.Zero, AverageTransactionValue: decimal.Zero},
		}},
	}
	svc := transaction.NewService(env.items, env.store, nil)
	h := NewHandler(env.categories, env.items, svc, env.reports)

	env.mux = http.NewServeMux()
	h.Register(env.mux)
	return env
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func testItem(id string, price string, inStock bool) catalog.Item {
	return catalog.Item{
		ID:      id,
		Name:    "Espresso",
		Price:   decimal.RequireFromString(price),
		InStock: inStock,
	}
}

func openTransaction(id string, total string) *transaction.Transaction {
	return &transaction.Transaction{
		ID:     id,
		Status: transaction.StatusOpen,
		Total:  decimal.RequireFromString(total),
	}
}

// --- Tests ---

func TestListCategories(t *testing.T) {
	env := newTestEnv()
	env.categories.categories = []catalog.Category{
		{ID: "c1", Name: "Drinks"},
		{ID: "c2", Name: "Snacks"},
	}

	rec := env.do(t, http.MethodGet, "/api/categories", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"name":"Drinks"`)
	assert.Contains(t, rec.Body.String(), `"name":"Snacks"`)
}

func TestCreateCategory(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/categories", `{"name":"Drinks","description":"Hot and cold"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.categories.created)
	assert.Equal(t, "Drinks", env.categories.created.Name)
	assert.NotEmpty(t, env.categories.created.ID)
}

func TestCreateCategory_MissingName(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/categories", `{"description":"no name"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":400`)
}

func TestGetCategory_NotFound(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/categories/missing", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Category not found")
}

func TestCreateItem(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/items", `{"name":"Latte","price":4.50,"sku":"LAT-1"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, env.items.created)
	assert.Equal(t, "Latte", env.items.created.Name)
	assert.True(t, env.items.created.Price.Equal(decimal.RequireFromString("4.50")))
	assert.True(t, env.items.created.InStock, "items default to in stock")
	assert.Contains(t, rec.Body.String(), `"price":4.50`)
}

func TestCreateItem_NegativePrice(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/items", `{"name":"Latte","price":-1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListItemsByCategory(t *testing.T) {
	env := newTestEnv()
	it := testItem("i1", "4.50", true)
	it.CategoryID = "c1"
	other := testItem("i2", "2.00", true)
	other.CategoryID = "c2"
	env.items.items = []catalog.Item{it, other}

	rec := env.do(t, http.MethodGet, "/api/items/category/c1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"i1"`)
	assert.NotContains(t, rec.Body.String(), `"id":"i2"`)
}

func TestCreateTransaction(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/transactions", `{"customer_name":"Ava"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"open"`)
	assert.Contains(t, rec.Body.String(), `"customer_name":"Ava"`)
	assert.Contains(t, rec.Body.String(), `"total":0.00`)
}

func TestGetTransaction_Details(t *testing.T) {
	env := newTestEnv()
	env.store.tx = openTransaction("t1", "9.00")
	env.store.lines = []transaction.LineDetail{{
		ID:         "l1",
		ItemID:     "i1",
		ItemName:   "Espresso",
		Quantity:   2,
		UnitPrice:  decimal.RequireFromString("4.50"),
		TotalPrice: decimal.RequireFromString("9.00"),
	}}

	rec := env.do(t, http.MethodGet, "/api/transactions/t1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"transaction":`)
	assert.Contains(t, rec.Body.String(), `"item_name":"Espresso"`)
	assert.Contains(t, rec.Body.String(), `"total_price":9.00`)
}

func TestAddTransactionItem(t *testing.T) {
	env := newTestEnv()
	env.store.tx = openTransaction("t1", "0")
	env.items.items = []catalog.Item{testItem("i1", "4.50", true)}

	rec := env.do(t, http.MethodPost, "/api/transactions/t1/items", `{"item_id":"i1","quantity":2}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unit_price":4.50`)
	assert.Contains(t, rec.Body.String(), `"total_price":9.00`)
}

func TestAddTransactionItem_OutOfStock(t *testing.T) {
	env := newTestEnv()
	env.store.tx = openTransaction("t1", "0")
	env.items.items = []catalog.Item{testItem("i1", "4.50", false)}

	rec := env.do(t, http.MethodPost, "/api/transactions/t1/items", `{"item_id":"i1","quantity":1}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "out of stock")
}

func TestAddTransactionItem_ZeroQuantity(t *testing.T) {
	env := newTestEnv()
	env.store.tx = openTransaction("t1", "0")
	env.items.items = []catalog.Item{testItem("i1", "4.50", true)}

	rec := env.do(t, http.MethodPost, "/api/transactions/t1/items", `{"item_id":"i1","quantity":0}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "greater than 0")
}

func TestCloseTransaction(t *testing.T) {
	env := newTestEnv()
	env.store.tx = openTransaction("t1", "20.00")

	rec := env.do(t, http.MethodPost, "/api/transactions/t1/close", `{"paid_amount":50.00}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"closed"`)
	assert.Contains(t, rec.Body.String(), `"change_amount":30.00`)
}

func TestCloseTransaction_InsufficientPayment(t *testing.T) {
	env := newTestEnv()
	env.store.tx = openTransaction("t1", "20.00")

	rec := env.do(t, http.MethodPost, "/api/transactions/t1/close", `{"paid_amount":5.00}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Insufficient payment")
}

func TestCancelTransaction_NotFound(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/transactions/missing/cancel", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSalesReport_InvalidRange(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/reports/sales",
		`{"start_date":"2026-02-01T00:00:00Z","end_date":"2026-01-01T00:00:00Z"}`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "End date must be after start date")
}

func TestDailyReport(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodGet, "/api/reports/daily", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"summary":`)
}

func TestInvalidJSONBody(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/api/categories", `{not json`)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid request body")
}
