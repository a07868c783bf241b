package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/toolcrib/toolcrib-backend/internal/borrowers"
	"github.com/toolcrib/toolcrib-backend/internal/catalog"
	"github.com/toolcrib/toolcrib-backend/internal/clock"
	"github.com/toolcrib/toolcrib-backend/internal/lending"
	"github.com/toolcrib/toolcrib-backend/internal/reports"
	"github.com/toolcrib/toolcrib-backend/pkg/config"
	"github.com/toolcrib/toolcrib-backend/pkg/logger"
	"github.com/toolcrib/toolcrib-backend/pkg/types"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dsn := "file:routes_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE items (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  location TEXT NOT NULL DEFAULT '',
  stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE borrowers (
  id TEXT PRIMARY KEY,
  national_id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  phone TEXT NOT NULL DEFAULT '',
  course TEXT NOT NULL DEFAULT 'none',
  email TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE loan_records (
  id TEXT PRIMARY KEY,
  borrower_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL CHECK (quantity > 0),
  borrowed_at DATETIME NOT NULL,
  due_at DATETIME NOT NULL,
  returned_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE active_loans (
  borrower_id TEXT NOT NULL,
  item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  updated_at DATETIME,
  PRIMARY KEY (borrower_id, item_id)
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}

	logg := logger.New(logger.Options{ServiceName: "routes-test"})
	itemsRepo := catalog.NewRepository(db)
	borrowerRepo := borrowers.NewRepository(db)

	catalogSvc, err := catalog.NewService(itemsRepo)
	require.NoError(t, err)
	borrowerSvc, err := borrowers.NewService(borrowerRepo)
	require.NoError(t, err)

	engine, err := lending.NewEngine(lending.EngineParams{
		Tx:        testTxRunner{db: db},
		Items:     itemsRepo,
		Borrowers: borrowerRepo,
		History:   lending.NewHistoryRepository(db),
		Active:    lending.NewActiveRepository(db),
		Clock:     clock.NewSystem(),
	})
	require.NoError(t, err)

	reportsSvc, err := reports.NewService(db, clock.NewSystem(), 0)
	require.NoError(t, err)

	cfg := &config.Config{App: config.AppConfig{Env: config.AppEnvDev, Port: "0"}}
	return NewRouter(RouterParams{
		Config:    cfg,
		Logger:    logg,
		Catalog:   catalogSvc,
		Borrowers: borrowerSvc,
		Lending:   engine,
		Reports:   reportsSvc,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope types.SuccessEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok, "expected object payload, got %T", envelope.Data)
	return data
}

func TestHealthLive(t *testing.T) {
	h := newTestRouter(t)
	w := doJSON(t, h, http.MethodGet, "/health/live", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, config.AppEnvDev, w.Header().Get("X-Toolcrib-Env"))
}

func TestBorrowReturnFlowOverHTTP(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/items", map[string]any{
		"name": "angle grinder", "location": "shelf C", "stock": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	itemID := decodeData(t, w)["id"].(string)

	w = doJSON(t, h, http.MethodPost, "/api/v1/borrowers", map[string]any{
		"national_id": "1002003001", "name": "Ana Reyes",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	borrowerID := decodeData(t, w)["id"].(string)

	dueAt := time.Now().UTC().AddDate(0, 0, 7).Format(time.RFC3339)
	w = doJSON(t, h, http.MethodPost, "/api/v1/loans/borrow", map[string]any{
		"borrower_id": borrowerID, "item_id": itemID, "quantity": 2, "due_at": dueAt,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/items/%s", itemID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(3), decodeData(t, w)["stock"])

	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/borrowers/%s/items", borrowerID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodPost, "/api/v1/loans/return", map[string]any{
		"borrower_id": borrowerID, "item_id": itemID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, h, http.MethodGet, fmt.Sprintf("/api/v1/items/%s", itemID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, float64(5), decodeData(t, w)["stock"])

	w = doJSON(t, h, http.MethodGet, "/api/v1/loans/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeData(t, w)
	entries := page["entries"].([]any)
	require.Len(t, entries, 1)
}

func TestBorrowBeyondStockReturnsConflict(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/items", map[string]any{"name": "ladder", "stock": 1})
	itemID := decodeData(t, w)["id"].(string)
	w = doJSON(t, h, http.MethodPost, "/api/v1/borrowers", map[string]any{"national_id": "42", "name": "Ben"})
	borrowerID := decodeData(t, w)["id"].(string)

	dueAt := time.Now().UTC().AddDate(0, 0, 3).Format(time.RFC3339)
	w = doJSON(t, h, http.MethodPost, "/api/v1/loans/borrow", map[string]any{
		"borrower_id": borrowerID, "item_id": itemID, "quantity": 2, "due_at": dueAt,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.Equal(t, "INSUFFICIENT_STOCK", envelope.Error.Code)
	require.NotNil(t, envelope.Error.Details)
}

func TestReturnWithoutLoanReturnsConflict(t *testing.T) {
	h := newTestRouter(t)

	w := doJSON(t, h, http.MethodPost, "/api/v1/items", map[string]any{"name": "saw", "stock": 1})
	itemID := decodeData(t, w)["id"].(string)
	w = doJSON(t, h, http.MethodPost, "/api/v1/borrowers", map[string]any{"national_id": "43", "name": "Mia"})
	borrowerID := decodeData(t, w)["id"].(string)

	w = doJSON(t, h, http.MethodPost, "/api/v1/loans/return", map[string]any{
		"borrower_id": borrowerID, "item_id": itemID,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	require.Equal(t, "NO_ACTIVE_LOAN", envelope.Error.Code)
}

func TestUnknownItemReturnsNotFound(t *testing.T) {
	h := newTestRouter(t)
	w := doJSON(t, h, http.MethodGet, "/api/v1/items/"+uuid.NewString(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestMalformedIDReturnsValidation(t *testing.T) {
	h := newTestRouter(t)
	w := doJSON(t, h, http.MethodGet, "/api/v1/items/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
