package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/report"
	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/sqlite"
)

type testServer struct {
	handler http.Handler
	jwt     *auth.JWTManager
}

type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	assert.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	reg := prometheus.NewRegistry()
	l := ledger.New(store, metrics.New(reg))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	return &testServer{
		handler: NewRouter(NewHandler(l, report.New(l)), jwtManager, reg),
		jwt:     jwtManager,
	}
}

func (s *testServer) do(t *testing.T, user, method, path string, body any) (int, response) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		assert.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		token, err := s.jwt.Generate(user)
		assert.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func dinnerRequest() map[string]any {
	return map[string]any{
		"title":        "Dinner",
		"total_amount": "300",
		"split_method": "equal",
		"participants": []map[string]any{
			{"user_id": "alice"}, {"user_id": "bob"}, {"user_id": "carol"},
		},
	}
}

func TestPublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, "", http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, resp.Success)

	status, resp = s.do(t, "", http.MethodGet, "/api/balances", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, resp.Success)
	assert.NotEqual(t, "", resp.Error)
}

func TestExpenseAndSettlementFlow(t *testing.T) {
	s := newTestServer(t)

	status, resp := s.do(t, "alice", http.MethodPost, "/api/expenses", dinnerRequest())
	assert.Equal(t, http.StatusCreated, status, resp.Error)
	var expense expenseResponse
	assert.NoError(t, json.Unmarshal(resp.Data, &expense))
	assert.Equal(t, "alice", expense.PaidBy)
	assert.Equal(t, "alice", expense.CreatedBy)
	assert.Equal(t, 3, len(expense.Participants))

	status, resp = s.do(t, "bob", http.MethodGet, "/api/balances?action=recalculate", nil)
	assert.Equal(t, http.StatusOK, status, resp.Error)
	var balances balancesResponse
	assert.NoError(t, json.Unmarshal(resp.Data, &balances))
	assert.Equal(t, 1, len(balances.Balances))
	assert.Equal(t, "alice", balances.Balances[0].CounterpartyID)
	assert.Equal(t, "100", balances.Balances[0].Owes.String())
	assert.Equal(t, "100", balances.Summary.TotalIOwe.String())

	status, resp = s.do(t, "bob", http.MethodPost, "/api/settlements", map[string]any{
		"to_user_id": "alice",
		"amount":     "100",
		"expense_id": expense.ID,
	})
	assert.Equal(t, http.StatusCreated, status, resp.Error)
	var settlement settlementResponse
	assert.NoError(t, json.Unmarshal(resp.Data, &settlement))
	assert.Equal(t, "bob", settlement.FromUserID)

	status, resp = s.do(t, "bob", http.MethodGet, "/api/balances", nil)
	assert.Equal(t, http.StatusOK, status)
	balances = balancesResponse{}
	assert.NoError(t, json.Unmarshal(resp.Data, &balances))
	assert.Equal(t, 0, len(balances.Balances))

	t.Run("outsiders cannot read", func(t *testing.T) {
		status, resp := s.do(t, "mallory", http.MethodGet, "/api/expenses/"+expense.ID, nil)
		assert.Equal(t, http.StatusForbidden, status)
		assert.False(t, resp.Success)
		status, _ = s.do(t, "mallory", http.MethodGet, "/api/settlements/"+settlement.ID, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("involved users read", func(t *testing.T) {
		for _, user := range []string{"alice", "bob", "carol"} {
			status, resp := s.do(t, user, http.MethodGet, "/api/expenses/"+expense.ID, nil)
			assert.Equal(t, http.StatusOK, status, "%s: %s", user, resp.Error)
		}
		for _, user := range []string{"alice", "bob"} {
			status, resp := s.do(t, user, http.MethodGet, "/api/settlements/"+settlement.ID, nil)
			assert.Equal(t, http.StatusOK, status, "%s: %s", user, resp.Error)
		}
		status, _ := s.do(t, "carol", http.MethodGet, "/api/settlements/"+settlement.ID, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("only the creator edits", func(t *testing.T) {
		status, _ := s.do(t, "bob", http.MethodPatch, "/api/expenses/"+expense.ID, map[string]any{"title": "Mine now"})
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("settled expense is locked", func(t *testing.T) {
		status, _ := s.do(t, "alice", http.MethodPatch, "/api/expenses/"+expense.ID, map[string]any{"title": "Renamed"})
		assert.Equal(t, http.StatusConflict, status)
		status, _ = s.do(t, "alice", http.MethodDelete, "/api/expenses/"+expense.ID, nil)
		assert.Equal(t, http.StatusConflict, status)
	})

	t.Run("outsiders cannot delete a settlement", func(t *testing.T) {
		status, _ := s.do(t, "carol", http.MethodDelete, "/api/settlements/"+settlement.ID, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("receiver deletes the settlement", func(t *testing.T) {
		status, _ := s.do(t, "alice", http.MethodDelete, "/api/settlements/"+settlement.ID, nil)
		assert.Equal(t, http.StatusOK, status)
		status, _ = s.do(t, "alice", http.MethodGet, "/api/settlements/"+settlement.ID, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("lists", func(t *testing.T) {
		status, resp := s.do(t, "carol", http.MethodGet, "/api/expenses?limit=10", nil)
		assert.Equal(t, http.StatusOK, status)
		var list struct {
			Expenses []expenseResponse `json:"expenses"`
		}
		assert.NoError(t, json.Unmarshal(resp.Data, &list))
		assert.Equal(t, 1, len(list.Expenses))
	})

	t.Run("metrics exported", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "splitledger_settlements_recorded_total 1")
		assert.Contains(t, rec.Body.String(), "splitledger_settlements_deleted_total 1")
	})
}

func TestGroupFilterAndStats(t *testing.T) {
	s := newTestServer(t)

	trip := dinnerRequest()
	trip["title"] = "Cabin"
	trip["group_id"] = "trip"
	status, resp := s.do(t, "alice", http.MethodPost, "/api/expenses", trip)
	assert.Equal(t, http.StatusCreated, status, resp.Error)
	var cabin expenseResponse
	assert.NoError(t, json.Unmarshal(resp.Data, &cabin))
	assert.Equal(t, "trip", cabin.GroupID)

	status, resp = s.do(t, "alice", http.MethodPost, "/api/expenses", dinnerRequest())
	assert.Equal(t, http.StatusCreated, status, resp.Error)

	for _, body := range []map[string]any{
		{"to_user_id": "alice", "amount": "100", "expense_id": cabin.ID},
		{"to_user_id": "alice", "amount": "25.50"},
	} {
		status, resp = s.do(t, "bob", http.MethodPost, "/api/settlements", body)
		assert.Equal(t, http.StatusCreated, status, resp.Error)
	}

	t.Run("expenses by group", func(t *testing.T) {
		status, resp := s.do(t, "carol", http.MethodGet, "/api/expenses?group_id=trip", nil)
		assert.Equal(t, http.StatusOK, status, resp.Error)
		var list struct {
			Expenses []expenseResponse `json:"expenses"`
		}
		assert.NoError(t, json.Unmarshal(resp.Data, &list))
		assert.Equal(t, 1, len(list.Expenses))
		assert.Equal(t, cabin.ID, list.Expenses[0].ID)
	})

	t.Run("settlements by group", func(t *testing.T) {
		status, resp := s.do(t, "alice", http.MethodGet, "/api/settlements?group_id=trip", nil)
		assert.Equal(t, http.StatusOK, status, resp.Error)
		var list struct {
			Settlements []settlementResponse `json:"settlements"`
		}
		assert.NoError(t, json.Unmarshal(resp.Data, &list))
		assert.Equal(t, 1, len(list.Settlements))
		assert.Equal(t, cabin.ID, list.Settlements[0].ExpenseID)
	})

	t.Run("stats", func(t *testing.T) {
		status, resp := s.do(t, "bob", http.MethodGet, "/api/stats", nil)
		assert.Equal(t, http.StatusOK, status, resp.Error)
		var stats statsResponse
		assert.NoError(t, json.Unmarshal(resp.Data, &stats))
		assert.Equal(t, 2, stats.Settlements.PaymentsMade)
		assert.Equal(t, 0, stats.Settlements.PaymentsReceived)
		assert.Equal(t, "125.50", stats.Settlements.TotalPaid.StringFixed(2))
		assert.Equal(t, 0, stats.Expenses.ExpensesPaid)
		assert.Equal(t, 2, stats.Expenses.ExpensesInvolved)
		assert.Equal(t, "200", stats.Expenses.TotalOwed.String())
		assert.Equal(t, 2, stats.Expenses.RecentExpenses)
	})
}

func TestErrorStatuses(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"self settlement", http.MethodPost, "/api/settlements",
			map[string]any{"to_user_id": "alice", "amount": "5"}, http.StatusBadRequest},
		{"non-positive amount", http.MethodPost, "/api/settlements",
			map[string]any{"to_user_id": "bob", "amount": "0"}, http.StatusBadRequest},
		{"unknown expense on settlement", http.MethodPost, "/api/settlements",
			map[string]any{"to_user_id": "bob", "amount": "5", "expense_id": "nope"}, http.StatusNotFound},
		{"malformed json", http.MethodPost, "/api/expenses", "{", http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/expenses", `{"titel":"x"}`, http.StatusBadRequest},
		{"unknown split method", http.MethodPost, "/api/expenses",
			map[string]any{"title": "x", "total_amount": "10", "split_method": "shares",
				"participants": []map[string]any{{"user_id": "alice"}}}, http.StatusBadRequest},
		{"exact mismatch", http.MethodPost, "/api/expenses",
			map[string]any{"title": "x", "total_amount": "10", "split_method": "exact",
				"participants": []map[string]any{{"user_id": "alice", "amount": "4"}, {"user_id": "bob", "amount": "4"}}},
			http.StatusBadRequest},
		{"missing expense", http.MethodGet, "/api/expenses/nope", nil, http.StatusNotFound},
		{"missing settlement delete", http.MethodDelete, "/api/settlements/nope", nil, http.StatusNotFound},
		{"unknown balances action", http.MethodGet, "/api/balances?action=explode", nil, http.StatusBadRequest},
		{"rebuild", http.MethodGet, "/api/balances?action=rebuild", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := s.do(t, "alice", tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, status, resp.Error)
			if tt.want >= 400 {
				assert.False(t, resp.Success)
				assert.NotEqual(t, "", resp.Error)
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", calculator.ErrSplitMismatch), http.StatusBadRequest},
		{ledger.ErrInvalidSettlement, http.StatusBadRequest},
		{ledger.ErrExpenseLocked, http.StatusConflict},
		{fmt.Errorf("expense x: %w", storage.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: gave up", storage.ErrTransient), http.StatusServiceUnavailable},
		{errForbidden, http.StatusForbidden},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}
