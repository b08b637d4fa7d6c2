package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"crediario/config"
	"crediario/database"
	"crediario/models"
	"crediario/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.CORSOrigins = []string{"http://localhost:5173"}
	cfg.DB.Driver = config.DriverSQLite
	cfg.DB.Path = filepath.Join(t.TempDir(), "crediario.db")
	cfg.DB.LogLevel = "silent"
	cfg.RateLimit.Requests = 1000
	cfg.RateLimit.Window = time.Minute
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config, open bool) *gin.Engine {
	t.Helper()
	db := database.NewDatabase(cfg)
	t.Cleanup(func() { db.Close() })

	today := time.Date(2024, 4, 15, 10, 0, 0, 0, time.Local)
	facade := services.NewFacade(db, nil, services.WithClock(func() time.Time { return today }))
	if open {
		require.NoError(t, facade.Open(context.Background()))
	}
	return NewRouter(cfg, facade)
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, testConfig(t), true)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestPurchaseFlowOverHTTP(t *testing.T) {
	r := newTestRouter(t, testConfig(t), true)

	w := doJSON(t, r, http.MethodPost, "/api/clientes", map[string]interface{}{
		"nome": "Ana", "cpf": "111", "telefone": "(11) 90000-0001",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	customer := decode[models.Customer](t, w)
	assert.Equal(t, models.CustomerStatusActive, customer.Status)

	w = doJSON(t, r, http.MethodPost, "/api/cartoes", map[string]interface{}{
		"cliente_id": customer.ID, "numero_cartao": "C1", "limite": 5000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	card := decode[models.Card](t, w)

	w = doJSON(t, r, http.MethodPost, "/api/compras", map[string]interface{}{
		"cartao_id":     card.ID,
		"descricao":     "Geladeira",
		"valor_total":   1000,
		"num_parcelas":  10,
		"valor_parcela": 100,
		"data_compra":   "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[services.PurchaseResult](t, w)
	require.Len(t, result.Payments, 10)
	assert.Equal(t, "2024-02-15", result.Payments[0].DueDate)
	assert.Equal(t, "2024-11-15", result.Payments[9].DueDate)

	w = doJSON(t, r, http.MethodGet, "/api/pagamentos/vencidos", nil)
	require.Equal(t, http.StatusOK, w.Code)
	overdue := decode[[]models.Payment](t, w)
	require.Len(t, overdue, 2)

	w = doJSON(t, r, http.MethodPost, "/api/pagamentos/"+itoa(overdue[0].ID)+"/pagar", map[string]string{
		"data_pagamento": "2024-04-10",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	paid := decode[models.Payment](t, w)
	assert.Equal(t, models.PaymentStatusPaid, paid.Status)

	w = doJSON(t, r, http.MethodPost, "/api/pagamentos/"+itoa(overdue[0].ID)+"/pagar", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Esta parcela já foi paga", decode[map[string]string](t, w)["error"])

	w = doJSON(t, r, http.MethodGet, "/api/cobrancas?status=vencido", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]services.CollectionItem](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/api/estatisticas", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[services.Statistics](t, w)
	assert.Equal(t, 1, stats.ActiveCustomers)
	assert.Equal(t, 1, stats.ActiveCards)
	assert.Equal(t, 1, stats.OverdueCount)

	w = doJSON(t, r, http.MethodGet, "/api/clientes/"+itoa(customer.ID)+"/cartoes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Card](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/api/cartoes/"+itoa(card.ID)+"/compras", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Purchase](t, w), 1)
}

func TestCustomerRoutes(t *testing.T) {
	r := newTestRouter(t, testConfig(t), true)

	w := doJSON(t, r, http.MethodPost, "/api/clientes", map[string]string{"nome": "Ana", "cpf": "111"})
	require.Equal(t, http.StatusCreated, w.Code)
	customer := decode[models.Customer](t, w)

	w = doJSON(t, r, http.MethodPost, "/api/clientes", map[string]string{"nome": "Ana B", "cpf": "111"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/clientes", map[string]string{"nome": "Sem CPF"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "cpf")

	w = doJSON(t, r, http.MethodPatch, "/api/clientes/"+itoa(customer.ID), map[string]string{"telefone": "3333-3333"})
	require.Equal(t, http.StatusOK, w.Code)
	updated := decode[models.Customer](t, w)
	assert.Equal(t, "3333-3333", updated.Phone)
	assert.Equal(t, "Ana", updated.Name)

	w = doJSON(t, r, http.MethodGet, "/api/clientes?nome=AN&status=ativo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Customer](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/api/clientes/404", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Cliente não encontrado", decode[map[string]string](t, w)["error"])

	w = doJSON(t, r, http.MethodGet, "/api/clientes/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnopenedStoreReturns503(t *testing.T) {
	r := newTestRouter(t, testConfig(t), false)

	w := doJSON(t, r, http.MethodGet, "/api/clientes", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.RateLimit.Requests = 2
	r := newTestRouter(t, cfg, true)

	assert.Equal(t, http.StatusOK, doJSON(t, r, http.MethodGet, "/health", nil).Code)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, http.StatusTooManyRequests, doJSON(t, r, http.MethodGet, "/health", nil).Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&services.Failure{Err: services.ErrValidation}))
	assert.Equal(t, http.StatusNotFound, statusFor(&services.Failure{Err: database.ErrNotFound}))
	assert.Equal(t, http.StatusConflict, statusFor(&services.Failure{Err: services.ErrPaymentAlreadyPaid}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(&services.Failure{Err: database.ErrNotInitialized}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&services.Failure{Err: database.ErrStorageFailure}))
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
