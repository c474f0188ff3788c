package handler

import (
	"net/http"
	"testing"

	"github.com/erp/smarterp/internal/domain/finance"
	"github.com/erp/smarterp/internal/domain/partner"
	"github.com/erp/smarterp/internal/domain/report"
	"github.com/erp/smarterp/internal/interfaces/http/dto"
	"github.com/erp/smarterp/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerHandler_CRUD(t *testing.T) {
	env := newAPIEnv(t)

	w := testutil.PerformRequest(t, env.engine, http.MethodPost, "/api/v1/customers", map[string]any{
		"name":        "Acme Corporation",
		"segment":     "A",
		"creditLimit": 50000,
		"id":          "ignored",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := testutil.DecodeData[partner.Customer](t, w)
	require.NotEmpty(t, created.ID)
	assert.NotEqual(t, "ignored", created.ID)
	assert.Equal(t, "Acme Corporation", created.Name)

	w = testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/customers/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50000.0, testutil.DecodeData[partner.Customer](t, w).CreditLimit)

	w = testutil.PerformRequest(t, env.engine, http.MethodPut, "/api/v1/customers/"+created.ID, map[string]any{
		"riskScore": 42,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := testutil.DecodeData[partner.Customer](t, w)
	assert.Equal(t, 42.0, updated.RiskScore)
	assert.Equal(t, "Acme Corporation", updated.Name)

	w = testutil.PerformRequest(t, env.engine, http.MethodDelete, "/api/v1/customers/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/customers/"+created.ID, nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
}

func TestCustomerHandler_List(t *testing.T) {
	env := newAPIEnv(t)
	env.seedCustomer(t, "Zeta Ltd")
	env.seedCustomer(t, "Alpha AŞ")
	env.seedCustomer(t, "Mira Gıda")

	t.Run("sorted by name by default", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/customers", nil)
		require.Equal(t, http.StatusOK, w.Code)

		got := testutil.DecodeData[[]partner.Customer](t, w)
		require.Len(t, got, 3)
		assert.Equal(t, "Alpha AŞ", got[0].Name)
		assert.Equal(t, "Zeta Ltd", got[2].Name)

		env := testutil.DecodeEnvelope(t, w)
		assert.EqualValues(t, 3, env.Meta["total"])
		assert.EqualValues(t, DefaultListLimit, env.Meta["limit"])
	})

	t.Run("order and limit", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/customers?order=desc&limit=2", nil)
		got := testutil.DecodeData[[]partner.Customer](t, w)
		require.Len(t, got, 2)
		assert.Equal(t, "Zeta Ltd", got[0].Name)
	})

	t.Run("unknown sort field", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/customers?order_by=password", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("limit out of range", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/customers?limit=0", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w = testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/customers?limit=501", nil)
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("empty collection is an empty list", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/payments", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, string(testutil.DecodeEnvelope(t, w).Data))
	})
}

func TestCustomerHandler_CreateInvalid(t *testing.T) {
	env := newAPIEnv(t)

	t.Run("failing business rule", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodPost, "/api/v1/customers", map[string]any{
			"name":    "Acme",
			"segment": "Z",
		})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodPost, "/api/v1/customers", "not an object")
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidJSON)
	})

	t.Run("update of a missing customer", func(t *testing.T) {
		w := testutil.PerformRequest(t, env.engine, http.MethodPut, "/api/v1/customers/missing", map[string]any{"riskScore": 1})
		testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)
	})

	t.Run("update that breaks validation", func(t *testing.T) {
		id := env.seedCustomer(t, "Acme")
		w := testutil.PerformRequest(t, env.engine, http.MethodPut, "/api/v1/customers/"+id, map[string]any{"riskScore": 250})
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	})
}

func TestInvoiceHandler_Pending(t *testing.T) {
	env := newAPIEnv(t)
	customerID := env.seedCustomer(t, "Acme")

	for _, inv := range []map[string]any{
		{"invoiceNumber": "INV-1", "customerId": customerID, "total": 100, "paymentStatus": "unpaid", "dueDate": "2025-03-10T00:00:00Z"},
		{"invoiceNumber": "INV-2", "customerId": customerID, "total": 200, "paymentStatus": "paid", "dueDate": "2025-03-05T00:00:00Z"},
		{"invoiceNumber": "INV-3", "customerId": customerID, "total": 300, "paymentStatus": "overdue", "dueDate": "2025-02-01T00:00:00Z"},
	} {
		w := testutil.PerformRequest(t, env.engine, http.MethodPost, "/api/v1/invoices", inv)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/invoices/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := testutil.DecodeData[[]finance.Invoice](t, w)

	var numbers []string
	for _, inv := range pending {
		numbers = append(numbers, inv.InvoiceNumber)
	}
	assert.ElementsMatch(t, []string{"INV-1", "INV-3"}, numbers)

	w = testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/invoices?order_by=createdAt", nil)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}

func TestKPIHandler(t *testing.T) {
	env := newAPIEnv(t)

	w := testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/kpi/latest", nil)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	for _, month := range []string{"2025-01", "2025-02"} {
		w := testutil.PerformRequest(t, env.engine, http.MethodPost, "/api/v1/kpi", map[string]any{
			"month":        month,
			"totalOrders":  10,
			"totalRevenue": 1000,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w = testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/kpi/latest", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-02", testutil.DecodeData[report.KPI](t, w).Month)

	w = testutil.PerformRequest(t, env.engine, http.MethodGet, "/api/v1/kpi", nil)
	kpis := testutil.DecodeData[[]report.KPI](t, w)
	require.Len(t, kpis, 2)
	assert.Equal(t, "2025-02", kpis[0].Month)

	w = testutil.PerformRequest(t, env.engine, http.MethodPost, "/api/v1/kpi", map[string]any{"month": "March"})
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
}
