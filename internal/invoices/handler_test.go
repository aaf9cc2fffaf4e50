package invoices

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edi-sejahtera/sejahtera/internal/platform/httpx"
)

func newTestRouter(t *testing.T) (http.Handler, *memoryRepo) {
	svc, repo, _ := newFixture(t)
	r := chi.NewRouter()
	r.Route("/api/invoices", NewHandler(quietLogger(), svc).MountRoutes)
	return r, repo
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	router.ServeHTTP(rr, req)
	return rr
}

const createBody = `{
	"invoice_number": "001/X/2024",
	"customer_id": 1,
	"date": "2024-10-17",
	"po_number": "PO-77",
	"delivery_note_branch_id": 10,
	"invoice_branch_id": 11,
	"lines": [{"item_id": 1, "quantity": 4}]
}`

func TestHandlerCreateGetList(t *testing.T) {
	router, repo := newTestRouter(t)

	rr := serve(router, http.MethodPost, "/api/invoices/", createBody)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, "001/X/2024", created.Number)
	assert.Equal(t, "4000", created.Subtotal.String())
	assert.Equal(t, int64(6), repo.stockOf(1))

	rr = serve(router, http.MethodGet, "/api/invoices/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"invoice_number":"001/X/2024"`)

	rr = serve(router, http.MethodGet, "/api/invoices/?search=001", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []Invoice
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestHandlerInsufficientStock(t *testing.T) {
	router, _ := newTestRouter(t)
	body := strings.Replace(createBody, `{"item_id": 1, "quantity": 4}`, `{"item_id": 2, "quantity": 5}`, 1)

	rr := serve(router, http.MethodPost, "/api/invoices/", body)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, `Insufficient stock for item "Tinta Printer". Available: 3, Requested: 5`, problem.Detail)
	assert.EqualValues(t, 2, problem.Extra["item_id"])
	assert.EqualValues(t, 3, problem.Extra["available"])
	assert.EqualValues(t, 5, problem.Extra["requested"])
}

func TestHandlerUnknownItem(t *testing.T) {
	router, _ := newTestRouter(t)
	body := strings.Replace(createBody, `"item_id": 1`, `"item_id": 99`, 1)

	rr := serve(router, http.MethodPost, "/api/invoices/", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"item_id":99`)
}

func TestHandlerErrorMapping(t *testing.T) {
	router, _ := newTestRouter(t)

	rr := serve(router, http.MethodGet, "/api/invoices/404", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(router, http.MethodPost, "/api/invoices/", `{"invoice_number":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), `"errors"`)

	rr = serve(router, http.MethodPost, "/api/invoices/", `{"unknown":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/api/invoices/", createBody).Code)
	rr = serve(router, http.MethodPost, "/api/invoices/", createBody)
	assert.Equal(t, http.StatusConflict, rr.Code)

	foreign := strings.Replace(createBody, `"invoice_branch_id": 11`, `"invoice_branch_id": 20`, 1)
	foreign = strings.Replace(foreign, "001/X/2024", "002/X/2024", 1)
	rr = serve(router, http.MethodPost, "/api/invoices/", foreign)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invoice_branch_id")
}

func TestHandlerUpdateAndDelete(t *testing.T) {
	router, repo := newTestRouter(t)
	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/api/invoices/", createBody).Code)

	updated := strings.Replace(createBody, `"quantity": 4`, `"quantity": 1`, 1)
	rr := serve(router, http.MethodPut, "/api/invoices/1", updated)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, int64(9), repo.stockOf(1))

	rr = serve(router, http.MethodDelete, "/api/invoices/1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(9), repo.stockOf(1))
}

func TestHandlerGenerateNumber(t *testing.T) {
	router, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/api/invoices/", createBody).Code)

	rr := serve(router, http.MethodGet, "/api/invoices/generate-invoice-number?date=2024-10-30", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"invoice_number":"002/X/2024"}`, rr.Body.String())

	rr = serve(router, http.MethodGet, "/api/invoices/generate-invoice-number?date=30-10-2024", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
