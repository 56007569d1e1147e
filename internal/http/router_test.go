package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/steppin/internal/analytics"
	"github.com/MrJamesThe3rd/steppin/internal/catalog"
	posHttp "github.com/MrJamesThe3rd/steppin/internal/http"
	productHandler "github.com/MrJamesThe3rd/steppin/internal/http/product"
	reportHandler "github.com/MrJamesThe3rd/steppin/internal/http/report"
	saleHandler "github.com/MrJamesThe3rd/steppin/internal/http/sale"
	"github.com/MrJamesThe3rd/steppin/internal/importer"
	"github.com/MrJamesThe3rd/steppin/internal/ledger"
	"github.com/MrJamesThe3rd/steppin/internal/sale"
	"github.com/MrJamesThe3rd/steppin/internal/store/memory"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()

	sizes := catalog.MustSizeRange(catalog.DefaultSizeLabels)
	st := memory.New()

	var (
		catalogService   = catalog.NewService(st, sizes)
		ledgerService    = ledger.NewService(st, time.UTC)
		coordinator      = sale.NewCoordinator(st, sizes)
		analyticsService = analytics.NewService(catalogService, ledgerService, nil, analytics.DefaultOptions())
		importService    = importer.NewService(catalogService)
	)

	router := posHttp.New(
		productHandler.NewHandler(catalogService, importService),
		saleHandler.NewHandler(coordinator, ledgerService),
		reportHandler.NewHandler(analyticsService, ledgerService),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		var raw json.RawMessage
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))

		// Lists decode into "items" so every caller gets a map.
		if len(raw) > 0 && raw[0] == '[' {
			var items []any
			require.NoError(t, json.Unmarshal(raw, &items))

			out = map[string]any{"items": items}
		} else {
			require.NoError(t, json.Unmarshal(raw, &out))
		}
	}

	return resp, out
}

func createRunnerX(t *testing.T, srv *httptest.Server, stock int) string {
	t.Helper()

	body := `{"name":"Runner X","price":"1000","sizes":{"9":` + jsonInt(stock) + `}}`

	resp, out := do(t, srv, http.MethodPost, "/api/v1/products", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	return out["id"].(string)
}

func jsonInt(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestRouter_SellScenario(t *testing.T) {
	srv := newServer(t)
	id := createRunnerX(t, srv, 2)

	resp, out := do(t, srv, http.MethodPost, "/api/v1/sales",
		`{"product_id":"`+id+`","size":"9","quantity":2,"discount_percent":0,"payment_method":"Cash","customer_type":"WalkIn"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "2000", out["total"])
	assert.Equal(t, "Runner X", out["product_name"])

	resp, out = do(t, srv, http.MethodGet, "/api/v1/products/"+id, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), out["sizes"].(map[string]any)["9"])

	resp, out = do(t, srv, http.MethodPost, "/api/v1/sales",
		`{"product_id":"`+id+`","size":"9","quantity":1}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "insufficient_stock", out["error"])
	assert.Equal(t, float64(0), out["available"])

	resp, out = do(t, srv, http.MethodGet, "/api/v1/sales?order=desc", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, out["items"], 1)

	resp, out = do(t, srv, http.MethodGet, "/api/v1/reports/summary?scope=all", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), out["sales_count"])
	assert.Equal(t, "2000", out["total_revenue"])
}

func TestRouter_Errors(t *testing.T) {
	srv := newServer(t)
	id := createRunnerX(t, srv, 3)

	type testCase struct {
		name   string
		method string
		path   string
		body   string
		status int
		kind   string
		field  string
	}

	tests := []testCase{
		{
			name:   "unknown product",
			method: http.MethodPost,
			path:   "/api/v1/sales",
			body:   `{"product_id":"00000000-0000-0000-0000-000000000001","size":"9","quantity":1}`,
			status: http.StatusNotFound,
			kind:   "product_not_found",
			field:  "product_id",
		},
		{
			name:   "zero quantity",
			method: http.MethodPost,
			path:   "/api/v1/sales",
			body:   `{"product_id":"` + id + `","size":"9","quantity":0}`,
			status: http.StatusBadRequest,
			kind:   "invalid_input",
			field:  "quantity",
		},
		{
			name:   "discount too high",
			method: http.MethodPost,
			path:   "/api/v1/sales",
			body:   `{"product_id":"` + id + `","size":"9","quantity":1,"discount_percent":51}`,
			status: http.StatusBadRequest,
			kind:   "invalid_input",
			field:  "discount_percent",
		},
		{
			name:   "unknown payment method",
			method: http.MethodPost,
			path:   "/api/v1/sales",
			body:   `{"product_id":"` + id + `","size":"9","quantity":1,"payment_method":"Cheque"}`,
			status: http.StatusBadRequest,
			kind:   "invalid_input",
			field:  "payment_method",
		},
		{
			name:   "stock for unknown size",
			method: http.MethodPut,
			path:   "/api/v1/products/" + id + "/stock/14",
			body:   `{"quantity":1}`,
			status: http.StatusBadRequest,
			kind:   "invalid_size",
			field:  "size",
		},
		{
			name:   "negative stock",
			method: http.MethodPut,
			path:   "/api/v1/products/" + id + "/stock/9",
			body:   `{"quantity":-1}`,
			status: http.StatusBadRequest,
			kind:   "invalid_input",
			field:  "quantity",
		},
		{
			name:   "blank name",
			method: http.MethodPost,
			path:   "/api/v1/products",
			body:   `{"name":"  ","price":"10"}`,
			status: http.StatusBadRequest,
			kind:   "invalid_input",
			field:  "name",
		},
		{
			name:   "bad scope",
			method: http.MethodGet,
			path:   "/api/v1/reports/summary?scope=week",
			status: http.StatusBadRequest,
			kind:   "invalid_input",
			field:  "scope",
		},
		{
			name:   "bad date",
			method: http.MethodGet,
			path:   "/api/v1/sales?date=15-10-2026",
			status: http.StatusBadRequest,
			kind:   "invalid_input",
			field:  "date",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := do(t, srv, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.kind, out["error"])
			assert.Equal(t, tt.field, out["field"])
		})
	}

	// None of the rejected requests may have touched stock.
	_, out := do(t, srv, http.MethodGet, "/api/v1/products/"+id, "")
	assert.Equal(t, float64(3), out["sizes"].(map[string]any)["9"])
}

func TestRouter_DeleteKeepsHistory(t *testing.T) {
	srv := newServer(t)
	id := createRunnerX(t, srv, 1)

	resp, _ := do(t, srv, http.MethodPost, "/api/v1/sales", `{"product_id":"`+id+`","size":"9","quantity":1,"payment_method":"M-Pesa"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = do(t, srv, http.MethodDelete, "/api/v1/products/"+id, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, out := do(t, srv, http.MethodDelete, "/api/v1/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", out["error"])

	_, out = do(t, srv, http.MethodGet, "/api/v1/sales", "")
	items := out["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "MobileMoney", items[0].(map[string]any)["payment_method"])
}

func TestRouter_SalesCSV(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/reports/sales.csv?date=2020-01-01")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-Sales-Count"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "sales-2020-01-01.csv")
	assert.Equal(t, "Time,Product,Size,Quantity,Unit Price,Discount %,Total,Payment Method,Customer\n", buf.String())
}

func TestRouter_ImportAndSizes(t *testing.T) {
	srv := newServer(t)

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("Name,Price,Category,9,10\nRunner X,1000,Sneakers,2,1\nCourt,800,,0,4\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/products/import", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	_, out := do(t, srv, http.MethodGet, "/api/v1/products", "")
	items := out["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, float64(3), items[0].(map[string]any)["total_stock"])
	assert.Equal(t, "General", items[1].(map[string]any)["category"])

	_, out = do(t, srv, http.MethodGet, "/api/v1/sizes", "")
	assert.Len(t, out["sizes"], len(catalog.DefaultSizeLabels))
}

func TestRouter_Metrics(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
