package promo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

func newTestRouter(q Querier) http.Handler {
	svc, _ := newTestService(q)
	h := &Handler{Svc: svc}
	r := chi.NewRouter()
	r.Post("/api/v1/promo-codes/validate", h.Validate)
	r.Route("/api/v1/admin/promo-codes", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{code}", h.Get)
		r.Put("/{code}", h.Update)
	})
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

type validateResponse struct {
	Data struct {
		Valid                bool      `json:"valid"`
		DiscountAmount       string    `json:"discountAmount"`
		ApplicableItemsTotal string    `json:"applicableItemsTotal"`
		IsStoreWide          bool      `json:"isStoreWide"`
		ErrorKind            ErrorKind `json:"errorKind"`
	} `json:"data"`
}

func TestValidateHandlerComputesDiscount(t *testing.T) {
	p := *storeWide(DiscountPercentage, "50")
	p.MaxDiscountAmount = decPtr("100")
	router := newTestRouter(newMemQueries(p))

	rr := do(t, router, http.MethodPost, "/api/v1/promo-codes/validate",
		`{"code":"toys","items":[{"productId":1,"unitPrice":"250","quantity":2}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.True(t, resp.Data.Valid)
	require.Equal(t, "100", resp.Data.DiscountAmount)
	require.Equal(t, "500", resp.Data.ApplicableItemsTotal)
	require.True(t, resp.Data.IsStoreWide)
}

func TestValidateHandlerIneligibleIsNotAnError(t *testing.T) {
	router := newTestRouter(newMemQueries())
	rr := do(t, router, http.MethodPost, "/api/v1/promo-codes/validate",
		`{"code":"GHOST","items":[{"productId":1,"unitPrice":"250","quantity":1}]}`)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp validateResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp.Data.Valid)
	require.Equal(t, KindNotFound, resp.Data.ErrorKind)
}

func TestValidateHandlerRejectsMalformedInput(t *testing.T) {
	router := newTestRouter(newMemQueries())
	cases := map[string]string{
		"missing code": `{"items":[{"productId":1,"unitPrice":"10","quantity":1}]}`,
		"empty cart":   `{"code":"TOYS","items":[]}`,
		"bad price":    `{"code":"TOYS","items":[{"productId":1,"unitPrice":"x","quantity":1}]}`,
		"zero qty":     `{"code":"TOYS","items":[{"productId":1,"unitPrice":"10","quantity":0}]}`,
		"bad total":    `{"code":"TOYS","itemsTotal":"lots","items":[{"productId":1,"unitPrice":"10","quantity":1}]}`,
	}
	for name, body := range cases {
		rr := do(t, router, http.MethodPost, "/api/v1/promo-codes/validate", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, name)
		require.Contains(t, rr.Body.String(), "VALIDATION_ERROR", name)
	}
}

func TestAdminLifecycle(t *testing.T) {
	router := newTestRouter(newMemQueries())

	rr := do(t, router, http.MethodPost, "/api/v1/admin/promo-codes",
		`{"code":"eid25","discountType":"percentage","discountValue":"25","maxDiscountAmount":"300","isStoreWide":true}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"code":"EID25"`)

	rr = do(t, router, http.MethodPost, "/api/v1/admin/promo-codes",
		`{"code":"EID25","discountType":"fixed","discountValue":"10","isStoreWide":true}`)
	require.Equal(t, http.StatusConflict, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/v1/admin/promo-codes",
		`{"code":"HALF","discountType":"ratio","discountValue":"10","isStoreWide":true}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/v1/admin/promo-codes/eid25", "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodPut, "/api/v1/admin/promo-codes/EID25",
		`{"discountType":"fixed","discountValue":"150","isStoreWide":true,"isActive":false}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.Contains(t, rr.Body.String(), `"isActive":false`)

	rr = do(t, router, http.MethodGet, "/api/v1/admin/promo-codes/NOPE", "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/v1/admin/promo-codes/?page=1&limit=10", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "1", rr.Header().Get("X-Total-Count"))
	var list struct {
		Data       []PromoCode `json:"data"`
		Pagination struct {
			TotalItems int `json:"total_items"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Data, 1)
	require.Equal(t, 1, list.Pagination.TotalItems)
}
