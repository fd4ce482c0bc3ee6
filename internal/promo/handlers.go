package promo

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/toybox-bd/storefront-api/internal/cart"
	"github.com/toybox-bd/storefront-api/internal/common"
	"github.com/toybox-bd/storefront-api/internal/money"
	"github.com/toybox-bd/storefront-api/internal/pricing"
)

// Handler exposes promo code validation and administrative endpoints.
type Handler struct {
	Svc *Service
}

type validateRequest struct {
	Code       string             `json:"code" validate:"required"`
	Items      []cart.ItemPayload `json:"items" validate:"required,min=1,dive"`
	ItemsTotal *string            `json:"itemsTotal"`
}

// Validate handles POST /api/v1/promo-codes/validate.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	var req validateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	items, err := cart.ToLineItems(req.Items)
	if err != nil {
		common.WriteError(w, common.ValidationError(err.Error(), nil, err))
		return
	}
	itemsTotal := pricing.ItemsTotal(items)
	if req.ItemsTotal != nil {
		itemsTotal, err = money.Parse(*req.ItemsTotal)
		if err != nil || itemsTotal.IsNegative() {
			common.WriteError(w, common.ValidationError("invalid itemsTotal", map[string]string{"itemsTotal": "is invalid"}, err))
			return
		}
	}
	result, err := h.Svc.Validate(r.Context(), req.Code, items, itemsTotal)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to validate promo code", nil)
		return
	}
	common.Data(w, http.StatusOK, result)
}

// Create handles POST /api/v1/admin/promo-codes.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, p)
}

// Update handles PUT /api/v1/admin/promo-codes/{code}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Update(r.Context(), chi.URLParam(r, "code"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// Get handles GET /api/v1/admin/promo-codes/{code}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	p, err := h.Svc.Get(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
}

// List handles GET /api/v1/admin/promo-codes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo service not configured", nil)
		return
	}
	page := common.ParsePagination(r, 20, 100)
	items, total, err := h.Svc.List(r.Context(), page.PerPage, page.Offset())
	if err != nil {
		h.writeError(w, err)
		return
	}
	page.TotalItems = int(total)
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": page,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidPromo):
		common.WriteError(w, common.ValidationError(err.Error(), nil, err))
	case errors.Is(err, ErrNotFound):
		common.WriteError(w, common.NotFound("promo code not found", err))
	case errors.Is(err, ErrDuplicateCode):
		common.WriteError(w, common.Conflict("CONFLICT", "promo code already exists", err))
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "promo code operation failed", nil)
	}
}
