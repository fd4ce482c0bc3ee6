package checkout

import (
	"errors"
	"net/http"

	"github.com/toybox-bd/storefront-api/internal/cart"
	"github.com/toybox-bd/storefront-api/internal/common"
	"github.com/toybox-bd/storefront-api/internal/shipping"
)

// Handler serves the checkout quote and settle endpoints.
type Handler struct {
	Svc *Service
}

type quoteRequest struct {
	Zone      string             `json:"zone" validate:"required"`
	Items     []cart.ItemPayload `json:"items" validate:"required,min=1,dive"`
	PromoCode string             `json:"promoCode" validate:"max=64"`
}

type settleRequest struct {
	OrderRef string `json:"orderRef" validate:"required,max=128"`
	quoteRequest
}

// Quote handles POST /api/v1/checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		common.WriteError(w, err)
		return
	}
	q, err := h.Svc.Quote(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, q)
}

// Settle handles POST /api/v1/checkout/settle.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var req settleRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		common.WriteError(w, err)
		return
	}
	out, err := h.Svc.Settle(r.Context(), SettleInput{OrderRef: req.OrderRef, QuoteInput: in})
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, out)
}

func (req quoteRequest) toInput() (QuoteInput, error) {
	zone, err := shipping.ParseZone(req.Zone)
	if err != nil {
		return QuoteInput{}, common.ValidationError("invalid zone", map[string]string{"zone": "must be one of [inside outside]"}, err)
	}
	items, err := cart.ToLineItems(req.Items)
	if err != nil {
		return QuoteInput{}, common.ValidationError(err.Error(), nil, err)
	}
	return QuoteInput{Zone: zone, Items: items, PromoCode: req.PromoCode}, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPromoUnavailable):
		common.WriteError(w, common.Conflict("PROMO_UNAVAILABLE", "promo code is no longer available", err))
	case errors.Is(err, cart.ErrEmptyCart):
		common.WriteError(w, common.ValidationError(err.Error(), nil, err))
	case common.IsAppError(err):
		common.WriteError(w, err)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout failed", nil)
	}
}
