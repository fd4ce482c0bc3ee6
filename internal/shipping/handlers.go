package shipping

import (
	"errors"
	"net/http"

	"github.com/toybox-bd/storefront-api/internal/cart"
	"github.com/toybox-bd/storefront-api/internal/common"
	"github.com/toybox-bd/storefront-api/internal/obs"
)

// Handler exposes the shipping quote endpoint.
type Handler struct {
	Metrics *obs.DomainMetrics
}

type quoteRequest struct {
	Zone  string             `json:"zone" validate:"required"`
	Items []cart.ItemPayload `json:"items" validate:"required,min=1,dive"`
}

// Quote prices the cart weight for the requested zone.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	zone, err := ParseZone(req.Zone)
	if err != nil {
		common.WriteError(w, common.ValidationError("invalid zone", map[string]string{"zone": "must be one of [inside outside]"}, err))
		return
	}
	items, err := cart.ToLineItems(req.Items)
	if err != nil {
		common.WriteError(w, itemsError(err))
		return
	}
	quote := CalculateOrderShipping(items, zone)
	h.Metrics.ObserveShippingQuote(zone.String(), quote.Cost.InexactFloat64())
	common.Data(w, http.StatusOK, quote)
}

func itemsError(err error) error {
	if errors.Is(err, cart.ErrEmptyCart) {
		return common.ValidationError("cart is empty", map[string]string{"items": "is required"}, err)
	}
	return common.ValidationError("invalid cart items", map[string]string{"items": err.Error()}, err)
}
