package api

import (
	"net/http"

	"fooddelivery-client/internal/cart"
	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/format"
	"fooddelivery-client/internal/fooddelivery"

	"github.com/go-chi/chi/v5"
)

// cartView is the cart as served to the frontend. Totals are the server's
// figures formatted for display.
type cartView struct {
	Cart          *fooddelivery.Cart `json:"cart"`
	CartItemCount int                `json:"cart_item_count"`
	State         string             `json:"state"`
	Totals        *cartTotals        `json:"totals,omitempty"`
}

type cartTotals struct {
	Subtotal    string `json:"subtotal"`
	DeliveryFee string `json:"delivery_fee"`
	Taxes       string `json:"taxes"`
	Total       string `json:"total"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

func newCartView(store *cart.Store, c *fooddelivery.Cart) cartView {
	view := cartView{
		Cart:          c,
		CartItemCount: c.ItemCount(),
		State:         store.State().String(),
	}
	if c != nil {
		view.Totals = &cartTotals{
			Subtotal:    format.Currency(c.Subtotal),
			DeliveryFee: format.Currency(c.DeliveryFee),
			Taxes:       format.Currency(c.Taxes),
			Total:       format.Currency(c.TotalAmount),
		}
	}
	return view
}

// writeCart answers a cart mutation. Failures keep their code and message,
// successes carry the cart the mutation produced.
func writeCart(w http.ResponseWriter, store *cart.Store, res envelope.Envelope[*fooddelivery.Cart]) {
	if !res.Success {
		envelope.Write(w, envelope.Recast[cartView](res))
		return
	}
	envelope.Write(w, envelope.OK(newCartView(store, res.Data), res.Message))
}

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	envelope.Write(w, envelope.OK(newCartView(s.Cart, s.Cart.Snapshot()), ""))
}

func (h *handler) refreshCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	writeCart(w, s.Cart, s.Cart.Refresh(r.Context()))
}

func (h *handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	var in cart.AddItemInput
	if !decodeBody(w, r, &in) {
		return
	}
	writeCart(w, s.Cart, s.Cart.AddToFoodCart(r.Context(), in))
}

func (h *handler) forceAddCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	var in cart.AddItemInput
	if !decodeBody(w, r, &in) {
		return
	}
	writeCart(w, s.Cart, s.Cart.ForceAddToFoodCart(r.Context(), in))
}

func (h *handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	var body updateQuantityRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Quantity == nil {
		envelope.WriteError(w, envelope.CodeValidation, "quantity is required")
		return
	}
	writeCart(w, s.Cart, s.Cart.UpdateFoodCartItem(r.Context(), chi.URLParam(r, "itemID"), *body.Quantity))
}

func (h *handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	writeCart(w, s.Cart, s.Cart.RemoveFromFoodCart(r.Context(), chi.URLParam(r, "itemID")))
}

func (h *handler) clearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	writeCart(w, s.Cart, s.Cart.ClearFoodCart(r.Context()))
}
