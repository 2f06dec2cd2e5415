package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"fooddelivery-client/internal/address"
	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/format"
	"fooddelivery-client/internal/fooddelivery"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/order"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// placeOrderRequest checks out the current cart. The saved delivery
// address is used unless one is given.
type placeOrderRequest struct {
	PaymentMethod   order.PaymentMethod      `json:"payment_method"`
	Instructions    string                   `json:"delivery_instructions,omitempty"`
	DeliveryAddress *address.DeliveryAddress `json:"delivery_address,omitempty"`
}

type trackEvent struct {
	OrderID  string              `json:"order_id"`
	Status   order.Status        `json:"status"`
	Previous order.Status        `json:"previous,omitempty"`
	Order    *fooddelivery.Order `json:"order,omitempty"`
	Total    string              `json:"total,omitempty"`
	Error    string              `json:"error,omitempty"`
}

func (h *handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	var body placeOrderRequest
	if !decodeBody(w, r, &body) {
		return
	}

	var addr address.DeliveryAddress
	if body.DeliveryAddress != nil {
		addr = *body.DeliveryAddress
	} else {
		saved, err := s.Address.Current(r.Context())
		switch {
		case errors.Is(err, address.ErrNoAddress):
		case err != nil:
			writeInternal(w, r, err)
			return
		default:
			addr = *saved
		}
	}

	in := order.FromCart(s.Cart.Snapshot(), addr, body.PaymentMethod)
	in.Instructions = body.Instructions

	res := s.Orders.PlaceOrder(r.Context(), in)
	if !res.Success {
		envelope.Write(w, res)
		return
	}

	// The backend empties the cart on checkout.
	if refreshed := s.Cart.Refresh(r.Context()); !refreshed.Success {
		logger.FromCtx(r.Context()).Warn("cart refresh after checkout failed",
			zap.String("code", string(refreshed.Code)))
	}
	envelope.WriteStatus(w, http.StatusCreated, res)
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	envelope.Write(w, s.Orders.List(r.Context()))
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	envelope.Write(w, s.Orders.Get(r.Context(), chi.URLParam(r, "id")))
}

// trackOrder streams status changes as server-sent events until the order
// reaches a terminal status or the caller goes away.
func (h *handler) trackOrder(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	flusher, ok := w.(http.Flusher)
	if !ok {
		envelope.WriteStatus(w, http.StatusInternalServerError,
			envelope.Fail[any](envelope.CodeApplication, "Streaming is not supported"))
		return
	}

	orderID := chi.URLParam(r, "id")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for u := range s.Tracker.Watch(r.Context(), orderID, h.trackInterval) {
		ev := trackEvent{OrderID: orderID, Status: u.Status, Previous: u.Previous, Order: u.Order}
		name := "status"
		if u.Err != nil {
			name = "error"
			ev.Error = u.Err.Error()
		}
		if u.Order != nil {
			ev.Total = format.Currency(u.Order.TotalAmount)
		}

		payload, err := json.Marshal(ev)
		if err != nil {
			logger.FromCtx(r.Context()).Error("failed to encode tracking event", zap.Error(err))
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, payload); err != nil {
			return
		}
		flusher.Flush()
	}
}
