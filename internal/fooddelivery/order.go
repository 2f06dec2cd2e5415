package fooddelivery

import (
	"context"
	"net/http"
	"net/url"

	"fooddelivery-client/internal/address"
	"fooddelivery-client/internal/envelope"

	"github.com/shopspring/decimal"
)

// CreateOrderInput is the body of POST /api/food-orders. Callers validate it
// before sending; the client passes it through.
type CreateOrderInput struct {
	RestaurantID         string                  `json:"restaurant_id"`
	Items                []OrderItemInput        `json:"items"`
	DeliveryAddress      address.DeliveryAddress `json:"delivery_address"`
	PaymentMethod        string                  `json:"payment_method"`
	DeliveryInstructions string                  `json:"delivery_instructions,omitempty"`
}

// OrderItemInput is one line of a new order.
type OrderItemInput struct {
	DishID              string          `json:"dish_id"`
	Quantity            int             `json:"quantity"`
	Price               decimal.Decimal `json:"price"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Customizations      []string        `json:"customizations,omitempty"`
}

func (c *Client) CreateFoodOrder(ctx context.Context, in CreateOrderInput) envelope.Envelope[*Order] {
	return call[*Order](ctx, c, request{
		method:   http.MethodPost,
		path:     "/api/food-orders",
		body:     in,
		endpoint: "orders.create",
	})
}

func (c *Client) GetUserFoodOrders(ctx context.Context) envelope.Envelope[List[Order]] {
	return call[List[Order]](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/food-orders",
		endpoint: "orders.list",
	})
}

func (c *Client) GetFoodOrderByID(ctx context.Context, id string) envelope.Envelope[*Order] {
	if res, ok := requireID[*Order]("order id", id); !ok {
		return res
	}
	return call[*Order](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/food-orders/" + url.PathEscape(id),
		endpoint: "orders.get",
	})
}
