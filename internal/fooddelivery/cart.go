package fooddelivery

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"fooddelivery-client/internal/envelope"
)

// AddToCartInput is the body of POST /api/food-cart/add.
type AddToCartInput struct {
	DishID              string   `json:"dish_id"`
	Quantity            int      `json:"quantity"`
	SpecialInstructions string   `json:"special_instructions,omitempty"`
	Customizations      []string `json:"customizations,omitempty"`
}

// GetFoodCart fetches the current cart. A user without a cart gets a
// successful envelope with a nil cart.
func (c *Client) GetFoodCart(ctx context.Context) envelope.Envelope[*Cart] {
	return call[*Cart](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/food-cart",
		endpoint: "cart.get",
	})
}

func (c *Client) AddToFoodCart(ctx context.Context, in AddToCartInput) envelope.Envelope[*Cart] {
	if strings.TrimSpace(in.DishID) == "" {
		return envelope.Fail[*Cart](envelope.CodeValidation, "dish id is required")
	}
	if in.Quantity <= 0 {
		return envelope.Fail[*Cart](envelope.CodeValidation, "quantity must be positive")
	}
	return call[*Cart](ctx, c, request{
		method:   http.MethodPost,
		path:     "/api/food-cart/add",
		body:     in,
		endpoint: "cart.add",
	})
}

func (c *Client) UpdateFoodCartItem(ctx context.Context, itemID string, quantity int) envelope.Envelope[*Cart] {
	if res, ok := requireID[*Cart]("item id", itemID); !ok {
		return res
	}
	if quantity <= 0 {
		return envelope.Fail[*Cart](envelope.CodeValidation, "quantity must be positive")
	}
	return call[*Cart](ctx, c, request{
		method:   http.MethodPut,
		path:     "/api/food-cart/items/" + url.PathEscape(itemID),
		body:     map[string]int{"quantity": quantity},
		endpoint: "cart.update",
	})
}

func (c *Client) RemoveFoodCartItem(ctx context.Context, itemID string) envelope.Envelope[*Cart] {
	if res, ok := requireID[*Cart]("item id", itemID); !ok {
		return res
	}
	return call[*Cart](ctx, c, request{
		method:   http.MethodDelete,
		path:     "/api/food-cart/items/" + url.PathEscape(itemID),
		endpoint: "cart.remove",
	})
}

func (c *Client) ClearFoodCart(ctx context.Context) envelope.Envelope[*Cart] {
	return call[*Cart](ctx, c, request{
		method:   http.MethodDelete,
		path:     "/api/food-cart/clear",
		endpoint: "cart.clear",
	})
}
