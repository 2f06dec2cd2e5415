package fooddelivery

import (
	"context"
	"net/http"
	"net/url"

	"fooddelivery-client/internal/envelope"
)

// DishFilters narrows GetAllDishes. Zero values are not sent.
type DishFilters struct {
	RestaurantID string
	IsBestseller *bool
	IsVeg        *bool
	Category     string
	Search       string
}

func (f DishFilters) values() url.Values {
	q := url.Values{}
	setString(q, "restaurant_id", f.RestaurantID)
	setBool(q, "is_bestseller", f.IsBestseller)
	setBool(q, "is_veg", f.IsVeg)
	setString(q, "category", f.Category)
	setString(q, "search", f.Search)
	return q
}

func (c *Client) GetAllDishes(ctx context.Context, filters DishFilters) envelope.Envelope[List[Dish]] {
	return call[List[Dish]](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/dishes",
		query:    filters.values(),
		endpoint: "dishes.list",
	})
}

func (c *Client) GetDishesByRestaurant(ctx context.Context, restaurantID string) envelope.Envelope[List[Dish]] {
	if res, ok := requireID[List[Dish]]("restaurant id", restaurantID); !ok {
		return res
	}
	return c.GetAllDishes(ctx, DishFilters{RestaurantID: restaurantID})
}

func (c *Client) GetDishByID(ctx context.Context, id string) envelope.Envelope[*Dish] {
	if res, ok := requireID[*Dish]("dish id", id); !ok {
		return res
	}
	return call[*Dish](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/dishes/" + url.PathEscape(id),
		endpoint: "dishes.get",
	})
}

func (c *Client) GetBestsellerDishes(ctx context.Context) envelope.Envelope[List[Dish]] {
	bestseller := true
	return c.GetAllDishes(ctx, DishFilters{IsBestseller: &bestseller})
}
