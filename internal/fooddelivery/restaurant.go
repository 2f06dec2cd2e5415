package fooddelivery

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"fooddelivery-client/internal/envelope"
)

// RestaurantFilters narrows GetAllRestaurants. Zero values are not sent.
type RestaurantFilters struct {
	Search   string
	Cuisine  string
	Category string
	IsVeg    *bool
	IsOpen   *bool
	Sort     string
	Page     int
	Limit    int
}

func (f RestaurantFilters) values() url.Values {
	q := url.Values{}
	setString(q, "search", f.Search)
	setString(q, "cuisine", f.Cuisine)
	setString(q, "category", f.Category)
	setBool(q, "is_veg", f.IsVeg)
	setBool(q, "is_open", f.IsOpen)
	setString(q, "sort", f.Sort)
	setInt(q, "page", f.Page)
	setInt(q, "limit", f.Limit)
	return q
}

func (c *Client) GetAllRestaurants(ctx context.Context, filters RestaurantFilters) envelope.Envelope[List[Restaurant]] {
	return call[List[Restaurant]](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/restaurants",
		query:    filters.values(),
		endpoint: "restaurants.list",
	})
}

func (c *Client) GetRestaurantCategories(ctx context.Context) envelope.Envelope[List[Category]] {
	return call[List[Category]](ctx, c, request{
		method:   http.MethodGet,
		path:     c.categoriesPath,
		endpoint: "restaurants.categories",
	})
}

func (c *Client) GetRestaurantByID(ctx context.Context, id string) envelope.Envelope[*Restaurant] {
	if res, ok := requireID[*Restaurant]("restaurant id", id); !ok {
		return res
	}
	return call[*Restaurant](ctx, c, request{
		method:   http.MethodGet,
		path:     "/api/restaurants/" + url.PathEscape(id),
		endpoint: "restaurants.get",
	})
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setBool(q url.Values, key string, v *bool) {
	if v != nil {
		q.Set(key, strconv.FormatBool(*v))
	}
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}
