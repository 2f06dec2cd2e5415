package api

import (
	"context"
	"net/http"
	"time"

	"fooddelivery-client/internal/auth"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/middleware"
	"fooddelivery-client/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sessions hands out the per-user session behind a request.
type Sessions interface {
	Get(ctx context.Context, id auth.Identity) (*session.Session, error)
}

// Deps is everything the router wires together.
type Deps struct {
	Sessions       Sessions
	Gatherer       prometheus.Gatherer
	Limiter        *middleware.Limiter
	JWTSecret      string
	AllowedOrigins []string
	ImageBaseURL   string
	// TrackInterval is how often order tracking polls the backend.
	TrackInterval time.Duration
}

func NewRouter(deps Deps) http.Handler {
	h := &handler{
		sessions:      deps.Sessions,
		imageBaseURL:  deps.ImageBaseURL,
		trackInterval: deps.TrackInterval,
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recover,
		logger.RequestIDMiddleware,
		middleware.AccessLog,
		middleware.CORS(deps.AllowedOrigins),
	)

	r.Get("/health", h.health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Auth(deps.JWTSecret))
		if deps.Limiter != nil {
			r.Use(deps.Limiter.Middleware)
		}

		r.Route("/restaurants", func(r chi.Router) {
			r.Get("/", h.listRestaurants)
			r.Get("/categories", h.restaurantCategories)
			r.Get("/{id}", h.getRestaurant)
			r.Get("/{id}/dishes", h.restaurantDishes)
		})

		r.Route("/dishes", func(r chi.Router) {
			r.Get("/", h.listDishes)
			r.Get("/bestsellers", h.bestsellerDishes)
			r.Get("/{id}", h.getDish)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.getCart)
			r.Delete("/", h.clearCart)
			r.Post("/refresh", h.refreshCart)
			r.Post("/items", h.addCartItem)
			r.Post("/items/force", h.forceAddCartItem)
			r.Put("/items/{itemID}", h.updateCartItem)
			r.Delete("/items/{itemID}", h.removeCartItem)
		})

		r.Route("/address", func(r chi.Router) {
			r.Get("/", h.getAddress)
			r.Put("/", h.saveAddress)
			r.Delete("/", h.clearAddress)
		})

		r.Route("/location", func(r chi.Router) {
			r.Get("/", h.getLocation)
			r.Put("/", h.saveLocation)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Post("/", h.placeOrder)
			r.Get("/{id}", h.getOrder)
			r.Get("/{id}/track", h.trackOrder)
		})
	})

	return r
}
