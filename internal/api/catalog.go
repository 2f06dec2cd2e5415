package api

import (
	"net/http"
	"strings"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/format"
	"fooddelivery-client/internal/fooddelivery"

	"github.com/go-chi/chi/v5"
)

// dishView adds display strings to a dish.
type dishView struct {
	fooddelivery.Dish
	PriceDisplay           string `json:"price_display"`
	PreparationTimeDisplay string `json:"preparation_time_display,omitempty"`
}

func (h *handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()

	filters, err := restaurantFilters(r)
	if err != nil {
		envelope.WriteError(w, envelope.CodeValidation, err.Error())
		return
	}

	res := s.Client.GetAllRestaurants(r.Context(), filters)
	for i := range res.Data {
		h.resolveRestaurantImages(&res.Data[i])
	}
	envelope.Write(w, res)
}

func (h *handler) restaurantCategories(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	res := s.Client.GetRestaurantCategories(r.Context())
	for i := range res.Data {
		res.Data[i].Image = h.image(res.Data[i].Image)
	}
	envelope.Write(w, res)
}

func (h *handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	res := s.Client.GetRestaurantByID(r.Context(), chi.URLParam(r, "id"))
	if res.Data != nil {
		h.resolveRestaurantImages(res.Data)
	}
	envelope.Write(w, res)
}

func (h *handler) restaurantDishes(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	envelope.Write(w, h.dishViews(s.Client.GetDishesByRestaurant(r.Context(), chi.URLParam(r, "id"))))
}

func (h *handler) listDishes(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()

	filters, err := dishFilters(r)
	if err != nil {
		envelope.WriteError(w, envelope.CodeValidation, err.Error())
		return
	}
	envelope.Write(w, h.dishViews(s.Client.GetAllDishes(r.Context(), filters)))
}

func (h *handler) bestsellerDishes(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()
	envelope.Write(w, h.dishViews(s.Client.GetBestsellerDishes(r.Context())))
}

func (h *handler) getDish(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	defer s.Release()

	res := s.Client.GetDishByID(r.Context(), chi.URLParam(r, "id"))
	if !res.Success || res.Data == nil {
		envelope.Write(w, envelope.Recast[*dishView](res))
		return
	}
	view := h.dishView(*res.Data)
	envelope.Write(w, envelope.OK(&view, res.Message))
}

func (h *handler) dishViews(res envelope.Envelope[fooddelivery.List[fooddelivery.Dish]]) envelope.Envelope[[]dishView] {
	if !res.Success {
		return envelope.Recast[[]dishView](res)
	}
	views := make([]dishView, 0, len(res.Data))
	for _, d := range res.Data {
		views = append(views, h.dishView(d))
	}
	return envelope.OK(views, res.Message)
}

func (h *handler) dishView(d fooddelivery.Dish) dishView {
	d.Image = h.image(d.Image)
	for i := range d.Images {
		d.Images[i] = h.image(d.Images[i])
	}
	return dishView{
		Dish:                   d,
		PriceDisplay:           format.Currency(d.EffectivePrice()),
		PreparationTimeDisplay: format.Time(string(d.PreparationTime)),
	}
}

func (h *handler) resolveRestaurantImages(rest *fooddelivery.Restaurant) {
	rest.Image = h.image(rest.Image)
	for i := range rest.Images {
		rest.Images[i] = h.image(rest.Images[i])
	}
}

// image resolves a backend image path, leaving empty values empty so the
// frontend can show its placeholder.
func (h *handler) image(path string) string {
	url, ok := format.ImageURL(h.imageBaseURL, path)
	if !ok {
		return ""
	}
	return url
}

func restaurantFilters(r *http.Request) (fooddelivery.RestaurantFilters, error) {
	q := r.URL.Query()
	f := fooddelivery.RestaurantFilters{
		Search:   strings.TrimSpace(q.Get("search")),
		Cuisine:  strings.TrimSpace(q.Get("cuisine")),
		Category: strings.TrimSpace(q.Get("category")),
		Sort:     strings.TrimSpace(q.Get("sort")),
	}

	var err error
	if f.IsVeg, err = queryBool(r, "is_veg"); err != nil {
		return f, err
	}
	if f.IsOpen, err = queryBool(r, "is_open"); err != nil {
		return f, err
	}
	if f.Page, err = queryInt(r, "page"); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		return f, err
	}
	return f, nil
}

func dishFilters(r *http.Request) (fooddelivery.DishFilters, error) {
	q := r.URL.Query()
	f := fooddelivery.DishFilters{
		RestaurantID: strings.TrimSpace(q.Get("restaurant_id")),
		Category:     strings.TrimSpace(q.Get("category")),
		Search:       strings.TrimSpace(q.Get("search")),
	}

	var err error
	if f.IsVeg, err = queryBool(r, "is_veg"); err != nil {
		return f, err
	}
	if f.IsBestseller, err = queryBool(r, "is_bestseller"); err != nil {
		return f, err
	}
	return f, nil
}
