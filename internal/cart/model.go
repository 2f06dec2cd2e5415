package cart

import "fooddelivery-client/internal/fooddelivery"

// State is the lifecycle position of a Store.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateLoaded
	StateEmpty
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateEmpty:
		return "empty"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// AddItemInput describes a dish to put in the cart. RestaurantID is
// optional; when known it lets the store reject a second restaurant's dish
// without a round trip.
type AddItemInput struct {
	DishID              string   `json:"dish_id"`
	Quantity            int      `json:"quantity"`
	RestaurantID        string   `json:"restaurant_id,omitempty"`
	SpecialInstructions string   `json:"special_instructions,omitempty"`
	Customizations      []string `json:"customizations,omitempty"`
}

func (in AddItemInput) request() fooddelivery.AddToCartInput {
	return fooddelivery.AddToCartInput{
		DishID:              in.DishID,
		Quantity:            in.Quantity,
		SpecialInstructions: in.SpecialInstructions,
		Customizations:      append([]string(nil), in.Customizations...),
	}
}

// Listener receives a private copy of every snapshot the store applies. A
// nil cart means the cart was cleared or could not be loaded.
type Listener func(cart *fooddelivery.Cart)
