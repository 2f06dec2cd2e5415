package order

import (
	"strings"

	"fooddelivery-client/internal/address"
	"fooddelivery-client/internal/fooddelivery"
	"fooddelivery-client/internal/validation"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending        Status = "pending"
	StatusAccepted       Status = "accepted"
	StatusReady          Status = "ready"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:        {StatusAccepted, StatusCancelled},
	StatusAccepted:       {StatusReady, StatusCancelled},
	StatusReady:          {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered},
}

// ParseStatus normalizes the spellings the backend uses ("Out for
// delivery", "OUT-FOR-DELIVERY", "canceled").
func ParseStatus(s string) Status {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	if norm == "canceled" {
		return StatusCancelled
	}
	return Status(norm)
}

// Known reports whether s is one of the statuses above.
func (s Status) Known() bool {
	if s == StatusDelivered || s == StatusCancelled {
		return true
	}
	_, ok := transitions[s]
	return ok
}

// IsTerminal is true once an order can no longer change.
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransition reports whether an order may move directly from one status
// to the other.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentUPI    PaymentMethod = "upi"
	PaymentCard   PaymentMethod = "card"
	PaymentWallet PaymentMethod = "wallet"
)

// CheckoutInput is everything needed to place an order. It is validated in
// full before the backend is called.
type CheckoutInput struct {
	RestaurantID    string                  `json:"restaurant_id" validate:"required"`
	Items           []CheckoutItem          `json:"items" validate:"required,min=1,dive"`
	DeliveryAddress address.DeliveryAddress `json:"delivery_address"`
	PaymentMethod   PaymentMethod           `json:"payment_method" validate:"required,oneof=cod upi card wallet"`
	Instructions    string                  `json:"delivery_instructions,omitempty" validate:"max=500"`
}

type CheckoutItem struct {
	DishID              string          `json:"dish_id" validate:"required"`
	Quantity            int             `json:"quantity" validate:"gt=0"`
	Price               decimal.Decimal `json:"price"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Customizations      []string        `json:"customizations,omitempty"`
}

// Validate returns every violation combined, or nil.
func (in CheckoutInput) Validate() error {
	in.DeliveryAddress = in.DeliveryAddress.Normalized()
	in.RestaurantID = strings.TrimSpace(in.RestaurantID)
	return validation.Struct(in)
}

// FromCart copies a cart snapshot into a checkout input.
func FromCart(cart *fooddelivery.Cart, addr address.DeliveryAddress, method PaymentMethod) CheckoutInput {
	in := CheckoutInput{
		DeliveryAddress: addr,
		PaymentMethod:   method,
	}
	if cart == nil {
		return in
	}

	in.RestaurantID = cart.RestaurantID()
	in.Items = make([]CheckoutItem, 0, len(cart.Items))
	for _, it := range cart.Items {
		in.Items = append(in.Items, CheckoutItem{
			DishID:              it.Dish.ID,
			Quantity:            it.Quantity,
			Price:               it.Price,
			SpecialInstructions: it.SpecialInstructions,
			Customizations:      append([]string(nil), it.Customizations...),
		})
	}
	return in
}

func (in CheckoutInput) request() fooddelivery.CreateOrderInput {
	items := make([]fooddelivery.OrderItemInput, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, fooddelivery.OrderItemInput{
			DishID:              it.DishID,
			Quantity:            it.Quantity,
			Price:               it.Price,
			SpecialInstructions: it.SpecialInstructions,
			Customizations:      it.Customizations,
		})
	}
	return fooddelivery.CreateOrderInput{
		RestaurantID:         strings.TrimSpace(in.RestaurantID),
		Items:                items,
		DeliveryAddress:      in.DeliveryAddress.Normalized(),
		PaymentMethod:        string(in.PaymentMethod),
		DeliveryInstructions: strings.TrimSpace(in.Instructions),
	}
}
