package address

import (
	"strings"
	"time"

	"fooddelivery-client/internal/validation"
)

// DeliveryAddress is where an order is delivered to. It is saved under
// storage.KeyDeliveryAddress and sent as-is with CreateFoodOrder.
type DeliveryAddress struct {
	Label     string   `json:"label,omitempty"`
	Line1     string   `json:"address_line1" validate:"required"`
	Line2     string   `json:"address_line2,omitempty"`
	Landmark  string   `json:"landmark,omitempty"`
	City      string   `json:"city" validate:"required"`
	State     string   `json:"state" validate:"required"`
	Pincode   string   `json:"pincode" validate:"required,len=6,numeric"`
	Phone     string   `json:"phone" validate:"required,min=10,max=15"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

// Validate returns every problem with the address combined, or nil.
func (a DeliveryAddress) Validate() error {
	return validation.Struct(a.Normalized())
}

// Missing lists the JSON names of required fields that are empty or invalid.
// An empty result means the address can be used for checkout.
func (a DeliveryAddress) Missing() []string {
	return validation.Fields(a.Validate())
}

// String renders the address on one line for receipts and logs.
func (a DeliveryAddress) String() string {
	parts := make([]string, 0, 6)
	for _, p := range []string{a.Line1, a.Line2, a.Landmark, a.City, a.State, a.Pincode} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Normalized trims every field and drops spaces inside the pincode.
func (a DeliveryAddress) Normalized() DeliveryAddress {
	a.Label = strings.TrimSpace(a.Label)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.Landmark = strings.TrimSpace(a.Landmark)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.ReplaceAll(strings.TrimSpace(a.Pincode), " ", "")
	a.Phone = strings.TrimSpace(a.Phone)
	return a
}

// Location is the last known position of the user, kept under
// storage.KeyUserLocation.
type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Address   string    `json:"address,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}
