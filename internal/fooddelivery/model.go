package fooddelivery

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"fooddelivery-client/internal/address"

	"github.com/shopspring/decimal"
)

// Restaurant is a catalog entry as returned by /api/restaurants.
type Restaurant struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Address      Location        `json:"address"`
	Cuisines     []string        `json:"cuisines,omitempty"`
	Rating       float64         `json:"rating,omitempty"`
	DeliveryTime FlexString      `json:"delivery_time,omitempty"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	MinOrder     decimal.Decimal `json:"min_order"`
	Image        string          `json:"image,omitempty"`
	Images       []string        `json:"images,omitempty"`
	IsOpen       bool            `json:"is_open"`
	IsVeg        bool            `json:"is_veg"`
}

// Category is a restaurant category. The backend sends either plain names
// or {_id, name} objects.
type Category struct {
	ID    string `json:"_id,omitempty"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

func (c *Category) UnmarshalJSON(b []byte) error {
	if isJSONString(b) {
		var name string
		if err := json.Unmarshal(b, &name); err != nil {
			return err
		}
		*c = Category{ID: name, Name: name}
		return nil
	}
	type plain Category
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Category(p)
	return nil
}

// Dish is a menu item. Prices are authoritative server values.
type Dish struct {
	ID              string              `json:"_id"`
	Name            string              `json:"name"`
	Description     string              `json:"description,omitempty"`
	Price           decimal.Decimal     `json:"price"`
	SalePrice       decimal.NullDecimal `json:"sale_price"`
	IsVeg           bool                `json:"is_veg"`
	IsBestseller    bool                `json:"is_bestseller"`
	IsTrending      bool                `json:"is_trending"`
	IsAvailable     *bool               `json:"is_available,omitempty"`
	PreparationTime FlexString          `json:"preparation_time,omitempty"`
	Category        string              `json:"category,omitempty"`
	Image           string              `json:"image,omitempty"`
	Images          []string            `json:"images,omitempty"`
	Restaurant      RestaurantRef       `json:"restaurant_id"`
}

// EffectivePrice is the sale price when one is set, else the list price.
func (d Dish) EffectivePrice() decimal.Decimal {
	if d.SalePrice.Valid {
		return d.SalePrice.Decimal
	}
	return d.Price
}

// RestaurantRef is a restaurant reference that arrives either as a raw id
// or as an expanded {_id, name, address} object.
type RestaurantRef struct {
	ID      string
	Name    string
	Address Location

	expanded bool
}

// Expanded reports whether the backend sent the full object.
func (r RestaurantRef) Expanded() bool { return r.expanded }

func (r *RestaurantRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case isJSONNull(b):
		*r = RestaurantRef{}
		return nil
	case isJSONString(b):
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = RestaurantRef{ID: id}
		return nil
	}

	var obj struct {
		ID      string   `json:"_id"`
		Name    string   `json:"name"`
		Address Location `json:"address"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return err
	}
	*r = RestaurantRef{ID: obj.ID, Name: obj.Name, Address: obj.Address, expanded: true}
	return nil
}

func (r RestaurantRef) MarshalJSON() ([]byte, error) {
	if !r.expanded {
		if r.ID == "" {
			return []byte("null"), nil
		}
		return json.Marshal(r.ID)
	}
	return json.Marshal(struct {
		ID      string   `json:"_id"`
		Name    string   `json:"name,omitempty"`
		Address Location `json:"address"`
	}{r.ID, r.Name, r.Address})
}

// DishRef is the dish_id of a cart line: a raw id or the expanded dish.
type DishRef struct {
	ID   string
	Dish *Dish
}

// Matches reports whether the reference points at dishID, whichever form
// the backend used.
func (d DishRef) Matches(dishID string) bool {
	return dishID != "" && d.ID == dishID
}

func (d *DishRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case isJSONNull(b):
		*d = DishRef{}
		return nil
	case isJSONString(b):
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*d = DishRef{ID: id}
		return nil
	}

	var dish Dish
	if err := json.Unmarshal(b, &dish); err != nil {
		return err
	}
	*d = DishRef{ID: dish.ID, Dish: &dish}
	return nil
}

func (d DishRef) MarshalJSON() ([]byte, error) {
	if d.Dish != nil {
		return json.Marshal(d.Dish)
	}
	return json.Marshal(d.ID)
}

// Location is an address that arrives either as a single line or as an
// object with street/city parts.
type Location struct {
	Street  string `json:"street,omitempty"`
	Area    string `json:"area,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`

	line string
}

// String joins the parts on one line.
func (l Location) String() string {
	if l.line != "" {
		return l.line
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{l.Street, l.Area, l.City, l.State, l.Pincode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func (l *Location) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case isJSONNull(b):
		*l = Location{}
		return nil
	case isJSONString(b):
		var line string
		if err := json.Unmarshal(b, &line); err != nil {
			return err
		}
		*l = Location{line: line}
		return nil
	}
	type plain Location
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*l = Location(p)
	return nil
}

func (l Location) MarshalJSON() ([]byte, error) {
	if l.line != "" {
		return json.Marshal(l.line)
	}
	type plain Location
	return json.Marshal(plain(l))
}

// Cart is the server-confirmed cart. Totals are never recomputed locally.
type Cart struct {
	ID          string          `json:"_id,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	Items       []CartItem      `json:"items"`
	Restaurant  *RestaurantRef  `json:"restaurant,omitempty"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Taxes       decimal.Decimal `json:"taxes"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	TotalItems  int             `json:"total_items"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty"`
}

// CartItem is one line of a cart.
type CartItem struct {
	ID                  string          `json:"_id"`
	Dish                DishRef         `json:"dish_id"`
	Quantity            int             `json:"quantity"`
	Price               decimal.Decimal `json:"price"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Customizations      []string        `json:"customizations,omitempty"`
}

// IsEmpty is true for a nil cart and for a cart without lines.
func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// ItemCount sums the quantities of every line.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// FindByDish returns the line holding dishID, or nil.
func (c *Cart) FindByDish(dishID string) *CartItem {
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].Dish.Matches(dishID) {
			return &c.Items[i]
		}
	}
	return nil
}

// RestaurantID resolves the restaurant the cart belongs to: the cart level
// reference first, then the restaurant of the first expanded dish.
func (c *Cart) RestaurantID() string {
	if c.IsEmpty() {
		return ""
	}
	if c.Restaurant != nil && c.Restaurant.ID != "" {
		return c.Restaurant.ID
	}
	for _, it := range c.Items {
		if it.Dish.Dish != nil && it.Dish.Dish.Restaurant.ID != "" {
			return it.Dish.Dish.Restaurant.ID
		}
	}
	return ""
}

// Clone returns a deep copy; the copy shares no memory with c.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := *c
	if c.Restaurant != nil {
		r := *c.Restaurant
		out.Restaurant = &r
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		out.UpdatedAt = &t
	}
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		for i, it := range c.Items {
			out.Items[i] = it.clone()
		}
	}
	return &out
}

func (it CartItem) clone() CartItem {
	out := it
	if it.Customizations != nil {
		out.Customizations = append([]string(nil), it.Customizations...)
	}
	if it.Dish.Dish != nil {
		d := it.Dish.Dish.clone()
		out.Dish.Dish = &d
	}
	return out
}

func (d Dish) clone() Dish {
	out := d
	if d.Images != nil {
		out.Images = append([]string(nil), d.Images...)
	}
	if d.IsAvailable != nil {
		v := *d.IsAvailable
		out.IsAvailable = &v
	}
	return out
}

// Order is a placed order. The client only ever reads it back.
type Order struct {
	ID              string                  `json:"_id"`
	OrderNumber     string                  `json:"order_number"`
	Items           []OrderItem             `json:"items"`
	Restaurant      RestaurantRef           `json:"restaurant_id"`
	Status          string                  `json:"status"`
	PaymentMethod   string                  `json:"payment_method,omitempty"`
	PaymentStatus   string                  `json:"payment_status,omitempty"`
	DeliveryAddress address.DeliveryAddress `json:"delivery_address"`
	DeliveryOTP     FlexString              `json:"delivery_otp,omitempty"`
	DriverInfo      *DriverInfo             `json:"driver_info,omitempty"`
	Subtotal        decimal.Decimal         `json:"subtotal"`
	DeliveryFee     decimal.Decimal         `json:"delivery_fee"`
	Taxes           decimal.Decimal         `json:"taxes"`
	TotalAmount     decimal.Decimal         `json:"total_amount"`
	EstimatedTime   FlexString              `json:"estimated_delivery_time,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// OrderItem is a cart line copied into an order at checkout.
type OrderItem struct {
	Dish                DishRef         `json:"dish_id"`
	Name                string          `json:"name,omitempty"`
	Quantity            int             `json:"quantity"`
	Price               decimal.Decimal `json:"price"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	Customizations      []string        `json:"customizations,omitempty"`
}

// DriverInfo is assigned once the order is picked up.
type DriverInfo struct {
	Name          string   `json:"name"`
	Phone         string   `json:"phone,omitempty"`
	VehicleNumber string   `json:"vehicle_number,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

// FlexString accepts a JSON string or number and keeps its text, for fields
// such as preparation_time that the backend sends either way.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isJSONNull(b) {
		*f = ""
		return nil
	}
	if isJSONString(b) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string { return string(f) }

// List decodes a bare JSON array as well as an object wrapping the array
// under any key ({"restaurants": [...], "pagination": {...}}).
type List[T any] []T

func (l *List[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if isJSONNull(b) {
		*l = nil
		return nil
	}

	var items []T
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(b, &wrapper); err != nil {
		return err
	}
	for _, key := range listKeys {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return errNotAList
}

var listKeys = []string{"items", "restaurants", "dishes", "orders", "categories", "docs", "results"}

func isJSONString(b []byte) bool {
	return len(b) > 0 && b[0] == '"'
}

func isJSONNull(b []byte) bool {
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}
