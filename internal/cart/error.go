package cart

import (
	"errors"

	"fooddelivery-client/internal/envelope"
)

// CodeClosed is returned by every operation of a closed store.
const CodeClosed envelope.Code = "CART_CLOSED"

var (
	ErrAlreadyOpen = errors.New("cart store already opened")
	ErrClosed      = errors.New("cart store is closed")
)

const (
	msgInvalidQuantity = "quantity must be at least 1"
	msgMissingDish     = "dish id is required"
	msgMissingItem     = "item id is required"
	msgVendorConflict  = "Your cart contains dishes from another restaurant. Clear the cart to add this dish."
)
