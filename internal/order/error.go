package order

import "errors"

var (
	ErrOrderIDRequired = errors.New("order id is required")
)

const msgCheckoutInvalid = "Please complete your order details"
