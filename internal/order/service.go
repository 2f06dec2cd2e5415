package order

import (
	"context"
	"strings"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/fooddelivery"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/validation"

	"go.uber.org/zap"
)

// Client is the part of the food delivery client orders need.
type Client interface {
	CreateFoodOrder(ctx context.Context, in fooddelivery.CreateOrderInput) envelope.Envelope[*fooddelivery.Order]
	GetUserFoodOrders(ctx context.Context) envelope.Envelope[fooddelivery.List[fooddelivery.Order]]
	GetFoodOrderByID(ctx context.Context, id string) envelope.Envelope[*fooddelivery.Order]
}

// Service places and reads orders of one session.
type Service interface {
	PlaceOrder(ctx context.Context, in CheckoutInput) envelope.Envelope[*fooddelivery.Order]
	List(ctx context.Context) envelope.Envelope[fooddelivery.List[fooddelivery.Order]]
	Get(ctx context.Context, id string) envelope.Envelope[*fooddelivery.Order]
}

type service struct {
	client Client
}

func NewService(client Client) Service {
	return &service{client: client}
}

// PlaceOrder validates in and, only when everything checks out, creates the
// order. All problems are reported together in one VALIDATION_ERROR.
func (s *service) PlaceOrder(ctx context.Context, in CheckoutInput) envelope.Envelope[*fooddelivery.Order] {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Order"),
		zap.String("method", "PlaceOrder"),
		zap.String("restaurant_id", in.RestaurantID),
	)

	if err := in.Validate(); err != nil {
		fields := validation.Fields(err)
		log.Info("checkout rejected", zap.Strings("fields", fields))
		return envelope.Failf[*fooddelivery.Order](envelope.CodeValidation,
			"%s: %s", msgCheckoutInvalid, validation.Message(err))
	}

	res := s.client.CreateFoodOrder(ctx, in.request())
	if !res.Success {
		log.Warn("order creation failed",
			zap.String("code", string(res.Code)),
			zap.String("message", res.Message),
		)
		return res
	}
	if res.Data == nil {
		log.Error("order created without order data")
		return envelope.Fail[*fooddelivery.Order](envelope.CodeMalformedResponse, "order missing from response")
	}

	log.Info("order placed",
		zap.String("order_id", res.Data.ID),
		zap.String("order_number", res.Data.OrderNumber),
		zap.String("total", res.Data.TotalAmount.String()),
	)
	return res
}

func (s *service) List(ctx context.Context) envelope.Envelope[fooddelivery.List[fooddelivery.Order]] {
	return s.client.GetUserFoodOrders(ctx)
}

func (s *service) Get(ctx context.Context, id string) envelope.Envelope[*fooddelivery.Order] {
	if strings.TrimSpace(id) == "" {
		return envelope.Fail[*fooddelivery.Order](envelope.CodeValidation, ErrOrderIDRequired.Error())
	}
	return s.client.GetFoodOrderByID(ctx, id)
}
