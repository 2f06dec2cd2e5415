package address

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/storage"

	"go.uber.org/zap"
)

// DefaultLocationMaxAge is how long a cached location is trusted.
const DefaultLocationMaxAge = 30 * time.Minute

// Service keeps the delivery address and cached location of one session.
type Service interface {
	Save(ctx context.Context, addr DeliveryAddress) (*DeliveryAddress, error)
	Current(ctx context.Context) (*DeliveryAddress, error)
	Clear(ctx context.Context) error

	SaveLocation(ctx context.Context, loc Location) error
	CachedLocation(ctx context.Context) (*Location, error)
}

type service struct {
	store  storage.Store
	maxAge time.Duration
	now    func() time.Time
}

// NewService creates an address service over store. A non-positive maxAge
// falls back to DefaultLocationMaxAge.
func NewService(store storage.Store, maxAge time.Duration) Service {
	if maxAge <= 0 {
		maxAge = DefaultLocationMaxAge
	}
	return &service{store: store, maxAge: maxAge, now: time.Now}
}

func (s *service) Save(ctx context.Context, addr DeliveryAddress) (*DeliveryAddress, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("service", "Address"),
		zap.String("method", "Save"),
	)

	addr = addr.Normalized()
	if err := addr.Validate(); err != nil {
		log.Info("rejected incomplete address", zap.Strings("fields", addr.Missing()))
		return nil, err
	}

	if err := storage.SetJSON(ctx, s.store, storage.KeyDeliveryAddress, addr); err != nil {
		log.Error("failed to save address", zap.Error(err))
		return nil, fmt.Errorf("save address: %w", err)
	}

	log.Info("address saved", zap.String("city", addr.City), zap.String("pincode", addr.Pincode))
	return &addr, nil
}

func (s *service) Current(ctx context.Context) (*DeliveryAddress, error) {
	var addr DeliveryAddress
	err := storage.GetJSON(ctx, s.store, storage.KeyDeliveryAddress, &addr)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoAddress
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to read address", zap.Error(err))
		return nil, fmt.Errorf("read address: %w", err)
	}
	return &addr, nil
}

func (s *service) Clear(ctx context.Context) error {
	if err := s.store.Delete(ctx, storage.KeyDeliveryAddress); err != nil {
		logger.FromCtx(ctx).Error("failed to clear address", zap.Error(err))
		return fmt.Errorf("clear address: %w", err)
	}
	return nil
}

func (s *service) SaveLocation(ctx context.Context, loc Location) error {
	if loc.UpdatedAt.IsZero() {
		loc.UpdatedAt = s.now()
	}
	if err := storage.SetJSON(ctx, s.store, storage.KeyUserLocation, loc); err != nil {
		logger.FromCtx(ctx).Error("failed to cache location", zap.Error(err))
		return fmt.Errorf("cache location: %w", err)
	}
	return nil
}

// CachedLocation returns the stored location unless it is older than the
// configured max age.
func (s *service) CachedLocation(ctx context.Context) (*Location, error) {
	var loc Location
	err := storage.GetJSON(ctx, s.store, storage.KeyUserLocation, &loc)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrNoLocation
	}
	if err != nil {
		return nil, fmt.Errorf("read location: %w", err)
	}

	if s.now().Sub(loc.UpdatedAt) > s.maxAge {
		logger.FromCtx(ctx).Debug("cached location expired", zap.Time("updated_at", loc.UpdatedAt))
		return nil, ErrLocationExpired
	}
	return &loc, nil
}
