package cart

import (
	"context"
	"strings"
	"sync"
	"time"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/fooddelivery"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/metrics"

	"go.uber.org/zap"
)

// DefaultInitialLoadDelay staggers the first cart fetch behind the other
// startup requests of a session.
const DefaultInitialLoadDelay = time.Second

// Service is the part of the food delivery client the store calls.
type Service interface {
	GetFoodCart(ctx context.Context) envelope.Envelope[*fooddelivery.Cart]
	AddToFoodCart(ctx context.Context, in fooddelivery.AddToCartInput) envelope.Envelope[*fooddelivery.Cart]
	UpdateFoodCartItem(ctx context.Context, itemID string, quantity int) envelope.Envelope[*fooddelivery.Cart]
	RemoveFoodCartItem(ctx context.Context, itemID string) envelope.Envelope[*fooddelivery.Cart]
	ClearFoodCart(ctx context.Context) envelope.Envelope[*fooddelivery.Cart]
}

// Store owns the server-confirmed cart of one session. Mutations run one at
// a time; every request is numbered when issued and a response older than
// the snapshot already applied is dropped. All methods are safe for
// concurrent use.
type Store struct {
	svc          Service
	initialDelay time.Duration
	metrics      *metrics.Metrics
	log          *zap.Logger

	// mutation serializes every call that talks to the backend on behalf
	// of a caller.
	mutation sync.Mutex

	mu        sync.RWMutex
	state     State
	cart      *fooddelivery.Cart
	issued    uint64
	applied   uint64
	listeners map[int]Listener
	nextID    int

	// notify keeps listener deliveries in apply order.
	notify sync.Mutex

	ready     chan struct{}
	readyOnce sync.Once
	cancel    context.CancelFunc
	loadDone  chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithInitialLoadDelay overrides DefaultInitialLoadDelay. Zero loads
// immediately.
func WithInitialLoadDelay(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.initialDelay = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStore creates an unopened store over svc.
func NewStore(svc Service, opts ...Option) *Store {
	s := &Store{
		svc:          svc,
		initialDelay: DefaultInitialLoadDelay,
		state:        StateUninitialized,
		listeners:    make(map[int]Listener),
		ready:        make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.log == nil {
		s.log = logger.L()
	}
	s.log = s.log.With(zap.String("component", "cart_store"))
	return s
}

// Open starts the delayed initial load. The load runs until it settles or
// ctx is cancelled or the store is closed.
func (s *Store) Open(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateUninitialized:
	default:
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	if s.loadDone != nil {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}

	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.loadDone = make(chan struct{})
	s.state = StateLoading
	s.mu.Unlock()

	go s.initialLoad(loadCtx)
	return nil
}

func (s *Store) initialLoad(ctx context.Context) {
	defer close(s.loadDone)
	defer s.markReady()

	if s.initialDelay > 0 {
		timer := time.NewTimer(s.initialDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			s.settleEmpty()
			return
		case <-timer.C:
		}
	}

	// The load queues behind any mutation already in flight.
	s.mutation.Lock()
	defer s.mutation.Unlock()

	if ctx.Err() != nil {
		s.settleEmpty()
		return
	}

	seq := s.issue()
	res := s.svc.GetFoodCart(ctx)
	if !res.Success {
		s.metrics.IncMutation("load", metrics.OutcomeFailure)
		logger.FromCtx(ctx).Warn("initial cart load failed",
			zap.String("code", string(res.Code)),
			zap.String("message", res.Message),
		)
		s.settleEmpty()
		return
	}

	s.metrics.IncMutation("load", metrics.OutcomeSuccess)
	cart := res.Data
	if cart.IsEmpty() {
		cart = nil
	}
	s.apply(ctx, seq, "load", cart)
}

// settleEmpty ends a load that never ran or failed. A snapshot a mutation
// already installed is kept.
func (s *Store) settleEmpty() {
	s.mu.Lock()
	if s.state == StateLoading {
		s.state = StateEmpty
	}
	s.mu.Unlock()
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

// Ready is closed once the initial load has settled, or the store closed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Close cancels a pending initial load, waits for it and drops the
// snapshot. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.cancel, s.loadDone
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mutation.Lock()
	defer s.mutation.Unlock()

	s.mu.Lock()
	s.state = StateClosed
	s.cart = nil
	s.listeners = make(map[int]Listener)
	s.mu.Unlock()

	s.markReady()
	return nil
}

// AddToFoodCart adds a dish. A dish already in the cart has its quantity
// raised instead of getting a second line. A dish of another restaurant is
// refused with VENDOR_CONFLICT and the snapshot is left alone.
func (s *Store) AddToFoodCart(ctx context.Context, in AddItemInput) envelope.Envelope[*fooddelivery.Cart] {
	s.mutation.Lock()
	defer s.mutation.Unlock()

	return s.add(ctx, in)
}

func (s *Store) add(ctx context.Context, in AddItemInput) envelope.Envelope[*fooddelivery.Cart] {
	const op = "add"
	log := logger.FromCtx(ctx).With(
		zap.String("op", op),
		zap.String("dish_id", in.DishID),
		zap.Int("quantity", in.Quantity),
	)

	if res, ok := s.precheck(op, in); !ok {
		return res
	}

	s.mu.RLock()
	cartRestaurant := s.cart.RestaurantID()
	var existingID string
	var existingQty int
	if item := s.cart.FindByDish(in.DishID); item != nil {
		existingID, existingQty = item.ID, item.Quantity
	}
	s.mu.RUnlock()

	if in.RestaurantID != "" && cartRestaurant != "" && in.RestaurantID != cartRestaurant {
		log.Info("dish belongs to another restaurant",
			zap.String("cart_restaurant", cartRestaurant),
			zap.String("dish_restaurant", in.RestaurantID),
		)
		s.metrics.IncVendorConflict()
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		return envelope.Fail[*fooddelivery.Cart](envelope.CodeVendorConflict, msgVendorConflict)
	}

	if existingID != "" {
		log.Debug("dish already in cart, raising quantity", zap.String("item_id", existingID))
		return s.mutate(ctx, op, func(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
			return s.svc.UpdateFoodCartItem(ctx, existingID, existingQty+in.Quantity)
		})
	}

	return s.mutate(ctx, op, func(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
		return s.svc.AddToFoodCart(ctx, in.request())
	})
}

// UpdateFoodCartItem sets the quantity of a line. A quantity of zero or
// less removes the line.
func (s *Store) UpdateFoodCartItem(ctx context.Context, itemID string, quantity int) envelope.Envelope[*fooddelivery.Cart] {
	s.mutation.Lock()
	defer s.mutation.Unlock()

	if quantity <= 0 {
		return s.remove(ctx, itemID)
	}

	const op = "update"
	if res, ok := s.checkItem(op, itemID); !ok {
		return res
	}
	return s.mutate(ctx, op, func(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
		return s.svc.UpdateFoodCartItem(ctx, itemID, quantity)
	})
}

// RemoveFromFoodCart deletes a line. Removing the last line leaves a cart
// with no items rather than no cart.
func (s *Store) RemoveFromFoodCart(ctx context.Context, itemID string) envelope.Envelope[*fooddelivery.Cart] {
	s.mutation.Lock()
	defer s.mutation.Unlock()

	return s.remove(ctx, itemID)
}

func (s *Store) remove(ctx context.Context, itemID string) envelope.Envelope[*fooddelivery.Cart] {
	const op = "remove"
	if res, ok := s.checkItem(op, itemID); !ok {
		return res
	}
	return s.mutate(ctx, op, func(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
		return s.svc.RemoveFoodCartItem(ctx, itemID)
	})
}

// ClearFoodCart empties the cart. On success the snapshot becomes nil.
func (s *Store) ClearFoodCart(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
	s.mutation.Lock()
	defer s.mutation.Unlock()

	return s.clear(ctx)
}

func (s *Store) clear(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
	const op = "clear"
	if res, ok := s.checkOpen(op); !ok {
		return res
	}

	seq := s.issue()
	res := s.svc.ClearFoodCart(ctx)
	if !res.Success {
		return s.failed(ctx, op, res)
	}

	s.metrics.IncMutation(op, metrics.OutcomeSuccess)
	s.apply(ctx, seq, op, nil)
	return envelope.OK[*fooddelivery.Cart](nil, res.Message)
}

// ForceAddToFoodCart clears the cart and then adds the dish, the only path
// that discards existing lines. Callers must have the user's confirmation.
// When the clear fails nothing changes; when the add fails the cart stays
// cleared.
func (s *Store) ForceAddToFoodCart(ctx context.Context, in AddItemInput) envelope.Envelope[*fooddelivery.Cart] {
	s.mutation.Lock()
	defer s.mutation.Unlock()

	const op = "force_add"
	if res, ok := s.precheck(op, in); !ok {
		return res
	}

	cleared := s.clear(ctx)
	if !cleared.Success {
		logger.FromCtx(ctx).Warn("force add aborted, clear failed",
			zap.String("code", string(cleared.Code)),
			zap.String("message", cleared.Message),
		)
		return cleared
	}

	return s.mutate(ctx, op, func(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
		return s.svc.AddToFoodCart(ctx, in.request())
	})
}

// Refresh refetches the cart, the "Try Again" of a failed load. A failed
// refresh keeps the current snapshot.
func (s *Store) Refresh(ctx context.Context) envelope.Envelope[*fooddelivery.Cart] {
	s.mutation.Lock()
	defer s.mutation.Unlock()

	const op = "refresh"
	if res, ok := s.checkOpen(op); !ok {
		return res
	}

	seq := s.issue()
	res := s.svc.GetFoodCart(ctx)
	if !res.Success {
		return s.failed(ctx, op, res)
	}

	s.metrics.IncMutation(op, metrics.OutcomeSuccess)
	cart := res.Data
	if cart.IsEmpty() {
		cart = nil
	}
	s.apply(ctx, seq, op, cart)
	return envelope.OK(cart.Clone(), res.Message)
}

// Snapshot returns a copy of the current cart, nil when there is none.
func (s *Store) Snapshot() *fooddelivery.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// CartItemCount sums the quantities of the current cart.
func (s *Store) CartItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.ItemCount()
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Restaurant returns the restaurant the cart is locked to, nil for an empty
// cart or when the backend sent no restaurant.
func (s *Store) Restaurant() *fooddelivery.RestaurantRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cart.IsEmpty() {
		return nil
	}
	if s.cart.Restaurant != nil {
		r := *s.cart.Restaurant
		return &r
	}
	if id := s.cart.RestaurantID(); id != "" {
		return &fooddelivery.RestaurantRef{ID: id}
	}
	return nil
}

// Subscribe registers fn for every applied snapshot and returns a function
// that removes it. Listeners run synchronously and must not call mutating
// methods of the store.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// mutate sends one cart-returning request and applies its result.
func (s *Store) mutate(
	ctx context.Context,
	op string,
	send func(ctx context.Context) envelope.Envelope[*fooddelivery.Cart],
) envelope.Envelope[*fooddelivery.Cart] {
	seq := s.issue()
	res := send(ctx)
	if !res.Success {
		return s.failed(ctx, op, res)
	}

	s.metrics.IncMutation(op, metrics.OutcomeSuccess)
	s.apply(ctx, seq, op, res.Data)
	return envelope.OK(res.Data.Clone(), res.Message)
}

func (s *Store) failed(ctx context.Context, op string, res envelope.Envelope[*fooddelivery.Cart]) envelope.Envelope[*fooddelivery.Cart] {
	s.metrics.IncMutation(op, metrics.OutcomeFailure)

	if fooddelivery.IsVendorConflict(res.Code, res.Message) {
		s.metrics.IncVendorConflict()
		logger.FromCtx(ctx).Info("backend refused dish from another restaurant", zap.String("op", op))
		return envelope.Fail[*fooddelivery.Cart](envelope.CodeVendorConflict, res.Message)
	}

	logger.FromCtx(ctx).Warn("cart operation failed",
		zap.String("op", op),
		zap.String("code", string(res.Code)),
		zap.String("message", res.Message),
	)
	return envelope.Fail[*fooddelivery.Cart](res.Code, res.Message)
}

func (s *Store) precheck(op string, in AddItemInput) (envelope.Envelope[*fooddelivery.Cart], bool) {
	if res, ok := s.checkOpen(op); !ok {
		return res, false
	}
	if strings.TrimSpace(in.DishID) == "" {
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		return envelope.Fail[*fooddelivery.Cart](envelope.CodeValidation, msgMissingDish), false
	}
	if in.Quantity <= 0 {
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		return envelope.Fail[*fooddelivery.Cart](envelope.CodeValidation, msgInvalidQuantity), false
	}
	return envelope.Envelope[*fooddelivery.Cart]{}, true
}

func (s *Store) checkItem(op, itemID string) (envelope.Envelope[*fooddelivery.Cart], bool) {
	if res, ok := s.checkOpen(op); !ok {
		return res, false
	}
	if strings.TrimSpace(itemID) == "" {
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		return envelope.Fail[*fooddelivery.Cart](envelope.CodeValidation, msgMissingItem), false
	}
	return envelope.Envelope[*fooddelivery.Cart]{}, true
}

func (s *Store) checkOpen(op string) (envelope.Envelope[*fooddelivery.Cart], bool) {
	if s.State() == StateClosed {
		s.metrics.IncMutation(op, metrics.OutcomeFailure)
		return envelope.Fail[*fooddelivery.Cart](CodeClosed, ErrClosed.Error()), false
	}
	return envelope.Envelope[*fooddelivery.Cart]{}, true
}

// issue numbers a request at the moment it is sent.
func (s *Store) issue() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// apply installs cart as the snapshot unless a newer request already did.
func (s *Store) apply(ctx context.Context, seq uint64, op string, cart *fooddelivery.Cart) bool {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return false
	}
	if seq <= s.applied {
		last := s.applied
		s.mu.Unlock()
		s.metrics.IncStaleResponse(op)
		logger.FromCtx(ctx).Debug("discarding stale cart response",
			zap.String("op", op),
			zap.Uint64("seq", seq),
			zap.Uint64("applied", last),
		)
		return false
	}

	s.applied = seq
	s.cart = cart.Clone()
	if s.cart == nil {
		s.state = StateEmpty
	} else {
		s.state = StateLoaded
	}

	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.notify.Lock()
	s.mu.Unlock()
	defer s.notify.Unlock()

	for _, fn := range listeners {
		fn(cart.Clone())
	}
	return true
}
