package cart

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fooddelivery-client/internal/envelope"
	"fooddelivery-client/internal/fooddelivery"
	"fooddelivery-client/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- Mocks ---

type MockService struct {
	mock.Mock
}

type cartEnvelope = envelope.Envelope[*fooddelivery.Cart]

func (m *MockService) GetFoodCart(ctx context.Context) cartEnvelope {
	args := m.Called(ctx)
	return args.Get(0).(cartEnvelope)
}

func (m *MockService) AddToFoodCart(ctx context.Context, in fooddelivery.AddToCartInput) cartEnvelope {
	args := m.Called(ctx, in)
	return args.Get(0).(cartEnvelope)
}

func (m *MockService) UpdateFoodCartItem(ctx context.Context, itemID string, quantity int) cartEnvelope {
	args := m.Called(ctx, itemID, quantity)
	return args.Get(0).(cartEnvelope)
}

func (m *MockService) RemoveFoodCartItem(ctx context.Context, itemID string) cartEnvelope {
	args := m.Called(ctx, itemID)
	return args.Get(0).(cartEnvelope)
}

func (m *MockService) ClearFoodCart(ctx context.Context) cartEnvelope {
	args := m.Called(ctx)
	return args.Get(0).(cartEnvelope)
}

// --- Fixtures ---

type line struct {
	itemID, dishID string
	qty            int
}

func buildCart(restaurantID string, lines ...line) *fooddelivery.Cart {
	c := &fooddelivery.Cart{
		Items:      []fooddelivery.CartItem{},
		Restaurant: &fooddelivery.RestaurantRef{ID: restaurantID},
	}
	total := 0
	for _, l := range lines {
		c.Items = append(c.Items, fooddelivery.CartItem{
			ID:       l.itemID,
			Dish:     fooddelivery.DishRef{ID: l.dishID},
			Quantity: l.qty,
			Price:    decimal.NewFromInt(100),
		})
		total += l.qty
	}
	c.TotalItems = total
	c.Subtotal = decimal.NewFromInt(int64(total * 100))
	c.TotalAmount = c.Subtotal
	return c
}

func ok(c *fooddelivery.Cart) cartEnvelope {
	return envelope.OK(c, "")
}

func fail(code envelope.Code, msg string) cartEnvelope {
	return envelope.Fail[*fooddelivery.Cart](code, msg)
}

// loadedStore returns a store whose snapshot is cart, loaded via Refresh.
func loadedStore(t *testing.T, svc *MockService, cart *fooddelivery.Cart) *Store {
	t.Helper()
	s := NewStore(svc, WithInitialLoadDelay(0))
	svc.On("GetFoodCart", mock.Anything).Return(ok(cart)).Once()
	require.True(t, s.Refresh(context.Background()).Success)
	return s
}

func waitReady(t *testing.T, s *Store) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("store never became ready")
	}
}

// --- Tests ---

func TestStore_InitialLoad(t *testing.T) {
	t.Run("Loaded", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetFoodCart", mock.Anything).Return(ok(buildCart("r1", line{"i1", "d1", 2})))

		s := NewStore(svc, WithInitialLoadDelay(time.Millisecond))
		assert.Equal(t, StateUninitialized, s.State())
		require.NoError(t, s.Open(context.Background()))
		waitReady(t, s)

		assert.Equal(t, StateLoaded, s.State())
		assert.Equal(t, 2, s.CartItemCount())
		assert.Equal(t, "r1", s.Restaurant().ID)
	})

	t.Run("Failure is swallowed", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetFoodCart", mock.Anything).Return(fail(envelope.CodeNetwork, "connection refused"))

		s := NewStore(svc, WithInitialLoadDelay(0))
		require.NoError(t, s.Open(context.Background()))
		waitReady(t, s)

		assert.Equal(t, StateEmpty, s.State())
		assert.Nil(t, s.Snapshot())
		assert.Equal(t, 0, s.CartItemCount())
	})

	t.Run("Cart without items is empty", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetFoodCart", mock.Anything).Return(ok(buildCart("r1")))

		s := NewStore(svc, WithInitialLoadDelay(0))
		require.NoError(t, s.Open(context.Background()))
		waitReady(t, s)

		assert.Equal(t, StateEmpty, s.State())
		assert.Nil(t, s.Snapshot())
	})

	t.Run("Open twice", func(t *testing.T) {
		svc := new(MockService)
		svc.On("GetFoodCart", mock.Anything).Return(ok(nil))

		s := NewStore(svc, WithInitialLoadDelay(0))
		require.NoError(t, s.Open(context.Background()))
		assert.ErrorIs(t, s.Open(context.Background()), ErrAlreadyOpen)
		waitReady(t, s)
	})

	t.Run("Close cancels the delayed load", func(t *testing.T) {
		svc := new(MockService)
		s := NewStore(svc, WithInitialLoadDelay(time.Hour))
		require.NoError(t, s.Open(context.Background()))

		require.NoError(t, s.Close())
		waitReady(t, s)

		assert.Equal(t, StateClosed, s.State())
		svc.AssertNotCalled(t, "GetFoodCart", mock.Anything)
		assert.ErrorIs(t, s.Open(context.Background()), ErrClosed)
	})

	t.Run("Slow load does not override a later mutation", func(t *testing.T) {
		svc := new(MockService)
		started := make(chan struct{})
		release := make(chan struct{})

		svc.On("GetFoodCart", mock.Anything).Run(func(mock.Arguments) {
			close(started)
			<-release
		}).Return(ok(buildCart("r1", line{"i-old", "d-old", 7}))).Once()
		svc.On("AddToFoodCart", mock.Anything, mock.Anything).Return(ok(buildCart("r2", line{"i1", "d1", 1}))).Once()

		s := NewStore(svc, WithInitialLoadDelay(0))
		require.NoError(t, s.Open(context.Background()))
		<-started

		done := make(chan cartEnvelope, 1)
		go func() {
			done <- s.AddToFoodCart(context.Background(), AddItemInput{DishID: "d1", Quantity: 1})
		}()

		select {
		case <-done:
			t.Fatal("add ran while the load was in flight")
		case <-time.After(30 * time.Millisecond):
		}

		close(release)
		waitReady(t, s)
		res := <-done
		require.True(t, res.Success)

		snap := s.Snapshot()
		require.NotNil(t, snap)
		assert.Equal(t, "i1", snap.Items[0].ID)
		assert.Equal(t, 1, s.CartItemCount())
	})

	t.Run("Load starting during a mutation waits for it", func(t *testing.T) {
		for _, tc := range []struct {
			name string
			load cartEnvelope
			want int
		}{
			{name: "load fails", load: fail(envelope.CodeNetwork, "connection reset"), want: 2},
			{name: "load succeeds", load: ok(buildCart("r1", line{"i1", "d1", 3})), want: 3},
		} {
			t.Run(tc.name, func(t *testing.T) {
				svc := new(MockService)
				addStarted := make(chan struct{})
				releaseAdd := make(chan struct{})
				var addDone atomic.Bool

				svc.On("AddToFoodCart", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
					close(addStarted)
					<-releaseAdd
					addDone.Store(true)
				}).Return(ok(buildCart("r1", line{"i1", "d1", 2}))).Once()
				svc.On("GetFoodCart", mock.Anything).Run(func(mock.Arguments) {
					assert.True(t, addDone.Load(), "cart fetched before the add settled")
				}).Return(tc.load).Once()

				s := NewStore(svc, WithInitialLoadDelay(0))

				done := make(chan cartEnvelope, 1)
				go func() {
					done <- s.AddToFoodCart(context.Background(), AddItemInput{DishID: "d1", Quantity: 2})
				}()
				<-addStarted

				require.NoError(t, s.Open(context.Background()))
				time.Sleep(20 * time.Millisecond)
				close(releaseAdd)

				require.True(t, (<-done).Success)
				waitReady(t, s)

				require.NotNil(t, s.Snapshot())
				assert.Equal(t, tc.want, s.CartItemCount())
				assert.Equal(t, StateLoaded, s.State())
				svc.AssertExpectations(t)
			})
		}
	})

	t.Run("Older response is discarded", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		s := NewStore(new(MockService), WithMetrics(metrics.New(reg)))
		ctx := context.Background()

		older := s.issue()
		newer := s.issue()
		require.True(t, s.apply(ctx, newer, "add", buildCart("r2", line{"i1", "d1", 1})))
		assert.False(t, s.apply(ctx, older, "refresh", buildCart("r1", line{"i-old", "d-old", 7})))

		assert.Equal(t, "i1", s.Snapshot().Items[0].ID)
		assert.Equal(t, float64(1), counterValue(t, reg, "cart_stale_responses_total"))
	})
}

// Scenario A: an empty cart takes its first dish.
func TestStore_AddToEmptyCart(t *testing.T) {
	svc := new(MockService)
	s := NewStore(svc)

	svc.On("AddToFoodCart", mock.Anything, fooddelivery.AddToCartInput{DishID: "dish-1", Quantity: 2}).
		Return(ok(buildCart("r1", line{"i1", "dish-1", 2}))).Once()

	res := s.AddToFoodCart(context.Background(), AddItemInput{DishID: "dish-1", Quantity: 2})

	require.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.Len(t, res.Data.Items, 1)
	assert.Equal(t, 2, res.Data.Items[0].Quantity)
	assert.Equal(t, 2, s.CartItemCount())
	assert.Equal(t, StateLoaded, s.State())
	svc.AssertExpectations(t)
}

// Repeated adds of one dish accumulate on its line.
func TestStore_AddMergesQuantity(t *testing.T) {
	ctx := context.Background()

	t.Run("Existing raw id", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("r1", line{"i1", "dish-1", 2}))

		svc.On("UpdateFoodCartItem", mock.Anything, "i1", 5).
			Return(ok(buildCart("r1", line{"i1", "dish-1", 5}))).Once()

		res := s.AddToFoodCart(ctx, AddItemInput{DishID: "dish-1", Quantity: 3})

		require.True(t, res.Success)
		assert.Len(t, res.Data.Items, 1)
		assert.Equal(t, 5, s.CartItemCount())
		svc.AssertNotCalled(t, "AddToFoodCart", mock.Anything, mock.Anything)
		svc.AssertExpectations(t)
	})

	t.Run("Existing expanded dish", func(t *testing.T) {
		svc := new(MockService)
		cart := buildCart("r1", line{"i1", "dish-1", 1})
		cart.Items[0].Dish = fooddelivery.DishRef{ID: "dish-1", Dish: &fooddelivery.Dish{ID: "dish-1", Name: "Dosa"}}
		s := loadedStore(t, svc, cart)

		svc.On("UpdateFoodCartItem", mock.Anything, "i1", 2).
			Return(ok(buildCart("r1", line{"i1", "dish-1", 2}))).Once()

		res := s.AddToFoodCart(ctx, AddItemInput{DishID: "dish-1", Quantity: 1})
		require.True(t, res.Success)
		svc.AssertExpectations(t)
	})
}

// Scenario B and the single-vendor invariant.
func TestStore_VendorConflict(t *testing.T) {
	ctx := context.Background()

	t.Run("Known restaurant is refused without a request", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("R1", line{"i1", "d1", 1}))
		before := s.Snapshot()

		res := s.AddToFoodCart(ctx, AddItemInput{DishID: "dish-from-R2", Quantity: 1, RestaurantID: "R2"})

		assert.False(t, res.Success)
		assert.Equal(t, envelope.CodeVendorConflict, res.Code)
		assert.Equal(t, before, s.Snapshot())
		svc.AssertNotCalled(t, "AddToFoodCart", mock.Anything, mock.Anything)
	})

	t.Run("Backend wording is tagged", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("R1", line{"i1", "d1", 1}))
		before := s.Snapshot()

		svc.On("AddToFoodCart", mock.Anything, mock.Anything).
			Return(fail(envelope.CodeApplication, "You can only order from one restaurant at a time")).Once()

		res := s.AddToFoodCart(ctx, AddItemInput{DishID: "dish-from-R2", Quantity: 1})

		assert.False(t, res.Success)
		assert.Equal(t, envelope.CodeVendorConflict, res.Code)
		assert.Nil(t, res.Data)
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("Every non-empty cart stays single vendor", func(t *testing.T) {
		svc := new(MockService)
		s := NewStore(svc)

		svc.On("AddToFoodCart", mock.Anything, fooddelivery.AddToCartInput{DishID: "a1", Quantity: 1}).
			Return(ok(buildCart("R1", line{"i1", "a1", 1}))).Once()
		svc.On("AddToFoodCart", mock.Anything, fooddelivery.AddToCartInput{DishID: "a2", Quantity: 1}).
			Return(ok(buildCart("R1", line{"i1", "a1", 1}, line{"i2", "a2", 1}))).Once()
		svc.On("AddToFoodCart", mock.Anything, fooddelivery.AddToCartInput{DishID: "b1", Quantity: 1}).
			Return(fail(envelope.CodeVendorConflict, "Cart belongs to another restaurant")).Once()

		inputs := []AddItemInput{
			{DishID: "a1", Quantity: 1},
			{DishID: "b1", Quantity: 1},
			{DishID: "a2", Quantity: 1},
			{DishID: "b2", Quantity: 1, RestaurantID: "R2"},
		}
		for _, in := range inputs {
			res := s.AddToFoodCart(ctx, in)
			if in.DishID[0] == 'b' {
				assert.Equal(t, envelope.CodeVendorConflict, res.Code)
			}
			snap := s.Snapshot()
			for _, it := range snap.Items {
				assert.Equal(t, "R1", snap.RestaurantID(), "item %s", it.ID)
			}
		}
		assert.Equal(t, 2, s.CartItemCount())
	})
}

// Scenario C.
func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	svc := new(MockService)
	s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 1}, line{"i2", "d2", 3}))

	svc.On("ClearFoodCart", mock.Anything).Return(ok(buildCart("r1"))).Once()
	res := s.ClearFoodCart(ctx)
	require.True(t, res.Success)
	assert.Nil(t, res.Data)
	assert.Nil(t, s.Snapshot())
	assert.Equal(t, StateEmpty, s.State())
	assert.Nil(t, s.Restaurant())

	svc.On("GetFoodCart", mock.Anything).Return(ok(nil)).Once()
	refreshed := s.Refresh(ctx)
	require.True(t, refreshed.Success)
	assert.Nil(t, refreshed.Data)
	assert.Equal(t, 0, s.CartItemCount())
}

// Scenario D.
func TestStore_RemoveLastItem(t *testing.T) {
	svc := new(MockService)
	s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 2}))

	svc.On("RemoveFoodCartItem", mock.Anything, "i1").Return(ok(buildCart("r1"))).Once()

	res := s.RemoveFromFoodCart(context.Background(), "i1")
	require.True(t, res.Success)
	require.NotNil(t, res.Data)
	assert.NotNil(t, res.Data.Items)
	assert.Empty(t, res.Data.Items)
	assert.Equal(t, 0, res.Data.TotalItems)
	assert.Equal(t, 0, s.CartItemCount())
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Sets quantity", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 2}))
		svc.On("UpdateFoodCartItem", mock.Anything, "i1", 4).Return(ok(buildCart("r1", line{"i1", "d1", 4}))).Once()

		assert.True(t, s.UpdateFoodCartItem(ctx, "i1", 4).Success)
		assert.Equal(t, 4, s.CartItemCount())
	})

	t.Run("Zero removes", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 2}, line{"i2", "d2", 1}))
		svc.On("RemoveFoodCartItem", mock.Anything, "i1").Return(ok(buildCart("r1", line{"i2", "d2", 1}))).Once()

		assert.True(t, s.UpdateFoodCartItem(ctx, "i1", 0).Success)
		assert.Equal(t, 1, s.CartItemCount())
		svc.AssertNotCalled(t, "UpdateFoodCartItem", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failure keeps the snapshot", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 2}))
		before := s.Snapshot()
		svc.On("UpdateFoodCartItem", mock.Anything, "i1", 9).Return(fail(envelope.CodeNetwork, "timeout")).Once()

		res := s.UpdateFoodCartItem(ctx, "i1", 9)
		assert.Equal(t, envelope.CodeNetwork, res.Code)
		assert.Equal(t, "timeout", res.Message)
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("Missing item id", func(t *testing.T) {
		svc := new(MockService)
		s := NewStore(svc)
		assert.True(t, s.UpdateFoodCartItem(ctx, "", 1).Is(envelope.CodeValidation))
		assert.True(t, s.RemoveFromFoodCart(ctx, " ").Is(envelope.CodeValidation))
	})
}

func TestStore_ForceAdd(t *testing.T) {
	ctx := context.Background()

	t.Run("Replaces the cart with the new dish", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("R1", line{"i1", "d1", 1}, line{"i2", "d2", 2}))

		svc.On("ClearFoodCart", mock.Anything).Return(ok(nil)).Once()
		svc.On("AddToFoodCart", mock.Anything, fooddelivery.AddToCartInput{DishID: "x1", Quantity: 3}).
			Return(ok(buildCart("R2", line{"i9", "x1", 3}))).Once()

		res := s.ForceAddToFoodCart(ctx, AddItemInput{DishID: "x1", Quantity: 3, RestaurantID: "R2"})

		require.True(t, res.Success)
		snap := s.Snapshot()
		require.Len(t, snap.Items, 1)
		assert.True(t, snap.Items[0].Dish.Matches("x1"))
		assert.Equal(t, 3, snap.Items[0].Quantity)
		assert.Equal(t, "R2", s.Restaurant().ID)
		svc.AssertExpectations(t)
	})

	t.Run("Clear failure changes nothing", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("R1", line{"i1", "d1", 1}))
		before := s.Snapshot()

		svc.On("ClearFoodCart", mock.Anything).Return(fail(envelope.CodeNetwork, "offline")).Once()

		res := s.ForceAddToFoodCart(ctx, AddItemInput{DishID: "x1", Quantity: 1})
		assert.False(t, res.Success)
		assert.Equal(t, before, s.Snapshot())
		svc.AssertNotCalled(t, "AddToFoodCart", mock.Anything, mock.Anything)
	})

	t.Run("Add failure leaves the cart cleared", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("R1", line{"i1", "d1", 1}))

		svc.On("ClearFoodCart", mock.Anything).Return(ok(nil)).Once()
		svc.On("AddToFoodCart", mock.Anything, mock.Anything).Return(fail(envelope.CodeApplication, "Dish unavailable")).Once()

		res := s.ForceAddToFoodCart(ctx, AddItemInput{DishID: "x1", Quantity: 1})
		assert.False(t, res.Success)
		assert.Nil(t, s.Snapshot())
	})

	t.Run("Invalid input does not clear", func(t *testing.T) {
		svc := new(MockService)
		s := loadedStore(t, svc, buildCart("R1", line{"i1", "d1", 1}))

		res := s.ForceAddToFoodCart(ctx, AddItemInput{DishID: "x1"})
		assert.True(t, res.Is(envelope.CodeValidation))
		svc.AssertNotCalled(t, "ClearFoodCart", mock.Anything)
		assert.Equal(t, 1, s.CartItemCount())
	})
}

func TestStore_Validation(t *testing.T) {
	svc := new(MockService)
	s := NewStore(svc)
	ctx := context.Background()

	assert.True(t, s.AddToFoodCart(ctx, AddItemInput{DishID: "d1", Quantity: 0}).Is(envelope.CodeValidation))
	assert.True(t, s.AddToFoodCart(ctx, AddItemInput{Quantity: 1}).Is(envelope.CodeValidation))
	svc.AssertNotCalled(t, "AddToFoodCart", mock.Anything, mock.Anything)
}

func TestStore_RefreshFailureKeepsSnapshot(t *testing.T) {
	svc := new(MockService)
	s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 2}))

	svc.On("GetFoodCart", mock.Anything).Return(fail(envelope.CodeNetwork, "offline")).Once()

	res := s.Refresh(context.Background())
	assert.False(t, res.Success)
	assert.Equal(t, 2, s.CartItemCount())
	assert.Equal(t, StateLoaded, s.State())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	svc := new(MockService)
	s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 2}))

	snap := s.Snapshot()
	snap.Items[0].Quantity = 50
	snap.Items = nil

	assert.Equal(t, 2, s.CartItemCount())

	svc.On("UpdateFoodCartItem", mock.Anything, "i1", 3).Return(ok(buildCart("r1", line{"i1", "d1", 3}))).Once()
	res := s.UpdateFoodCartItem(context.Background(), "i1", 3)
	res.Data.Items[0].Quantity = 77
	assert.Equal(t, 3, s.CartItemCount())
}

func TestStore_MutationsAreSerialized(t *testing.T) {
	svc := new(MockService)
	s := NewStore(svc)

	var inFlight, maxInFlight int32
	svc.On("AddToFoodCart", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}).Return(ok(nil))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.AddToFoodCart(context.Background(), AddItemInput{DishID: "d1", Quantity: 1})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	svc.AssertNumberOfCalls(t, "AddToFoodCart", 8)
}

func TestStore_Subscribe(t *testing.T) {
	svc := new(MockService)
	s := NewStore(svc)
	ctx := context.Background()

	var got []*fooddelivery.Cart
	unsubscribe := s.Subscribe(func(c *fooddelivery.Cart) {
		got = append(got, c)
		if c != nil {
			c.Items[0].Quantity = 100
		}
	})

	svc.On("AddToFoodCart", mock.Anything, mock.Anything).Return(ok(buildCart("r1", line{"i1", "d1", 1}))).Once()
	svc.On("ClearFoodCart", mock.Anything).Return(ok(nil)).Once()

	s.AddToFoodCart(ctx, AddItemInput{DishID: "d1", Quantity: 1})
	s.ClearFoodCart(ctx)

	require.Len(t, got, 2)
	assert.Equal(t, "i1", got[0].Items[0].ID)
	assert.Nil(t, got[1])

	unsubscribe()
	unsubscribe()

	svc.On("AddToFoodCart", mock.Anything, mock.Anything).Return(ok(buildCart("r1", line{"i1", "d1", 1}))).Once()
	s.AddToFoodCart(ctx, AddItemInput{DishID: "d1", Quantity: 1})
	assert.Len(t, got, 2)
	assert.Equal(t, 1, s.CartItemCount())
}

func TestStore_Closed(t *testing.T) {
	svc := new(MockService)
	s := loadedStore(t, svc, buildCart("r1", line{"i1", "d1", 2}))
	ctx := context.Background()

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.Nil(t, s.Snapshot())
	assert.Equal(t, StateClosed, s.State())
	assert.True(t, s.AddToFoodCart(ctx, AddItemInput{DishID: "d1", Quantity: 1}).Is(CodeClosed))
	assert.True(t, s.ClearFoodCart(ctx).Is(CodeClosed))
	assert.True(t, s.Refresh(ctx).Is(CodeClosed))
	assert.True(t, s.RemoveFromFoodCart(ctx, "i1").Is(CodeClosed))
	svc.AssertNumberOfCalls(t, "GetFoodCart", 1)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loaded", StateLoaded.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}
