package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"fooddelivery-client/internal/address"
	"fooddelivery-client/internal/auth"
	"fooddelivery-client/internal/cart"
	"fooddelivery-client/internal/fooddelivery"
	"fooddelivery-client/internal/logger"
	"fooddelivery-client/internal/metrics"
	"fooddelivery-client/internal/order"
	"fooddelivery-client/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrManagerClosed = errors.New("session manager closed")

// Config holds what every session needs to reach the backend.
type Config struct {
	BaseURL          string
	CategoriesPath   string
	Timeout          time.Duration
	InitialLoadDelay time.Duration
	LocationMaxAge   time.Duration
	RequestsPerSec   float64
	Burst            int
}

// Session bundles the client and stores of one caller.
type Session struct {
	// Key names the session and its stored state.
	Key     string
	UserID  string
	Client  *fooddelivery.Client
	Cart    *cart.Store
	Address address.Service
	Orders  order.Service
	Tracker *order.Tracker

	state    storage.Store
	manager  *Manager
	lastUsed time.Time
	// active counts requests holding the session; guarded by manager.mu.
	active   int
}

// Release hands the session back after a request. Sweep never closes a
// session while a request holds it.
func (s *Session) Release() {
	if s.manager == nil {
		return
	}
	s.manager.mu.Lock()
	defer s.manager.mu.Unlock()
	if s.active > 0 {
		s.active--
	}
	s.lastUsed = s.manager.now()
}

// Manager creates sessions on first use and closes idle ones.
type Manager struct {
	cfg        Config
	store      storage.Store
	metrics    *metrics.Metrics
	httpClient *http.Client
	limiter    *rate.Limiter
	now        func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewManager builds a manager keeping client state in store. All sessions
// share one HTTP client and one outbound rate limit.
func NewManager(cfg Config, store storage.Store, m *metrics.Metrics) *Manager {
	if cfg.Timeout <= 0 {
		cfg.Timeout = fooddelivery.DefaultTimeout
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSec > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), burst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:        cfg,
		store:      store,
		metrics:    m,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		now:        time.Now,
		baseCtx:    ctx,
		cancel:     cancel,
		sessions:   make(map[string]*Session),
	}
}

// Get returns the session of id, opening it when needed, and holds it until
// Release. A new token for an existing session replaces the stored one.
func (m *Manager) Get(ctx context.Context, id auth.Identity) (*Session, error) {
	key := id.SessionKey()
	log := logger.FromCtx(ctx).With(zap.String("session_key", key))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrManagerClosed
	}

	if s, ok := m.sessions[key]; ok {
		s.lastUsed = m.now()
		s.active++
		if err := auth.Persist(ctx, s.state, id); err != nil {
			log.Warn("failed to refresh stored identity", zap.Error(err))
		}
		return s, nil
	}

	s, err := m.open(ctx, key, id)
	if err != nil {
		log.Error("failed to open session", zap.Error(err))
		return nil, err
	}
	s.active++
	m.sessions[key] = s
	m.metrics.SessionOpened()
	log.Info("session opened")
	return s, nil
}

func (m *Manager) open(ctx context.Context, key string, id auth.Identity) (*Session, error) {
	state := storage.Namespace(m.store, "session:"+key)
	if err := auth.Persist(ctx, state, id); err != nil {
		return nil, fmt.Errorf("persist identity: %w", err)
	}

	opts := []fooddelivery.Option{
		fooddelivery.WithHTTPClient(m.httpClient),
		fooddelivery.WithCredentials(auth.StoredCredentials{Store: state}),
		fooddelivery.WithMetrics(m.metrics),
		fooddelivery.WithCategoriesPath(m.cfg.CategoriesPath),
	}
	if m.limiter != nil {
		opts = append(opts, fooddelivery.WithRateLimiter(m.limiter))
	}
	client, err := fooddelivery.NewClient(m.cfg.BaseURL, opts...)
	if err != nil {
		return nil, err
	}

	store := cart.NewStore(client,
		cart.WithInitialLoadDelay(m.cfg.InitialLoadDelay),
		cart.WithMetrics(m.metrics),
	)
	if err := store.Open(logger.WithUserID(m.baseCtx, id.UserID())); err != nil {
		return nil, err
	}

	return &Session{
		Key:      key,
		UserID:   id.UserID(),
		Client:   client,
		Cart:     store,
		Address:  address.NewService(state, m.cfg.LocationMaxAge),
		Orders:   order.NewService(client),
		Tracker:  order.NewTracker(client),
		state:    state,
		manager:  m,
		lastUsed: m.now(),
	}, nil
}

// Len is the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep closes sessions unused for longer than maxIdle and returns how
// many it closed. Sessions held by a request are skipped. Their stored
// state is kept for the next visit.
func (m *Manager) Sweep(maxIdle time.Duration) int {
	m.mu.Lock()
	var idle []*Session
	cutoff := m.now().Add(-maxIdle)
	for key, s := range m.sessions {
		if s.active == 0 && s.lastUsed.Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, key)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		m.closeSession(s)
	}
	if len(idle) > 0 {
		logger.L().Info("idle sessions closed", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Run sweeps every interval until ctx ends.
func (m *Manager) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(maxIdle)
		}
	}
}

// Close closes every session; later Get calls fail.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	m.cancel()
	for _, s := range sessions {
		m.closeSession(s)
	}
	return nil
}

func (m *Manager) closeSession(s *Session) {
	if err := s.Cart.Close(); err != nil {
		logger.L().Warn("failed to close cart store", zap.String("session_key", s.Key), zap.Error(err))
	}
	m.metrics.SessionClosed()
}
