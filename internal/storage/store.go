package storage

import (
	"context"
	"errors"
	"strings"
)

// Keys the food delivery pages persisted in browser local storage.
const (
	KeyToken           = "token"
	KeyUser            = "user"
	KeyDeliveryAddress = "deliveryAddress"
	KeyUserLocation    = "userLocation"
)

var (
	ErrNotFound   = errors.New("storage: key not found")
	ErrEmptyKey   = errors.New("storage: empty key")
	ErrNotStarted = errors.New("storage: backend not initialized")
)

// Store is a string key-value store for client state.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

type namespaced struct {
	inner  Store
	prefix string
}

// Namespace scopes every key of inner under ns, so one backend can hold the
// state of many user sessions.
func Namespace(inner Store, ns string) Store {
	return &namespaced{inner: inner, prefix: strings.TrimSuffix(ns, ":") + ":"}
}

func (n *namespaced) key(k string) string {
	return n.prefix + k
}

func (n *namespaced) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	return n.inner.Get(ctx, n.key(key))
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return n.inner.Set(ctx, n.key(key), value)
}

func (n *namespaced) Delete(ctx context.Context, keys ...string) error {
	scoped := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		scoped = append(scoped, n.key(k))
	}
	if len(scoped) == 0 {
		return nil
	}
	return n.inner.Delete(ctx, scoped...)
}
