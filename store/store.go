package store

import (
	"context"
	"errors"
	"strings"
)

var ErrKeyNotFound = errors.New("key not found")

// Store addresses a Cache under a namespace: key "onboarding" in namespace
// "form" is stored as "form:onboarding".
type Store[S any] struct {
	core      Cache[S]
	namespace string
}

func NewStore[S any](core Cache[S], namespace string) Store[S] {
	return Store[S]{
		core:      core,
		namespace: namespace,
	}
}

func (c Store[S]) Key(key string) (string, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false
	}
	if c.namespace == "" {
		return key, true
	}
	return c.namespace + ":" + key, true
}

func (c Store[S]) Set(ctx context.Context, key string, val S) error {
	k, ok := c.Key(key)
	if !ok {
		return ErrKeyNotFound
	}
	return c.core.Set(ctx, k, val)
}

func (c Store[S]) Get(ctx context.Context, key string) (S, bool, error) {
	k, ok := c.Key(key)
	if !ok {
		var zero S
		return zero, false, ErrKeyNotFound
	}
	return c.core.Get(ctx, k)
}

func (c Store[S]) Del(ctx context.Context, key string) error {
	k, ok := c.Key(key)
	if !ok {
		return ErrKeyNotFound
	}
	return c.core.Del(ctx, k)
}

func (c Store[S]) Exists(ctx context.Context, key string) (bool, error) {
	k, ok := c.Key(key)
	if !ok {
		return false, ErrKeyNotFound
	}
	return c.core.Exists(ctx, k)
}
