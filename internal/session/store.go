// Package session holds per-visitor state (cart, pending checkout) keyed by
// an opaque session token.
package session

import (
	"context"
	"errors"
)

var ErrNoSession = errors.New("session token is empty")

const (
	KeyCart            = "cart"
	KeyPendingCheckout = "pending_checkout"
)

// Store persists JSON-encodable values per session token. Get reports false
// when the key is absent or expired.
type Store interface {
	Get(ctx context.Context, token, key string, dst any) (bool, error)
	Set(ctx context.Context, token, key string, value any) error
	Delete(ctx context.Context, token, key string) error
}
