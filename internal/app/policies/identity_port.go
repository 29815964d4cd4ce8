package policies

import (
	"context"
	"errors"
)

var ErrUnknownToken = errors.New("identity: unknown token")

// IdentityResolver maps a bearer token to an authenticated user identifier.
// Identity lives outside this service; this is the narrow seam it is
// consumed through.
type IdentityResolver interface {
	ResolveToken(ctx context.Context, token string) (string, error)
}
