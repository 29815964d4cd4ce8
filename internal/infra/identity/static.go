package identity

import (
	"context"
	"strings"

	"clozet/internal/app/policies"
)

// StaticResolver maps bearer tokens to user identifiers from configuration.
// It stands in for the external identity service in local and test runs.
type StaticResolver struct {
	Tokens map[string]string
}

func (r StaticResolver) ResolveToken(ctx context.Context, token string) (string, error) {
	user, ok := r.Tokens[strings.TrimSpace(token)]
	if !ok {
		return "", policies.ErrUnknownToken
	}
	return user, nil
}

var _ policies.IdentityResolver = StaticResolver{}
