package sprinkler

import (
	"context"
	"strings"
)

// Authenticator supplies the Authorization header for controller calls. An
// empty header means the request is sent unauthenticated.
type Authenticator interface {
	AuthorizationHeader(ctx context.Context) (string, error)
}

// BearerToken authenticates with a static API token, as configured on the
// controller via SPRINKLER_API_TOKEN.
type BearerToken string

// AuthorizationHeader implements Authenticator.
func (t BearerToken) AuthorizationHeader(context.Context) (string, error) {
	token := strings.TrimSpace(string(t))
	if token == "" {
		return "", nil
	}
	return "Bearer " + token, nil
}
