// Package auth provides the consumed identity surface: who is calling and
// at which access tier. Token issuance and session lifecycle live in the
// station's SSO; this package only verifies presented credentials.
package auth

import (
	"context"
	"errors"

	"github.com/stationkit/aircheck/internal/policy"
)

// ErrUnknownToken indicates the presented credential is not recognized.
var ErrUnknownToken = errors.New("unknown access token")

// Identity describes a caller for the duration of a request or playback
// session. The zero value is an anonymous listener.
type Identity struct {
	Authenticated bool        `json:"authenticated"`
	Tier          policy.Tier `json:"-"`
	Token         string      `json:"-"`
}

// TierName is included in API responses so clients can render tier-gated UI.
func (i Identity) TierName() string {
	return i.Tier.String()
}

// Anonymous returns the identity of an unauthenticated listener.
func Anonymous() Identity {
	return Identity{Authenticated: false, Tier: policy.TierAnonymous}
}

// Verifier resolves a bearer token to an identity. Implementations must
// return ErrUnknownToken for credentials they do not recognize.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// StaticVerifier verifies tokens against a fixed token-to-role map, for
// deployments where the SSO proxy injects pre-shared service tokens.
type StaticVerifier struct {
	tiers map[string]policy.Tier
}

// NewStaticVerifier builds a verifier from a token -> role-name map.
func NewStaticVerifier(tokens map[string]string) *StaticVerifier {
	tiers := make(map[string]policy.Tier, len(tokens))
	for token, role := range tokens {
		tiers[token] = policy.ParseTier(role)
	}
	return &StaticVerifier{tiers: tiers}
}

// Verify implements Verifier
func (v *StaticVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Anonymous(), nil
	}
	tier, ok := v.tiers[token]
	if !ok {
		return Identity{}, ErrUnknownToken
	}
	return Identity{Authenticated: true, Tier: tier, Token: token}, nil
}
