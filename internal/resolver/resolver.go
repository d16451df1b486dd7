// Package resolver turns a broadcast-hour selection into a time-boxed
// playable URL by building the canonical media key and asking the external
// signing collaborator. It performs no caching and is safe to call
// repeatedly for the same hour; expiry handling belongs to the collaborator.
package resolver

import (
	"context"

	"github.com/stationkit/aircheck/internal/archive"
	"github.com/stationkit/aircheck/internal/logger"
	"github.com/stationkit/aircheck/internal/policy"
)

// Signer is the external URL-signing collaborator. Given a canonical media
// key and the caller's tier it returns a time-limited playable URL, a
// DeniedError when the request fails its own server-side window check, or a
// transport error.
type Signer interface {
	SignedURL(ctx context.Context, key string, tier policy.Tier) (string, error)
}

// Resolver builds canonical media keys and delegates to the signing
// collaborator.
type Resolver struct {
	signer    Signer
	extension string
}

// New creates a Resolver. A nil signer is a setup error and fails loud.
func New(signer Signer, extension string) *Resolver {
	if signer == nil {
		panic("resolver: signer must not be nil")
	}
	return &Resolver{
		signer:    signer,
		extension: extension,
	}
}

// Resolve returns a playable URL for the selection's broadcast hour.
// Collaborator denials are returned as DeniedError with the reason intact;
// transport failures are normalized to ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, sel archive.Selection, tier policy.Tier) (string, error) {
	key := archive.MediaKey(sel, r.extension)

	url, err := r.signer.SignedURL(ctx, key, tier)
	if err != nil {
		if IsDenied(err) {
			logger.Log.Warn().
				Str("key", key).
				Str("tier", tier.String()).
				Err(err).
				Msg("Signing collaborator denied archive request")
			return "", err
		}
		logger.Log.Error().
			Str("key", key).
			Err(err).
			Msg("Failed to reach signing collaborator")
		return "", ErrUnavailable
	}

	logger.Log.Debug().
		Str("key", key).
		Str("tier", tier.String()).
		Msg("Resolved archive media URL")

	return url, nil
}
