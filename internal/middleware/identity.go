package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stationkit/aircheck/internal/auth"
	"github.com/stationkit/aircheck/internal/logger"
)

// identityKey is the gin context key holding the caller's identity
const identityKey = "aircheck.identity"

// Identity returns a middleware that resolves the Authorization bearer
// token to an access tier. Requests without a token proceed as anonymous;
// an unrecognized token is treated the same way rather than rejected, since
// the archive is browsable without credentials.
func Identity(verifier auth.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := auth.Anonymous()

		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok && token != "" {
			verified, err := verifier.Verify(c.Request.Context(), token)
			if err != nil {
				logger.Log.Warn().
					Str("client_ip", c.ClientIP()).
					Msg("Unrecognized bearer token, continuing as anonymous")
			} else {
				identity = verified
			}
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom extracts the caller identity placed by the Identity
// middleware, defaulting to anonymous when absent.
func IdentityFrom(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if identity, ok := v.(auth.Identity); ok {
			return identity
		}
	}
	return auth.Anonymous()
}
