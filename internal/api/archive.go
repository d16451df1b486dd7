package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stationkit/aircheck/internal/archive"
	"github.com/stationkit/aircheck/internal/logger"
	"github.com/stationkit/aircheck/internal/middleware"
	"github.com/stationkit/aircheck/internal/policy"
	"github.com/stationkit/aircheck/internal/resolver"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ResolveResponse carries a freshly signed media URL
type ResolveResponse struct {
	URL       string `json:"url"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expires_in_seconds"`
}

// urlResolver defines the interface required by ArchiveHandler
type urlResolver interface {
	Resolve(ctx context.Context, sel archive.Selection, tier policy.Tier) (string, error)
}

// ArchiveHandler handles direct archive resolution requests, backing the
// download action for authenticated listeners.
type ArchiveHandler struct {
	resolver  urlResolver
	extension string
	signedTTL time.Duration
}

// NewArchiveHandler creates a new archive handler instance
func NewArchiveHandler(res urlResolver, extension string, signedTTL time.Duration) *ArchiveHandler {
	return &ArchiveHandler{resolver: res, extension: extension, signedTTL: signedTTL}
}

// Resolve handles GET /archive/resolve?date=YYYYMMDD&hour=H.
// Only authenticated callers may fetch a raw signed URL.
func (h *ArchiveHandler) Resolve(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if !identity.Authenticated {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "authentication_required",
			Message: "Sign in to download recordings",
		})
		return
	}

	sel, ok := parseDateHour(c.Query("date"), c.Query("hour"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_selection",
			Message: "date must be YYYYMMDD and hour 0-23",
		})
		return
	}

	url, err := h.resolver.Resolve(c.Request.Context(), sel, identity.Tier)
	if err != nil {
		if resolver.IsDenied(err) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "access_denied",
				Message: err.Error(),
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Msg("Failed to resolve archive URL")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "resolver_unavailable",
			Message: resolver.ErrUnavailable.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, ResolveResponse{
		URL:       url,
		Key:       archive.MediaKey(sel, h.extension),
		ExpiresIn: int(h.signedTTL.Seconds()),
	})
}

// parseDateHour parses a YYYYMMDD date string and an hour field into a
// zero-offset selection.
func parseDateHour(date, hour string) (archive.Selection, bool) {
	if len(date) != 8 {
		return archive.Selection{}, false
	}

	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return archive.Selection{}, false
	}

	sel, ok := archive.DecodeTimestamp(date + "000000")
	if !ok {
		return archive.Selection{}, false
	}
	sel.Hour = h
	return sel, true
}

// SetupArchiveRoutes registers archive resolution routes
func SetupArchiveRoutes(apiGroup *gin.RouterGroup, res urlResolver, extension string, signedTTL time.Duration) {
	handler := NewArchiveHandler(res, extension, signedTTL)
	apiGroup.GET("/archive/resolve", handler.Resolve)
}
