package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stationkit/aircheck/internal/middleware"
	"github.com/stationkit/aircheck/internal/playback"
	"github.com/stationkit/aircheck/internal/session"
)

// CreateSessionRequest opens a playback session, optionally from a deep link
type CreateSessionRequest struct {
	DeepLink   string `json:"t,omitempty"`
	ListenerID string `json:"listener_id,omitempty"`
}

// SelectRequest is an absolute date/hour pick
type SelectRequest struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required,min=1,max=12"`
	Day   int `json:"day" binding:"required,min=1,max=31"`
	Hour  int `json:"hour" binding:"min=0,max=23"`
}

// StepRequest moves the selection by a signed number of hours
type StepRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// ControlRequest applies a transport control action
type ControlRequest struct {
	Action      string  `json:"action" binding:"required"`
	Seconds     float64 `json:"seconds,omitempty"`
	Key         string  `json:"key,omitempty"`
	InTextInput bool    `json:"in_text_input,omitempty"`
}

// SessionResponse wraps the session state with any client directives
type SessionResponse struct {
	Session    session.State    `json:"session"`
	Directives *playback.Effect `json:"directives,omitempty"`
}

// ShareResponse carries a generated share link
type ShareResponse struct {
	ShareURL string `json:"share_url"`
}

// SessionHandler handles playback session API requests
type SessionHandler struct {
	manager *session.Manager
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(manager *session.Manager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

// Create handles POST /sessions
func (h *SessionHandler) Create(c *gin.Context) {
	// The body is optional; opening without one uses the default selection.
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	ctrl, err := h.manager.Create(req.ListenerID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "manager_stopped",
			Message: "Service is shutting down",
		})
		return
	}

	state := ctrl.Open(c.Request.Context(), req.DeepLink, middleware.IdentityFrom(c))
	c.JSON(http.StatusCreated, SessionResponse{Session: state})
}

// Get handles GET /sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: ctrl.State()})
}

// Select handles POST /sessions/:id/select
func (h *SessionHandler) Select(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	state := ctrl.Select(c.Request.Context(), req.Year, time.Month(req.Month), req.Day, req.Hour)
	c.JSON(http.StatusOK, SessionResponse{Session: state})
}

// Step handles POST /sessions/:id/step
func (h *SessionHandler) Step(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	state := ctrl.Step(c.Request.Context(), req.Delta)
	c.JSON(http.StatusOK, SessionResponse{Session: state})
}

// Events handles POST /sessions/:id/events
func (h *SessionHandler) Events(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	var ev playback.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	state, effect := ctrl.HandleEvent(c.Request.Context(), ev)
	c.JSON(http.StatusOK, SessionResponse{Session: state, Directives: &effect})
}

// Controls handles POST /sessions/:id/controls
func (h *SessionHandler) Controls(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	var req ControlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	state, effect, err := ctrl.Controls(c.Request.Context(), req.Action, req.Seconds, req.Key, req.InTextInput)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unknown_action",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, SessionResponse{Session: state, Directives: &effect})
}

// DismissBanner handles POST /sessions/:id/banner/dismiss
func (h *SessionHandler) DismissBanner(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, SessionResponse{Session: ctrl.DismissBanner()})
}

// Share handles GET /sessions/:id/share?include_position=
func (h *SessionHandler) Share(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	includePosition := c.Query("include_position") == "true"
	c.JSON(http.StatusOK, ShareResponse{ShareURL: ctrl.ShareLink(includePosition)})
}

// Auth handles POST /sessions/:id/auth, re-running classification with the
// caller's current identity after a login or logout.
func (h *SessionHandler) Auth(c *gin.Context) {
	ctrl, ok := h.lookup(c)
	if !ok {
		return
	}

	state := ctrl.SetIdentity(c.Request.Context(), middleware.IdentityFrom(c))
	c.JSON(http.StatusOK, SessionResponse{Session: state})
}

// lookup resolves the :id path parameter to a live session
func (h *SessionHandler) lookup(c *gin.Context) (*session.Controller, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid session ID format",
		})
		return nil, false
	}

	ctrl, found := h.manager.Get(id)
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "session_not_found",
			Message: session.ErrSessionNotFound.Error(),
		})
		return nil, false
	}

	return ctrl, true
}

// SetupSessionRoutes registers playback session routes
func SetupSessionRoutes(apiGroup *gin.RouterGroup, manager *session.Manager) {
	handler := NewSessionHandler(manager)

	apiGroup.POST("/sessions", handler.Create)
	apiGroup.GET("/sessions/:id", handler.Get)
	apiGroup.POST("/sessions/:id/select", handler.Select)
	apiGroup.POST("/sessions/:id/step", handler.Step)
	apiGroup.POST("/sessions/:id/events", handler.Events)
	apiGroup.POST("/sessions/:id/controls", handler.Controls)
	apiGroup.POST("/sessions/:id/banner/dismiss", handler.DismissBanner)
	apiGroup.GET("/sessions/:id/share", handler.Share)
	apiGroup.POST("/sessions/:id/auth", handler.Auth)
}
