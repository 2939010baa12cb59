package finder

import (
	"context"
	"net/http"

	"departure_finder/internal/geo"
	"departure_finder/internal/selection"
	"departure_finder/platform/apperr"
	"departure_finder/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Geocoder resolves a free-text address to a point.
type Geocoder interface {
	Locate(ctx context.Context, query string) (geo.Point, string, error)
}

// Handler exposes the controller of the caller's session over HTTP.
type Handler struct {
	sessions *SessionStore
	geocoder Geocoder
}

func NewHandler(sessions *SessionStore, geocoder Geocoder) *Handler {
	return &Handler{sessions: sessions, geocoder: geocoder}
}

func (h *Handler) controller(c *gin.Context) (*Controller, bool) {
	id, ok := httpkit.GetSessionID(c)
	if !ok {
		httpkit.Error(c, http.StatusInternalServerError, "session not initialised", nil)
		return nil, false
	}
	ctrl, err := h.sessions.Get(id)
	if err != nil {
		_ = c.Error(err)
		httpkit.HandleError(c, apperr.Internal("session unavailable", err))
		return nil, false
	}
	return ctrl, true
}

// GetState handles GET /api/v1/finder/state
func (h *Handler) GetState(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	httpkit.OK(c, ctrl.View())
}

// GetMarkers handles GET /api/v1/finder/markers
func (h *Handler) GetMarkers(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	body, err := ctrl.MarkersGeoJSON()
	if err != nil {
		httpkit.HandleError(c, apperr.Internal("failed to encode markers", err))
		return
	}
	c.Data(http.StatusOK, "application/geo+json", body)
}

// ClickMap handles POST /api/v1/finder/map-clicks
func (h *Handler) ClickMap(c *gin.Context) {
	var req MapClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "lat and lng are required coordinates", err.Error())
		return
	}
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if _, err := ctrl.ClickMap(geo.Point{Lat: *req.Lat, Lng: *req.Lng}); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ctrl.View())
}

// ClickMarker handles POST /api/v1/finder/markers/:role/click
func (h *Handler) ClickMarker(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.ClickMarker(selection.Role(c.Param("role"))); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, ctrl.View())
}

// SetLimit handles PUT /api/v1/finder/limit
func (h *Handler) SetLimit(c *gin.Context) {
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.SetLimit(req.Value)
	httpkit.OK(c, ctrl.View())
}

// SetDepartureTime handles PUT /api/v1/finder/departure-time
func (h *Handler) SetDepartureTime(c *gin.Context) {
	var req FieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.SetDepartureTime(req.Value)
	httpkit.OK(c, ctrl.View())
}

// ToggleDebug handles POST /api/v1/finder/debug/toggle
func (h *Handler) ToggleDebug(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	open := ctrl.ToggleDebug()
	httpkit.OK(c, ToggleResponse{Open: open, View: ctrl.View()})
}

// Search handles POST /api/v1/finder/search
// Upstream failures still answer 200; the view's status carries the error.
func (h *Handler) Search(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	if err := ctrl.Search(c.Request.Context()); err != nil {
		httpkit.JSON(c, statusOf(err), gin.H{"error": errorMessage(err), "view": ctrl.View()})
		return
	}
	httpkit.OK(c, ctrl.View())
}

// SearchRateLimited answers a throttled search with the session view so the
// page can repaint its search control.
func (h *Handler) SearchRateLimited(c *gin.Context) {
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}
	ctrl.RejectSearch(httpkit.MsgRateLimited)
	httpkit.JSON(c, http.StatusTooManyRequests, gin.H{"error": httpkit.MsgRateLimited, "view": ctrl.View()})
}

// PlaceAddress handles POST /api/v1/finder/points/:role/address
func (h *Handler) PlaceAddress(c *gin.Context) {
	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "query is required (min 3 chars)", nil)
		return
	}
	role := selection.Role(c.Param("role"))
	if !role.Valid() {
		httpkit.Error(c, http.StatusBadRequest, "unknown marker role", nil)
		return
	}
	ctrl, ok := h.controller(c)
	if !ok {
		return
	}

	point, label, err := h.geocoder.Locate(c.Request.Context(), req.Query)
	if httpkit.HandleError(c, err) {
		return
	}
	if err := ctrl.PlacePoint(role, point); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, AddressResponse{Label: label, View: ctrl.View()})
}

func statusOf(err error) int {
	if domainErr, ok := err.(*apperr.Error); ok {
		return domainErr.HTTPStatus()
	}
	return http.StatusInternalServerError
}
