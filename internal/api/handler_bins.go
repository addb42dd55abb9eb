package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bin-status-backend/internal/bins"
	"bin-status-backend/internal/model"
)

type registerBinRequest struct {
	Location string `json:"location" binding:"required"`
	ID       *int   `json:"id" binding:"required"`
	bins.RegisterRequest
}

// RegisterBin handles POST /api/bins: first-time registration or a
// metadata upsert for an existing bin.
func (h *Handler) RegisterBin(c *gin.Context) {
	var req registerBinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := model.BinKey{Location: req.Location, ID: *req.ID}
	bin, err := h.bins.Register(c.Request.Context(), key, req.RegisterRequest)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register bin"})
		return
	}

	c.JSON(http.StatusCreated, bin)
}

// ReportTelemetry handles POST /api/bins/:location/:id/telemetry.
func (h *Handler) ReportTelemetry(c *gin.Context) {
	key, ok := binKeyFromPath(c)
	if !ok {
		return
	}

	var update bins.TelemetryUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bin, err := h.bins.ApplyTelemetry(c.Request.Context(), key, update)
	if errors.Is(err, bins.ErrBinNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bin is not registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply telemetry"})
		return
	}

	c.JSON(http.StatusOK, bin)
}

type heartbeatRequest struct {
	MicroProcessorStatus string `json:"microProcessorStatus" binding:"required,oneof=ON OFF"`
}

// ReportHeartbeat handles POST /api/bins/:location/:id/heartbeat.
func (h *Handler) ReportHeartbeat(c *gin.Context) {
	key, ok := binKeyFromPath(c)
	if !ok {
		return
	}

	var req heartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.bins.ApplyHeartbeat(c.Request.Context(), key, req.MicroProcessorStatus)
	if errors.Is(err, bins.ErrBinNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bin is not registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply heartbeat"})
		return
	}

	c.Status(http.StatusNoContent)
}

// binResponse is a persisted record with the tracker's current liveness
// view merged in. Tracked is false for bins that have never reported.
type binResponse struct {
	model.Bin
	IsOnline bool `json:"isOnline"`
	Tracked  bool `json:"tracked"`
}

// GetBin handles GET /api/bins/:location/:id.
func (h *Handler) GetBin(c *gin.Context) {
	key, ok := binKeyFromPath(c)
	if !ok {
		return
	}

	bin, err := h.bins.Get(c.Request.Context(), key)
	if errors.Is(err, bins.ErrBinNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Bin is not registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve bin"})
		return
	}

	online, tracked := h.bins.Online(key)
	c.JSON(http.StatusOK, binResponse{Bin: *bin, IsOnline: online, Tracked: tracked})
}

// ListBins handles GET /api/bins, optionally filtered by ?location=.
func (h *Handler) ListBins(c *gin.Context) {
	records, err := h.bins.List(c.Request.Context(), c.Query("location"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve bins"})
		return
	}

	response := make([]binResponse, 0, len(records))
	for _, bin := range records {
		online, tracked := h.bins.Online(bin.Key())
		response = append(response, binResponse{Bin: bin, IsOnline: online, Tracked: tracked})
	}

	c.JSON(http.StatusOK, response)
}
