package api

import (
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"bin-status-backend/internal/bins"
	"bin-status-backend/internal/model"
	"bin-status-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	bins    *bins.Service
	store   store.Store
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(b *bins.Service, s store.Store, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		bins:    b,
		store:   s,
		webpush: webpushOptions,
	}
}

// binKeyFromPath reads the :location/:id route params. A non-numeric id
// aborts the request with 400.
func binKeyFromPath(c *gin.Context) (model.BinKey, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid bin ID"})
		return model.BinKey{}, false
	}
	return model.BinKey{Location: c.Param("location"), ID: id}, true
}
