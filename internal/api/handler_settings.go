package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tour-ops-backend/internal/timeline"
)

type settingsResponse struct {
	BusyThreshold int  `json:"busyThreshold"`
	Default       bool `json:"default"`
}

type putSettingsRequest struct {
	BusyThreshold *int `json:"busyThreshold" binding:"required"`
}

// GetSettings returns the busy threshold in effect.
func (h *Handler) GetSettings(c *gin.Context) {
	stored, err := h.store.BusyThreshold(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve settings"})
		return
	}
	if stored != nil {
		c.JSON(http.StatusOK, settingsResponse{BusyThreshold: *stored})
		return
	}
	threshold := timeline.DefaultBusyThreshold
	if h.defaultThreshold != nil && *h.defaultThreshold >= 0 {
		threshold = *h.defaultThreshold
	}
	c.JSON(http.StatusOK, settingsResponse{BusyThreshold: threshold, Default: true})
}

// PutSettings stores a new busy threshold and re-evaluates the live day.
func (h *Handler) PutSettings(c *gin.Context) {
	var req putSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.BusyThreshold < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "busyThreshold must not be negative"})
		return
	}

	ctx := c.Request.Context()
	if err := h.store.SetBusyThreshold(ctx, *req.BusyThreshold); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if h.cache != nil {
		h.cache.Flush()
	}
	if h.live != nil {
		h.live.Refresh(ctx)
	}

	c.JSON(http.StatusOK, settingsResponse{BusyThreshold: *req.BusyThreshold})
}
