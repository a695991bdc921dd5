package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Service health
// @Description  Reports process health and the last Binance connectivity check
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	if h.status == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	st := h.status.Status()
	overall := "ok"
	if !st.Connected {
		overall = "degraded"
	}
	c.JSON(http.StatusOK, gin.H{"status": overall, "binance": st})
}
