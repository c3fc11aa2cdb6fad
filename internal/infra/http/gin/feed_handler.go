package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentcal/internal/app/feedsync"
)

type FeedHandler struct {
	Service *feedsync.Service
}

// Sync handles POST /api/v1/feeds/:id/sync.
func (h *FeedHandler) Sync(c *gin.Context) {
	count, err := h.Service.Sync(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": count})
}

var _ FeedHTTP = (*FeedHandler)(nil)
