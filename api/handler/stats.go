package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kri-ruj/linksaver/models"
	"github.com/kri-ruj/linksaver/store"
)

// Stats returns the handler for GET /api/v1/stats. The optional owner
// query parameter narrows the aggregate to one user's collection.
func Stats(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := st.Stats(c.Request.Context(), c.Query("owner"))
		if err != nil {
			storageError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.StatsResponse{Success: true, Stats: stats})
	}
}
