package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kri-ruj/linksaver/models"
	"github.com/kri-ruj/linksaver/recommend"
	"github.com/kri-ruj/linksaver/store"
)

const defaultSimilarK = 5

// corpusFor loads the recommendation corpus: every non-archived article
// of the owner. An empty owner spans the whole collection, which is what
// a single-user deployment wants.
func corpusFor(c *gin.Context, st *store.Store, ownerID string) ([]*models.Article, bool) {
	articles, err := st.List(c.Request.Context(), store.ListFilter{OwnerID: ownerID})
	if err != nil {
		storageError(c, err)
		return nil, false
	}
	return articles, true
}

// Similar returns the handler for GET /api/v1/articles/:id/similar.
// The index is rebuilt per request; collections are small enough that
// this stays well under a millisecond.
func Similar(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		target, err := st.Get(c.Request.Context(), id)
		if err != nil {
			articleError(c, err)
			return
		}

		k := defaultSimilarK
		if raw := c.Query("k"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				badRequest(c, "k must be a positive integer")
				return
			}
			k = n
		}

		articles, ok := corpusFor(c, st, target.OwnerID)
		if !ok {
			return
		}

		recs := recommend.BuildIndex(articles).Similar(id, k)
		if recs == nil {
			recs = []models.Recommendation{}
		}
		c.JSON(http.StatusOK, models.RecommendResponse{
			Success:         true,
			Recommendations: recs,
		})
	}
}

// Duplicates returns the handler for GET /api/v1/duplicates: article
// pairs whose content matches even though their URLs differ. Query
// parameters: owner (narrows scope), threshold (cosine cutoff,
// default 0.8).
func Duplicates(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		threshold := recommend.DefaultDuplicateThreshold
		if raw := c.Query("threshold"); raw != "" {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil || f <= 0 || f > 1 {
				badRequest(c, "threshold must be in (0, 1]")
				return
			}
			threshold = f
		}

		articles, ok := corpusFor(c, st, c.Query("owner"))
		if !ok {
			return
		}

		pairs := recommend.BuildIndex(articles).Duplicates(threshold)
		if pairs == nil {
			pairs = []models.DuplicatePair{}
		}
		c.JSON(http.StatusOK, models.DuplicatesResponse{Success: true, Pairs: pairs})
	}
}
