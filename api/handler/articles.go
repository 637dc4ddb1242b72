package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kri-ruj/linksaver/models"
	"github.com/kri-ruj/linksaver/store"
)

const defaultListLimit = 100

// ListArticles returns the handler for GET /api/v1/articles.
//
// Query parameters: owner (narrows to one user), stage (kanban column),
// include_archived (default false), limit (default 100).
func ListArticles(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := store.ListFilter{
			OwnerID:         c.Query("owner"),
			Stage:           models.Stage(c.Query("stage")),
			IncludeArchived: c.Query("include_archived") == "true",
			Limit:           defaultListLimit,
		}
		if filter.Stage != "" && !models.ValidStage(filter.Stage) {
			badRequest(c, "unknown stage: "+string(filter.Stage))
			return
		}
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				badRequest(c, "limit must be a non-negative integer")
				return
			}
			filter.Limit = n
		}

		articles, err := st.List(c.Request.Context(), filter)
		if err != nil {
			storageError(c, err)
			return
		}
		if articles == nil {
			articles = []*models.Article{}
		}
		c.JSON(http.StatusOK, models.ArticleListResponse{
			Success:  true,
			Articles: articles,
			Count:    len(articles),
		})
	}
}

// GetArticle returns the handler for GET /api/v1/articles/:id.
func GetArticle(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		article, err := st.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			articleError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ArticleResponse{Success: true, Article: article})
	}
}

// UpdateStage returns the handler for POST /api/v1/articles/:id/stage,
// which moves an article between kanban columns. Moving into "completed"
// stamps completed_at exactly once; later moves never clear or reset it.
func UpdateStage(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateStageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body must be {\"stage\": \"inbox|reading|reviewing|completed\"}")
			return
		}

		id := c.Param("id")
		if err := st.UpdateStage(c.Request.Context(), id, req.Stage); err != nil {
			articleError(c, err)
			return
		}

		article, err := st.Get(c.Request.Context(), id)
		if err != nil {
			articleError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ArticleResponse{Success: true, Article: article})
	}
}

// UpdateNotes returns the handler for POST /api/v1/articles/:id/notes.
func UpdateNotes(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateNotesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body must be {\"notes\": \"...\"}")
			return
		}

		id := c.Param("id")
		if err := st.UpdateNotes(c.Request.Context(), id, req.Notes); err != nil {
			articleError(c, err)
			return
		}

		article, err := st.Get(c.Request.Context(), id)
		if err != nil {
			articleError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ArticleResponse{Success: true, Article: article})
	}
}

// Archive returns the handler for POST /api/v1/articles/:id/archive.
// Archiving hides an article from the default list and the recommender;
// it never deletes the record.
func Archive(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ArchiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "body must be {\"archived\": true|false}")
			return
		}

		id := c.Param("id")
		if err := st.SetArchived(c.Request.Context(), id, req.Archived); err != nil {
			articleError(c, err)
			return
		}

		article, err := st.Get(c.Request.Context(), id)
		if err != nil {
			articleError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ArticleResponse{Success: true, Article: article})
	}
}

// --- shared error responses ---

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeInvalidInput, Message: message},
	})
}

func storageError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: &models.ErrorDetail{Code: models.ErrCodeStorageFailure, Message: err.Error()},
	})
}

// articleError maps store errors onto HTTP statuses: validation failures
// are 400, a missing article is 404, everything else is 500.
func articleError(c *gin.Context, err error) {
	var perr *models.PipelineError
	if errors.As(err, &perr) && perr.Code == models.ErrCodeInvalidInput {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: perr.ToDetail()})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: &models.ErrorDetail{Code: models.ErrCodeNotFound, Message: "article not found"},
		})
		return
	}
	storageError(c, err)
}
