package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

func (h *Handler) GetHistory(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	items, err := h.library.History(c.Request.Context(), userID, queryInt(c, "limit", defaultHistoryLimit))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) GetFavorites(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	items, err := h.library.Favorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// AddFavorite is idempotent.
func (h *Handler) AddFavorite(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	mediaID, ok := pathID(c, "media_id")
	if !ok {
		return
	}
	if err := h.library.AddFavorite(c.Request.Context(), userID, mediaID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": userID, "media_id": mediaID})
}

func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID, ok := pathUserID(c)
	if !ok {
		return
	}
	mediaID, ok := pathID(c, "media_id")
	if !ok {
		return
	}
	if err := h.library.RemoveFavorite(c.Request.Context(), userID, mediaID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
