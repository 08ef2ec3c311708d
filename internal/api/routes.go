package api

import (
	"github.com/gin-gonic/gin"
)

func InitRoutes(r *gin.Engine, h *Handler) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// refresh webhook, kept outside /api for existing callers
	r.POST("/update_server", h.TriggerRefresh)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/catalogue", h.GetCatalogue)
		apiGroup.GET("/search", h.Search)

		// Read-through
		apiGroup.GET("/media/:id", UserMiddleware(), h.GetMedia)
		apiGroup.GET("/movie/:id", UserMiddleware(), h.GetMovie)

		// Stored only
		apiGroup.GET("/episode/:id", h.GetEpisode)
		apiGroup.GET("/anime/:id", h.GetAnime)
		apiGroup.GET("/anime-episode/:id", h.GetAnimeEpisode)

		// History & favorites
		users := apiGroup.Group("/users/:user_id")
		{
			users.GET("/history", h.GetHistory)
			users.GET("/favorites", h.GetFavorites)
			users.POST("/favorites/:media_id", h.AddFavorite)
			users.DELETE("/favorites/:media_id", h.RemoveFavorite)
		}

		// Refresh
		apiGroup.POST("/refresh", h.TriggerRefresh)
		apiGroup.GET("/refresh/status", h.RefreshStatus)
		apiGroup.GET("/events", h.Events)
	}
}
