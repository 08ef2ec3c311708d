package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/pokerjest/stamper/internal/event"
	"github.com/pokerjest/stamper/internal/model"
	"github.com/pokerjest/stamper/internal/service"
)

// Refresher runs and reports the full refresh.
type Refresher interface {
	RunFullRefresh(ctx context.Context) error
	Status() service.RefreshStatus
}

type Handler struct {
	cache     *service.CacheFiller
	catalogue *service.CatalogueService
	search    *service.SearchService
	library   *service.LibraryService
	refresh   Refresher
	bus       event.Bus
	log       hclog.Logger

	// refreshCtx outlives the request that triggered the run.
	refreshCtx context.Context
}

type Services struct {
	Cache     *service.CacheFiller
	Catalogue *service.CatalogueService
	Search    *service.SearchService
	Library   *service.LibraryService
	Refresh   Refresher
	Bus       event.Bus
}

// NewHandler wires the services behind the routes. ctx bounds refreshes
// started over HTTP; cancel it on shutdown.
func NewHandler(ctx context.Context, s Services, log hclog.Logger) *Handler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if s.Bus == nil {
		s.Bus = event.NopBus{}
	}
	return &Handler{
		cache:      s.Cache,
		catalogue:  s.Catalogue,
		search:     s.Search,
		library:    s.Library,
		refresh:    s.Refresh,
		bus:        s.Bus,
		log:        log,
		refreshCtx: ctx,
	}
}

func (h *Handler) GetCatalogue(c *gin.Context) {
	cat, err := h.catalogue.Catalogue(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// GetMedia serves a series with its seasons, filling the cache on a miss.
func (h *Handler) GetMedia(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.cache.GetOrFetchSeriesDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.recordView(c, &detail.Media)
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetMovie(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	m, err := h.cache.GetOrFetchMedia(c.Request.Context(), model.MediaTypeMovie, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.recordView(c, m)
	c.JSON(http.StatusOK, m)
}

func (h *Handler) GetEpisode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ep, err := h.catalogue.Episode(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, ep)
}

func (h *Handler) GetAnime(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.catalogue.Anime(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) GetAnimeEpisode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	detail, err := h.catalogue.AnimeEpisode(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) Search(c *gin.Context) {
	results, err := h.search.Search(c.Request.Context(), c.Query("q"), queryInt(c, "limit", service.DefaultSearchLimit))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// TriggerRefresh starts a full refresh in the background.
func (h *Handler) TriggerRefresh(c *gin.Context) {
	if h.refresh.Status().IsRunning {
		c.JSON(http.StatusConflict, gin.H{"error": service.ErrRefreshRunning.Error()})
		return
	}

	go func() {
		err := h.refresh.RunFullRefresh(h.refreshCtx)
		switch {
		case errors.Is(err, service.ErrRefreshRunning):
			h.log.Info("refresh trigger ignored, run already active")
		case err != nil:
			h.log.Error("triggered refresh failed", "error", err)
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

func (h *Handler) RefreshStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.refresh.Status())
}

// recordView never fails the read it follows.
func (h *Handler) recordView(c *gin.Context, m *model.Media) {
	userID, ok := currentUser(c)
	if !ok || h.library == nil {
		return
	}
	if err := h.library.RecordView(c.Request.Context(), userID, m); err != nil {
		h.log.Warn("recording history failed", "user_id", userID, "tmdb_id", m.TMDBID, "error", err)
	}
}
