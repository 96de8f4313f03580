package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"promptstack/internal/admin"
	"promptstack/internal/middleware"
	"promptstack/internal/views"
)

const statsCacheTTL = time.Minute

type AdminHandler struct {
	admin *admin.Service
	cache *views.Cache
}

func NewAdminHandler(svc *admin.Service, cache *views.Cache) *AdminHandler {
	return &AdminHandler{admin: svc, cache: cache}
}

func (h *AdminHandler) Stats(c *gin.Context) {
	viewerID := middleware.ViewerID(c)

	// The gate runs before the cache so a cached payload never leaks to a
	// non-admin viewer.
	if !h.admin.IsAdmin(c.Request.Context(), viewerID) {
		c.JSON(http.StatusForbidden, gin.H{"error": admin.ErrForbidden.Error()})
		return
	}

	cacheKey := views.Key(views.Admin, "stats")
	if cached := h.cache.Get(cacheKey); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	stats := h.admin.Stats(c.Request.Context(), viewerID)
	if stats == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": admin.ErrForbidden.Error()})
		return
	}

	h.cache.Set(cacheKey, stats, statsCacheTTL)
	c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) SearchPrompt(c *gin.Context) {
	prompt := h.admin.SearchPromptByID(c.Request.Context(), middleware.ViewerID(c), c.Param("id"))
	if prompt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
		return
	}
	c.JSON(http.StatusOK, prompt)
}

func (h *AdminHandler) DeletePrompt(c *gin.Context) {
	if err := h.admin.DeletePromptAsAdmin(c.Request.Context(), middleware.ViewerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
