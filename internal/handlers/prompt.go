package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"promptstack/internal/middleware"
	"promptstack/internal/prompts"
	"promptstack/internal/utils"
	"promptstack/internal/views"
)

const feedCacheTTL = time.Minute
const detailCacheTTL = 5 * time.Minute

type PromptHandler struct {
	prompts *prompts.Service
	cache   *views.Cache
}

func NewPromptHandler(svc *prompts.Service, cache *views.Cache) *PromptHandler {
	return &PromptHandler{prompts: svc, cache: cache}
}

// Feed serves one page of the public prompt feed. Pages for anonymous
// readers are shared and cached; logged-in pages carry personal vote state
// and are assembled fresh.
func (h *PromptHandler) Feed(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	category := c.Query("category")
	search := c.Query("search")
	viewerID := middleware.ViewerID(c)

	cacheKey := views.Key(views.Feed, c.DefaultQuery("page", "1"), category, search)
	if viewerID == "" {
		if cached := h.cache.Get(cacheKey); cached != nil {
			if result, ok := cached.(prompts.Page); ok {
				c.JSON(http.StatusOK, result)
				return
			}
		}
	}

	result := h.prompts.GetPrompts(c.Request.Context(), viewerID, page, category, search)

	if viewerID == "" {
		h.cache.Set(cacheKey, result, feedCacheTTL)
	}
	c.JSON(http.StatusOK, result)
}

// Mine serves the viewer's own prompts for the dashboard.
func (h *PromptHandler) Mine(c *gin.Context) {
	result := h.prompts.GetUserPrompts(
		c.Request.Context(),
		middleware.ViewerID(c),
		c.Query("category"),
		c.Query("search"),
	)
	c.JSON(http.StatusOK, gin.H{"prompts": result})
}

func (h *PromptHandler) Detail(c *gin.Context) {
	id := c.Param("id")

	cacheKey := views.Key(views.Detail, id)
	if cached := h.cache.Get(cacheKey); cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	}

	prompt := h.prompts.GetPromptByID(c.Request.Context(), id)
	if prompt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "prompt not found"})
		return
	}

	h.cache.Set(cacheKey, prompt, detailCacheTTL)
	c.JSON(http.StatusOK, prompt)
}

func (h *PromptHandler) Create(c *gin.Context) {
	var form prompts.PromptForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.prompts.Create(c.Request.Context(), middleware.ViewerID(c), form); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PromptHandler) Update(c *gin.Context) {
	var update prompts.PromptUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.prompts.Update(c.Request.Context(), middleware.ViewerID(c), c.Param("id"), update); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *PromptHandler) Delete(c *gin.Context) {
	if err := h.prompts.Delete(c.Request.Context(), middleware.ViewerID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type voteRequest struct {
	Value int `json:"value"`
}

func (h *PromptHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	newVote, err := h.prompts.Vote(c.Request.Context(), middleware.ViewerID(c), c.Param("id"), req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "new_vote": newVote})
}

func (h *PromptHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": h.prompts.Categories(c.Request.Context())})
}
