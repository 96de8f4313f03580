package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promptstack/internal/comments"
	"promptstack/internal/middleware"
)

type CommentHandler struct {
	comments *comments.Service
}

func NewCommentHandler(svc *comments.Service) *CommentHandler {
	return &CommentHandler{comments: svc}
}

func (h *CommentHandler) List(c *gin.Context) {
	result := h.comments.List(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"comments": result})
}

type addCommentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	comment, err := h.comments.Add(c.Request.Context(), middleware.ViewerID(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comment": comment})
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), middleware.ViewerID(c), c.Param("cid")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
