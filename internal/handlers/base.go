package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"promptstack/internal/admin"
	"promptstack/internal/comments"
	"promptstack/internal/prompts"
)

// respondError maps a service error onto a discriminated {"error": msg}
// payload. Store errors pass through with their own message text.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, prompts.ErrNotLoggedIn) || errors.Is(err, comments.ErrNotLoggedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, admin.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, prompts.ErrNotFound) || errors.Is(err, comments.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, prompts.ErrInvalidVote) || errors.Is(err, comments.ErrEmptyBody):
		status = http.StatusBadRequest
	}
	var verr prompts.ValidationError
	if errors.As(err, &verr) {
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
