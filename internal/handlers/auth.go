package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"promptstack/internal/middleware"
	"promptstack/internal/models"
	"promptstack/internal/store"
	"promptstack/internal/utils"
)

type AuthHandler struct {
	store store.Client
}

func NewAuthHandler(st store.Client) *AuthHandler {
	return &AuthHandler{store: st}
}

type signupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Signup registers a new account. The profile row is created implicitly
// here; everyone starts with the ordinary user role.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		badRequest(c, "a valid email is required")
		return
	}
	if len(req.Password) < 6 {
		badRequest(c, "password must be at least 6 characters")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	profile := models.Profile{
		Email:    req.Email,
		Role:     models.RoleUser,
		Password: hash,
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		profile.DisplayName = &name
	}

	if err := h.store.Insert(c.Request.Context(), "profiles", &profile); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}

	if err := middleware.SetSessionUser(c, profile.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	var rows []models.Profile
	err := h.store.Select(c.Request.Context(), store.Query{
		Table:   "profiles",
		Filters: []store.Filter{store.Eq("email", strings.TrimSpace(strings.ToLower(req.Email)))},
		Limit:   1,
	}, &rows)
	if err != nil {
		respondError(c, err)
		return
	}
	if len(rows) == 0 || !utils.CheckPassword(rows[0].Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	if err := middleware.SetSessionUser(c, rows[0].ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "profile": rows[0]})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := middleware.ClearSession(c); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me returns the viewer's own profile.
func (h *AuthHandler) Me(c *gin.Context) {
	viewer := middleware.Viewer(c)
	if viewer == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "you must be logged in"})
		return
	}
	c.JSON(http.StatusOK, viewer)
}
