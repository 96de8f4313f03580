package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"promptstack/internal/models"
	"promptstack/internal/store"
)

const ViewerKey = "viewer"
const sessionUserKey = "user_id"

// LoadUser resolves the session's profile into the request context. Missing
// or stale sessions just leave the viewer unset.
func LoadUser(st store.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		id, ok := session.Get(sessionUserKey).(string)
		if ok && id != "" {
			var rows []models.Profile
			err := st.Select(c.Request.Context(), store.Query{
				Table:   "profiles",
				Filters: []store.Filter{store.Eq("id", id)},
				Limit:   1,
			}, &rows)
			if err == nil && len(rows) > 0 {
				c.Set(ViewerKey, &rows[0])
			}
		}
		c.Next()
	}
}

// AuthRequired rejects requests without a resolved viewer.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(ViewerKey); !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "you must be logged in"})
			return
		}
		c.Next()
	}
}

// Viewer returns the resolved profile, or nil for anonymous requests.
func Viewer(c *gin.Context) *models.Profile {
	if v, exists := c.Get(ViewerKey); exists {
		return v.(*models.Profile)
	}
	return nil
}

// ViewerID returns the resolved profile id, or "" for anonymous requests.
func ViewerID(c *gin.Context) string {
	if v := Viewer(c); v != nil {
		return v.ID
	}
	return ""
}

// SetSessionUser records the login in the session cookie.
func SetSessionUser(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Set(sessionUserKey, userID)
	return session.Save()
}

// ClearSession logs the viewer out.
func ClearSession(c *gin.Context) error {
	session := sessions.Default(c)
	session.Clear()
	return session.Save()
}
