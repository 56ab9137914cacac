package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vigilops/vigil/internal/auth"
	"github.com/vigilops/vigil/internal/logger"
)

// AuthHandler issues admin tokens against the configured shared secret.
// Operators exchange the deployment secret for a short-lived bearer
// token instead of putting the secret on every request. When a user
// directory is configured, the subject must resolve to an active
// platform account.
type AuthHandler struct {
	service   *auth.Service
	directory *auth.Directory
	secret    string
}

func NewAuthHandler(service *auth.Service, directory *auth.Directory, secret string) *AuthHandler {
	return &AuthHandler{service: service, directory: directory, secret: secret}
}

type tokenRequest struct {
	Subject string `json:"subject" binding:"required"`
	Secret  string `json:"secret" binding:"required"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if subtle.ConstantTimeCompare([]byte(req.Secret), []byte(h.secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	role := "admin"
	if h.directory != nil {
		user, err := h.directory.LookupUser(c.Request.Context(), req.Subject)
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown subject"})
			return
		case err != nil:
			// Directory outages must not lock operators out.
			logger.Warnf("User directory unavailable, issuing token without lookup: %v", err)
		case !user.Active:
			c.JSON(http.StatusForbidden, gin.H{"error": "account disabled"})
			return
		default:
			if user.Role != "" {
				role = user.Role
			}
		}
	}

	token, err := h.service.GenerateToken(req.Subject, role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}
