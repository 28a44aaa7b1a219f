package metaauth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Cache *Cache
}

func NewHandler(c *Cache) *Handler {
	return &Handler{Cache: c}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/credentials", h.getCredentials)
	rg.PUT("/credentials", h.saveCredentials)
	rg.DELETE("/credentials", h.deleteCredentials)
	rg.POST("/token/refresh", h.refreshToken)
	rg.DELETE("/token", h.clearToken)
}

// getCredentials reports whether a pair is saved; the secret never
// leaves the server.
func (h *Handler) getCredentials(c *gin.Context) {
	creds, ok, err := h.Cache.Credentials(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"configured": ok, "client_id": creds.ClientID})
}

func (h *Handler) saveCredentials(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.Cache.SaveCredentials(c.Request.Context(), creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "credentials saved"})
}

func (h *Handler) deleteCredentials(c *gin.Context) {
	if err := h.Cache.DeleteCredentials(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "credentials deleted"})
}

func (h *Handler) refreshToken(c *gin.Context) {
	_, err := h.Cache.Token(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, ErrNotConfigured):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, ErrAuthFailed):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token valid"})
}

func (h *Handler) clearToken(c *gin.Context) {
	if err := h.Cache.ClearToken(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token cleared"})
}
