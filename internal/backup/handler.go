package backup

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/export", h.export)
	rg.POST("/import", h.restore)
}

func (h *Handler) export(c *gin.Context) {
	path, err := h.Engine.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}
	c.FileAttachment(path, filepath.Base(path))
}

func (h *Handler) restore(c *gin.Context) {
	fh, err := c.FormFile("backup")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "backup file required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer f.Close()

	if err := h.Engine.Restore(c.Request.Context(), f); err != nil {
		if errors.Is(err, ErrInvalidBackup) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restore failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "restore completed"})
}
