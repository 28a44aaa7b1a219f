package maintenance

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Scheduler *Scheduler
}

func NewHandler(scheduler *Scheduler) *Handler {
	return &Handler{Scheduler: scheduler}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/schedule", h.schedule)
	rg.POST("/:kind/:id/done", h.markDone)
}

func (h *Handler) schedule(c *gin.Context) {
	items, err := h.Scheduler.Schedule(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "schedule failed"})
		return
	}
	if items == nil {
		items = []Item{}
	}
	c.JSON(http.StatusOK, gin.H{"total": len(items), "items": items})
}

func (h *Handler) markDone(c *gin.Context) {
	kind := c.Param("kind")
	if kind != KindConsole && kind != KindAccessory {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be console or accessory"})
		return
	}

	found, err := h.Scheduler.MarkDone(c.Request.Context(), kind, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if err := h.Scheduler.SyncReminders(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reminder sync failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "maintenance recorded"})
}
