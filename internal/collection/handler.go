package collection

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"retrohub/pkg/models"
)

type Handler struct {
	Store *Store
}

func NewHandler(store *Store) *Handler {
	return &Handler{Store: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/collection", h.getCollection)

	rg.GET("/games", h.listGames)
	rg.POST("/games", h.addGame)
	rg.GET("/games/:id", h.getGame)
	rg.PATCH("/games/:id", h.updateGame)
	rg.DELETE("/games/:id", h.deleteGame)

	rg.GET("/consoles", h.listConsoles)
	rg.POST("/consoles", h.addConsole)
	rg.GET("/consoles/:id", h.getConsole)
	rg.PATCH("/consoles/:id", h.updateConsole)
	rg.DELETE("/consoles/:id", h.deleteConsole)

	rg.GET("/accessories", h.listAccessories)
	rg.POST("/accessories", h.addAccessory)
	rg.GET("/accessories/:id", h.getAccessory)
	rg.PATCH("/accessories/:id", h.updateAccessory)
	rg.DELETE("/accessories/:id", h.deleteAccessory)

	rg.GET("/wishlist", h.listWishlist)
	rg.POST("/wishlist", h.addWishlistItem)
	rg.GET("/wishlist/:id", h.getWishlistItem)
	rg.PATCH("/wishlist/:id", h.updateWishlistItem)
	rg.DELETE("/wishlist/:id", h.deleteWishlistItem)
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrValidation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
}

func (h *Handler) getCollection(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) listGames(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(doc.Games), "items": doc.Games})
}

func (h *Handler) addGame(c *gin.Context) {
	var g models.Game
	if err := c.ShouldBindJSON(&g); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	created, err := h.Store.AddGame(c.Request.Context(), g)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getGame(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	id := c.Param("id")
	for _, g := range doc.Games {
		if g.ID == id {
			c.JSON(http.StatusOK, g)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *Handler) updateGame(c *gin.Context) {
	var p GamePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updated, err := h.Store.UpdateGame(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteGame(c *gin.Context) {
	if err := h.Store.DeleteGame(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) listConsoles(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(doc.Consoles), "items": doc.Consoles})
}

func (h *Handler) addConsole(c *gin.Context) {
	var con models.Console
	if err := c.ShouldBindJSON(&con); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	created, err := h.Store.AddConsole(c.Request.Context(), con)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getConsole(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	id := c.Param("id")
	for _, con := range doc.Consoles {
		if con.ID == id {
			c.JSON(http.StatusOK, con)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *Handler) updateConsole(c *gin.Context) {
	var p ConsolePatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updated, err := h.Store.UpdateConsole(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteConsole(c *gin.Context) {
	if err := h.Store.DeleteConsole(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) listAccessories(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(doc.Accessories), "items": doc.Accessories})
}

func (h *Handler) addAccessory(c *gin.Context) {
	var a models.Accessory
	if err := c.ShouldBindJSON(&a); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	created, err := h.Store.AddAccessory(c.Request.Context(), a)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getAccessory(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	id := c.Param("id")
	for _, a := range doc.Accessories {
		if a.ID == id {
			c.JSON(http.StatusOK, a)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *Handler) updateAccessory(c *gin.Context) {
	var p AccessoryPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updated, err := h.Store.UpdateAccessory(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteAccessory(c *gin.Context) {
	if err := h.Store.DeleteAccessory(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) listWishlist(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(doc.Wishlist), "items": doc.Wishlist})
}

func (h *Handler) addWishlistItem(c *gin.Context) {
	var w models.WishlistItem
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if w.Type != "" {
		w.Type = normalizeWishType(w.Type)
		if w.Type == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "type must be one of: game, console, accessory, other",
			})
			return
		}
	}
	if w.Priority != "" {
		w.Priority = normalizePriority(w.Priority)
		if w.Priority == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "priority must be one of: low, medium, high",
			})
			return
		}
	}

	created, err := h.Store.AddWishlistItem(c.Request.Context(), w)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) getWishlistItem(c *gin.Context) {
	doc, err := h.Store.Get(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	id := c.Param("id")
	for _, w := range doc.Wishlist {
		if w.ID == id {
			c.JSON(http.StatusOK, w)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func (h *Handler) updateWishlistItem(c *gin.Context) {
	var p WishlistPatch
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if p.Type != nil {
		t := normalizeWishType(*p.Type)
		if t == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "type must be one of: game, console, accessory, other",
			})
			return
		}
		p.Type = &t
	}
	if p.Priority != nil {
		pr := normalizePriority(*p.Priority)
		if pr == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "priority must be one of: low, medium, high",
			})
			return
		}
		p.Priority = &pr
	}

	updated, err := h.Store.UpdateWishlistItem(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	if updated == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) deleteWishlistItem(c *gin.Context) {
	if err := h.Store.DeleteWishlistItem(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func normalizeWishType(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "game":
		return models.WishGame
	case "console":
		return models.WishConsole
	case "accessory":
		return models.WishAccessory
	case "other":
		return models.WishOther
	default:
		return ""
	}
}

func normalizePriority(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return models.PriorityLow
	case "medium":
		return models.PriorityMedium
	case "high":
		return models.PriorityHigh
	default:
		return ""
	}
}
