package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Fine-grained catalog queries for clients that want a single value
// without fetching the whole listing served by /catalog.

func (h *handler) getCatalogLevels(c *gin.Context) {
	summary := h.svc.Catalog()
	c.JSON(http.StatusOK, gin.H{"types": summary.Types, "levels": summary.Levels})
}

func (h *handler) getCatalogPrice(c *gin.Context) {
	ftype, level, ok := typeAndLevel(c)
	if !ok {
		return
	}

	price, err := h.svc.CatalogPrice(ftype, level)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"type": ftype, "level": level, "price": price})
}

func (h *handler) getCatalogProduction(c *gin.Context) {
	ftype, level, ok := typeAndLevel(c)
	if !ok {
		return
	}

	rate, bonus, err := h.svc.CatalogProduction(ftype, level)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"type":                ftype,
		"level":               level,
		"products_per_minute": rate,
		"bonus_per_minute":    bonus,
	})
}

func (h *handler) getCatalogResourcePrice(c *gin.Context) {
	resourceType, err := queryInt(c, "type")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
		return
	}

	price, err := h.svc.CatalogResourcePrice(resourceType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"type": resourceType, "resource_price": price})
}

func typeAndLevel(c *gin.Context) (ftype, level int, ok bool) {
	ftype, err := queryInt(c, "type")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
		return 0, 0, false
	}

	level, err = queryInt(c, "level")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid level"})
		return 0, 0, false
	}

	return ftype, level, true
}

func queryInt(c *gin.Context, name string) (int, error) {
	return strconv.Atoi(c.Query(name))
}
