package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"reality-portal/internal/models"
	"reality-portal/internal/slug"
	"reality-portal/internal/store"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SearchIndex is the slice of the optional search engine the admin handlers
// touch: keep the index in step with CRUD writes.
type SearchIndex interface {
	IndexProperty(p *models.Property) error
	RemoveProperty(id string) error
}

// AdminHandler handles the admin CRUD and statistics routes.
type AdminHandler struct {
	store store.Store
	index SearchIndex // nil unless an external search engine is configured
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(st store.Store, index SearchIndex) *AdminHandler {
	return &AdminHandler{store: st, index: index}
}

// ListProperties returns all properties, published or not.
func (h *AdminHandler) ListProperties(c *gin.Context) {
	properties, err := h.store.AllProperties()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties": properties,
		"count":      len(properties),
	})
}

// GetProperty returns one property by id.
func (h *AdminHandler) GetProperty(c *gin.Context) {
	property, err := h.store.GetPropertyByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	c.JSON(http.StatusOK, property)
}

// CreateProperty inserts a manually authored property. The slug is derived
// from the title when the request does not carry one.
func (h *AdminHandler) CreateProperty(c *gin.Context) {
	var property models.Property
	if err := c.ShouldBindJSON(&property); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if property.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	if property.Slug == "" {
		property.Slug = slug.Make(property.Title, "")
	}
	if property.Status == "" {
		property.Status = models.StatusSale
	}
	property.Published = true

	if err := h.store.CreateProperty(&property); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.reindex(&property)

	c.JSON(http.StatusCreated, property)
}

// UpdateProperty overwrites an existing property. The slug is immutable once
// assigned: updates keep the stored slug regardless of the request body.
func (h *AdminHandler) UpdateProperty(c *gin.Context) {
	existing, err := h.store.GetPropertyByID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}

	var property models.Property
	if err := c.ShouldBindJSON(&property); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	property.ID = existing.ID
	property.Slug = existing.Slug
	property.CreatedAt = existing.CreatedAt

	if err := h.store.UpdateProperty(&property); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.reindex(&property)

	c.JSON(http.StatusOK, property)
}

// DeleteProperty removes a property row and its search index entry. Deletion
// only ever happens through this admin action, never through ingestion.
func (h *AdminHandler) DeleteProperty(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteProperty(id); err != nil {
		status := http.StatusInternalServerError
		if isNotFound(err) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	if h.index != nil {
		if err := h.index.RemoveProperty(id); err != nil {
			log.Printf("Admin: Failed to remove property %s from search index: %v", id, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// GetStats returns system statistics
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats := make(map[string]interface{})

	published, unpublished, err := h.store.CountByPublished()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	stats["properties"] = map[string]interface{}{
		"published":   published,
		"unpublished": unpublished,
		"total":       published + unpublished,
	}

	byType, err := h.store.CountByType()
	if err != nil {
		log.Printf("Admin: Failed to count by type: %v", err)
	} else {
		stats["by_type"] = byType
	}

	c.JSON(http.StatusOK, stats)
}

// GetPriceDistribution returns sale price distribution in crown buckets.
func (h *AdminHandler) GetPriceDistribution(c *gin.Context) {
	type PriceRange struct {
		RangeLabel string `json:"range_label"`
		MinPrice   int    `json:"min_price"`
		MaxPrice   int    `json:"max_price"`
		Count      int64  `json:"count"`
	}

	ranges := []PriceRange{
		{RangeLabel: "do 2 mil.", MinPrice: 0, MaxPrice: 2000000},
		{RangeLabel: "2-4 mil.", MinPrice: 2000000, MaxPrice: 4000000},
		{RangeLabel: "4-6 mil.", MinPrice: 4000000, MaxPrice: 6000000},
		{RangeLabel: "6-10 mil.", MinPrice: 6000000, MaxPrice: 10000000},
		{RangeLabel: "nad 10 mil.", MinPrice: 10000000, MaxPrice: 1000000000},
	}

	for i := range ranges {
		count, err := h.store.CountPriceBetween(ranges[i].MinPrice, ranges[i].MaxPrice)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ranges[i].Count = count
	}

	c.JSON(http.StatusOK, gin.H{
		"price_distribution": ranges,
	})
}

func (h *AdminHandler) reindex(p *models.Property) {
	if h.index == nil {
		return
	}
	if err := h.index.IndexProperty(p); err != nil {
		log.Printf("Admin: Failed to index property %s: %v", p.ID, err)
	}
}

// isNotFound matches the not-found sentinels of both storage backends.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || errors.Is(err, gorm.ErrRecordNotFound)
}
