package handlers

import (
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"reality-portal/internal/feed"
	"reality-portal/internal/ingest"

	"github.com/gin-gonic/gin"
)

// IngestHandler exposes the scheduled-trigger surface of the ingestion
// pipeline: an authenticated POST that runs one batch synchronously and
// returns the count summary.
type IngestHandler struct {
	pipeline    *ingest.Pipeline
	secret      string
	maxListings int
}

func NewIngestHandler(pipeline *ingest.Pipeline, secret string, maxListings int) *IngestHandler {
	return &IngestHandler{
		pipeline:    pipeline,
		secret:      secret,
		maxListings: maxListings,
	}
}

// RequireSecret rejects trigger calls whose bearer token does not match the
// configured secret. Rejection happens before any work starts — no partial
// execution on auth failure.
func (h *IngestHandler) RequireSecret() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if h.secret == "" || token == auth || subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

type triggerRequest struct {
	Category    string `json:"category"`
	DealType    string `json:"deal_type"`
	MaxListings int    `json:"max_listings"`
}

// Trigger runs one ingestion batch and returns its summary. A feed failure
// is the only fatal outcome and is reported with a timestamp; per-listing
// failures are already folded into the error count.
func (h *IngestHandler) Trigger(c *gin.Context) {
	req := triggerRequest{
		Category:    feed.CategoryApartments,
		DealType:    feed.DealSale,
		MaxListings: h.maxListings,
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.MaxListings <= 0 {
		req.MaxListings = h.maxListings
	}

	log.Printf("[Ingest] Trigger received (category=%s type=%s max=%d)", req.Category, req.DealType, req.MaxListings)

	summary, err := h.pipeline.Run(c.Request.Context(), req.Category, req.DealType, req.MaxListings)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     err.Error(),
			"timestamp": time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
