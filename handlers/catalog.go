package handlers

import (
	"net/http"
	"soundbite/server"
	"soundbite/services"
	"time"

	"github.com/gin-gonic/gin"
)

// CatalogHandler exposes the startup catalog and server counters over the
// admin surface.
type CatalogHandler struct {
	catalog   services.CatalogService
	stats     *server.Stats
	startedAt time.Time
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog services.CatalogService, stats *server.Stats) *CatalogHandler {
	return &CatalogHandler{
		catalog:   catalog,
		stats:     stats,
		startedAt: time.Now(),
	}
}

// ListCatalog returns every catalog entry
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	entries := h.catalog.Entries()
	c.JSON(http.StatusOK, gin.H{
		"files": entries,
		"count": len(entries),
	})
}

// Status reports server counters and configuration
func (h *CatalogHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":        "soundbite server is running",
		"audio_dir":      h.catalog.Dir(),
		"catalog_size":   h.catalog.Len(),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"stats":          h.stats.Snapshot(),
	})
}
