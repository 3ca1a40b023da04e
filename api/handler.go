package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"content-service/config"
	"content-service/model"
	"content-service/refresh"
	"content-service/service"
	"content-service/store"
	"content-service/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	cfg       *config.Config
	query     *service.Query
	refresher *refresh.Refresher
	worker    *worker.Worker
}

func NewHandler(cfg *config.Config, query *service.Query, refresher *refresh.Refresher, w *worker.Worker) *Handler {
	return &Handler{cfg: cfg, query: query, refresher: refresher, worker: w}
}

// GetPaginated serves GET /<plural>-api?page&pageSize&search.
func (h *Handler) GetPaginated(c *gin.Context) {
	page, errPage := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, errSize := strconv.Atoi(c.DefaultQuery("pageSize", "10"))
	search := c.Query("search")

	if errPage != nil || errSize != nil || page < 1 || pageSize < 1 || pageSize > h.cfg.MaxPageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page or pageSize parameters"})
		return
	}

	// Cache-busting headers so the frontend always sees the live corpus.
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")

	items, total, err := h.query.Search(c.Request.Context(), search, page, pageSize)
	if err != nil {
		log.Printf("Failed to retrieve %s: %v", h.cfg.Schema.Plural, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	totalPages := (total + int64(pageSize) - 1) / int64(pageSize)
	log.Printf("Retrieved %d %s for page %d (search: %q)", len(items), h.cfg.Schema.Plural, page, search)

	c.JSON(http.StatusOK, gin.H{
		"page":       page,
		"pageSize":   pageSize,
		"total":      total,
		"totalPages": totalPages,
		"items":      items,
		"search":     search,
	})
}

// GetByID serves GET /<plural>-api/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id := c.Param("id")

	item, err := h.query.Get(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": h.cfg.Schema.Name + " not found"})
		return
	}
	if err != nil {
		log.Printf("Failed to retrieve %s %s: %v", h.cfg.Schema.Name, id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, item)
}

// TriggerRefresh serves POST /<plural>-api/refresh?batchSize. The request is
// published to the event transport when connected; otherwise the refresh runs
// directly in this call and the final result is returned.
func (h *Handler) TriggerRefresh(c *gin.Context) {
	batchSize, err := strconv.Atoi(c.DefaultQuery("batchSize", strconv.Itoa(h.cfg.BatchSize)))
	if err != nil || batchSize < 1 || batchSize > h.cfg.MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Batch size must be between 1 and " + strconv.Itoa(h.cfg.MaxBatchSize),
		})
		return
	}

	req := model.RefreshRequest{
		RequestID:   uuid.NewString(),
		BatchSize:   batchSize,
		Priority:    "manual",
		RequestedAt: time.Now().UTC(),
	}

	publishErr := h.worker.TriggerRefresh(req)
	if publishErr == nil {
		c.JSON(http.StatusAccepted, gin.H{
			"message":   "Refresh triggered",
			"requestId": req.RequestID,
			"batchSize": batchSize,
		})
		return
	}
	if !errors.Is(publishErr, worker.ErrTransportUnavailable) {
		log.Printf("NATS publish failed, performing direct refresh: %v", publishErr)
	}

	res, err := h.refresher.Refresh(c.Request.Context(), batchSize)
	if err != nil {
		log.Printf("Direct refresh %s failed: %v", req.RequestID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger refresh"})
		return
	}

	total, err := h.query.Count(c.Request.Context())
	if err != nil {
		log.Printf("Count after refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Printf("Direct refresh %s completed: %d fetched, %d failed", req.RequestID, res.SuccessCount, res.FailCount)
	c.JSON(http.StatusOK, gin.H{
		"message":    "Refresh completed directly",
		"totalItems": total,
		"batchSize":  batchSize,
	})
}

// GetStats serves GET /<plural>-api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.query.Stats(c.Request.Context())
	if err != nil {
		log.Printf("Failed to retrieve stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
