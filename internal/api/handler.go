package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prasenjit/go-intentions/internal/condition"
	"github.com/prasenjit/go-intentions/internal/events"
	"github.com/prasenjit/go-intentions/internal/importer"
	"github.com/prasenjit/go-intentions/internal/metrics"
	"github.com/prasenjit/go-intentions/internal/models"
	"github.com/prasenjit/go-intentions/internal/storage"
	"github.com/prasenjit/go-intentions/internal/validation"
)

// Handler handles API requests
type Handler struct {
	store     storage.Storage
	events    *events.Service
	metrics   *metrics.Metrics
	logger    *slog.Logger
	validator *validation.Validator
	matcher   *condition.Matcher
}

// NewHandler creates a new API handler
func NewHandler(store storage.Storage, eventService *events.Service, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		events:    eventService,
		metrics:   m,
		logger:    logger,
		validator: validation.New(),
		matcher:   condition.NewMatcher(),
	}
}

// MatchRequest is the body of a header match preview
type MatchRequest struct {
	Condition models.HeaderCondition `json:"condition"`
	Headers   map[string][]string    `json:"headers"`
}

// ListIntentions returns all intentions, optionally filtered by source and destination
func (h *Handler) ListIntentions(c *gin.Context) {
	var filter models.IntentionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	list, err := h.store.ListIntentions(&filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, list)
}

// CreateIntention creates a new intention
func (h *Handler) CreateIntention(c *gin.Context) {
	var input models.IntentionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ixn := models.NewIntention(input)
	ixn.ID = uuid.New().String()
	ixn.CreatedAt = time.Now()
	ixn.UpdatedAt = ixn.CreatedAt

	if errs := h.validator.Intention(ixn); len(errs) > 0 {
		h.rejectInvalid(c, "intention", errs)
		return
	}

	if err := h.store.CreateIntention(ixn); err != nil {
		h.storeError(c, err)
		return
	}

	h.logger.Info("intention created", "id", ixn.ID, "source", ixn.SourceName, "destination", ixn.DestinationName)
	h.publish(models.EventCreated, ixn.ID, ixn)
	h.refreshCount()

	c.JSON(http.StatusCreated, ixn)
}

// GetIntention returns a single intention
func (h *Handler) GetIntention(c *gin.Context) {
	ixn, err := h.store.GetIntention(c.Param("id"))
	if err != nil {
		h.storeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ixn)
}

// UpdateIntention applies a partial update to an intention
func (h *Handler) UpdateIntention(c *gin.Context) {
	id := c.Param("id")

	current, err := h.store.GetIntention(id)
	if err != nil {
		h.storeError(c, err)
		return
	}

	var update models.IntentionUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Work on a copy so a rejected update leaves the stored record untouched
	ixn := *current
	ixn.Apply(update)
	ixn.UpdatedAt = time.Now()

	if errs := h.validator.Intention(&ixn); len(errs) > 0 {
		h.rejectInvalid(c, "intention", errs)
		return
	}

	if err := h.store.UpdateIntention(&ixn); err != nil {
		h.storeError(c, err)
		return
	}

	h.logger.Info("intention updated", "id", ixn.ID)
	h.publish(models.EventUpdated, ixn.ID, &ixn)

	c.JSON(http.StatusOK, &ixn)
}

// DeleteIntention deletes an intention together with its permissions
func (h *Handler) DeleteIntention(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteIntention(id); err != nil {
		h.storeError(c, err)
		return
	}

	h.logger.Info("intention deleted", "id", id)
	h.publish(models.EventDeleted, id, nil)
	h.refreshCount()

	c.JSON(http.StatusOK, gin.H{"message": "Intention deleted"})
}

// ImportIntentions creates intentions from an export document
func (h *Handler) ImportIntentions(c *gin.Context) {
	data, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := importer.Parse(data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := importer.Store(h.store, h.validator, result)
	for _, ixn := range report.Created {
		h.publish(models.EventCreated, ixn.ID, ixn)
	}
	h.refreshCount()

	h.logger.Info("intentions imported",
		"created", len(report.Created),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)

	c.JSON(http.StatusOK, report)
}

// GetHeaderTypes returns the header match kinds in priority order
func (h *Handler) GetHeaderTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": models.HeaderTypes()})
}

// InspectHeader reports the active match kind of a header condition and
// whether it is valid
func (h *Handler) InspectHeader(c *gin.Context) {
	var cond models.HeaderCondition
	if err := c.ShouldBindJSON(&cond); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs := h.validator.Header(&cond)
	if len(errs) > 0 {
		h.metrics.ValidationFailuresTotal.WithLabelValues("header").Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"headerType": cond.HeaderType(),
		"value":      cond.Value(),
		"valid":      len(errs) == 0,
		"errors":     errs,
	})
}

// MatchHeader tests a header condition against sample request headers
func (h *Handler) MatchHeader(c *gin.Context) {
	var req MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matched := h.matcher.Match(&req.Condition, http.Header(req.Headers))
	headerType := req.Condition.HeaderType()

	h.metrics.HeaderMatchesTotal.WithLabelValues(string(headerType), strconv.FormatBool(matched)).Inc()

	c.JSON(http.StatusOK, gin.H{
		"matched":    matched,
		"headerType": headerType,
	})
}

// ListEvents returns recent intention changes, newest first
func (h *Handler) ListEvents(c *gin.Context) {
	var filter models.EventFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.events.GetEvents(&filter))
}

// HealthCheck returns health status
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now(),
		"events": h.events.GetStats(),
	})
}

func (h *Handler) publish(eventType, id string, ixn *models.Intention) {
	h.events.Publish(eventType, id, ixn)
	h.metrics.EventsPublishedTotal.WithLabelValues(eventType).Inc()
}

func (h *Handler) refreshCount() {
	list, err := h.store.ListIntentions(nil)
	if err != nil {
		h.logger.Warn("failed to count intentions", "error", err)
		return
	}
	h.metrics.IntentionsStored.Set(float64(len(list)))
}

func (h *Handler) rejectInvalid(c *gin.Context, kind string, errs validation.Errors) {
	h.metrics.ValidationFailuresTotal.WithLabelValues(kind).Inc()
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "validation failed",
		"errors": errs,
	})
}

func (h *Handler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Intention not found"})
	case errors.Is(err, storage.ErrDuplicatePair), errors.Is(err, storage.ErrAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("storage failure", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
