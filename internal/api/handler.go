package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mall-bot/internal/bot"
	"mall-bot/internal/models"
	"mall-bot/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ActivityHandler runs one inbound activity.
type ActivityHandler interface {
	HandleActivity(ctx context.Context, activity *models.Activity) ([]models.Activity, error)
	Ready(ctx context.Context) error
}

// Prober reports whether the e-commerce backend answers.
type Prober interface {
	Ping(ctx context.Context) bool
}

// Handler contains HTTP handlers
type Handler struct {
	bot     ActivityHandler
	backend Prober
	limiter *clientLimiter
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(b ActivityHandler, backend Prober) *Handler {
	return &Handler{
		bot:     b,
		backend: backend,
		logger:  util.GetLogger().Named("api"),
	}
}

// WithRateLimit bounds POST /api/messages to perSecond requests per client
// IP, allowing bursts of burst. A non-positive rate disables the limit.
func (h *Handler) WithRateLimit(perSecond float64, burst int) *Handler {
	if perSecond <= 0 {
		h.limiter = nil
		return h
	}
	if burst <= 0 {
		burst = 1
	}
	h.limiter = newClientLimiter(rate.Limit(perSecond), burst)
	return h
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if h.limiter != nil {
		router.POST("/api/messages", rateLimitMiddleware(h.limiter), h.messages)
	} else {
		router.POST("/api/messages", h.messages)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready when both the state store and the
// e-commerce backend answer
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.bot.Ready(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": "state store unavailable: " + err.Error(),
		})
		return
	}

	if !h.backend.Ping(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "not ready",
			"details": "backend API unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// messages handles one inbound activity and answers with the replies
func (h *Handler) messages(c *gin.Context) {
	if !strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		c.Status(http.StatusUnsupportedMediaType)
		return
	}

	var activity models.Activity
	if err := c.ShouldBindJSON(&activity); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid activity",
			"details": err.Error(),
		})
		return
	}

	replies, err := h.bot.HandleActivity(c.Request.Context(), &activity)
	switch {
	case errors.Is(err, bot.ErrMissingConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Activity has no conversation id"})
		return
	case errors.Is(err, bot.ErrConversationBusy):
		c.JSON(http.StatusConflict, gin.H{"error": "Conversation is processing another message"})
		return
	case err != nil:
		h.logger.Error("Failed to handle activity",
			zap.String("conversation_id", activity.Conversation.ID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to handle activity"})
		return
	}

	if replies == nil {
		replies = []models.Activity{}
	}
	c.JSON(http.StatusOK, gin.H{"activities": replies})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
