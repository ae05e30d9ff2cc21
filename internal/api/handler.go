package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"purchase-patterns/internal/models"
	"purchase-patterns/internal/patterns"
	"purchase-patterns/internal/service"
	"purchase-patterns/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Check reports whether a dependency is reachable
type Check func(ctx context.Context) error

// Handler contains HTTP handlers
type Handler struct {
	patterns *service.PatternService
	checks   map[string]Check
	clock    func() time.Time
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler. checks are run by the readiness endpoint.
func NewHandler(patterns *service.PatternService, checks map[string]Check) *Handler {
	return &Handler{
		patterns: patterns,
		checks:   checks,
		clock:    time.Now,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/predictions/holiday-adjust", h.adjustForHolidays)

		users := v1.Group("/users/:userId")
		users.GET("/usual-items", h.getUsualItems)
		users.GET("/usual-basket", h.getUsualBasket)
		users.POST("/usual-basket/modify", h.modifyUsualBasket)
		users.GET("/shopping-patterns", h.getShoppingPatterns)
		users.GET("/reorder-suggestions", h.getReorderSuggestions)
		users.GET("/seasonal-items", h.getSeasonalItems)
		users.PUT("/seasonal-patterns/:season", h.setSeasonalPatterns)
		users.GET("/reorder-cycles", h.getReorderCycles)
		users.GET("/due", h.getDue)
		users.GET("/reminders", h.getReminders)
		users.GET("/bundles", h.getBundles)
		users.GET("/predictions/:sku", h.getPrediction)
		users.POST("/stockout-reminders", h.getStockoutReminders)
		users.POST("/feedback", h.addFeedback)
		users.GET("/feedback/:sku", h.getFeedbackLearning)
		users.GET("/household", h.getHousehold)
		users.GET("/insights", h.getInsights)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   h.clock().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("dependency", name), zap.Error(err))
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   h.clock().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   h.clock().Unix(),
	})
}

func (h *Handler) getUsualItems(c *gin.Context) {
	items, source, err := h.patterns.UsualItems(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"source": source,
	})
}

func (h *Handler) getUsualBasket(c *gin.Context) {
	threshold, err := queryFloat(c, "threshold", patterns.UseDefault)
	if err != nil {
		badRequest(c, "Invalid threshold", err)
		return
	}

	basket, err := h.patterns.UsualBasket(c.Request.Context(), c.Param("userId"), threshold)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, basket)
}

type modifyBasketRequest struct {
	Modifications map[string]int `json:"modifications" binding:"required"`
	Threshold     *float64       `json:"threshold"`
}

func (h *Handler) modifyUsualBasket(c *gin.Context) {
	var req modifyBasketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	threshold := float64(patterns.UseDefault)
	if req.Threshold != nil {
		if *req.Threshold < 0 {
			badRequest(c, "Invalid threshold", errNegative)
			return
		}
		threshold = *req.Threshold
	}

	basket, err := h.patterns.ModifyUsualBasket(c.Request.Context(), c.Param("userId"), threshold, req.Modifications)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, basket)
}

func (h *Handler) getShoppingPatterns(c *gin.Context) {
	shopping, err := h.patterns.ShoppingPatterns(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, shopping)
}

func (h *Handler) getReorderSuggestions(c *gin.Context) {
	now, err := h.asOf(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	suggestions, source, err := h.patterns.ReorderSuggestions(c.Request.Context(), c.Param("userId"), now)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"source":      source,
	})
}

func (h *Handler) getSeasonalItems(c *gin.Context) {
	season := strings.ToLower(strings.TrimSpace(c.Query("season")))
	if season == "" {
		h.writeError(c, models.ErrInvalidSeason)
		return
	}

	items, err := h.patterns.SeasonalItems(c.Request.Context(), c.Param("userId"), season)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"season": season,
		"items":  items,
	})
}

type seasonalPatternsRequest struct {
	SKUs []string `json:"skus"`
}

func (h *Handler) setSeasonalPatterns(c *gin.Context) {
	var req seasonalPatternsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	if err := h.patterns.SetSeasonalPatterns(c.Request.Context(), c.Param("userId"), c.Param("season"), req.SKUs); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) getReorderCycles(c *gin.Context) {
	cycles, err := h.patterns.ReorderCycles(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycles": cycles})
}

func (h *Handler) getDue(c *gin.Context) {
	now, err := h.asOf(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	due, err := h.patterns.DueForReorder(c.Request.Context(), c.Param("userId"), now)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"due": due})
}

func (h *Handler) getReminders(c *gin.Context) {
	now, err := h.asOf(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	days, err := queryInt(c, "days", patterns.UseDefault)
	if err != nil {
		badRequest(c, "Invalid days", err)
		return
	}

	reminders, err := h.patterns.Reminders(c.Request.Context(), c.Param("userId"), now, days)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

func (h *Handler) getBundles(c *gin.Context) {
	bundles, err := h.patterns.Bundles(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bundles": bundles})
}

func (h *Handler) getPrediction(c *gin.Context) {
	season := strings.ToLower(strings.TrimSpace(c.Query("season")))

	prediction, err := h.patterns.PredictReorderDate(c.Request.Context(), c.Param("userId"), c.Param("sku"), season)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, prediction)
}

type holidayAdjustRequest struct {
	RegularCycleDays int               `json:"regular_cycle_days"`
	NextDate         string            `json:"next_date" binding:"required"`
	Holidays         map[string]string `json:"holidays"`
}

func (h *Handler) adjustForHolidays(c *gin.Context) {
	var req holidayAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	next := models.ParseTimestamp(req.NextDate)
	if next.IsZero() {
		h.writeError(c, models.ErrInvalidDate)
		return
	}

	c.JSON(http.StatusOK, h.patterns.AdjustForHolidays(req.RegularCycleDays, next, req.Holidays))
}

func (h *Handler) getStockoutReminders(c *gin.Context) {
	now, err := h.asOf(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	var opts models.StockoutOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	reminders, err := h.patterns.StockoutReminders(c.Request.Context(), c.Param("userId"), now, opts)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

func (h *Handler) addFeedback(c *gin.Context) {
	var fb models.ReorderFeedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	learning, err := h.patterns.RecordFeedback(c.Request.Context(), c.Param("userId"), fb)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, learning)
}

func (h *Handler) getFeedbackLearning(c *gin.Context) {
	learning, err := h.patterns.FeedbackLearning(c.Request.Context(), c.Param("userId"), c.Param("sku"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, learning)
}

func (h *Handler) getHousehold(c *gin.Context) {
	household, err := h.patterns.Household(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, household)
}

func (h *Handler) getInsights(c *gin.Context) {
	now, err := h.asOf(c)
	if err != nil {
		h.writeError(c, err)
		return
	}

	insights, err := h.patterns.Insights(c.Request.Context(), c.Param("userId"), now)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, insights)
}

// asOf reads the date query parameter, defaulting to the current time
func (h *Handler) asOf(c *gin.Context) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return h.clock().UTC(), nil
	}
	ts := models.ParseTimestamp(raw)
	if ts.IsZero() {
		return time.Time{}, models.ErrInvalidDate
	}
	return ts, nil
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidUserID),
		errors.Is(err, models.ErrInvalidSKU),
		errors.Is(err, models.ErrInvalidQuantity),
		errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, models.ErrInvalidSeason),
		errors.Is(err, models.ErrInvalidFeedback):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("user_id", c.Param("userId")),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"details": err.Error(),
		})
	}
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

var errNegative = errors.New("must not be negative")

// queryFloat parses an optional non-negative query parameter, returning def when it is absent
func queryFloat(c *gin.Context, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errNegative
	}
	return v, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errNegative
	}
	return v, nil
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
