package handler

import (
	"errors"
	"net/http"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/entity"
	"rates-service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type RatesHandler struct {
	rates    usecase.RatesProvider
	backfill usecase.BackfillScheduler
	logger   *logrus.Logger
}

func NewRatesHandler(rates usecase.RatesProvider, backfill usecase.BackfillScheduler, logger *logrus.Logger) *RatesHandler {
	return &RatesHandler{
		rates:    rates,
		backfill: backfill,
		logger:   logger,
	}
}

// GetRates handles GET /api/rates?date=YYYY-MM-DD&currency_code=USD&base_currency_code=RUR
func (h *RatesHandler) GetRates(c *gin.Context) {
	dateStr := c.Query("date")
	if dateStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'date'"})
		return
	}
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date format, expected YYYY-MM-DD"})
		return
	}

	currencyCode := c.Query("currency_code")
	if currencyCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required query parameter 'currency_code'"})
		return
	}

	baseCurrencyCode := c.Query("base_currency_code")
	if baseCurrencyCode == "" {
		baseCurrencyCode = entity.StorageBaseCode
	}

	result, err := h.rates.GetRates(c.Request.Context(), date, currencyCode, baseCurrencyCode)
	if err != nil {
		h.logger.WithError(err).Errorf("Failed to get rates for %s on %s", currencyCode, dateStr)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ScheduleBackfill handles POST /api/backfill.
func (h *RatesHandler) ScheduleBackfill(c *gin.Context) {
	var req BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	count, err := h.backfill.ScheduleHistory(req.CurrencyCode, req.Days)
	if err != nil {
		h.logger.WithError(err).Errorf("Failed to schedule backfill for %s", req.CurrencyCode)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "backfill scheduled",
		"jobs":    count,
	})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, usecase.ErrRateNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidCurrencyCode),
		errors.Is(err, usecase.ErrUnsupportedBaseCurrency),
		errors.Is(err, usecase.ErrInvalidDaysCount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, cbr.ErrSourceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
