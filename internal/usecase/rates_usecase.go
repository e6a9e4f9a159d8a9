package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"rates-service/internal/entity"
	"rates-service/internal/service"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCurrencyCode     = errors.New("invalid currency code")
	ErrUnsupportedBaseCurrency = errors.New("only RUR or RUB base currency is supported")
	ErrRateNotFound            = errors.New("rate not found for requested date")
)

var charCodeRegexp = regexp.MustCompile(`^[A-Z]{3}$`)

// RateResolver is the read-only resolution surface of the service layer.
type RateResolver interface {
	FindRate(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*service.RateOnDate, error)
	FindPreviousTradingDay(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*service.RateOnDate, error)
}

// ReferenceChecker validates a code against the static ISO reference.
type ReferenceChecker interface {
	IsReferenceCode(code string) bool
}

// RatesResponse is the payload for the rates query: the rate on the
// requested date, the previous trading day and the delta between them.
// PreviousTradeDate and Delta are null when no earlier trading day has
// data within the lookback bound.
type RatesResponse struct {
	Date              string   `json:"date"`
	CurrencyCode      string   `json:"currency_code"`
	BaseCurrencyCode  string   `json:"base_currency_code"`
	Rate              float64  `json:"rate"`
	PreviousTradeDate *string  `json:"previous_trade_date"`
	Delta             *float64 `json:"delta"`
}

type RatesUsecase struct {
	resolver RateResolver
	codes    ReferenceChecker
	logger   *logrus.Logger
}

func NewRatesUsecase(resolver RateResolver, codes ReferenceChecker, logger *logrus.Logger) *RatesUsecase {
	return &RatesUsecase{
		resolver: resolver,
		codes:    codes,
		logger:   logger,
	}
}

func (uc *RatesUsecase) GetRates(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*RatesResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if !charCodeRegexp.MatchString(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrencyCode, currencyCode)
	}
	if !uc.codes.IsReferenceCode(code) {
		return nil, fmt.Errorf("%w: %s is not an ISO 4217 code", ErrInvalidCurrencyCode, code)
	}

	base, err := entity.ParseBaseCurrency(baseCurrencyCode)
	if err != nil || base.Storage() != entity.StorageBaseCode {
		return nil, fmt.Errorf("%w: got %q", ErrUnsupportedBaseCurrency, baseCurrencyCode)
	}

	current, err := uc.resolver.FindRate(ctx, date, code, base.Storage())
	if err != nil {
		uc.logger.WithError(err).Errorf("Failed to resolve rate for %s on %s", code, date.Format("2006-01-02"))
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s on %s", ErrRateNotFound, code, date.Format("2006-01-02"))
	}

	previous, err := uc.resolver.FindPreviousTradingDay(ctx, date, code, base.Storage())
	if err != nil {
		uc.logger.WithError(err).Errorf("Failed to resolve previous trading day for %s before %s", code, date.Format("2006-01-02"))
		return nil, err
	}

	resp := &RatesResponse{
		Date:             date.Format("2006-01-02"),
		CurrencyCode:     code,
		BaseCurrencyCode: base.Display(),
		Rate:             current.Rate.InexactFloat64(),
	}
	if previous != nil {
		prevDate := previous.Date.Format("2006-01-02")
		delta := service.Delta(current.Rate, previous.Rate).InexactFloat64()
		resp.PreviousTradeDate = &prevDate
		resp.Delta = &delta
	}
	return resp, nil
}
