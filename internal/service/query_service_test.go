package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/adapter/postgres"
	"rates-service/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupQueryService(maxDaysBack int) (*QueryService, *mockRatesRepo, *mockCbrClient) {
	mockRepo := new(mockRatesRepo)
	mockCbr := new(mockCbrClient)
	logger, _ := test.NewNullLogger()
	svc := NewQueryService(mockRepo, mockCbr, maxDaysBack, logger)
	return svc, mockRepo, mockCbr
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFindRate_StoredRateWinsWithoutSourceCall(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(0)
	date := day(2025, 2, 20)

	mockRepo.On("GetRate", ctx, date, "USD", "RUR").
		Return(&entity.CurrencyRate{
			Date:         date,
			CurrencyCode: "USD",
			Rate:         decimal.RequireFromString("100.5"),
		}, nil)

	result, err := svc.FindRate(ctx, date, "USD", "RUR")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, date, result.Date)
	assert.True(t, result.Rate.Equal(decimal.RequireFromString("100.5")))

	mockCbr.AssertNotCalled(t, "RateForDateAndCode")
}

func TestFindRate_SourceFallbackTagsFeedDate(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(0)
	requested := day(2025, 2, 22)
	feedDate := day(2025, 2, 20)

	mockRepo.On("GetRate", ctx, requested, "USD", "RUR").
		Return(nil, postgres.ErrNotFound)
	mockCbr.On("RateForDateAndCode", ctx, requested, "USD").
		Return(&cbr.Rate{
			Date:         feedDate,
			CurrencyCode: "USD",
			Rate:         decimal.RequireFromString("98.4576"),
		}, nil)

	result, err := svc.FindRate(ctx, requested, "USD", "RUR")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, feedDate, result.Date)
	assert.True(t, result.Rate.Equal(decimal.RequireFromString("98.4576")))
}

func TestFindRate_NowhereIsNilNotError(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(0)
	date := day(2025, 2, 22)

	mockRepo.On("GetRate", ctx, date, "USD", "RUR").
		Return(nil, postgres.ErrNotFound)
	mockCbr.On("RateForDateAndCode", ctx, date, "USD").
		Return(nil, nil)

	result, err := svc.FindRate(ctx, date, "USD", "RUR")
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestFindRate_SourceUnavailableIsAnError(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(0)
	date := day(2025, 2, 22)

	mockRepo.On("GetRate", ctx, date, "USD", "RUR").
		Return(nil, postgres.ErrNotFound)
	mockCbr.On("RateForDateAndCode", ctx, date, "USD").
		Return(nil, cbr.ErrSourceUnavailable)

	_, err := svc.FindRate(ctx, date, "USD", "RUR")
	assert.ErrorIs(t, err, cbr.ErrSourceUnavailable)
}

func TestFindPreviousTradingDay_StoredTierShortCircuits(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(0)
	date := day(2025, 2, 20)
	prevDate := day(2025, 2, 19)

	mockRepo.On("GetLatestBefore", ctx, "USD", date).
		Return(&entity.CurrencyRate{
			Date:         prevDate,
			CurrencyCode: "USD",
			Rate:         decimal.RequireFromString("99.0"),
		}, nil)

	result, err := svc.FindPreviousTradingDay(ctx, date, "USD", "RUR")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, prevDate, result.Date)
	assert.True(t, result.Rate.Equal(decimal.RequireFromString("99.0")))

	mockCbr.AssertNotCalled(t, "RateForDateAndCode")
	mockRepo.AssertNotCalled(t, "GetRate")
}

func TestFindPreviousTradingDay_WalkBackFindsFirstDayWithData(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(10)
	date := day(2025, 2, 24)
	hit := day(2025, 2, 21)

	mockRepo.On("GetLatestBefore", ctx, "USD", date).
		Return(nil, postgres.ErrNotFound)
	mockRepo.On("GetRate", ctx, mock.Anything, "USD", "RUR").
		Return(nil, postgres.ErrNotFound)
	mockCbr.On("RateForDateAndCode", ctx, day(2025, 2, 23), "USD").Return(nil, nil)
	mockCbr.On("RateForDateAndCode", ctx, day(2025, 2, 22), "USD").Return(nil, nil)
	mockCbr.On("RateForDateAndCode", ctx, hit, "USD").
		Return(&cbr.Rate{Date: hit, CurrencyCode: "USD", Rate: decimal.RequireFromString("97.25")}, nil)

	result, err := svc.FindPreviousTradingDay(ctx, date, "USD", "RUR")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, hit, result.Date)
}

func TestFindPreviousTradingDay_BoundedAndExhausted(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(5)
	date := day(2025, 2, 20)

	mockRepo.On("GetLatestBefore", ctx, "USD", date).
		Return(nil, postgres.ErrNotFound)
	mockRepo.On("GetRate", ctx, mock.Anything, "USD", "RUR").
		Return(nil, postgres.ErrNotFound)
	mockCbr.On("RateForDateAndCode", ctx, mock.Anything, "USD").Return(nil, nil)

	result, err := svc.FindPreviousTradingDay(ctx, date, "USD", "RUR")
	require.NoError(t, err)
	assert.Nil(t, result)

	// exactly maxDaysBack prior days inspected, never more
	mockCbr.AssertNumberOfCalls(t, "RateForDateAndCode", 5)
}

func TestFindPreviousTradingDay_WalkBackStopsOnSourceError(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, mockCbr := setupQueryService(5)
	date := day(2025, 2, 20)

	mockRepo.On("GetLatestBefore", ctx, "USD", date).
		Return(nil, postgres.ErrNotFound)
	mockRepo.On("GetRate", ctx, mock.Anything, "USD", "RUR").
		Return(nil, postgres.ErrNotFound)
	mockCbr.On("RateForDateAndCode", ctx, mock.Anything, "USD").
		Return(nil, cbr.ErrSourceUnavailable)

	_, err := svc.FindPreviousTradingDay(ctx, date, "USD", "RUR")
	assert.ErrorIs(t, err, cbr.ErrSourceUnavailable)
	mockCbr.AssertNumberOfCalls(t, "RateForDateAndCode", 1)
}

func TestFindPreviousTradingDay_StoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	svc, mockRepo, _ := setupQueryService(5)
	date := day(2025, 2, 20)
	dbErr := errors.New("connection reset")

	mockRepo.On("GetLatestBefore", ctx, "USD", date).Return(nil, dbErr)

	_, err := svc.FindPreviousTradingDay(ctx, date, "USD", "RUR")
	assert.ErrorIs(t, err, dbErr)
}

func TestDelta_ExactFixedPoint(t *testing.T) {
	current := decimal.RequireFromString("100.5")
	previous := decimal.RequireFromString("99.0")
	assert.Equal(t, "1.5", Delta(current, previous).String())

	// values that would not subtract cleanly in binary floating point
	assert.Equal(t, "0.1", Delta(decimal.RequireFromString("0.3"), decimal.RequireFromString("0.2")).String())
	assert.Equal(t, "-1.5", Delta(previous, current).String())
}
