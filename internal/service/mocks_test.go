package service

import (
	"context"
	"time"

	"rates-service/internal/adapter/cbr"
	"rates-service/internal/entity"

	"github.com/stretchr/testify/mock"
)

type mockCbrClient struct {
	mock.Mock
}

func (m *mockCbrClient) RatesForDate(ctx context.Context, date time.Time) ([]cbr.Rate, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cbr.Rate), args.Error(1)
}

func (m *mockCbrClient) RateForDateAndCode(ctx context.Context, date time.Time, code string) (*cbr.Rate, error) {
	args := m.Called(ctx, date, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cbr.Rate), args.Error(1)
}

func (m *mockCbrClient) AvailableCodes(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]struct{}), args.Error(1)
}

type mockRatesRepo struct {
	mock.Mock
}

func (m *mockRatesRepo) UpsertRate(ctx context.Context, rate entity.CurrencyRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func (m *mockRatesRepo) UpsertRates(ctx context.Context, rates []entity.CurrencyRate) error {
	args := m.Called(ctx, rates)
	return args.Error(0)
}

func (m *mockRatesRepo) GetRate(ctx context.Context, date time.Time, currencyCode, baseCurrencyCode string) (*entity.CurrencyRate, error) {
	args := m.Called(ctx, date, currencyCode, baseCurrencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CurrencyRate), args.Error(1)
}

func (m *mockRatesRepo) GetLatestBefore(ctx context.Context, currencyCode string, date time.Time) (*entity.CurrencyRate, error) {
	args := m.Called(ctx, currencyCode, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.CurrencyRate), args.Error(1)
}
