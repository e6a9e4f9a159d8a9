package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyRate is one persisted rate row. A row is unique per
// (Date, CurrencyCode, BaseCurrencyCode); ingestion upserts on that key.
type CurrencyRate struct {
	ID               int64           `db:"id" json:"id,omitempty"`
	Date             time.Time       `db:"date" json:"date"`
	CurrencyCode     string          `db:"currency_code" json:"currency_code"`
	BaseCurrencyCode string          `db:"base_currency_code" json:"base_currency_code"`
	Rate             decimal.Decimal `db:"rate" json:"rate"`
	Nominal          int             `db:"nominal" json:"nominal"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at,omitempty"`
}

// Day strips the time component, keeping calendar-day precision.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
