package cbr

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ValCurs mirrors the XML_daily document: one element per quoted currency.
type ValCurs struct {
	XMLName xml.Name `xml:"ValCurs"`
	Date    string   `xml:"Date,attr"`
	Name    string   `xml:"name,attr"`
	Valutes []Valute `xml:"Valute"`
}

// Valute keeps the raw feed strings; Value uses a comma decimal separator
// and Nominal may contain whitespace thousands separators ("1 000").
type Valute struct {
	ID       string `xml:"ID,attr"`
	NumCode  string `xml:"NumCode"`
	CharCode string `xml:"CharCode"`
	Nominal  string `xml:"Nominal"`
	Name     string `xml:"Name"`
	Value    string `xml:"Value"`
}

// Rate is one parsed feed entry. Not persisted as-is; the ingestion
// pipeline converts it into an entity.CurrencyRate.
type Rate struct {
	Date             time.Time
	CurrencyCode     string
	Rate             decimal.Decimal
	Nominal          int
	BaseCurrencyCode string
	Name             string
	NumCode          string
}

// ParseValue normalizes the comma decimal separator and any whitespace
// before converting to a fixed-point decimal.
func (v Valute) ParseValue() (decimal.Decimal, error) {
	normalized := strings.ReplaceAll(stripSpaces(v.Value), ",", ".")
	return decimal.NewFromString(normalized)
}

// ParseNominal defaults to 1 when the field is missing or not numeric.
func (v Valute) ParseNominal() int {
	n, err := strconv.Atoi(stripSpaces(v.Nominal))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, strings.TrimSpace(s))
}
