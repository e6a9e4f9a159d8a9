package entity

import (
	"errors"
	"strings"
)

// StorageBaseCode is the base currency code as CBR publishes and we store it.
// RUB is the modern alias of the same currency; both collapse to RUR in storage.
const (
	StorageBaseCode = "RUR"
	ModernBaseAlias = "RUB"
)

var ErrEmptyBaseCurrency = errors.New("base currency code cannot be empty")

// BaseCurrency normalizes a user-supplied base currency code into the form
// used for storage (always the source's native code) and the form echoed
// back to the caller (their preferred alias).
type BaseCurrency struct {
	input   string
	storage string
	display string
}

func ParseBaseCurrency(code string) (BaseCurrency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if normalized == "" {
		return BaseCurrency{}, ErrEmptyBaseCurrency
	}

	if normalized == StorageBaseCode || normalized == ModernBaseAlias {
		return BaseCurrency{
			input:   normalized,
			storage: StorageBaseCode,
			display: normalized,
		}, nil
	}

	return BaseCurrency{input: normalized, storage: normalized, display: normalized}, nil
}

func (b BaseCurrency) Input() string   { return b.input }
func (b BaseCurrency) Storage() string { return b.storage }
func (b BaseCurrency) Display() string { return b.display }
