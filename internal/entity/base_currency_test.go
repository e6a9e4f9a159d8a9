package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBaseCurrency_RUBCollapsesToRUR(t *testing.T) {
	b, err := ParseBaseCurrency("RUB")
	require.NoError(t, err)
	assert.Equal(t, "RUR", b.Storage())
	assert.Equal(t, "RUB", b.Display())
	assert.Equal(t, "RUB", b.Input())
}

func TestParseBaseCurrency_RURStaysRUR(t *testing.T) {
	b, err := ParseBaseCurrency("rur")
	require.NoError(t, err)
	assert.Equal(t, "RUR", b.Storage())
	assert.Equal(t, "RUR", b.Display())
}

func TestParseBaseCurrency_TrimsAndUppercases(t *testing.T) {
	b, err := ParseBaseCurrency("  usd ")
	require.NoError(t, err)
	assert.Equal(t, "USD", b.Storage())
	assert.Equal(t, "USD", b.Display())
}

func TestParseBaseCurrency_Empty(t *testing.T) {
	_, err := ParseBaseCurrency("   ")
	assert.ErrorIs(t, err, ErrEmptyBaseCurrency)
}
