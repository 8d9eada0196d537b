package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMoneyFromFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"whole amount", 8000, "8000.00"},
		{"two decimals kept", 8000.50, "8000.50"},
		{"rounds half up", 0.005, "0.01"},
		{"float noise collapses", 0.1 + 0.2, "0.30"},
		{"negative amounts round too", -12.345, "-12.35"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatMoney(MoneyFromFloat(tt.input)))
		})
	}
}

func TestMulQuantity(t *testing.T) {
	price := MoneyFromFloat(8000)
	assert.Equal(t, "16000.00", FormatMoney(MulQuantity(price, 2)))
	assert.Equal(t, "0.00", FormatMoney(MulQuantity(price, 0)))

	// repeated addition of a decimal price stays exact
	assert.Equal(t, "0.30", FormatMoney(MulQuantity(MoneyFromFloat(0.10), 3)))
}

func TestSumMoney(t *testing.T) {
	total := SumMoney(
		MoneyFromFloat(16000),
		MoneyFromFloat(12000),
	)
	assert.True(t, total.Equal(decimal.NewFromInt(28000)))

	assert.True(t, SumMoney().IsZero())
}

func TestWithinEpsilon(t *testing.T) {
	expected := MoneyFromFloat(28000)

	tests := []struct {
		name     string
		received float64
		ok       bool
	}{
		{"exact", 28000, true},
		{"one cent under", 27999.99, true},
		{"one cent over", 28000.01, true},
		{"two cents over", 28000.02, false},
		{"fifty pesos short", 27950, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, WithinEpsilon(expected, MoneyFromFloat(tt.received)))
		})
	}
}
