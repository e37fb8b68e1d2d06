package nftmarket

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmountToBaseUnits(t *testing.T) {
	tests := []struct {
		amount   string
		decimals int
		want     string
	}{
		{"1.5", 6, "1500000"},
		{"100", 6, "100000000"},
		{"0.000001", 6, "1"},
		{"0", 18, "0"},
		{"2.25", 2, "225"},
	}

	for _, tt := range tests {
		got, err := AmountToBaseUnits(tt.amount, tt.decimals)
		require.NoError(t, err, tt.amount)
		assert.Equal(t, tt.want, got.String(), tt.amount)
	}
}

func TestAmountToBaseUnits_Rejections(t *testing.T) {
	invalid := []struct {
		amount   string
		decimals int
	}{
		{"1.2345", 2}, // excess precision is rejected, not rounded
		{"1.2.3", 6},
		{".5", 6},
		{"abc", 6},
		{"-1.5", 6},
		{"1", -1},
		{"1", MaxDecimals + 1},
	}

	for _, tt := range invalid {
		_, err := AmountToBaseUnits(tt.amount, tt.decimals)
		assert.Error(t, err, "%s/%d", tt.amount, tt.decimals)
	}
}
