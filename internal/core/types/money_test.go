package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.345", "2.35"},
		{"2.344", "2.34"},
		{"-2.345", "-2.35"},
		{"0.005", "0.01"},
		{"168", "168"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Round2(MustMoney(tt.in))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s", got)
		})
	}
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(MustMoney("200"), MustMoney("20")).Equal(MustMoney("40")))
	assert.True(t, Percent(MustMoney("160"), MustMoney("5")).Equal(MustMoney("8")))
	assert.True(t, Percent(MustMoney("33.33"), MustMoney("12")).Equal(MustMoney("3.9996")))
}

func TestNonNegative(t *testing.T) {
	assert.True(t, NonNegative(MustMoney("-0.01")).IsZero())
	assert.True(t, NonNegative(MustMoney("5")).Equal(MustMoney("5")))
}
