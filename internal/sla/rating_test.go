package sla

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRate(t *testing.T) {
	tests := []struct {
		percent float64
		label   string
	}{
		{100, "Excellent"},
		{95, "Excellent"},
		{94.99, "Good"},
		{80, "Good"},
		{79.9, "Needs Improvement"},
		{60, "Needs Improvement"},
		{59.99, "Critical"},
		{0, "Critical"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, Rate(tt.percent).Label, "percent %v", tt.percent)
	}
}
