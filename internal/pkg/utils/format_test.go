package utils

import (
	"testing"
	"time"
)

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{1234.5, "$1,234.50"},
		{1234567.891, "$1,234,567.89"},
		{-9876.54, "$-9,876.54"},
		{999.999, "$1,000.00"},
	}

	for _, tt := range tests {
		if got := FormatUSD(tt.in); got != tt.want {
			t.Errorf("FormatUSD(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatSignedPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.254, "+1.25%"},
		{0, "+0.00%"},
		{-0.5, "-0.50%"},
	}

	for _, tt := range tests {
		if got := FormatSignedPercent(tt.in); got != tt.want {
			t.Errorf("FormatSignedPercent(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{" 2 ", 2},
		{"0.0000", 0},
		{"abc", 0},
		{"", 0},
		{"1,5", 0},
	}

	for _, tt := range tests {
		if got := ParseAmount(tt.in); got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLastN(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}

	got := LastN(s, 3)
	if len(got) != 3 || got[0] != 3 || got[2] != 5 {
		t.Errorf("LastN trailing window wrong: %v", got)
	}
	if got := LastN(s, 10); len(got) != 5 {
		t.Errorf("LastN should return whole series when shorter, got %v", got)
	}
	if got := LastN(nil, 4); got != nil {
		t.Errorf("LastN(nil) = %v, want nil", got)
	}
}

func TestFormatClock(t *testing.T) {
	at := time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC)
	if got := FormatClock(at); got != "02:05:09 PM" {
		t.Errorf("FormatClock = %q", got)
	}
}
