package utils

import "testing"

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"aapl", "AAPL"},
		{"  msft  ", "MSFT"},
		{"$TSLA", "TSLA"},
		{"brk.b", "BRK.B"},
		{"AAPL", "AAPL"},
	}

	for _, tt := range tests {
		if got := NormalizeTicker(tt.input); got != tt.expected {
			t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestValidTicker(t *testing.T) {
	valid := []string{"A", "AAPL", "GOOGL", "BRK.B", "BRK-B", "NGG.L", "RDS.A"}
	for _, tk := range valid {
		if !ValidTicker(tk) {
			t.Errorf("ValidTicker(%q) = false, want true", tk)
		}
	}

	invalid := []string{"", "aapl", "TOOLONGG", "123", "BRK..B", "AAPL.", "$AAPL", "A APL"}
	for _, tk := range invalid {
		if ValidTicker(tk) {
			t.Errorf("ValidTicker(%q) = true, want false", tk)
		}
	}
}

func TestSameSymbol(t *testing.T) {
	tests := []struct {
		a, b     string
		expected bool
	}{
		{"BRK.B", "BRK-B", true},
		{"brk.b", "BRK-B", true},
		{"AAPL", "aapl", true},
		{"AAPL", "MSFT", false},
		{"BRK.A", "BRK.B", false},
	}

	for _, tt := range tests {
		if got := SameSymbol(tt.a, tt.b); got != tt.expected {
			t.Errorf("SameSymbol(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
		}
	}
}
