package assistant

import "testing"

func TestExtractLocation(t *testing.T) {
	tests := []struct {
		message string
		want    string
	}{
		{"jobs in Austin", "Austin"},
		{"Any openings IN new york ", "new york"},
		{"remote work in Austin, TX please", "Austin"},
		{"I am interested in", ""},
		{"within budget", ""},
		{"show me jobs", ""},
		{"jobs in 2026", ""},
		{"jobs in Austin\nthanks", "Austin"},
		{"jobs in\tsan antonio\r\nplease", "san antonio"},
		{"jobs in\nAustin", ""},
	}
	for _, tt := range tests {
		if got := ExtractLocation(tt.message); got != tt.want {
			t.Errorf("ExtractLocation(%q) = %q, want %q", tt.message, got, tt.want)
		}
	}
}
