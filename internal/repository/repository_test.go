package repository

import "testing"

func TestMakeSlug(t *testing.T) {
	tests := []struct {
		title string
		id    string
		want  string
	}{
		{"Jazz Night", "abcdef12-3456", "jazz-night-abcdef12"},
		{"  Food & Wine Fest!  ", "deadbeef", "food-wine-fest-deadbeef"},
		{"***", "cafe1234", "cafe1234"},
		{"UPPER case", "12345678", "upper-case-12345678"},
	}
	for _, tt := range tests {
		if got := makeSlug(tt.title, tt.id); got != tt.want {
			t.Errorf("makeSlug(%q, %q) = %q, want %q", tt.title, tt.id, got, tt.want)
		}
	}
}
