package fuzzy

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  CITROËN ", "citroen"},
		{"Mégane", "megane"},
		{"SEAT León", "seat leon"},
		{"already plain", "already plain"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEqual(t *testing.T) {
	if !Equal("Citroën", "CITROEN") {
		t.Error("accent and case differences should compare equal")
	}
	if Equal("Seat", "Skoda") {
		t.Error("different makes must not compare equal")
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"207", "207", 0},
		{"207", "208", 1},
		{"ibiza", "ibizza", 1},
		{"clio", "golf", 4},
	}
	for _, tt := range tests {
		if got := LevenshteinDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilar(t *testing.T) {
	if !Similar("Megane", "Mégane", 1) {
		t.Error("accented spelling should be similar")
	}
	if Similar("Ibiza", "Leon", 1) {
		t.Error("unrelated models must not be similar")
	}
}
