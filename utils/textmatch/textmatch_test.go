package textmatch

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Amélie", "amelie"},
		{"  The   Matrix  ", "the matrix"},
		{"LÉON: The Professional", "leon: the professional"},
		{"", ""},
	}

	for _, test := range tests {
		if got := Normalize(test.input); got != test.expected {
			t.Errorf("Normalize(%q) = %q, expected %q", test.input, got, test.expected)
		}
	}
}

func TestContains(t *testing.T) {
	tests := []struct {
		title    string
		query    string
		expected bool
	}{
		{"Amélie", "amelie", true},
		{"Amélie", "AMÉLIE", true},
		{"The Matrix Reloaded", "matrix", true},
		{"The Matrix Reloaded", "revolutions", false},
		{"Léon", "leon", true},
		{"Inception", "", false},
		{"Inception", "   ", false},
	}

	for _, test := range tests {
		if got := Contains(test.title, test.query); got != test.expected {
			t.Errorf("Contains(%q, %q) = %v, expected %v", test.title, test.query, got, test.expected)
		}
	}
}
