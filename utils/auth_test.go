package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() failed: %v", err)
	}
	if len(key) != 43 { // 32 bytes base64url without padding
		t.Errorf("Expected key length 43, got %d", len(key))
	}

	other, err := GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey() failed: %v", err)
	}
	if key == other {
		t.Error("Two generated keys should not collide")
	}
}

func TestGeneratePairingCode(t *testing.T) {
	code, err := GeneratePairingCode()
	if err != nil {
		t.Fatalf("GeneratePairingCode() failed: %v", err)
	}
	if !ValidatePairingCode(code) {
		t.Errorf("generated code %q failed validation", code)
	}
	if code < "100000" || code > "999999" {
		t.Errorf("code %s is not within valid range (100000-999999)", code)
	}
}

func TestValidatePairingCode(t *testing.T) {
	tests := []struct {
		code     string
		expected bool
	}{
		{"123456", true},
		{"000000", true},
		{"999999", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"", false},
	}

	for _, test := range tests {
		if got := ValidatePairingCode(test.code); got != test.expected {
			t.Errorf("ValidatePairingCode(%q) = %v, expected %v", test.code, got, test.expected)
		}
	}
}

func TestRequireAPIKey(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		expected string
		header   string
		path     string
		want     int
	}{
		{"matching key", "secret", "secret", "/collection/items", http.StatusNoContent},
		{"wrong key", "secret", "nope", "/collection/items", http.StatusUnauthorized},
		{"missing key", "secret", "", "/collection/items", http.StatusUnauthorized},
		{"health exempt", "secret", "", "/health", http.StatusNoContent},
		{"pairing exempt", "secret", "", "/auth/pair", http.StatusNoContent},
		{"check disabled", "", "", "/collection/items", http.StatusNoContent},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			handler := RequireAPIKey(test.expected, inner)
			req := httptest.NewRequest(http.MethodGet, test.path, nil)
			if test.header != "" {
				req.Header.Set("X-Api-Key", test.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != test.want {
				t.Errorf("status = %d, expected %d", rec.Code, test.want)
			}
		})
	}
}
