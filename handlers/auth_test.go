package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pairRequest(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/pair", strings.NewReader(body))
	h.Pair(rec, req)
	return rec
}

func TestPairExchangesCodeForAPIKey(t *testing.T) {
	h := NewAuthHandler("the-key", "123456")

	rec := pairRequest(t, h, `{"code":"123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var payload map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["apiKey"] != "the-key" {
		t.Errorf("apiKey = %q", payload["apiKey"])
	}
}

func TestPairRejectsWrongAndMalformedCodes(t *testing.T) {
	h := NewAuthHandler("the-key", "123456")

	rec := pairRequest(t, h, `{"code":"654321"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong code: status = %d", rec.Code)
	}

	rec = pairRequest(t, h, `{"code":"12ab56"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed code: status = %d", rec.Code)
	}
}

func TestPairLocksAfterRepeatedFailures(t *testing.T) {
	h := NewAuthHandler("the-key", "123456")

	for i := 0; i < maxPairAttempts; i++ {
		rec := pairRequest(t, h, `{"code":"000000"}`)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("attempt %d: status = %d", i, rec.Code)
		}
	}

	// Even the right code is refused once locked.
	rec := pairRequest(t, h, `{"code":"123456"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("locked: status = %d", rec.Code)
	}
}
