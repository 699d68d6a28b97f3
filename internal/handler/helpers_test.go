package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruelux/pos/internal/auth"
	"github.com/ruelux/pos/internal/middleware"
)

const testSecret = "test-secret"

// --- Helpers ---

func tokenFor(t *testing.T, email, role string) string {
	t.Helper()
	token, _, err := auth.GenerateToken(testSecret, time.Hour, auth.Identity{
		Email:      email,
		FullName:   "Test " + role,
		Role:       role,
		ERPSession: "sid-test",
	})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

var authenticate = middleware.Authenticate(testSecret)

// protected mounts routes behind the real authentication middleware.
func protected(register func(r chi.Router)) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authenticate)
		register(r)
	})
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("marshal request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, want, rr.Body.String())
	}
}
