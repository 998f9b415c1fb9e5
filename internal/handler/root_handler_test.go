package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/taskapi/internal/model"
)

type mockHealthChecker struct {
	checkFn func(ctx context.Context) error
}

func (m *mockHealthChecker) Check(ctx context.Context) error {
	if m.checkFn != nil {
		return m.checkFn(ctx)
	}
	return nil
}

func TestRootHandler_Welcome(t *testing.T) {
	h := NewRootHandler(&mockHealthChecker{})

	w := httptest.NewRecorder()
	h.Welcome(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["message"] != WelcomeMessage {
		t.Errorf("message = %q, want %q", result["message"], WelcomeMessage)
	}
}

func TestRootHandler_Health_OK(t *testing.T) {
	h := NewRootHandler(&mockHealthChecker{})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result["status"] != "ok" || result["database"] != "connected" {
		t.Errorf("result = %v", result)
	}
}

func TestRootHandler_Health_DatabaseDown_Returns500(t *testing.T) {
	h := NewRootHandler(&mockHealthChecker{
		checkFn: func(ctx context.Context) error {
			return errors.New("dial tcp: connection refused")
		},
	})

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp.Code != model.ErrCodeDatabaseUnavailable {
		t.Errorf("code = %q, want %q", errResp.Code, model.ErrCodeDatabaseUnavailable)
	}
	if errResp.Message != "Database connection error" {
		t.Errorf("message = %q, want %q", errResp.Message, "Database connection error")
	}
}
