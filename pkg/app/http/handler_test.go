package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/yieldrail/bridge-orchestrator/pkg/app/errors"
)

type errorBody struct {
	ErrMsg string `json:"error"`
	Code   int    `json:"code"`
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode error body: %v", err)
	}
	return body
}

func TestHandleError_NoError(t *testing.T) {
	handler := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		return WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected JSON content type, got %q", ct)
	}
}

func TestHandleError_ServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "validation",
			err:        apperrors.ValidationError(nil, "Invalid source chain"),
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid source chain",
		},
		{
			name:       "not found",
			err:        apperrors.NotFoundError(nil, "Transaction not found"),
			wantStatus: http.StatusNotFound,
			wantMsg:    "Transaction not found",
		},
		{
			name:       "consensus",
			err:        apperrors.ConsensusFailure(nil, "Validator consensus not reached"),
			wantStatus: http.StatusUnprocessableEntity,
			wantMsg:    "Validator consensus not reached",
		},
		{
			name:       "dependency",
			err:        apperrors.DependencyError(errors.New("connection refused"), "Bridge initiation failed"),
			wantStatus: http.StatusBadGateway,
			wantMsg:    "Bridge initiation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := HandleError(func(w http.ResponseWriter, r *http.Request) error {
				return tt.err
			})

			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			body := decodeErrorBody(t, rec)
			if body.ErrMsg != tt.wantMsg {
				t.Errorf("Expected error message %q, got %q", tt.wantMsg, body.ErrMsg)
			}
			if body.Code != tt.wantStatus {
				t.Errorf("Expected body code %d, got %d", tt.wantStatus, body.Code)
			}
		})
	}
}

func TestHandleError_UnknownError(t *testing.T) {
	handler := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("something broke")
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body.ErrMsg != "Unexpected Service Error" {
		t.Errorf("Internal error details should not leak, got %q", body.ErrMsg)
	}
}
