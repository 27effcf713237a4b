package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http/httptest"
	"testing"

	"finlingo/internal/service"
)

func TestRespondWithErrorWritesStatusAndEnvelope(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, 418, "teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.OK {
		t.Error("expected ok=false")
	}
	if body.Error != "teapot" {
		t.Errorf("expected error 'teapot', got %q", body.Error)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	var buf bytes.Buffer
	logger := log.Default()
	originalOutput := logger.Writer()
	logger.SetOutput(&buf)
	defer logger.SetOutput(originalOutput)

	recorder := httptest.NewRecorder()
	err := errors.New("boom")

	respondWithError(recorder, 500, "internal server error", "", err)

	logOutput := buf.String()
	if !bytes.Contains([]byte(logOutput), []byte("internal server error")) {
		t.Fatalf("expected log to include user message, got %q", logOutput)
	}
	if !bytes.Contains([]byte(logOutput), []byte("boom")) {
		t.Fatalf("expected log to include error, got %q", logOutput)
	}
}

func TestRespondWithServiceErrorStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "invalid username",
			err:        service.ErrInvalidUsername,
			wantStatus: 400,
		},
		{
			name:       "weak password",
			err:        service.ErrWeakPassword,
			wantStatus: 400,
		},
		{
			name:       "username taken",
			err:        service.ErrUsernameTaken,
			wantStatus: 400,
		},
		{
			name:       "invalid child id",
			err:        service.ErrInvalidChildID,
			wantStatus: 400,
		},
		{
			name:       "invalid credentials",
			err:        service.ErrInvalidCredentials,
			wantStatus: 400,
		},
		{
			name:       "unexpected error",
			err:        errors.New("database on fire"),
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, tt.err)

			if recorder.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", recorder.Code, tt.wantStatus)
			}

			var body errorResponse
			if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.OK {
				t.Error("expected ok=false")
			}
			if tt.wantStatus == 500 && body.Error != "internal server error" {
				t.Errorf("unexpected errors must not leak detail, got %q", body.Error)
			}
		})
	}
}
