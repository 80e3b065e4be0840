package outcome

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestFailureHTTPStatus(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindBlock, http.StatusConflict},
		{KindWarning, http.StatusConflict},
		{Kind("bogus"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		f := &Failure{Kind: tc.kind}
		if got := f.HTTPStatus(); got != tc.want {
			t.Errorf("kind %q: expected status %d, got %d", tc.kind, tc.want, got)
		}
	}
}

func TestConfirmationRequired(t *testing.T) {
	f := ConfirmationRequired([]Warning{{Code: "MRN_INFO_MISMATCH", Message: "mismatch"}})
	if f.Kind != KindWarning {
		t.Errorf("expected warning kind, got %q", f.Kind)
	}
	if f.Code != "CONFIRMATION_REQUIRED" {
		t.Errorf("unexpected code %q", f.Code)
	}
	detail, ok := f.Detail.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map detail, got %T", f.Detail)
	}
	warnings, ok := detail["warnings"].([]Warning)
	if !ok || len(warnings) != 1 {
		t.Fatalf("expected 1 warning in detail, got %v", detail["warnings"])
	}
}

func TestFieldValidation(t *testing.T) {
	f := FieldValidation([]FieldError{
		{Field: "provider.npi", Message: "NPI must be exactly 10 digits."},
		{Field: "patient.mrn", Message: "MRN must be exactly 6 digits."},
	})
	if f.Code != "VALIDATION_ERROR" {
		t.Errorf("unexpected code %q", f.Code)
	}
	if f.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", f.HTTPStatus())
	}
}

func TestErrorHandler_Failure(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := ErrorHandler(zerolog.New(os.Stderr))
	h(Block("NPI_CONFLICT", "conflict", map[string]string{"npi": "1234567890"}), c)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["type"] != "block" || body["code"] != "NPI_CONFLICT" {
		t.Errorf("unexpected envelope: %v", body)
	}
	if _, ok := body["detail"]; !ok {
		t.Error("expected detail to be present")
	}
}

func TestErrorHandler_Unexpected(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := ErrorHandler(zerolog.New(os.Stderr))
	h(errors.New("boom"), c)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("unexpected code %v", body["code"])
	}
}
