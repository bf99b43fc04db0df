package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Port != ":8080" {
		t.Errorf("Expected default port :8080, got %s", cfg.Port)
	}
	if cfg.DefaultTextOnly {
		t.Error("Expected text-only to be off by default")
	}
}

func TestNew(t *testing.T) {
	s := New(DefaultConfig())
	if s == nil {
		t.Fatal("Expected a server")
	}
	if s.Handler() == nil {
		t.Fatal("Expected a handler")
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %s", body["status"])
	}
}

func TestExtractMethodNotAllowed(t *testing.T) {
	s := New(DefaultConfig())

	req := httptest.NewRequest(http.MethodGet, "/extract", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

func TestExtractRejectsMissingFile(t *testing.T) {
	s := New(DefaultConfig())

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	form.WriteField("text_only", "true")
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/extract", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestExtractRejectsNonPDFUpload(t *testing.T) {
	s := New(DefaultConfig())

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("file", "challan.pdf")
	if err != nil {
		t.Fatalf("Failed to build form: %v", err)
	}
	part.Write([]byte("not a pdf"))
	form.Close()

	req := httptest.NewRequest(http.MethodPost, "/extract", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a non-PDF upload, got %d", rec.Code)
	}
}
