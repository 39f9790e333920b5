package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tomaz/labelscan/internal/api"
	"github.com/tomaz/labelscan/internal/api/middleware"
	"github.com/tomaz/labelscan/internal/domain"
	"github.com/tomaz/labelscan/internal/logger"
	"github.com/tomaz/labelscan/internal/service"
)

type stubExtractor struct {
	reply string
	err   error
}

func (s *stubExtractor) ExtractLabel(ctx context.Context, img *domain.PreparedImage, prompt string) (string, error) {
	return s.reply, s.err
}

func newTestRouter(extractor service.LabelExtractor) http.Handler {
	log := logger.New(&logger.Config{Level: "error", Output: io.Discard})
	scanService := service.NewScanService(extractor, service.NewGeocodeService(nil), nil, log, nil)
	return api.SetupRouter(scanService, log, &api.RouterConfig{
		Mode: "test",
		CORS: middleware.CORSConfig{AllowAllOrigins: true},
	})
}

func pngUpload(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func multipartRequest(t *testing.T, filename string, fileData []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	if filename != "" {
		part, err := w.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(fileData); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field %s: %v", k, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/labels/scan", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestScanLabel_StructuredReply(t *testing.T) {
	router := newTestRouter(&stubExtractor{reply: `{"product_name":"Butter","price":"2.19","discount":true}`})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "label.png", pngUpload(t), map[string]string{
		"shop_name": "Corner Market",
	}))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var record domain.LabelRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("response is not a LabelRecord: %v", err)
	}
	if record.ProductName == nil || *record.ProductName != "Butter" {
		t.Errorf("expected product_name Butter, got %v", record.ProductName)
	}
	if !record.Discount {
		t.Error("expected discount true")
	}
	if record.AIResponse != nil || record.Error != nil {
		t.Error("structured reply must not carry fallback fields")
	}
}

func TestScanLabel_ProseReplyStillOK(t *testing.T) {
	router := newTestRouter(&stubExtractor{reply: "The photo is too blurry to read."})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "label.jpg", pngUpload(t), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for an unparseable model reply, got %d", rec.Code)
	}

	var record domain.LabelRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &record); err != nil {
		t.Fatalf("response is not a LabelRecord: %v", err)
	}
	if record.AIResponse == nil || *record.AIResponse != "The photo is too blurry to read." {
		t.Errorf("expected verbatim ai_response, got %v", record.AIResponse)
	}
	if record.Error == nil {
		t.Error("expected error field to be set")
	}
	if record.ProductName != nil {
		t.Error("expected structured fields to be null on fallback")
	}
}

func TestScanLabel_MissingImage(t *testing.T) {
	router := newTestRouter(&stubExtractor{reply: `{}`})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "", nil, map[string]string{"shop_name": "x"}))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestScanLabel_DisallowedExtension(t *testing.T) {
	router := newTestRouter(&stubExtractor{reply: `{}`})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "label.pdf", []byte("%PDF-1.4"), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestScanLabel_UndecodableImage(t *testing.T) {
	router := newTestRouter(&stubExtractor{reply: `{}`})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "label.png", []byte("not really a png"), nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an undecodable image, got %d", rec.Code)
	}
}

func TestScanLabel_ModelFailure(t *testing.T) {
	router := newTestRouter(&stubExtractor{err: errors.New("upstream timeout")})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "label.png", pngUpload(t), nil))

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 when the model call fails, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router := newTestRouter(&stubExtractor{reply: `{}`})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("health response is not JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}
