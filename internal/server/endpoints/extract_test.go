package endpoints

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/planora/planora/internal/pipeline"
	"github.com/planora/planora/internal/svcctx"
)

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// testHandler builds the extract route plus health/ready with services
// injected, mirroring the server's wiring.
func testHandler(t *testing.T, maxUpload int64) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(testWriter{t}, nil))
	orch := pipeline.New(pipeline.Config{}, logger)

	mux := http.NewServeMux()
	register := func(method, path string, h http.HandlerFunc) {
		mux.HandleFunc(method+" "+path, h)
	}
	_, hPath, hHandler := (&HealthEndpoint{}).Route()
	register("GET", hPath, hHandler)
	_, rPath, rHandler := (&ReadyEndpoint{}).Route()
	register("GET", rPath, rHandler)
	_, ePath, eHandler := (&ExtractEndpoint{MaxUploadBytes: maxUpload}).Route()
	register("POST", ePath, eHandler)

	services := &svcctx.Services{Orchestrator: orch, Logger: logger}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r.WithContext(svcctx.WithServices(r.Context(), services)))
	})
}

// buildDocx assembles a minimal in-memory DOCX with one paragraph per
// input line.
func buildDocx(t *testing.T, lines ...string) []byte {
	t.Helper()
	var paragraphs strings.Builder
	for _, line := range lines {
		fmt.Fprintf(&paragraphs, "<w:p><w:r><w:t>%s</w:t></w:r></w:p>", line)
	}
	document := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		`<w:body>` + paragraphs.String() + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := f.Write([]byte(document)); err != nil {
		t.Fatalf("writing document.xml: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("creating form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("writing form file: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing form: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func tourDocx(t *testing.T) []byte {
	t.Helper()
	return buildDocx(t,
		"Turquía Mágica",
		"8 días / 7 noches",
		"Precio desde $1.299",
		"Día 1 - Llegada a Estambul",
		"Traslado al hotel y tiempo libre.",
	)
}

func TestExtractEndpoint(t *testing.T) {
	handler := testHandler(t, 0)

	t.Run("missing file", func(t *testing.T) {
		body, contentType := multipartBody(t, "", nil, map[string]string{"name": "Ana"})
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var errResp ErrorResponse
		if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
			t.Fatalf("decoding error response: %v", err)
		}
		if errResp.Message == "" {
			t.Error("error response has no message")
		}
	})

	t.Run("unsupported extension", func(t *testing.T) {
		body, contentType := multipartBody(t, "tour.txt", []byte("plain text"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("oversize upload", func(t *testing.T) {
		small := testHandler(t, 1024)
		body, contentType := multipartBody(t, "tour.docx", bytes.Repeat([]byte("x"), 8192), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		small.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unextractable document", func(t *testing.T) {
		body, contentType := multipartBody(t, "tour.pdf", []byte("not a real pdf"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("status = %d, want 422", rec.Code)
		}
	})

	t.Run("happy path json", func(t *testing.T) {
		body, contentType := multipartBody(t, "tour.docx", tourDocx(t), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		var resp ExtractResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Source != "heuristic" {
			t.Errorf("source = %q, want heuristic", resp.Source)
		}
		if resp.Plan == nil || resp.Plan.Name != "Turquía Mágica" {
			t.Errorf("plan = %+v", resp.Plan)
		}
	})

	t.Run("streaming ndjson", func(t *testing.T) {
		body, contentType := multipartBody(t, "tour.docx", tourDocx(t), map[string]string{
			"stream": "true",
			"name":   "Ana",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/x-ndjson" {
			t.Errorf("Content-Type = %q", ct)
		}

		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		if len(lines) < 3 {
			t.Fatalf("got %d NDJSON lines, want several:\n%s", len(lines), rec.Body.String())
		}

		var first pipeline.Event
		if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
			t.Fatalf("first line is not JSON: %v", err)
		}
		if first.Stage != pipeline.StageReading {
			t.Errorf("first stage = %s, want reading", first.Stage)
		}
		if !strings.HasPrefix(first.Label, "Ana, ") {
			t.Errorf("first label = %q, want personalized greeting", first.Label)
		}

		var last pipeline.Event
		if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
			t.Fatalf("last line is not JSON: %v", err)
		}
		if last.Stage != pipeline.StageDone || last.Progress != 100 {
			t.Errorf("last event = %+v, want done/100", last)
		}
		if last.Plan == nil || last.Source != "heuristic" {
			t.Errorf("done event missing plan/source: %+v", last)
		}
	})

	t.Run("streaming error event for empty document", func(t *testing.T) {
		body, contentType := multipartBody(t, "blank.docx", buildDocx(t, ""), map[string]string{"stream": "true"})
		req := httptest.NewRequest(http.MethodPost, "/api/extract", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		// Headers are committed before the pipeline runs; the failure
		// arrives as a terminal error line.
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		var last pipeline.Event
		if err := json.Unmarshal([]byte(lines[len(lines)-1]), &last); err != nil {
			t.Fatalf("last line is not JSON: %v", err)
		}
		if last.Stage != pipeline.StageError || last.Error == "" {
			t.Errorf("last event = %+v, want error with message", last)
		}
	})
}

func TestHealthAndReady(t *testing.T) {
	handler := testHandler(t, 0)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Status != "ok" {
			t.Errorf("status = %q", resp.Status)
		}
	})

	t.Run("ready reports extraction path", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var resp HealthResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decoding response: %v", err)
		}
		if resp.Extractor != "heuristic-only" {
			t.Errorf("extractor = %q, want heuristic-only", resp.Extractor)
		}
	})

	t.Run("ready without services", func(t *testing.T) {
		_, path, h := (&ReadyEndpoint{}).Route()
		mux := http.NewServeMux()
		mux.HandleFunc("GET "+path, h)

		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
	})
}
