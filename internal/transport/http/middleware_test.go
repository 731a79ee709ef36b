package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

// TestLoggingMiddleware_Success проверяет, что middleware логирует запрос без паники
func TestLoggingMiddleware_Success(t *testing.T) {
	log, buf := bufferLogger()
	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodPut, "/test-path?x=1", nil)
	rw := httptest.NewRecorder()
	handler.ServeHTTP(rw, req)

	if rw.Code != http.StatusCreated {
		t.Fatalf("ожидался статус %d, получили %d", http.StatusCreated, rw.Code)
	}
	if got := rw.Body.String(); got != "ok" {
		t.Fatalf("ожидалось тело 'ok', получили '%s'", got)
	}
	out := buf.String()
	for _, want := range []string{"method=PUT", "path=/test-path", "status=201", "level=INFO"} {
		if !strings.Contains(out, want) {
			t.Errorf("ожидалось %q в логе, получили: %s", want, out)
		}
	}
}

// TestLoggingMiddleware_ServerError: 5xx пишется с уровнем ERROR
func TestLoggingMiddleware_ServerError(t *testing.T) {
	log, buf := bufferLogger()
	handler := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPatch, "/api/projects/reorder", nil))
	if out := buf.String(); !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "status=500") {
		t.Errorf("ожидалась ошибка 500 в логе, получили: %s", out)
	}
}

// TestLoggingMiddleware_Panic проверяет, что middleware логирует панику и пробрасывает её дальше
func TestLoggingMiddleware_Panic(t *testing.T) {
	log, buf := bufferLogger()
	h := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom error")
	}))

	defer func() {
		if rec := recover(); rec == nil {
			t.Fatalf("ожидалась паника, но её не было")
		}
		out := buf.String()
		if !strings.Contains(out, "panic in handler") || !strings.Contains(out, "path=/panic") {
			t.Errorf("ожидалось логирование паники, получили: %s", out)
		}
	}()

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/panic", nil))
}
