package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// statusResponseWriter запоминает статус-код ответа
type statusResponseWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader сохраняет статус и вызывает оригинальный WriteHeader
func (w *statusResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware пишет в log каждый HTTP-запрос; паника логируется и пробрасывается дальше
func LoggingMiddleware(log *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			srw := &statusResponseWriter{ResponseWriter: w, status: http.StatusOK}
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic in handler",
						"method", r.Method,
						"path", r.URL.Path,
						"duration_ms", time.Since(start).Milliseconds(),
						"panic", rec,
					)
					panic(rec)
				}
			}()
			next.ServeHTTP(srw, r)
			level := slog.LevelInfo
			if srw.status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			log.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", srw.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
