package http

import (
	"context"
	"net/http"
	"time"

	"english-mcq-service/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
)

// requestLogger logs one line per request and exposes the logger to handlers.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			reqLog := log.With("request_id", middleware.GetReqID(r.Context()))
			r = r.WithContext(context.WithValue(r.Context(), loggerKey{}, reqLog))

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			reqLog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
