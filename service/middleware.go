package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brimdata/esql/api"
	"github.com/rs/cors"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"
)

func (c *Core) middleware(h http.Handler) http.Handler {
	h = panicCatchMiddleware(c.logger, h)
	h = accessLogMiddleware(c.logger, h)
	h = corsMiddleware(c.conf.CORSOrigins, h)
	return requestIDMiddleware(h)
}

func (c *Core) requestLogger(r *http.Request) *zap.Logger {
	return c.logger.With(zap.String("request_id", api.RequestIDFromContext(r.Context())))
}

func requestIDMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(api.RequestIDHeader)
		if reqID == "" {
			reqID = ksuid.New().String()
		}
		ctx := context.WithValue(r.Context(), api.RequestIDHeader, reqID)
		w.Header().Add(api.RequestIDHeader, reqID)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func corsMiddleware(origins []string, h http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			api.AsyncIDHeader,
			api.AsyncRunningHeader,
			api.RequestIDHeader,
			api.TookHeader,
			api.WarningHeader,
		},
	}).Handler(h)
}

func accessLogMiddleware(logger *zap.Logger, h http.Handler) http.Handler {
	logger = logger.Named("http.access")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		logger.Info("Request completed",
			zap.String("request_id", api.RequestIDFromContext(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func panicCatchMiddleware(logger *zap.Logger, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic",
					zap.String("request_id", api.RequestIDFromContext(r.Context())),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				err := fmt.Errorf("panic: %v", rec)
				newResponseWriter(w, logger).Error(err)
			}
		}()
		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
