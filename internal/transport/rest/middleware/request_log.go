package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"
	"voxllm/internal/logger"

	"github.com/gorilla/mux"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Hijack keeps WebSocket upgrades working behind the logger.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// RequestLogger logs one line per request at a level chosen by status.
func RequestLogger(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			if log == nil {
				return
			}

			path := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}
			fields := []interface{}{
				"method", strings.ToUpper(r.Method),
				"path", path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			}
			if id := mux.Vars(r)["id"]; id != "" {
				fields = append(fields, "session_id", id)
			}

			switch {
			case rec.status >= 500:
				log.Error("HTTP request", fields...)
			case rec.status >= 400:
				log.Warn("HTTP request", fields...)
			default:
				log.Info("HTTP request", fields...)
			}
		})
	}
}
