package middleware

import (
	"net/http"
	"strings"

	"journals-backend/application/ports"
	"journals-backend/pkg/common"

	"go.uber.org/zap"
)

// GateUnavailableMessage is the body of every request refused by the gate
const GateUnavailableMessage = "Service unavailable: Database connection failed"

// GateOptions configures ConnectionGate
type GateOptions struct {
	// SkipPaths are served without a usable connection. Entries ending in "/"
	// match as prefixes, others match exactly.
	SkipPaths []string
	// OnReject is called for every refused request
	OnReject func()
}

func (o GateOptions) skip(path string) bool {
	for _, p := range o.SkipPaths {
		if strings.HasSuffix(p, "/") && p != "/" {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

// ConnectionGate makes every request wait for a usable record store
// connection. When none can be had the request is answered 503 and the next
// handler never runs. The gate only asks; it never changes connection state.
func ConnectionGate(gate ports.ConnectionGate, opts GateOptions, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if opts.skip(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if err := gate.EnsureReady(r.Context()); err != nil {
				logger.Warn("Request refused, record store unavailable",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", r.Header.Get(RequestIDHeader)),
					zap.Error(err),
				)
				if opts.OnReject != nil {
					opts.OnReject()
				}
				common.RespondMessage(w, http.StatusServiceUnavailable, GateUnavailableMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
