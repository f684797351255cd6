/*
Package logx provides a structured logging wrapper based on zerolog.

This file contains the chi middleware that writes one access log entry per HTTP request.
Client addresses are anonymized and query strings are never logged, since WebSocket
upgrades carry the bearer token in the query.
*/
package logx

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// quietPaths are polled by load balancers and scrapers; they are logged at debug level.
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// anonymizeIP zeroes the last IPv4 octet or keeps only the /64 prefix of an IPv6 address.
func anonymizeIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	switch {
	case ip == nil:
		return "unknown_ip"
	case ip.IsLoopback():
		return "127.0.0.1"
	case ip.To4() != nil:
		return ip.Mask(net.CIDRMask(24, 32)).String()
	default:
		return ip.Mask(net.CIDRMask(64, 128)).String()
	}
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}

// routeOf returns the matched chi route pattern, falling back to the bare path.
func routeOf(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// RequestLogger returns a middleware that logs every HTTP request once it completes.
// The per-request logger is injected into the request context so handlers can use zerolog.Ctx.
// WebSocket requests complete when the connection ends, so their latency is the session length.
func RequestLogger() func(next http.Handler) http.Handler {
	base := Component("http")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			upgrade := isUpgrade(r)

			logger := base.With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_path", r.URL.Path).
				Bool("websocket", upgrade).
				Logger()

			started := time.Now()
			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

			status := ww.Status()

			// A hijacked upgrade never reports a status through the wrapper.
			msg := "Request completed"
			if upgrade && status < http.StatusOK {
				msg, status = "WebSocket session ended", http.StatusSwitchingProtocols
			}

			accessLevel(&logger, r, status).
				Str("route", routeOf(r)).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(started)).
				Msg(msg)
		})
	}
}

func accessLevel(logger *zerolog.Logger, r *http.Request, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return logger.Error()
	case status >= 400:
		return logger.Warn()
	}
	if _, quiet := quietPaths[r.URL.Path]; quiet {
		return logger.Debug()
	}
	return logger.Info()
}
