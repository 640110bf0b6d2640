package middleware

import (
	"fmt"
	"net/http"
)

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
	MaxAge         int      `yaml:"maxAge"`
}

type corsMiddleware struct {
	config CORSConfig
}

func NewCORSMiddleware(config CORSConfig) Middleware {
	return &corsMiddleware{
		config: config,
	}
}

func (m *corsMiddleware) allowed(origin string) string {
	for _, allowedOrigin := range m.config.AllowedOrigins {
		if allowedOrigin == origin || allowedOrigin == "*" {
			return origin
		}
	}

	return ""
}

// Middleware answers preflight requests itself. Imports are POST or PUT.
func (m *corsMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responseOrigin := m.allowed(r.Header.Get("Origin"))

		if r.Method == http.MethodOptions {
			w.Header().Add("Access-Control-Allow-Origin", responseOrigin)
			w.Header().Add("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Add("Access-Control-Allow-Methods", "POST, PUT")
			w.Header().Add("Access-Control-Max-Age", fmt.Sprintf("%d", m.config.MaxAge))

			w.WriteHeader(http.StatusNoContent)
		} else {
			w.Header().Add("Access-Control-Allow-Origin", responseOrigin)

			next.ServeHTTP(w, r)
		}
	})
}
