package middleware

import (
	"log"
	"net/http"
)

type Middleware interface {
	Middleware(http.Handler) http.Handler
}

// Wrap applies middleware so the first in the list sees the request first.
func Wrap(middleware []Middleware, handler http.Handler) http.Handler {
	h := handler

	for i := len(middleware) - 1; i >= 0; i = i - 1 {
		h = middleware[i].Middleware(h)
	}

	return h
}

type MiddlewareFunc func(http.Handler) http.Handler

func (fn MiddlewareFunc) Middleware(r http.Handler) http.Handler {
	return fn(r)
}

var PassThru = MiddlewareFunc(func(h http.Handler) http.Handler {
	return h
})

// MaxBodyBytes caps request bodies. Reading past the cap fails with an
// *http.MaxBytesError.
func MaxBodyBytes(n int64) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > n {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, n)
			next.ServeHTTP(w, r)
		})
	})
}

// Recover turns a panicking handler into a 500 so one bad import doesn't take
// the server down.
func Recover(logger *log.Logger) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Printf("%s %s: panic: %v", r.Method, r.URL.Path, rec)
					w.WriteHeader(http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	})
}
