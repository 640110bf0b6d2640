// Package audit writes a JSON line per authenticated request, and per import.
package audit

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/uswitch/graphbulk/pkg/authnz"
)

type AuditData map[string]interface{}

type AuditEntry struct {
	User string
	Time time.Time
	Data AuditData
}

type Logger interface {
	Log(ctx context.Context, data AuditData) error
	Middleware(next http.Handler) http.Handler
}

type auditLog struct {
	logger *log.Logger
}

func NewAuditLog(logger *log.Logger) Logger {
	return &auditLog{logger: logger}
}

// Log records data against the request's user. It fails without one.
func (a *auditLog) Log(ctx context.Context, data AuditData) error {
	user, ok := authnz.UserFromContext(ctx)
	if !ok {
		return ErrNoUser
	}

	byteString, err := json.Marshal(AuditEntry{
		User: user,
		Time: time.Now(),
		Data: data,
	})
	if err != nil {
		return err
	}

	a.logger.Println(string(byteString))

	return nil
}

func (a *auditLog) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := a.Log(r.Context(), AuditData{
			"method": r.Method,
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
		})

		if err == ErrNoUser {
			// we should always be after the auth middleware
			w.WriteHeader(500)
			return
		} else if err != nil {
			log.Printf("Failed to write audit entry: %v", err)
			w.WriteHeader(500)
			return
		}

		next.ServeHTTP(w, r)
	})
}
