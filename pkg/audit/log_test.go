package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/uswitch/graphbulk/pkg/authnz"
)

func auditTestHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})
}

func doAuditMiddleware(t *testing.T, expectedStatus int, expectedEntry AuditEntry, method, path, query string) {
	stringBuffer := &strings.Builder{}
	logger := log.New(stringBuffer, "", 0)

	req := httptest.NewRequest(
		method, fmt.Sprintf("%s?%s", path, query), nil,
	)
	reqWithUser := req.WithContext(authnz.WithUser(req.Context(), expectedEntry.User))

	w := httptest.NewRecorder()

	auditLogger := NewAuditLog(logger)
	middleware := auditLogger.Middleware(auditTestHandler())
	middleware.ServeHTTP(w, reqWithUser)

	response := w.Result()

	if response.StatusCode != expectedStatus {
		t.Errorf("Should have got a %d, but got a %d", expectedStatus, response.StatusCode)
	}

	if response.StatusCode < 400 {
		loggerOutput := stringBuffer.String()

		var entry AuditEntry
		if err := json.Unmarshal([]byte(loggerOutput), &entry); err != nil {
			t.Fatalf("Couldn't decode entry from '%s': %v", loggerOutput, err)
		}

		if entry.User != expectedEntry.User {
			t.Errorf("should have been '%s', but was '%s'", expectedEntry.User, entry.User)
		}
		if now := time.Now(); now.Sub(entry.Time) > (1 * time.Second) {
			t.Errorf("should have been within a seconds of '%s', but was '%s'", now, entry.Time)
		}

		if len(entry.Data) != len(expectedEntry.Data) {
			t.Errorf("expected entry doesn 't have the same number of keys: %d != %d", len(entry.Data), len(expectedEntry.Data))
		}

		for k, v := range expectedEntry.Data {
			if entry.Data[k] != v {
				t.Errorf("Data['%s'] should have been '%v', but was '%v'", k, v, entry.Data[k])
			}
		}
	}

}

func TestAuditHappyPath(t *testing.T) {
	doAuditMiddleware(t, 200, AuditEntry{
		User: "wibble@bibble.com",
		Data: AuditData{
			"method": "GET",
			"path":   "/",
			"query":  "",
		},
	}, "GET", "/", "")
}

func TestMissingUser(t *testing.T) {
	doAuditMiddleware(t, 500, AuditEntry{
		User: "",
		Data: AuditData{
			"method": "GET",
			"path":   "/",
			"query":  "",
		},
	}, "GET", "/", "")
}

func TestLogImport(t *testing.T) {
	stringBuffer := &strings.Builder{}
	auditLogger := NewAuditLog(log.New(stringBuffer, "", 0))

	if err := auditLogger.Log(context.Background(), AuditData{"written": 1}); !errors.Is(err, ErrNoUser) {
		t.Errorf("expected %v, but got %v", ErrNoUser, err)
	}

	ctx := authnz.WithUser(context.Background(), "wibble@bibble.com")
	if err := auditLogger.Log(ctx, AuditData{"written": 2, "failed": 1}); err != nil {
		t.Fatal(err)
	}

	var entry AuditEntry
	if err := json.Unmarshal([]byte(stringBuffer.String()), &entry); err != nil {
		t.Fatalf("Couldn't decode entry from '%s': %v", stringBuffer.String(), err)
	}

	if entry.User != "wibble@bibble.com" {
		t.Errorf("expected wibble@bibble.com, but got '%s'", entry.User)
	}
	if entry.Data["written"] != float64(2) || entry.Data["failed"] != float64(1) {
		t.Errorf("expected 2 written and 1 failed, but got %v", entry.Data)
	}
}
