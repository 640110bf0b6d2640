package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/uswitch/graphbulk/pkg/audit"
	"github.com/uswitch/graphbulk/pkg/authnz"
	"github.com/uswitch/graphbulk/pkg/bulk"
	"github.com/uswitch/graphbulk/pkg/encoding"
	"github.com/uswitch/graphbulk/pkg/graph"
	"github.com/uswitch/graphbulk/pkg/ingest"
	"github.com/uswitch/graphbulk/pkg/middleware"
)

var maxBodyBytes int64 = 64 << 20

type importer interface {
	Import(ctx context.Context, elements []graph.Element) (*bulk.Summary, error)
}

type failureResponse struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

type importResponse struct {
	Written      int               `json:"written"`
	Failed       int               `json:"failed"`
	RequestUnits float64           `json:"requestUnits"`
	ElapsedMs    int64             `json:"elapsedMs"`
	Failures     []failureResponse `json:"failures,omitempty"`
}

func newImportResponse(summary *bulk.Summary) importResponse {
	response := importResponse{
		Written:      summary.Succeeded,
		Failed:       summary.Failed(),
		RequestUnits: summary.TotalCost,
		ElapsedMs:    summary.Elapsed.Milliseconds(),
	}

	for _, failure := range summary.Failures {
		response.Failures = append(response.Failures, failureResponse{
			ID:    failure.Item.ID(),
			Error: failure.Err.Error(),
		})
	}

	return response
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var elementErr *encoding.ElementError

	switch {
	case errors.As(err, &elementErr), errors.Is(err, encoding.ErrInvalidPartitionKeyPath):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded), errors.Is(err, bulk.ErrClosed):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

func apiHandler(ex importer, parser *ingest.Parser, authn authnz.Authenticator, auditLogger audit.Logger, cors middleware.Middleware) (http.Handler, error) {
	apiMux := http.NewServeMux()

	apiMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if !(r.Method == http.MethodPost || r.Method == http.MethodPut) {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		elements, err := parser.Read(r.Body)
		if err != nil {
			log.Printf("Couldn't read elements from request body: %v", err)

			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, err)
				return
			}

			writeError(w, http.StatusBadRequest, err)
			return
		}

		summary, err := ex.Import(r.Context(), elements)
		if err != nil {
			log.Printf("couldn't import %d elements: %v", len(elements), err)
			writeError(w, statusOf(err), err)
			return
		}

		if err := auditLogger.Log(r.Context(), audit.AuditData{
			"written":      summary.Succeeded,
			"failed":       summary.Failed(),
			"requestUnits": summary.TotalCost,
			"elapsed":      summary.Elapsed.Round(time.Millisecond).String(),
		}); err != nil {
			log.Printf("Failed to audit import: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(newImportResponse(summary)); err != nil {
			log.Printf("Failed to write import response: %v", err)
		}
	})

	return middleware.Wrap(
		[]middleware.Middleware{
			middleware.Recover(log.Default()),
			cors,
			authn,
			auditLogger,
			middleware.MaxBodyBytes(maxBodyBytes),
		},
		apiMux,
	), nil
}
