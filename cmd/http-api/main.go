package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/uswitch/graphbulk/pkg/audit"
	"github.com/uswitch/graphbulk/pkg/authnz"
	"github.com/uswitch/graphbulk/pkg/ingest"
	"github.com/uswitch/graphbulk/pkg/middleware"
)

func main() {
	var serverWaitGroup sync.WaitGroup

	if len(os.Args) != 2 {
		log.Fatal("http-api [config path]")
	}

	configPath := os.Args[1]
	config, err := ConfigFromPath(configPath)
	if err != nil {
		log.Fatalf("Could load config file from '%s': %v", configPath, err)
	}

	logger := config.Log.SetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := config.OIDCConfigs()
	if err != nil {
		log.Fatalf("Couldn't load OIDC providers: %v", err)
	}

	authn, err := authnz.NewOIDCAuthenticator(ctx, providers)
	if err != nil {
		log.Fatalf("Couldn't create the authenticator: %v", err)
	}

	ex, err := config.NewExecutor(logger)
	if err != nil {
		log.Fatalf("Couldn't open the %s container: %v", config.Store.Backend, err)
	}
	defer ex.Close()

	parser, err := ingest.NewParser()
	if err != nil {
		log.Fatalf("Couldn't compile the element schema: %v", err)
	}

	auditLogger := audit.NewAuditLog(log.New(os.Stdout, "audit\t", 0))

	api, err := apiHandler(ex, parser, authn, auditLogger, middleware.NewCORSMiddleware(config.Api.CORS))
	if err != nil {
		log.Fatalf("Couldn't create the API handler: %v", err)
	}

	apiServer := &http.Server{
		Addr:    config.Api.Addr,
		Handler: api,
	}

	serverWaitGroup.Add(1)

	go func() {
		defer serverWaitGroup.Done()

		log.Printf("API server listening on: %v", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Println(err)
		}
	}()

	opsMux := http.NewServeMux()

	opsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		fmt.Fprint(w, "OK")
	})

	opsServer := &http.Server{
		Addr:    config.Ops.Addr,
		Handler: opsMux,
	}

	serverWaitGroup.Add(1)

	go func() {
		defer serverWaitGroup.Done()

		log.Printf("Ops server listening on: %v", opsServer.Addr)
		if err := opsServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Println(err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(config.GracefulTimeoutSecs)*time.Second)
	defer cancel()

	for _, server := range []*http.Server{apiServer, opsServer} {
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Failed to shut down %s: %v", server.Addr, err)
		}
	}

	serverWaitGroup.Wait()
}
