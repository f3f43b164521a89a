package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/somacore/roledeck/internal/bootstrap"
	"github.com/somacore/roledeck/internal/shared/config"
	"github.com/somacore/roledeck/internal/shared/server"
	"github.com/somacore/roledeck/internal/shared/storage/db"
	"github.com/somacore/roledeck/internal/tenantroute"
)

func main() {
	cfg := config.Load()
	app, err := bootstrap.Build(cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	if app.DB != nil {
		if err := db.RunMigrations(context.Background(), app.DB); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		defer app.DB.Close()
	}

	addr := server.Addr(cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           tenantroute.Handler(cfg.RootDomain, app.Router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Printf("shutting down API server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
		close(idleConnsClosed)
	}()

	log.Printf("Starting API server on %s (root domain %s)", addr, cfg.RootDomain)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}

	<-idleConnsClosed
	// Pending view writes run on detached contexts; let them land.
	app.Recorder.Wait()
}
