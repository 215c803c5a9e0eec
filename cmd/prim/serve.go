package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/banshee-data/prim/internal/api"
	"github.com/banshee-data/prim/internal/db"
	"github.com/banshee-data/prim/internal/monitoring"
	"github.com/banshee-data/prim/internal/report"
)

func serveCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	dbPath := fs.String("db", db.DefaultPath, "SQLite database path")
	listen := fs.String("listen", ":8080", "Listen address")
	assetsHost := fs.String("assets-host", "", "Base URL for echarts assets (empty uses the CDN)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *listen == "" {
		return fmt.Errorf("%w: listen address is required", errUsage)
	}
	monitoring.SetDebug(*debug)
	report.AssetsHost = *assetsHost

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	mux, err := api.NewServer(database).ServeMux()
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              *listen,
		Handler:           api.LoggingMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := server.Shutdown(shutdownCtx); err != nil {
			monitoring.Logf("failed to shut down HTTP server: %v", err)
		}
	}()

	monitoring.Logf("serving %s on %s", *dbPath, *listen)
	err = server.ListenAndServe()
	cancel()
	wg.Wait()
	if errors.Is(err, http.ErrServerClosed) {
		monitoring.Logf("HTTP server stopped")
		return nil
	}
	return err
}
