package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ninjachef/internal/recipes"
)

func newMux(a *app) (*http.ServeMux, func()) {
	mux := http.NewServeMux()

	recipeHandler := recipes.NewHandler(a.service, a.store)
	recipeHandler.Register(mux)

	ro := &readyOnce{}
	ro.Add(a.service)
	if r, ok := a.cache.(Readyable); ok {
		ro.Add(r)
	}
	mux.Handle("GET /ready", ro)

	return mux, recipeHandler.Wait
}

func runServer(ctx context.Context, a *app, addr string) error {
	mux, recipesWait := newMux(a)

	server := &http.Server{
		Addr:              addr,
		Handler:           WithMiddleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "Serving Ninja Chef", "address", addr)
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-shutdown:
		slog.InfoContext(ctx, "Shutdown signal received", "signal", sig)
		return gracefulShutdown(server, recipesWait)
	}
}

func gracefulShutdown(svr *http.Server, recipesWait func()) error {
	// kubernetes gives 30 seconds
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := svr.Shutdown(ctx); err != nil {
		slog.Error("Server shutdown error", "error", err)
		if closeErr := svr.Close(); closeErr != nil {
			slog.Error("Server close error", "error", closeErr)
		}
		return err
	}

	done := make(chan struct{})
	go func() {
		recipesWait()
		close(done)
	}()

	slog.Info("Waiting for recipe generation to complete")
	select {
	case <-done:
		slog.Info("Recipe generation completed")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for recipe generation")
		return ctx.Err()
	}
	return nil
}
