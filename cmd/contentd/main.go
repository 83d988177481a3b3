// Command contentd serves a sqlite content store over the /rest/v1 contract
// the lessonvault REST backend consumes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/lessonvault/internal/config"
	"github.com/abelbrown/lessonvault/internal/logging"
	"github.com/abelbrown/lessonvault/internal/server"
	"github.com/abelbrown/lessonvault/internal/store"
)

func main() {
	addr := flag.String("addr", "", "listen address (default from config)")
	dbPath := flag.String("db", "", "sqlite database path (default from config)")
	verbose := flag.Bool("v", false, "log every request")
	flag.Parse()

	if err := run(*addr, *dbPath, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "contentd: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, dbPath string, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if addr == "" {
		addr = cfg.Server.Addr
	}
	if dbPath == "" {
		dbPath = cfg.Store.DBPath
	}

	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := logging.New(os.Stderr, level).WithPrefix("contentd")

	if cfg.Store.JWTSecret == "" {
		logger.Warn("no jwt_secret configured: tokens are accepted without signature checks")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	srv := &http.Server{
		Addr: addr,
		Handler: server.New(server.Config{
			Store:  st,
			Secret: []byte(cfg.Store.JWTSecret),
			Log:    logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", addr, "db", dbPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
