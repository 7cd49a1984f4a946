package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/five82/shopdeck/internal/logging"
	"github.com/five82/shopdeck/internal/mockapi"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:8080", "listen address")
	seedPath := flag.String("seed", "", "YAML fixtures (optional, defaults to the embedded seed)")
	secret := flag.String("secret", "shopdeck-dev-secret", "HS256 signing secret")
	ttl := flag.Duration("token-ttl", 12*time.Hour, "issued token lifetime")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	gin.SetMode(gin.ReleaseMode)

	logger, err := logging.NewConsole(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shopdeck-mockapi: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	var seed []byte
	if *seedPath != "" {
		seed, err = os.ReadFile(*seedPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "shopdeck-mockapi: read seed: %v\n", err)
			return 1
		}
	}
	store, err := mockapi.NewStore(seed, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "shopdeck-mockapi: %v\n", err)
		return 1
	}
	srv, err := mockapi.New(mockapi.Options{Secret: *secret, TokenTTL: *ttl, Logger: logger, Store: store})
	if err != nil {
		fmt.Fprintf(os.Stderr, "shopdeck-mockapi: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpSrv := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("mock backend listening", zap.String("addr", *addr), zap.String("api", "http://"+*addr+"/api"))
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "shopdeck-mockapi: %v\n", err)
		return 1
	}
	return 0
}
