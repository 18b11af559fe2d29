package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"

	"github.com/groqchat/groqchat/internal/config"
	"github.com/groqchat/groqchat/internal/handler"
	"github.com/groqchat/groqchat/internal/model/catalog"
	"github.com/groqchat/groqchat/internal/service/ai"
	"github.com/groqchat/groqchat/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	fs := flag.NewFlagSet("groqchat", flag.ExitOnError)
	var (
		addr       = fs.String("addr", "", "listen address (overrides PORT)")
		configFile = fs.String("config", config.DefaultConfigFile, "path to the JSON credential file")
		logDir     = fs.String("log-dir", "", "directory for per-session transcript logs (overrides CHAT_LOG_DIR)")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("GROQCHAT")); err != nil {
		log.Fatalf("failed to parse flags: %v", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *logDir != "" {
		cfg.Log.Dir = *logDir
	}

	// Make sure the configured default model is always offered.
	seed := catalog.Seed()
	known := false
	for _, m := range seed {
		if m.ID == cfg.Groq.Model {
			known = true
			break
		}
	}
	if !known {
		seed = append([]catalog.Model{{ID: cfg.Groq.Model, Name: cfg.Groq.Model}}, seed...)
	}
	modelStore := catalog.NewMemoryStore(seed)
	chatService := chat.NewService(cfg.Log.Dir)
	defer func() {
		if err := chatService.Close(); err != nil {
			log.Printf("warning: failed to close session logs: %v", err)
		}
	}()

	gateway := ai.NewGateway(cfg.Groq)

	router := handler.NewRouter(modelStore, chatService, gateway, cfg.Groq.Model)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("groqchat backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
