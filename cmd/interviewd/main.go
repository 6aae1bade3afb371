package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjunrb/interviewd/internal/config"
	"github.com/arjunrb/interviewd/internal/gdrive"
	"github.com/arjunrb/interviewd/internal/generate"
	"github.com/arjunrb/interviewd/internal/llm"
	"github.com/arjunrb/interviewd/internal/server"
	"github.com/arjunrb/interviewd/internal/session"
	"github.com/arjunrb/interviewd/internal/storage"
)

func main() {
	log.Println("interviewd: starting")

	configPath := flag.String("config", "interviewd.yaml", "path to config file")
	flag.Parse()

	cfg, warnings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	for _, warning := range warnings {
		log.Printf("warning: %s", warning)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	factory := func(provider, model string) (llm.Client, error) {
		return llm.NewClient(provider, cfg.APIKeyFor(provider), model)
	}
	generator := generate.New(cfg.GenerationModel, cfg.MaxQuestions, factory)

	hub := server.NewHub()
	manager := session.NewManager(store, generator, hub)

	handler := server.Handler(hub, manager, store, generator, func() []string { return warnings })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	go func() {
		log.Printf("interviewd: listening on http://%s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()

	if cfg.GDriveFolderID != "" {
		archiver, archiveErr := gdrive.NewArchiver(ctx, cfg.GoogleCredentialsFile, cfg.GDriveFolderID)
		if archiveErr != nil {
			log.Printf("warning: drive archive disabled: %v", archiveErr)
		} else {
			go func() {
				ticker := time.NewTicker(5 * time.Minute)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						date := time.Now().UTC().Format("2006-01-02")
						if err := archiver.Archive(ctx, cfg.DBPath, date); err != nil {
							log.Printf("drive archive error: %v", err)
						}
					}
				}
			}()
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("interviewd: shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("warning: http shutdown failed: %v", err)
	}
}
