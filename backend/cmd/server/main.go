package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AdelJumaily/Odin/backend/internal/embed"
	"github.com/AdelJumaily/Odin/backend/internal/events"
	"github.com/AdelJumaily/Odin/backend/internal/extract"
	"github.com/AdelJumaily/Odin/backend/internal/graphstore"
	"github.com/AdelJumaily/Odin/backend/internal/index"
	"github.com/AdelJumaily/Odin/backend/internal/ingest"
	"github.com/AdelJumaily/Odin/backend/internal/search"
	"github.com/AdelJumaily/Odin/backend/internal/store"
	"github.com/AdelJumaily/Odin/backend/pkg/config"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting ingestion API server...")

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal("Failed to create upload directory", zap.Error(err))
	}

	// Open the document store
	st, err := store.Open(filepath.Join(cfg.DataDir, "badger"))
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()

	// Graph database is optional: without credentials the graph store
	// runs entirely on the cache-backed backend
	var driver neo4j.DriverWithContext
	if cfg.HasNeo4j() {
		driver, err = neo4j.NewDriverWithContext(
			cfg.Neo4jURI,
			neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
		)
		if err != nil {
			log.Warn("Failed to create Neo4j driver, continuing without it", zap.Error(err))
			driver = nil
		} else {
			defer driver.Close(ctx)
		}
	}
	graphStore := graphstore.New(ctx, driver, st)

	// Initialize the pipeline
	provider := embed.Select(cfg)
	extractor := extract.Select(cfg)
	indexer := index.NewIndexer(st, provider, extractor, graphStore, cfg.ChunkSize, cfg.ChunkOverlap)

	hub := events.NewHub(256)
	ingestDriver := ingest.NewDriver(st, indexer, hub)
	queue, err := ingest.NewQueue(ingestDriver, cfg.WorkerCount)
	if err != nil {
		log.Fatal("Failed to create ingest queue", zap.Error(err))
	}
	defer queue.Release()

	engine := search.NewEngine(st, provider, graphStore, cfg.SearchCandidateCap)

	router := setupRouter(cfg, log, &deps{
		store:  st,
		driver: ingestDriver,
		queue:  queue,
		engine: engine,
		graph:  graphStore,
		hub:    hub,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error {
		err := hub.Run(groupCtx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	group.Go(func() error {
		log.Info("Server started", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("Server exited with error", zap.Error(err))
	}
	log.Info("Server exited")
}
