package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/embed"
	"github.com/AdelJumaily/Odin/backend/internal/events"
	"github.com/AdelJumaily/Odin/backend/internal/extract"
	"github.com/AdelJumaily/Odin/backend/internal/graphstore"
	"github.com/AdelJumaily/Odin/backend/internal/index"
	"github.com/AdelJumaily/Odin/backend/internal/ingest"
	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/internal/store"
	"github.com/AdelJumaily/Odin/backend/pkg/config"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// Seeds a project with documents from a directory, running each one
// through the full ingest pipeline synchronously. Useful for loading a
// demo corpus or re-indexing after wiping the data directory.
func main() {
	projectID := flag.String("project", "default", "Project ID to seed into")
	dir := flag.String("dir", "", "Directory of text or HTML files to ingest")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	if *dir == "" {
		log.Fatal("Missing required -dir flag")
	}

	st, err := store.Open(filepath.Join(cfg.DataDir, "badger"))
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer st.Close()

	ctx := context.Background()

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

	indexer := index.NewIndexer(st, embed.Select(cfg), extract.Select(cfg), graphStore, cfg.ChunkSize, cfg.ChunkOverlap)
	hub := events.NewHub(64)
	ingestDriver := ingest.NewDriver(st, indexer, hub)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatal("Failed to read seed directory", zap.String("dir", *dir), zap.Error(err))
	}

	seeded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(*dir, entry.Name())
		now := time.Now().UTC()
		doc := &model.Document{
			ID:          uuid.NewString(),
			ProjectID:   *projectID,
			Title:       entry.Name(),
			StoragePath: path,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := st.PutDocument(doc); err != nil {
			log.Error("Failed to store document", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		job, err := ingestDriver.CreateJob(*projectID, doc.ID)
		if err != nil {
			log.Error("Failed to create job", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		if err := ingestDriver.Run(ctx, job.ID); err != nil {
			log.Error("Ingest failed", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		final, err := st.GetJob(job.ID)
		if err != nil {
			log.Error("Failed to load job result", zap.String("job_id", job.ID), zap.Error(err))
			continue
		}
		if final.Status != model.JobCompleted {
			log.Warn("Document did not complete",
				zap.String("file", entry.Name()),
				zap.String("status", string(final.Status)),
				zap.String("reason", final.ErrorMessage))
			continue
		}

		log.Info("Seeded document",
			zap.String("file", entry.Name()),
			zap.String("chunks", final.Payload["chunks"]),
			zap.String("entities", final.Payload["entities"]),
			zap.String("relations", final.Payload["relations"]))
		seeded++
	}

	log.Info("Seeding complete", zap.Int("documents", seeded), zap.String("project", *projectID))
}
