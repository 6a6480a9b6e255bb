package main

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/events"
	"github.com/AdelJumaily/Odin/backend/internal/graphstore"
	"github.com/AdelJumaily/Odin/backend/internal/ingest"
	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/internal/search"
	"github.com/AdelJumaily/Odin/backend/internal/store"
	"github.com/AdelJumaily/Odin/backend/pkg/config"
	apperrors "github.com/AdelJumaily/Odin/backend/pkg/errors"
)

type deps struct {
	store  *store.Store
	driver *ingest.Driver
	queue  *ingest.Queue
	engine *search.Engine
	graph  graphstore.GraphStore
	hub    *events.Hub
}

func setupRouter(cfg *config.Config, log *zap.Logger, d *deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		// Upload a document and queue it for ingestion
		api.POST("/projects/:project/documents", func(c *gin.Context) {
			projectID := c.Param("project")

			file, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
				return
			}

			docID := uuid.NewString()
			storagePath := filepath.Join(cfg.UploadDir, docID+filepath.Ext(file.Filename))
			if err := c.SaveUploadedFile(file, storagePath); err != nil {
				log.Error("Failed to save upload", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
				return
			}

			title := c.PostForm("title")
			if title == "" {
				title = file.Filename
			}

			now := time.Now().UTC()
			doc := &model.Document{
				ID:          docID,
				ProjectID:   projectID,
				Title:       title,
				StoragePath: storagePath,
				MimeType:    file.Header.Get("Content-Type"),
				SizeBytes:   file.Size,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := d.store.PutDocument(doc); err != nil {
				log.Error("Failed to store document", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
				return
			}

			job, err := d.driver.CreateJob(projectID, docID)
			if err != nil {
				log.Error("Failed to create ingest job", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
				return
			}
			if err := d.queue.Enqueue(job.ID); err != nil {
				log.Error("Failed to enqueue ingest job", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job"})
				return
			}

			c.JSON(http.StatusAccepted, gin.H{"document": doc, "job": job})
		})

		// List documents in a project
		api.GET("/projects/:project/documents", func(c *gin.Context) {
			docs, err := d.store.DocumentsByProject(c.Param("project"))
			if err != nil {
				log.Error("Failed to list documents", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"documents": docs})
		})

		// Job status
		api.GET("/jobs/:id", func(c *gin.Context) {
			job, err := d.store.GetJob(c.Param("id"))
			if err != nil {
				if apperrors.IsNotFound(err) {
					c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
					return
				}
				log.Error("Failed to fetch job", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job"})
				return
			}
			c.JSON(http.StatusOK, job)
		})

		// Hybrid search over a project's chunks
		api.GET("/projects/:project/search", func(c *gin.Context) {
			limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
			results, err := d.engine.Search(
				c.Request.Context(),
				c.Param("project"),
				c.Query("q"),
				search.Mode(c.DefaultQuery("mode", "hybrid")),
				limit,
			)
			if err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeValidation) {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				log.Error("Search failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"results": results})
		})

		// Entity neighborhood
		api.GET("/projects/:project/graph", func(c *gin.Context) {
			depth, _ := strconv.Atoi(c.DefaultQuery("depth", "2"))
			subgraph, err := d.engine.GraphSearch(c.Request.Context(), c.Param("project"), c.Query("entity"), depth)
			if err != nil {
				if apperrors.IsErrorType(err, apperrors.ErrorTypeValidation) {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
				log.Error("Graph query failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Graph query failed"})
				return
			}
			c.JSON(http.StatusOK, subgraph)
		})

		// List entities in a project
		api.GET("/projects/:project/entities", func(c *gin.Context) {
			entities, err := d.store.EntitiesByProject(c.Param("project"))
			if err != nil {
				log.Error("Failed to list entities", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list entities"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"entities": entities})
		})

		// Stream ingestion events over SSE
		api.GET("/events", func(c *gin.Context) {
			sub := newSSESubscriber()
			d.hub.Connect(sub)
			defer d.hub.Disconnect(sub.ID())

			c.Writer.Header().Set("Content-Type", "text/event-stream")
			c.Writer.Header().Set("Cache-Control", "no-cache")
			c.Writer.Header().Set("Connection", "keep-alive")

			c.Stream(func(w io.Writer) bool {
				select {
				case payload, ok := <-sub.ch:
					if !ok {
						return false
					}
					c.SSEvent("message", string(payload))
					return true
				case <-c.Request.Context().Done():
					return false
				}
			})
		})
	}

	return router
}

// sseSubscriber bridges the event hub to one SSE connection. A client that
// cannot keep up fills the buffer; the failed Send then drops it from the hub.
type sseSubscriber struct {
	id string
	ch chan []byte
}

func newSSESubscriber() *sseSubscriber {
	return &sseSubscriber{
		id: uuid.NewString(),
		ch: make(chan []byte, 16),
	}
}

func (s *sseSubscriber) ID() string { return s.id }

func (s *sseSubscriber) Send(payload []byte) error {
	select {
	case s.ch <- payload:
		return nil
	default:
		return errors.New("event buffer full")
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
