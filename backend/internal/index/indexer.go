package index

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/embed"
	"github.com/AdelJumaily/Odin/backend/internal/extract"
	"github.com/AdelJumaily/Odin/backend/internal/graphstore"
	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/internal/segment"
	"github.com/AdelJumaily/Odin/backend/internal/store"
	apperrors "github.com/AdelJumaily/Odin/backend/pkg/errors"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// Indexer composes the segmenter, embedding provider, extractor, and
// persistence into the ingestion path: raw text in, stored chunks,
// entities, and relations out, with the graph store synchronized
// best-effort afterwards.
type Indexer struct {
	store        *store.Store
	provider     embed.Provider
	extractor    extract.Extractor
	graph        graphstore.GraphStore
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

// NewIndexer creates an indexing orchestrator
func NewIndexer(s *store.Store, provider embed.Provider, extractor extract.Extractor, graph graphstore.GraphStore, chunkSize, chunkOverlap int) *Indexer {
	return &Indexer{
		store:        s,
		provider:     provider,
		extractor:    extractor,
		graph:        graph,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger.Get(),
	}
}

// Result carries the records created or merged by one IndexDocument call
type Result struct {
	Chunks    []*model.Chunk
	Entities  []*model.Entity
	Relations []*model.Relation
}

// IndexDocument runs the full indexing sequence for one document:
// extraction, chunking with embeddings, then persistence and graph sync
func (ix *Indexer) IndexDocument(ctx context.Context, doc *model.Document, rawText string) (*Result, error) {
	extracted, extractedRelations, err := ix.ExtractEntities(ctx, rawText)
	if err != nil {
		return nil, err
	}
	chunks, err := ix.EmbedChunks(ctx, doc, rawText)
	if err != nil {
		return nil, err
	}
	return ix.PersistAndSync(ctx, doc, chunks, extracted, extractedRelations)
}

// ExtractEntities runs the extraction stage over the raw document text
func (ix *Indexer) ExtractEntities(ctx context.Context, rawText string) ([]extract.ExtractedEntity, []extract.ExtractedRelation, error) {
	extracted, err := ix.extractor.Extract(ctx, rawText)
	if err != nil {
		return nil, nil, err
	}
	return extracted, extract.ExtractRelations(rawText, extracted), nil
}

// EmbedChunks segments the text into overlapping windows and embeds each
func (ix *Indexer) EmbedChunks(ctx context.Context, doc *model.Document, rawText string) ([]*model.Chunk, error) {
	chunkTexts := segment.Split(rawText, ix.chunkSize, ix.chunkOverlap)

	embeddings, err := ix.provider.EmbedBatch(ctx, chunkTexts)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chunks := make([]*model.Chunk, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = &model.Chunk{
			DocumentID:  doc.ID,
			ProjectID:   doc.ProjectID,
			Index:       i,
			Content:     text,
			ContentHash: model.ContentHash(text),
			Tokens:      segment.TokenCount(text),
			Embedding:   embeddings[i],
			Attributes:  map[string]string{"title": doc.Title},
			CreatedAt:   now,
		}
	}
	return chunks, nil
}

// PersistAndSync writes chunks, entities, and relations in a single store
// transaction, then mirrors the graph best-effort. A graph sync failure
// is logged, never returned: the store remains the source of truth.
func (ix *Indexer) PersistAndSync(ctx context.Context, doc *model.Document, chunks []*model.Chunk, extracted []extract.ExtractedEntity, extractedRelations []extract.ExtractedRelation) (*Result, error) {
	now := time.Now().UTC()
	result := &Result{}

	err := ix.store.Update(func(tx *store.Tx) error {
		if err := tx.PutChunks(chunks); err != nil {
			return err
		}
		result.Chunks = chunks

		entities, err := ix.resolveEntities(tx, doc, extracted, now)
		if err != nil {
			return err
		}
		result.Entities = entities

		relations, err := ix.resolveRelations(tx, doc, entities, extractedRelations, now)
		if err != nil {
			return err
		}
		result.Relations = relations
		return nil
	})
	if err != nil {
		return nil, err
	}

	ix.syncGraph(ctx, doc.ProjectID, result)
	return result, nil
}

// resolveEntities reads or creates each extracted entity, unioning aliases
// into existing records instead of duplicating them
func (ix *Indexer) resolveEntities(tx *store.Tx, doc *model.Document, extracted []extract.ExtractedEntity, now time.Time) ([]*model.Entity, error) {
	entities := make([]*model.Entity, 0, len(extracted))
	for _, ent := range extracted {
		existing, err := tx.GetEntityByName(doc.ProjectID, ent.CanonicalName)
		if err == nil {
			existing.Aliases = extract.MergeAliases(existing.Aliases, ent.Aliases)
			if err := tx.PutEntity(existing); err != nil {
				return nil, err
			}
			entities = append(entities, existing)
			continue
		}
		if !apperrors.IsNotFound(err) {
			return nil, err
		}

		created := &model.Entity{
			ID:            uuid.NewString(),
			ProjectID:     doc.ProjectID,
			CanonicalName: ent.CanonicalName,
			EntityType:    ent.EntityType,
			Aliases:       ent.Aliases,
			Attributes:    map[string]string{"document_id": doc.ID},
			CreatedAt:     now,
		}
		if err := tx.PutEntity(created); err != nil {
			return nil, err
		}
		entities = append(entities, created)
	}
	return entities, nil
}

// resolveRelations persists extracted relations deduplicated by endpoints
// and type. Relations whose endpoints did not resolve are skipped.
func (ix *Indexer) resolveRelations(tx *store.Tx, doc *model.Document, entities []*model.Entity, extracted []extract.ExtractedRelation, now time.Time) ([]*model.Relation, error) {
	byName := make(map[string]*model.Entity, len(entities))
	for _, entity := range entities {
		byName[strings.ToLower(entity.CanonicalName)] = entity
	}

	relations := make([]*model.Relation, 0, len(extracted))
	for _, rel := range extracted {
		source := byName[strings.ToLower(rel.Source)]
		target := byName[strings.ToLower(rel.Target)]
		if source == nil || target == nil {
			continue
		}

		existing, err := tx.FindRelation(doc.ProjectID, source.ID, target.ID, rel.RelationType)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			relations = append(relations, existing)
			continue
		}

		created := &model.Relation{
			ID:             uuid.NewString(),
			ProjectID:      doc.ProjectID,
			SourceEntityID: source.ID,
			TargetEntityID: target.ID,
			RelationType:   rel.RelationType,
			Attributes:     map[string]string{"document_id": doc.ID},
			CreatedAt:      now,
		}
		if err := tx.PutRelation(created); err != nil {
			return nil, err
		}
		relations = append(relations, created)
	}
	return relations, nil
}

// syncGraph mirrors the touched entities and relations into the graph
// store. Indexing is structurally complete without it, so failures are
// logged and swallowed.
func (ix *Indexer) syncGraph(ctx context.Context, projectID string, result *Result) {
	if len(result.Entities) == 0 {
		return
	}

	byID := make(map[string]*model.Entity, len(result.Entities))
	nodes := make([]model.GraphNode, 0, len(result.Entities))
	for _, entity := range result.Entities {
		byID[entity.ID] = entity
		nodes = append(nodes, model.GraphNode{
			CanonicalName: entity.CanonicalName,
			EntityType:    entity.EntityType,
			Aliases:       entity.Aliases,
		})
	}
	if err := ix.graph.UpsertEntities(ctx, projectID, nodes); err != nil {
		ix.logger.Warn("Graph entity sync failed", zap.String("project_id", projectID), zap.Error(err))
		return
	}

	edges := make([]model.GraphEdge, 0, len(result.Relations))
	for _, relation := range result.Relations {
		source := byID[relation.SourceEntityID]
		target := byID[relation.TargetEntityID]
		if source == nil || target == nil {
			continue
		}
		edges = append(edges, model.GraphEdge{
			Source:       source.CanonicalName,
			Target:       target.CanonicalName,
			RelationType: relation.RelationType,
			Weight:       relation.Weight,
		})
	}
	if len(edges) == 0 {
		return
	}
	if err := ix.graph.UpsertRelations(ctx, projectID, edges); err != nil {
		ix.logger.Warn("Graph relation sync failed", zap.String("project_id", projectID), zap.Error(err))
	}
}
