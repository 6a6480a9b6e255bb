package graphstore

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/model"
)

// primary is the graph database backend. Entities are nodes keyed by
// (project_id, canonical_name); relations are directed RELATION edges with
// project-scoped uniqueness. Availability errors mid-operation divert that
// single invocation to the fallback and are never surfaced to the caller.
type primary struct {
	driver   neo4j.DriverWithContext
	fallback *fallback
	logger   *zap.Logger
}

func (p *primary) degraded(op string, err error) bool {
	if neo4j.IsConnectivityError(err) {
		p.logger.Warn("Graph database unavailable, serving from fallback",
			zap.String("operation", op),
			zap.Error(err),
		)
		return true
	}
	return false
}

// UpsertEntities merges entity nodes into the graph
func (p *primary) UpsertEntities(ctx context.Context, projectID string, entities []model.GraphNode) error {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MERGE (e:Entity {project_id: $projectID, canonical_name: $canonicalName})
		SET e.entity_type = $entityType,
		    e.aliases = $aliases,
		    e.updated_at = datetime()
	`

	for _, entity := range entities {
		_, err := session.Run(ctx, query, map[string]interface{}{
			"projectID":     projectID,
			"canonicalName": entity.CanonicalName,
			"entityType":    entity.EntityType,
			"aliases":       entity.Aliases,
		})
		if err != nil {
			if p.degraded("upsert_entities", err) {
				return p.fallback.UpsertEntities(ctx, projectID, entities)
			}
			return fmt.Errorf("failed to upsert entity: %w", err)
		}
	}
	return nil
}

// UpsertRelations merges directed edges between existing entity nodes
func (p *primary) UpsertRelations(ctx context.Context, projectID string, relations []model.GraphEdge) error {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (s:Entity {project_id: $projectID, canonical_name: $source})
		MATCH (t:Entity {project_id: $projectID, canonical_name: $target})
		MERGE (s)-[r:RELATION {project_id: $projectID, relation_type: $relationType}]->(t)
		SET r.weight = $weight,
		    r.updated_at = datetime()
	`

	for _, relation := range relations {
		_, err := session.Run(ctx, query, map[string]interface{}{
			"projectID":    projectID,
			"source":       relation.Source,
			"target":       relation.Target,
			"relationType": relation.RelationType,
			"weight":       relation.Weight,
		})
		if err != nil {
			if p.degraded("upsert_relations", err) {
				return p.fallback.UpsertRelations(ctx, projectID, relations)
			}
			return fmt.Errorf("failed to upsert relation: %w", err)
		}
	}
	return nil
}

// GetRelatedEntities returns the direct neighbors of an entity
func (p *primary) GetRelatedEntities(ctx context.Context, projectID, name string) ([]model.RelatedEntity, error) {
	session := p.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	query := `
		MATCH (e:Entity {project_id: $projectID, canonical_name: $name})-[r:RELATION]-(related:Entity)
		RETURN DISTINCT related.canonical_name AS canonical_name, r.relation_type AS relation_type
	`

	result, err := session.Run(ctx, query, map[string]interface{}{
		"projectID": projectID,
		"name":      name,
	})
	if err != nil {
		if p.degraded("get_related_entities", err) {
			return p.fallback.GetRelatedEntities(ctx, projectID, name)
		}
		return nil, fmt.Errorf("failed to query related entities: %w", err)
	}

	var related []model.RelatedEntity
	for result.Next(ctx) {
		record := result.Record()
		related = append(related, model.RelatedEntity{
			CanonicalName: getStringFromRecord(record, "canonical_name"),
			RelationType:  getStringFromRecord(record, "relation_type"),
		})
	}
	if err := result.Err(); err != nil {
		if p.degraded("get_related_entities", err) {
			return p.fallback.GetRelatedEntities(ctx, projectID, name)
		}
		return nil, fmt.Errorf("failed to read related entities: %w", err)
	}
	return related, nil
}

// GetSubgraph returns the nodes and edges reachable from root within depth
// hops. Depth bounds the traversal; anything beyond it is truncated.
func (p *primary) GetSubgraph(ctx context.Context, projectID, root string, depth int) (*model.Subgraph, error) {
	if depth < 1 {
		depth = 1
	}

	session := p.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	params := map[string]interface{}{
		"projectID": projectID,
		"root":      root,
	}

	// Variable-length bounds cannot be parameterized in Cypher
	nodeQuery := fmt.Sprintf(`
		MATCH (root:Entity {project_id: $projectID, canonical_name: $root})
		OPTIONAL MATCH (root)-[:RELATION*1..%d]-(n:Entity {project_id: $projectID})
		WITH collect(DISTINCT root) + collect(DISTINCT n) AS nodes
		UNWIND nodes AS node
		WITH DISTINCT node
		WHERE node IS NOT NULL
		RETURN node.canonical_name AS canonical_name,
		       node.entity_type AS entity_type,
		       node.aliases AS aliases
	`, depth)

	result, err := session.Run(ctx, nodeQuery, params)
	if err != nil {
		if p.degraded("get_subgraph", err) {
			return p.fallback.GetSubgraph(ctx, projectID, root, depth)
		}
		return nil, fmt.Errorf("failed to query subgraph nodes: %w", err)
	}

	subgraph := &model.Subgraph{Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}
	for result.Next(ctx) {
		record := result.Record()
		subgraph.Nodes = append(subgraph.Nodes, model.GraphNode{
			CanonicalName: getStringFromRecord(record, "canonical_name"),
			EntityType:    getStringFromRecord(record, "entity_type"),
			Aliases:       getStringSliceFromRecord(record, "aliases"),
		})
	}
	if err := result.Err(); err != nil {
		if p.degraded("get_subgraph", err) {
			return p.fallback.GetSubgraph(ctx, projectID, root, depth)
		}
		return nil, fmt.Errorf("failed to read subgraph nodes: %w", err)
	}

	edgeQuery := fmt.Sprintf(`
		MATCH (root:Entity {project_id: $projectID, canonical_name: $root})
		OPTIONAL MATCH (root)-[rels:RELATION*1..%d]-(:Entity {project_id: $projectID})
		UNWIND rels AS r
		WITH DISTINCT r
		RETURN startNode(r).canonical_name AS source,
		       endNode(r).canonical_name AS target,
		       r.relation_type AS relation_type,
		       r.weight AS weight
	`, depth)

	result, err = session.Run(ctx, edgeQuery, params)
	if err != nil {
		if p.degraded("get_subgraph", err) {
			return p.fallback.GetSubgraph(ctx, projectID, root, depth)
		}
		return nil, fmt.Errorf("failed to query subgraph edges: %w", err)
	}

	for result.Next(ctx) {
		record := result.Record()
		subgraph.Edges = append(subgraph.Edges, model.GraphEdge{
			Source:       getStringFromRecord(record, "source"),
			Target:       getStringFromRecord(record, "target"),
			RelationType: getStringFromRecord(record, "relation_type"),
			Weight:       getFloat64FromRecord(record, "weight"),
		})
	}
	if err := result.Err(); err != nil {
		if p.degraded("get_subgraph", err) {
			return p.fallback.GetSubgraph(ctx, projectID, root, depth)
		}
		return nil, fmt.Errorf("failed to read subgraph edges: %w", err)
	}

	return subgraph, nil
}

// Record helpers

func getStringFromRecord(record *neo4j.Record, key string) string {
	val, ok := record.Get(key)
	if !ok {
		return ""
	}
	if str, ok := val.(string); ok {
		return str
	}
	return ""
}

func getStringSliceFromRecord(record *neo4j.Record, key string) []string {
	val, ok := record.Get(key)
	if !ok {
		return nil
	}
	slice, ok := val.([]interface{})
	if !ok {
		return nil
	}
	result := make([]string, 0, len(slice))
	for _, v := range slice {
		if str, ok := v.(string); ok {
			result = append(result, str)
		}
	}
	return result
}

func getFloat64FromRecord(record *neo4j.Record, key string) float64 {
	val, ok := record.Get(key)
	if !ok {
		return 0
	}
	if f, ok := val.(float64); ok {
		return f
	}
	return 0
}
