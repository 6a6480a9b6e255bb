package graphstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// fallback is the cache-backed graph backend. Entities and relations live
// as JSON lists under per-project keys; upsert is read-merge-write with
// last-write-wins on overlapping fields and alias-set union. The mutex
// keeps concurrent read-merge-write cycles from losing updates.
type fallback struct {
	kv     KV
	mu     sync.Mutex
	logger *zap.Logger
}

func newFallback(kv KV) *fallback {
	return &fallback{kv: kv, logger: logger.Get()}
}

func entitiesKey(projectID string) string {
	return fmt.Sprintf("graph:%s:entities", projectID)
}

func relationsKey(projectID string) string {
	return fmt.Sprintf("graph:%s:relations", projectID)
}

func (f *fallback) loadNodes(projectID string) ([]model.GraphNode, error) {
	raw, err := f.kv.KVGet(entitiesKey(projectID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var nodes []model.GraphNode
	if err := json.Unmarshal(raw, &nodes); err != nil {
		return nil, fmt.Errorf("corrupt fallback entity list: %w", err)
	}
	return nodes, nil
}

func (f *fallback) loadEdges(projectID string) ([]model.GraphEdge, error) {
	raw, err := f.kv.KVGet(relationsKey(projectID))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var edges []model.GraphEdge
	if err := json.Unmarshal(raw, &edges); err != nil {
		return nil, fmt.Errorf("corrupt fallback relation list: %w", err)
	}
	return edges, nil
}

func (f *fallback) storeJSON(key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return f.kv.KVSet(key, data)
}

// UpsertEntities merges entities into the project's stored node list
func (f *fallback) UpsertEntities(_ context.Context, projectID string, entities []model.GraphNode) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, err := f.loadNodes(projectID)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(stored))
	for i, node := range stored {
		index[strings.ToLower(node.CanonicalName)] = i
	}

	for _, entity := range entities {
		key := strings.ToLower(entity.CanonicalName)
		i, seen := index[key]
		if !seen {
			index[key] = len(stored)
			stored = append(stored, entity)
			continue
		}
		merged := entity
		merged.Aliases = unionAliases(stored[i].Aliases, entity.Aliases)
		if merged.EntityType == "" {
			merged.EntityType = stored[i].EntityType
		}
		stored[i] = merged
	}

	return f.storeJSON(entitiesKey(projectID), stored)
}

// UpsertRelations merges edges into the project's stored edge list,
// deduplicated by (source, target, type)
func (f *fallback) UpsertRelations(_ context.Context, projectID string, relations []model.GraphEdge) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, err := f.loadEdges(projectID)
	if err != nil {
		return err
	}

	index := make(map[string]int, len(stored))
	for i, edge := range stored {
		index[edgeKey(edge)] = i
	}

	for _, relation := range relations {
		key := edgeKey(relation)
		i, seen := index[key]
		if !seen {
			index[key] = len(stored)
			stored = append(stored, relation)
			continue
		}
		stored[i] = relation
	}

	return f.storeJSON(relationsKey(projectID), stored)
}

func edgeKey(edge model.GraphEdge) string {
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(edge.Source), strings.ToLower(edge.Target), edge.RelationType)
}

// GetRelatedEntities scans the edge list for neighbors in either direction
func (f *fallback) GetRelatedEntities(_ context.Context, projectID, name string) ([]model.RelatedEntity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	edges, err := f.loadEdges(projectID)
	if err != nil {
		return nil, err
	}

	var related []model.RelatedEntity
	for _, edge := range edges {
		if edge.Source == name {
			related = append(related, model.RelatedEntity{CanonicalName: edge.Target, RelationType: edge.RelationType})
		}
		if edge.Target == name {
			related = append(related, model.RelatedEntity{CanonicalName: edge.Source, RelationType: edge.RelationType})
		}
	}
	return related, nil
}

// GetSubgraph walks the adjacency list breadth-first from root, truncating
// at the depth bound
func (f *fallback) GetSubgraph(_ context.Context, projectID, root string, depth int) (*model.Subgraph, error) {
	if depth < 1 {
		depth = 1
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	nodes, err := f.loadNodes(projectID)
	if err != nil {
		return nil, err
	}
	edges, err := f.loadEdges(projectID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{root: true}
	order := []string{root}
	frontier := []string{root}
	included := make(map[int]bool)
	subgraph := &model.Subgraph{Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}

	for level := 0; level < depth && len(frontier) > 0; level++ {
		var next []string
		for _, name := range frontier {
			for i, edge := range edges {
				var neighbor string
				switch name {
				case edge.Source:
					neighbor = edge.Target
				case edge.Target:
					neighbor = edge.Source
				default:
					continue
				}
				if !included[i] {
					included[i] = true
					subgraph.Edges = append(subgraph.Edges, edge)
				}
				if !visited[neighbor] {
					visited[neighbor] = true
					order = append(order, neighbor)
					next = append(next, neighbor)
				}
			}
		}
		frontier = next
	}

	byName := make(map[string]model.GraphNode, len(nodes))
	for _, node := range nodes {
		byName[node.CanonicalName] = node
	}

	if _, known := byName[root]; !known && len(subgraph.Edges) == 0 {
		// Unknown root with no adjacency: empty result, not an error
		return &model.Subgraph{Nodes: []model.GraphNode{}, Edges: []model.GraphEdge{}}, nil
	}

	// Nodes follow traversal order so repeated calls return the same shape.
	// Edge endpoints without a stored entity record still appear, typed UNKNOWN.
	for _, name := range order {
		if node, ok := byName[name]; ok {
			subgraph.Nodes = append(subgraph.Nodes, node)
			continue
		}
		subgraph.Nodes = append(subgraph.Nodes, model.GraphNode{CanonicalName: name, EntityType: "UNKNOWN"})
	}

	return subgraph, nil
}

// unionAliases appends the incoming aliases that are not already present,
// compared case-insensitively, preserving insertion order
func unionAliases(existing, incoming []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, alias := range existing {
		seen[strings.ToLower(alias)] = true
	}
	merged := existing
	for _, alias := range incoming {
		key := strings.ToLower(alias)
		if alias == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, alias)
	}
	return merged
}
