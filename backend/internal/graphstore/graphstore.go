package graphstore

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/pkg/logger"
)

// GraphStore is the single contract over both graph backends. Callers never
// see which backend serves a call: the graph database when reachable, the
// cache-backed adjacency list otherwise.
type GraphStore interface {
	UpsertEntities(ctx context.Context, projectID string, entities []model.GraphNode) error
	UpsertRelations(ctx context.Context, projectID string, relations []model.GraphEdge) error
	GetRelatedEntities(ctx context.Context, projectID, name string) ([]model.RelatedEntity, error)
	GetSubgraph(ctx context.Context, projectID, root string, depth int) (*model.Subgraph, error)
}

// KV is the cache surface backing the fallback adjacency lists
type KV interface {
	KVGet(key string) ([]byte, error)
	KVSet(key string, value []byte) error
}

const connectCheckTimeout = 3 * time.Second

// New selects the backend with a single connectivity check at construction.
// A nil driver or a failed connectivity check yields the fallback; otherwise
// the primary backend is returned, which still degrades per invocation if
// the graph database goes away later.
func New(ctx context.Context, driver neo4j.DriverWithContext, kv KV) GraphStore {
	log := logger.Get()
	fallback := newFallback(kv)

	if driver == nil {
		log.Info("Graph database not configured, using cache-backed graph store")
		return fallback
	}

	checkCtx, cancel := context.WithTimeout(ctx, connectCheckTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(checkCtx); err != nil {
		log.Warn("Graph database unreachable, using cache-backed graph store", zap.Error(err))
		return fallback
	}

	log.Info("Graph database connected")
	return &primary{
		driver:   driver,
		fallback: fallback,
		logger:   log,
	}
}
