package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Document is an uploaded file registered with a project. The stored bytes
// are immutable; only metadata may change after upload.
type Document struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"project_id"`
	Title       string            `json:"title"`
	StoragePath string            `json:"storage_path"`
	MimeType    string            `json:"mime_type,omitempty"`
	SizeBytes   int64             `json:"size_bytes,omitempty"`
	CreatedBy   string            `json:"created_by,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Chunk is a bounded, possibly overlapping slice of a document's text.
// Chunk indices for a document are contiguous starting at 0.
type Chunk struct {
	DocumentID  string            `json:"document_id"`
	ProjectID   string            `json:"project_id"`
	Index       int               `json:"index"`
	Content     string            `json:"content"`
	ContentHash string            `json:"content_hash"`
	Tokens      int               `json:"tokens"`
	Embedding   []float32         `json:"embedding,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Entity is the deduplicated record for all mentions of the same named
// thing within a project, unique per (project, canonical_name).
// Re-insertion merges aliases rather than duplicating.
type Entity struct {
	ID            string            `json:"id"`
	ProjectID     string            `json:"project_id"`
	CanonicalName string            `json:"canonical_name"`
	EntityType    string            `json:"entity_type"`
	Aliases       []string          `json:"aliases,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Relation is a directed edge between two entities, deduplicated by
// (project, source, target, type).
type Relation struct {
	ID             string            `json:"id"`
	ProjectID      string            `json:"project_id"`
	SourceEntityID string            `json:"source_entity_id"`
	TargetEntityID string            `json:"target_entity_id"`
	RelationType   string            `json:"relation_type"`
	Weight         float64           `json:"weight,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// JobStatus is the state of an ingest job. Transitions are monotonic
// through the pipeline order, or jump to failed from any non-terminal
// state. Completed and failed are final.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobExtracting JobStatus = "extracting"
	JobEmbedding  JobStatus = "embedding"
	JobGraph      JobStatus = "graph"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

var statusOrder = map[JobStatus]int{
	JobPending:    0,
	JobExtracting: 1,
	JobEmbedding:  2,
	JobGraph:      3,
	JobCompleted:  4,
}

// Terminal returns true for final states
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransition reports whether a move from s to next is legal
func (s JobStatus) CanTransition(next JobStatus) bool {
	if s.Terminal() {
		return false
	}
	if next == JobFailed {
		return true
	}
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// IngestJob tracks one document ingestion attempt through the pipeline
type IngestJob struct {
	ID           string            `json:"id"`
	ProjectID    string            `json:"project_id"`
	DocumentID   string            `json:"document_id"`
	Status       JobStatus         `json:"status"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Payload      map[string]string `json:"payload,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	StartedAt    *time.Time        `json:"started_at,omitempty"`
	FinishedAt   *time.Time        `json:"finished_at,omitempty"`
}

// GraphNode mirrors an Entity in the graph representation
type GraphNode struct {
	CanonicalName string            `json:"canonical_name"`
	EntityType    string            `json:"entity_type"`
	Aliases       []string          `json:"aliases,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
}

// GraphEdge mirrors a Relation in the graph representation
type GraphEdge struct {
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	RelationType string  `json:"relation_type"`
	Weight       float64 `json:"weight,omitempty"`
}

// Subgraph is the shape both graph backends return for traversal queries
type Subgraph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// RelatedEntity is a single neighbor returned by graph lookups
type RelatedEntity struct {
	CanonicalName string `json:"canonical_name"`
	RelationType  string `json:"relation_type"`
}

// ContentHash returns the hex SHA-256 of content. It is a pure function
// of the content and detects unchanged re-ingestion.
func ContentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
