package store

import (
	"fmt"

	"github.com/AdelJumaily/Odin/backend/internal/model"
)

func chunkKey(projectID, documentID string, index int) string {
	// Zero-padded index keeps chunk iteration in document order
	return fmt.Sprintf("chunk:%s:%s:%08d", projectID, documentID, index)
}

// PutChunks stores the chunks of one document
func (t *Tx) PutChunks(chunks []*model.Chunk) error {
	for _, chunk := range chunks {
		if err := t.putJSON(chunkKey(chunk.ProjectID, chunk.DocumentID, chunk.Index), chunk); err != nil {
			return err
		}
	}
	return nil
}

// ChunksByDocument returns a document's chunks in index order
func (t *Tx) ChunksByDocument(projectID, documentID string) ([]*model.Chunk, error) {
	return t.scanChunks(fmt.Sprintf("chunk:%s:%s:", projectID, documentID), 0)
}

// ChunksByProject returns up to limit chunks scoped to a project. A limit
// of 0 means no bound.
func (t *Tx) ChunksByProject(projectID string, limit int) ([]*model.Chunk, error) {
	return t.scanChunks(fmt.Sprintf("chunk:%s:", projectID), limit)
}

func (t *Tx) scanChunks(prefix string, limit int) ([]*model.Chunk, error) {
	var chunks []*model.Chunk
	err := t.scanPrefix(prefix, func(val []byte) error {
		if limit > 0 && len(chunks) >= limit {
			return errStopIteration
		}
		chunk := new(model.Chunk)
		if err := decodeJSON(val, chunk); err != nil {
			return err
		}
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chunks, nil
}

// PutChunks stores chunks in its own transaction
func (s *Store) PutChunks(chunks []*model.Chunk) error {
	return s.Update(func(tx *Tx) error {
		return tx.PutChunks(chunks)
	})
}

// ChunksByDocument lists a document's chunks in its own transaction
func (s *Store) ChunksByDocument(projectID, documentID string) ([]*model.Chunk, error) {
	var chunks []*model.Chunk
	err := s.View(func(tx *Tx) error {
		var inner error
		chunks, inner = tx.ChunksByDocument(projectID, documentID)
		return inner
	})
	return chunks, err
}

// ChunksByProject lists project chunks in its own transaction
func (s *Store) ChunksByProject(projectID string, limit int) ([]*model.Chunk, error) {
	var chunks []*model.Chunk
	err := s.View(func(tx *Tx) error {
		var inner error
		chunks, inner = tx.ChunksByProject(projectID, limit)
		return inner
	})
	return chunks, err
}
