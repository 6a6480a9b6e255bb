package store

import (
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/pkg/errors"
)

func relationKey(projectID, sourceID, targetID, relationType string) string {
	// The key is the dedup identity: (project, source, target, type)
	return fmt.Sprintf("rel:%s:%s:%s:%s", projectID, sourceID, targetID, relationType)
}

// PutRelation stores a relation under its dedup key
func (t *Tx) PutRelation(relation *model.Relation) error {
	key := relationKey(relation.ProjectID, relation.SourceEntityID, relation.TargetEntityID, relation.RelationType)
	return t.putJSON(key, relation)
}

// FindRelation returns the relation with the given endpoints and type, or
// nil when absent
func (t *Tx) FindRelation(projectID, sourceID, targetID, relationType string) (*model.Relation, error) {
	var relation model.Relation
	err := t.getJSON(relationKey(projectID, sourceID, targetID, relationType), &relation)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreFailed("find relation", err)
	}
	return &relation, nil
}

// RelationsByProject lists all relations in a project
func (t *Tx) RelationsByProject(projectID string) ([]*model.Relation, error) {
	var relations []*model.Relation
	err := t.scanPrefix(fmt.Sprintf("rel:%s:", projectID), func(val []byte) error {
		relation := new(model.Relation)
		if err := decodeJSON(val, relation); err != nil {
			return err
		}
		relations = append(relations, relation)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return relations, nil
}

// RelationsByProject lists project relations in its own transaction
func (s *Store) RelationsByProject(projectID string) ([]*model.Relation, error) {
	var relations []*model.Relation
	err := s.View(func(tx *Tx) error {
		var inner error
		relations, inner = tx.RelationsByProject(projectID)
		return inner
	})
	return relations, err
}
