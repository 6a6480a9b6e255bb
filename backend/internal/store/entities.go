package store

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/pkg/errors"
)

func entityKey(projectID, canonicalName string) string {
	// Lowercased name keeps the (project, canonical_name) uniqueness
	// case-insensitive, matching the extractor's dedup rule
	return fmt.Sprintf("ent:%s:%s", projectID, strings.ToLower(canonicalName))
}

// PutEntity stores an entity under its project-scoped canonical name
func (t *Tx) PutEntity(entity *model.Entity) error {
	return t.putJSON(entityKey(entity.ProjectID, entity.CanonicalName), entity)
}

// GetEntityByName loads the entity with the given canonical name
func (t *Tx) GetEntityByName(projectID, canonicalName string) (*model.Entity, error) {
	var entity model.Entity
	if err := t.getJSON(entityKey(projectID, canonicalName), &entity); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NewEntityNotFound(projectID, canonicalName)
		}
		return nil, errors.NewStoreFailed("get entity", err)
	}
	return &entity, nil
}

// EntitiesByProject lists all entities in a project
func (t *Tx) EntitiesByProject(projectID string) ([]*model.Entity, error) {
	var entities []*model.Entity
	err := t.scanPrefix(fmt.Sprintf("ent:%s:", projectID), func(val []byte) error {
		entity := new(model.Entity)
		if err := decodeJSON(val, entity); err != nil {
			return err
		}
		entities = append(entities, entity)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entities, nil
}

// GetEntityByName loads an entity in its own transaction
func (s *Store) GetEntityByName(projectID, canonicalName string) (*model.Entity, error) {
	var entity *model.Entity
	err := s.View(func(tx *Tx) error {
		var inner error
		entity, inner = tx.GetEntityByName(projectID, canonicalName)
		return inner
	})
	return entity, err
}

// EntitiesByProject lists project entities in its own transaction
func (s *Store) EntitiesByProject(projectID string) ([]*model.Entity, error) {
	var entities []*model.Entity
	err := s.View(func(tx *Tx) error {
		var inner error
		entities, inner = tx.EntitiesByProject(projectID)
		return inner
	})
	return entities, err
}
