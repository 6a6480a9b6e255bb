package store

import (
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/AdelJumaily/Odin/backend/internal/model"
	"github.com/AdelJumaily/Odin/backend/pkg/errors"
)

func documentKey(documentID string) string {
	return "doc:" + documentID
}

func documentProjectKey(projectID, documentID string) string {
	return fmt.Sprintf("docidx:%s:%s", projectID, documentID)
}

// PutDocument stores a document record and its project index entry
func (t *Tx) PutDocument(doc *model.Document) error {
	if err := t.putJSON(documentKey(doc.ID), doc); err != nil {
		return err
	}
	return t.txn.Set([]byte(documentProjectKey(doc.ProjectID, doc.ID)), []byte(doc.ID))
}

// GetDocument loads a document by id
func (t *Tx) GetDocument(documentID string) (*model.Document, error) {
	var doc model.Document
	if err := t.getJSON(documentKey(documentID), &doc); err != nil {
		if stderrors.Is(err, badger.ErrKeyNotFound) {
			return nil, errors.NewDocumentNotFound(documentID)
		}
		return nil, errors.NewStoreFailed("get document", err)
	}
	return &doc, nil
}

// DocumentsByProject lists all documents registered with a project
func (t *Tx) DocumentsByProject(projectID string) ([]*model.Document, error) {
	var docs []*model.Document
	err := t.scanPrefix(fmt.Sprintf("docidx:%s:", projectID), func(val []byte) error {
		doc, err := t.GetDocument(string(val))
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// PutDocument stores a document in its own transaction
func (s *Store) PutDocument(doc *model.Document) error {
	return s.Update(func(tx *Tx) error {
		return tx.PutDocument(doc)
	})
}

// GetDocument loads a document in its own transaction
func (s *Store) GetDocument(documentID string) (*model.Document, error) {
	var doc *model.Document
	err := s.View(func(tx *Tx) error {
		var inner error
		doc, inner = tx.GetDocument(documentID)
		return inner
	})
	return doc, err
}

// DocumentsByProject lists project documents in its own transaction
func (s *Store) DocumentsByProject(projectID string) ([]*model.Document, error) {
	var docs []*model.Document
	err := s.View(func(tx *Tx) error {
		var inner error
		docs, inner = tx.DocumentsByProject(projectID)
		return inner
	})
	return docs, err
}
