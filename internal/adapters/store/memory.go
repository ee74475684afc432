package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
)

// MemoryRepository keeps everything in process memory. It backs tests and
// the "memory" backend.
type MemoryRepository struct {
	mu        sync.RWMutex
	documents map[string]Document
	layers    map[string]*layer.Layer
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		documents: make(map[string]Document),
		layers:    make(map[string]*layer.Layer),
	}
}

func (m *MemoryRepository) GetDocument(_ context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.documents[id]
	if !ok {
		return Document{}, core.ErrNotFound("document", id)
	}
	return cloneDocument(doc), nil
}

func (m *MemoryRepository) PutDocument(_ context.Context, doc Document) error {
	if err := ValidateDocumentID(doc.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc.UpdatedAt = time.Now()
	m.documents[doc.ID] = cloneDocument(doc)
	return nil
}

func (m *MemoryRepository) ListDocuments(_ context.Context) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Document, 0, len(m.documents))
	for _, doc := range m.documents {
		out = append(out, cloneDocument(doc))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryRepository) LoadLayer(_ context.Context, scope core.Scope) (*layer.Layer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.layers[scope.Key()].Clone(), nil
}

func (m *MemoryRepository) UpdateLayer(_ context.Context, scope core.Scope, fn func(*layer.Layer) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if scope.Kind() == core.ScopeDocument {
		if _, ok := m.documents[scope.DocumentID]; !ok {
			return core.ErrNotFound("document", scope.DocumentID)
		}
	}

	l := m.layers[scope.Key()].Clone()
	if l == nil {
		l = layer.New(LayerName(scope), "")
	}
	if err := fn(l); err != nil {
		return err
	}
	if l.IsEmpty() {
		delete(m.layers, scope.Key())
	} else {
		m.layers[scope.Key()] = l
	}
	return nil
}

func (m *MemoryRepository) DeleteLayer(_ context.Context, scope core.Scope) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.layers[scope.Key()]
	delete(m.layers, scope.Key())
	return ok, nil
}

func (m *MemoryRepository) Close() error { return nil }

func cloneDocument(doc Document) Document {
	if doc.Features != nil {
		f := *doc.Features
		if f.HasDialogue != nil {
			v := *f.HasDialogue
			f.HasDialogue = &v
		}
		doc.Features = &f
	}
	return doc
}
