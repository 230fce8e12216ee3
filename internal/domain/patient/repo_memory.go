package patient

import (
	"context"
	"sync"
)

// MemoryStore keeps the document in process memory. Load and Save copy, so
// callers never share a map with the store. The mutex guards the store's
// own map only; a load-modify-save sequence is still last writer wins.
type MemoryStore struct {
	mu  sync.RWMutex
	doc Document
}

func NewMemoryStore(seed Document) *MemoryStore {
	return &MemoryStore{doc: copyDocument(seed)}
}

func (s *MemoryStore) Load(_ context.Context) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyDocument(s.doc), nil
}

func (s *MemoryStore) Save(_ context.Context, doc Document) error {
	doc = copyDocument(doc)
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	return nil
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for id, p := range doc {
		out[id] = p.Stored()
	}
	return out
}
