package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"blue-railroad-bot/internal/storage"
)

// PageEdit records one write made through a PageStore.
type PageEdit struct {
	Name    string
	Content string
	Summary string
}

// PageStore is an in-memory wiki. It also serves configuration documents.
type PageStore struct {
	mu    sync.RWMutex
	pages map[string]string
	edits []PageEdit
}

// NewPageStore creates an empty in-memory page store.
func NewPageStore() *PageStore {
	return &PageStore{
		pages: make(map[string]string),
	}
}

// Compile-time interface checks.
var (
	_ storage.PageStore    = (*PageStore)(nil)
	_ storage.ConfigSource = (*PageStore)(nil)
)

// ReadPage returns the page content and whether the page exists.
func (s *PageStore) ReadPage(_ context.Context, name string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, ok := s.pages[name]
	return content, ok, nil
}

// WritePage creates or replaces a page.
func (s *PageStore) WritePage(_ context.Context, name, content, summary string) error {
	if name == "" {
		return fmt.Errorf("%w: empty page name", storage.ErrPageWriteFailed)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[name] = content
	s.edits = append(s.edits, PageEdit{Name: name, Content: content, Summary: summary})
	return nil
}

// FetchConfigDocument returns the content of the configuration page.
func (s *PageStore) FetchConfigDocument(ctx context.Context, page string) (string, error) {
	content, ok, _ := s.ReadPage(ctx, page)
	if !ok {
		return "", fmt.Errorf("%w: %s", storage.ErrConfigPageMissing, page)
	}
	return content, nil
}

// Put sets a page without recording an edit.
func (s *PageStore) Put(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[name] = content
}

// Edits returns all writes in order.
func (s *PageStore) Edits() []PageEdit {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]PageEdit, len(s.edits))
	copy(out, s.edits)
	return out
}

// Names returns all page names sorted.
func (s *PageStore) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.pages))
	for name := range s.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
