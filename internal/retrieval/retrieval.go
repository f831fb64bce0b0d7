// Package retrieval fetches financial statements from named sources.
// It defines a common Source interface and a registry that routes requests
// by source name. The default source scrapes SEC EDGAR; a fixture source
// reads JSON statement bundles from disk for offline runs and tests.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/seenimoa/filinglens/pkg/models"
)

// Source is the contract every statement source implements.
type Source interface {
	// Name returns the source's registry name, e.g. "edgar".
	Name() string

	// Statements returns the three statement tables of the most recent
	// filing of the given form.
	Statements(ctx context.Context, ticker string, form models.FormType) (*models.FilingStatements, error)

	// StatementsHistory returns the statements of up to n recent filings
	// of the given form, newest first. Fewer than n filings is not an
	// error; zero filings is ErrNoFilings.
	StatementsHistory(ctx context.Context, ticker string, form models.FormType, n int) ([]*models.FilingStatements, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker cannot be resolved by a source.
var ErrTickerNotFound = fmt.Errorf("ticker not found")

// ErrNoFilings is returned when a ticker resolved but has no filings of the
// requested form.
var ErrNoFilings = fmt.Errorf("no filings of the requested form")

// ErrRateLimited is returned when a source rate-limits the request.
var ErrRateLimited = fmt.Errorf("rate limited by data source")

// ErrSourceNotFound is returned when a requested source is not registered.
type ErrSourceNotFound struct {
	Name string
}

func (e *ErrSourceNotFound) Error() string {
	return fmt.Sprintf("retrieval source %q not found", e.Name)
}

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Registry is a thread-safe registry of named statement sources.
// The first source registered becomes the default until SetDefault
// names another.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
	def     string
}

// NewRegistry creates a new empty source registry.
func NewRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

// Register adds a source to the registry. Duplicate registrations overwrite
// the previous entry.
func (r *Registry) Register(s Source) error {
	name := s.Name()
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sources[name] = s
	if r.def == "" {
		r.def = name
	}
	return nil
}

// Get returns a source by name, or an error if not registered.
func (r *Registry) Get(name string) (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[name]
	if !ok {
		return nil, &ErrSourceNotFound{Name: name}
	}
	return s, nil
}

// Default returns the default source.
func (r *Registry) Default() (Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[r.def]
	if !ok {
		return nil, &ErrSourceNotFound{Name: r.def}
	}
	return s, nil
}

// SetDefault names the source returned by Default. The source must already
// be registered.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[name]; !ok {
		return &ErrSourceNotFound{Name: name}
	}
	r.def = name
	return nil
}

// Names returns the registered source names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.sources))
	for name := range r.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
