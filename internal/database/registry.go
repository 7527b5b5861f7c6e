package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrUnknownScheme is returned when no driver handles the URL scheme.
var ErrUnknownScheme = errors.New("unsupported database url scheme")

// Registry holds drivers keyed by URL scheme.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// GlobalRegistry carries every driver built into the binary.
var GlobalRegistry = NewRegistry()

//nolint:gochecknoinits // built-in drivers are always available
func init() {
	GlobalRegistry.Register(&mongoDriver{})
	GlobalRegistry.Register(&postgresDriver{})
	GlobalRegistry.Register(&boltDriver{})
	GlobalRegistry.Register(&memoryDriver{})
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		drivers: make(map[string]Driver),
	}
}

// Register adds a driver under each of its schemes, replacing earlier ones.
func (r *Registry) Register(d Driver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, scheme := range d.Schemes() {
		r.drivers[strings.ToLower(scheme)] = d
	}
}

// Lookup returns the driver for scheme.
func (r *Registry) Lookup(scheme string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[strings.ToLower(scheme)]
	return d, ok
}

// Schemes returns all registered schemes, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.drivers))
	for scheme := range r.drivers {
		out = append(out, scheme)
	}
	sort.Strings(out)
	return out
}

// Connect opens the database named by rawURL. It makes exactly one attempt and
// never retries; the caller decides what a failure means.
func (r *Registry) Connect(ctx context.Context, rawURL string, opts Options) (Database, error) {
	scheme, err := schemeOf(rawURL)
	if err != nil {
		return nil, err
	}
	d, ok := r.Lookup(scheme)
	if !ok {
		return nil, fmt.Errorf("%w %q (supported: %s)", ErrUnknownScheme, scheme, strings.Join(r.Schemes(), ", "))
	}

	start := time.Now()
	db, err := d.Open(ctx, rawURL, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}

	opts.Logger.Info().
		Str("driver", d.Name()).
		Dur("took", time.Since(start)).
		Msg("Database connected")

	return db, nil
}

// Connect opens rawURL with the built-in drivers.
func Connect(ctx context.Context, rawURL string, opts Options) (Database, error) {
	return GlobalRegistry.Connect(ctx, rawURL, opts)
}

func schemeOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		// url.Parse echoes the input, which may hold credentials.
		return "", errors.New("malformed database url")
	}
	if u.Scheme == "" {
		return "", fmt.Errorf("%w: database url has no scheme", ErrUnknownScheme)
	}
	return u.Scheme, nil
}
