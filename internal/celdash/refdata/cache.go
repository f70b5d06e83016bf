package refdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/celdash/internal/celdash/core"
	"github.com/autopeer-io/celdash/internal/celdash/core/model"
	"github.com/autopeer-io/celdash/pkg/log"
)

// CelDiagnosticNames are the diagnostic names that mark a check engine light fault.
// Matching is case-insensitive and exact.
var CelDiagnosticNames = []string{
	"Vehicle warning light is on",
	"Low priority warning light is on",
}

// IsCelName reports whether a diagnostic name is one of CelDiagnosticNames.
func IsCelName(name string) bool {
	lower := strings.ToLower(name)
	for _, n := range CelDiagnosticNames {
		if lower == strings.ToLower(n) {
			return true
		}
	}
	return false
}

// Cache holds the diagnostic and failure mode dictionaries of one database.
// It is loaded once and read-only afterwards.
type Cache struct {
	loadMu sync.Mutex

	mu           sync.RWMutex
	loaded       bool
	diagnostics  map[string]model.Diagnostic
	failureModes map[string]model.FailureMode
	celIDs       map[string]struct{}
}

// NewCache returns an empty, unloaded cache.
func NewCache() *Cache {
	return &Cache{
		diagnostics:  map[string]model.Diagnostic{},
		failureModes: map[string]model.FailureMode{},
		celIDs:       map[string]struct{}{},
	}
}

// Load fetches both dictionaries concurrently. Once a load has succeeded
// further calls return immediately without touching src.
func (c *Cache) Load(ctx context.Context, src core.ReferenceSource, limit int) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	if c.Loaded() {
		return nil
	}

	var (
		diags []model.Diagnostic
		modes []model.FailureMode
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		diags, err = src.Diagnostics(gctx, limit)
		return err
	})
	g.Go(func() error {
		var err error
		modes, err = src.FailureModes(gctx, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load reference data: %w", err)
	}

	diagnostics := make(map[string]model.Diagnostic, len(diags))
	celIDs := map[string]struct{}{}
	for _, d := range diags {
		diagnostics[d.ID] = d
		if IsCelName(d.Name) {
			celIDs[d.ID] = struct{}{}
		}
	}

	failureModes := make(map[string]model.FailureMode, len(modes))
	for _, fm := range modes {
		failureModes[fm.ID] = fm
	}

	c.mu.Lock()
	c.diagnostics = diagnostics
	c.failureModes = failureModes
	c.celIDs = celIDs
	c.loaded = true
	c.mu.Unlock()

	log.Info("Reference data loaded", "diagnostics", len(diagnostics), "failureModes", len(failureModes), "celDiagnostics", len(celIDs))
	return nil
}

// Loaded reports whether a Load has completed successfully.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// CelDiagnosticIDs returns the ids of the CEL-class diagnostics in sorted order.
func (c *Cache) CelDiagnosticIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, len(c.celIDs))
	for id := range c.celIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsCel reports whether the fault references a CEL-class diagnostic.
func (c *Cache) IsCel(f model.FaultRecord) bool {
	if f.Diagnostic == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.celIDs[f.Diagnostic.ID]
	return ok
}

// Diagnostic returns the cached diagnostic with the given id.
func (c *Cache) Diagnostic(id string) (model.Diagnostic, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.diagnostics[id]
	return d, ok
}

// FailureMode returns the cached failure mode with the given id.
func (c *Cache) FailureMode(id string) (model.FailureMode, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fm, ok := c.failureModes[id]
	return fm, ok
}
