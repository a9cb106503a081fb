package assistant

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/halverson/concierge-bot/internal/persona"
)

// Registry resolves persona names to live assistant handles, creating
// assistants in the conversation service on first use. Concurrent first-time
// resolutions of the same name collapse into a single creation.
type Registry struct {
	service ConversationService
	catalog *persona.Catalog
	cache   HandleCache
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRegistry(service ConversationService, catalog *persona.Catalog, cache HandleCache, logger *zap.Logger) *Registry {
	return &Registry{
		service: service,
		catalog: catalog,
		cache:   cache,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// nameLock returns the creation lock for a persona name.
func (r *Registry) nameLock(name string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, exists := r.locks[name]
	if !exists {
		lock = &sync.Mutex{}
		r.locks[name] = lock
	}
	return lock
}

// ResolveOrCreate returns the handle for a persona name. A handle already
// known to the external registry is adopted, never duplicated; otherwise the
// persona is provisioned from the catalog. Idempotent per name, including
// under concurrent callers.
func (r *Registry) ResolveOrCreate(ctx context.Context, name string) (*Handle, error) {
	if handle, err := r.cache.GetByName(ctx, name); err != nil {
		r.logger.Warn("Handle cache lookup failed",
			zap.Error(err),
			zap.String("persona", name))
	} else if handle != nil {
		return handle, nil
	}

	lock := r.nameLock(name)
	lock.Lock()
	defer lock.Unlock()

	// Double-check after acquiring the lock: a concurrent caller may have
	// resolved the name while we waited.
	if handle, err := r.cache.GetByName(ctx, name); err == nil && handle != nil {
		return handle, nil
	}

	known, err := r.service.ListAssistants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve persona %q: %w", name, err)
	}

	if id, exists := known[name]; exists {
		handle, err := r.service.RetrieveAssistant(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to adopt existing assistant %q: %w", name, err)
		}
		if err := r.cache.Put(ctx, handle); err != nil {
			r.logger.Warn("Failed to cache assistant handle",
				zap.Error(err),
				zap.String("persona", name))
		}
		return handle, nil
	}

	descriptor := r.catalog.Describe(name)
	handle, err := r.service.CreateAssistant(ctx, descriptor.Name, descriptor.Instructions, descriptor.Tools, descriptor.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant %q: %w", name, err)
	}
	r.logger.Info("Created assistant",
		zap.String("persona", name),
		zap.String("assistant_id", handle.ID),
		zap.Int("tools", len(handle.Tools)))

	if err := r.cache.Put(ctx, handle); err != nil {
		r.logger.Warn("Failed to cache assistant handle",
			zap.Error(err),
			zap.String("persona", name))
	}
	return handle, nil
}

// Get returns the handle for an assistant id, memoized through the cache.
func (r *Registry) Get(ctx context.Context, assistantID string) (*Handle, error) {
	if handle, err := r.cache.GetByID(ctx, assistantID); err != nil {
		r.logger.Warn("Handle cache lookup failed",
			zap.Error(err),
			zap.String("assistant_id", assistantID))
	} else if handle != nil {
		return handle, nil
	}

	handle, err := r.service.RetrieveAssistant(ctx, assistantID)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Put(ctx, handle); err != nil {
		r.logger.Warn("Failed to cache assistant handle",
			zap.Error(err),
			zap.String("assistant_id", assistantID))
	}
	return handle, nil
}

// Update pushes a partial update to the external service and invalidates the
// cached handle so the next resolution observes the new definition.
func (r *Registry) Update(ctx context.Context, name string, update Update) error {
	handle, err := r.ResolveOrCreate(ctx, name)
	if err != nil {
		return err
	}

	if err := r.service.UpdateAssistant(ctx, handle.ID, update); err != nil {
		return fmt.Errorf("failed to update persona %q: %w", name, err)
	}
	if err := r.cache.Invalidate(ctx, name); err != nil {
		r.logger.Warn("Failed to invalidate assistant handle",
			zap.Error(err),
			zap.String("persona", name))
	}
	return nil
}

// SyncPersonas pushes the catalog's current instructions and tools for every
// persona, creating any that are missing. Run at startup.
func (r *Registry) SyncPersonas(ctx context.Context) error {
	for _, name := range r.catalog.Names() {
		descriptor := r.catalog.Describe(name)
		if _, err := r.ResolveOrCreate(ctx, name); err != nil {
			return err
		}
		update := Update{
			Instructions: &descriptor.Instructions,
			Tools:        descriptor.Tools,
		}
		if err := r.Update(ctx, name, update); err != nil {
			return err
		}
		r.logger.Debug("Synced persona", zap.String("persona", name))
	}
	return nil
}
