package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
	"github.com/boddenberg/comissoes-bfa/internal/port"
)

// Resource names, used as cache key prefixes and source labels.
const (
	ResourceSales        = "sales"
	ResourceClients      = "clients"
	ResourceDevelopments = "developments"
)

// Snapshot is the last fetched state of one collection. A snapshot with
// Err set, or not Loaded, contributes no items.
type Snapshot[T any] struct {
	Items     []T
	Loaded    bool
	Err       error
	FetchedAt time.Time
}

// Usable returns the items, or nil when the fetch failed.
func (s Snapshot[T]) Usable() []T {
	if !s.Loaded || s.Err != nil {
		return nil
	}
	return s.Items
}

func (s Snapshot[T]) Status() domain.SourceStatus {
	st := domain.SourceStatus{Loaded: s.Loaded && s.Err == nil, Count: len(s.Usable())}
	if s.Err != nil {
		st.Error = s.Err.Error()
	}
	if !s.FetchedAt.IsZero() {
		st.FetchedAt = s.FetchedAt.UTC().Format(time.RFC3339)
	}
	return st
}

// Snapshots groups the collections the commission view is built from.
type Snapshots struct {
	Sales        Snapshot[domain.Sale]
	Clients      Snapshot[domain.Client]
	Developments Snapshot[domain.Development]
}

// EntityStores loads and caches collection snapshots per scope (the
// actor the upstream answered for).
//
// Each resource carries a generation bumped by Invalidate. A fetch is only
// cached when the generation it started under is still current, and
// concurrent loads of the same key within a generation share one fetch.
type EntityStores struct {
	sales        port.SaleStore
	clients      port.ClientStore
	developments port.DevelopmentStore
	cache        port.Cache[any]
	metrics      *observability.Metrics
	logger       *zap.Logger

	group singleflight.Group
	mu    sync.Mutex
	gens  map[string]uint64
}

func NewEntityStores(
	sales port.SaleStore,
	clients port.ClientStore,
	developments port.DevelopmentStore,
	cache port.Cache[any],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *EntityStores {
	return &EntityStores{
		sales:        sales,
		clients:      clients,
		developments: developments,
		cache:        cache,
		metrics:      metrics,
		logger:       logger,
		gens:         make(map[string]uint64),
	}
}

// Load fetches the three collections concurrently. A failing fetch never
// cancels the others; its snapshot just carries the error.
func (e *EntityStores) Load(ctx context.Context, scope string) Snapshots {
	var (
		snaps Snapshots
		g     errgroup.Group
	)

	g.Go(func() error {
		snaps.Sales = loadSnapshot(ctx, e, ResourceSales, scope, e.sales.ListSales)
		return nil
	})
	g.Go(func() error {
		snaps.Clients = loadSnapshot(ctx, e, ResourceClients, scope, e.clients.ListClients)
		return nil
	})
	g.Go(func() error {
		snaps.Developments = loadSnapshot(ctx, e, ResourceDevelopments, scope, e.developments.ListDevelopments)
		return nil
	})
	_ = g.Wait()

	return snaps
}

// Invalidate drops every cached snapshot of resource, for all scopes.
// Fetches already in flight will not repopulate the cache.
func (e *EntityStores) Invalidate(resource string) {
	e.mu.Lock()
	e.gens[resource]++
	e.cache.DeletePrefix(resource + ":")
	e.mu.Unlock()
}

func (e *EntityStores) generation(resource string) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gens[resource]
}

// storeIfCurrent caches value unless resource was invalidated after gen.
func (e *EntityStores) storeIfCurrent(resource, key string, gen uint64, value any) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gens[resource] != gen {
		return false
	}
	e.cache.Set(key, value)
	return true
}

func loadSnapshot[T any](ctx context.Context, e *EntityStores, resource, scope string, fetch func(context.Context) ([]T, error)) Snapshot[T] {
	cacheKey := resource + ":" + scope
	if cached, ok := e.cache.Get(cacheKey); ok {
		if snap, ok := cached.(Snapshot[T]); ok {
			e.metrics.IncrCacheHit(resource)
			return snap
		}
	}
	e.metrics.IncrCacheMiss(resource)

	gen := e.generation(resource)
	v, _, _ := e.group.Do(cacheKey+"#"+strconv.FormatUint(gen, 10), func() (any, error) {
		items, err := fetch(ctx)
		if err != nil {
			e.logger.Warn("snapshot fetch failed",
				zap.String("resource", resource),
				zap.String("scope", scope),
				zap.Error(err),
			)
			return Snapshot[T]{Err: err, FetchedAt: time.Now()}, nil
		}

		snap := Snapshot[T]{Items: items, Loaded: true, FetchedAt: time.Now()}
		if !e.storeIfCurrent(resource, cacheKey, gen, snap) {
			e.logger.Debug("snapshot invalidated during fetch, not cached",
				zap.String("resource", resource),
				zap.String("scope", scope),
			)
		}
		return snap, nil
	})
	return v.(Snapshot[T])
}
