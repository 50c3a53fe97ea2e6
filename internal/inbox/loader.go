package inbox

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"wayfarer/internal/middleware"
	"wayfarer/internal/models"
	"wayfarer/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// Source is the subset of collab.Backend the loader reads from.
type Source interface {
	ListDirect(ctx context.Context, archived bool) ([]models.DirectConversation, error)
	ListGroups(ctx context.Context, archived bool) ([]models.Group, error)
	ListCommunities(ctx context.Context, archived bool) ([]models.Community, error)
}

// Loader refreshes the merged list for one viewer. A refresh that is
// overtaken by a newer one is discarded when it lands.
type Loader struct {
	src      Source
	viewerID uint
	logger   *slog.Logger

	generation atomic.Uint64

	mu    sync.RWMutex
	items []Item
	tab   Tab
}

// NewLoader builds a Loader. A nil logger uses middleware.Logger.
func NewLoader(src Source, viewerID uint, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = middleware.Logger
	}
	return &Loader{src: src, viewerID: viewerID, logger: logger, tab: TabAll}
}

// Items returns the last list that was current when it arrived.
func (l *Loader) Items() []Item {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Item, len(l.items))
	copy(out, l.items)
	return out
}

// Tab returns the tab of the last current refresh.
func (l *Loader) Tab() Tab {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tab
}

// Refresh fetches the collections tab needs in parallel and merges them.
// Any fetch error empties the list and is logged; it is never returned.
// fresh is false when a newer Refresh started before this one finished, in
// which case the result is dropped and the current list is returned.
func (l *Loader) Refresh(ctx context.Context, tab Tab) (items []Item, fresh bool) {
	ticket := l.generation.Add(1)

	span, ctx := observability.NewSpan(ctx, "inbox.Refresh")
	span.AddAttributes(attribute.String("inbox.tab", string(tab)))
	defer span.End()

	merged, err := l.fetch(ctx, tab)
	if err != nil {
		span.SetError(err)
		observability.InboxRefreshes.WithLabelValues("failed").Inc()
		l.logger.ErrorContext(ctx, "inbox refresh failed",
			slog.String("tab", string(tab)),
			slog.String("error", err.Error()),
		)
		merged = []Item{}
	} else {
		observability.InboxRefreshes.WithLabelValues("ok").Inc()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.generation.Load() != ticket {
		observability.InboxRefreshes.WithLabelValues("stale").Inc()
		out := make([]Item, len(l.items))
		copy(out, l.items)
		return out, false
	}
	l.items = merged
	l.tab = tab
	out := make([]Item, len(merged))
	copy(out, merged)
	return out, true
}

// Reload repeats the last current refresh's tab.
func (l *Loader) Reload(ctx context.Context) ([]Item, bool) {
	return l.Refresh(ctx, l.Tab())
}

func (l *Loader) fetch(ctx context.Context, tab Tab) ([]Item, error) {
	archived := tab.Archived()
	var directs, groups, communities []Item

	g, gctx := errgroup.WithContext(ctx)
	if tab.Includes(models.KindDirect) {
		g.Go(func() error {
			rows, err := l.src.ListDirect(gctx, archived)
			if err != nil {
				return models.NewCollaboratorFailure("list direct conversations", err)
			}
			directs = make([]Item, 0, len(rows))
			for _, dc := range rows {
				directs = append(directs, FromDirect(dc, l.viewerID))
			}
			return nil
		})
	}
	if tab.Includes(models.KindGroup) {
		g.Go(func() error {
			rows, err := l.src.ListGroups(gctx, archived)
			if err != nil {
				return models.NewCollaboratorFailure("list groups", err)
			}
			groups = make([]Item, 0, len(rows))
			for _, gr := range rows {
				groups = append(groups, FromGroup(gr))
			}
			return nil
		})
	}
	if tab.Includes(models.KindCommunity) {
		g.Go(func() error {
			rows, err := l.src.ListCommunities(gctx, archived)
			if err != nil {
				return models.NewCollaboratorFailure("list communities", err)
			}
			communities = make([]Item, 0, len(rows))
			for _, c := range rows {
				communities = append(communities, FromCommunity(c))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := Merge(directs, groups, communities)
	if archived {
		for i := range merged {
			merged[i].IsArchived = true
		}
	}
	return merged, nil
}

// Find looks for key in the active tab for its kind, then in the archived
// tab. The loader is left on the tab where the item was found, so a later
// Reload shows the list the caller acted from.
func (l *Loader) Find(ctx context.Context, key Key) (Item, bool) {
	for _, tab := range []Tab{TabFor(key.Kind), TabArchived} {
		items, _ := l.Refresh(ctx, tab)
		for _, it := range items {
			if it.Key() == key {
				return it, true
			}
		}
	}
	return Item{}, false
}
