// Package services orchestrates the cache and the federation backends.
package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cragnet/cragcache/internal/domain/repositories"
	"github.com/cragnet/cragcache/internal/infrastructure/caching"
	"github.com/cragnet/cragcache/internal/infrastructure/caching/interfaces"
	"github.com/cragnet/cragcache/internal/infrastructure/media"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/logging"
	"github.com/cragnet/cragcache/internal/infrastructure/observability/tracing"
)

// Source tells where a result came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceRemote  Source = "remote"
	SourceOffline Source = "offline"
)

// Result is data plus its provenance. Stale is set for offline fallbacks
// served past their TTL.
type Result[T any] struct {
	Data   T      `json:"data"`
	Source Source `json:"source"`
	Stale  bool   `json:"stale"`
}

// ClientProvider hands out the remote client of a backend.
type ClientProvider interface {
	Client(ctx context.Context, backendID string) (repositories.RemoteClient, error)
}

// CacheToggle reports whether the user wants the cache used.
type CacheToggle interface {
	CacheEnabled() bool
}

// BrowseService serves directory reads: cache first, then the backend,
// then whatever the cache still holds when the backend is unreachable.
type BrowseService struct {
	cache    interfaces.Cache
	clients  ClientProvider
	toggle   CacheToggle
	previews *media.PreviewRenderer
	logger   *logging.ChanneledLogger
	tracer   trace.Tracer
}

func NewBrowseService(cache interfaces.Cache, clients ClientProvider, toggle CacheToggle, previews *media.PreviewRenderer, logger *logging.ChanneledLogger) *BrowseService {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &BrowseService{
		cache:    cache,
		clients:  clients,
		toggle:   toggle,
		previews: previews,
		logger:   logger,
		tracer:   tracing.Tracer(),
	}
}

// readPlan binds one category's cache reads, remote fetch and cache write.
type readPlan[T any] struct {
	op        string
	backendID string
	cached    func(context.Context) (T, error)
	offline   func(context.Context) (T, error)
	fetch     func(context.Context, repositories.RemoteClient) (T, error)
	store     func(context.Context, T) error
}

func readThrough[T any](ctx context.Context, s *BrowseService, p readPlan[T]) (_ Result[T], err error) {
	ctx, span := s.tracer.Start(ctx, "browse."+p.op, trace.WithAttributes(
		attribute.String("cragcache.backend_id", p.backendID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if s.toggle != nil && !s.toggle.CacheEnabled() {
		data, err := fetchRemote(ctx, s, p)
		if err != nil {
			return Result[T]{}, err
		}
		span.SetAttributes(attribute.String("cragcache.source", string(SourceRemote)))
		return Result[T]{Data: data, Source: SourceRemote}, nil
	}

	data, err := p.cached(ctx)
	if err == nil {
		span.SetAttributes(attribute.String("cragcache.source", string(SourceCache)))
		return Result[T]{Data: data, Source: SourceCache}, nil
	}
	if !errors.Is(err, caching.ErrNoValidCache) {
		s.logger.Cache().Warn("Cache read failed, falling back to backend", "op", p.op, "backendId", p.backendID, "error", err.Error())
	}

	data, remoteErr := fetchRemote(ctx, s, p)
	if remoteErr == nil {
		if err := p.store(ctx, data); err != nil {
			s.logger.Cache().Error("Failed to cache backend data", "op", p.op, "backendId", p.backendID, "error", err.Error())
		}
		span.SetAttributes(attribute.String("cragcache.source", string(SourceRemote)))
		return Result[T]{Data: data, Source: SourceRemote}, nil
	}

	data, err = p.offline(ctx)
	if err != nil {
		if !errors.Is(err, caching.ErrNeverCached) {
			s.logger.Cache().Warn("Offline cache read failed", "op", p.op, "backendId", p.backendID, "error", err.Error())
		}
		return Result[T]{}, remoteErr
	}
	s.logger.Federation().Info("Serving offline copy", "op", p.op, "backendId", p.backendID, "error", remoteErr.Error())
	span.SetAttributes(attribute.String("cragcache.source", string(SourceOffline)))
	return Result[T]{Data: data, Source: SourceOffline, Stale: true}, nil
}

func fetchRemote[T any](ctx context.Context, s *BrowseService, p readPlan[T]) (T, error) {
	var zero T
	client, err := s.clients.Client(ctx, p.backendID)
	if err != nil {
		return zero, err
	}
	return p.fetch(ctx, client)
}
