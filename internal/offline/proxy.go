package offline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const (
	DefaultCacheName = "discover-udupi-v1"
	OfflinePage      = "/offline.html"
)

// StaticAssets are cached on Install.
var StaticAssets = []string{
	"/",
	"/offline.html",
	"/manifest.json",
	"/icon-192x192.png",
	"/icon-512x512.png",
}

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="300" height="200" viewBox="0 0 300 200"><rect width="300" height="200" fill="#f0f0f0"/><text x="150" y="100" text-anchor="middle" fill="#999">Image unavailable offline</text></svg>`

var ErrUnavailable = errors.New("asset unavailable offline")

type Mode int

const (
	ModeOther Mode = iota
	ModeNavigate
	ModeImage
)

type Proxy struct {
	name   string
	cache  Cache
	origin Fetcher
	log    *zap.Logger
}

func NewProxy(name string, cache Cache, origin Fetcher, log *zap.Logger) *Proxy {
	if name == "" {
		name = DefaultCacheName
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Proxy{name: name, cache: cache, origin: origin, log: log}
}

// Install fetches every static asset and stores them. Nothing is stored
// unless all of them could be fetched.
func (p *Proxy) Install(ctx context.Context) error {
	entries := make([]Entry, len(StaticAssets))
	for i, path := range StaticAssets {
		e, err := p.origin.Fetch(ctx, path)
		if err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
		if e.Status != http.StatusOK {
			return fmt.Errorf("precache %s: status %d", path, e.Status)
		}
		entries[i] = e
	}
	for i, path := range StaticAssets {
		if err := p.cache.Put(ctx, p.name, path, entries[i]); err != nil {
			return fmt.Errorf("precache %s: %w", path, err)
		}
	}
	p.log.Info("static assets cached", zap.String("cache", p.name), zap.Int("count", len(StaticAssets)))
	return nil
}

// Activate deletes every cache other than the current one and returns the
// names it deleted.
func (p *Proxy) Activate(ctx context.Context) ([]string, error) {
	names, err := p.cache.Names(ctx)
	if err != nil {
		return nil, err
	}
	var dropped []string
	for _, n := range names {
		if n == p.name {
			continue
		}
		if err := p.cache.Drop(ctx, n); err != nil {
			return dropped, fmt.Errorf("drop cache %s: %w", n, err)
		}
		p.log.Info("deleted old cache", zap.String("cache", n))
		dropped = append(dropped, n)
	}
	return dropped, nil
}

// Serve answers a request for path:
//   - navigations go to the network first, then the cache, then the offline page
//   - images come from the cache first, then the network, then a placeholder
//   - everything else comes from the cache, or the network when not cached
func (p *Proxy) Serve(ctx context.Context, path string, mode Mode) (Entry, error) {
	switch mode {
	case ModeNavigate:
		return p.networkFirst(ctx, path)
	case ModeImage:
		return p.imageCacheFirst(ctx, path), nil
	default:
		if e, ok := p.lookup(ctx, path); ok {
			return e, nil
		}
		e, err := p.origin.Fetch(ctx, path)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return e, nil
	}
}

func (p *Proxy) networkFirst(ctx context.Context, path string) (Entry, error) {
	e, err := p.origin.Fetch(ctx, path)
	if err == nil {
		p.store(ctx, path, e)
		return e, nil
	}
	p.log.Debug("origin unreachable, serving from cache", zap.String("path", path), zap.Error(err))
	if cached, ok := p.lookup(ctx, path); ok {
		return cached, nil
	}
	if page, ok := p.lookup(ctx, OfflinePage); ok {
		return page, nil
	}
	return Entry{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func (p *Proxy) imageCacheFirst(ctx context.Context, path string) Entry {
	if e, ok := p.lookup(ctx, path); ok {
		return e
	}
	e, err := p.origin.Fetch(ctx, path)
	if err != nil {
		return Entry{Status: http.StatusOK, ContentType: "image/svg+xml", Body: []byte(placeholderSVG)}
	}
	p.store(ctx, path, e)
	return e
}

func (p *Proxy) lookup(ctx context.Context, path string) (Entry, bool) {
	e, err := p.cache.Get(ctx, p.name, path)
	if err != nil {
		if !errors.Is(err, errMiss) {
			p.log.Warn("offline cache read failed", zap.String("path", path), zap.Error(err))
		}
		return Entry{}, false
	}
	return e, true
}

func (p *Proxy) store(ctx context.Context, path string, e Entry) {
	if err := p.cache.Put(ctx, p.name, path, e); err != nil {
		p.log.Warn("offline cache write failed", zap.String("path", path), zap.Error(err))
	}
}
