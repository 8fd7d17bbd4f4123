package geoxml

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

// refresher reloads onInterval network links until the parser is closed.
type refresher struct {
	p *Parser

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	links   map[refreshKey]bool
	stopped bool
	wg      sync.WaitGroup
}

type refreshKey struct {
	set  *DocumentSet
	href string
}

func newRefresher(p *Parser) *refresher {
	ctx, cancel := context.WithCancel(context.Background())
	return &refresher{
		p:      p,
		ctx:    ctx,
		cancel: cancel,
		links:  make(map[refreshKey]bool),
	}
}

// schedule starts reloading l.Href into set every l.RefreshInterval
// seconds. A link already scheduled for the set is ignored.
func (r *refresher) schedule(set *DocumentSet, l *NetworkLink) {
	key := refreshKey{set: set, href: l.Href}
	interval := time.Duration(l.RefreshInterval * float64(time.Second))
	if interval <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.links[key] {
		return
	}
	r.links[key] = true
	r.p.log.Debug("Scheduling network link refresh",
		zap.String("href", l.Href), zap.Duration("interval", interval))

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-r.ctx.Done():
				return
			case <-t.C:
			}
			err := r.p.ParseInto(r.ctx, set, key.href)
			switch {
			case err == nil:
			case errors.Is(err, ErrClosed), errors.Is(err, context.Canceled):
				return
			default:
				r.p.log.Warn("Network link refresh failed",
					zap.String("href", key.href), zap.Error(err))
			}
		}
	}()
}

// scheduled returns the number of active refresh loops.
func (r *refresher) scheduled() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.links)
}

func (r *refresher) stop() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.cancel()
	r.wg.Wait()
}
