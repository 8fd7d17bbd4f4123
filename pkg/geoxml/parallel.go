package geoxml

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// EachOptions controls ParseEach.
type EachOptions struct {
	// Workers bounds the number of batches loaded at once. If 0, the
	// parser's Options.Workers is used.
	Workers int

	// SkipErrors keeps loading after a batch fails. When false the first
	// error cancels the remaining batches.
	SkipErrors bool

	// Progress is called after each batch with the number finished so far.
	Progress func(done, total int)
}

// ParseEach loads independent batches concurrently, one DocumentSet per
// batch. The result is ordered like batches; a batch that failed leaves a
// nil entry and contributes an error.
//
// Example:
//
//	sets, errs := p.ParseEach(ctx, [][]string{
//	    {"roads.kml"},
//	    {"parcels.kmz", "zoning.kml"},
//	}, geoxml.EachOptions{SkipErrors: true})
func (p *Parser) ParseEach(ctx context.Context, batches [][]string, opts EachOptions) ([]*DocumentSet, []error) {
	sets := make([]*DocumentSet, len(batches))
	if len(batches) == 0 {
		return sets, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = p.opts.Workers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu   sync.Mutex
		errs []error
		done int
	)
	for i, urls := range batches {
		i, urls := i, urls
		g.Go(func() error {
			set, err := p.Parse(gctx, urls...)

			mu.Lock()
			done++
			if opts.Progress != nil {
				opts.Progress(done, len(batches))
			}
			if err != nil {
				err = errors.Wrapf(err, "batch %d", i)
				errs = append(errs, err)
			} else {
				sets[i] = set
			}
			mu.Unlock()

			if err != nil && !opts.SkipErrors {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && !opts.SkipErrors {
		return nil, []error{err}
	}
	return sets, errs
}
