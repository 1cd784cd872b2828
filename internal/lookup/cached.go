package lookup

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// CachedProvider answers lookups from a context file, falling back to a live
// provider and recording what it returns.
type CachedProvider struct {
	env    Environment
	live   Provider
	file   *ContextFile
	record bool
	logger *slog.Logger
}

// NewCachedProvider returns a provider that serves lookups for env from file
// and asks live on a miss. Answers from a StaticProvider are not recorded.
func NewCachedProvider(env Environment, live Provider, file *ContextFile, logger *slog.Logger) *CachedProvider {
	if logger == nil {
		logger = slog.Default()
	}
	_, offline := live.(*StaticProvider)

	return &CachedProvider{
		env:    env,
		live:   live,
		file:   file,
		record: live != nil && !offline,
		logger: logger,
	}
}

// Environment returns the environment lookups are keyed by.
func (p *CachedProvider) Environment() Environment { return p.env }

// ResolveImage implements ImageResolver.
func (p *CachedProvider) ResolveImage(ctx context.Context, key string) ([]Image, error) {
	ck := ImageKey(p.env, key)

	var images []Image
	found, err := p.file.Get(ck, &images)
	if err != nil {
		return nil, err
	}
	if found {
		p.logger.Debug("image lookup served from context", "key", ck, "matches", len(images))
		return images, nil
	}

	if p.live == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingContext, ck)
	}

	images, err = p.live.ResolveImage(ctx, key)
	if err != nil {
		return nil, err
	}

	// Empty answers are not recorded.
	if p.record && len(images) > 0 {
		if err := p.file.Set(ck, images); err != nil {
			return nil, err
		}
		p.logger.Info("recorded image lookup", "key", ck, "matches", len(images))
	}
	return images, nil
}

// AvailabilityZones implements AZProvider.
func (p *CachedProvider) AvailabilityZones(ctx context.Context) ([]string, error) {
	ck := AZKey(p.env)

	var zones []string
	found, err := p.file.Get(ck, &zones)
	if err != nil {
		return nil, err
	}
	if found {
		return zones, nil
	}

	if p.live == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingContext, ck)
	}

	zones, err = p.live.AvailabilityZones(ctx)
	if err != nil {
		return nil, err
	}

	if p.record && len(zones) > 0 {
		if err := p.file.Set(ck, zones); err != nil {
			return nil, err
		}
		p.logger.Info("recorded availability zones", "key", ck, "zones", zones)
	}
	return zones, nil
}

// Warm performs the zone lookup and every image lookup concurrently and
// saves the context file. It stops at the first error.
func (p *CachedProvider) Warm(ctx context.Context, imageKeys ...string) error {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	g.Go(func() error {
		_, err := p.AvailabilityZones(gCtx)
		return err
	})
	for _, key := range imageKeys {
		g.Go(func() error {
			_, err := p.ResolveImage(gCtx, key)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return p.file.Save()
}
