package lookup

import (
	"context"
	"fmt"
)

// Placeholder environment used when lookups are disabled and no account or
// region is configured.
const (
	DummyAccount = "123456789012"
	DummyRegion  = "dummy1"
)

// StaticProvider is the offline provider. It reports placeholder zones and
// refuses image lookups, so an offline synth only succeeds for images that
// are already in the context file.
type StaticProvider struct {
	Zones []string
}

// NewStaticProvider returns a StaticProvider with the placeholder zones.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{Zones: []string{"dummy1a", "dummy1b"}}
}

// ResolveImage implements ImageResolver.
func (p *StaticProvider) ResolveImage(_ context.Context, key string) ([]Image, error) {
	return nil, fmt.Errorf("%w: cannot look up image %q", ErrLookupDisabled, key)
}

// AvailabilityZones implements AZProvider.
func (p *StaticProvider) AvailabilityZones(context.Context) ([]string, error) {
	return append([]string(nil), p.Zones...), nil
}
