// Package lookup resolves the values a topology needs from the target
// account before synthesis: machine images and availability zones.
//
// Lookups go through a context file so that a synthesised template is
// reproducible. The first synth against a live account records the answers;
// later runs (and offline runs) replay them.
package lookup

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrMissingContext is returned when an offline lookup has no cached
	// answer in the context file.
	ErrMissingContext = errors.New("missing lookup context")

	// ErrLookupDisabled is returned by providers that cannot reach AWS.
	ErrLookupDisabled = errors.New("lookups are disabled")

	// ErrNoRegion is returned when no region could be determined.
	ErrNoRegion = errors.New("no AWS region configured")
)

// Image is a machine image matched by a lookup.
type Image struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	OwnerID      string `json:"owner_id,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
}

// Environment identifies the account and region lookups run against.
type Environment struct {
	Account string `json:"account"`
	Region  string `json:"region"`
}

// String implements fmt.Stringer.
func (e Environment) String() string {
	return fmt.Sprintf("aws://%s/%s", e.Account, e.Region)
}

// ImageResolver resolves an image lookup key to the images it matches.
// It returns every match; deciding that exactly one is required is up to
// the caller.
type ImageResolver interface {
	ResolveImage(ctx context.Context, key string) ([]Image, error)
}

// AZProvider lists the availability zones of the target region.
type AZProvider interface {
	AvailabilityZones(ctx context.Context) ([]string, error)
}

// Provider is implemented by lookup sources that serve both kinds of lookup.
type Provider interface {
	ImageResolver
	AZProvider
}

// ImageKey returns the context key for an image lookup by name.
func ImageKey(env Environment, name string) string {
	return fmt.Sprintf("ami:account=%s:filters.image-name.0=%s:region=%s", env.Account, name, env.Region)
}

// AZKey returns the context key for the availability zone lookup.
func AZKey(env Environment) string {
	return fmt.Sprintf("availability-zones:account=%s:region=%s", env.Account, env.Region)
}
