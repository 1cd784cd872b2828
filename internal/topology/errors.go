package topology

import (
	"errors"
	"fmt"
)

var (
	// ErrSubnetAllocation is returned when the VPC range cannot hold the
	// requested subnets.
	ErrSubnetAllocation = errors.New("subnet allocation failed")

	// ErrNATAllocation is returned when the NAT gateway count is not exactly
	// one or exceeds the public subnets available to host it.
	ErrNATAllocation = errors.New("NAT gateway allocation failed")

	// ErrInvalidPort is returned for ports outside 1..65535.
	ErrInvalidPort = errors.New("invalid port")

	// ErrInvalidSource is returned for ingress sources that are not CIDR
	// ranges.
	ErrInvalidSource = errors.New("invalid ingress source")

	// ErrUnresolvedReference is returned when a declaration is built on a
	// dependency that has no identity.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrImageResolution matches every *ImageResolutionError.
	ErrImageResolution = errors.New("image resolution failed")

	// ErrAZPlacement is returned when the load balancer cannot span two
	// zones or its target is placed outside the network's private subnets.
	ErrAZPlacement = errors.New("availability zone placement failed")

	// ErrDuplicatePriority is returned when two firewall rules share a
	// priority.
	ErrDuplicatePriority = errors.New("duplicate rule priority")

	// ErrInvalidRule is returned for unnamed or duplicate firewall rules.
	ErrInvalidRule = errors.New("invalid firewall rule")

	// ErrAlreadyProtected is returned when a resource is bound to a second
	// firewall policy.
	ErrAlreadyProtected = errors.New("resource already protected")

	// ErrInvalidLogSinkName is returned for log group names WAF cannot
	// deliver to.
	ErrInvalidLogSinkName = errors.New("invalid log sink name")
)

// ImageResolutionError reports an image lookup that did not match exactly
// one image.
type ImageResolutionError struct {
	// Key is the lookup key.
	Key string
	// Matches is the number of images found. Zero when Err is set.
	Matches int
	// Err is the lookup failure, if the lookup itself failed.
	Err error
}

// Error implements error.
func (e *ImageResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image lookup %q failed: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("image lookup %q matched %d images, want exactly 1", e.Key, e.Matches)
}

// Is reports whether target is ErrImageResolution.
func (e *ImageResolutionError) Is(target error) bool {
	return target == ErrImageResolution
}

// Unwrap returns the underlying lookup error.
func (e *ImageResolutionError) Unwrap() error {
	return e.Err
}
