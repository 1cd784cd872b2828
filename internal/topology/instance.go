package topology

import (
	"context"
	"fmt"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/internal/lookup"
	"github.com/lex00/wetwire-albwaf-go/intrinsics"
	"github.com/lex00/wetwire-albwaf-go/resources/ec2"
)

// ComputeInstance is the single EC2 instance behind the load balancer.
type ComputeInstance struct {
	id           string
	network      string
	rules        string
	instanceType string
	imageKey     string
	image        lookup.Image
	subnet       Subnet
	resources    []albwaf.DeclaredResource
}

// ID implements Declaration.
func (c *ComputeInstance) ID() string {
	if c == nil {
		return ""
	}
	return c.id
}

// Kind implements Declaration.
func (c *ComputeInstance) Kind() Kind { return KindComputeInstance }

// DependsOn implements Declaration.
func (c *ComputeInstance) DependsOn() []string { return []string{c.network, c.rules} }

// Resources implements Declaration.
func (c *ComputeInstance) Resources() []albwaf.DeclaredResource { return c.resources }

// InstanceType returns the EC2 instance type.
func (c *ComputeInstance) InstanceType() string { return c.instanceType }

// ImageKey returns the lookup key the image was resolved from.
func (c *ComputeInstance) ImageKey() string { return c.imageKey }

// Image returns the resolved image.
func (c *ComputeInstance) Image() lookup.Image { return c.image }

// Subnet returns the subnet the instance is placed in.
func (c *ComputeInstance) Subnet() Subnet { return c.subnet }

// NetworkID returns the ID of the network the instance is placed in.
func (c *ComputeInstance) NetworkID() string { return c.network }

// SecurityGroups returns the IDs of the access rule sets the instance is a
// member of.
func (c *ComputeInstance) SecurityGroups() []string { return []string{c.rules} }

// Ref returns a reference to the instance id.
func (c *ComputeInstance) Ref() intrinsics.Ref { return intrinsics.RefTo(c.id) }

// BuildInstance declares the instance in the first private subnet of
// network. imageRef must resolve to exactly one image.
func (a *Assembler) BuildInstance(ctx context.Context, network *Network, rules *AccessRuleSet, imageRef string) (*ComputeInstance, error) {
	if !resolved(network) {
		return nil, fmt.Errorf("instance: %w: network", ErrUnresolvedReference)
	}
	if !resolved(rules) {
		return nil, fmt.Errorf("instance: %w: access rules", ErrUnresolvedReference)
	}

	private := network.PrivateSubnets()
	if len(private) == 0 {
		return nil, fmt.Errorf("instance: %w: network has no private subnets", ErrAZPlacement)
	}

	images, err := a.images.ResolveImage(ctx, imageRef)
	if err != nil {
		return nil, &ImageResolutionError{Key: imageRef, Err: err}
	}
	if len(images) != 1 {
		return nil, &ImageResolutionError{Key: imageRef, Matches: len(images)}
	}

	c := &ComputeInstance{
		id:           InstanceID,
		network:      network.ID(),
		rules:        rules.ID(),
		instanceType: a.instanceType,
		imageKey:     imageRef,
		image:        images[0],
		subnet:       private[0],
	}

	c.resources = ownedBy(c.id, []albwaf.DeclaredResource{
		{LogicalID: c.id, Resource: ec2.Instance{
			AvailabilityZone: c.subnet.Zone,
			ImageId:          c.image.ID,
			InstanceType:     c.instanceType,
			SecurityGroupIds: []any{rules.GroupID()},
			SubnetId:         c.subnet.Ref(),
			Tags:             []any{intrinsics.NameTag(c.id)},
		}, DependsOn: []string{network.ID() + "PrivateDefaultRoute"}},
	})

	a.logger.Debug("declared instance",
		"image", c.image.ID,
		"key", imageRef,
		"type", c.instanceType,
		"subnet", c.subnet.LogicalID,
	)
	return c, nil
}
