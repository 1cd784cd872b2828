package topology

import (
	"context"
	"encoding/binary"
	"fmt"
	"net/netip"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/intrinsics"
	"github.com/lex00/wetwire-albwaf-go/resources/ec2"
)

// maxSubnetBits is the smallest subnet EC2 accepts (/28).
const maxSubnetBits = 28

// SubnetRole is the routing role of a subnet group.
type SubnetRole string

// Subnet roles.
const (
	RolePublic  SubnetRole = "public"
	RolePrivate SubnetRole = "private"
)

// NetworkOptions configures BuildNetwork.
type NetworkOptions struct {
	// CIDR is the VPC range. Defaults to 10.0.0.0/16.
	CIDR string
	// MaxAZs is the number of zones to span. Defaults to 2.
	MaxAZs int
	// NATGateways is the NAT gateway count. Defaults to 1.
	NATGateways int
}

func (o NetworkOptions) withDefaults() NetworkOptions {
	if o.CIDR == "" {
		o.CIDR = "10.0.0.0/16"
	}
	if o.MaxAZs == 0 {
		o.MaxAZs = 2
	}
	if o.NATGateways == 0 {
		o.NATGateways = 1
	}
	return o
}

// Subnet is one subnet of the network.
type Subnet struct {
	LogicalID string
	Role      SubnetRole
	Zone      string
	CIDR      netip.Prefix
}

// Ref returns a reference to the subnet id.
func (s Subnet) Ref() intrinsics.Ref {
	return intrinsics.RefTo(s.LogicalID)
}

// SubnetGroup is the set of subnets sharing a role, one per zone.
type SubnetGroup struct {
	Name    string
	Role    SubnetRole
	Subnets []Subnet
}

// Network is the VPC declaration: public and private subnets per zone, an
// internet gateway and one NAT gateway.
type Network struct {
	id          string
	cidr        netip.Prefix
	zones       []string
	groups      []SubnetGroup
	natGateways int
	natSubnet   string
	resources   []albwaf.DeclaredResource
}

// ID implements Declaration.
func (n *Network) ID() string {
	if n == nil {
		return ""
	}
	return n.id
}

// Kind implements Declaration.
func (n *Network) Kind() Kind { return KindNetwork }

// DependsOn implements Declaration.
func (n *Network) DependsOn() []string { return nil }

// Resources implements Declaration.
func (n *Network) Resources() []albwaf.DeclaredResource { return n.resources }

// CIDR returns the VPC range.
func (n *Network) CIDR() netip.Prefix { return n.cidr }

// Zones returns the zones the network spans.
func (n *Network) Zones() []string { return append([]string(nil), n.zones...) }

// SubnetGroups returns the subnet groups, public first.
func (n *Network) SubnetGroups() []SubnetGroup { return n.groups }

// PublicSubnets returns the subnets of the public group.
func (n *Network) PublicSubnets() []Subnet { return n.subnets(RolePublic) }

// PrivateSubnets returns the subnets of the private group.
func (n *Network) PrivateSubnets() []Subnet { return n.subnets(RolePrivate) }

// NATGateways returns the number of NAT gateways.
func (n *Network) NATGateways() int { return n.natGateways }

// NATSubnet returns the logical ID of the subnet hosting the NAT gateway.
func (n *Network) NATSubnet() string { return n.natSubnet }

// Ref returns a reference to the VPC id.
func (n *Network) Ref() intrinsics.Ref { return intrinsics.RefTo(n.id) }

// HasPrivateSubnet reports whether logicalID is one of the private subnets.
func (n *Network) HasPrivateSubnet(logicalID string) bool {
	for _, s := range n.PrivateSubnets() {
		if s.LogicalID == logicalID {
			return true
		}
	}
	return false
}

func (n *Network) subnets(role SubnetRole) []Subnet {
	for _, g := range n.groups {
		if g.Role == role {
			return g.Subnets
		}
	}
	return nil
}

// BuildNetwork declares the VPC. Zones come from the assembler's zone
// provider; the first MaxAZs are used.
func (a *Assembler) BuildNetwork(ctx context.Context, opts NetworkOptions) (*Network, error) {
	opts = opts.withDefaults()

	prefix, err := netip.ParsePrefix(opts.CIDR)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSubnetAllocation, err)
	}
	if !prefix.Addr().Is4() {
		return nil, fmt.Errorf("%w: %s is not an IPv4 range", ErrSubnetAllocation, opts.CIDR)
	}
	prefix = prefix.Masked()

	zones, err := a.zones.AvailabilityZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing availability zones: %w", err)
	}
	if opts.MaxAZs < 1 {
		return nil, fmt.Errorf("%w: max AZs %d", ErrSubnetAllocation, opts.MaxAZs)
	}
	if len(zones) > opts.MaxAZs {
		zones = zones[:opts.MaxAZs]
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("%w: no availability zones", ErrSubnetAllocation)
	}

	if opts.NATGateways != 1 {
		return nil, fmt.Errorf("%w: %d NAT gateways requested, want exactly 1", ErrNATAllocation, opts.NATGateways)
	}
	if opts.NATGateways > len(zones) {
		return nil, fmt.Errorf("%w: %d NAT gateways for %d public subnets", ErrNATAllocation, opts.NATGateways, len(zones))
	}

	roles := []SubnetRole{RolePublic, RolePrivate}
	ranges, err := allocateSubnets(prefix, len(roles)*len(zones))
	if err != nil {
		return nil, err
	}

	n := &Network{
		id:          NetworkID,
		cidr:        prefix,
		zones:       zones,
		natGateways: opts.NATGateways,
	}
	for gi, role := range roles {
		group := SubnetGroup{Name: string(role), Role: role}
		for zi, zone := range zones {
			group.Subnets = append(group.Subnets, Subnet{
				LogicalID: fmt.Sprintf("%s%sSubnet%d", n.id, titleRole(role), zi+1),
				Role:      role,
				Zone:      zone,
				CIDR:      ranges[gi*len(zones)+zi],
			})
		}
		n.groups = append(n.groups, group)
	}
	n.natSubnet = n.PublicSubnets()[0].LogicalID
	n.resources = ownedBy(n.id, n.declare())

	a.logger.Debug("declared network",
		"cidr", prefix.String(),
		"zones", zones,
		"public", len(n.PublicSubnets()),
		"private", len(n.PrivateSubnets()),
	)
	return n, nil
}

func (n *Network) declare() []albwaf.DeclaredResource {
	id := n.id
	igw := id + "IGW"
	attachment := id + "VPCGW"
	publicRT := id + "PublicRouteTable"
	privateRT := id + "PrivateRouteTable"
	publicRoute := id + "PublicDefaultRoute"
	privateRoute := id + "PrivateDefaultRoute"
	eip := n.natSubnet + "EIP"
	nat := n.natSubnet + "NATGateway"

	out := []albwaf.DeclaredResource{
		{LogicalID: id, Resource: ec2.VPC{
			CidrBlock:          n.cidr.String(),
			EnableDnsHostnames: true,
			EnableDnsSupport:   true,
			InstanceTenancy:    "default",
			Tags:               []any{intrinsics.NameTag(id)},
		}},
		{LogicalID: igw, Resource: ec2.InternetGateway{
			Tags: []any{intrinsics.NameTag(id)},
		}},
		{LogicalID: attachment, Resource: ec2.VPCGatewayAttachment{
			VpcId:             n.Ref(),
			InternetGatewayId: intrinsics.RefTo(igw),
		}},
		{LogicalID: publicRT, Resource: ec2.RouteTable{
			VpcId: n.Ref(),
			Tags:  []any{intrinsics.NameTag(id + "/public")},
		}},
		{LogicalID: publicRoute, Resource: ec2.Route{
			RouteTableId:         intrinsics.RefTo(publicRT),
			DestinationCidrBlock: "0.0.0.0/0",
			GatewayId:            intrinsics.RefTo(igw),
		}, DependsOn: []string{attachment}},
		{LogicalID: privateRT, Resource: ec2.RouteTable{
			VpcId: n.Ref(),
			Tags:  []any{intrinsics.NameTag(id + "/private")},
		}},
	}

	for _, g := range n.groups {
		table := publicRT
		if g.Role == RolePrivate {
			table = privateRT
		}
		for _, s := range g.Subnets {
			out = append(out,
				albwaf.DeclaredResource{LogicalID: s.LogicalID, Resource: ec2.Subnet{
					VpcId:               n.Ref(),
					CidrBlock:           s.CIDR.String(),
					AvailabilityZone:    s.Zone,
					MapPublicIpOnLaunch: g.Role == RolePublic,
					Tags: []any{
						intrinsics.Tag{Key: "wetwire:subnet-name", Value: g.Name},
						intrinsics.Tag{Key: "wetwire:subnet-type", Value: titleRole(g.Role)},
						intrinsics.NameTag(s.LogicalID),
					},
				}},
				albwaf.DeclaredResource{LogicalID: s.LogicalID + "RouteTableAssociation", Resource: ec2.SubnetRouteTableAssociation{
					SubnetId:     s.Ref(),
					RouteTableId: intrinsics.RefTo(table),
				}},
			)
		}
	}

	out = append(out,
		albwaf.DeclaredResource{LogicalID: eip, Resource: ec2.EIP{
			Domain: "vpc",
			Tags:   []any{intrinsics.NameTag(n.natSubnet)},
		}},
		albwaf.DeclaredResource{LogicalID: nat, Resource: ec2.NatGateway{
			AllocationId: intrinsics.GetAtt{LogicalName: eip, Attribute: "AllocationId"},
			SubnetId:     intrinsics.RefTo(n.natSubnet),
			Tags:         []any{intrinsics.NameTag(n.natSubnet)},
		}, DependsOn: []string{publicRoute, n.natSubnet + "RouteTableAssociation"}},
		albwaf.DeclaredResource{LogicalID: privateRoute, Resource: ec2.Route{
			RouteTableId:         intrinsics.RefTo(privateRT),
			DestinationCidrBlock: "0.0.0.0/0",
			NatGatewayId:         intrinsics.RefTo(nat),
		}},
	)

	return out
}

// allocateSubnets splits prefix into count equal ranges, rounding count up
// to a power of two.
func allocateSubnets(prefix netip.Prefix, count int) ([]netip.Prefix, error) {
	bits := 0
	for 1<<bits < count {
		bits++
	}

	length := prefix.Bits() + bits
	if length > maxSubnetBits {
		return nil, fmt.Errorf("%w: %s cannot hold %d subnets", ErrSubnetAllocation, prefix, count)
	}

	addr := prefix.Addr().As4()
	base := binary.BigEndian.Uint32(addr[:])
	size := uint32(1) << (32 - length)

	out := make([]netip.Prefix, count)
	for i := range out {
		var next [4]byte
		binary.BigEndian.PutUint32(next[:], base+uint32(i)*size)
		out[i] = netip.PrefixFrom(netip.AddrFrom4(next), length)
	}
	return out, nil
}

func titleRole(role SubnetRole) string {
	switch role {
	case RolePublic:
		return "Public"
	case RolePrivate:
		return "Private"
	}
	return string(role)
}
