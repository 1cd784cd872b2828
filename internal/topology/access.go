package topology

import (
	"fmt"
	"net/netip"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/intrinsics"
	"github.com/lex00/wetwire-albwaf-go/resources/ec2"
)

// AnyIPv4 is the source range that matches every IPv4 address.
const AnyIPv4 = "0.0.0.0/0"

// IngressRule allows inbound traffic on one port.
type IngressRule struct {
	Protocol string
	Port     int
	Source   string
}

// Description is the rule description written to the security group.
func (r IngressRule) Description() string {
	return fmt.Sprintf("from %s:%d", r.Source, r.Port)
}

// DefaultIngressRules returns the admin and application rules, both open to
// any IPv4 source.
func DefaultIngressRules(adminPort, appPort int) []IngressRule {
	return []IngressRule{
		{Protocol: "tcp", Port: adminPort, Source: AnyIPv4},
		{Protocol: "tcp", Port: appPort, Source: AnyIPv4},
	}
}

// AccessRuleSet is the security group shared by the instance and the load
// balancer. Rules are only ever added; all outbound traffic is allowed.
type AccessRuleSet struct {
	id        string
	network   string
	name      string
	rules     []IngressRule
	resources []albwaf.DeclaredResource
}

// ID implements Declaration.
func (s *AccessRuleSet) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Kind implements Declaration.
func (s *AccessRuleSet) Kind() Kind { return KindAccessRuleSet }

// DependsOn implements Declaration.
func (s *AccessRuleSet) DependsOn() []string { return []string{s.network} }

// Resources implements Declaration.
func (s *AccessRuleSet) Resources() []albwaf.DeclaredResource { return s.resources }

// Name returns the security group name.
func (s *AccessRuleSet) Name() string { return s.name }

// IngressRules returns the ingress rules in the order they were added.
func (s *AccessRuleSet) IngressRules() []IngressRule {
	return append([]IngressRule(nil), s.rules...)
}

// AllowsAllOutbound reports whether all egress is allowed. Always true.
func (s *AccessRuleSet) AllowsAllOutbound() bool { return true }

// GroupID returns a reference to the security group id.
func (s *AccessRuleSet) GroupID() intrinsics.GetAtt {
	return intrinsics.GetAtt{LogicalName: s.id, Attribute: "GroupId"}
}

// BuildAccessRules declares the security group in network with the given
// ingress rules. Duplicate rules are added once.
func (a *Assembler) BuildAccessRules(network *Network, rules []IngressRule) (*AccessRuleSet, error) {
	if !resolved(network) {
		return nil, fmt.Errorf("access rules: %w: network", ErrUnresolvedReference)
	}

	set := &AccessRuleSet{
		id:      AccessRuleSetID,
		network: network.ID(),
		name:    "ALB-SG",
	}

	seen := make(map[IngressRule]bool, len(rules))
	ipv6 := make(map[IngressRule]bool, len(rules))
	for _, rule := range rules {
		if rule.Protocol == "" {
			rule.Protocol = "tcp"
		}
		if rule.Port < 1 || rule.Port > 65535 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPort, rule.Port)
		}
		prefix, err := netip.ParsePrefix(rule.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSource, rule.Source)
		}
		if seen[rule] {
			continue
		}
		seen[rule] = true
		ipv6[rule] = prefix.Addr().Is6()
		set.rules = append(set.rules, rule)
	}

	ingress := make([]any, 0, len(set.rules))
	for _, rule := range set.rules {
		entry := ec2.SecurityGroup_Ingress{
			Description: rule.Description(),
			FromPort:    rule.Port,
			IpProtocol:  rule.Protocol,
			ToPort:      rule.Port,
		}
		// CidrIp only takes IPv4 ranges.
		if ipv6[rule] {
			entry.CidrIpv6 = rule.Source
		} else {
			entry.CidrIp = rule.Source
		}
		ingress = append(ingress, entry)
	}

	set.resources = ownedBy(set.id, []albwaf.DeclaredResource{
		{LogicalID: set.id, Resource: ec2.SecurityGroup{
			GroupDescription:     "security group for ALB",
			GroupName:            set.name,
			SecurityGroupIngress: ingress,
			SecurityGroupEgress: []any{ec2.SecurityGroup_Egress{
				CidrIp:      AnyIPv4,
				Description: "Allow all outbound traffic by default",
				IpProtocol:  "-1",
			}},
			VpcId: network.Ref(),
		}},
	})

	a.logger.Debug("declared access rules", "group", set.name, "ingress", len(set.rules))
	return set, nil
}
