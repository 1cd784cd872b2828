package topology

import (
	"fmt"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/intrinsics"
	"github.com/lex00/wetwire-albwaf-go/resources/elasticloadbalancingv2"
)

// TargetGroup is the health-checked group the listener forwards to.
type TargetGroup struct {
	id              string
	network         string
	instance        string
	port            int
	protocol        string
	targetType      string
	healthCheckPath string
	resources       []albwaf.DeclaredResource
}

// ID implements Declaration.
func (g *TargetGroup) ID() string {
	if g == nil {
		return ""
	}
	return g.id
}

// Kind implements Declaration.
func (g *TargetGroup) Kind() Kind { return KindTargetGroup }

// DependsOn implements Declaration.
func (g *TargetGroup) DependsOn() []string { return []string{g.network, g.instance} }

// Resources implements Declaration.
func (g *TargetGroup) Resources() []albwaf.DeclaredResource { return g.resources }

// Port returns the target port.
func (g *TargetGroup) Port() int { return g.port }

// Protocol returns the target protocol.
func (g *TargetGroup) Protocol() string { return g.protocol }

// TargetType returns the target type.
func (g *TargetGroup) TargetType() string { return g.targetType }

// HealthCheckPath returns the health check path.
func (g *TargetGroup) HealthCheckPath() string { return g.healthCheckPath }

// Targets returns the IDs of the registered targets.
func (g *TargetGroup) Targets() []string { return []string{g.instance} }

// LoadBalancer is the internet-facing application load balancer and its
// single listener.
type LoadBalancer struct {
	id          string
	network     string
	rules       string
	instance    string
	listenPort  int
	subnets     []Subnet
	targetGroup *TargetGroup
	resources   []albwaf.DeclaredResource
}

// ID implements Declaration.
func (lb *LoadBalancer) ID() string {
	if lb == nil {
		return ""
	}
	return lb.id
}

// Kind implements Declaration.
func (lb *LoadBalancer) Kind() Kind { return KindLoadBalancer }

// DependsOn implements Declaration.
func (lb *LoadBalancer) DependsOn() []string {
	return []string{lb.network, lb.rules, lb.instance, lb.targetGroup.ID()}
}

// Resources implements Declaration.
func (lb *LoadBalancer) Resources() []albwaf.DeclaredResource { return lb.resources }

// ResourceArn implements Protectable. Ref on a load balancer yields its ARN.
func (lb *LoadBalancer) ResourceArn() any { return intrinsics.RefTo(lb.id) }

// DNSName returns a reference to the load balancer's DNS name.
func (lb *LoadBalancer) DNSName() intrinsics.GetAtt {
	return intrinsics.GetAtt{LogicalName: lb.id, Attribute: "DNSName"}
}

// ListenerPort returns the port of the single listener.
func (lb *LoadBalancer) ListenerPort() int { return lb.listenPort }

// Subnets returns the public subnets the load balancer spans.
func (lb *LoadBalancer) Subnets() []Subnet { return append([]Subnet(nil), lb.subnets...) }

// TargetGroup returns the target group the listener forwards to.
func (lb *LoadBalancer) TargetGroup() *TargetGroup { return lb.targetGroup }

// BuildLoadBalancer declares the load balancer over the public subnets of
// network, with one HTTP listener forwarding to a target group that holds
// instance.
func (a *Assembler) BuildLoadBalancer(network *Network, rules *AccessRuleSet, instance *ComputeInstance) (*LoadBalancer, error) {
	switch {
	case !resolved(network):
		return nil, fmt.Errorf("load balancer: %w: network", ErrUnresolvedReference)
	case !resolved(rules):
		return nil, fmt.Errorf("load balancer: %w: access rules", ErrUnresolvedReference)
	case !resolved(instance):
		return nil, fmt.Errorf("load balancer: %w: instance", ErrUnresolvedReference)
	}

	if a.appPort < 1 || a.appPort > 65535 {
		return nil, fmt.Errorf("load balancer: %w: %d", ErrInvalidPort, a.appPort)
	}

	public := network.PublicSubnets()
	zones := make(map[string]bool, len(public))
	for _, s := range public {
		zones[s.Zone] = true
	}
	if len(zones) < 2 {
		return nil, fmt.Errorf("load balancer: %w: public subnets span %d zones, want at least 2", ErrAZPlacement, len(zones))
	}
	if instance.NetworkID() != network.ID() || !network.HasPrivateSubnet(instance.Subnet().LogicalID) {
		return nil, fmt.Errorf("load balancer: %w: target %s is not in a private subnet of %s",
			ErrAZPlacement, instance.ID(), network.ID())
	}

	tg := &TargetGroup{
		id:              TargetGroupID,
		network:         network.ID(),
		instance:        instance.ID(),
		port:            a.appPort,
		protocol:        "HTTP",
		targetType:      "instance",
		healthCheckPath: a.healthCheckPath,
	}
	tg.resources = ownedBy(tg.id, []albwaf.DeclaredResource{
		{LogicalID: tg.id, Resource: elasticloadbalancingv2.TargetGroup{
			HealthCheckEnabled: true,
			HealthCheckPath:    tg.healthCheckPath,
			Port:               tg.port,
			Protocol:           tg.protocol,
			TargetGroupAttributes: []any{elasticloadbalancingv2.TargetGroup_TargetGroupAttribute{
				Key:   "stickiness.enabled",
				Value: "false",
			}},
			TargetType: tg.targetType,
			Targets: []any{elasticloadbalancingv2.TargetGroup_TargetDescription{
				Id:   instance.Ref(),
				Port: tg.port,
			}},
			VpcId: network.Ref(),
		}},
	})

	lb := &LoadBalancer{
		id:          LoadBalancerID,
		network:     network.ID(),
		rules:       rules.ID(),
		instance:    instance.ID(),
		listenPort:  a.appPort,
		subnets:     public,
		targetGroup: tg,
	}

	subnetRefs := make([]any, 0, len(public))
	for _, s := range public {
		subnetRefs = append(subnetRefs, s.Ref())
	}

	lb.resources = ownedBy(lb.id, []albwaf.DeclaredResource{
		{LogicalID: lb.id, Resource: elasticloadbalancingv2.LoadBalancer{
			LoadBalancerAttributes: []any{
				elasticloadbalancingv2.LoadBalancer_LoadBalancerAttribute{
					Key:   "deletion_protection.enabled",
					Value: "false",
				},
				elasticloadbalancingv2.LoadBalancer_LoadBalancerAttribute{
					Key:   "routing.http.drop_invalid_header_fields.enabled",
					Value: "true",
				},
			},
			Scheme:         "internet-facing",
			SecurityGroups: []any{rules.GroupID()},
			Subnets:        subnetRefs,
			Type:           "application",
		}, DependsOn: []string{network.ID() + "PublicDefaultRoute"}},
		{LogicalID: lb.id + "Listener", Resource: elasticloadbalancingv2.Listener{
			DefaultActions: []any{elasticloadbalancingv2.Listener_Action{
				TargetGroupArn: intrinsics.RefTo(tg.id),
				Type:           "forward",
			}},
			LoadBalancerArn: intrinsics.RefTo(lb.id),
			Port:            lb.listenPort,
			Protocol:        "HTTP",
		}},
	})

	a.logger.Debug("declared load balancer",
		"subnets", len(public),
		"port", lb.listenPort,
		"target", instance.ID(),
	)
	return lb, nil
}
