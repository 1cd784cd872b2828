package topology

import (
	"sort"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/internal/template"
)

// Edge is a dependency between declarations: From depends on To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Binding is an edge that attaches one declaration to another: a security
// group membership, a web ACL association or a logging configuration.
type Binding struct {
	Source string `json:"source"`
	Target string `json:"target"`
	// Via is the declaration (or relationship) that carries the binding.
	Via string `json:"via"`
}

// Plan is the assembled topology.
type Plan struct {
	declarations []Declaration
	byID         map[string]Declaration
	bindings     []Binding

	Network        *Network
	AccessRules    *AccessRuleSet
	Instance       *ComputeInstance
	TargetGroup    *TargetGroup
	LoadBalancer   *LoadBalancer
	FirewallPolicy *FirewallPolicy
	Firewall       *FirewallBinding
	LogSink        *LogSink
	Logging        *LoggingBinding
}

func newPlan(
	network *Network,
	rules *AccessRuleSet,
	instance *ComputeInstance,
	lb *LoadBalancer,
	policy *FirewallPolicy,
	firewall *FirewallBinding,
	sink *LogSink,
	logging *LoggingBinding,
) *Plan {
	p := &Plan{
		Network:        network,
		AccessRules:    rules,
		Instance:       instance,
		TargetGroup:    lb.TargetGroup(),
		LoadBalancer:   lb,
		FirewallPolicy: policy,
		Firewall:       firewall,
		LogSink:        sink,
		Logging:        logging,
	}

	p.declarations = []Declaration{
		network, rules, instance, lb.TargetGroup(), lb, policy, firewall, sink, logging,
	}
	p.byID = make(map[string]Declaration, len(p.declarations))
	for _, d := range p.declarations {
		p.byID[d.ID()] = d
	}

	p.bindings = []Binding{
		{Source: rules.ID(), Target: instance.ID(), Via: "membership"},
		{Source: rules.ID(), Target: lb.ID(), Via: "membership"},
		{Source: policy.ID(), Target: firewall.ProtectedID(), Via: firewall.ID()},
		{Source: policy.ID(), Target: logging.SinkID(), Via: logging.ID()},
	}
	return p
}

// Declarations returns the declarations in assembly order.
func (p *Plan) Declarations() []Declaration {
	return append([]Declaration(nil), p.declarations...)
}

// Lookup returns the declaration with the given ID.
func (p *Plan) Lookup(id string) (Declaration, bool) {
	d, ok := p.byID[id]
	return d, ok
}

// Bindings returns the binding edges.
func (p *Plan) Bindings() []Binding {
	return append([]Binding(nil), p.bindings...)
}

// Edges returns every dependency edge, sorted.
func (p *Plan) Edges() []Edge {
	var edges []Edge
	for _, d := range p.declarations {
		for _, dep := range d.DependsOn() {
			edges = append(edges, Edge{From: d.ID(), To: dep})
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	return edges
}

// Resources returns every CloudFormation resource, grouped by declaration.
func (p *Plan) Resources() []albwaf.DeclaredResource {
	var out []albwaf.DeclaredResource
	for _, d := range p.declarations {
		out = append(out, d.Resources()...)
	}
	return out
}

// Outputs returns the stack outputs.
func (p *Plan) Outputs() map[string]albwaf.Output {
	return map[string]albwaf.Output{
		"LoadBalancerDNS": {
			Description: "DNS name of the load balancer",
			Value:       p.LoadBalancer.DNSName(),
		},
		"WebACLArn": {
			Description: "ARN of the web ACL",
			Value:       p.FirewallPolicy.Arn(),
		},
		"LogGroupName": {
			Description: "Log group receiving WAF logs",
			Value:       p.LogSink.Ref(),
		},
	}
}

// Template synthesises the plan into a CloudFormation template.
func (p *Plan) Template(description string) (*albwaf.Template, error) {
	builder := template.NewBuilder(description)
	if err := builder.AddAll(p.Resources()); err != nil {
		return nil, err
	}
	for name, output := range p.Outputs() {
		builder.AddOutput(name, output)
	}
	return builder.Build()
}
