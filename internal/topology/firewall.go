package topology

import (
	"fmt"
	"sort"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/resources/wafv2"
)

// ManagedRuleGroup is one vendor managed rule group statement.
type ManagedRuleGroup struct {
	Vendor   string
	Name     string
	Priority int
	// InspectionLevel is only used by the bot control group.
	InspectionLevel string
}

// RuleName is the name of the rule wrapping the group.
func (g ManagedRuleGroup) RuleName() string {
	return g.Vendor + "-" + g.Name
}

// DefaultManagedRuleGroups returns the six AWS managed rule groups with
// priorities 0 to 5.
func DefaultManagedRuleGroups() []ManagedRuleGroup {
	return []ManagedRuleGroup{
		{Vendor: "AWS", Name: "AWSManagedRulesBotControlRuleSet", Priority: 0, InspectionLevel: "COMMON"},
		{Vendor: "AWS", Name: "AWSManagedRulesAmazonIpReputationList", Priority: 1},
		{Vendor: "AWS", Name: "AWSManagedRulesAnonymousIpList", Priority: 2},
		{Vendor: "AWS", Name: "AWSManagedRulesCommonRuleSet", Priority: 3},
		{Vendor: "AWS", Name: "AWSManagedRulesKnownBadInputsRuleSet", Priority: 4},
		{Vendor: "AWS", Name: "AWSManagedRulesSQLiRuleSet", Priority: 5},
	}
}

// FirewallPolicy is the regional web ACL. Requests no rule blocks are
// allowed; rules are evaluated lowest priority first.
type FirewallPolicy struct {
	id         string
	scope      string
	metricName string
	rules      []ManagedRuleGroup
	resources  []albwaf.DeclaredResource
}

// ID implements Declaration.
func (p *FirewallPolicy) ID() string {
	if p == nil {
		return ""
	}
	return p.id
}

// Kind implements Declaration.
func (p *FirewallPolicy) Kind() Kind { return KindFirewallPolicy }

// DependsOn implements Declaration.
func (p *FirewallPolicy) DependsOn() []string { return nil }

// Resources implements Declaration.
func (p *FirewallPolicy) Resources() []albwaf.DeclaredResource { return p.resources }

// Scope returns the web ACL scope.
func (p *FirewallPolicy) Scope() string { return p.scope }

// DefaultAction returns the action for unmatched requests.
func (p *FirewallPolicy) DefaultAction() string { return "allow" }

// Rules returns the rule groups in evaluation order.
func (p *FirewallPolicy) Rules() []ManagedRuleGroup {
	return append([]ManagedRuleGroup(nil), p.rules...)
}

// Arn returns a reference to the web ACL ARN.
func (p *FirewallPolicy) Arn() albwaf.AttrRef {
	return albwaf.AttrRef{Resource: p.id, Attribute: "Arn"}
}

// BuildFirewallPolicy declares the web ACL. A nil rules list uses
// DefaultManagedRuleGroups.
func (a *Assembler) BuildFirewallPolicy(rules []ManagedRuleGroup) (*FirewallPolicy, error) {
	if rules == nil {
		rules = DefaultManagedRuleGroups()
	}

	priorities := make(map[int]string, len(rules))
	names := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.Vendor == "" || r.Name == "" {
			return nil, fmt.Errorf("%w: rule group at priority %d has no vendor or name", ErrInvalidRule, r.Priority)
		}
		if other, ok := priorities[r.Priority]; ok {
			return nil, fmt.Errorf("%w: %d used by %s and %s", ErrDuplicatePriority, r.Priority, other, r.RuleName())
		}
		if names[r.RuleName()] {
			return nil, fmt.Errorf("%w: %s declared twice", ErrInvalidRule, r.RuleName())
		}
		priorities[r.Priority] = r.RuleName()
		names[r.RuleName()] = true
	}

	ordered := append([]ManagedRuleGroup(nil), rules...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	p := &FirewallPolicy{
		id:         FirewallPolicyID,
		scope:      "REGIONAL",
		metricName: FirewallPolicyID,
		rules:      ordered,
	}

	statements := make([]any, 0, len(ordered))
	for _, r := range ordered {
		statements = append(statements, ruleStatement(r))
	}

	p.resources = ownedBy(p.id, []albwaf.DeclaredResource{
		{LogicalID: p.id, Resource: wafv2.WebACL{
			DefaultAction: &wafv2.WebACL_DefaultAction{Allow: &wafv2.WebACL_AllowAction{}},
			Rules:         statements,
			Scope:         p.scope,
			VisibilityConfig: &wafv2.WebACL_VisibilityConfig{
				CloudWatchMetricsEnabled: true,
				MetricName:               p.metricName,
				SampledRequestsEnabled:   true,
			},
		}},
	})

	a.logger.Debug("declared firewall policy", "scope", p.scope, "rules", len(ordered))
	return p, nil
}

func ruleStatement(r ManagedRuleGroup) wafv2.WebACL_Rule {
	statement := &wafv2.WebACL_ManagedRuleGroupStatement{
		Name:       r.Name,
		VendorName: r.Vendor,
	}
	if r.InspectionLevel != "" {
		statement.ManagedRuleGroupConfigs = []any{wafv2.WebACL_ManagedRuleGroupConfig{
			AWSManagedRulesBotControlRuleSet: &wafv2.WebACL_AWSManagedRulesBotControlRuleSet{
				InspectionLevel: r.InspectionLevel,
			},
		}}
	}

	return wafv2.WebACL_Rule{
		Name:           r.RuleName(),
		OverrideAction: &wafv2.WebACL_OverrideAction{None: &wafv2.WebACL_NoneAction{}},
		Priority:       r.Priority,
		Statement:      &wafv2.WebACL_Statement{ManagedRuleGroupStatement: statement},
		VisibilityConfig: &wafv2.WebACL_VisibilityConfig{
			CloudWatchMetricsEnabled: true,
			MetricName:               r.RuleName(),
			SampledRequestsEnabled:   true,
		},
	}
}

// FirewallBinding associates the policy with the resource it protects.
type FirewallBinding struct {
	id        string
	policy    string
	protected string
	resources []albwaf.DeclaredResource
}

// ID implements Declaration.
func (b *FirewallBinding) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Kind implements Declaration.
func (b *FirewallBinding) Kind() Kind { return KindFirewallBinding }

// DependsOn implements Declaration.
func (b *FirewallBinding) DependsOn() []string { return []string{b.protected, b.policy} }

// Resources implements Declaration.
func (b *FirewallBinding) Resources() []albwaf.DeclaredResource { return b.resources }

// PolicyID returns the ID of the bound policy.
func (b *FirewallBinding) PolicyID() string { return b.policy }

// ProtectedID returns the ID of the protected resource.
func (b *FirewallBinding) ProtectedID() string { return b.protected }

// BindFirewall associates policy with protected. A resource can be bound to
// one policy per assembly.
func (a *Assembler) BindFirewall(policy *FirewallPolicy, protected Protectable) (*FirewallBinding, error) {
	if !resolved(policy) {
		return nil, fmt.Errorf("firewall binding: %w: policy", ErrUnresolvedReference)
	}
	if !resolved(protected) {
		return nil, fmt.Errorf("firewall binding: %w: protected resource", ErrUnresolvedReference)
	}
	if bound, ok := a.protected[protected.ID()]; ok {
		return nil, fmt.Errorf("%w: %s is bound to %s", ErrAlreadyProtected, protected.ID(), bound)
	}

	b := &FirewallBinding{
		id:        FirewallBindingID,
		policy:    policy.ID(),
		protected: protected.ID(),
	}
	b.resources = ownedBy(b.id, []albwaf.DeclaredResource{
		{LogicalID: b.id, Resource: wafv2.WebACLAssociation{
			ResourceArn: protected.ResourceArn(),
			WebACLArn:   policy.Arn(),
		}},
	})

	a.protected[protected.ID()] = policy.ID()
	a.logger.Debug("bound firewall", "policy", policy.ID(), "protected", protected.ID())
	return b, nil
}
