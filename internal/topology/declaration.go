// Package topology assembles the declarations of a WAF-protected,
// load-balanced single-instance web topology.
//
// Each declaration is an immutable value that owns a handful of
// CloudFormation resources and refers to its upstream declarations by
// identity (Ref / Fn::GetAtt on logical IDs). The Assembler builds them in
// one pass, leaves first:
//
//	Network → AccessRuleSet → ComputeInstance → TargetGroup → LoadBalancer
//	FirewallPolicy → FirewallBinding(LoadBalancer)
//	LogSink → LoggingBinding(FirewallPolicy)
package topology

import (
	albwaf "github.com/lex00/wetwire-albwaf-go"
)

// Kind names the type of a declaration.
type Kind string

// Declaration kinds.
const (
	KindNetwork         Kind = "Network"
	KindAccessRuleSet   Kind = "AccessRuleSet"
	KindComputeInstance Kind = "ComputeInstance"
	KindTargetGroup     Kind = "TargetGroup"
	KindLoadBalancer    Kind = "LoadBalancer"
	KindFirewallPolicy  Kind = "FirewallPolicy"
	KindFirewallBinding Kind = "FirewallBinding"
	KindLogSink         Kind = "LogSink"
	KindLoggingBinding  Kind = "FirewallLoggingBinding"
)

// Declaration IDs. Owned resources use the ID as logical ID prefix.
const (
	NetworkID         = "Vpc"
	AccessRuleSetID   = "SecurityGroup"
	InstanceID        = "Instance"
	TargetGroupID     = "TargetGroup"
	LoadBalancerID    = "ALB"
	FirewallPolicyID  = "WAF"
	FirewallBindingID = "WebACLAssociation"
	LogSinkID         = "WafLogging"
	LoggingBindingID  = "WAFLoggingConfiguration"
)

// Declaration is one node of the topology.
type Declaration interface {
	// ID is the declaration identity. It is empty for an unresolved
	// declaration.
	ID() string
	// Kind is the declaration type.
	Kind() Kind
	// DependsOn lists the IDs of upstream declarations.
	DependsOn() []string
	// Resources lists the CloudFormation resources the declaration owns.
	Resources() []albwaf.DeclaredResource
}

// Protectable is a declaration a firewall policy can be bound to.
type Protectable interface {
	Declaration
	// ResourceArn is the value that identifies the resource to WAF.
	ResourceArn() any
}

// resolved reports whether d is non-nil and has an identity. Declaration
// methods are nil-safe, so typed nil pointers are handled too.
func resolved(d Declaration) bool {
	return d != nil && d.ID() != ""
}

func ownedBy(owner string, resources []albwaf.DeclaredResource) []albwaf.DeclaredResource {
	out := make([]albwaf.DeclaredResource, len(resources))
	for i, r := range resources {
		r.Owner = owner
		out[i] = r
	}
	return out
}
