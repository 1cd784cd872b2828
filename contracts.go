// Package albwaf provides the shared types for the wetwire-albwaf topology.
//
// The topology is a WAF-protected, internet-facing application load balancer
// in front of a single EC2 instance, declared in Go and synthesised into a
// CloudFormation template:
//
//	plan, err := topology.New(resolver, zones).Assemble(ctx, topology.Params{
//	    ImageName: "nginx-server",
//	})
//
// Resources reference each other through identity links (Ref / Fn::GetAtt
// on logical IDs) which are resolved when the plan is built, not when the
// stack is applied.
package albwaf

import (
	"encoding/json"
)

// Resource represents a CloudFormation resource.
// All resource types under resources/ (ec2.VPC, wafv2.WebACL, etc.) implement this interface.
type Resource interface {
	// ResourceType returns the CloudFormation type (e.g., "AWS::EC2::VPC")
	ResourceType() string
}

// AttrRef represents a GetAtt reference to a resource attribute.
//
// Example:
//
//	wafv2.WebACLAssociation{
//	    WebACLArn: AttrRef{Resource: "WAF", Attribute: "Arn"},
//	}
//
// When serialized to CloudFormation JSON, AttrRef becomes:
//
//	{"Fn::GetAtt": ["WAF", "Arn"]}
type AttrRef struct {
	// Resource is the logical name of the referenced resource
	Resource string
	// Attribute is the attribute name (e.g., "Arn", "DNSName")
	Attribute string
}

// MarshalJSON serializes AttrRef to CloudFormation GetAtt syntax.
func (a AttrRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string][]string{
		"Fn::GetAtt": {a.Resource, a.Attribute},
	})
}

// IsZero returns true if the AttrRef has not been populated.
func (a AttrRef) IsZero() bool {
	return a.Resource == "" && a.Attribute == ""
}

// Removal policies applied as DeletionPolicy / UpdateReplacePolicy.
const (
	RemovalDestroy = "Delete"
	RemovalRetain  = "Retain"
)

// DeclaredResource is a single CloudFormation resource emitted by a
// topology declaration.
type DeclaredResource struct {
	// LogicalID becomes the CloudFormation logical ID
	LogicalID string
	// Owner is the ID of the declaration that emitted the resource
	Owner string
	// Resource holds the typed properties
	Resource Resource
	// DependsOn lists logical IDs that must exist first but are not
	// referenced from the properties
	DependsOn []string
	// RemovalPolicy is RemovalDestroy, RemovalRetain or empty
	RemovalPolicy string
}

// Template represents a CloudFormation template.
type Template struct {
	AWSTemplateFormatVersion string                 `json:"AWSTemplateFormatVersion" yaml:"AWSTemplateFormatVersion"`
	Description              string                 `json:"Description,omitempty" yaml:"Description,omitempty"`
	Resources                map[string]ResourceDef `json:"Resources" yaml:"Resources"`
	Outputs                  map[string]Output      `json:"Outputs,omitempty" yaml:"Outputs,omitempty"`
}

// ResourceDef is a single resource in the CloudFormation template.
type ResourceDef struct {
	Type                string         `json:"Type" yaml:"Type"`
	Properties          map[string]any `json:"Properties,omitempty" yaml:"Properties,omitempty"`
	DependsOn           []string       `json:"DependsOn,omitempty" yaml:"DependsOn,omitempty"`
	DeletionPolicy      string         `json:"DeletionPolicy,omitempty" yaml:"DeletionPolicy,omitempty"`
	UpdateReplacePolicy string         `json:"UpdateReplacePolicy,omitempty" yaml:"UpdateReplacePolicy,omitempty"`
	Metadata            map[string]any `json:"Metadata,omitempty" yaml:"Metadata,omitempty"`
}

// Output is a CloudFormation template output.
type Output struct {
	Description string `json:"Description,omitempty" yaml:"Description,omitempty"`
	Value       any    `json:"Value" yaml:"Value"`
	Export      *struct {
		Name string `json:"Name" yaml:"Name"`
	} `json:"Export,omitempty" yaml:"Export,omitempty"`
}

// BuildResult is the JSON output from `wetwire-albwaf synth`.
type BuildResult struct {
	Success   bool     `json:"success"`
	Template  Template `json:"template,omitempty"`
	Resources []string `json:"resources,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ValidateResult is the JSON output from `wetwire-albwaf validate`.
type ValidateResult struct {
	Success      bool     `json:"success"`
	Declarations int      `json:"declarations"`
	Resources    int      `json:"resources"`
	Errors       []string `json:"errors,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

// ListResult is the JSON output from `wetwire-albwaf list`.
type ListResult struct {
	Declarations []ListDeclaration `json:"declarations"`
}

// ListDeclaration is a single declaration in the list output.
type ListDeclaration struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	DependsOn []string `json:"depends_on,omitempty"`
	Resources []string `json:"resources"`
}

// TemplateDiff holds the per-resource differences between two templates.
type TemplateDiff struct {
	Added    []DiffEntry `json:"added,omitempty"`
	Removed  []DiffEntry `json:"removed,omitempty"`
	Modified []DiffEntry `json:"modified,omitempty"`
}

// DiffEntry is a single changed resource.
type DiffEntry struct {
	Resource string   `json:"resource"`
	Type     string   `json:"type"`
	Changes  []string `json:"changes,omitempty"`
}

// DiffSummary counts the changes in a TemplateDiff.
type DiffSummary struct {
	Added    int `json:"added"`
	Removed  int `json:"removed"`
	Modified int `json:"modified"`
	Total    int `json:"total"`
}
