// Package wafv2 provides the AWS::WAFv2 resource types used by the topology.
//
// Required booleans and priorities are typed any: the serializer drops zero
// values, and Priority 0 or a disabled metric flag must still be emitted.
package wafv2

// WebACL represents AWS::WAFv2::WebACL.
type WebACL struct {
	Name             any                      `json:"Name,omitempty"`
	Scope            any                      `json:"Scope,omitempty"`
	Description      any                      `json:"Description,omitempty"`
	DefaultAction    *WebACL_DefaultAction    `json:"DefaultAction,omitempty"`
	Rules            []any                    `json:"Rules,omitempty"`
	VisibilityConfig *WebACL_VisibilityConfig `json:"VisibilityConfig,omitempty"`
	Tags             []any                    `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r WebACL) ResourceType() string { return "AWS::WAFv2::WebACL" }

// WebACL_DefaultAction is the action for requests no rule matched.
// Exactly one of Allow or Block is set.
type WebACL_DefaultAction struct {
	Allow *WebACL_AllowAction `json:"Allow,omitempty"`
	Block *WebACL_BlockAction `json:"Block,omitempty"`
}

// WebACL_AllowAction allows the request.
type WebACL_AllowAction struct {
	CustomRequestHandling any `json:"CustomRequestHandling,omitempty"`
}

// WebACL_BlockAction blocks the request.
type WebACL_BlockAction struct {
	CustomResponse any `json:"CustomResponse,omitempty"`
}

// WebACL_Rule is one rule of a web ACL.
type WebACL_Rule struct {
	Name             any                      `json:"Name,omitempty"`
	Priority         any                      `json:"Priority,omitempty"`
	Statement        *WebACL_Statement        `json:"Statement,omitempty"`
	OverrideAction   *WebACL_OverrideAction   `json:"OverrideAction,omitempty"`
	VisibilityConfig *WebACL_VisibilityConfig `json:"VisibilityConfig,omitempty"`
}

// WebACL_Statement is the match statement of a rule.
type WebACL_Statement struct {
	ManagedRuleGroupStatement *WebACL_ManagedRuleGroupStatement `json:"ManagedRuleGroupStatement,omitempty"`
}

// WebACL_ManagedRuleGroupStatement references a vendor managed rule group.
type WebACL_ManagedRuleGroupStatement struct {
	VendorName              any   `json:"VendorName,omitempty"`
	Name                    any   `json:"Name,omitempty"`
	Version                 any   `json:"Version,omitempty"`
	ManagedRuleGroupConfigs []any `json:"ManagedRuleGroupConfigs,omitempty"`
}

// WebACL_ManagedRuleGroupConfig carries rule-group specific settings.
type WebACL_ManagedRuleGroupConfig struct {
	AWSManagedRulesBotControlRuleSet *WebACL_AWSManagedRulesBotControlRuleSet `json:"AWSManagedRulesBotControlRuleSet,omitempty"`
}

// WebACL_AWSManagedRulesBotControlRuleSet configures the bot control group.
type WebACL_AWSManagedRulesBotControlRuleSet struct {
	InspectionLevel any `json:"InspectionLevel,omitempty"`
}

// WebACL_OverrideAction overrides the actions of a rule group.
// None keeps the group's own actions.
type WebACL_OverrideAction struct {
	None  *WebACL_NoneAction  `json:"None,omitempty"`
	Count *WebACL_CountAction `json:"Count,omitempty"`
}

// WebACL_NoneAction is the empty "none" override.
type WebACL_NoneAction struct{}

// WebACL_CountAction counts matches instead of acting on them.
type WebACL_CountAction struct {
	CustomRequestHandling any `json:"CustomRequestHandling,omitempty"`
}

// WebACL_VisibilityConfig controls sampling and CloudWatch metrics.
type WebACL_VisibilityConfig struct {
	SampledRequestsEnabled   any `json:"SampledRequestsEnabled,omitempty"`
	CloudWatchMetricsEnabled any `json:"CloudWatchMetricsEnabled,omitempty"`
	MetricName               any `json:"MetricName,omitempty"`
}

// WebACLAssociation represents AWS::WAFv2::WebACLAssociation.
type WebACLAssociation struct {
	ResourceArn any `json:"ResourceArn,omitempty"`
	WebACLArn   any `json:"WebACLArn,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r WebACLAssociation) ResourceType() string { return "AWS::WAFv2::WebACLAssociation" }

// LoggingConfiguration represents AWS::WAFv2::LoggingConfiguration.
type LoggingConfiguration struct {
	ResourceArn           any   `json:"ResourceArn,omitempty"`
	LogDestinationConfigs []any `json:"LogDestinationConfigs,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r LoggingConfiguration) ResourceType() string {
	return "AWS::WAFv2::LoggingConfiguration"
}
