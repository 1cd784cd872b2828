// Package elasticloadbalancingv2 provides the AWS::ElasticLoadBalancingV2
// resource types used by the topology.
package elasticloadbalancingv2

// LoadBalancer represents AWS::ElasticLoadBalancingV2::LoadBalancer.
type LoadBalancer struct {
	Name                   any   `json:"Name,omitempty"`
	Scheme                 any   `json:"Scheme,omitempty"`
	Type                   any   `json:"Type,omitempty"`
	IpAddressType          any   `json:"IpAddressType,omitempty"`
	Subnets                []any `json:"Subnets,omitempty"`
	SecurityGroups         []any `json:"SecurityGroups,omitempty"`
	LoadBalancerAttributes []any `json:"LoadBalancerAttributes,omitempty"`
	Tags                   []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r LoadBalancer) ResourceType() string {
	return "AWS::ElasticLoadBalancingV2::LoadBalancer"
}

// LoadBalancer_LoadBalancerAttribute is a key/value load balancer attribute.
type LoadBalancer_LoadBalancerAttribute struct {
	Key   any `json:"Key,omitempty"`
	Value any `json:"Value,omitempty"`
}

// TargetGroup represents AWS::ElasticLoadBalancingV2::TargetGroup.
type TargetGroup struct {
	Name                       any   `json:"Name,omitempty"`
	Port                       any   `json:"Port,omitempty"`
	Protocol                   any   `json:"Protocol,omitempty"`
	TargetType                 any   `json:"TargetType,omitempty"`
	VpcId                      any   `json:"VpcId,omitempty"`
	HealthCheckEnabled         any   `json:"HealthCheckEnabled,omitempty"`
	HealthCheckPath            any   `json:"HealthCheckPath,omitempty"`
	HealthCheckPort            any   `json:"HealthCheckPort,omitempty"`
	HealthCheckProtocol        any   `json:"HealthCheckProtocol,omitempty"`
	HealthCheckIntervalSeconds any   `json:"HealthCheckIntervalSeconds,omitempty"`
	Matcher                    any   `json:"Matcher,omitempty"`
	Targets                    []any `json:"Targets,omitempty"`
	TargetGroupAttributes      []any `json:"TargetGroupAttributes,omitempty"`
	Tags                       []any `json:"Tags,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r TargetGroup) ResourceType() string {
	return "AWS::ElasticLoadBalancingV2::TargetGroup"
}

// TargetGroup_TargetDescription identifies one registered target.
type TargetGroup_TargetDescription struct {
	Id               any `json:"Id,omitempty"`
	Port             any `json:"Port,omitempty"`
	AvailabilityZone any `json:"AvailabilityZone,omitempty"`
}

// TargetGroup_Matcher holds the HTTP codes that mark a target healthy.
type TargetGroup_Matcher struct {
	HttpCode any `json:"HttpCode,omitempty"`
}

// TargetGroup_TargetGroupAttribute is a key/value target group attribute.
type TargetGroup_TargetGroupAttribute struct {
	Key   any `json:"Key,omitempty"`
	Value any `json:"Value,omitempty"`
}

// Listener represents AWS::ElasticLoadBalancingV2::Listener.
type Listener struct {
	LoadBalancerArn any   `json:"LoadBalancerArn,omitempty"`
	Port            any   `json:"Port,omitempty"`
	Protocol        any   `json:"Protocol,omitempty"`
	DefaultActions  []any `json:"DefaultActions,omitempty"`
}

// ResourceType returns the CloudFormation resource type.
func (r Listener) ResourceType() string {
	return "AWS::ElasticLoadBalancingV2::Listener"
}

// Listener_Action is a listener default action.
type Listener_Action struct {
	Type           any `json:"Type,omitempty"`
	TargetGroupArn any `json:"TargetGroupArn,omitempty"`
}
