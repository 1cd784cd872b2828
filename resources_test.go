package albwaf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/resources/ec2"
	"github.com/lex00/wetwire-albwaf-go/resources/elasticloadbalancingv2"
	"github.com/lex00/wetwire-albwaf-go/resources/logs"
	"github.com/lex00/wetwire-albwaf-go/resources/wafv2"
)

func TestResourceTypes(t *testing.T) {
	tests := []struct {
		resource albwaf.Resource
		expected string
	}{
		{ec2.VPC{}, "AWS::EC2::VPC"},
		{ec2.Subnet{}, "AWS::EC2::Subnet"},
		{ec2.InternetGateway{}, "AWS::EC2::InternetGateway"},
		{ec2.VPCGatewayAttachment{}, "AWS::EC2::VPCGatewayAttachment"},
		{ec2.EIP{}, "AWS::EC2::EIP"},
		{ec2.NatGateway{}, "AWS::EC2::NatGateway"},
		{ec2.RouteTable{}, "AWS::EC2::RouteTable"},
		{ec2.Route{}, "AWS::EC2::Route"},
		{ec2.SubnetRouteTableAssociation{}, "AWS::EC2::SubnetRouteTableAssociation"},
		{ec2.SecurityGroup{}, "AWS::EC2::SecurityGroup"},
		{ec2.Instance{}, "AWS::EC2::Instance"},
		{elasticloadbalancingv2.LoadBalancer{}, "AWS::ElasticLoadBalancingV2::LoadBalancer"},
		{elasticloadbalancingv2.TargetGroup{}, "AWS::ElasticLoadBalancingV2::TargetGroup"},
		{elasticloadbalancingv2.Listener{}, "AWS::ElasticLoadBalancingV2::Listener"},
		{logs.LogGroup{}, "AWS::Logs::LogGroup"},
		{wafv2.WebACL{}, "AWS::WAFv2::WebACL"},
		{wafv2.WebACLAssociation{}, "AWS::WAFv2::WebACLAssociation"},
		{wafv2.LoggingConfiguration{}, "AWS::WAFv2::LoggingConfiguration"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.resource.ResourceType())
		})
	}
}
