package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	albwaf "github.com/lex00/wetwire-albwaf-go"
)

func TestValidateTemplate(t *testing.T) {
	template := &albwaf.Template{
		Resources: map[string]albwaf.ResourceDef{
			"SecurityGroup": {
				Type: "AWS::EC2::SecurityGroup",
				Properties: map[string]any{
					"GroupDescription": "security group for ALB",
					"VpcId":            map[string]any{"Ref": "Vpc"},
				},
			},
			"WAFLoggingConfiguration": {
				Type: "AWS::WAFv2::LoggingConfiguration",
				Properties: map[string]any{
					"ResourceArn": map[string]any{"Fn::GetAtt": []any{"WAF", "Arn"}},
				},
			},
		},
	}

	result := ValidateTemplate(template, Options{})

	assert.False(t, result.Valid)
	if assert.Len(t, result.Errors, 1) {
		assert.Equal(t, "WAFLoggingConfiguration", result.Errors[0].Resource)
		assert.Equal(t, "LogDestinationConfigs", result.Errors[0].Property)
	}
}

func TestValidateResource(t *testing.T) {
	tests := []struct {
		name         string
		resource     albwaf.ResourceDef
		opts         Options
		wantErrors   int
		wantWarnings int
	}{
		{
			name: "valid log group",
			resource: albwaf.ResourceDef{Type: "AWS::Logs::LogGroup", Properties: map[string]any{
				"LogGroupName":    "aws-waf-logs-dashboard",
				"RetentionInDays": int64(731),
			}},
		},
		{
			name: "retention from JSON",
			resource: albwaf.ResourceDef{Type: "AWS::Logs::LogGroup", Properties: map[string]any{
				"RetentionInDays": float64(731),
			}},
		},
		{
			name: "retention not allowed",
			resource: albwaf.ResourceDef{Type: "AWS::Logs::LogGroup", Properties: map[string]any{
				"RetentionInDays": int64(700),
			}},
			wantErrors: 1,
		},
		{
			name: "wrong type",
			resource: albwaf.ResourceDef{Type: "AWS::ElasticLoadBalancingV2::Listener", Properties: map[string]any{
				"DefaultActions":  []any{},
				"LoadBalancerArn": map[string]any{"Ref": "ALB"},
				"Port":            "80",
			}},
			wantErrors: 1,
		},
		{
			name: "bad scope",
			resource: albwaf.ResourceDef{Type: "AWS::WAFv2::WebACL", Properties: map[string]any{
				"DefaultAction":    map[string]any{"Allow": map[string]any{}},
				"Scope":            "GLOBAL",
				"VisibilityConfig": map[string]any{},
			}},
			wantErrors: 1,
		},
		{
			name:         "unknown type",
			resource:     albwaf.ResourceDef{Type: "AWS::S3::Bucket"},
			wantWarnings: 1,
		},
		{
			name:       "invalid type format",
			resource:   albwaf.ResourceDef{Type: "Bucket"},
			wantErrors: 1, wantWarnings: 1,
		},
		{
			name: "strict unknown property",
			resource: albwaf.ResourceDef{Type: "AWS::EC2::InternetGateway", Properties: map[string]any{
				"Bogus": true,
			}},
			opts:         Options{Strict: true},
			wantWarnings: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs, warnings := validateResource("Res", tt.resource, tt.opts)
			assert.Len(t, errs, tt.wantErrors)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestError_String(t *testing.T) {
	e := Error{Resource: "ALBListener", Property: "Port", Message: "expected type Integer"}
	assert.Equal(t, "ALBListener.Port: expected type Integer", e.String())
}
