package albwaf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttrRef_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected string
	}{
		{
			name:     "web acl arn",
			ref:      AttrRef{Resource: "WAF", Attribute: "Arn"},
			expected: `{"Fn::GetAtt":["WAF","Arn"]}`,
		},
		{
			name:     "load balancer dns name",
			ref:      AttrRef{Resource: "ALB", Attribute: "DNSName"},
			expected: `{"Fn::GetAtt":["ALB","DNSName"]}`,
		},
		{
			name:     "security group id",
			ref:      AttrRef{Resource: "SecurityGroup", Attribute: "GroupId"},
			expected: `{"Fn::GetAtt":["SecurityGroup","GroupId"]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.ref)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}

func TestAttrRef_IsZero(t *testing.T) {
	tests := []struct {
		name     string
		ref      AttrRef
		expected bool
	}{
		{"empty", AttrRef{}, true},
		{"with resource", AttrRef{Resource: "WAF"}, false},
		{"with attribute", AttrRef{Attribute: "Arn"}, false},
		{"fully populated", AttrRef{Resource: "WAF", Attribute: "Arn"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ref.IsZero())
		})
	}
}

func TestTemplate_JSON(t *testing.T) {
	template := Template{
		AWSTemplateFormatVersion: "2010-09-09",
		Description:              "Test template",
		Resources: map[string]ResourceDef{
			"WafLogging": {
				Type: "AWS::Logs::LogGroup",
				Properties: map[string]any{
					"LogGroupName": "aws-waf-logs-dashboard",
				},
				DeletionPolicy:      RemovalDestroy,
				UpdateReplacePolicy: RemovalDestroy,
			},
		},
		Outputs: map[string]Output{
			"LogGroupArn": {
				Description: "The log group ARN",
				Value:       map[string][]string{"Fn::GetAtt": {"WafLogging", "Arn"}},
			},
		},
	}

	data, err := json.Marshal(template)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "2010-09-09", parsed["AWSTemplateFormatVersion"])
	assert.Equal(t, "Test template", parsed["Description"])

	resources := parsed["Resources"].(map[string]any)
	logGroup := resources["WafLogging"].(map[string]any)
	assert.Equal(t, "AWS::Logs::LogGroup", logGroup["Type"])
	assert.Equal(t, "Delete", logGroup["DeletionPolicy"])
	assert.Equal(t, "Delete", logGroup["UpdateReplacePolicy"])

	outputs := parsed["Outputs"].(map[string]any)
	arn := outputs["LogGroupArn"].(map[string]any)
	assert.Equal(t, "The log group ARN", arn["Description"])
}

func TestResourceDef_DependsOn(t *testing.T) {
	resource := ResourceDef{
		Type:      "AWS::EC2::Route",
		DependsOn: []string{"VpcVPCGW"},
	}

	data, err := json.Marshal(resource)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.Equal(t, "AWS::EC2::Route", parsed["Type"])
	assert.Equal(t, []any{"VpcVPCGW"}, parsed["DependsOn"])
	assert.NotContains(t, parsed, "Properties")
	assert.NotContains(t, parsed, "DeletionPolicy")
}

func TestBuildResult_Error(t *testing.T) {
	result := BuildResult{
		Success: false,
		Errors:  []string{`image lookup "nginx-server" matched 0 images, want exactly 1`},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(data, &parsed))

	assert.False(t, parsed["success"].(bool))
	assert.Len(t, parsed["errors"].([]any), 1)
}

func TestListResult_JSON(t *testing.T) {
	result := ListResult{
		Declarations: []ListDeclaration{
			{ID: "Vpc", Kind: "Network", Resources: []string{"Vpc", "VpcPublicSubnet1"}},
			{ID: "SecurityGroup", Kind: "AccessRuleSet", DependsOn: []string{"Vpc"}, Resources: []string{"SecurityGroup"}},
		},
	}

	data, err := json.Marshal(result)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"depends_on":["Vpc"]`)
	assert.Contains(t, string(data), `"kind":"Network"`)
}
