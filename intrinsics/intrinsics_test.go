package intrinsics

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefTo_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(RefTo("Vpc"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"Ref": "Vpc"}`, string(data))
}

func TestGetAtt_MarshalJSON(t *testing.T) {
	getAtt := GetAtt{LogicalName: "ALB", Attribute: "DNSName"}
	data, err := json.Marshal(getAtt)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Fn::GetAtt": ["ALB", "DNSName"]}`, string(data))
}

func TestNameTag_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(NameTag("Vpc/PublicSubnet1"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Key":"Name"`)
	assert.Contains(t, string(data), `"Fn::Sub":"${AWS::StackName}/Vpc/PublicSubnet1"`)
}

func TestRefTo_Targets(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		expected string
	}{
		{"network", "Vpc", `{"Ref": "Vpc"}`},
		{"instance", "Instance", `{"Ref": "Instance"}`},
		{"load balancer", "ALB", `{"Ref": "ALB"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(RefTo(tt.id))
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(data))
		})
	}
}
