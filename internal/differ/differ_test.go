package differ

import (
	"os"
	"path/filepath"
	"testing"

	albwaf "github.com/lex00/wetwire-albwaf-go"
)

func TestCompare(t *testing.T) {
	t1 := &albwaf.Template{
		Resources: map[string]albwaf.ResourceDef{
			"Instance":      {Type: "AWS::EC2::Instance", Properties: map[string]any{"InstanceType": "t3.large"}},
			"SecurityGroup": {Type: "AWS::EC2::SecurityGroup", Properties: map[string]any{"GroupDescription": "ALB-SG"}},
		},
	}

	t2 := &albwaf.Template{
		Resources: map[string]albwaf.ResourceDef{
			"Instance":   {Type: "AWS::EC2::Instance", Properties: map[string]any{"InstanceType": "t3.xlarge"}},
			"WafLogging": {Type: "AWS::Logs::LogGroup", Properties: map[string]any{"LogGroupName": "aws-waf-logs-dashboard"}},
		},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Removed) != 1 {
		t.Errorf("Removed = %d, want 1", len(result.Diff.Removed))
	} else if result.Diff.Removed[0].Resource != "SecurityGroup" {
		t.Errorf("Removed[0].Resource = %s, want SecurityGroup", result.Diff.Removed[0].Resource)
	}

	if len(result.Diff.Added) != 1 {
		t.Errorf("Added = %d, want 1", len(result.Diff.Added))
	} else if result.Diff.Added[0].Type != "AWS::Logs::LogGroup" {
		t.Errorf("Added[0].Type = %s, want AWS::Logs::LogGroup", result.Diff.Added[0].Type)
	}

	if len(result.Diff.Modified) != 1 {
		t.Errorf("Modified = %d, want 1", len(result.Diff.Modified))
	} else if got := result.Diff.Modified[0].Changes; len(got) != 1 || got[0] != "Properties.InstanceType modified" {
		t.Errorf("Modified[0].Changes = %v", got)
	}

	if result.Summary.Total != 3 {
		t.Errorf("Summary.Total = %d, want 3", result.Summary.Total)
	}
	if result.Empty() {
		t.Error("Empty() = true, want false")
	}
}

func TestCompareIdentical(t *testing.T) {
	template := &albwaf.Template{
		Resources: map[string]albwaf.ResourceDef{
			"Vpc": {Type: "AWS::EC2::VPC", Properties: map[string]any{"CidrBlock": "10.0.0.0/16"}},
		},
	}

	result, err := Compare(template, template, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if !result.Empty() {
		t.Errorf("Summary.Total = %d, want 0 for identical templates", result.Summary.Total)
	}
}

func TestCompareNil(t *testing.T) {
	if _, err := Compare(nil, &albwaf.Template{}, Options{}); err == nil {
		t.Error("expected error for nil template")
	}
}

func TestCompareTypeChange(t *testing.T) {
	t1 := &albwaf.Template{
		Resources: map[string]albwaf.ResourceDef{"WafLogging": {Type: "AWS::Logs::LogGroup"}},
	}
	t2 := &albwaf.Template{
		Resources: map[string]albwaf.ResourceDef{"WafLogging": {Type: "AWS::S3::Bucket"}},
	}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}

	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}

	want := "Type changed: AWS::Logs::LogGroup → AWS::S3::Bucket"
	if changes := result.Diff.Modified[0].Changes; len(changes) != 1 || changes[0] != want {
		t.Errorf("Changes = %v, want [%s]", changes, want)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name   string
		before map[string]any
		after  map[string]any
		want   []string
	}{
		{
			name:   "identical",
			before: map[string]any{"Port": float64(80)},
			after:  map[string]any{"Port": float64(80)},
		},
		{
			name:   "added property",
			before: map[string]any{},
			after:  map[string]any{"Port": float64(80)},
			want:   []string{"Properties.Port added"},
		},
		{
			name:   "removed property",
			before: map[string]any{"Port": float64(80)},
			after:  map[string]any{},
			want:   []string{"Properties.Port removed"},
		},
		{
			name: "nested property",
			before: map[string]any{"DefaultAction": map[string]any{
				"Allow": map[string]any{},
			}},
			after: map[string]any{"DefaultAction": map[string]any{
				"Block": map[string]any{},
			}},
			want: []string{"Properties.DefaultAction.Allow removed", "Properties.DefaultAction.Block added"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compareResources(
				albwaf.ResourceDef{Type: "AWS::ElasticLoadBalancingV2::Listener", Properties: tt.before},
				albwaf.ResourceDef{Type: "AWS::ElasticLoadBalancingV2::Listener", Properties: tt.after},
				Options{},
			)
			if len(got) != len(tt.want) {
				t.Fatalf("compareResources() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("change[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCompareIgnoreOrder(t *testing.T) {
	subnets := func(ids ...string) albwaf.ResourceDef {
		list := make([]any, len(ids))
		for i, id := range ids {
			list[i] = map[string]any{"Ref": id}
		}
		return albwaf.ResourceDef{
			Type:       "AWS::ElasticLoadBalancingV2::LoadBalancer",
			Properties: map[string]any{"Subnets": list},
		}
	}

	t1 := &albwaf.Template{Resources: map[string]albwaf.ResourceDef{"ALB": subnets("VpcPublicSubnet1", "VpcPublicSubnet2")}}
	t2 := &albwaf.Template{Resources: map[string]albwaf.ResourceDef{"ALB": subnets("VpcPublicSubnet2", "VpcPublicSubnet1")}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if result.Summary.Modified != 1 {
		t.Errorf("Modified = %d, want 1 when order matters", result.Summary.Modified)
	}

	result, err = Compare(t1, t2, Options{IgnoreOrder: true})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if !result.Empty() {
		t.Errorf("Summary.Total = %d, want 0 with IgnoreOrder", result.Summary.Total)
	}
}

func TestComparePolicies(t *testing.T) {
	t1 := &albwaf.Template{Resources: map[string]albwaf.ResourceDef{
		"WafLogging": {Type: "AWS::Logs::LogGroup", DeletionPolicy: "Delete", DependsOn: []string{"A", "B"}},
	}}
	t2 := &albwaf.Template{Resources: map[string]albwaf.ResourceDef{
		"WafLogging": {Type: "AWS::Logs::LogGroup", DeletionPolicy: "Retain", DependsOn: []string{"B", "A"}},
	}}

	result, err := Compare(t1, t2, Options{})
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.Diff.Modified) != 1 {
		t.Fatalf("Modified = %d, want 1", len(result.Diff.Modified))
	}
	changes := result.Diff.Modified[0].Changes
	if len(changes) != 1 || changes[0] != `DeletionPolicy changed: "Delete" → "Retain"` {
		t.Errorf("Changes = %v", changes)
	}
}

func TestEqualSet(t *testing.T) {
	tests := []struct {
		a, b []string
		want bool
	}{
		{nil, nil, true},
		{[]string{}, nil, true},
		{[]string{"a", "b"}, []string{"b", "a"}, true},
		{[]string{"a"}, []string{"b"}, false},
		{[]string{"a"}, []string{"a", "b"}, false},
	}

	for _, tt := range tests {
		if got := equalSet(tt.a, tt.b); got != tt.want {
			t.Errorf("equalSet(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "before.json")
	yamlPath := filepath.Join(dir, "after.yaml")

	jsonTemplate := `{
  "AWSTemplateFormatVersion": "2010-09-09",
  "Resources": {
    "ALBListener": {"Type": "AWS::ElasticLoadBalancingV2::Listener", "Properties": {"Port": 80}}
  }
}`
	yamlTemplate := `AWSTemplateFormatVersion: "2010-09-09"
Resources:
  ALBListener:
    Type: AWS::ElasticLoadBalancingV2::Listener
    Properties:
      Port: 80
`
	if err := os.WriteFile(jsonPath, []byte(jsonTemplate), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(yamlTemplate), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := CompareFiles(jsonPath, yamlPath, Options{})
	if err != nil {
		t.Fatalf("CompareFiles() error = %v", err)
	}
	if !result.Empty() {
		t.Errorf("expected JSON and YAML forms to match, got %+v", result.Diff)
	}

	if _, err := CompareFiles(filepath.Join(dir, "missing.json"), yamlPath, Options{}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseTemplate_Invalid(t *testing.T) {
	if _, err := ParseTemplate([]byte("Resources: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}
