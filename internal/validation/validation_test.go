package validation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/lex00/cfn-lint-go/pkg/lint"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lex00/wetwire-albwaf-go/internal/logging"
	"github.com/lex00/wetwire-albwaf-go/internal/lookup"
	"github.com/lex00/wetwire-albwaf-go/internal/topology"
)

type stubImages struct{}

func (stubImages) ResolveImage(context.Context, string) ([]lookup.Image, error) {
	return []lookup.Image{{ID: "ami-0abc", Name: "nginx-server"}}, nil
}

func assemble(t *testing.T) *topology.Plan {
	t.Helper()
	a := topology.New(stubImages{}, lookup.NewStaticProvider(), topology.WithLogger(logging.Discard()))
	plan, err := a.Assemble(context.Background(), topology.Params{ImageName: "nginx-server"})
	require.NoError(t, err)
	return plan
}

func TestCheckPlan_Valid(t *testing.T) {
	assert.Empty(t, CheckPlan(assemble(t)))
}

func TestCheckPlan_Nil(t *testing.T) {
	assert.Equal(t, []string{"plan is nil"}, CheckPlan(nil))
}

func TestCheckRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []topology.ManagedRuleGroup
		want  int
	}{
		{
			name:  "defaults",
			rules: topology.DefaultManagedRuleGroups(),
		},
		{
			name: "duplicate priority",
			rules: []topology.ManagedRuleGroup{
				{Vendor: "AWS", Name: "AWSManagedRulesCommonRuleSet", Priority: 1},
				{Vendor: "AWS", Name: "AWSManagedRulesAmazonIpReputationList", Priority: 1},
			},
			want: 1,
		},
		{
			name: "empty name",
			rules: []topology.ManagedRuleGroup{
				{Vendor: "AWS", Priority: 0},
			},
			want: 1,
		},
		{
			name: "unordered",
			rules: []topology.ManagedRuleGroup{
				{Vendor: "AWS", Name: "B", Priority: 2},
				{Vendor: "AWS", Name: "A", Priority: 1},
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, checkRules(tt.rules), tt.want)
		})
	}
}

func TestValidate_SkipCfnLint(t *testing.T) {
	result := Validate(assemble(t), Options{Description: "test", SkipCfnLint: true})

	assert.True(t, result.Success)
	assert.Equal(t, ExpectedDeclarations, result.Declarations)
	assert.Equal(t, 26, result.Resources)
	assert.Empty(t, result.Errors)
}

func TestValidate_Nil(t *testing.T) {
	result := Validate(nil, Options{})
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestCfnLintResult_TotalIssues(t *testing.T) {
	tests := []struct {
		name     string
		result   CfnLintResult
		expected int
	}{
		{
			name:     "empty result",
			result:   CfnLintResult{},
			expected: 0,
		},
		{
			name:     "errors only",
			result:   CfnLintResult{Errors: []string{"error1", "error2"}},
			expected: 2,
		},
		{
			name: "mixed issues",
			result: CfnLintResult{
				Errors:        []string{"error1"},
				Warnings:      []string{"warning1", "warning2"},
				Informational: []string{"info1"},
			},
			expected: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.result.TotalIssues())
		})
	}
}

func TestFormatMatch(t *testing.T) {
	tests := []struct {
		name     string
		match    lint.Match
		expected string
	}{
		{
			name: "simple match",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "E3012"},
				Message: "Property has an invalid type",
			},
			expected: "E3012: Property has an invalid type",
		},
		{
			name: "match with path",
			match: lint.Match{
				Rule:    lint.MatchRule{ID: "W3005"},
				Message: "Obsolete DependsOn",
				Location: lint.MatchLocation{
					Path: []any{"Resources", "VpcPublicDefaultRoute", "DependsOn"},
				},
			},
			expected: "W3005: Obsolete DependsOn (at Resources/VpcPublicDefaultRoute/DependsOn)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatMatch(tt.match))
		})
	}
}

func TestRunCfnLint_FileNotFound(t *testing.T) {
	result, err := RunCfnLint("/nonexistent/template.json")
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Template file not found")
}

func TestRunCfnLint_ValidTemplate(t *testing.T) {
	templatePath := filepath.Join(t.TempDir(), "template.yaml")

	validTemplate := `AWSTemplateFormatVersion: '2010-09-09'
Description: Test template
Resources:
  WafLogging:
    Type: AWS::Logs::LogGroup
    Properties:
      LogGroupName: aws-waf-logs-dashboard
      RetentionInDays: 731
`
	require.NoError(t, os.WriteFile(templatePath, []byte(validTemplate), 0644))

	result, err := RunCfnLint(templatePath)
	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestLintTemplate(t *testing.T) {
	tmpl, err := assemble(t).Template("lint")
	require.NoError(t, err)

	result, err := LintTemplate(tmpl)
	require.NoError(t, err)
	assert.NotNil(t, result)
}
