// Package validation checks an assembled topology and the template it
// synthesises.
//
// Three passes run:
//   - plan checks: the structural rules of the topology (one NAT gateway,
//     two ingress rules, unique rule priorities, resolvable bindings...)
//   - schema: required properties and allowed values, offline
//   - cfn-lint-go: CloudFormation rules on the synthesised template
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lex00/cfn-lint-go/pkg/lint"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/internal/schema"
	"github.com/lex00/wetwire-albwaf-go/internal/template"
	"github.com/lex00/wetwire-albwaf-go/internal/topology"
)

// ExpectedDeclarations is the number of declarations in a complete plan.
const ExpectedDeclarations = 9

// ExpectedBindings is the number of binding edges in a complete plan.
const ExpectedBindings = 4

// CfnLintResult contains the result of running cfn-lint.
type CfnLintResult struct {
	Passed        bool     `json:"passed"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	Informational []string `json:"informational"`
}

// TotalIssues returns the total number of issues found.
func (r CfnLintResult) TotalIssues() int {
	return len(r.Errors) + len(r.Warnings) + len(r.Informational)
}

// CheckPlan returns one message per broken topology rule.
func CheckPlan(plan *topology.Plan) []string {
	if plan == nil {
		return []string{"plan is nil"}
	}

	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	decls := plan.Declarations()
	if len(decls) != ExpectedDeclarations {
		add("plan has %d declarations, want %d", len(decls), ExpectedDeclarations)
	}
	for _, d := range decls {
		if d == nil || d.ID() == "" {
			add("plan has an unresolved declaration")
			continue
		}
		for _, dep := range d.DependsOn() {
			if _, ok := plan.Lookup(dep); !ok {
				add("%s depends on unknown declaration %s", d.ID(), dep)
			}
		}
	}

	bindings := plan.Bindings()
	if len(bindings) != ExpectedBindings {
		add("plan has %d bindings, want %d", len(bindings), ExpectedBindings)
	}
	for _, b := range bindings {
		for _, id := range []string{b.Source, b.Target} {
			if _, ok := plan.Lookup(id); !ok {
				add("binding %s -> %s: %s does not resolve", b.Source, b.Target, id)
			}
		}
	}

	if n := plan.Network; n != nil {
		if n.NATGateways() != 1 {
			add("network has %d NAT gateways, want 1", n.NATGateways())
		}
		if len(n.PublicSubnets()) == 0 || len(n.PrivateSubnets()) == 0 {
			add("network needs public and private subnets")
		}
	}

	if r := plan.AccessRules; r != nil {
		if got := len(r.IngressRules()); got != 2 {
			add("access rule set has %d ingress rules, want 2", got)
		}
		if !r.AllowsAllOutbound() {
			add("access rule set must allow all outbound traffic")
		}
	}

	if i := plan.Instance; i != nil && plan.Network != nil {
		if !plan.Network.HasPrivateSubnet(i.Subnet().LogicalID) {
			add("instance is placed in %s, which is not a private subnet", i.Subnet().LogicalID)
		}
	}

	if p := plan.FirewallPolicy; p != nil {
		issues = append(issues, checkRules(p.Rules())...)
	}

	if f := plan.Firewall; f != nil && plan.LoadBalancer != nil {
		if f.ProtectedID() != plan.LoadBalancer.ID() {
			add("firewall binding protects %s, want %s", f.ProtectedID(), plan.LoadBalancer.ID())
		}
	}

	if s := plan.LogSink; s != nil && !strings.HasPrefix(s.Name(), topology.LogSinkPrefix) {
		add("log sink %q must start with %s", s.Name(), topology.LogSinkPrefix)
	}

	return issues
}

func checkRules(rules []topology.ManagedRuleGroup) []string {
	var issues []string
	priorities := make(map[int]string, len(rules))
	for _, r := range rules {
		if r.Name == "" || r.Vendor == "" {
			issues = append(issues, fmt.Sprintf("rule at priority %d has no name", r.Priority))
		}
		if prev, ok := priorities[r.Priority]; ok {
			issues = append(issues, fmt.Sprintf("rules %s and %s share priority %d", prev, r.RuleName(), r.Priority))
		}
		priorities[r.Priority] = r.RuleName()
	}
	if !sort.SliceIsSorted(rules, func(i, j int) bool { return rules[i].Priority < rules[j].Priority }) {
		issues = append(issues, "rules are not ordered by priority")
	}
	return issues
}

// RunCfnLint runs cfn-lint-go on the given template file.
func RunCfnLint(templatePath string) (*CfnLintResult, error) {
	if _, err := os.Stat(templatePath); err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Template file not found: %s", templatePath)},
		}, nil
	}

	linter := lint.New(lint.Options{})
	matches, err := linter.LintFile(templatePath)
	if err != nil {
		return &CfnLintResult{
			Passed: false,
			Errors: []string{fmt.Sprintf("Linter error: %v", err)},
		}, nil
	}

	result := &CfnLintResult{
		Errors:        []string{},
		Warnings:      []string{},
		Informational: []string{},
	}

	for _, match := range matches {
		formatted := formatMatch(match)

		switch match.Level {
		case "Error":
			result.Errors = append(result.Errors, formatted)
		case "Warning":
			result.Warnings = append(result.Warnings, formatted)
		default:
			result.Informational = append(result.Informational, formatted)
		}
	}

	// Warnings are acceptable
	result.Passed = len(result.Errors) == 0

	return result, nil
}

// LintTemplate writes t to a temporary file and runs cfn-lint-go on it.
func LintTemplate(t *albwaf.Template) (*CfnLintResult, error) {
	data, err := template.ToJSON(t)
	if err != nil {
		return nil, fmt.Errorf("encoding template: %w", err)
	}

	dir, err := os.MkdirTemp("", "wetwire-albwaf-lint-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "template.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("writing template: %w", err)
	}

	return RunCfnLint(path)
}

// formatMatch formats a cfn-lint-go match for display.
func formatMatch(match lint.Match) string {
	pathStr := ""
	if len(match.Location.Path) > 0 {
		parts := make([]string, len(match.Location.Path))
		for i, p := range match.Location.Path {
			parts[i] = fmt.Sprintf("%v", p)
		}
		pathStr = strings.Join(parts, "/")
	}

	if pathStr != "" {
		return fmt.Sprintf("%s: %s (at %s)", match.Rule.ID, match.Message, pathStr)
	}
	return fmt.Sprintf("%s: %s", match.Rule.ID, match.Message)
}

// Options configures Validate.
type Options struct {
	// Description is used for the synthesised template.
	Description string
	// SkipCfnLint skips the cfn-lint pass.
	SkipCfnLint bool
}

// Validate runs the plan checks, synthesises the template, checks it
// against the resource schemas and lints it.
// cfn-lint warnings are reported but do not fail validation.
func Validate(plan *topology.Plan, opts Options) *albwaf.ValidateResult {
	result := &albwaf.ValidateResult{Errors: CheckPlan(plan)}
	if plan == nil {
		return result
	}
	result.Declarations = len(plan.Declarations())

	t, err := plan.Template(opts.Description)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("synthesising template: %v", err))
		return result
	}
	result.Resources = len(t.Resources)

	schemaResult := schema.ValidateTemplate(t, schema.Options{})
	for _, e := range schemaResult.Errors {
		result.Errors = append(result.Errors, e.String())
	}
	for _, w := range schemaResult.Warnings {
		result.Warnings = append(result.Warnings, w.String())
	}

	if !opts.SkipCfnLint {
		lintResult, err := LintTemplate(t)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("running cfn-lint: %v", err))
		} else {
			result.Errors = append(result.Errors, lintResult.Errors...)
			result.Warnings = append(result.Warnings, lintResult.Warnings...)
			result.Warnings = append(result.Warnings, lintResult.Informational...)
		}
	}

	result.Success = len(result.Errors) == 0
	return result
}
