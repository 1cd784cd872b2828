// Package template builds CloudFormation templates from declared resources.
package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/internal/serialize"
)

// FormatVersion is the only CloudFormation template format version.
const FormatVersion = "2010-09-09"

var (
	// ErrDuplicateLogicalID is returned when two resources share a logical ID.
	ErrDuplicateLogicalID = errors.New("duplicate logical ID")

	// ErrUnresolvedReference is returned when a property or DependsOn
	// points at a logical ID that is not part of the template.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrCircularDependency is returned when the resources form a cycle.
	ErrCircularDependency = errors.New("circular dependency detected")
)

type entry struct {
	decl         albwaf.DeclaredResource
	props        map[string]any
	dependencies []string
}

// Builder constructs CloudFormation templates from declared resources.
type Builder struct {
	description string
	entries     map[string]*entry
	outputs     map[string]albwaf.Output
}

// NewBuilder creates an empty template builder.
func NewBuilder(description string) *Builder {
	return &Builder{
		description: description,
		entries:     make(map[string]*entry),
		outputs:     make(map[string]albwaf.Output),
	}
}

// Add serializes a declared resource and records its dependencies.
func (b *Builder) Add(decl albwaf.DeclaredResource) error {
	if decl.LogicalID == "" {
		return fmt.Errorf("resource of type %s has no logical ID", resourceType(decl.Resource))
	}
	if _, exists := b.entries[decl.LogicalID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateLogicalID, decl.LogicalID)
	}
	if decl.Resource == nil {
		return fmt.Errorf("%s: nil resource", decl.LogicalID)
	}

	props, err := serialize.Resource(decl.Resource)
	if err != nil {
		return fmt.Errorf("serializing %s: %w", decl.LogicalID, err)
	}

	deps := serialize.References(props)
	deps = mergeSorted(deps, decl.DependsOn)

	b.entries[decl.LogicalID] = &entry{
		decl:         decl,
		props:        props,
		dependencies: deps,
	}
	return nil
}

// AddAll adds every resource, stopping at the first error.
func (b *Builder) AddAll(decls []albwaf.DeclaredResource) error {
	for _, decl := range decls {
		if err := b.Add(decl); err != nil {
			return err
		}
	}
	return nil
}

// AddOutput adds a stack output.
func (b *Builder) AddOutput(name string, output albwaf.Output) {
	b.outputs[name] = output
}

// Order returns the logical IDs in dependency order.
func (b *Builder) Order() ([]string, error) {
	if err := b.checkReferences(); err != nil {
		return nil, err
	}
	return b.topologicalSort()
}

// Build constructs the CloudFormation template.
func (b *Builder) Build() (*albwaf.Template, error) {
	order, err := b.Order()
	if err != nil {
		return nil, err
	}

	template := &albwaf.Template{
		AWSTemplateFormatVersion: FormatVersion,
		Description:              b.description,
		Resources:                make(map[string]albwaf.ResourceDef, len(order)),
	}

	for _, name := range order {
		e := b.entries[name]

		def := albwaf.ResourceDef{
			Type:       e.decl.Resource.ResourceType(),
			Properties: e.props,
			DependsOn:  e.decl.DependsOn,
		}
		if e.decl.RemovalPolicy != "" {
			def.DeletionPolicy = e.decl.RemovalPolicy
			def.UpdateReplacePolicy = e.decl.RemovalPolicy
		}
		if e.decl.Owner != "" {
			def.Metadata = map[string]any{"wetwire:path": e.decl.Owner + "/" + name}
		}

		template.Resources[name] = def
	}

	if len(b.outputs) > 0 {
		template.Outputs = make(map[string]albwaf.Output, len(b.outputs))
		for name, output := range b.outputs {
			for _, dep := range serialize.References(normalize(output.Value)) {
				if _, ok := b.entries[dep]; !ok {
					return nil, fmt.Errorf("output %s: %w: %s", name, ErrUnresolvedReference, dep)
				}
			}
			template.Outputs[name] = output
		}
	}

	return template, nil
}

// Dependencies returns the logical IDs the given resource depends on.
func (b *Builder) Dependencies(logicalID string) []string {
	if e, ok := b.entries[logicalID]; ok {
		return e.dependencies
	}
	return nil
}

// checkReferences catches references to resources that were never added,
// so ordering mistakes fail at build time instead of at apply time.
func (b *Builder) checkReferences() error {
	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, dep := range b.entries[name].dependencies {
			if _, ok := b.entries[dep]; ok {
				continue
			}
			return fmt.Errorf("%s: %w: %s", name, ErrUnresolvedReference, dep)
		}
	}
	return nil
}

// topologicalSort returns resources in dependency order.
func (b *Builder) topologicalSort() ([]string, error) {
	graph := make(map[string][]string)
	inDegree := make(map[string]int)

	for name := range b.entries {
		graph[name] = nil
		inDegree[name] = 0
	}

	for name, e := range b.entries {
		for _, dep := range e.dependencies {
			if _, exists := b.entries[dep]; exists {
				graph[dep] = append(graph[dep], name)
				inDegree[name]++
			}
		}
	}

	// Kahn's algorithm
	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range graph[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
				sort.Strings(queue)
			}
		}
	}

	if len(result) != len(b.entries) {
		return nil, b.detectCycle()
	}

	return result, nil
}

// detectCycle finds and reports a cycle in the dependency graph.
func (b *Builder) detectCycle() error {
	visited := make(map[string]bool)
	path := make(map[string]bool)

	var cycle []string
	var findCycle func(node string) bool
	findCycle = func(node string) bool {
		visited[node] = true
		path[node] = true

		for _, dep := range b.entries[node].dependencies {
			if _, exists := b.entries[dep]; !exists {
				continue
			}
			if !visited[dep] {
				if findCycle(dep) {
					cycle = append([]string{node}, cycle...)
					return true
				}
			} else if path[dep] {
				cycle = append([]string{dep, node}, cycle...)
				return true
			}
		}

		path[node] = false
		return false
	}

	names := make([]string, 0, len(b.entries))
	for name := range b.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if !visited[name] && findCycle(name) {
			break
		}
	}

	if len(cycle) == 0 {
		return ErrCircularDependency
	}

	var sb strings.Builder
	for i, name := range cycle {
		owner := b.entries[name].decl.Owner
		if owner != "" {
			fmt.Fprintf(&sb, "  %s (%s)", name, owner)
		} else {
			fmt.Fprintf(&sb, "  %s", name)
		}
		if i < len(cycle)-1 {
			sb.WriteString("\n    → ")
		}
	}
	return fmt.Errorf("%w:\n%s", ErrCircularDependency, sb.String())
}

// normalize round-trips a value through JSON so intrinsics become maps.
func normalize(value any) any {
	data, err := json.Marshal(value)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func mergeSorted(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range append(append([]string{}, a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func resourceType(r albwaf.Resource) string {
	if r == nil {
		return "<nil>"
	}
	return r.ResourceType()
}

// ToJSON serializes the template to JSON.
func ToJSON(t *albwaf.Template) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

// ToYAML serializes the template to block style YAML.
// Values are normalized through JSON first so that intrinsic functions
// keep their CloudFormation shape and keys keep their JSON order.
func ToYAML(t *albwaf.Template) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

// blockStyle clears the flow and quoting styles the JSON parse left on
// every node. The encoder quotes scalars that would otherwise change type.
func blockStyle(node *yaml.Node) {
	node.Style = 0
	for _, child := range node.Content {
		blockStyle(child)
	}
}
