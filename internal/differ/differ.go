// Package differ compares two synthesised CloudFormation templates
// resource by resource.
package differ

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	albwaf "github.com/lex00/wetwire-albwaf-go"
)

// Options configures the differ.
type Options struct {
	// IgnoreOrder treats lists as sets, so reordered subnets or rules are
	// not reported.
	IgnoreOrder bool
}

// Result contains the difference between two templates.
type Result struct {
	Diff    albwaf.TemplateDiff
	Summary albwaf.DiffSummary
}

// Empty reports whether the templates have the same resources.
func (r *Result) Empty() bool {
	return r.Summary.Total == 0
}

// Compare compares two templates and returns the differences from one to the other.
func Compare(from, to *albwaf.Template, opts Options) (*Result, error) {
	if from == nil || to == nil {
		return nil, fmt.Errorf("compare: nil template")
	}

	result := &Result{}

	for name, def := range to.Resources {
		if _, exists := from.Resources[name]; !exists {
			result.Diff.Added = append(result.Diff.Added, albwaf.DiffEntry{Resource: name, Type: def.Type})
		}
	}

	for name, before := range from.Resources {
		after, exists := to.Resources[name]
		if !exists {
			result.Diff.Removed = append(result.Diff.Removed, albwaf.DiffEntry{Resource: name, Type: before.Type})
			continue
		}
		if changes := compareResources(before, after, opts); len(changes) > 0 {
			result.Diff.Modified = append(result.Diff.Modified, albwaf.DiffEntry{
				Resource: name,
				Type:     after.Type,
				Changes:  changes,
			})
		}
	}

	sortEntries(result.Diff.Added)
	sortEntries(result.Diff.Removed)
	sortEntries(result.Diff.Modified)

	result.Summary = albwaf.DiffSummary{
		Added:    len(result.Diff.Added),
		Removed:  len(result.Diff.Removed),
		Modified: len(result.Diff.Modified),
	}
	result.Summary.Total = result.Summary.Added + result.Summary.Removed + result.Summary.Modified

	return result, nil
}

// CompareFiles compares two template files.
func CompareFiles(oldPath, newPath string, opts Options) (*Result, error) {
	from, err := LoadTemplate(oldPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", oldPath, err)
	}

	to, err := LoadTemplate(newPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", newPath, err)
	}

	return Compare(from, to, opts)
}

// LoadTemplate loads a template from a JSON or YAML file.
func LoadTemplate(path string) (*albwaf.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseTemplate(data)
}

// ParseTemplate parses a JSON or YAML template.
func ParseTemplate(data []byte) (*albwaf.Template, error) {
	var template albwaf.Template
	if err := json.Unmarshal(data, &template); err == nil {
		return &template, nil
	}

	// YAML is decoded generically and re-encoded as JSON so numbers and
	// nested maps match what the JSON path produces.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}
	if err := json.Unmarshal(normalized, &template); err != nil {
		return nil, fmt.Errorf("failed to parse as JSON or YAML: %w", err)
	}
	return &template, nil
}

func compareResources(before, after albwaf.ResourceDef, opts Options) []string {
	var changes []string

	if before.Type != after.Type {
		changes = append(changes, fmt.Sprintf("Type changed: %s → %s", before.Type, after.Type))
	}

	changes = append(changes, compareValues("Properties", toAny(before.Properties), toAny(after.Properties), opts)...)

	if !equalSet(before.DependsOn, after.DependsOn) {
		changes = append(changes, "DependsOn changed")
	}
	if before.DeletionPolicy != after.DeletionPolicy {
		changes = append(changes, fmt.Sprintf("DeletionPolicy changed: %q → %q", before.DeletionPolicy, after.DeletionPolicy))
	}
	if before.UpdateReplacePolicy != after.UpdateReplacePolicy {
		changes = append(changes, fmt.Sprintf("UpdateReplacePolicy changed: %q → %q", before.UpdateReplacePolicy, after.UpdateReplacePolicy))
	}

	sort.Strings(changes)
	return changes
}

// compareValues walks nested maps and reports changed leaves by dotted path.
func compareValues(path string, before, after any, opts Options) []string {
	beforeMap, beforeIsMap := before.(map[string]any)
	afterMap, afterIsMap := after.(map[string]any)
	if !beforeIsMap || !afterIsMap {
		if deepEqual(before, after, opts) {
			return nil
		}
		return []string{path + " modified"}
	}

	var changes []string
	for key, val := range afterMap {
		child := path + "." + key
		if prev, exists := beforeMap[key]; exists {
			changes = append(changes, compareValues(child, prev, val, opts)...)
		} else {
			changes = append(changes, child+" added")
		}
	}
	for key := range beforeMap {
		if _, exists := afterMap[key]; !exists {
			changes = append(changes, path+"."+key+" removed")
		}
	}
	return changes
}

func deepEqual(a, b any, opts Options) bool {
	if opts.IgnoreOrder {
		a = normalizeValue(a)
		b = normalizeValue(b)
	}
	return reflect.DeepEqual(a, b)
}

// normalizeValue sorts lists by their JSON encoding.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []any:
		type keyed struct {
			key   string
			value any
		}
		items := make([]keyed, len(val))
		for i, elem := range val {
			elem = normalizeValue(elem)
			data, _ := json.Marshal(elem)
			items[i] = keyed{key: string(data), value: elem}
		}
		sort.Slice(items, func(i, j int) bool { return items[i].key < items[j].key })
		result := make([]any, len(items))
		for i, item := range items {
			result[i] = item.value
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v := range val {
			result[k] = normalizeValue(v)
		}
		return result
	default:
		return v
	}
}

// toAny keeps a nil map distinct from a missing value.
func toAny(m map[string]any) any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// equalSet compares DependsOn lists; CloudFormation does not order them.
func equalSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a = slices.Clone(a)
	b = slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}

func sortEntries(entries []albwaf.DiffEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Resource < entries[j].Resource
	})
}
