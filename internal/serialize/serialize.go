// Package serialize converts typed resource structs into CloudFormation
// property maps and finds the logical IDs those maps reference.
package serialize

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Resource serializes a Go struct to CloudFormation resource properties.
// It handles:
// - json tag names (falling back to the field name)
// - omitting nil/zero values, except values stored in interface fields
// - nested structs, slices and maps
// - json.Marshaler values (Ref, GetAtt, AttrRef...)
//
// The returned map is never nil for a struct input.
func Resource(v any) (map[string]any, error) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("serialize: nil %s", val.Type())
		}
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("serialize: expected struct, got %s", val.Kind())
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)

		if !field.IsExported() {
			continue
		}

		name := fieldName(field)
		if name == "-" {
			continue
		}

		if isZeroValue(fieldVal) {
			continue
		}

		serialized, err := serializeValue(fieldVal)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		if serialized != nil {
			result[name] = serialized
		}
	}

	return result, nil
}

// fieldName returns the JSON field name for a struct field.
func fieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}

	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}

// isZeroValue reports whether the field should be omitted.
// An interface holding a zero scalar (Priority: 0) is not omitted.
func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.String:
		return v.String() == ""
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Struct:
		if v.CanInterface() {
			if zeroer, ok := v.Interface().(interface{ IsZero() bool }); ok {
				return zeroer.IsZero()
			}
		}
		return false
	default:
		return false
	}
}

// serializeValue converts a reflect.Value to a JSON-compatible value.
func serializeValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}

	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		return serializeValue(v.Elem())
	}

	if v.CanInterface() {
		if marshaler, ok := v.Interface().(json.Marshaler); ok {
			data, err := marshaler.MarshalJSON()
			if err != nil {
				return nil, err
			}
			var result any
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return result, nil
		}
	}

	switch v.Kind() {
	case reflect.Struct:
		return Resource(v.Interface())

	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make([]any, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := serializeValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			if elem != nil {
				result = append(result, elem)
			}
		}
		return result, nil

	case reflect.Map:
		if v.Len() == 0 {
			return nil, nil
		}
		result := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			val, err := serializeValue(iter.Value())
			if err != nil {
				return nil, err
			}
			result[fmt.Sprint(iter.Key().Interface())] = val
		}
		return result, nil

	case reflect.String:
		return v.String(), nil

	case reflect.Bool:
		return v.Bool(), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), nil

	case reflect.Float32, reflect.Float64:
		return v.Float(), nil

	default:
		data, err := json.Marshal(v.Interface())
		if err != nil {
			return nil, err
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, err
		}
		return result, nil
	}
}

// References returns the sorted, de-duplicated logical IDs that a
// serialized value points at through Ref or Fn::GetAtt. Pseudo parameters
// (AWS::Region, ...) are skipped.
func References(value any) []string {
	seen := make(map[string]bool)
	collectRefs(value, seen, false)
	return sortedKeys(seen)
}

// AttributeReferences returns the sorted logical IDs referenced through
// Fn::GetAtt only.
func AttributeReferences(value any) []string {
	seen := make(map[string]bool)
	collectRefs(value, seen, true)
	return sortedKeys(seen)
}

func sortedKeys(seen map[string]bool) []string {
	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs
}

func collectRefs(value any, seen map[string]bool, getAttOnly bool) {
	switch v := value.(type) {
	case map[string]any:
		if ref, ok := v["Ref"].(string); ok && len(v) == 1 {
			if !getAttOnly && ref != "" && !strings.HasPrefix(ref, "AWS::") {
				seen[ref] = true
			}
			return
		}
		if getAtt, ok := v["Fn::GetAtt"]; ok && len(v) == 1 {
			if name := getAttTarget(getAtt); name != "" {
				seen[name] = true
			}
			return
		}
		for _, val := range v {
			collectRefs(val, seen, getAttOnly)
		}
	case []any:
		for _, elem := range v {
			collectRefs(elem, seen, getAttOnly)
		}
	}
}

// getAttTarget handles both the list form ["Res", "Attr"] and the dotted
// string form "Res.Attr".
func getAttTarget(v any) string {
	switch args := v.(type) {
	case []any:
		if len(args) > 0 {
			if name, ok := args[0].(string); ok {
				return name
			}
		}
	case []string:
		if len(args) > 0 {
			return args[0]
		}
	case string:
		name, _, _ := strings.Cut(args, ".")
		return name
	}
	return ""
}
