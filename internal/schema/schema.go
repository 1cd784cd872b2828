// Package schema provides offline CloudFormation schema validation for the
// resource types the topology emits.
package schema

import (
	"fmt"
	"sort"
	"strings"

	albwaf "github.com/lex00/wetwire-albwaf-go"
)

// Options configures schema validation.
type Options struct {
	// Strict reports properties the schema does not know as warnings.
	Strict bool
}

// Error is a schema violation on one resource property.
type Error struct {
	Resource string `json:"resource"`
	Property string `json:"property"`
	Message  string `json:"message"`
}

func (e Error) String() string {
	return fmt.Sprintf("%s.%s: %s", e.Resource, e.Property, e.Message)
}

// Result contains schema validation results.
type Result struct {
	Valid    bool
	Errors   []Error
	Warnings []Error
}

// ValidateTemplate validates every resource of template against the known
// schemas. Resources are visited in logical ID order.
func ValidateTemplate(template *albwaf.Template, opts Options) *Result {
	result := &Result{Valid: true}

	names := make([]string, 0, len(template.Resources))
	for name := range template.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		errs, warnings := validateResource(name, template.Resources[name], opts)
		result.Errors = append(result.Errors, errs...)
		result.Warnings = append(result.Warnings, warnings...)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func validateResource(name string, resource albwaf.ResourceDef, opts Options) ([]Error, []Error) {
	var errs, warnings []Error

	if !isValidResourceType(resource.Type) {
		errs = append(errs, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("invalid resource type format: %s", resource.Type),
		})
	}

	schema, ok := resourceSchemas[resource.Type]
	if !ok {
		warnings = append(warnings, Error{
			Resource: name,
			Property: "Type",
			Message:  fmt.Sprintf("unknown resource type: %s (schema not available for validation)", resource.Type),
		})
		return errs, warnings
	}

	for _, required := range schema.Required {
		if _, exists := resource.Properties[required]; !exists {
			errs = append(errs, Error{
				Resource: name,
				Property: required,
				Message:  fmt.Sprintf("missing required property: %s", required),
			})
		}
	}

	props := make([]string, 0, len(resource.Properties))
	for prop := range resource.Properties {
		props = append(props, prop)
	}
	sort.Strings(props)

	for _, prop := range props {
		propSchema, ok := schema.Properties[prop]
		if !ok {
			if opts.Strict {
				warnings = append(warnings, Error{
					Resource: name,
					Property: prop,
					Message:  fmt.Sprintf("unknown property: %s", prop),
				})
			}
			continue
		}
		errs = append(errs, validateProperty(name, prop, resource.Properties[prop], propSchema)...)
	}

	return errs, warnings
}

// isValidResourceType checks the AWS::Service::Resource shape.
func isValidResourceType(resourceType string) bool {
	parts := strings.Split(resourceType, "::")
	return len(parts) == 3 && parts[0] == "AWS" && parts[1] != "" && parts[2] != ""
}

func validateProperty(resource, property string, value any, schema PropertySchema) []Error {
	if isIntrinsic(value) {
		return nil
	}

	if !isValidType(value, schema.Type) {
		return []Error{{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("expected type %s", schema.Type),
		}}
	}

	if len(schema.AllowedValues) > 0 {
		got := scalarString(value)
		for _, allowed := range schema.AllowedValues {
			if got == allowed {
				return nil
			}
		}
		return []Error{{
			Resource: resource,
			Property: property,
			Message:  fmt.Sprintf("value %s not in allowed values: %v", got, schema.AllowedValues),
		}}
	}

	return nil
}

func isIntrinsic(value any) bool {
	m, ok := value.(map[string]any)
	if !ok || len(m) != 1 {
		return false
	}
	for key := range m {
		return key == "Ref" || strings.HasPrefix(key, "Fn::")
	}
	return false
}

// scalarString formats numbers without a fractional part so JSON decoded
// float64 values compare equal to integer ones.
func scalarString(value any) string {
	switch v := value.(type) {
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprint(int64(v))
		}
	case string:
		return v
	}
	return fmt.Sprint(value)
}

func isValidType(value any, expectedType string) bool {
	switch expectedType {
	case "String":
		_, ok := value.(string)
		return ok
	case "Integer":
		switch value.(type) {
		case int, int32, int64, uint, uint64, float64:
			return true
		}
		return false
	case "Boolean":
		_, ok := value.(bool)
		return ok
	case "List":
		_, ok := value.([]any)
		return ok
	case "Map":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

// ResourceSchema defines the schema for a resource type.
type ResourceSchema struct {
	Required   []string
	Properties map[string]PropertySchema
}

// PropertySchema defines the schema for a property.
type PropertySchema struct {
	Type          string
	AllowedValues []string
}

var (
	str      = PropertySchema{Type: "String"}
	integer  = PropertySchema{Type: "Integer"}
	boolean  = PropertySchema{Type: "Boolean"}
	list     = PropertySchema{Type: "List"}
	object   = PropertySchema{Type: "Map"}
	protocol = PropertySchema{Type: "String", AllowedValues: []string{"HTTP", "HTTPS", "TCP", "TLS", "UDP", "TCP_UDP", "GENEVE"}}
)

// resourceSchemas covers the resource types the topology emits.
var resourceSchemas = map[string]ResourceSchema{
	"AWS::EC2::VPC": {
		Properties: map[string]PropertySchema{
			"CidrBlock":          str,
			"EnableDnsHostnames": boolean,
			"EnableDnsSupport":   boolean,
			"InstanceTenancy":    {Type: "String", AllowedValues: []string{"default", "dedicated", "host"}},
			"Tags":               list,
		},
	},
	"AWS::EC2::Subnet": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"AvailabilityZone":    str,
			"CidrBlock":           str,
			"MapPublicIpOnLaunch": boolean,
			"VpcId":               str,
			"Tags":                list,
		},
	},
	"AWS::EC2::InternetGateway": {
		Properties: map[string]PropertySchema{"Tags": list},
	},
	"AWS::EC2::VPCGatewayAttachment": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"InternetGatewayId": str,
			"VpcId":             str,
		},
	},
	"AWS::EC2::EIP": {
		Properties: map[string]PropertySchema{
			"Domain": {Type: "String", AllowedValues: []string{"vpc", "standard"}},
			"Tags":   list,
		},
	},
	"AWS::EC2::NatGateway": {
		Required: []string{"SubnetId"},
		Properties: map[string]PropertySchema{
			"AllocationId":     str,
			"ConnectivityType": {Type: "String", AllowedValues: []string{"public", "private"}},
			"SubnetId":         str,
			"Tags":             list,
		},
	},
	"AWS::EC2::RouteTable": {
		Required: []string{"VpcId"},
		Properties: map[string]PropertySchema{
			"VpcId": str,
			"Tags":  list,
		},
	},
	"AWS::EC2::Route": {
		Required: []string{"RouteTableId"},
		Properties: map[string]PropertySchema{
			"DestinationCidrBlock": str,
			"GatewayId":            str,
			"NatGatewayId":         str,
			"RouteTableId":         str,
		},
	},
	"AWS::EC2::SubnetRouteTableAssociation": {
		Required: []string{"RouteTableId", "SubnetId"},
		Properties: map[string]PropertySchema{
			"RouteTableId": str,
			"SubnetId":     str,
		},
	},
	"AWS::EC2::SecurityGroup": {
		Required: []string{"GroupDescription"},
		Properties: map[string]PropertySchema{
			"GroupDescription":     str,
			"GroupName":            str,
			"SecurityGroupEgress":  list,
			"SecurityGroupIngress": list,
			"VpcId":                str,
			"Tags":                 list,
		},
	},
	"AWS::EC2::Instance": {
		Required: []string{"ImageId"},
		Properties: map[string]PropertySchema{
			"AvailabilityZone": str,
			"ImageId":          str,
			"InstanceType":     str,
			"SecurityGroupIds": list,
			"SubnetId":         str,
			"Tags":             list,
		},
	},
	"AWS::ElasticLoadBalancingV2::LoadBalancer": {
		Properties: map[string]PropertySchema{
			"IpAddressType":          {Type: "String", AllowedValues: []string{"ipv4", "dualstack"}},
			"LoadBalancerAttributes": list,
			"Scheme":                 {Type: "String", AllowedValues: []string{"internet-facing", "internal"}},
			"SecurityGroups":         list,
			"Subnets":                list,
			"Type":                   {Type: "String", AllowedValues: []string{"application", "network", "gateway"}},
			"Tags":                   list,
		},
	},
	"AWS::ElasticLoadBalancingV2::TargetGroup": {
		Properties: map[string]PropertySchema{
			"HealthCheckEnabled":    boolean,
			"HealthCheckPath":       str,
			"Port":                  integer,
			"Protocol":              protocol,
			"TargetGroupAttributes": list,
			"TargetType":            {Type: "String", AllowedValues: []string{"instance", "ip", "lambda", "alb"}},
			"Targets":               list,
			"VpcId":                 str,
		},
	},
	"AWS::ElasticLoadBalancingV2::Listener": {
		Required: []string{"DefaultActions", "LoadBalancerArn"},
		Properties: map[string]PropertySchema{
			"DefaultActions":  list,
			"LoadBalancerArn": str,
			"Port":            integer,
			"Protocol":        protocol,
		},
	},
	"AWS::Logs::LogGroup": {
		Properties: map[string]PropertySchema{
			"LogGroupName": str,
			"RetentionInDays": {Type: "Integer", AllowedValues: []string{
				"1", "3", "5", "7", "14", "30", "60", "90", "120", "150", "180", "365", "400",
				"545", "731", "1096", "1827", "2192", "2557", "2922", "3288", "3653",
			}},
		},
	},
	"AWS::WAFv2::WebACL": {
		Required: []string{"DefaultAction", "Scope", "VisibilityConfig"},
		Properties: map[string]PropertySchema{
			"DefaultAction":    object,
			"Name":             str,
			"Rules":            list,
			"Scope":            {Type: "String", AllowedValues: []string{"REGIONAL", "CLOUDFRONT"}},
			"VisibilityConfig": object,
		},
	},
	"AWS::WAFv2::WebACLAssociation": {
		Required: []string{"ResourceArn", "WebACLArn"},
		Properties: map[string]PropertySchema{
			"ResourceArn": str,
			"WebACLArn":   str,
		},
	},
	"AWS::WAFv2::LoggingConfiguration": {
		Required: []string{"LogDestinationConfigs", "ResourceArn"},
		Properties: map[string]PropertySchema{
			"LogDestinationConfigs": list,
			"ResourceArn":           str,
		},
	},
}
