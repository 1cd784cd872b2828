// Package config loads the wetwire-albwaf configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoConfigVersion error is returned when the configuration does not specify
// config format version.
var ErrNoConfigVersion = errors.New("config format version not specified")

// ErrUnsupportedVersion is an error, which is returned when the config file
// uses an incompatible version format.
var ErrUnsupportedVersion = errors.New("unsupported config format version")

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// ConfigFormatVersion represents the supported config format version.
const ConfigFormatVersion = "v1alpha1"

// DefaultConfigFile is the config file looked for in the working directory.
const DefaultConfigFile = "wetwire.yaml"

// Environment variables that override the config file.
const (
	EnvImageName = "WETWIRE_IMAGE_NAME"
	EnvStackName = "WETWIRE_STACK_NAME"
	EnvRegion    = "AWS_REGION"
)

// Defaults.
const (
	DefaultStackName    = "AlbWafStack"
	DefaultImageName    = "nginx-server"
	DefaultInstanceType = "t3.large"
	DefaultVPCCIDR      = "10.0.0.0/16"
	DefaultMaxAZs       = 2
	DefaultNATGateways  = 1
	DefaultAppPort      = 80
	DefaultAdminPort    = 22
	DefaultHealthPath   = "/"
	DefaultLogSinkName  = "aws-waf-logs-dashboard"
	DefaultRetention    = 731
	DefaultContextFile  = "wetwire.context.json"
)

// Config represents the wetwire-albwaf configuration.
type Config struct {
	// Version is the version of the config file.
	Version string `yaml:"version"`

	// Stack configures the synthesised stack.
	Stack StackConfig `yaml:"stack"`

	// Network configures the VPC.
	Network NetworkConfig `yaml:"network"`

	// Instance configures the compute instance.
	Instance InstanceConfig `yaml:"instance"`

	// LoadBalancer configures the listener and health check.
	LoadBalancer LoadBalancerConfig `yaml:"load_balancer"`

	// LogSink configures the WAF log group.
	LogSink LogSinkConfig `yaml:"log_sink"`

	// Lookup configures account lookups.
	Lookup LookupConfig `yaml:"lookup"`

	// Logging configures the logger.
	Logging LoggingConfig `yaml:"logging"`
}

// StackConfig provides stack level settings.
type StackConfig struct {
	// Name is the stack name. Resource Name tags are prefixed with it.
	Name string `yaml:"name"`

	// Description becomes the template description.
	Description string `yaml:"description"`

	// Region is the target region for lookups.
	Region string `yaml:"region"`

	// Account is the target account. It is only needed when lookups are
	// disabled, to find answers recorded against a live account.
	Account string `yaml:"account"`
}

// NetworkConfig provides VPC settings.
type NetworkConfig struct {
	// CIDR is the VPC address range.
	CIDR string `yaml:"cidr"`

	// MaxAZs is the number of availability zones to span.
	MaxAZs int `yaml:"max_azs"`

	// NATGateways is the number of NAT gateways.
	NATGateways int `yaml:"nat_gateways"`
}

// InstanceConfig provides compute instance settings.
type InstanceConfig struct {
	// ImageName is the image lookup key.
	ImageName string `yaml:"image_name"`

	// InstanceType is the EC2 instance type.
	InstanceType string `yaml:"instance_type"`
}

// LoadBalancerConfig provides load balancer settings.
type LoadBalancerConfig struct {
	// Port is the application port opened on the security group and used
	// by the listener and target group.
	Port int `yaml:"port"`

	// AdminPort is the second ingress port.
	AdminPort int `yaml:"admin_port"`

	// HealthCheckPath is the target group health check path.
	HealthCheckPath string `yaml:"health_check_path"`
}

// LogSinkConfig provides WAF log group settings.
type LogSinkConfig struct {
	// Name is the log group name.
	Name string `yaml:"name"`

	// RetentionDays is the retention in days.
	RetentionDays int `yaml:"retention_days"`
}

// LookupConfig provides lookup settings.
type LookupConfig struct {
	// Disabled makes every lookup use the context file only.
	Disabled bool `yaml:"disabled"`

	// ContextFile is the path of the lookup context file.
	ContextFile string `yaml:"context_file"`
}

// LoggingConfig provides the logging settings.
type LoggingConfig struct {
	// Level is the log level: info, warn, error or debug.
	Level string `yaml:"level"`

	// Format is the log format: text or json.
	Format string `yaml:"format"`

	// AddSource adds the source location to log events.
	AddSource bool `yaml:"add_source"`

	// Attributes are added to every log event.
	Attributes map[string]string `yaml:"attributes"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	conf := &Config{Version: ConfigFormatVersion}
	conf.applyDefaults()
	return conf
}

// Parse parses the config from the given path.
func Parse(path string) (*Config, error) {
	var conf Config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, &conf); err != nil {
		return nil, err
	}

	if conf.Version == "" {
		return nil, ErrNoConfigVersion
	}

	if conf.Version != ConfigFormatVersion {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, conf.Version)
	}

	conf.applyDefaults()
	return &conf, nil
}

// MustParse parses the config from the given path, or panics in case of errors.
func MustParse(path string) *Config {
	config, err := Parse(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load parses path, or returns the defaults when path is empty. Environment
// overrides are applied in both cases.
func Load(path string) (*Config, error) {
	conf := Default()
	if path != "" {
		parsed, err := Parse(path)
		if err != nil {
			return nil, err
		}
		conf = parsed
	}

	conf.ApplyEnv(os.LookupEnv)
	return conf, nil
}

func (c *Config) applyDefaults() {
	if c.Stack.Name == "" {
		c.Stack.Name = DefaultStackName
	}
	if c.Stack.Description == "" {
		c.Stack.Description = "WAF protected application load balancer in front of a single instance"
	}
	if c.Network.CIDR == "" {
		c.Network.CIDR = DefaultVPCCIDR
	}
	if c.Network.MaxAZs == 0 {
		c.Network.MaxAZs = DefaultMaxAZs
	}
	if c.Network.NATGateways == 0 {
		c.Network.NATGateways = DefaultNATGateways
	}
	if c.Instance.ImageName == "" {
		c.Instance.ImageName = DefaultImageName
	}
	if c.Instance.InstanceType == "" {
		c.Instance.InstanceType = DefaultInstanceType
	}
	if c.LoadBalancer.Port == 0 {
		c.LoadBalancer.Port = DefaultAppPort
	}
	if c.LoadBalancer.AdminPort == 0 {
		c.LoadBalancer.AdminPort = DefaultAdminPort
	}
	if c.LoadBalancer.HealthCheckPath == "" {
		c.LoadBalancer.HealthCheckPath = DefaultHealthPath
	}
	if c.LogSink.Name == "" {
		c.LogSink.Name = DefaultLogSinkName
	}
	if c.LogSink.RetentionDays == 0 {
		c.LogSink.RetentionDays = DefaultRetention
	}
	if c.Lookup.ContextFile == "" {
		c.Lookup.ContextFile = DefaultContextFile
	}
}

// ApplyEnv overrides settings from the environment. Non-empty variables
// win over the file.
func (c *Config) ApplyEnv(lookupEnv func(string) (string, bool)) {
	if v, ok := lookupEnv(EnvImageName); ok && v != "" {
		c.Instance.ImageName = v
	}
	if v, ok := lookupEnv(EnvStackName); ok && v != "" {
		c.Stack.Name = v
	}
	if v, ok := lookupEnv(EnvRegion); ok && v != "" {
		c.Stack.Region = v
	}
}

// Validate checks the settings the topology cannot check itself. NAT and
// subnet allocation are checked when the network is built.
func (c *Config) Validate() error {
	var problems []string

	if c.Network.MaxAZs < 1 {
		problems = append(problems, "network.max_azs must be positive")
	}
	if c.LoadBalancer.Port < 1 || c.LoadBalancer.Port > 65535 {
		problems = append(problems, fmt.Sprintf("load_balancer.port %d out of range", c.LoadBalancer.Port))
	}
	if c.LoadBalancer.AdminPort < 1 || c.LoadBalancer.AdminPort > 65535 {
		problems = append(problems, fmt.Sprintf("load_balancer.admin_port %d out of range", c.LoadBalancer.AdminPort))
	}
	if c.LoadBalancer.Port == c.LoadBalancer.AdminPort {
		problems = append(problems, fmt.Sprintf("load_balancer.port and load_balancer.admin_port are both %d", c.LoadBalancer.Port))
	}
	if !strings.HasPrefix(c.LoadBalancer.HealthCheckPath, "/") {
		problems = append(problems, "load_balancer.health_check_path must start with /")
	}
	if !strings.HasPrefix(c.LogSink.Name, "aws-waf-logs-") {
		problems = append(problems, "log_sink.name must start with aws-waf-logs-")
	}
	if strings.TrimSpace(c.Instance.ImageName) == "" {
		problems = append(problems, "instance.image_name is empty")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}
