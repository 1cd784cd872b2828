package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	conf := Default()

	assert.Equal(t, ConfigFormatVersion, conf.Version)
	assert.Equal(t, "nginx-server", conf.Instance.ImageName)
	assert.Equal(t, "t3.large", conf.Instance.InstanceType)
	assert.Equal(t, "10.0.0.0/16", conf.Network.CIDR)
	assert.Equal(t, 2, conf.Network.MaxAZs)
	assert.Equal(t, 1, conf.Network.NATGateways)
	assert.Equal(t, 80, conf.LoadBalancer.Port)
	assert.Equal(t, 22, conf.LoadBalancer.AdminPort)
	assert.Equal(t, "aws-waf-logs-dashboard", conf.LogSink.Name)
	assert.Equal(t, 731, conf.LogSink.RetentionDays)
	assert.Equal(t, DefaultContextFile, conf.Lookup.ContextFile)
	assert.NoError(t, conf.Validate())
}

func TestParse(t *testing.T) {
	path := writeConfig(t, `
version: v1alpha1
stack:
  name: staging
instance:
  image_name: nginx-server-v2
logging:
  level: debug
  format: json
`)

	conf, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", conf.Stack.Name)
	assert.Equal(t, "nginx-server-v2", conf.Instance.ImageName)
	assert.Equal(t, "debug", conf.Logging.Level)
	assert.Equal(t, "json", conf.Logging.Format)
	assert.Equal(t, 80, conf.LoadBalancer.Port, "defaults fill unset fields")
}

func TestParse_Versions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"missing version", "stack:\n  name: x\n", ErrNoConfigVersion},
		{"unsupported version", "version: v2\n", ErrUnsupportedVersion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, tt.content))
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestParse_MissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustParse(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvImageName: "from-env",
		EnvStackName: "env-stack",
		EnvRegion:    "eu-central-1",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	conf := Default()
	conf.ApplyEnv(lookup)

	assert.Equal(t, "from-env", conf.Instance.ImageName)
	assert.Equal(t, "env-stack", conf.Stack.Name)
	assert.Equal(t, "eu-central-1", conf.Stack.Region)
}

func TestApplyEnv_EnvRegionWins(t *testing.T) {
	conf := Default()
	conf.Stack.Region = "us-west-2"
	conf.ApplyEnv(func(k string) (string, bool) {
		if k == EnvRegion {
			return "eu-central-1", true
		}
		return "", false
	})

	assert.Equal(t, "eu-central-1", conf.Stack.Region)
}

func TestApplyEnv_EmptyKeepsFile(t *testing.T) {
	conf := Default()
	conf.Stack.Region = "us-west-2"
	conf.ApplyEnv(func(string) (string, bool) { return "", true })

	assert.Equal(t, "us-west-2", conf.Stack.Region)
	assert.Equal(t, DefaultImageName, conf.Instance.ImageName)
}

func TestLoad_Empty(t *testing.T) {
	t.Setenv(EnvImageName, "")
	conf, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultImageName, conf.Instance.ImageName)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "version: v1alpha1\ninstance:\n  image_name: from-file\n")
	t.Setenv(EnvImageName, "from-env")

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.Instance.ImageName)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"port too high", func(c *Config) { c.LoadBalancer.Port = 70000 }, "load_balancer.port"},
		{"admin port negative", func(c *Config) { c.LoadBalancer.AdminPort = -1 }, "load_balancer.admin_port"},
		{"health path", func(c *Config) { c.LoadBalancer.HealthCheckPath = "health" }, "health_check_path"},
		{"log sink prefix", func(c *Config) { c.LogSink.Name = "dashboard" }, "aws-waf-logs-"},
		{"blank image", func(c *Config) { c.Instance.ImageName = " " }, "image_name"},
		{"azs", func(c *Config) { c.Network.MaxAZs = -1 }, "max_azs"},
		{"same ports", func(c *Config) { c.LoadBalancer.AdminPort = c.LoadBalancer.Port }, "both 80"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Default()
			tt.mutate(conf)

			err := conf.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.substr)
		})
	}
}
