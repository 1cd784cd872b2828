package topology

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lex00/wetwire-albwaf-go/internal/lookup"
)

// Assembler builds topology declarations. It is not safe for concurrent
// use.
type Assembler struct {
	images lookup.ImageResolver
	zones  lookup.AZProvider
	logger *slog.Logger

	instanceType    string
	appPort         int
	healthCheckPath string

	// protected maps protected resource IDs to the policy bound to them.
	protected map[string]string
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithInstanceType sets the EC2 instance type. Defaults to t3.large.
func WithInstanceType(instanceType string) Option {
	return func(a *Assembler) { a.instanceType = instanceType }
}

// WithAppPort sets the application port used by the listener and the
// target group. Defaults to 80.
func WithAppPort(port int) Option {
	return func(a *Assembler) { a.appPort = port }
}

// WithHealthCheckPath sets the target group health check path. Defaults
// to "/".
func WithHealthCheckPath(path string) Option {
	return func(a *Assembler) { a.healthCheckPath = path }
}

// New returns an Assembler that resolves images and zones through the
// given providers.
func New(images lookup.ImageResolver, zones lookup.AZProvider, opts ...Option) *Assembler {
	a := &Assembler{
		images:          images,
		zones:           zones,
		logger:          slog.Default(),
		instanceType:    "t3.large",
		appPort:         80,
		healthCheckPath: "/",
		protected:       make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Params are the per-assembly inputs.
type Params struct {
	// ImageName is the image lookup key. Required.
	ImageName string
	// Network configures the VPC.
	Network NetworkOptions
	// AdminPort is the second ingress port. Defaults to 22.
	AdminPort int
	// Ingress overrides the default ingress rules when non-nil.
	Ingress []IngressRule
	// RuleGroups overrides the default managed rule groups when non-nil.
	RuleGroups []ManagedRuleGroup
	// LogSink configures the WAF log group.
	LogSink LogSinkOptions
}

// Assemble builds every declaration in dependency order and returns the
// plan. The first error aborts the assembly.
func (a *Assembler) Assemble(ctx context.Context, params Params) (*Plan, error) {
	if params.ImageName == "" {
		return nil, &ImageResolutionError{Key: params.ImageName, Err: errors.New("empty image lookup key")}
	}
	if params.AdminPort == 0 {
		params.AdminPort = 22
	}
	ingress := params.Ingress
	if ingress == nil {
		if params.AdminPort == a.appPort {
			return nil, fmt.Errorf("%w: admin and application ports are both %d", ErrInvalidPort, a.appPort)
		}
		ingress = DefaultIngressRules(params.AdminPort, a.appPort)
	}

	a.protected = make(map[string]string)

	network, err := a.BuildNetwork(ctx, params.Network)
	if err != nil {
		return nil, fmt.Errorf("building network: %w", err)
	}

	rules, err := a.BuildAccessRules(network, ingress)
	if err != nil {
		return nil, fmt.Errorf("building access rules: %w", err)
	}

	instance, err := a.BuildInstance(ctx, network, rules, params.ImageName)
	if err != nil {
		return nil, fmt.Errorf("building instance: %w", err)
	}

	lb, err := a.BuildLoadBalancer(network, rules, instance)
	if err != nil {
		return nil, fmt.Errorf("building load balancer: %w", err)
	}

	policy, err := a.BuildFirewallPolicy(params.RuleGroups)
	if err != nil {
		return nil, fmt.Errorf("building firewall policy: %w", err)
	}

	binding, err := a.BindFirewall(policy, lb)
	if err != nil {
		return nil, fmt.Errorf("binding firewall: %w", err)
	}

	sink, err := a.BuildLogSink(params.LogSink)
	if err != nil {
		return nil, fmt.Errorf("building log sink: %w", err)
	}

	logging, err := a.BindFirewallLogging(policy, sink)
	if err != nil {
		return nil, fmt.Errorf("binding firewall logging: %w", err)
	}

	plan := newPlan(network, rules, instance, lb, policy, binding, sink, logging)

	a.logger.Info("assembled topology",
		"declarations", len(plan.Declarations()),
		"resources", len(plan.Resources()),
		"image", instance.Image().ID,
	)
	return plan, nil
}
