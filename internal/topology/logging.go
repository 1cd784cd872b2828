package topology

import (
	"fmt"
	"strings"

	albwaf "github.com/lex00/wetwire-albwaf-go"
	"github.com/lex00/wetwire-albwaf-go/intrinsics"
	"github.com/lex00/wetwire-albwaf-go/resources/logs"
	"github.com/lex00/wetwire-albwaf-go/resources/wafv2"
)

// LogSinkPrefix is the name prefix WAF requires of CloudWatch log
// destinations.
const LogSinkPrefix = "aws-waf-logs-"

// LogSinkOptions configures BuildLogSink.
type LogSinkOptions struct {
	// Name defaults to aws-waf-logs-dashboard.
	Name string
	// RetentionDays defaults to 731.
	RetentionDays int
	// RemovalPolicy defaults to albwaf.RemovalDestroy.
	RemovalPolicy string
}

func (o LogSinkOptions) withDefaults() LogSinkOptions {
	if o.Name == "" {
		o.Name = LogSinkPrefix + "dashboard"
	}
	if o.RetentionDays == 0 {
		o.RetentionDays = 731
	}
	if o.RemovalPolicy == "" {
		o.RemovalPolicy = albwaf.RemovalDestroy
	}
	return o
}

// LogSink is the log group WAF delivers logs to.
type LogSink struct {
	id            string
	name          string
	retentionDays int
	removalPolicy string
	resources     []albwaf.DeclaredResource
}

// ID implements Declaration.
func (s *LogSink) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Kind implements Declaration.
func (s *LogSink) Kind() Kind { return KindLogSink }

// DependsOn implements Declaration.
func (s *LogSink) DependsOn() []string { return nil }

// Resources implements Declaration.
func (s *LogSink) Resources() []albwaf.DeclaredResource { return s.resources }

// Name returns the log group name.
func (s *LogSink) Name() string { return s.name }

// RetentionDays returns the retention in days.
func (s *LogSink) RetentionDays() int { return s.retentionDays }

// RemovalPolicy returns what happens to the log group when the stack is
// deleted.
func (s *LogSink) RemovalPolicy() string { return s.removalPolicy }

// Arn returns a reference to the log group ARN.
func (s *LogSink) Arn() albwaf.AttrRef {
	return albwaf.AttrRef{Resource: s.id, Attribute: "Arn"}
}

// Ref returns a reference to the log group name.
func (s *LogSink) Ref() intrinsics.Ref { return intrinsics.RefTo(s.id) }

// BuildLogSink declares the log group.
func (a *Assembler) BuildLogSink(opts LogSinkOptions) (*LogSink, error) {
	opts = opts.withDefaults()

	if !strings.HasPrefix(opts.Name, LogSinkPrefix) || len(opts.Name) == len(LogSinkPrefix) {
		return nil, fmt.Errorf("%w: %q must start with %s", ErrInvalidLogSinkName, opts.Name, LogSinkPrefix)
	}
	if len(opts.Name) > 512 {
		return nil, fmt.Errorf("%w: %q is longer than 512 characters", ErrInvalidLogSinkName, opts.Name)
	}
	switch opts.RemovalPolicy {
	case albwaf.RemovalDestroy, albwaf.RemovalRetain:
	default:
		return nil, fmt.Errorf("log sink: unknown removal policy %q", opts.RemovalPolicy)
	}

	s := &LogSink{
		id:            LogSinkID,
		name:          opts.Name,
		retentionDays: opts.RetentionDays,
		removalPolicy: opts.RemovalPolicy,
	}
	s.resources = ownedBy(s.id, []albwaf.DeclaredResource{
		{LogicalID: s.id, Resource: logs.LogGroup{
			LogGroupName:    s.name,
			RetentionInDays: s.retentionDays,
		}, RemovalPolicy: s.removalPolicy},
	})

	a.logger.Debug("declared log sink", "name", s.name, "removal", s.removalPolicy)
	return s, nil
}

// LoggingBinding sends the policy's logs to the log sink.
type LoggingBinding struct {
	id        string
	policy    string
	sink      string
	resources []albwaf.DeclaredResource
}

// ID implements Declaration.
func (b *LoggingBinding) ID() string {
	if b == nil {
		return ""
	}
	return b.id
}

// Kind implements Declaration.
func (b *LoggingBinding) Kind() Kind { return KindLoggingBinding }

// DependsOn implements Declaration.
func (b *LoggingBinding) DependsOn() []string { return []string{b.policy, b.sink} }

// Resources implements Declaration.
func (b *LoggingBinding) Resources() []albwaf.DeclaredResource { return b.resources }

// PolicyID returns the ID of the logged policy.
func (b *LoggingBinding) PolicyID() string { return b.policy }

// SinkID returns the ID of the log sink.
func (b *LoggingBinding) SinkID() string { return b.sink }

// BindFirewallLogging sends the logs of policy to sink.
func (a *Assembler) BindFirewallLogging(policy *FirewallPolicy, sink *LogSink) (*LoggingBinding, error) {
	if !resolved(policy) {
		return nil, fmt.Errorf("firewall logging: %w: policy", ErrUnresolvedReference)
	}
	if !resolved(sink) {
		return nil, fmt.Errorf("firewall logging: %w: log sink", ErrUnresolvedReference)
	}

	b := &LoggingBinding{
		id:     LoggingBindingID,
		policy: policy.ID(),
		sink:   sink.ID(),
	}
	b.resources = ownedBy(b.id, []albwaf.DeclaredResource{
		{LogicalID: b.id, Resource: wafv2.LoggingConfiguration{
			LogDestinationConfigs: []any{sink.Arn()},
			ResourceArn:           policy.Arn(),
		}},
	})

	a.logger.Debug("bound firewall logging", "policy", policy.ID(), "sink", sink.Name())
	return b, nil
}
