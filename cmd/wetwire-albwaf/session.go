package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/lex00/wetwire-albwaf-go/internal/config"
	"github.com/lex00/wetwire-albwaf-go/internal/logging"
	"github.com/lex00/wetwire-albwaf-go/internal/lookup"
	"github.com/lex00/wetwire-albwaf-go/internal/topology"
)

const envImageName = config.EnvImageName

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	imageName  string
	region     string
	noLookups  bool
}

// loadConfig reads the config file and applies environment and flag
// overrides, in that order.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigFile); err == nil {
			path = config.DefaultConfigFile
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	conf, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if o.imageName != "" {
		conf.Instance.ImageName = o.imageName
	}
	if o.region != "" {
		conf.Stack.Region = o.region
	}
	if o.noLookups {
		conf.Lookup.Disabled = true
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// session holds what a command needs to assemble the topology.
type session struct {
	conf     *config.Config
	logger   *slog.Logger
	context  *lookup.ContextFile
	provider *lookup.CachedProvider
}

func (o *globalOptions) newSession(ctx context.Context) (*session, error) {
	conf, err := o.loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(os.Stderr, conf.Logging)
	if err != nil {
		return nil, err
	}
	logger = logger.With("stack", conf.Stack.Name)

	file, err := lookup.LoadContextFile(conf.Lookup.ContextFile)
	if err != nil {
		return nil, err
	}

	var (
		live lookup.Provider
		env  = lookup.Environment{Account: conf.Stack.Account, Region: conf.Stack.Region}
	)
	if conf.Lookup.Disabled {
		live = lookup.NewStaticProvider()
		if env.Account == "" {
			env.Account = lookup.DummyAccount
		}
		if env.Region == "" {
			env.Region = lookup.DummyRegion
		}
	} else {
		ec2Provider, err := lookup.NewEC2Provider(ctx, conf.Stack.Region)
		if err != nil {
			return nil, err
		}
		env, err = ec2Provider.Environment(ctx)
		if err != nil {
			return nil, err
		}
		live = ec2Provider
	}
	logger.Debug("lookup environment", "env", env.String(), "offline", conf.Lookup.Disabled)

	return &session{
		conf:     conf,
		logger:   logger,
		context:  file,
		provider: lookup.NewCachedProvider(env, live, file, logger),
	}, nil
}

// params converts the config into assembly parameters.
func (s *session) params() topology.Params {
	return topology.Params{
		ImageName: s.conf.Instance.ImageName,
		Network: topology.NetworkOptions{
			CIDR:        s.conf.Network.CIDR,
			MaxAZs:      s.conf.Network.MaxAZs,
			NATGateways: s.conf.Network.NATGateways,
		},
		AdminPort: s.conf.LoadBalancer.AdminPort,
		LogSink: topology.LogSinkOptions{
			Name:          s.conf.LogSink.Name,
			RetentionDays: s.conf.LogSink.RetentionDays,
		},
	}
}

// assemble builds the plan and saves any lookups recorded on the way.
func (s *session) assemble(ctx context.Context) (*topology.Plan, error) {
	assembler := topology.New(s.provider, s.provider,
		topology.WithLogger(s.logger),
		topology.WithInstanceType(s.conf.Instance.InstanceType),
		topology.WithAppPort(s.conf.LoadBalancer.Port),
		topology.WithHealthCheckPath(s.conf.LoadBalancer.HealthCheckPath),
	)

	plan, err := assembler.Assemble(ctx, s.params())
	if err != nil {
		return nil, err
	}

	if err := s.context.Save(); err != nil {
		return nil, fmt.Errorf("saving lookup context: %w", err)
	}
	return plan, nil
}

// loadPlan is the common path of commands that only need the plan.
func (o *globalOptions) loadPlan(ctx context.Context) (*session, *topology.Plan, error) {
	s, err := o.newSession(ctx)
	if err != nil {
		return nil, nil, err
	}
	plan, err := s.assemble(ctx)
	if err != nil {
		return nil, nil, err
	}
	return s, plan, nil
}
