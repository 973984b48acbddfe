package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/yiktol/apcr-dva/internal/cloud"
	"github.com/yiktol/apcr-dva/internal/docker"
	"github.com/yiktol/apcr-dva/internal/publish"
	"github.com/yiktol/apcr-dva/pkg/errx"
)

// AWSClients opens the identity and registry services for a region.
type AWSClients func(ctx context.Context, region string, logger *zap.Logger) (publish.IdentityService, publish.RegistryAPI, error)

// ImageTools opens the named build backend. The returned close function is never nil.
type ImageTools func(builder string, quiet bool, logger *zap.Logger) (publish.ImageTool, func() error, error)

// Manager holds the dependencies shared by the commands.
type Manager struct {
	logger  *zap.Logger
	printer *Printer
	env     publish.EnvReader
	aws     AWSClients
	images  ImageTools
}

// NewManager creates a Manager with the given dependencies.
func NewManager(logger *zap.Logger, printer *Printer, env publish.EnvReader, aws AWSClients, images ImageTools) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if printer == nil {
		printer = DefaultPrinter
	}
	if env == nil {
		env = publish.OSEnv{}
	}
	return &Manager{
		logger:  logger,
		printer: printer,
		env:     env,
		aws:     aws,
		images:  images,
	}
}

// DefaultManager returns a Manager wired to AWS and the local Docker installation.
func DefaultManager(logger *zap.Logger) *Manager {
	return NewManager(logger, DefaultPrinter, publish.OSEnv{}, defaultAWSClients, defaultImageTools)
}

func defaultAWSClients(ctx context.Context, region string, logger *zap.Logger) (publish.IdentityService, publish.RegistryAPI, error) {
	cfg, err := cloud.LoadConfig(ctx, region)
	if err != nil {
		return nil, nil, publish.ConfigError(err,
			fmt.Sprintf("failed to load AWS configuration: %v", err),
			map[string]any{"region": region, "component": "config"})
	}
	return cloud.NewIdentityFromConfig(cfg), cloud.NewRegistryFromConfig(cfg, logger), nil
}

func defaultImageTools(builder string, quiet bool, logger *zap.Logger) (publish.ImageTool, func() error, error) {
	var stdout io.Writer = os.Stdout
	if quiet {
		stdout = io.Discard
	}
	switch builder {
	case builderCLI:
		return docker.NewCLI(docker.OSExecutor{}, logger).WithOutput(stdout, os.Stderr), func() error { return nil }, nil
	case builderEngine:
		engine, err := docker.NewEngine(logger)
		if err != nil {
			return nil, nil, wrapWithSentinelAndContext(ErrImageToolUnavailable, err,
				fmt.Sprintf("failed to connect to Docker Engine: %v", err),
				map[string]any{"builder": builder, "component": "build"})
		}
		return engine.WithOutput(stdout), engine.Close, nil
	default:
		return nil, nil, unknownBuilder(builder)
	}
}

func unknownBuilder(builder string) error {
	return newWithSentinel(ErrUnknownBuilder,
		fmt.Sprintf("unknown builder %q (supported: %s, %s)", builder, builderCLI, builderEngine)).
		WithContext("builder", builder)
}

func validateBuilder(builder string) error {
	if builder == builderCLI || builder == builderEngine {
		return nil
	}
	return unknownBuilder(builder)
}

// withQuiet returns the printer to use for one command run.
func (m *Manager) withQuiet(quiet bool) *Printer {
	if quiet {
		return &Printer{Quiet: true}
	}
	return m.printer
}

// resolve builds the run configuration, looking up the account through AWS.
func (m *Manager) resolve(ctx context.Context, opts runOptions, printer *Printer) (publish.Config, publish.RegistryAPI, error) {
	overrides, err := resolveOverrides(opts, m.env)
	if err != nil {
		return publish.Config{}, nil, fail(m.logger, printer, err, "Failed to load configuration")
	}
	region := overrides.WithDefaults().Region

	identity, registry, err := m.aws(ctx, region, m.logger)
	if err != nil {
		return publish.Config{}, nil, fail(m.logger, printer, err, "Failed to load AWS configuration")
	}

	stop := printer.SpinnerStart(fmt.Sprintf("Resolving account for region %s", region))
	cfg, err := publish.Resolve(ctx, overrides, identity)
	if err != nil {
		stop(false, "Failed to resolve configuration")
		errx.LogStructured(m.logger, err, "Failed to resolve configuration")
		return publish.Config{}, nil, err
	}
	stop(true, fmt.Sprintf("Account %s, target %s", cfg.AccountID, cfg.RemoteReference()))
	m.logger.Info("Configuration resolved",
		zap.String("region", cfg.Region),
		zap.String("repository", cfg.RepositoryName),
		zap.String("image", cfg.LocalReference()),
		zap.String("target", cfg.RemoteReference()),
	)
	return cfg, registry, nil
}
