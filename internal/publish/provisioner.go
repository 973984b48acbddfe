package publish

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/yiktol/apcr-dva/pkg/errx"
)

// Provisioner makes sure the target repository exists, creating it with a
// fixed security configuration and retention policy when it does not.
type Provisioner struct {
	registry RegistryAPI
	policy   LifecyclePolicy
	logger   *zap.Logger
	progress Reporter
}

// NewProvisioner creates a Provisioner with the given dependencies.
// A nil progress discards the trace.
func NewProvisioner(registry RegistryAPI, logger *zap.Logger, progress Reporter) *Provisioner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = nopReporter{}
	}
	return &Provisioner{
		registry: registry,
		policy:   DefaultLifecyclePolicy(),
		logger:   logger,
		progress: progress,
	}
}

// EnsureRepository returns the repository named by cfg, creating it first if needed.
//
// When the repository already exists nothing is changed. When it is created by this
// call the lifecycle policy is installed exactly once. The existence check and the
// create are not atomic; if another run creates the repository in between, the
// registry rejects our create and the repository is treated as present without
// installing the policy, which the winning run owns.
func (p *Provisioner) EnsureRepository(ctx context.Context, cfg Config) (Repository, error) {
	name := cfg.RepositoryName
	p.progress.Step(fmt.Sprintf("Checking repository %s in %s", name, cfg.Region))
	p.logger.Info("Checking repository", zap.String("repository", name), zap.String("region", cfg.Region))

	existing, err := p.registry.DescribeRepository(ctx, name)
	if err != nil {
		return Repository{}, p.fail(ErrRegistryQuery, err,
			fmt.Sprintf("failed to describe repository %s: %v", name, err),
			map[string]any{"repository": name, "region": cfg.Region, "component": "provisioner"},
			"Failed to check repository")
	}
	if existing != nil {
		repo := *existing
		repo.State = StatePresent
		if repo.URI == "" {
			repo.URI = cfg.RegistryURI()
		}
		p.progress.Success(fmt.Sprintf("Repository %s already exists", name))
		p.logger.Info("Repository already exists", zap.String("uri", repo.URI))
		return repo, nil
	}

	p.progress.Step(fmt.Sprintf("Creating repository %s", name))
	created, err := p.registry.CreateRepository(ctx, RepositorySpec{
		Name:           name,
		ScanOnPush:     true,
		EncryptionType: EncryptionAES256,
	})
	if errors.Is(err, ErrRepositoryExists) {
		p.logger.Warn("Repository was created concurrently; skipping lifecycle policy", zap.String("repository", name))
		p.progress.Success(fmt.Sprintf("Repository %s already exists", name))
		return Repository{
			Name:  name,
			URI:   cfg.RegistryURI(),
			State: StatePresent,
		}, nil
	}
	if err != nil {
		return Repository{}, p.fail(ErrRegistryProvision, err,
			fmt.Sprintf("failed to create repository %s: %v", name, err),
			map[string]any{"repository": name, "region": cfg.Region, "component": "provisioner"},
			"Failed to create repository")
	}

	repo := Repository{
		Name:           name,
		URI:            cfg.RegistryURI(),
		ScanOnPush:     true,
		EncryptionType: EncryptionAES256,
	}
	if created != nil {
		repo = *created
		if repo.URI == "" {
			repo.URI = cfg.RegistryURI()
		}
	}
	repo.State = StatePresent
	repo.Created = true
	p.progress.Success(fmt.Sprintf("Created repository %s", repo.URI))
	p.logger.Info("Repository created", zap.String("uri", repo.URI))

	if err := p.installPolicy(ctx, cfg); err != nil {
		return repo, err
	}
	repo.PolicyInstalled = true
	return repo, nil
}

// installPolicy puts the lifecycle policy on a repository created by this run.
// A failure leaves the repository in place without a policy.
func (p *Provisioner) installPolicy(ctx context.Context, cfg Config) error {
	name := cfg.RepositoryName
	p.progress.Step(fmt.Sprintf("Installing lifecycle policy on %s", name))

	if err := p.policy.Validate(); err != nil {
		return p.fail(ErrPolicyInstall, err,
			fmt.Sprintf("invalid lifecycle policy: %v", err),
			map[string]any{"repository": name, "component": "policy"},
			"Invalid lifecycle policy")
	}
	if err := p.registry.PutLifecyclePolicy(ctx, name, p.policy); err != nil {
		return p.fail(ErrPolicyInstall, err,
			fmt.Sprintf("failed to install lifecycle policy on %s: %v", name, err),
			map[string]any{"repository": name, "rules": len(p.policy.Rules), "component": "policy"},
			"Failed to install lifecycle policy")
	}

	p.progress.Success(fmt.Sprintf("Lifecycle policy installed (%d rules)", len(p.policy.Rules)))
	p.logger.Info("Lifecycle policy installed", zap.String("repository", name), zap.Int("rules", len(p.policy.Rules)))
	return nil
}

func (p *Provisioner) fail(base, cause error, msg string, context map[string]any, headline string) error {
	return reportFailure(p.logger, p.progress, base, cause, msg, context, headline)
}

// reportFailure wraps cause with base, prints headline and logs the structured error.
func reportFailure(logger *zap.Logger, progress Reporter, base, cause error, msg string, context map[string]any, headline string) error {
	wrappedErr := wrapWithSentinelAndContext(base, cause, msg, context)
	progress.Error(headline)
	errx.LogStructured(logger, wrappedErr, headline)
	return wrappedErr
}
