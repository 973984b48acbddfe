package publish

// This file implements the publish pipeline: ensure repository, authenticate,
// then build, tag and push. Every stage gates the next; the first error ends the
// run and nothing already done is undone. Re-running the whole pipeline is the
// recovery path: the existence check skips creation and tag/push overwrite in place.

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Pipeline runs the provisioning and publish stages in order.
type Pipeline struct {
	provisioner *Provisioner
	auth        *Authenticator
	images      ImageTool
	logger      *zap.Logger
	progress    Reporter
}

// NewPipeline creates a Pipeline with the given dependencies.
func NewPipeline(registry RegistryAPI, images ImageTool, logger *zap.Logger, progress Reporter) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = nopReporter{}
	}
	return &Pipeline{
		provisioner: NewProvisioner(registry, logger, progress),
		auth:        NewAuthenticator(registry, images, logger, progress),
		images:      images,
		logger:      logger,
		progress:    progress,
	}
}

// Run executes ensure -> login -> build -> tag -> push.
// On failure the returned PushResult carries the remote reference with Success=false.
func (p *Pipeline) Run(ctx context.Context, cfg Config) (PushResult, error) {
	result := PushResult{RemoteReference: cfg.RemoteReference()}

	if _, err := p.provisioner.EnsureRepository(ctx, cfg); err != nil {
		return result, err
	}
	if err := p.auth.Login(ctx, cfg); err != nil {
		return result, err
	}
	artifact, err := p.Build(ctx, cfg)
	if err != nil {
		return result, err
	}
	remote, err := p.Tag(ctx, cfg, artifact)
	if err != nil {
		return result, err
	}
	return p.Push(ctx, remote)
}

// Build builds the local image appName:imageTag from the build context.
func (p *Pipeline) Build(ctx context.Context, cfg Config) (BuildArtifact, error) {
	ref := cfg.LocalReference()
	p.progress.Step(fmt.Sprintf("Building %s", ref))
	p.logger.Info("Building image",
		zap.String("image", ref),
		zap.String("context", cfg.BuildContext),
		zap.String("dockerfile", cfg.Dockerfile),
	)

	req := BuildRequest{
		ContextDir: cfg.BuildContext,
		Dockerfile: cfg.Dockerfile,
		Reference:  ref,
		Platform:   cfg.Platform,
	}
	if err := p.images.Build(ctx, req); err != nil {
		return BuildArtifact{}, reportFailure(p.logger, p.progress, ErrBuild, err,
			fmt.Sprintf("failed to build image %s: %v", ref, err),
			map[string]any{"image": ref, "context": cfg.BuildContext, "dockerfile": cfg.Dockerfile, "component": "build"},
			"Failed to build image")
	}

	p.progress.Success(fmt.Sprintf("Built %s", ref))
	p.logger.Info("Image built successfully", zap.String("image", ref))
	return BuildArtifact{LocalReference: ref}, nil
}

// Tag points registryURI:imageTag at the built artifact and returns the remote reference.
func (p *Pipeline) Tag(ctx context.Context, cfg Config, artifact BuildArtifact) (string, error) {
	target := cfg.RemoteReference()
	p.progress.Step(fmt.Sprintf("Tagging %s as %s", artifact.LocalReference, target))

	if err := p.images.Tag(ctx, artifact.LocalReference, target); err != nil {
		return "", reportFailure(p.logger, p.progress, ErrTag, err,
			fmt.Sprintf("failed to tag image: %v", err),
			map[string]any{"source": artifact.LocalReference, "target": target, "component": "tag"},
			"Failed to tag image")
	}

	p.logger.Info("Image tagged", zap.String("source", artifact.LocalReference), zap.String("target", target))
	return target, nil
}

// Push transmits remote to the registry.
func (p *Pipeline) Push(ctx context.Context, remote string) (PushResult, error) {
	p.progress.Step(fmt.Sprintf("Pushing %s", remote))

	if err := p.images.Push(ctx, remote); err != nil {
		return PushResult{RemoteReference: remote}, reportFailure(p.logger, p.progress, ErrPush, err,
			fmt.Sprintf("failed to push image: %v", err),
			map[string]any{"target": remote, "component": "push"},
			"Failed to push image")
	}

	p.progress.Success(fmt.Sprintf("Pushed %s", remote))
	p.logger.Info("Image pushed", zap.String("target", remote))
	return PushResult{RemoteReference: remote, Success: true}, nil
}
