package publish

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Authenticator exchanges a short-lived registry token for a build tool login.
type Authenticator struct {
	registry RegistryAPI
	images   ImageTool
	logger   *zap.Logger
	progress Reporter
}

// NewAuthenticator creates an Authenticator with the given dependencies.
func NewAuthenticator(registry RegistryAPI, images ImageTool, logger *zap.Logger, progress Reporter) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if progress == nil {
		progress = nopReporter{}
	}
	return &Authenticator{registry: registry, images: images, logger: logger, progress: progress}
}

// Login authenticates the image tool against the registry host of cfg.
func (a *Authenticator) Login(ctx context.Context, cfg Config) error {
	host := cfg.RegistryHost()
	a.progress.Step(fmt.Sprintf("Logging in to %s", host))
	a.logger.Info("Requesting registry credential", zap.String("registry", host))

	cred, err := a.registry.LoginCredential(ctx)
	if err == nil && (cred.Username == "" || cred.Password == "") {
		err = ErrCredentialNotFound
	}
	if err != nil {
		return reportFailure(a.logger, a.progress, ErrAuth, err,
			fmt.Sprintf("failed to get registry credential: %v", err),
			map[string]any{"registry": host, "component": "auth"},
			"Failed to get registry credential")
	}

	if err := a.images.Login(ctx, host, cred); err != nil {
		return reportFailure(a.logger, a.progress, ErrAuth, err,
			fmt.Sprintf("failed to login to registry %s: %v", host, err),
			map[string]any{"registry": host, "username": cred.Username, "component": "auth"},
			"Failed to login to registry")
	}

	a.progress.Success(fmt.Sprintf("Logged in to %s", host))
	a.logger.Info("Successfully logged into registry", zap.String("registry", host))
	return nil
}
