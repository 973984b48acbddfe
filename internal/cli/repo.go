package cli

// This file implements the "repo" command for provisioning the repository
// without building anything.

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yiktol/apcr-dva/internal/publish"
)

// NewRepoCmd builds the repo command.
func NewRepoCmd(logger *zap.Logger) *cobra.Command {
	return NewRepoCmdWithManager(DefaultManager(logger))
}

// NewRepoCmdWithManager returns the repo command using the provided manager.
func NewRepoCmdWithManager(mgr *Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Manage the ECR repository",
	}
	cmd.AddCommand(mgr.newRepoEnsureCmd())
	return cmd
}

func (m *Manager) newRepoEnsureCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "ensure",
		Short: "Create the repository if it does not exist",
		Long: `Create the ECR repository with scan-on-push, AES256 encryption and the
default lifecycle policy if it does not exist. An existing repository is left unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.complete(cmd)
			_, err := m.EnsureRepository(cmd.Context(), opts)
			return err
		},
	}
	opts.bind(cmd)
	return cmd
}

// EnsureRepository resolves the configuration and provisions the repository.
func (m *Manager) EnsureRepository(ctx context.Context, opts runOptions) (publish.Repository, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	printer := m.withQuiet(opts.quiet)

	cfg, registry, err := m.resolve(ctx, opts, printer)
	if err != nil {
		return publish.Repository{}, err
	}

	repo, err := publish.NewProvisioner(registry, m.logger, printer).EnsureRepository(ctx, cfg)
	if err != nil {
		return repo, err
	}

	printer.TableBoxed([][]string{
		{"Property", "Value"},
		{"Repository", repo.Name},
		{"URI", repo.URI},
		{"Created", strconv.FormatBool(repo.Created)},
		{"Lifecycle policy installed", strconv.FormatBool(repo.PolicyInstalled)},
	})
	return repo, nil
}
