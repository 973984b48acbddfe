package cli

// This file implements the "publish" command: make sure the repository exists,
// log in, then build, tag and push the image.

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yiktol/apcr-dva/internal/publish"
)

// NewPublishCmd builds the publish command.
func NewPublishCmd(logger *zap.Logger) *cobra.Command {
	return NewPublishCmdWithManager(DefaultManager(logger))
}

// NewPublishCmdWithManager returns the publish command using the provided manager.
func NewPublishCmdWithManager(mgr *Manager) *cobra.Command {
	var opts runOptions
	var builder string

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Build and push an image to ECR",
		Long: `Ensure the ECR repository exists, then build, tag and push the image.

A repository created by this run gets scan-on-push, AES256 encryption and the
default lifecycle policy. An existing repository is used as is.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.complete(cmd)
			_, err := mgr.Publish(cmd.Context(), opts, builder)
			return err
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVar(&builder, flagBuilder, defaultBuilder, "Image builder: cli (docker binary) or engine (Docker Engine API)")

	return cmd
}

// Publish runs the whole pipeline and prints a summary on success.
func (m *Manager) Publish(ctx context.Context, opts runOptions, builder string) (publish.PushResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	printer := m.withQuiet(opts.quiet)

	if err := validateBuilder(builder); err != nil {
		return publish.PushResult{}, fail(m.logger, printer, err, "Unknown builder")
	}

	printer.Header("ECR Publish")
	cfg, registry, err := m.resolve(ctx, opts, printer)
	if err != nil {
		return publish.PushResult{}, err
	}

	images, closeImages, err := m.images(builder, opts.quiet, m.logger)
	if err != nil {
		return publish.PushResult{RemoteReference: cfg.RemoteReference()}, fail(m.logger, printer, err, "Failed to start image builder")
	}
	defer func() {
		if err := closeImages(); err != nil {
			m.logger.Debug("Failed to close image builder", zap.Error(err))
		}
	}()

	pipeline := publish.NewPipeline(registry, images, m.logger, printer)
	result, err := pipeline.Run(ctx, cfg)
	if err != nil {
		return result, err
	}

	printer.Println()
	printer.TableBoxed([][]string{
		{"Property", "Value"},
		{"Repository", cfg.RegistryURI()},
		{"Image", cfg.LocalReference()},
		{"Pushed", result.RemoteReference},
		{"Success", strconv.FormatBool(result.Success)},
	})
	return result, nil
}
