package cli

// This file implements the "config" command for inspecting and saving the
// layered run parameters.

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/yiktol/apcr-dva/internal/publish"
)

// NewConfigCmd builds the config command.
func NewConfigCmd(logger *zap.Logger) *cobra.Command {
	return NewConfigCmdWithManager(DefaultManager(logger))
}

// NewConfigCmdWithManager returns the config command using the provided manager.
func NewConfigCmdWithManager(mgr *Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or save run parameters",
		Long: `Run parameters are layered, highest first: flags, process environment,
.env file, config file (~/.ecr-publish/config.yaml), defaults.`,
	}
	cmd.AddCommand(mgr.newConfigShowCmd())
	cmd.AddCommand(mgr.newConfigSaveCmd())
	return cmd
}

func (m *Manager) newConfigShowCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective run parameters as YAML",
		Long:  "Print the effective run parameters as YAML. The account is not looked up.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.complete(cmd)
			return m.ShowConfig(cmd.OutOrStdout(), opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

func (m *Manager) newConfigSaveCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Write the given flags to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.complete(cmd)
			return m.SaveConfig(opts)
		},
	}
	opts.bind(cmd)
	return cmd
}

// ShowConfig writes the merged layers with defaults applied.
func (m *Manager) ShowConfig(w io.Writer, opts runOptions) error {
	overrides, err := resolveOverrides(opts, m.env)
	if err != nil {
		return fail(m.logger, m.withQuiet(opts.quiet), err, "Failed to load configuration")
	}
	data, err := yaml.Marshal(overrides.WithDefaults())
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return wrapWithSentinel(ErrWriteOutputFailed, err, fmt.Sprintf("failed to write config: %v", err))
	}
	return nil
}

// SaveConfig merges the flags onto the existing config file and writes it back.
func (m *Manager) SaveConfig(opts runOptions) error {
	printer := m.withQuiet(opts.quiet)
	current, err := loadConfigFile(opts.configPath, false)
	if err != nil {
		return fail(m.logger, printer, err, "Failed to load configuration")
	}
	merged := current.Merge(opts.overrides)
	if err := saveConfigFile(opts.configPath, merged); err != nil {
		wrapped := publish.ConfigError(err,
			fmt.Sprintf("failed to save config file: %v", err),
			map[string]any{"path": opts.configPath, "component": "config"})
		return fail(m.logger, printer, wrapped, "Failed to save configuration")
	}
	printer.Success("Configuration saved")
	return nil
}
