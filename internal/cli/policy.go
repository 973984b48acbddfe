package cli

// This file implements the "policy" command, which prints the lifecycle policy
// new repositories receive. It makes no AWS calls.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	"github.com/yiktol/apcr-dva/internal/publish"
)

// NewPolicyCmd builds the policy command.
func NewPolicyCmd(logger *zap.Logger) *cobra.Command {
	return NewPolicyCmdWithManager(DefaultManager(logger))
}

// NewPolicyCmdWithManager returns the policy command using the provided manager.
func NewPolicyCmdWithManager(mgr *Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the repository lifecycle policy",
	}
	cmd.AddCommand(mgr.newPolicyShowCmd())
	return cmd
}

func (m *Manager) newPolicyShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the lifecycle policy installed on new repositories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return m.ShowPolicy(cmd.OutOrStdout(), output)
		},
	}
	cmd.Flags().StringVarP(&output, flagOutput, "o", defaultOutput, "Output format: json or yaml")
	return cmd
}

// ShowPolicy writes the default lifecycle policy to w in the given format.
func (m *Manager) ShowPolicy(w io.Writer, format string) error {
	out, err := renderPolicy(publish.DefaultLifecyclePolicy(), format)
	if err != nil {
		return fail(m.logger, m.printer, err, "Failed to render lifecycle policy")
	}
	if _, err := w.Write(out); err != nil {
		return wrapWithSentinel(ErrWriteOutputFailed, err, fmt.Sprintf("failed to write policy: %v", err))
	}
	return nil
}

func renderPolicy(policy publish.LifecyclePolicy, format string) ([]byte, error) {
	doc, err := policy.Document()
	if err != nil {
		return nil, err
	}
	switch format {
	case outputJSON:
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(doc), "", "  "); err != nil {
			return nil, err
		}
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	case outputYAML:
		return yaml.JSONToYAML([]byte(doc))
	default:
		return nil, newWithSentinel(ErrUnknownOutputFormat,
			fmt.Sprintf("unknown output format %q (supported: %s, %s)", format, outputJSON, outputYAML)).
			WithContext("output", format)
	}
}
