// Package docker implements publish.ImageTool on a local Docker installation,
// either through the docker binary or through the Engine API.
package docker

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/yiktol/apcr-dva/internal/publish"
)

const dockerBin = "docker"

// CLI drives the docker binary.
type CLI struct {
	exec       Executor
	logger     *zap.Logger
	stdout     io.Writer
	stderr     io.Writer
	validators []ExecValidator
}

var _ publish.ImageTool = (*CLI)(nil)

// NewCLI creates a CLI backend with the default validators.
func NewCLI(exec Executor, logger *zap.Logger) *CLI {
	if exec == nil {
		exec = OSExecutor{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CLI{
		exec:   exec,
		logger: logger,
		stdout: os.Stdout,
		stderr: os.Stderr,
		validators: []ExecValidator{
			AllowlistBins(dockerBin),
			NoControlChars(),
		},
	}
}

// WithOutput redirects docker's stdout and stderr. Nil writers discard output.
func (c *CLI) WithOutput(stdout, stderr io.Writer) *CLI {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	c.stdout = stdout
	c.stderr = stderr
	return c
}

// Login runs docker login with the password on stdin.
func (c *CLI) Login(ctx context.Context, registry string, cred publish.Credential) error {
	c.logger.Info("Logging into registry", zap.String("registry", registry))

	// #nosec G204 -- password via stdin, not the command line.
	cmd, err := c.exec.Command(ctx, dockerBin, []string{"login", "-u", cred.Username, "--password-stdin", registry}, c.validators...)
	if err != nil {
		return err
	}
	cmd.SetStdin(strings.NewReader(cred.Password))
	return c.run(cmd)
}

// Build runs docker build. The Dockerfile must live inside the context directory.
func (c *CLI) Build(ctx context.Context, req publish.BuildRequest) error {
	rel, err := contextRelativeDockerfile(req)
	if err != nil {
		return err
	}
	args := []string{"build", "-f", filepath.Join(req.ContextDir, filepath.FromSlash(rel)), "-t", req.Reference}
	if req.Platform != "" {
		args = append(args, "--platform", req.Platform)
	}
	args = append(args, req.ContextDir)

	validators := append([]ExecValidator{PathUnder(req.ContextDir, rel)}, c.validators...)

	c.logger.Debug("Running docker build", zap.Strings("args", args))
	// #nosec G204 -- fixed verb, arguments checked by validators.
	cmd, err := c.exec.Command(ctx, dockerBin, args, validators...)
	if err != nil {
		return err
	}
	return c.run(cmd)
}

// Tag runs docker tag.
func (c *CLI) Tag(ctx context.Context, source, target string) error {
	// #nosec G204 -- source/target are validated image references.
	cmd, err := c.exec.Command(ctx, dockerBin, []string{"tag", source, target}, c.refValidators()...)
	if err != nil {
		return err
	}
	return c.run(cmd)
}

// Push runs docker push.
func (c *CLI) Push(ctx context.Context, ref string) error {
	// #nosec G204 -- ref is a validated image reference.
	cmd, err := c.exec.Command(ctx, dockerBin, []string{"push", ref}, c.refValidators()...)
	if err != nil {
		return err
	}
	return c.run(cmd)
}

// refValidators guards commands whose arguments are all image references.
func (c *CLI) refValidators() []ExecValidator {
	return append([]ExecValidator{NoShellMeta()}, c.validators...)
}

func (c *CLI) run(cmd Command) error {
	cmd.SetStdout(c.stdout)
	cmd.SetStderr(c.stderr)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("docker: %w", err)
	}
	return nil
}
