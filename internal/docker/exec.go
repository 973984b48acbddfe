package docker

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// execCommand is a test seam for stubbing command creation in tests.
var execCommand = exec.CommandContext

// Command is a prepared docker invocation. Output is streamed through the
// writers rather than captured.
type Command interface {
	Run() error
	SetStdout(w io.Writer)
	SetStderr(w io.Writer)
	SetStdin(r io.Reader)
}

// Executor creates commands for execution.
type Executor interface {
	Command(ctx context.Context, name string, args []string, validators ...ExecValidator) (Command, error)
}

type execCmd struct {
	cmd *exec.Cmd
}

func (c *execCmd) Run() error            { return c.cmd.Run() }
func (c *execCmd) SetStdout(w io.Writer) { c.cmd.Stdout = w }
func (c *execCmd) SetStderr(w io.Writer) { c.cmd.Stderr = w }
func (c *execCmd) SetStdin(r io.Reader)  { c.cmd.Stdin = r }

// OSExecutor runs commands with os/exec. The command is killed when ctx is done.
type OSExecutor struct{}

func (OSExecutor) Command(ctx context.Context, name string, args []string, validators ...ExecValidator) (Command, error) {
	spec := ExecSpec{Name: name, Args: args}
	for _, validate := range validators {
		if err := validate(spec); err != nil {
			return nil, err
		}
	}
	return &execCmd{cmd: execCommand(ctx, name, args...)}, nil
}

// ExecSpec is what validators see before a command is created.
type ExecSpec struct {
	Name string
	Args []string
}

type ExecValidator func(ExecSpec) error

var (
	ErrBinaryNotAllowed = errors.New("exec: binary not allowed")
	ErrShellMeta        = errors.New("exec: shell metacharacters not allowed")
	ErrControlChars     = errors.New("exec: control characters not allowed")
	ErrPathEscapesRoot  = errors.New("exec: path escapes root")
)

func AllowlistBins(allowed ...string) ExecValidator {
	set := make(map[string]struct{}, len(allowed))
	for _, name := range allowed {
		set[name] = struct{}{}
	}
	return func(spec ExecSpec) error {
		if _, ok := set[spec.Name]; !ok {
			return ErrBinaryNotAllowed
		}
		return nil
	}
}

func NoShellMeta() ExecValidator {
	return func(spec ExecSpec) error {
		for _, arg := range spec.Args {
			if strings.ContainsAny(arg, "&|;<>()$`\\") {
				return ErrShellMeta
			}
		}
		return nil
	}
}

func NoControlChars() ExecValidator {
	return func(spec ExecSpec) error {
		for _, arg := range spec.Args {
			if strings.ContainsAny(arg, "\r\n\t\x00") {
				return ErrControlChars
			}
		}
		return nil
	}
}

// PathUnder checks only the given paths, not every argument, since image
// references and flags are not filesystem paths.
func PathUnder(root string, paths ...string) ExecValidator {
	absRoot := root
	if abs, err := filepath.Abs(root); err == nil {
		absRoot = abs
	}
	return func(ExecSpec) error {
		for _, p := range paths {
			if p == "-" {
				continue
			}
			candidate := p
			if !filepath.IsAbs(candidate) {
				candidate = filepath.Join(absRoot, candidate)
			}
			candidate = filepath.Clean(candidate)
			rel, err := filepath.Rel(absRoot, candidate)
			if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return ErrPathEscapesRoot
			}
		}
		return nil
	}
}
