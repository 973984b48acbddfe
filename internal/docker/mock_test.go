package docker

import (
	"context"
	"io"
)

// MockCommand records what a command was wired to and returns canned results.
type MockCommand struct {
	Name    string
	Args    []string
	RunErr  error
	RunFunc func() error

	StdoutW io.Writer
	StderrW io.Writer
	StdinR  io.Reader
	Stdin   []byte
}

func (m *MockCommand) SetStdout(w io.Writer) { m.StdoutW = w }
func (m *MockCommand) SetStderr(w io.Writer) { m.StderrW = w }
func (m *MockCommand) SetStdin(r io.Reader)  { m.StdinR = r }

func (m *MockCommand) Run() error {
	if m.StdinR != nil {
		m.Stdin, _ = io.ReadAll(m.StdinR)
	}
	if m.RunFunc != nil {
		return m.RunFunc()
	}
	return m.RunErr
}

// MockExecutor records every command it creates.
type MockExecutor struct {
	Commands      []*MockCommand
	DefaultRunErr error
	CommandFunc   func(spec ExecSpec) *MockCommand
	// RunValidators applies validators like OSExecutor does.
	RunValidators bool
}

func (m *MockExecutor) Command(_ context.Context, name string, args []string, validators ...ExecValidator) (Command, error) {
	spec := ExecSpec{Name: name, Args: args}
	if m.RunValidators {
		for _, validate := range validators {
			if err := validate(spec); err != nil {
				return nil, err
			}
		}
	}

	var cmd *MockCommand
	if m.CommandFunc != nil {
		cmd = m.CommandFunc(spec)
	} else {
		cmd = &MockCommand{RunErr: m.DefaultRunErr}
	}
	cmd.Name = name
	cmd.Args = args
	m.Commands = append(m.Commands, cmd)
	return cmd, nil
}

func (m *MockExecutor) HasCommand(name string) bool {
	for _, cmd := range m.Commands {
		if cmd.Name == name {
			return true
		}
	}
	return false
}

func (m *MockExecutor) LastCommand() *MockCommand {
	if len(m.Commands) == 0 {
		return nil
	}
	return m.Commands[len(m.Commands)-1]
}

func contains(slice []string, val string) bool {
	for _, s := range slice {
		if s == val {
			return true
		}
	}
	return false
}
