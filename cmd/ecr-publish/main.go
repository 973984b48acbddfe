package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/yiktol/apcr-dva/internal/cli"
	"github.com/yiktol/apcr-dva/internal/publish"
	"github.com/yiktol/apcr-dva/pkg/errx"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
	debug   = false

	// logLevel is raised to Debug by --debug after flags are parsed.
	logLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the root command and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	logger, err := newConsoleLogger(logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	initCommands(logger)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", errx.UserString(err))
		if stage := publish.Stage(err); stage != nil {
			fmt.Fprintf(stderr, "Failed stage: %s\n", stage)
		}
		return 1
	}
	return 0
}

var rootCmd = &cobra.Command{
	Use:   "ecr-publish",
	Short: "Provision an ECR repository and publish an image to it",
	Long: `ecr-publish provisions an Amazon ECR repository if it does not exist and
publishes a locally built container image to it:
- Repository creation with scan-on-push and AES256 encryption
- Lifecycle policy on newly created repositories
- Registry login, docker build, tag and push`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		errx.SetDebugMode(debug)
		if debug {
			logLevel.SetLevel(zap.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode with structured error logging")
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return errx.WrapCLI(fmt.Sprintf("%s: %v", cmd.CommandPath(), err), err)
	})
	rootCmd.Long += errorCodesHelp()
}

// errorCodesHelp lists the registered error codes for the root help text.
func errorCodesHelp() string {
	var b strings.Builder
	b.WriteString("\n\nError codes:")
	for _, entry := range errx.ErrorRegistry() {
		fmt.Fprintf(&b, "\n  %s  %s", entry.Code, entry.Description)
	}
	return b.String()
}

func initCommands(logger *zap.Logger) {
	rootCmd.ResetCommands()
	rootCmd.AddCommand(cli.NewPublishCmd(logger))
	rootCmd.AddCommand(cli.NewRepoCmd(logger))
	rootCmd.AddCommand(cli.NewPolicyCmd(logger))
	rootCmd.AddCommand(cli.NewConfigCmd(logger))
}

// newConsoleLogger returns a human-friendly console logger with timestamps.
// The level is shared so --debug can raise it after the commands are built.
func newConsoleLogger(level zap.AtomicLevel) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = level
	cfg.EncoderConfig = zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "",
		CallerKey:      "",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}
