package cli

// This file resolves the run parameters from their layers, lowest first:
// defaults < config file < .env file < process environment < flags.

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yiktol/apcr-dva/internal/publish"
)

const (
	configDirName   = ".ecr-publish"
	configFileName  = "config.yaml"
	defaultEnvFile  = ".env"
	builderCLI      = "cli"
	builderEngine   = "engine"
	defaultBuilder  = builderCLI
	flagConfig      = "config"
	flagEnvFile     = "env-file"
	flagBuilder     = "builder"
	flagQuiet       = "quiet"
	flagRegion      = "region"
	flagRepository  = "repository"
	flagTag         = "tag"
	flagAppName     = "app-name"
	flagContext     = "context"
	flagDockerfile  = "dockerfile"
	flagPlatform    = "platform"
	flagOutput      = "output"
	outputJSON      = "json"
	outputYAML      = "yaml"
	defaultOutput   = outputJSON
	configFileUsage = "Config file (default ~/" + configDirName + "/" + configFileName + ")"
)

// runOptions are the flags shared by every command that resolves a configuration.
type runOptions struct {
	overrides  publish.Overrides
	configPath string
	envFile    string
	quiet      bool

	// Set from cobra after parsing: an explicitly named file must exist.
	configExplicit  bool
	envFileExplicit bool
}

func (o *runOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&o.overrides.Region, flagRegion, "", "AWS region (env "+publish.EnvRegion+", default "+publish.DefaultRegion+")")
	f.StringVar(&o.overrides.RepositoryName, flagRepository, "", "ECR repository name (env "+publish.EnvRepositoryName+", default "+publish.DefaultRepositoryName+")")
	f.StringVar(&o.overrides.ImageTag, flagTag, "", "Image tag (env "+publish.EnvImageTag+", default "+publish.DefaultImageTag+")")
	f.StringVar(&o.overrides.AppName, flagAppName, "", "Local image name (env "+publish.EnvAppName+", default repository name)")
	f.StringVar(&o.overrides.BuildContext, flagContext, "", "Build context directory (default "+publish.DefaultBuildContext+")")
	f.StringVar(&o.overrides.Dockerfile, flagDockerfile, "", "Dockerfile path relative to the build context (default "+publish.DefaultDockerfile+")")
	f.StringVar(&o.overrides.Platform, flagPlatform, "", "Target platform, e.g. linux/amd64")
	f.StringVar(&o.configPath, flagConfig, "", configFileUsage)
	f.StringVar(&o.envFile, flagEnvFile, defaultEnvFile, "Dotenv file read before the process environment")
	f.BoolVarP(&o.quiet, flagQuiet, "q", false, "Only print errors")
}

// complete records which file flags were given explicitly.
func (o *runOptions) complete(cmd *cobra.Command) {
	o.configExplicit = cmd.Flags().Changed(flagConfig)
	o.envFileExplicit = cmd.Flags().Changed(flagEnvFile)
}

func configFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", wrapWithSentinel(ErrGetHomeDirectoryFailed, err, fmt.Sprintf("failed to get home directory: %v", err))
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// loadConfigFile reads the YAML layer. A missing file is an empty layer unless
// the path was given explicitly.
func loadConfigFile(path string, explicit bool) (publish.Overrides, error) {
	if path == "" {
		p, err := configFilePath()
		if err != nil {
			return publish.Overrides{}, err
		}
		path = p
	}
	// #nosec G304 -- path is the user's own config file.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return publish.Overrides{}, nil
		}
		return publish.Overrides{}, publish.ConfigError(err,
			fmt.Sprintf("failed to read config file: %v", err),
			map[string]any{"path": path, "component": "config"})
	}
	var o publish.Overrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return publish.Overrides{}, publish.ConfigError(err,
			fmt.Sprintf("failed to parse config file %s: %v", path, err),
			map[string]any{"path": path, "component": "config"})
	}
	return o, nil
}

// saveConfigFile writes o as the YAML layer at path, creating its directory.
func saveConfigFile(path string, o publish.Overrides) error {
	if path == "" {
		p, err := configFilePath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	data, err := yaml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// readEnvFile parses a dotenv file without touching the process environment.
func readEnvFile(path string, explicit bool) (publish.MapEnv, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil, nil
		}
		return nil, publish.ConfigError(err,
			fmt.Sprintf("failed to read env file: %v", err),
			map[string]any{"path": path, "component": "config"})
	}
	return publish.MapEnv(values), nil
}

// resolveOverrides merges every layer below the defaults, which Resolve applies.
func resolveOverrides(opts runOptions, env publish.EnvReader) (publish.Overrides, error) {
	fileLayer, err := loadConfigFile(opts.configPath, opts.configExplicit)
	if err != nil {
		return publish.Overrides{}, err
	}
	dotenv, err := readEnvFile(opts.envFile, opts.envFileExplicit)
	if err != nil {
		return publish.Overrides{}, err
	}
	// Process environment wins over the dotenv file.
	envLayer := publish.OverridesFromEnv(publish.ChainEnv{env, dotenv})
	return fileLayer.Merge(envLayer).Merge(opts.overrides), nil
}
