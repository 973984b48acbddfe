package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
)

// Environment variable names read by OverridesFromEnv.
const (
	EnvRegion         = "AWS_REGION"
	EnvImageTag       = "IMAGE_TAG"
	EnvRepositoryName = "ECR_REPOSITORY_NAME"
	EnvAppName        = "APP_NAME"
)

// Defaults applied when no layer provides a value.
const (
	DefaultRegion         = "us-east-1"
	DefaultRepositoryName = "bedrock-chatbot"
	DefaultImageTag       = "latest"
	DefaultBuildContext   = "."
	DefaultDockerfile     = "Dockerfile"
)

// Overrides holds the optional run parameters from one configuration layer.
// Empty fields mean "not set by this layer".
type Overrides struct {
	Region         string `yaml:"region,omitempty"`
	RepositoryName string `yaml:"repositoryName,omitempty"`
	ImageTag       string `yaml:"imageTag,omitempty"`
	AppName        string `yaml:"appName,omitempty"`
	BuildContext   string `yaml:"buildContext,omitempty"`
	Dockerfile     string `yaml:"dockerfile,omitempty"`
	Platform       string `yaml:"platform,omitempty"`
}

// OverridesFromEnv reads the environment layer through env.
func OverridesFromEnv(env EnvReader) Overrides {
	get := func(key string) string { return strings.TrimSpace(env.Getenv(key)) }
	return Overrides{
		Region:         get(EnvRegion),
		RepositoryName: get(EnvRepositoryName),
		ImageTag:       get(EnvImageTag),
		AppName:        get(EnvAppName),
	}
}

// Merge returns o with every non-empty field of higher applied on top.
func (o Overrides) Merge(higher Overrides) Overrides {
	pick := func(low, high string) string {
		if high != "" {
			return high
		}
		return low
	}
	return Overrides{
		Region:         pick(o.Region, higher.Region),
		RepositoryName: pick(o.RepositoryName, higher.RepositoryName),
		ImageTag:       pick(o.ImageTag, higher.ImageTag),
		AppName:        pick(o.AppName, higher.AppName),
		BuildContext:   pick(o.BuildContext, higher.BuildContext),
		Dockerfile:     pick(o.Dockerfile, higher.Dockerfile),
		Platform:       pick(o.Platform, higher.Platform),
	}
}

// WithDefaults fills every unset field. The application name defaults to the
// repository name after the repository name itself has been defaulted.
func (o Overrides) WithDefaults() Overrides {
	out := Overrides{
		Region:         DefaultRegion,
		RepositoryName: DefaultRepositoryName,
		ImageTag:       DefaultImageTag,
		BuildContext:   DefaultBuildContext,
		Dockerfile:     DefaultDockerfile,
	}.Merge(o)
	if out.AppName == "" {
		out.AppName = out.RepositoryName
	}
	return out
}

// Config is the fully resolved run configuration. It is built once by Resolve
// and passed by value to every stage; no stage reads the environment.
type Config struct {
	Region         string
	AccountID      string
	RepositoryName string
	ImageTag       string
	AppName        string
	BuildContext   string
	Dockerfile     string
	Platform       string
}

// RegistryHost returns the registry endpoint for the account and region.
func (c Config) RegistryHost() string {
	return RegistryHost(c.AccountID, c.Region)
}

// RegistryURI returns "<account>.dkr.ecr.<region>.<domain>/<repository>".
func (c Config) RegistryURI() string {
	return RegistryURI(c.AccountID, c.Region, c.RepositoryName)
}

// LocalReference is the name:tag the build step produces.
func (c Config) LocalReference() string {
	return c.AppName + ":" + c.ImageTag
}

// RemoteReference is the registryURI:tag the tag and push steps use.
func (c Config) RemoteReference() string {
	return c.RegistryURI() + ":" + c.ImageTag
}

// RegistryHost derives the ECR registry host. China partitions use the .com.cn domain.
func RegistryHost(accountID, region string) string {
	domain := "amazonaws.com"
	if strings.HasPrefix(region, "cn-") {
		domain = "amazonaws.com.cn"
	}
	return fmt.Sprintf("%s.dkr.ecr.%s.%s", accountID, region, domain)
}

// RegistryURI derives the repository address from account, region and repository.
func RegistryURI(accountID, region, repositoryName string) string {
	return RegistryHost(accountID, region) + "/" + repositoryName
}

// Resolve applies defaults, looks up the account identifier and validates the
// resulting image references. Any failure is an ErrConfigResolution.
func Resolve(ctx context.Context, o Overrides, identity IdentityService) (Config, error) {
	o = o.WithDefaults()

	accountID, err := identity.AccountID(ctx)
	if err != nil {
		return Config{}, wrapWithSentinelAndContext(
			ErrConfigResolution,
			err,
			fmt.Sprintf("failed to look up account identifier: %v", err),
			map[string]any{"region": o.Region, "component": "config"},
		)
	}
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return Config{}, newWithSentinel(ErrConfigResolution, "identity service returned an empty account identifier").
			WithContext("region", o.Region)
	}

	cfg := Config{
		Region:         o.Region,
		AccountID:      accountID,
		RepositoryName: o.RepositoryName,
		ImageTag:       o.ImageTag,
		AppName:        o.AppName,
		BuildContext:   o.BuildContext,
		Dockerfile:     o.Dockerfile,
		Platform:       o.Platform,
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate checks both references. The local one has no registry host, so it
// is parsed weakly; the remote one must be fully qualified.
func (c Config) validate() error {
	refs := []struct {
		ref string
		opt name.Option
	}{
		{c.LocalReference(), name.WeakValidation},
		{c.RemoteReference(), name.StrictValidation},
	}
	for _, r := range refs {
		ref := r.ref
		if _, err := name.NewTag(ref, r.opt); err != nil {
			return wrapWithSentinelAndContext(
				ErrConfigResolution,
				err,
				fmt.Sprintf("invalid image reference %q: %v", ref, err),
				map[string]any{"reference": ref, "component": "config"},
			)
		}
	}
	return nil
}
