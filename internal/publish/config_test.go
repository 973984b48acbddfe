package publish

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yiktol/apcr-dva/pkg/errx"
)

func TestRegistryURI(t *testing.T) {
	tests := []struct {
		account, region, repo string
		want                  string
	}{
		{"123456789012", "us-east-1", "r1", "123456789012.dkr.ecr.us-east-1.amazonaws.com/r1"},
		{"123456789012", "eu-west-2", "team/app", "123456789012.dkr.ecr.eu-west-2.amazonaws.com/team/app"},
		{"123456789012", "cn-north-1", "r1", "123456789012.dkr.ecr.cn-north-1.amazonaws.com.cn/r1"},
	}
	for _, tt := range tests {
		t.Run(tt.region+"/"+tt.repo, func(t *testing.T) {
			got := RegistryURI(tt.account, tt.region, tt.repo)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, RegistryURI(tt.account, tt.region, tt.repo), "must be stable across calls")
		})
	}
}

func TestOverrides_WithDefaults(t *testing.T) {
	t.Run("all defaults", func(t *testing.T) {
		got := Overrides{}.WithDefaults()
		assert.Equal(t, Overrides{
			Region:         DefaultRegion,
			RepositoryName: DefaultRepositoryName,
			ImageTag:       DefaultImageTag,
			AppName:        DefaultRepositoryName,
			BuildContext:   DefaultBuildContext,
			Dockerfile:     DefaultDockerfile,
		}, got)
	})

	t.Run("app name follows overridden repository", func(t *testing.T) {
		got := Overrides{RepositoryName: "r1"}.WithDefaults()
		assert.Equal(t, "r1", got.AppName)
	})

	t.Run("explicit app name wins", func(t *testing.T) {
		got := Overrides{RepositoryName: "r1", AppName: "svc"}.WithDefaults()
		assert.Equal(t, "svc", got.AppName)
	})
}

func TestOverrides_Merge(t *testing.T) {
	file := Overrides{Region: "eu-west-1", RepositoryName: "from-file", ImageTag: "file"}
	env := Overrides{ImageTag: "v2"}
	flags := Overrides{Region: "us-west-2"}

	got := file.Merge(env).Merge(flags)
	assert.Equal(t, "us-west-2", got.Region)
	assert.Equal(t, "from-file", got.RepositoryName)
	assert.Equal(t, "v2", got.ImageTag)
}

func TestOverridesFromEnv(t *testing.T) {
	dotenv := MapEnv{EnvRepositoryName: "dotenv-repo", EnvImageTag: "dotenv"}
	process := MapEnv{EnvImageTag: " v3 ", EnvRegion: "ap-south-1"}

	got := OverridesFromEnv(ChainEnv{process, nil, dotenv})
	assert.Equal(t, Overrides{
		Region:         "ap-south-1",
		RepositoryName: "dotenv-repo",
		ImageTag:       "v3",
	}, got)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves configuration", func(t *testing.T) {
		identity := &fakeIdentity{account: "123456789012"}
		cfg, err := Resolve(ctx, Overrides{RepositoryName: "r1", AppName: "svc", ImageTag: "v2"}, identity)
		require.NoError(t, err)

		assert.Equal(t, "us-east-1", cfg.Region)
		assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/r1", cfg.RegistryURI())
		assert.Equal(t, "svc:v2", cfg.LocalReference())
		assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/r1:v2", cfg.RemoteReference())
		assert.Equal(t, 1, identity.calls)
	})

	t.Run("identity failure is a config resolution error", func(t *testing.T) {
		cause := errors.New("no credentials")
		_, err := Resolve(ctx, Overrides{}, &fakeIdentity{err: cause})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrConfigResolution)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, errx.CodeConfig, errx.CodeOf(err))
	})

	t.Run("empty account identifier is rejected", func(t *testing.T) {
		_, err := Resolve(ctx, Overrides{}, &fakeIdentity{account: "  "})
		assert.ErrorIs(t, err, ErrConfigResolution)
	})

	t.Run("invalid references are rejected", func(t *testing.T) {
		_, err := Resolve(ctx, Overrides{RepositoryName: "Bad Repo"}, &fakeIdentity{account: "123456789012"})
		assert.ErrorIs(t, err, ErrConfigResolution)

		_, err = Resolve(ctx, Overrides{ImageTag: "bad tag!"}, &fakeIdentity{account: "123456789012"})
		assert.ErrorIs(t, err, ErrConfigResolution)
	})
}
