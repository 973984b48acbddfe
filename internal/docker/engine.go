package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/registry"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/google/go-containerregistry/pkg/name"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/yiktol/apcr-dva/internal/publish"
)

// ErrNotLoggedIn is returned by Engine.Push when Login was never called for the
// reference's registry.
var ErrNotLoggedIn = errors.New("no credentials for registry")

// EngineAPI is the subset of the Docker Engine client used by Engine.
type EngineAPI interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	ImageTag(ctx context.Context, source, target string) error
	ImagePush(ctx context.Context, ref string, options image.PushOptions) (io.ReadCloser, error)
	RegistryLogin(ctx context.Context, auth registry.AuthConfig) (registry.AuthenticateOKBody, error)
	Close() error
}

// Engine talks to the Docker daemon over its API instead of shelling out.
type Engine struct {
	api    EngineAPI
	logger *zap.Logger
	out    io.Writer

	mu   sync.Mutex
	auth map[string]string
}

var _ publish.ImageTool = (*Engine)(nil)

// NewEngine connects to the daemon configured by DOCKER_HOST and friends.
func NewEngine(logger *zap.Logger) (*Engine, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return NewEngineWithAPI(cli, logger), nil
}

// NewEngineWithAPI creates an Engine on top of an existing client.
func NewEngineWithAPI(api EngineAPI, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		api:    api,
		logger: logger,
		out:    os.Stdout,
		auth:   make(map[string]string),
	}
}

// WithOutput redirects build and push progress. Nil discards it.
func (e *Engine) WithOutput(out io.Writer) *Engine {
	if out == nil {
		out = io.Discard
	}
	e.out = out
	return e
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	return e.api.Close()
}

// Login verifies the credential with the daemon and keeps it for later pushes
// to the same registry host.
func (e *Engine) Login(ctx context.Context, host string, cred publish.Credential) error {
	authConfig := registry.AuthConfig{
		Username:      cred.Username,
		Password:      cred.Password,
		ServerAddress: host,
	}
	resp, err := e.api.RegistryLogin(ctx, authConfig)
	if err != nil {
		return err
	}
	if resp.IdentityToken != "" {
		authConfig.IdentityToken = resp.IdentityToken
		authConfig.Password = ""
	}
	encoded, err := registry.EncodeAuthConfig(authConfig)
	if err != nil {
		return fmt.Errorf("failed to encode registry auth: %w", err)
	}

	e.mu.Lock()
	e.auth[host] = encoded
	e.mu.Unlock()

	e.logger.Debug("Registry login accepted", zap.String("registry", host), zap.String("status", resp.Status))
	return nil
}

// Build sends the context directory to the daemon and streams the build output.
func (e *Engine) Build(ctx context.Context, req publish.BuildRequest) error {
	dockerfile, err := contextRelativeDockerfile(req)
	if err != nil {
		return err
	}

	buildCtx, err := archive.TarWithOptions(req.ContextDir, &archive.TarOptions{})
	if err != nil {
		return fmt.Errorf("failed to archive build context %s: %w", req.ContextDir, err)
	}
	defer buildCtx.Close()

	resp, err := e.api.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:        []string{req.Reference},
		Dockerfile:  dockerfile,
		Platform:    req.Platform,
		Remove:      true,
		ForceRemove: true,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return e.display(resp.Body)
}

// Tag adds target as a name for source.
func (e *Engine) Tag(ctx context.Context, source, target string) error {
	return e.api.ImageTag(ctx, source, target)
}

// Push uploads ref with the credential stored by Login for its registry.
func (e *Engine) Push(ctx context.Context, ref string) error {
	parsed, err := name.ParseReference(ref)
	if err != nil {
		return err
	}
	host := parsed.Context().RegistryStr()

	e.mu.Lock()
	auth, ok := e.auth[host]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", host, ErrNotLoggedIn)
	}

	body, err := e.api.ImagePush(ctx, ref, image.PushOptions{RegistryAuth: auth})
	if err != nil {
		return err
	}
	defer body.Close()

	return e.display(body)
}

// display renders a daemon progress stream and returns the first error message in it.
func (e *Engine) display(stream io.Reader) error {
	var fd uintptr
	isTerminal := false
	if f, ok := e.out.(*os.File); ok {
		fd = f.Fd()
		isTerminal = term.IsTerminal(int(fd))
	}
	return jsonmessage.DisplayJSONMessagesStream(stream, e.out, fd, isTerminal, nil)
}

// contextRelativeDockerfile returns the Dockerfile path inside the build context,
// as the Engine API expects.
func contextRelativeDockerfile(req publish.BuildRequest) (string, error) {
	rel := req.Dockerfile
	if rel == "" {
		rel = publish.DefaultDockerfile
	}
	if filepath.IsAbs(rel) {
		root, err := filepath.Abs(req.ContextDir)
		if err != nil {
			return "", err
		}
		if rel, err = filepath.Rel(root, rel); err != nil {
			return "", err
		}
	}
	rel = filepath.Clean(rel)
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("dockerfile %s is outside build context %s: %w", req.Dockerfile, req.ContextDir, ErrPathEscapesRoot)
	}
	return filepath.ToSlash(rel), nil
}
