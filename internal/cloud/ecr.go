// Package cloud adapts the AWS control plane to the publish pipeline: ECR for
// repository management and login tokens, STS for the caller's account.
package cloud

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/aws/aws-sdk-go-v2/service/ecr/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/yiktol/apcr-dva/internal/publish"
	"github.com/yiktol/apcr-dva/pkg/errx"
)

// ECRAPI is the subset of the ECR client used by Registry.
type ECRAPI interface {
	DescribeRepositories(ctx context.Context, in *ecr.DescribeRepositoriesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeRepositoriesOutput, error)
	CreateRepository(ctx context.Context, in *ecr.CreateRepositoryInput, optFns ...func(*ecr.Options)) (*ecr.CreateRepositoryOutput, error)
	PutLifecyclePolicy(ctx context.Context, in *ecr.PutLifecyclePolicyInput, optFns ...func(*ecr.Options)) (*ecr.PutLifecyclePolicyOutput, error)
	GetAuthorizationToken(ctx context.Context, in *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
}

// Registry implements publish.RegistryAPI on top of ECR.
type Registry struct {
	client ECRAPI
	logger *zap.Logger
}

var _ publish.RegistryAPI = (*Registry)(nil)

// NewRegistry creates a Registry with the given client.
func NewRegistry(client ECRAPI, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{client: client, logger: logger}
}

// NewRegistryFromConfig creates a Registry bound to the region of cfg.
func NewRegistryFromConfig(cfg aws.Config, logger *zap.Logger) *Registry {
	return NewRegistry(ecr.NewFromConfig(cfg), logger)
}

// DescribeRepository returns (nil, nil) when ECR reports RepositoryNotFoundException.
func (r *Registry) DescribeRepository(ctx context.Context, name string) (*publish.Repository, error) {
	out, err := r.client.DescribeRepositories(ctx, &ecr.DescribeRepositoriesInput{
		RepositoryNames: []string{name},
	})
	var notFound *types.RepositoryNotFoundException
	if errors.As(err, &notFound) {
		r.logger.Debug("Repository not found", zap.String("repository", name))
		return nil, nil
	}
	if err != nil {
		r.logAPIError("DescribeRepositories", err)
		return nil, err
	}
	for _, repo := range out.Repositories {
		if aws.ToString(repo.RepositoryName) == name {
			converted := fromECR(repo)
			return &converted, nil
		}
	}
	return nil, nil
}

// CreateRepository creates the repository. RepositoryAlreadyExistsException is
// reported as publish.ErrRepositoryExists.
func (r *Registry) CreateRepository(ctx context.Context, spec publish.RepositorySpec) (*publish.Repository, error) {
	out, err := r.client.CreateRepository(ctx, &ecr.CreateRepositoryInput{
		RepositoryName: aws.String(spec.Name),
		ImageScanningConfiguration: &types.ImageScanningConfiguration{
			ScanOnPush: spec.ScanOnPush,
		},
		EncryptionConfiguration: &types.EncryptionConfiguration{
			EncryptionType: types.EncryptionType(spec.EncryptionType),
		},
	})
	var exists *types.RepositoryAlreadyExistsException
	if errors.As(err, &exists) {
		return nil, fmt.Errorf("%s: %w", exists.ErrorMessage(), publish.ErrRepositoryExists)
	}
	if err != nil {
		r.logAPIError("CreateRepository", err)
		return nil, err
	}
	if out.Repository == nil {
		return nil, nil
	}
	repo := fromECR(*out.Repository)
	return &repo, nil
}

// PutLifecyclePolicy installs policy as a single PutLifecyclePolicy call.
func (r *Registry) PutLifecyclePolicy(ctx context.Context, repository string, policy publish.LifecyclePolicy) error {
	doc, err := policy.Document()
	if err != nil {
		return err
	}
	r.logger.Debug("Putting lifecycle policy", zap.String("repository", repository), zap.String("policy", doc))
	_, err = r.client.PutLifecyclePolicy(ctx, &ecr.PutLifecyclePolicyInput{
		RepositoryName:      aws.String(repository),
		LifecyclePolicyText: aws.String(doc),
	})
	if err != nil {
		r.logAPIError("PutLifecyclePolicy", err)
	}
	return err
}

// LoginCredential decodes the "user:password" authorization token returned by ECR.
func (r *Registry) LoginCredential(ctx context.Context) (publish.Credential, error) {
	out, err := r.client.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{})
	if err != nil {
		r.logAPIError("GetAuthorizationToken", err)
		return publish.Credential{}, err
	}
	if len(out.AuthorizationData) == 0 || out.AuthorizationData[0].AuthorizationToken == nil {
		return publish.Credential{}, publish.ErrCredentialNotFound
	}
	data := out.AuthorizationData[0]

	decoded, err := base64.StdEncoding.DecodeString(aws.ToString(data.AuthorizationToken))
	if err != nil {
		return publish.Credential{}, errx.WrapRegistry("authorization token is not base64", err)
	}
	user, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return publish.Credential{}, errx.Registry("authorization token is not in user:password form")
	}

	cred := publish.Credential{
		Username: user,
		Password: password,
		Endpoint: aws.ToString(data.ProxyEndpoint),
	}
	if data.ExpiresAt != nil {
		cred.ExpiresAt = *data.ExpiresAt
	}
	return cred, nil
}

func (r *Registry) logAPIError(operation string, err error) {
	r.logger.Debug("ECR call failed",
		zap.String("operation", operation),
		zap.String("aws_error_code", apiErrorCode(err)),
		zap.Error(err),
	)
}

// apiErrorCode returns the service error code carried by err, or "".
func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

func fromECR(repo types.Repository) publish.Repository {
	out := publish.Repository{
		Name:  aws.ToString(repo.RepositoryName),
		URI:   aws.ToString(repo.RepositoryUri),
		State: publish.StatePresent,
	}
	if repo.ImageScanningConfiguration != nil {
		out.ScanOnPush = repo.ImageScanningConfiguration.ScanOnPush
	}
	if repo.EncryptionConfiguration != nil {
		out.EncryptionType = string(repo.EncryptionConfiguration.EncryptionType)
	}
	return out
}
