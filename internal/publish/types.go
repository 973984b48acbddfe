package publish

import (
	"context"
	"time"
)

// IdentityService supplies the account identifier of the caller.
type IdentityService interface {
	AccountID(ctx context.Context) (string, error)
}

// RegistryAPI is the registry control plane, bound to one region.
type RegistryAPI interface {
	// DescribeRepository returns (nil, nil) when the repository does not exist.
	DescribeRepository(ctx context.Context, name string) (*Repository, error)
	// CreateRepository returns an error matching ErrRepositoryExists when the
	// name was taken between the existence check and the create call.
	CreateRepository(ctx context.Context, spec RepositorySpec) (*Repository, error)
	PutLifecyclePolicy(ctx context.Context, repository string, policy LifecyclePolicy) error
	LoginCredential(ctx context.Context) (Credential, error)
}

// ImageTool is the local container build tool.
type ImageTool interface {
	Login(ctx context.Context, registry string, cred Credential) error
	Build(ctx context.Context, req BuildRequest) error
	Tag(ctx context.Context, source, target string) error
	Push(ctx context.Context, ref string) error
}

// Reporter receives the human-readable progress trace.
type Reporter interface {
	Step(msg string)
	Success(msg string)
	Error(msg string)
}

type nopReporter struct{}

func (nopReporter) Step(string)    {}
func (nopReporter) Success(string) {}
func (nopReporter) Error(string)   {}

// RepositoryState is the existence state of a repository within a run.
type RepositoryState string

const (
	StateAbsent  RepositoryState = "absent"
	StatePresent RepositoryState = "present"
)

// EncryptionAES256 is the server-side encryption type used for new repositories.
const EncryptionAES256 = "AES256"

// RepositorySpec is the fixed security configuration for a new repository.
type RepositorySpec struct {
	Name           string
	ScanOnPush     bool
	EncryptionType string
}

// Repository describes a registry repository as observed or created by this run.
type Repository struct {
	Name           string
	URI            string
	State          RepositoryState
	ScanOnPush     bool
	EncryptionType string
	// Created is true only when this run created the repository.
	Created bool
	// PolicyInstalled is true only when this run installed the lifecycle policy.
	PolicyInstalled bool
}

// Credential is a short-lived registry login.
type Credential struct {
	Username  string
	Password  string
	Endpoint  string
	ExpiresAt time.Time
}

// String redacts the password.
func (c Credential) String() string {
	return "Credential{Username:" + c.Username + " Endpoint:" + c.Endpoint + " Password:<redacted>}"
}

// BuildRequest describes one local image build.
type BuildRequest struct {
	ContextDir string
	Dockerfile string
	Reference  string
	Platform   string
}

// BuildArtifact is the locally built image.
type BuildArtifact struct {
	LocalReference string
}

// PushResult is the terminal output of the pipeline.
type PushResult struct {
	RemoteReference string
	Success         bool
}
