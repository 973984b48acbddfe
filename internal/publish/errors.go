package publish

// This file defines the error taxonomy of the publish pipeline:
//   - One sentinel per stage, registered with its errx code in one step
//   - Wrapping helpers that attach the sentinel, cause, and structured context
//
// Every stage failure is fatal. Callers match stages with errors.Is(err, ErrPush) etc.

import (
	"errors"

	"github.com/yiktol/apcr-dva/pkg/errx"
)

type errorSpec struct {
	code        string
	description string
}

// errorSpecs maps sentinels to their codes. Declared before the sentinels so
// newSentinelError can populate it during package initialization.
var errorSpecs = make(map[error]errorSpec)

func newSentinelError(msg string, code, description string) error {
	err := errors.New(msg)
	errorSpecs[err] = errorSpec{code: code, description: description}
	return err
}

// Stage sentinels.
var (
	ErrConfigResolution   = newSentinelError("configuration resolution failed", errx.CodeConfig, errx.DescConfig)
	ErrRegistryQuery      = newSentinelError("registry query failed", errx.CodeRegistry, errx.DescRegistry)
	ErrRegistryProvision  = newSentinelError("registry provisioning failed", errx.CodeRegistry, errx.DescRegistry)
	ErrPolicyInstall      = newSentinelError("lifecycle policy install failed", errx.CodePolicy, errx.DescPolicy)
	ErrAuth               = newSentinelError("registry authentication failed", errx.CodeAuth, errx.DescAuth)
	ErrBuild              = newSentinelError("image build failed", errx.CodeBuild, errx.DescBuild)
	ErrTag                = newSentinelError("image tag failed", errx.CodeTag, errx.DescTag)
	ErrPush               = newSentinelError("image push failed", errx.CodePush, errx.DescPush)
	ErrRepositoryExists   = errors.New("repository already exists")
	ErrCredentialNotFound = errors.New("registry returned no authorization data")
)

func specFor(base error) errorSpec {
	if spec, ok := errorSpecs[base]; ok {
		return spec
	}
	return errorSpec{code: errx.CodeCLI, description: errx.DescCLI}
}

func lookupSpec(sentinel error) (code, description string) {
	spec := specFor(sentinel)
	return spec.code, spec.description
}

func newWithSentinel(base error, msg string) *errx.Error {
	return errx.FromSentinel(base, lookupSpec, msg, nil)
}

func wrapWithSentinel(base, cause error, msg string) *errx.Error {
	return errx.FromSentinel(base, lookupSpec, msg, cause)
}

func wrapWithSentinelAndContext(base, cause error, msg string, context map[string]any) error {
	return wrapWithSentinel(base, cause, msg).WithContextMap(context)
}

// Stage returns the pipeline stage sentinel err belongs to, or nil.
func Stage(err error) error {
	for _, sentinel := range []error{
		ErrConfigResolution, ErrRegistryQuery, ErrRegistryProvision, ErrPolicyInstall,
		ErrAuth, ErrBuild, ErrTag, ErrPush,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

// ConfigError reports a failure to assemble the run configuration before
// Resolve, such as an unreadable config file, as an ErrConfigResolution.
func ConfigError(cause error, msg string, context map[string]any) error {
	return wrapWithSentinelAndContext(ErrConfigResolution, cause, msg, context)
}
