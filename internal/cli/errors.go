package cli

// This file defines the command-layer errors: bad flag values and local
// prerequisites that fail before the publish pipeline starts. Pipeline stage
// errors come from the publish package unchanged.

import (
	"errors"

	"go.uber.org/zap"

	"github.com/yiktol/apcr-dva/pkg/errx"
)

type errorSpec struct {
	code        string
	description string
}

// errorSpecs is populated by newSentinelError during variable initialization,
// so it must be declared before the sentinels.
var errorSpecs = make(map[error]errorSpec)

func newSentinelError(msg string, code, description string) error {
	err := errors.New(msg)
	errorSpecs[err] = errorSpec{code: code, description: description}
	return err
}

var (
	ErrUnknownBuilder         = newSentinelError("unknown builder", errx.CodeCLI, errx.DescCLI)
	ErrUnknownOutputFormat    = newSentinelError("unknown output format", errx.CodeCLI, errx.DescCLI)
	ErrGetHomeDirectoryFailed = newSentinelError("failed to get home directory", errx.CodeCLI, errx.DescCLI)
	ErrWriteOutputFailed      = newSentinelError("failed to write output", errx.CodeCLI, errx.DescCLI)
	ErrImageToolUnavailable   = newSentinelError("image tool unavailable", errx.CodeBuild, errx.DescBuild)
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

// fail prints headline, logs err in debug mode and returns it.
func fail(logger *zap.Logger, printer *Printer, err error, headline string) error {
	printer.Error(headline)
	errx.LogStructured(logger, err, headline)
	return err
}
