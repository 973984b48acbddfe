package errx

// CreateByCode creates an Error using the provided code, description, and message.
func CreateByCode(code, description, message string, cause error) *Error {
	if cause != nil {
		return Wrap(code, description, message, cause)
	}
	return New(code, description, message)
}

// FromSentinel creates an Error whose category is looked up from a sentinel.
// Unknown sentinels fall back to the CLI category.
func FromSentinel(sentinel error, lookup func(error) (code, description string), message string, cause error) *Error {
	code, desc := lookup(sentinel)
	if code == "" {
		code = CodeCLI
		desc = DescCLI
	}
	return CreateByCode(code, desc, message, cause).WithBase(sentinel)
}

// WrapCLI wraps a cause with a CLI/argument validation error.
func WrapCLI(message string, cause error) *Error {
	return Wrap(CodeCLI, DescCLI, message, cause)
}

// Registry creates a registry error.
func Registry(message string) *Error {
	return New(CodeRegistry, DescRegistry, message)
}

// WrapRegistry wraps a cause with a registry error.
// The AWS adapters use it for control-plane failures that have no pipeline sentinel yet.
func WrapRegistry(message string, cause error) *Error {
	return Wrap(CodeRegistry, DescRegistry, message, cause)
}
