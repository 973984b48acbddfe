package errx

// RegistryEntry describes a registered error code.
type RegistryEntry struct {
	Code        string
	Description string
}

// Error codes follow a stable 5-digit scheme where the first two digits are the
// pipeline stage and the last three digits are reserved for subcodes.
const (
	CodeCLI      = "70000"
	CodeConfig   = "71000"
	CodeRegistry = "72000"
	CodePolicy   = "73000"
	CodeAuth     = "74000"
	CodeBuild    = "75000"
	CodeTag      = "76000"
	CodePush     = "77000"
)

const (
	DescCLI      = "CLI/argument validation error"
	DescConfig   = "Configuration error"
	DescRegistry = "Registry error"
	DescPolicy   = "Lifecycle policy error"
	DescAuth     = "Registry authentication error"
	DescBuild    = "Build error"
	DescTag      = "Tag error"
	DescPush     = "Push error"
)

var registryEntries = []RegistryEntry{
	{Code: CodeCLI, Description: DescCLI},
	{Code: CodeConfig, Description: DescConfig},
	{Code: CodeRegistry, Description: DescRegistry},
	{Code: CodePolicy, Description: DescPolicy},
	{Code: CodeAuth, Description: DescAuth},
	{Code: CodeBuild, Description: DescBuild},
	{Code: CodeTag, Description: DescTag},
	{Code: CodePush, Description: DescPush},
}

// ErrorRegistry returns the registered codes in deterministic order.
func ErrorRegistry() []RegistryEntry {
	entries := make([]RegistryEntry, len(registryEntries))
	copy(entries, registryEntries)
	return entries
}
