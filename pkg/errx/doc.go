// Package errx provides structured, code-based errors for the ecr-publish tool.
//
// Every error carries:
//   - A stable 5-digit code (e.g. "77000" for push failures)
//   - A category description (e.g. "Push error")
//   - A user-facing message
//   - Optional structured context (key-value pairs)
//   - Optional cause and base sentinel errors
//
// The first two digits of a code identify the pipeline stage that failed:
//   - 70xxx: CLI/argument validation errors
//   - 71xxx: Configuration resolution errors
//   - 72xxx: Registry query/provisioning errors
//   - 73xxx: Lifecycle policy errors
//   - 74xxx: Registry authentication errors
//   - 75xxx: Image build errors
//   - 76xxx: Image tag errors
//   - 77xxx: Image push errors
//
// The last three digits are reserved for subcodes.
//
// Example usage:
//
//	err := errx.WrapRegistry("describe repository failed", cause).
//		WithContext("repository", "bedrock-chatbot").
//		WithBase(sentinelErr)
//
//	if errors.Is(err, sentinelErr) {
//		// Handle specific error
//	}
//
//	fmt.Println(errx.UserString(err))  // User-friendly message
//	fmt.Println(errx.DebugString(err)) // Full debug details
package errx
