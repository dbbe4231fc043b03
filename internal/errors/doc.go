// Package errors provides coded, actionable errors for the storefront's
// operator-facing surfaces: configuration loading, storage start-up and the
// serve command.
//
// # Error Categories
//
//   - config: invalid or unreadable configuration
//   - storage: subscriber database and contact archive failures
//   - live: live channel failures
//   - server: listener and shutdown failures
//
// # Error Codes
//
// Each code (e.g. "E102") maps to a short message, a detailed explanation
// and a default suggestion. Call sites add specifics:
//
//	err := errors.New("E102").
//	    WithDetail(`toast.policy must be "replace" or "legacy", got "keep"`).
//	    Wrap(cause)
//
//	fmt.Print(err.Format())
//	// Output:
//	// ERROR E102: Invalid configuration value
//	//
//	//   toast.policy must be "replace" or "legacy", got "keep"
//	//
//	//   Hint: Check the value against `storefront config`.
//
// Request paths never surface these errors to browsers; handlers log them
// and answer with a generic message.
package errors
