// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Packed parameter decoding errors.
var (
	// ErrMalformedParams indicates a packed parameter string that cannot be decoded.
	// Decode surfaces it loudly; bulk paths (statistics fallback, XML import) catch
	// it per row, skip the row and count the skip.
	ErrMalformedParams = errors.New("malformed packed params")
)

// Aggregation capability errors.
var (
	// ErrCapabilityUnavailable indicates the storage engine cannot run the
	// requested aggregation natively. The aggregator always recovers from it by
	// switching to the in-process fallback; it never reaches the aggregator's caller.
	ErrCapabilityUnavailable = errors.New("native aggregation capability unavailable")
)

// Validation errors.
var (
	// ErrInvalidArgument indicates a caller-supplied option outside its valid
	// range (similarity threshold outside [0,1], negative window or limit).
	ErrInvalidArgument = errors.New("invalid argument")
)

// Lookup errors.
var (
	// ErrNotFound indicates a missing episode or comment.
	ErrNotFound = errors.New("not found")
)

// Exchange format errors.
var (
	// ErrUnsupportedFormat indicates a danmaku XML document that does not match
	// the expected structure.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)
