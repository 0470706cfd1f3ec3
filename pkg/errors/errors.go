package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies failures from the Civitai API and local pipeline
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents an API error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// Run-level failures. These halt the run before the manifest is saved and
// force a non-zero process exit; per-item download failures never do.
var (
	// ErrManifestCorrupt means the manifest file exists but cannot be
	// decoded. Treating it as empty would mask corruption behind a mass
	// re-download, so the run halts instead.
	ErrManifestCorrupt = errors.New("manifest file is corrupt")

	// ErrArchiveFailed means the zip could not be created or closed.
	// Downloaded files are left in place when this is returned.
	ErrArchiveFailed = errors.New("archive creation failed")
)

// IsRunFatal reports whether err must abort the run and exit non-zero.
func IsRunFatal(err error) bool {
	return errors.Is(err, ErrManifestCorrupt) || errors.Is(err, ErrArchiveFailed)
}

// IsTransient checks if an error type is a transport-level condition that a
// later sync run is expected to reconcile
func IsTransient(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}
