package archive

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// ErrorKind classifies every failure the engine can report
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindUnsupportedFormat
	KindPasswordRequired
	KindInvalidPassword
	KindSecurity
	KindSizeLimitExceeded
	KindCorrupted
	KindIo
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not-found"
	case KindUnsupportedFormat:
		return "unsupported-format"
	case KindPasswordRequired:
		return "password-required"
	case KindInvalidPassword:
		return "invalid-password"
	case KindSecurity:
		return "security"
	case KindSizeLimitExceeded:
		return "size-limit-exceeded"
	case KindCorrupted:
		return "corrupted"
	case KindIo:
		return "io"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

// SecurityKind narrows down a KindSecurity error
type SecurityKind int

const (
	SecurityNone SecurityKind = iota
	SecurityPathTraversal
	SecurityAbsolutePath
	SecurityUnsafeEntryType
)

// ExtractError is returned by Extract and Probe. Security and size
// violations are always fatal for the whole run.
type ExtractError struct {
	Kind     ErrorKind
	Security SecurityKind

	// Detail is the offending path, format name or backend diagnostic
	Detail string

	// Current and Limit are only set for KindSizeLimitExceeded
	Current uint64
	Limit   uint64

	Err error
}

var _ error = (*ExtractError)(nil)

func (e *ExtractError) Error() string {
	switch e.Kind {
	case KindNotFound:
		return fmt.Sprintf("Archive not found: %s", e.Detail)
	case KindUnsupportedFormat:
		return fmt.Sprintf("Unsupported format: %s", e.Detail)
	case KindPasswordRequired:
		return "Password required"
	case KindInvalidPassword:
		return "Invalid password"
	case KindSecurity:
		return fmt.Sprintf("Security violation: %s", e.securityMessage())
	case KindSizeLimitExceeded:
		return fmt.Sprintf("Size limit exceeded: %d bytes > %d bytes", e.Current, e.Limit)
	case KindCorrupted:
		return fmt.Sprintf("Corrupted archive: %s", e.Detail)
	case KindIo:
		return fmt.Sprintf("IO error: %s", e.Detail)
	case KindCancelled:
		return "Cancelled by user"
	}
	return e.Detail
}

func (e *ExtractError) securityMessage() string {
	switch e.Security {
	case SecurityPathTraversal:
		return fmt.Sprintf("Path traversal attempt: %s", e.Detail)
	case SecurityAbsolutePath:
		return fmt.Sprintf("Absolute path not allowed: %s", e.Detail)
	case SecurityUnsafeEntryType:
		return fmt.Sprintf("Unsafe entry type: %s", e.Detail)
	}
	return e.Detail
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first ExtractError found in err's chain,
// KindUnknown if there is none.
func KindOf(err error) ErrorKind {
	var ee *ExtractError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnknown
}

// IsCancelled tells apart "user stopped it" from "it broke"
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}

// IsPasswordError is true for both PasswordRequired and InvalidPassword,
// the two kinds a caller may retry with another password.
func IsPasswordError(err error) bool {
	k := KindOf(err)
	return k == KindPasswordRequired || k == KindInvalidPassword
}

func notFound(path string) error {
	return &ExtractError{Kind: KindNotFound, Detail: path}
}

func unsupportedFormat(detail string) error {
	return &ExtractError{Kind: KindUnsupportedFormat, Detail: detail}
}

// passwordError picks between PasswordRequired and InvalidPassword
// depending on whether the caller supplied a password at all
func passwordError(opts *ExtractOptions, cause error) error {
	kind := KindPasswordRequired
	if opts != nil && opts.Password != nil {
		kind = KindInvalidPassword
	}
	return &ExtractError{Kind: kind, Err: cause}
}

func securityError(kind SecurityKind, detail string) error {
	return &ExtractError{Kind: KindSecurity, Security: kind, Detail: detail}
}

func sizeLimitExceeded(current uint64, limit uint64) error {
	return &ExtractError{Kind: KindSizeLimitExceeded, Current: current, Limit: limit}
}

func corrupted(cause error) error {
	return &ExtractError{Kind: KindCorrupted, Detail: cause.Error(), Err: cause}
}

func cancelled() error {
	return &ExtractError{Kind: KindCancelled}
}

// ioError classifies a filesystem error. Errors that already carry a
// kind are passed through untouched.
func ioError(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnknown {
		return err
	}
	return &ExtractError{Kind: KindIo, Detail: err.Error(), Err: err}
}

// IsExist reports whether err is an "already exists" I/O failure, such as
// running out of rename candidates.
func IsExist(err error) bool {
	return errors.Is(err, os.ErrExist)
}
