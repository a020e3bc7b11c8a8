// internal/app/memberdata/errors.go
package memberdata

import (
	"errors"
	"fmt"
)

// Kind classifies service failures for the HTTP layer. The set is closed:
// handlers switch on it exhaustively to pick a status code.
type Kind int

const (
	// KindUnavailable covers database and infrastructure failures.
	KindUnavailable Kind = iota
	// KindNotFound means the member or taxonomy entry does not exist.
	KindNotFound
	// KindDuplicate means a unique field (email) is already taken.
	KindDuplicate
	// KindInvalid means the input failed validation.
	KindInvalid
	// KindCredentialDenied means the credential provider refused the
	// operation for a reason other than duplicate or malformed email.
	KindCredentialDenied
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindDuplicate:
		return "duplicate"
	case KindInvalid:
		return "invalid"
	case KindCredentialDenied:
		return "credential_denied"
	default:
		return "unavailable"
	}
}

// Error wraps a failure with its classification and the operation that
// produced it. The cause is preserved for errors.Is/As.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the classification from a service error. Unclassified
// errors report KindUnavailable.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnavailable
}
