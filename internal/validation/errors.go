// Package validation implements the acceptance rules for candidate URLs and
// files: protocol and domain lists, extension lists, and size limits.
// Rejections are returned as typed errors, never panics, so batch callers
// can report every reason without aborting early.
package validation

import "fmt"

// Reason classifies why a candidate was rejected.
type Reason string

const (
	ReasonEmptyInput       Reason = "empty_input"
	ReasonTooLong          Reason = "url_too_long"
	ReasonMalformedURL     Reason = "malformed_url"
	ReasonProtocol         Reason = "protocol_not_allowed"
	ReasonDomainBlocked    Reason = "domain_blocked"
	ReasonDomainNotAllowed Reason = "domain_not_allowed"
	ReasonNoExtension      Reason = "no_extension"
	ReasonExtBlocked       Reason = "extension_blocked"
	ReasonExtNotAllowed    Reason = "extension_not_allowed"
	ReasonEmptyFile        Reason = "empty_file"
	ReasonFileTooLarge     Reason = "file_too_large"
	ReasonBatchTooLarge    Reason = "total_size_exceeded"
)

// Error is a typed validation rejection.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(reason Reason, format string, args ...any) *Error {
	return &Error{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
