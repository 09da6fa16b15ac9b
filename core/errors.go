package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ErrorBadInput             = "STORESYNC_BAD_INPUT"
	ErrorNotFound             = "STORESYNC_NOT_FOUND"
	ErrorStoreUnavailable     = "STORESYNC_STORE_UNAVAILABLE"
	ErrorSignatureInvalid     = "STORESYNC_SIGNATURE_INVALID"
	ErrorPayloadAbsent        = "STORESYNC_PAYLOAD_ABSENT"
	ErrorConsistencyExhausted = "STORESYNC_CONSISTENCY_EXHAUSTED"
	ErrorSynchronizerFailed   = "STORESYNC_SYNCHRONIZER_FAILED"
	ErrorInternal             = "STORESYNC_INTERNAL_ERROR"
	ErrorRecordBuffered       = "STORESYNC_RECORD_BUFFERED"
)

func BadInput(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryBadInput, ErrorBadInput, metadata)
}

func NotFound(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryNotFound, ErrorNotFound, metadata)
}

// StoreUnavailable wraps a run-log or downstream store failure. The allocator
// propagates it; the audit log degrades to its fallback channel instead.
func StoreUnavailable(source error, message string, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryExternal, ErrorStoreUnavailable, message, metadata)
}

func SignatureInvalid(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryAuth, ErrorSignatureInvalid, metadata)
}

func PayloadAbsent(message string) error {
	return newError(message, goerrors.CategoryBadInput, ErrorPayloadAbsent, nil)
}

func ConsistencyExhausted(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryOperation, ErrorConsistencyExhausted, metadata)
}

func SynchronizerFailed(source error, message string, metadata map[string]any) error {
	return wrapError(source, goerrors.CategoryOperation, ErrorSynchronizerFailed, message, metadata)
}

// RecordBuffered reports a mutation attempted on a row still inside the
// downstream streaming buffer.
func RecordBuffered(message string, metadata map[string]any) error {
	return newError(message, goerrors.CategoryConflict, ErrorRecordBuffered, metadata)
}

func Internal(source error, message string) error {
	return wrapError(source, goerrors.CategoryInternal, ErrorInternal, message, nil)
}

// kindMetadataKey keeps the storesync text code on the envelope metadata.
// go-command clones handler errors and replaces their text code; the
// metadata survives the clone.
const kindMetadataKey = "storesync_kind"

// IsKind reports whether err carries the given text code anywhere in its
// chain, including every branch of a joined error.
func IsKind(err error, textCode string) bool {
	textCode = strings.TrimSpace(textCode)
	if err == nil || textCode == "" {
		return false
	}
	return hasKind(err, textCode)
}

// KindOf returns the first storesync text code in err's chain: an envelope's
// own code, or the one a wrapping layer replaced.
func KindOf(err error) string {
	var found string
	walkErrors(err, func(current error) bool {
		richErr, ok := current.(*goerrors.Error)
		if !ok || richErr == nil {
			return false
		}
		if isStoresyncCode(richErr.TextCode) {
			found = richErr.TextCode
		} else {
			found = stampedKind(richErr)
		}
		return found != ""
	})
	return found
}

func hasKind(err error, textCode string) bool {
	return walkErrors(err, func(current error) bool {
		richErr, ok := current.(*goerrors.Error)
		if !ok || richErr == nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(richErr.TextCode), textCode) ||
			strings.EqualFold(stampedKind(richErr), textCode)
	})
}

// walkErrors visits err depth first until visit returns true.
func walkErrors(err error, visit func(error) bool) bool {
	if err == nil {
		return false
	}
	if visit(err) {
		return true
	}
	switch wrapped := err.(type) {
	case interface{ Unwrap() []error }:
		for _, branch := range wrapped.Unwrap() {
			if walkErrors(branch, visit) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return walkErrors(wrapped.Unwrap(), visit)
	}
	return false
}

func isStoresyncCode(code string) bool {
	return strings.HasPrefix(strings.TrimSpace(code), "STORESYNC_")
}

func stampedKind(err *goerrors.Error) string {
	if err == nil {
		return ""
	}
	if kind, ok := err.Metadata[kindMetadataKey].(string); ok {
		return kind
	}
	return ""
}

// MapError converts any error into the storesync envelope. An envelope whose
// text code was replaced by a wrapping layer gets its storesync code back.
func MapError(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if kind := KindOf(err); kind != "" && !isStoresyncCode(richErr.TextCode) {
			richErr = richErr.Clone()
			richErr.TextCode = kind
		}
		return ensureEnvelope(richErr)
	}
	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureEnvelope(mapped)
}

func newError(message string, category goerrors.Category, textCode string, metadata map[string]any) *goerrors.Error {
	err := goerrors.New(message, category).WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return ensureEnvelope(err)
}

func wrapError(
	source error,
	category goerrors.Category,
	textCode string,
	message string,
	metadata map[string]any,
) *goerrors.Error {
	if source == nil {
		return newError(message, category, textCode, metadata)
	}
	err := goerrors.Wrap(source, category, message).WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return ensureEnvelope(err)
}

func ensureEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = httpStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	if isStoresyncCode(err.TextCode) && stampedKind(err) == "" {
		err.WithMetadata(map[string]any{kindMetadataKey: err.TextCode})
	}
	return err
}

func defaultTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ErrorBadInput
	case goerrors.CategoryNotFound:
		return ErrorNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ErrorSignatureInvalid
	case goerrors.CategoryExternal:
		return ErrorStoreUnavailable
	default:
		return ErrorInternal
	}
}

func httpStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
