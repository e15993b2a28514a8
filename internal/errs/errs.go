// Package errs defines the sentinel error kinds surfaced from the
// colbits storage core, plus constructors that attach context without
// losing the sentinel for errors.Is checks.
package errs

import "fmt"

type errorType string

func (e errorType) Error() string {
	return string(e)
}

// InvalidData covers page/table magic or version mismatches, type-width
// mismatches, truncated directory entries, and bit widths exceeding a
// type's bit count.
const InvalidData = errorType("invalid data")

// UnexpectedEof covers a short read inside a page or table payload. A
// clean EOF between pages or between table buckets is not an error.
const UnexpectedEof = errorType("unexpected eof")

// IoError wraps an underlying sink failure verbatim.
const IoError = errorType("io error")

// NotFound is returned by a table query for an id absent from its bucket.
const NotFound = errorType("not found")

// CapacityError is returned when a pool page append would exceed its
// capacity.
const CapacityError = errorType("capacity exceeded")

// InvalidDataf wraps InvalidData with a formatted reason, preserving
// errors.Is(err, InvalidData).
func InvalidDataf(format string, args ...any) error {
	return &wrapped{kind: InvalidData, msg: fmt.Sprintf(format, args...)}
}

// UnexpectedEoff wraps UnexpectedEof with a formatted reason.
func UnexpectedEoff(format string, args ...any) error {
	return &wrapped{kind: UnexpectedEof, msg: fmt.Sprintf(format, args...)}
}

// NotFoundf wraps NotFound with a formatted reason.
func NotFoundf(format string, args ...any) error {
	return &wrapped{kind: NotFound, msg: fmt.Sprintf(format, args...)}
}

// CapacityErrorf wraps CapacityError with a formatted reason.
func CapacityErrorf(format string, args ...any) error {
	return &wrapped{kind: CapacityError, msg: fmt.Sprintf(format, args...)}
}

type wrapped struct {
	kind errorType
	msg  string
}

func (w *wrapped) Error() string {
	return fmt.Sprintf("%s: %s", w.kind, w.msg)
}

func (w *wrapped) Unwrap() error {
	return w.kind
}

func (w *wrapped) Is(target error) bool {
	return w.kind == target
}
