package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is the error type every postbuilder package returns. The
// category decides the CLI exit code; the severity decides whether a build
// keeps going; context carries the slug, stage and path for logs.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "[category:severity] message: cause".
func (e *ClassifiedError) Error() string {
	head := fmt.Sprintf("[%s:%s] %s", e.category, e.severity, e.message)
	if e.cause == nil {
		return head
	}
	return head + ": " + e.cause.Error()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Message() string              { return e.message }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// WithContext derives an error with one more context entry; e is unchanged.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	derived := *e
	derived.context = e.context.Merge(ErrorContext{key: value})
	return &derived
}

// Is lets errors.Is match sentinel errors built from the same category and
// message.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

// CanRetry is true for transient failures such as a dropped git connection.
func (e *ClassifiedError) CanRetry() bool {
	return e.retry != RetryNever && e.retry != RetryUserAction
}

// IsFatal is true when the build must stop.
func (e *ClassifiedError) IsFatal() bool { return e.severity == SeverityFatal }

// IsRecoverable is true when the affected post degrades and the rest of the
// build continues.
func (e *ClassifiedError) IsRecoverable() bool {
	return e.severity == SeverityWarning || e.severity == SeverityInfo
}

// AsClassified returns the outermost ClassifiedError wrapped by err.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if !stderrors.As(err, &ce) {
		return nil, false
	}
	return ce, true
}

// HasCategory reports whether err carries a ClassifiedError of category.
func HasCategory(err error, category ErrorCategory) bool {
	ce, ok := AsClassified(err)
	return ok && ce.category == category
}

// GetCategory falls back to CategoryInternal for unclassified errors.
func GetCategory(err error) ErrorCategory {
	if ce, ok := AsClassified(err); ok {
		return ce.category
	}
	return CategoryInternal
}

// GetSeverity falls back to SeverityError for unclassified errors.
func GetSeverity(err error) ErrorSeverity {
	if ce, ok := AsClassified(err); ok {
		return ce.severity
	}
	return SeverityError
}

// IsNotFound reports a missing post, index or source directory.
func IsNotFound(err error) bool {
	return HasCategory(err, CategoryNotFound)
}
