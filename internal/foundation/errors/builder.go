package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError step by step:
//
//	errors.WrapError(err, errors.CategoryIndex, "failed to write content index").
//		WithStage("write_index").Fatal().Build()
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category with severity error and no
// retry.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError starts an error that keeps err as its cause.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	b := NewError(category, message)
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

// WithContext records a key for logs and the CLI's verbose output.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

// WithSlug names the post the error belongs to.
func (b *ErrorBuilder) WithSlug(slug string) *ErrorBuilder { return b.WithContext("slug", slug) }

// WithStage names the pipeline stage that failed.
func (b *ErrorBuilder) WithStage(stage string) *ErrorBuilder { return b.WithContext("stage", stage) }

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may keep being used; later changes
// do not leak into errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = maps.Clone(b.err.context)
	return &out
}

// Shorthands for the categories postbuilder raises. Defaults follow how
// each failure is handled: configuration stops the run, per-post problems
// degrade, remote operations retry.

func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal().UserAction()
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).UserAction()
}

func NotFoundError(message string) *ErrorBuilder { return NewError(CategoryNotFound, message) }

func FrontmatterError(message string) *ErrorBuilder {
	return NewError(CategoryFrontmatter, message).Warning()
}

func RenderError(message string) *ErrorBuilder { return NewError(CategoryRender, message).Warning() }

func DiagramError(message string) *ErrorBuilder { return NewError(CategoryDiagram, message).Warning() }

func IndexError(message string) *ErrorBuilder { return NewError(CategoryIndex, message) }

func FeedError(message string) *ErrorBuilder { return NewError(CategoryFeed, message) }

func EventsError(message string) *ErrorBuilder {
	return NewError(CategoryEvents, message).Warning().Retryable()
}

func GitError(message string) *ErrorBuilder { return NewError(CategoryGit, message).Retryable() }

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
