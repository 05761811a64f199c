package errors

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category at SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
	}}
}

// WrapError starts an error with err as its cause.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder { return b.WithSeverity(SeverityFatal) }

func (b *ErrorBuilder) Warning() *ErrorBuilder { return b.WithSeverity(SeverityWarning) }

// Build returns the error. The builder must not be reused afterwards.
func (b *ErrorBuilder) Build() *ClassifiedError {
	ce := b.err
	if ce.context == nil {
		ce.context = ErrorContext{}
	}
	return &ce
}

func fatal(category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).Fatal()
}

// The constructors below start fatal errors; a build stops on any of them
// unless the caller downgrades the severity.

func ConfigError(message string) *ErrorBuilder { return fatal(CategoryConfig, message) }

func ValidationError(message string) *ErrorBuilder { return fatal(CategoryValidation, message) }

// FileSystemError covers unreadable sources and unwritable output.
func FileSystemError(message string) *ErrorBuilder { return fatal(CategoryFileSystem, message) }

// HighlightError covers highlighter setup and code block rendering.
func HighlightError(message string) *ErrorBuilder { return fatal(CategoryHighlight, message) }

// RenderError covers template and Markdown rendering.
func RenderError(message string) *ErrorBuilder { return fatal(CategoryRender, message) }

func BuildError(message string) *ErrorBuilder { return fatal(CategoryBuild, message) }

func RuntimeError(message string) *ErrorBuilder { return fatal(CategoryRuntime, message) }

func InternalError(message string) *ErrorBuilder { return fatal(CategoryInternal, message) }
