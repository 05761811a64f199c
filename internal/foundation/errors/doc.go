// Package errors provides the classified error type used across sitebuilder.
//
// A ClassifiedError carries a category (config, validation, filesystem,
// highlight, render, build, internal), a severity and free-form context. The
// CLI adapter turns them into log records and process exit codes.
//
// Example usage:
//
//	err := errors.FileSystemError("stat post source").
//		WithContext("path", inputPath).
//		WithCause(statErr).
//		Build()
package errors
