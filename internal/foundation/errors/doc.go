// Package errors provides the classified error type used across sitebaker.
//
// A ClassifiedError carries a category (config, generate, render, toc, ...),
// a severity and a retry strategy, plus structured context that log handlers
// can flatten into attributes. Errors are created through the fluent builder:
//
//	err := errors.ConfigError("no output directory specified").
//		WithContext("field", "output").
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
