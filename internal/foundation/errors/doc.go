// Package errors provides the classified error primitives used across sitekit.
//
// A ClassifiedError carries a category, a severity, a retry strategy and a
// small context map, so callers can decide whether a failure aborts the build,
// can be retried, or should only be logged.
//
// Example usage:
//
//	err := errors.ConfigError("no 'category_index' layout found").
//		WithContext("layout", "category_index").
//		Build()
package errors
