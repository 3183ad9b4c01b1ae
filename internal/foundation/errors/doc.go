// Package errors provides the classified error primitives used across symdoc.
//
// Every failure that reaches the CLI carries a category (config, symbolgraph,
// filesystem, ...) and a severity. Compiler records with an unrecognized kind
// are fatal symbolgraph errors; the CLI adapter maps categories to exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryFileSystem, "read symbol graph").
//		WithContext("path", path).
//		Build()
package errors
