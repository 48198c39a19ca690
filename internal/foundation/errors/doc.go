// Package errors provides classified error primitives used across emailbuilder.
//
// A ClassifiedError carries a category (config, template, style, inline, ...),
// a severity and a free-form context map. Style errors default to warning
// severity because a broken stylesheet degrades the build instead of stopping
// it; everything else defaults to fatal.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryTemplate, "layout not found").
//		WithContext("layout", name).
//		WithContext("page", page).
//		Build()
package errors
