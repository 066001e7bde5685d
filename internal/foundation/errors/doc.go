// Package errors provides the classified error primitives used across postbuilder.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a
// category (frontmatter, render, index, ...), a severity and a small context map
// (slug, stage, path). Per-document problems use SeverityWarning so the index
// build keeps going; artifact write failures use SeverityFatal.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryRender, "diagram rendering failed").
//		Warning().
//		WithContext("slug", slug).
//		WithContext("stage", "diagrams").
//		Build()
package errors
