package source

import "github.com/ardnew/panc/lang"

// Predefined errors (sentinel values).
var (
	ErrReadTemplate    = lang.NewError(lang.ErrorEvaluation, "failed to read template")
	ErrParseTemplate   = lang.NewError(lang.ErrorDefinition, "failed to parse template")
	ErrInvalidDocument = lang.NewError(lang.ErrorDefinition, "invalid template document")
	ErrInvalidTypeSpec = lang.NewError(lang.ErrorDefinition, "invalid type specification")
	ErrInvalidValue    = lang.NewError(lang.ErrorDefinition, "invalid literal value")
	ErrWatch           = lang.NewError(lang.ErrorEvaluation, "failed to watch templates")
)
