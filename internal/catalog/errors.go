package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrQuestionNotFound is returned when a question id is not part of a template.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrTemplateNotFound is returned when no template is registered under a name.
	ErrTemplateNotFound = errors.New("interview template not found")
)

// ConfigurationError reports a template source that is missing or malformed.
// It makes only that template unavailable.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("template %s: %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
