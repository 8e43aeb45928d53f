package board

import (
	"errors"
	"fmt"
)

// InvalidNotationError reports a malformed square, move or placement token.
type InvalidNotationError struct {
	Input  string
	Reason string
}

func (e *InvalidNotationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid chess notation %q", e.Input)
	}
	return fmt.Sprintf("invalid chess notation %q: %s", e.Input, e.Reason)
}

// PieceNotFoundError reports a move whose origin square holds no settled piece.
type PieceNotFoundError struct {
	Move   string
	Square Square
}

func (e *PieceNotFoundError) Error() string {
	return fmt.Sprintf("move %s: no piece at %s", e.Move, e.Square)
}

// TemplateLoadError reports a missing or unreadable board template.
type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("load board template %s: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

// RenderError reports a failed raster conversion of a scene.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("render scene: %v", e.Err)
	}
	return fmt.Sprintf("render scene to %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DuplicateTagError reports two instances with the same tag in one color collection.
type DuplicateTagError struct {
	Color Color
	Tag   string
}

func (e *DuplicateTagError) Error() string {
	return fmt.Sprintf("duplicate %s piece tag %q", e.Color, e.Tag)
}

func invalidNotation(input, format string, args ...any) error {
	return &InvalidNotationError{Input: input, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidNotation reports whether err carries an InvalidNotationError.
func IsInvalidNotation(err error) bool {
	var target *InvalidNotationError
	return errors.As(err, &target)
}
