package domain

import "errors"

// Conversion error taxonomy. Every kind is absorbed at the Convert
// boundary and turned into "return the descriptor unchanged"; none of
// them ever reaches the upload pipeline. They exist so the recovery
// decision is explicit and testable rather than buried in suppressed
// errors.
var (
	ErrNotEligible       = errors.New("file not eligible for webp conversion")
	ErrEditorUnavailable = errors.New("image editor unavailable for file")
	ErrEncodeFailed      = errors.New("webp encode failed")
	ErrDeleteFailed      = errors.New("original file deletion failed")
)
