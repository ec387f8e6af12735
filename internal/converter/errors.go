package converter

import "fmt"

// MissingInputError reports an input path that does not exist.
type MissingInputError struct {
	Path string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("input file not found: %s", e.Path)
}

// UnsupportedFormatError reports an extension that is not recognized, or
// one that contradicts the direction a caller forced.
type UnsupportedFormatError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format for %s: %s", e.Path, e.Reason)
}

// ConversionError wraps a failure inside either transcoder, preserving the
// cause for diagnostics.
type ConversionError struct {
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion of %s failed: %v", e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// WriteError reports a failed output or directory write.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
